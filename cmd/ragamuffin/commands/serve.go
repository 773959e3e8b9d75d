package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	nethttp "net/http"
	"time"

	internalhttp "github.com/csells/ragamuffin/internal/http"

	"github.com/urfave/cli/v3"
)

// ServeAction runs the HTTP API until the context is cancelled.
func ServeAction(ctx context.Context, cmd *cli.Command) error {
	app, err := NewAppContext()
	if err != nil {
		return err
	}
	defer app.Close()

	router := internalhttp.NewRouter(&internalhttp.Deps{
		Service: app.Service,
		Syncer:  app.Pipeline,
		Vaults:  app.Vaults,
	})

	server := &nethttp.Server{
		Addr:              ":" + app.Config.APIPort,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("http server listening", "addr", server.Addr)
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, nethttp.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("http server failed: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown failed: %w", err)
		}
		slog.Info("http server stopped")
		return nil
	}
}
