package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/csells/ragamuffin/internal/service"

	"github.com/urfave/cli/v3"
)

// SearchAction retrieves the most relevant chunks for a query.
func SearchAction(ctx context.Context, cmd *cli.Command) error {
	if cmd.Args().Len() != 2 {
		return fmt.Errorf("usage: search <vault> <query>")
	}
	name := cmd.Args().Get(0)
	query := cmd.Args().Get(1)

	app, err := NewAppContext()
	if err != nil {
		return err
	}
	defer app.Close()

	svc := app.Service
	if topK := int(cmd.Int("top-k")); topK > 0 {
		svc = service.NewRAGService(app.Vaults, app.Chunks, app.Embedder, app.Provider, topK)
	}

	results, err := svc.Search(ctx, name, query)
	if err != nil {
		return err
	}
	if len(results) == 0 {
		fmt.Println("No results. Has the vault been synced?")
		return nil
	}

	for i, r := range results {
		fmt.Printf("%d. [%.4f] %s\n", i+1, r.Score, firstLine(r.Chunk.Text))
	}
	return nil
}

// firstLine returns the first line of a chunk for compact display.
func firstLine(text string) string {
	line := text
	if i := strings.IndexByte(line, '\n'); i >= 0 {
		line = line[:i]
	}
	const maxLen = 120
	if len(line) > maxLen {
		line = line[:maxLen] + "..."
	}
	return line
}
