package commands

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"
)

// SyncAction reconciles a vault's stored chunks with its files on disk.
func SyncAction(ctx context.Context, cmd *cli.Command) error {
	if cmd.Args().Len() != 1 {
		return fmt.Errorf("usage: sync <vault>")
	}
	name := cmd.Args().Get(0)

	app, err := NewAppContext()
	if err != nil {
		return err
	}
	defer app.Close()

	result, err := app.Pipeline.Sync(ctx, name)
	if err != nil {
		return err
	}

	fmt.Printf("Synced vault %q: %d added, %d deleted\n", name, result.Added, result.Deleted)
	return nil
}

// StatusAction reports whether a vault's index is stale.
func StatusAction(ctx context.Context, cmd *cli.Command) error {
	if cmd.Args().Len() != 1 {
		return fmt.Errorf("usage: status <vault>")
	}
	name := cmd.Args().Get(0)

	app, err := NewAppContext()
	if err != nil {
		return err
	}
	defer app.Close()

	stale, err := app.Pipeline.IsStale(ctx, name)
	if err != nil {
		return err
	}

	if stale {
		fmt.Printf("Vault %q is stale. Run: ragamuffin sync %s\n", name, name)
	} else {
		fmt.Printf("Vault %q is up to date.\n", name)
	}
	return nil
}
