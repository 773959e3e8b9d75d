package commands

import (
	"context"
	"fmt"

	"github.com/csells/ragamuffin/internal/vault"

	"github.com/urfave/cli/v3"
)

// ListAction prints the documents of a vault with their extracted titles.
func ListAction(ctx context.Context, cmd *cli.Command) error {
	if cmd.Args().Len() != 1 {
		return fmt.Errorf("usage: list <vault>")
	}
	name := cmd.Args().Get(0)

	app, err := NewAppContext()
	if err != nil {
		return err
	}
	defer app.Close()

	v, err := app.Vaults.GetByName(ctx, name)
	if err != nil {
		return err
	}

	docs, err := vault.ListDocuments(v.RootPath, nil)
	if err != nil {
		return err
	}
	if len(docs) == 0 {
		fmt.Printf("Vault %q has no documents.\n", name)
		return nil
	}

	for _, doc := range docs {
		fmt.Printf("%-40s %s\n", doc.Title, doc.RelPath)
	}
	return nil
}
