package commands

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/urfave/cli/v3"
)

// VaultCreateAction registers a directory as a new vault.
func VaultCreateAction(ctx context.Context, cmd *cli.Command) error {
	if cmd.Args().Len() != 2 {
		return fmt.Errorf("usage: vault create <name> <path>")
	}
	name := cmd.Args().Get(0)
	path := cmd.Args().Get(1)

	absPath, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("invalid path %q: %w", path, err)
	}
	if _, err := os.Stat(absPath); err != nil {
		return fmt.Errorf("path %q is not accessible: %w", absPath, err)
	}

	app, err := NewAppContext()
	if err != nil {
		return err
	}
	defer app.Close()

	vault, err := app.Vaults.Create(ctx, name, absPath)
	if err != nil {
		return err
	}

	fmt.Printf("Created vault %q tracking %s\n", vault.Name, vault.RootPath)
	return nil
}

// VaultDeleteAction deletes a vault and all its chunks, after confirmation.
func VaultDeleteAction(ctx context.Context, cmd *cli.Command) error {
	if cmd.Args().Len() != 1 {
		return fmt.Errorf("usage: vault delete <name>")
	}
	name := cmd.Args().Get(0)

	if !cmd.Bool("yes") {
		fmt.Printf("Delete vault %q and all its indexed chunks? [y/N] ", name)
		reader := bufio.NewReader(os.Stdin)
		answer, _ := reader.ReadString('\n')
		if s := strings.ToLower(strings.TrimSpace(answer)); s != "y" && s != "yes" {
			fmt.Println("Aborted.")
			return nil
		}
	}

	app, err := NewAppContext()
	if err != nil {
		return err
	}
	defer app.Close()

	if err := app.Vaults.Delete(ctx, name); err != nil {
		return err
	}

	fmt.Printf("Deleted vault %q\n", name)
	return nil
}

// VaultListAction prints all vaults.
func VaultListAction(ctx context.Context, cmd *cli.Command) error {
	app, err := NewAppContext()
	if err != nil {
		return err
	}
	defer app.Close()

	vaults, err := app.Vaults.ListAll(ctx)
	if err != nil {
		return err
	}
	if len(vaults) == 0 {
		fmt.Println("No vaults. Create one with: ragamuffin vault create <name> <path>")
		return nil
	}

	for _, v := range vaults {
		fmt.Printf("%-20s %s\n", v.Name, v.RootPath)
	}
	return nil
}
