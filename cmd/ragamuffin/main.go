package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/csells/ragamuffin/cmd/ragamuffin/commands"

	"github.com/urfave/cli/v3"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app := &cli.Command{
		Name:  "ragamuffin",
		Usage: "content-addressed document index with retrieval-augmented chat",
		Commands: []*cli.Command{
			{
				Name:  "vault",
				Usage: "manage vaults",
				Commands: []*cli.Command{
					{
						Name:      "create",
						Usage:     "register a directory as a vault",
						ArgsUsage: "<name> <path>",
						Action:    commands.VaultCreateAction,
					},
					{
						Name:      "delete",
						Usage:     "delete a vault and all its chunks",
						ArgsUsage: "<name>",
						Flags: []cli.Flag{
							&cli.BoolFlag{
								Name:  "yes",
								Usage: "skip the confirmation prompt",
							},
						},
						Action: commands.VaultDeleteAction,
					},
					{
						Name:   "list",
						Usage:  "list all vaults",
						Action: commands.VaultListAction,
					},
				},
			},
			{
				Name:      "sync",
				Usage:     "synchronize a vault's index with its files",
				ArgsUsage: "<vault>",
				Action:    commands.SyncAction,
			},
			{
				Name:      "status",
				Usage:     "report whether a vault's index is stale",
				ArgsUsage: "<vault>",
				Action:    commands.StatusAction,
			},
			{
				Name:      "list",
				Usage:     "list the documents of a vault",
				ArgsUsage: "<vault>",
				Action:    commands.ListAction,
			},
			{
				Name:      "search",
				Usage:     "retrieve the most relevant chunks for a query",
				ArgsUsage: "<vault> <query>",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "top-k",
						Usage: "number of chunks to return (overrides TOP_K)",
					},
				},
				Action: commands.SearchAction,
			},
			{
				Name:      "chat",
				Usage:     "chat with the model over a vault's index",
				ArgsUsage: "<vault>",
				Action:    commands.ChatAction,
			},
			{
				Name:   "serve",
				Usage:  "run the HTTP API",
				Action: commands.ServeAction,
			},
		},
	}

	if err := app.Run(ctx, os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
