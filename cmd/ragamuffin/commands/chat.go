package commands

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/urfave/cli/v3"
)

// ChatAction runs an interactive chat REPL over a vault's index.
func ChatAction(ctx context.Context, cmd *cli.Command) error {
	if cmd.Args().Len() != 1 {
		return fmt.Errorf("usage: chat <vault>")
	}
	name := cmd.Args().Get(0)

	app, err := NewAppContext()
	if err != nil {
		return err
	}
	defer app.Close()

	session, err := app.Service.NewSession(ctx, name)
	if err != nil {
		return err
	}

	fmt.Printf("Chatting over vault %q. Type /quit to exit.\n", name)
	reader := bufio.NewReader(os.Stdin)
	for {
		fmt.Print("> ")
		line, err := reader.ReadString('\n')
		if errors.Is(err, io.EOF) {
			fmt.Println()
			return nil
		}
		if err != nil {
			return err
		}

		input := strings.TrimSpace(line)
		if input == "" {
			continue
		}
		if input == "/quit" || input == "/exit" {
			return nil
		}

		reply, err := session.Turn(ctx, input)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			// The turn rolled back; the session stays usable.
			fmt.Fprintln(os.Stderr, "Error:", err)
			continue
		}
		fmt.Println(reply)
	}
}
