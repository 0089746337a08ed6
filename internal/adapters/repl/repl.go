package repl

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"pos-backend/internal/adapters/cli"
	"pos-backend/internal/app"
)

var errExit = errors.New("exit")

// Run starts the interactive till. Slash commands are dispatched to the CLI
// command set; /new-sale opens the sale wizard. Run returns nil on /exit or EOF.
func Run(ctx context.Context, svc app.ApplicationService, reader *bufio.Reader, out io.Writer, session *app.UserSession) error {
	fmt.Fprintln(out, "POS till")
	if session != nil {
		fmt.Fprintf(out, "Signed in as %s (%s)\n", session.Username, session.Role)
	}
	fmt.Fprintln(out, "Type /new-sale to ring up a sale, /help for commands.")
	fmt.Fprintln(out, strings.Repeat("-", 70))

	dispatch := func(input string) error {
		tokens := strings.Fields(strings.TrimPrefix(input, "/"))
		if len(tokens) == 0 {
			return nil
		}
		cmd := strings.ToLower(tokens[0])

		switch cmd {
		case "new-sale", "sell":
			return newSale(ctx, reader, out, svc, session)
		case "exit", "quit", "e", "q":
			return errExit
		case "help", "h":
			fmt.Fprintln(out, "  /new-sale                             ring up a sale")
			fmt.Fprintln(out, "  /exit                                 leave the till")
		}
		tokens[0] = cmd
		return cli.Run(ctx, svc, tokens, out)
	}

	for {
		fmt.Fprint(out, "\n> ")
		input, err := reader.ReadString('\n')
		input = strings.TrimSpace(input)
		if input == "" {
			if err != nil {
				fmt.Fprintln(out)
				return nil
			}
			continue
		}

		if !strings.HasPrefix(input, "/") {
			fmt.Fprintln(out, "Commands start with '/'. Type /help for the list.")
			continue
		}
		if derr := dispatch(input); derr != nil {
			if errors.Is(derr, errExit) {
				fmt.Fprintln(out, "Goodbye!")
				return nil
			}
			fmt.Fprintf(out, "Error: %v\n", derr)
		}
		if err != nil {
			return nil
		}
	}
}
