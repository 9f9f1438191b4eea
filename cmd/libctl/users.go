package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"librarydesk/internal/auth"
)

// readPassword prompts without echo on a terminal and reads one line
// otherwise, so scripts can pipe the password in.
func readPassword(in io.Reader, prompt string) (string, error) {
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		fmt.Fprint(os.Stderr, prompt)
		b, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(os.Stderr)
		if err != nil {
			return "", err
		}
		return string(b), nil
	}
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	line = strings.TrimRight(line, "\r\n")
	if line == "" {
		return "", errors.New("no password given on stdin")
	}
	return line, nil
}

func usersCmd(run runner) *cobra.Command {
	cmd := &cobra.Command{Use: "users", Short: "Manage librarian accounts"}

	var role string
	add := &cobra.Command{
		Use:   "add <username>",
		Short: "Create an account; the password is read from the terminal",
		Args:  cobra.ExactArgs(1),
		RunE: run(func(ctx context.Context, a *app, args []string) error {
			password, err := readPassword(a.stdin, "Password: ")
			if err != nil {
				return err
			}
			u, err := auth.NewService(a.st.Users, a.logger).AddUser(ctx, args[0], password, role)
			if err != nil {
				return err
			}
			return a.render(u, table.Row{"ID", "Username", "Role"}, func(t table.Writer) {
				t.AppendRow(table.Row{u.ID, u.Username, u.Role})
			})
		}),
	}
	add.Flags().StringVar(&role, "role", auth.RoleLibrarian, "librarian or admin")

	cmd.AddCommand(add)
	return cmd
}

func tokenCmd(run runner) *cobra.Command {
	cmd := &cobra.Command{Use: "token", Short: "Issue API tokens"}

	var ttl time.Duration
	issue := &cobra.Command{
		Use:   "issue <username>",
		Short: "Authenticate and print a bearer token for the HTTP API",
		Args:  cobra.ExactArgs(1),
		RunE: run(func(ctx context.Context, a *app, args []string) error {
			if err := a.cfg.RequireSecret(); err != nil {
				return err
			}
			if ttl <= 0 {
				ttl = a.cfg.TokenTTL
			}
			password, err := readPassword(a.stdin, "Password: ")
			if err != nil {
				return err
			}
			token, err := auth.NewService(a.st.Users, a.logger).IssueToken(ctx, a.cfg.JWTSecret, args[0], password, ttl)
			if err != nil {
				return err
			}
			if a.format == formatTable {
				fmt.Fprintln(a.out, token)
				return nil
			}
			return a.render(map[string]any{"token": token, "expires_in": int(ttl.Seconds())}, nil, nil)
		}),
	}
	issue.Flags().DurationVar(&ttl, "ttl", 0, "token lifetime (default TOKEN_TTL)")

	cmd.AddCommand(issue)
	return cmd
}
