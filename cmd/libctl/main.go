// Command libctl is the librarian's terminal for the lending desk: it lists
// and edits loans, provisions accounts and issues API tokens.
package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"librarydesk/internal/config"
	"librarydesk/internal/platform/logging"
	"librarydesk/internal/platform/migrations"
	"librarydesk/internal/store"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// app is what every subcommand runs against.
type app struct {
	cfg    config.Config
	logger *zap.Logger
	st     *store.Store
	out    io.Writer
	format string
	stdin  io.Reader
}

func newRootCmd() *cobra.Command {
	v := viper.New()
	root := &cobra.Command{
		Use:           "libctl",
		Short:         "Operate the library lending desk",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			_, err := parseFormat(v.GetString("output"))
			return err
		},
	}
	root.PersistentFlags().StringP("output", "o", "table", "output format: table, json or yaml")
	root.PersistentFlags().BoolP("verbose", "v", false, "log to stderr")
	_ = v.BindPFlag("output", root.PersistentFlags().Lookup("output"))
	_ = v.BindPFlag("verbose", root.PersistentFlags().Lookup("verbose"))
	v.SetEnvPrefix("LIBCTL")
	v.AutomaticEnv()

	run := func(fn func(ctx context.Context, a *app, args []string) error) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, v, func(ctx context.Context, a *app) error {
				return fn(ctx, a, args)
			})
		}
	}

	root.AddCommand(
		loansCmd(run),
		booksCmd(run),
		membersCmd(run),
		usersCmd(run),
		tokenCmd(run),
	)
	return root
}

type runner func(fn func(ctx context.Context, a *app, args []string) error) func(*cobra.Command, []string) error

func withApp(cmd *cobra.Command, v *viper.Viper, fn func(ctx context.Context, a *app) error) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger := zap.NewNop()
	if v.GetBool("verbose") {
		logger = logging.Must("development")
	}
	defer logger.Sync()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	st, err := store.Open(ctx, cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	// a fresh SQLite file is usable without a separate migrate step
	if st.Driver == config.DriverSQLite {
		migrations.Quiet()
		if err := migrations.Up(st.SQLDB(), st.Driver); err != nil {
			return err
		}
	}

	format, _ := parseFormat(v.GetString("output"))
	return fn(ctx, &app{
		cfg:    cfg,
		logger: logger,
		st:     st,
		out:    cmd.OutOrStdout(),
		format: format,
		stdin:  cmd.InOrStdin(),
	})
}
