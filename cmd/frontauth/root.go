package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	fa "github.com/martinez-Diana/FRONTJMARTINEZ"
	"github.com/martinez-Diana/FRONTJMARTINEZ/client"
)

// app holds what every subcommand needs once configuration is loaded
type app struct {
	cfg      *Config
	logger   *slog.Logger
	client   *client.AuthClient
	sessions *fa.SessionStore
	closers  []func() error
}

func (a *app) Close() error {
	var first error
	for _, c := range a.closers {
		if err := c(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

type rootOptions struct {
	cfgFile string
	envFile string
	noColor bool
}

// newRootCmd builds the command tree. newApp is called lazily by
// subcommands that need a backend client or a session store.
func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	var cfg *Config
	var logger *slog.Logger

	root := &cobra.Command{
		Use:   "frontauth",
		Short: "Sign in to the backend from a terminal or a small web front end",
		Long: `frontauth signs a user in against the authentication backend and keeps
the resulting session (bearer token and user record) in a local store.

Example usage:
  frontauth login              # interactive sign in
  frontauth whoami             # show the stored session
  frontauth logout             # clear the stored session
  frontauth serve              # web front end with Google sign in`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if opts.noColor {
				color.NoColor = true
			}
			loadDotEnv(opts.envFile)

			var err error
			cfg, err = LoadConfig(opts.cfgFile, cmd.Flags())
			if err != nil {
				return err
			}
			level, _ := parseLogLevel(cfg.Logging.Level)
			logger = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
			slog.SetDefault(logger)
			logger.Debug("configuration loaded", "server", cfg.Server, "store", cfg.Store.Kind, "language", cfg.Language)
			return nil
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&opts.cfgFile, "config", "", "config file (default is .frontauth.yaml)")
	flags.StringVar(&opts.envFile, "env-file", "", "dotenv file to load (default is .env)")
	flags.BoolVar(&opts.noColor, "no-color", false, "disable colored output")
	flags.String("server", "", "authentication backend URL")
	flags.String("lang", "", "message language: en or es")
	flags.String("store", "", "session store: memory, fs, postgres or datastore")
	flags.String("store-path", "", "session file for the fs store")
	flags.String("store-dsn", "", "connection string for the postgres store")
	flags.String("log-level", "", "log level: debug, info, warn or error")

	newApp := func(ctx context.Context) (*app, error) {
		kv, closeStore, err := openStore(ctx, cfg.Store)
		if err != nil {
			return nil, err
		}
		return &app{
			cfg:      cfg,
			logger:   logger,
			client:   client.NewAuthClient(cfg.Server),
			sessions: fa.NewSessionStore(kv),
			closers:  []func() error{closeStore},
		}, nil
	}
	config := func() *Config { return cfg }

	root.AddCommand(
		newLoginCmd(newApp),
		newLogoutCmd(newApp),
		newWhoamiCmd(newApp),
		newServeCmd(config),
	)
	return root
}

type appFactory func(ctx context.Context) (*app, error)

// withApp runs fn with a freshly opened app and closes it afterwards
func withApp(ctx context.Context, newApp appFactory, fn func(*app) error) error {
	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if err := a.Close(); err != nil {
			a.logger.Warn("closing session store", "error", err)
		}
	}()
	return fn(a)
}

func printSuccess(w io.Writer, format string, args ...any) {
	color.New(color.FgGreen).Fprintf(w, format+"\n", args...)
}

func printError(w io.Writer, format string, args ...any) {
	color.New(color.FgRed).Fprintf(w, format+"\n", args...)
}

func printWarning(w io.Writer, format string, args ...any) {
	color.New(color.FgYellow).Fprintf(w, format+"\n", args...)
}

func printInfo(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, format+"\n", args...)
}

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		printError(os.Stderr, "error: %v", err)
		os.Exit(1)
	}
}
