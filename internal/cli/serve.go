package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/roach88/pioneers/internal/engine"
	"github.com/roach88/pioneers/internal/lobby"
	"github.com/roach88/pioneers/internal/netsession"
	"github.com/roach88/pioneers/internal/store"
)

// ServeOptions holds flags for the serve command.
type ServeOptions struct {
	*RootOptions
	Listen   string
	Database string
}

// NewServeCommand creates the serve command.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ServeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the lobby server",
		Long: `Accept player connections and run the lobby protocol.

Every connection gets its own state machine. With a journal configured
(--db or journal in the config file) every dispatch and wire line is
recorded for 'pioneers trace'.

The server runs until interrupted (Ctrl+C or SIGTERM).

Examples:
  pioneers serve
  pioneers serve --listen 0.0.0.0:5556 --db ./journal.db
  pioneers serve --config pioneers.cue`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Listen, "listen", "", "listen address (overrides config)")
	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite journal (overrides config)")

	return cmd
}

func runServe(opts *ServeOptions, cmd *cobra.Command) error {
	cfg, err := loadConfig(opts.RootOptions)
	if err != nil {
		return err
	}
	if opts.Listen != "" {
		cfg.Listen = opts.Listen
	}
	if opts.Database != "" {
		cfg.Journal = opts.Database
	}

	logger := newLogger(cfg.Log, opts.Verbose, cmd.ErrOrStderr())

	engOpts := []engine.EngineOption{
		engine.WithLogger(logger),
		engine.WithMachineLimits(cfg.Machine.MaxDepth, cfg.Machine.CacheLimit),
	}
	if cfg.Journal != "" {
		logger.Info("opening journal", "path", cfg.Journal)
		st, err := store.Open(cfg.Journal)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to open journal", err)
		}
		defer func() {
			if closeErr := st.Close(); closeErr != nil {
				logger.Error("error closing journal", "error", closeErr)
			}
		}()
		engOpts = append(engOpts, engine.WithStore(st))
	}

	eng := engine.New(engOpts...)
	srv := lobby.NewServer(eng)

	ln, err := netsession.Listen(cfg.Listen)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to listen", err)
	}
	defer ln.Close()

	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if opts.Format == "json" {
		formatter := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}
		_ = formatter.Success(map[string]string{"listen": ln.Addr()})
	} else {
		fmt.Fprintf(cmd.OutOrStdout(), "listening on %s\n", ln.Addr())
	}

	serveErr := make(chan error, 1)
	go func() {
		err := srv.Serve(ctx, ln)
		if err != nil {
			stop()
		}
		serveErr <- err
	}()

	runErr := eng.Run(ctx)
	ln.Close()
	if err := <-serveErr; err != nil {
		return WrapExitError(ExitFailure, "listener failed", err)
	}
	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		return WrapExitError(ExitFailure, "engine stopped", runErr)
	}

	logger.Info("server stopped")
	return nil
}
