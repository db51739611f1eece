package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/roach88/pioneers/internal/engine"
	"github.com/roach88/pioneers/internal/lobby"
)

// ClientOptions holds flags for the client command.
type ClientOptions struct {
	*RootOptions
	Name    string
	History string
}

// NewClientCommand creates the client command.
func NewClientCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ClientOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "client <addr>",
		Short: "Connect to a lobby server",
		Long: `Connect to a lobby server and join under --name.

Lines typed are sent to the server as-is (chat hello, ping, roster,
pause, quit, ...). Server lines are printed as they arrive; local status
lines start with "***". End of input hangs up.

Examples:
  pioneers client 127.0.0.1:5556 --name alice
  echo "roster" | pioneers client 127.0.0.1:5556 --name bot`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runClient(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Name, "name", "n", "", "player name (required)")
	_ = cmd.MarkFlagRequired("name")
	cmd.Flags().StringVar(&opts.History, "history", "", "readline history file (overrides config)")

	return cmd
}

func runClient(opts *ClientOptions, addr string, cmd *cobra.Command) error {
	cfg, err := loadConfig(opts.RootOptions)
	if err != nil {
		return err
	}
	history := cfg.Client.HistoryFile
	if opts.History != "" {
		history = opts.History
	}

	logger := newLogger(cfg.Log, opts.Verbose, cmd.ErrOrStderr())
	eng := engine.New(
		engine.WithLogger(logger),
		engine.WithDialTimeout(cfg.Client.DialTimeout()),
		engine.WithMachineLimits(cfg.Machine.MaxDepth, cfg.Machine.CacheLimit),
	)

	// display runs on the engine loop while the editor may be printing a
	// prompt from this goroutine.
	var outMu sync.Mutex
	out := cmd.OutOrStdout()
	display := func(line string) {
		outMu.Lock()
		defer outMu.Unlock()
		fmt.Fprintln(out, line)
	}
	client := lobby.NewClient(eng, opts.Name, display)

	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	runErr := make(chan error, 1)
	go func() { runErr <- eng.Run(ctx) }()

	client.Connect(addr)

	editor := NewLineEditor(cmd.InOrStdin(), history)
	defer editor.Close()

	quit := make(chan struct{})
	defer close(quit)
	lines := make(chan string)
	go func() {
		defer close(lines)
		for {
			line, err := editor.GetLine("")
			if err != nil {
				return
			}
			select {
			case lines <- line:
			case <-quit:
				return
			}
		}
	}()

loop:
	for {
		select {
		case <-client.Done():
			break loop
		case <-ctx.Done():
			break loop
		case line, ok := <-lines:
			if !ok {
				// End of input: hang up and wait for the machine to finish.
				client.Close()
				lines = nil
				continue
			}
			client.Send(line)
		}
	}

	eng.Stop()
	if err := <-runErr; err != nil && !errors.Is(err, context.Canceled) {
		return WrapExitError(ExitFailure, "engine stopped", err)
	}
	return nil
}
