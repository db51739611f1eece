package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/pioneers/internal/store"
)

// TraceOptions holds flags for the trace command.
type TraceOptions struct {
	*RootOptions
	Database string
	WireOnly bool
}

// TraceEvent is one entry of a machine timeline: a dispatch or a wire line.
type TraceEvent struct {
	Seq  int64  `json:"seq"`
	Kind string `json:"kind"` // "dispatch" or "wire"

	Event  string `json:"event,omitempty"`
	Target string `json:"target,omitempty"`
	State  string `json:"state,omitempty"`
	Depth  int    `json:"depth,omitempty"`

	Direction string `json:"direction,omitempty"`
	Line      string `json:"line,omitempty"`
}

// TraceResult holds the timeline of one machine.
type TraceResult struct {
	Machine  MachineSummary `json:"machine"`
	Timeline []TraceEvent   `json:"timeline"`
	Stats    TraceStats     `json:"stats"`
}

// TraceStats holds summary statistics for a timeline.
type TraceStats struct {
	Dispatches int `json:"dispatches"`
	LinesIn    int `json:"lines_in"`
	LinesOut   int `json:"lines_out"`
}

// MachineSummary is one row of the machine listing.
type MachineSummary struct {
	ID   string `json:"id"`
	Role string `json:"role"`
	Seq  int64  `json:"seq"`
}

// NewTraceCommand creates the trace command.
func NewTraceCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TraceOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "trace --db <journal> [machine-id]",
		Short: "Inspect the dispatch journal",
		Long: `Inspect a journal written by 'pioneers serve --db'.

Without a machine id, lists every machine the journal knows about.
With one, prints its timeline: every handler dispatch and every line
received or sent, interleaved in the order they happened.

Examples:
  pioneers trace --db ./journal.db
  pioneers trace --db ./journal.db 0192f7c1-...
  pioneers trace --db ./journal.db 0192f7c1-... --wire --format json`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return runTraceList(opts, cmd)
			}
			return runTrace(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite journal (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().BoolVar(&opts.WireOnly, "wire", false, "only show lines received and sent")

	return cmd
}

// openJournal opens an existing journal. A read command never creates one.
func openJournal(path string) (*store.Store, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, WrapExitError(ExitCommandError, "journal not found", err)
	}
	st, err := store.Open(path)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to open journal", err)
	}
	return st, nil
}

func runTraceList(opts *TraceOptions, cmd *cobra.Command) error {
	ctx := context.Background()

	st, err := openJournal(opts.Database)
	if err != nil {
		return err
	}
	defer st.Close()

	machines, err := st.ReadMachines(ctx)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read machines", err)
	}

	summaries := make([]MachineSummary, 0, len(machines))
	for _, m := range machines {
		summaries = append(summaries, MachineSummary{ID: m.ID, Role: m.Role, Seq: m.Seq})
	}

	if opts.Format == "json" {
		formatter := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}
		return formatter.Success(summaries)
	}

	w := cmd.OutOrStdout()
	if len(summaries) == 0 {
		fmt.Fprintln(w, "No machines in journal.")
		return nil
	}
	fmt.Fprintf(w, "%-8s %-10s %s\n", "SEQ", "ROLE", "ID")
	for _, s := range summaries {
		fmt.Fprintf(w, "%-8d %-10s %s\n", s.Seq, s.Role, s.ID)
	}
	return nil
}

func runTrace(opts *TraceOptions, machineID string, cmd *cobra.Command) error {
	ctx := context.Background()
	formatter := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout(), Verbose: opts.Verbose}

	st, err := openJournal(opts.Database)
	if err != nil {
		return err
	}
	defer st.Close()

	machine, err := st.ReadMachine(ctx, machineID)
	if errors.Is(err, store.ErrNotFound) {
		_ = formatter.Error(ErrCodeNotFound, fmt.Sprintf("machine %s not found", machineID), nil)
		return NewExitError(ExitCommandError, fmt.Sprintf("machine %s not found", machineID))
	}
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read machine", err)
	}

	dispatches, err := st.ReadDispatches(ctx, machineID)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read dispatches", err)
	}
	wire, err := st.ReadWire(ctx, machineID)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read wire", err)
	}

	result := TraceResult{
		Machine:  MachineSummary{ID: machine.ID, Role: machine.Role, Seq: machine.Seq},
		Timeline: buildTimeline(dispatches, wire, opts.WireOnly),
		Stats:    TraceStats{Dispatches: len(dispatches)},
	}
	for _, w := range wire {
		if w.Direction == "in" {
			result.Stats.LinesIn++
		} else {
			result.Stats.LinesOut++
		}
	}

	if opts.Format == "json" {
		return formatter.Success(result)
	}
	outputTraceText(cmd.OutOrStdout(), result)
	return nil
}

// buildTimeline merges dispatches and wire lines by seq. Both inputs are
// already ordered.
func buildTimeline(dispatches []store.Dispatch, wire []store.Wire, wireOnly bool) []TraceEvent {
	timeline := make([]TraceEvent, 0, len(dispatches)+len(wire))

	i, j := 0, 0
	for i < len(dispatches) || j < len(wire) {
		if j >= len(wire) || (i < len(dispatches) && dispatches[i].Seq < wire[j].Seq) {
			d := dispatches[i]
			i++
			if wireOnly {
				continue
			}
			timeline = append(timeline, TraceEvent{
				Seq:    d.Seq,
				Kind:   "dispatch",
				Event:  d.Event,
				Target: d.Target,
				State:  d.State,
				Depth:  d.Depth,
				Line:   d.Line,
			})
			continue
		}

		w := wire[j]
		j++
		timeline = append(timeline, TraceEvent{
			Seq:       w.Seq,
			Kind:      "wire",
			Direction: w.Direction,
			Line:      w.Line,
		})
	}

	return timeline
}

// outputTraceText prints one timeline entry per line:
//
//	  12 <- chat hello
//	  13    recv state idle (depth 1)
//	  14 -> player 0 chat hello
func outputTraceText(w io.Writer, result TraceResult) {
	fmt.Fprintf(w, "Trace for machine %s (%s)\n\n", result.Machine.ID, result.Machine.Role)

	if len(result.Timeline) == 0 {
		fmt.Fprintln(w, "  (no events)")
	}
	for _, ev := range result.Timeline {
		if ev.Kind == "wire" {
			arrow := "->"
			if ev.Direction == "in" {
				arrow = "<-"
			}
			fmt.Fprintf(w, "%6d %s %s\n", ev.Seq, arrow, ev.Line)
			continue
		}
		state := ev.State
		if state == "" {
			state = "-"
		}
		fmt.Fprintf(w, "%6d    %s %s %s (depth %d)\n", ev.Seq, ev.Event, ev.Target, state, ev.Depth)
	}

	fmt.Fprintln(w)
	fmt.Fprintf(w, "Dispatches: %d  Lines in: %d  Lines out: %d\n",
		result.Stats.Dispatches, result.Stats.LinesIn, result.Stats.LinesOut)
}
