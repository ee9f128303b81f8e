package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hughlang/groupledger/internal/codec"
	"github.com/hughlang/groupledger/internal/store"
)

// TraceOptions holds flags for the trace command.
type TraceOptions struct {
	*RootOptions
	Database string
	Seq      int64
	Kind     string
}

// TraceEntry is one command in the trace timeline, with its events.
type TraceEntry struct {
	Seq         int64        `json:"seq"`
	ID          string       `json:"id"`
	Caller      string       `json:"caller"`
	Kind        string       `json:"kind"`
	Params      codec.Obj    `json:"params"`
	Correlation string       `json:"correlation"`
	Events      []TraceEvent `json:"events"`
}

// TraceEvent is one emitted event in a trace entry.
type TraceEvent struct {
	Kind    string    `json:"kind"`
	Payload codec.Obj `json:"payload"`
}

// TraceResult holds the complete trace output.
type TraceResult struct {
	Timeline []TraceEntry `json:"timeline"`
	Commands int          `json:"commands"`
	Events   int          `json:"events"`
}

// NewTraceCommand creates the trace command.
func NewTraceCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TraceOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "trace",
		Short: "Show the command log timeline",
		Long: `Show the accepted command log in order, with each command's caller,
content-addressed id, correlation token, and emitted events.

The trace reads the log as recorded; it does not replay state. Use the
replay command to verify the log.

Examples:
  groupledger trace --db ./ledger.db
  groupledger trace --db ./ledger.db --seq 3
  groupledger trace --db ./ledger.db --kind join_group --format json`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTrace(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().Int64Var(&opts.Seq, "seq", 0, "show only the command at this seq")
	cmd.Flags().StringVar(&opts.Kind, "kind", "", "filter to one command kind")

	return cmd
}

func runTrace(opts *TraceOptions, cmd *cobra.Command) error {
	ctx := context.Background()
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	st, err := store.Open(opts.Database)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer st.Close()

	commands, err := st.ReadCommands(ctx)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read commands", err)
	}

	result := TraceResult{Timeline: []TraceEntry{}}
	for _, rec := range commands {
		if opts.Seq != 0 && rec.Seq != opts.Seq {
			continue
		}
		if opts.Kind != "" && string(rec.Kind) != opts.Kind {
			continue
		}

		events, err := st.ReadEvents(ctx, rec.Seq)
		if err != nil {
			return WrapExitError(ExitCommandError, fmt.Sprintf("failed to read events for seq %d", rec.Seq), err)
		}

		entry := TraceEntry{
			Seq:         rec.Seq,
			ID:          rec.ID,
			Caller:      string(rec.Caller),
			Kind:        string(rec.Kind),
			Params:      rec.Params,
			Correlation: rec.Correlation,
			Events:      make([]TraceEvent, 0, len(events)),
		}
		for _, ev := range events {
			entry.Events = append(entry.Events, TraceEvent{
				Kind:    string(ev.Kind),
				Payload: ev.Payload,
			})
			result.Events++
		}
		result.Timeline = append(result.Timeline, entry)
		result.Commands++
	}

	if opts.Format == "json" {
		return formatter.Success(result)
	}

	w := cmd.OutOrStdout()
	if result.Commands == 0 {
		fmt.Fprintln(w, "No commands found.")
		return nil
	}

	for _, entry := range result.Timeline {
		fmt.Fprintf(w, "seq %d  %s  by %s\n", entry.Seq, entry.Kind, entry.Caller)
		if opts.Verbose {
			fmt.Fprintf(w, "  id: %s\n", entry.ID)
			fmt.Fprintf(w, "  correlation: %s\n", entry.Correlation)
		}
		for _, ev := range entry.Events {
			fmt.Fprintf(w, "  -> %s\n", ev.Kind)
		}
	}
	fmt.Fprintf(w, "\n%d command(s), %d event(s)\n", result.Commands, result.Events)
	return nil
}
