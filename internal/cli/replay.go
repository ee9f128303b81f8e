package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hughlang/groupledger/internal/host"
	"github.com/hughlang/groupledger/internal/store"
)

// ReplayOptions holds flags for the replay command.
type ReplayOptions struct {
	*RootOptions
	Database string
	Config   string
}

// ReplayResult holds the replay command output.
type ReplayResult struct {
	Commands   int    `json:"commands"`
	Events     int    `json:"events"`
	FinalSeq   int64  `json:"final_seq"`
	Digest     string `json:"digest"`
	Verified   bool   `json:"verified"`
	Divergence string `json:"divergence,omitempty"`
}

// NewReplayCommand creates the replay command.
func NewReplayCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ReplayOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "replay",
		Short: "Replay the command log and verify it",
		Long: `Replay the command log through a fresh state machine and verify it
against the recorded history.

Every logged command must re-apply cleanly, its stored id must match the
recomputed content hash, re-emitted events must match the logged events
byte for byte, and the state digest after each command must match its
checkpoint.

Exit codes:
  0 - Log verified, replay reproduces the recorded history
  1 - Divergence detected
  2 - Command error (database not found, etc.)

Examples:
  groupledger replay --db ./ledger.db
  groupledger replay --db ./ledger.db --format json`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReplayCmd(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().StringVar(&opts.Config, "config", "", "path to CUE limits config (optional)")

	return cmd
}

func runReplayCmd(opts *ReplayOptions, cmd *cobra.Command) error {
	ctx := context.Background()
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	limits, err := resolveLimits(opts.Config)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid config", err)
	}

	st, err := store.Open(opts.Database)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer st.Close()

	_, report, err := host.Replay(ctx, st, limits)
	var div *host.DivergenceError
	if errors.As(err, &div) {
		result := ReplayResult{
			Commands:   report.Commands,
			Events:     report.Events,
			FinalSeq:   report.FinalSeq,
			Verified:   false,
			Divergence: div.Error(),
		}
		return outputReplayDivergence(formatter, cmd, result)
	}
	if err != nil {
		return WrapExitError(ExitCommandError, "replay failed", err)
	}

	result := ReplayResult{
		Commands: report.Commands,
		Events:   report.Events,
		FinalSeq: report.FinalSeq,
		Digest:   report.Digest,
		Verified: true,
	}

	if opts.Format == "json" {
		return formatter.Success(result)
	}

	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "Replayed %d command(s), %d event(s)\n", result.Commands, result.Events)
	if opts.Verbose {
		fmt.Fprintf(w, "  Final seq: %d\n", result.FinalSeq)
		fmt.Fprintf(w, "  Digest: %s\n", result.Digest)
	}
	fmt.Fprintln(w, "✓ Log verified")
	return nil
}

func outputReplayDivergence(formatter *OutputFormatter, cmd *cobra.Command, result ReplayResult) error {
	if formatter.Format == "json" {
		_ = formatter.Error("divergence", result.Divergence, result)
		return NewExitError(ExitFailure, result.Divergence)
	}

	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "Replayed %d command(s) before divergence\n", result.Commands)
	fmt.Fprintf(w, "✗ %s\n", result.Divergence)
	return NewExitError(ExitFailure, result.Divergence)
}
