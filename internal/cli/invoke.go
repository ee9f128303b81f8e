package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hughlang/groupledger/internal/codec"
	"github.com/hughlang/groupledger/internal/ledger"
)

// InvokeOptions holds flags for the invoke command.
type InvokeOptions struct {
	*RootOptions
	Database string
	Config   string
	Caller   string
	Args     string
}

// InvokeEvent is one emitted event in the invoke output.
type InvokeEvent struct {
	Kind    string    `json:"kind"`
	Payload codec.Obj `json:"payload"`
}

// InvokeResult holds the invoke command output.
type InvokeResult struct {
	Seq    int64         `json:"seq"`
	Group  string        `json:"group"`
	Events []InvokeEvent `json:"events"`
	Digest string        `json:"digest"`
}

// NewInvokeCommand creates the invoke command.
func NewInvokeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &InvokeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "invoke <command-kind>",
		Short: "Apply a command to the ledger",
		Long: `Apply one command to the ledger as the given caller.

The command kind is one of: create_group, update_group, remove_group,
join_group, request_join, leave_group, accept_member, remove_member,
add_member. Arguments are passed as a JSON object matching the command's
parameters.

Exit codes:
  0 - Command accepted and logged
  1 - Command rejected by the ledger rules
  2 - Command error (bad arguments, database not found, etc.)

Examples:
  groupledger invoke create_group --db ./ledger.db --as alice \
    --args '{"name":"readers","max_size":8,"approval_required":false}'
  groupledger invoke join_group --db ./ledger.db --as bob --args '{"group":"<id>"}'`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInvoke(opts, ledger.CommandKind(args[0]), cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().StringVar(&opts.Caller, "as", "", "caller account id (required)")
	_ = cmd.MarkFlagRequired("as")
	cmd.Flags().StringVar(&opts.Args, "args", "{}", "command arguments as JSON")
	cmd.Flags().StringVar(&opts.Config, "config", "", "path to CUE limits config (optional)")

	return cmd
}

func runInvoke(opts *InvokeOptions, kind ledger.CommandKind, cmd *cobra.Command) error {
	ctx := context.Background()
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	command, err := parseInvokeArgs(kind, opts.Args)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid command", err)
	}

	node, err := openNode(ctx, opts.Database, opts.Config)
	if err != nil {
		return err
	}
	defer node.Close()

	out, err := node.Submit(ctx, ledger.AccountID(opts.Caller), command)
	if err != nil {
		code := ledger.CodeOf(err)
		_ = formatter.Error(string(code), err.Error(), nil)
		return NewExitError(ExitFailure, err.Error())
	}

	result := InvokeResult{
		Seq:    out.Seq,
		Group:  string(out.Group),
		Digest: node.State().Digest(),
	}
	for _, ev := range out.Events {
		result.Events = append(result.Events, InvokeEvent{
			Kind:    string(ev.Kind),
			Payload: ev.Payload(),
		})
	}

	if opts.Format == "json" {
		return formatter.Success(result)
	}

	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "Applied %s at seq %d\n", kind, result.Seq)
	fmt.Fprintf(w, "  Group: %s\n", result.Group)
	for _, ev := range result.Events {
		fmt.Fprintf(w, "  Event: %s\n", ev.Kind)
	}
	if opts.Verbose {
		fmt.Fprintf(w, "  Digest: %s\n", result.Digest)
	}
	return nil
}

// parseInvokeArgs decodes the --args JSON into the wire form and parses
// it strictly. Unknown kinds, missing fields, and extra fields all fail
// here, before the database is touched.
func parseInvokeArgs(kind ledger.CommandKind, rawArgs string) (ledger.Command, error) {
	var raw map[string]any
	dec := json.NewDecoder(strings.NewReader(rawArgs))
	dec.UseNumber()
	if err := dec.Decode(&raw); err != nil {
		return ledger.Command{}, fmt.Errorf("invalid --args JSON: %w", err)
	}

	val, err := codec.FromGo(raw)
	if err != nil {
		return ledger.Command{}, fmt.Errorf("invalid --args: %w", err)
	}
	params, ok := val.(codec.Obj)
	if !ok {
		return ledger.Command{}, fmt.Errorf("--args must be a JSON object")
	}

	return ledger.ParseCommand(kind, params)
}
