package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hughlang/groupledger/internal/ledger"
)

// QueryOptions holds flags shared by the query subcommands.
type QueryOptions struct {
	*RootOptions
	Database string
	Config   string
}

// GroupResult is the query group output.
type GroupResult struct {
	ID               string   `json:"id"`
	Owner            string   `json:"owner"`
	Name             string   `json:"name"`
	MaxSize          uint32   `json:"max_size"`
	ApprovalRequired bool     `json:"approval_required"`
	MemberCount      uint32   `json:"member_count"`
	Members          []string `json:"members"`
	Pending          []string `json:"pending,omitempty"`
}

// VerifyResult is the query verify-member output.
type VerifyResult struct {
	Group   string `json:"group"`
	Account string `json:"account"`
	Member  bool   `json:"member"`
	Status  string `json:"status"`
}

// OwnedResult is the query owned output.
type OwnedResult struct {
	Owner  string   `json:"owner"`
	Groups []string `json:"groups"`
}

// NewQueryCommand creates the query command and its subcommands.
func NewQueryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &QueryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "query",
		Short: "Read ledger state",
		Long: `Read ledger state rebuilt from the command log.

Every query opens the database, replays and verifies the full log, and
answers from the resulting state, so a divergent log fails the query.

Examples:
  groupledger query group <group-id> --db ./ledger.db
  groupledger query verify-member <group-id> <account> --db ./ledger.db
  groupledger query owned <account> --db ./ledger.db`,
	}

	cmd.PersistentFlags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkPersistentFlagRequired("db")
	cmd.PersistentFlags().StringVar(&opts.Config, "config", "", "path to CUE limits config (optional)")

	cmd.AddCommand(newQueryGroupCommand(opts))
	cmd.AddCommand(newQueryVerifyMemberCommand(opts))
	cmd.AddCommand(newQueryOwnedCommand(opts))

	return cmd
}

func newQueryGroupCommand(opts *QueryOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "group <group-id>",
		Short:         "Show a group's registry record and members",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQueryGroup(opts, ledger.GroupID(args[0]), cmd)
		},
	}
}

func newQueryVerifyMemberCommand(opts *QueryOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "verify-member <group-id> <account>",
		Short:         "Check whether an account is a full member",
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQueryVerifyMember(opts, ledger.GroupID(args[0]), ledger.AccountID(args[1]), cmd)
		},
	}
}

func newQueryOwnedCommand(opts *QueryOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "owned <account>",
		Short:         "List groups owned by an account",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQueryOwned(opts, ledger.AccountID(args[0]), cmd)
		},
	}
}

func runQueryGroup(opts *QueryOptions, id ledger.GroupID, cmd *cobra.Command) error {
	ctx := context.Background()
	formatter := queryFormatter(opts, cmd)

	node, err := openNode(ctx, opts.Database, opts.Config)
	if err != nil {
		return err
	}
	defer node.Close()

	group, err := node.State().Group(id)
	if err != nil {
		_ = formatter.Error(string(ledger.CodeOf(err)), err.Error(), nil)
		return NewExitError(ExitFailure, err.Error())
	}

	members, err := node.State().Members(id, ledger.StatusMember)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to list members", err)
	}
	pending, err := node.State().Members(id, ledger.StatusPending)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to list pending", err)
	}

	result := GroupResult{
		ID:               string(group.ID),
		Owner:            string(group.Owner),
		Name:             group.Name,
		MaxSize:          group.MaxSize,
		ApprovalRequired: group.ApprovalRequired,
		MemberCount:      group.MemberCount,
		Members:          accountStrings(members),
		Pending:          accountStrings(pending),
	}

	if opts.Format == "json" {
		return formatter.Success(result)
	}

	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "Group %s\n", result.ID)
	fmt.Fprintf(w, "  Name: %s\n", result.Name)
	fmt.Fprintf(w, "  Owner: %s\n", result.Owner)
	fmt.Fprintf(w, "  Capacity: %d/%d\n", result.MemberCount, result.MaxSize)
	fmt.Fprintf(w, "  Approval required: %v\n", result.ApprovalRequired)
	fmt.Fprintf(w, "  Members: %s\n", strings.Join(result.Members, ", "))
	if len(result.Pending) > 0 {
		fmt.Fprintf(w, "  Pending: %s\n", strings.Join(result.Pending, ", "))
	}
	return nil
}

func runQueryVerifyMember(opts *QueryOptions, id ledger.GroupID, account ledger.AccountID, cmd *cobra.Command) error {
	ctx := context.Background()
	formatter := queryFormatter(opts, cmd)

	node, err := openNode(ctx, opts.Database, opts.Config)
	if err != nil {
		return err
	}
	defer node.Close()

	member, err := node.State().VerifyMember(id, account)
	if err != nil {
		_ = formatter.Error(string(ledger.CodeOf(err)), err.Error(), nil)
		return NewExitError(ExitFailure, err.Error())
	}
	status, err := node.State().Status(id, account)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read status", err)
	}

	result := VerifyResult{
		Group:   string(id),
		Account: string(account),
		Member:  member,
		Status:  status.String(),
	}

	if opts.Format == "json" {
		return formatter.Success(result)
	}

	if member {
		fmt.Fprintf(cmd.OutOrStdout(), "%s is a member of %s\n", account, id)
	} else {
		fmt.Fprintf(cmd.OutOrStdout(), "%s is not a member of %s (status: %s)\n", account, id, result.Status)
	}
	return nil
}

func runQueryOwned(opts *QueryOptions, owner ledger.AccountID, cmd *cobra.Command) error {
	ctx := context.Background()
	formatter := queryFormatter(opts, cmd)

	node, err := openNode(ctx, opts.Database, opts.Config)
	if err != nil {
		return err
	}
	defer node.Close()

	groups := node.State().GroupsOwnedBy(owner)
	result := OwnedResult{Owner: string(owner), Groups: make([]string, 0, len(groups))}
	for _, id := range groups {
		result.Groups = append(result.Groups, string(id))
	}

	if opts.Format == "json" {
		return formatter.Success(result)
	}

	w := cmd.OutOrStdout()
	if len(result.Groups) == 0 {
		fmt.Fprintf(w, "%s owns no groups\n", owner)
		return nil
	}
	fmt.Fprintf(w, "%s owns %d group(s):\n", owner, len(result.Groups))
	for _, id := range result.Groups {
		fmt.Fprintf(w, "  %s\n", id)
	}
	return nil
}

func queryFormatter(opts *QueryOptions, cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}
}

func accountStrings(accounts []ledger.AccountID) []string {
	out := make([]string, 0, len(accounts))
	for _, a := range accounts {
		out = append(out, string(a))
	}
	return out
}
