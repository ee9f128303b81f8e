package cli

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/spf13/cobra"

	"github.com/hughlang/groupledger/internal/config"
)

// ValidateResult holds the validate command output.
type ValidateResult struct {
	Valid             bool   `json:"valid"`
	MaxGroupSize      uint32 `json:"max_group_size,omitempty"`
	MaxNameSize       uint32 `json:"max_name_size,omitempty"`
	MaxGroupsPerOwner uint32 `json:"max_groups_per_owner,omitempty"`
	Error             string `json:"error,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <config-file>",
		Short: "Validate a limits config file",
		Long: `Validate a CUE limits config file and print the effective limits.

The config is checked against the deployment schema: unknown fields are
rejected, all limits must be positive integers, and omitted fields take
the schema defaults.

Exit codes:
  0 - Config is valid
  1 - Config is invalid
  2 - Command error (file not found, etc.)

Examples:
  groupledger validate ./limits.cue
  groupledger validate ./limits.cue --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidateCmd(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runValidateCmd(opts *RootOptions, path string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	limits, err := config.Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		return WrapExitError(ExitCommandError, "config file not found", err)
	}
	if err != nil {
		if opts.Format == "json" {
			_ = formatter.Error("invalid_config", err.Error(), nil)
		} else {
			fmt.Fprintf(cmd.OutOrStdout(), "✗ Invalid config: %v\n", err)
		}
		return NewExitError(ExitFailure, err.Error())
	}

	result := ValidateResult{
		Valid:             true,
		MaxGroupSize:      limits.MaxGroupSize,
		MaxNameSize:       limits.MaxNameSize,
		MaxGroupsPerOwner: limits.MaxGroupsPerOwner,
	}

	if opts.Format == "json" {
		return formatter.Success(result)
	}

	w := cmd.OutOrStdout()
	fmt.Fprintln(w, "✓ Config valid")
	fmt.Fprintf(w, "  maxGroupSize: %d\n", result.MaxGroupSize)
	fmt.Fprintf(w, "  maxNameSize: %d\n", result.MaxNameSize)
	fmt.Fprintf(w, "  maxGroupsPerOwner: %d\n", result.MaxGroupsPerOwner)
	return nil
}
