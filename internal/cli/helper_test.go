package cli

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"

	"github.com/hughlang/groupledger/internal/host"
	"github.com/hughlang/groupledger/internal/ledger"
	"github.com/hughlang/groupledger/internal/testutil"
)

// seedLedger creates a database with one group owned by alice, with bob
// as a member, and returns the database path and group id.
func seedLedger(t *testing.T) (string, ledger.GroupID) {
	t.Helper()
	ctx := context.Background()
	dbPath := filepath.Join(t.TempDir(), "ledger.db")

	node, err := host.Open(ctx, dbPath, ledger.DefaultLimits, testutil.NewFixedTokenGenerator(""))
	require.NoError(t, err)
	defer node.Close()

	out, err := node.Submit(ctx, "alice", ledger.CreateGroup("readers", 8, false))
	require.NoError(t, err)
	_, err = node.Submit(ctx, "bob", ledger.JoinGroup(out.Group))
	require.NoError(t, err)

	return dbPath, out.Group
}

// execute runs a command with captured output and returns stdout.
func execute(t *testing.T, cmd *cobra.Command, args ...string) (string, error) {
	t.Helper()
	buf := &bytes.Buffer{}
	cmd.SetOut(buf)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}
