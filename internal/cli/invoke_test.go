package cli

import (
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hughlang/groupledger/internal/store"
)

func TestInvokeMissingRequiredFlags(t *testing.T) {
	rootOpts := &RootOptions{Format: "text"}
	cmd := NewInvokeCommand(rootOpts)
	_, err := execute(t, cmd, "create_group")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "required flag")
}

func TestInvokeCreateGroup(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "ledger.db")
	st, err := store.Open(dbPath)
	require.NoError(t, err)
	require.NoError(t, st.Close())

	rootOpts := &RootOptions{Format: "text"}
	cmd := NewInvokeCommand(rootOpts)
	out, err := execute(t, cmd,
		"create_group",
		"--db", dbPath,
		"--as", "alice",
		"--args", `{"name":"readers","max_size":8,"approval_required":false}`,
	)
	require.NoError(t, err)
	assert.Contains(t, out, "Applied create_group at seq 1")
	assert.Contains(t, out, "GroupCreated")
}

func TestInvokeJSONOutput(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "ledger.db")
	st, err := store.Open(dbPath)
	require.NoError(t, err)
	require.NoError(t, st.Close())

	rootOpts := &RootOptions{Format: "json"}
	cmd := NewInvokeCommand(rootOpts)
	out, err := execute(t, cmd,
		"create_group",
		"--db", dbPath,
		"--as", "alice",
		"--args", `{"name":"readers","max_size":8,"approval_required":true}`,
	)
	require.NoError(t, err)

	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	data := resp.Data.(map[string]any)
	assert.Equal(t, float64(1), data["seq"])
	assert.NotEmpty(t, data["group"])
}

func TestInvokeRejectionExitsOne(t *testing.T) {
	dbPath, group := seedLedger(t)

	// bob is already a member, so a second join is rejected.
	rootOpts := &RootOptions{Format: "text"}
	cmd := NewInvokeCommand(rootOpts)
	out, err := execute(t, cmd,
		"join_group",
		"--db", dbPath,
		"--as", "bob",
		"--args", `{"group":"`+string(group)+`"}`,
	)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "ALREADY_MEMBER")
}

func TestInvokeUnknownKind(t *testing.T) {
	dbPath, _ := seedLedger(t)

	rootOpts := &RootOptions{Format: "text"}
	cmd := NewInvokeCommand(rootOpts)
	_, err := execute(t, cmd, "frobnicate", "--db", dbPath, "--as", "alice")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestInvokeBadArgsJSON(t *testing.T) {
	dbPath, _ := seedLedger(t)

	rootOpts := &RootOptions{Format: "text"}
	cmd := NewInvokeCommand(rootOpts)
	_, err := execute(t, cmd, "create_group", "--db", dbPath, "--as", "alice", "--args", "{not json")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestInvokeMissingDatabase(t *testing.T) {
	rootOpts := &RootOptions{Format: "text"}
	cmd := NewInvokeCommand(rootOpts)
	_, err := execute(t, cmd,
		"create_group",
		"--db", filepath.Join(t.TempDir(), "missing.db"),
		"--as", "alice",
		"--args", `{"name":"readers","max_size":8,"approval_required":false}`,
	)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}
