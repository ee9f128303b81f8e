package cli

import (
	"database/sql"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hughlang/groupledger/internal/store"
)

func TestReplayMissingDatabaseFlag(t *testing.T) {
	rootOpts := &RootOptions{Format: "text"}
	cmd := NewReplayCommand(rootOpts)
	_, err := execute(t, cmd)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "required flag")
}

func TestReplayEmptyDatabase(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "ledger.db")
	st, err := store.Open(dbPath)
	require.NoError(t, err)
	require.NoError(t, st.Close())

	rootOpts := &RootOptions{Format: "text"}
	cmd := NewReplayCommand(rootOpts)
	out, err := execute(t, cmd, "--db", dbPath)
	require.NoError(t, err)
	assert.Contains(t, out, "Replayed 0 command(s)")
	assert.Contains(t, out, "✓ Log verified")
}

func TestReplayVerifiesHistory(t *testing.T) {
	dbPath, _ := seedLedger(t)

	rootOpts := &RootOptions{Format: "text"}
	cmd := NewReplayCommand(rootOpts)
	out, err := execute(t, cmd, "--db", dbPath)
	require.NoError(t, err)
	assert.Contains(t, out, "Replayed 2 command(s), 2 event(s)")
	assert.Contains(t, out, "✓ Log verified")
}

func TestReplayJSONOutput(t *testing.T) {
	dbPath, _ := seedLedger(t)

	rootOpts := &RootOptions{Format: "json"}
	cmd := NewReplayCommand(rootOpts)
	out, err := execute(t, cmd, "--db", dbPath)
	require.NoError(t, err)

	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	data := resp.Data.(map[string]any)
	assert.Equal(t, float64(2), data["commands"])
	assert.Equal(t, true, data["verified"])
	assert.NotEmpty(t, data["digest"])
}

func TestReplayDetectsDivergence(t *testing.T) {
	dbPath, _ := seedLedger(t)

	// Corrupt a stored event payload behind the store's back.
	db, err := sql.Open("sqlite3", dbPath)
	require.NoError(t, err)
	_, err = db.Exec(`UPDATE events SET payload = '{"group":"forged"}' WHERE command_seq = 1`)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	rootOpts := &RootOptions{Format: "text"}
	cmd := NewReplayCommand(rootOpts)
	out, err := execute(t, cmd, "--db", dbPath)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "divergence at seq 1")
}

func TestReplayMissingDatabaseFile(t *testing.T) {
	// store.Open creates missing files, so point at an unwritable path.
	rootOpts := &RootOptions{Format: "text"}
	cmd := NewReplayCommand(rootOpts)
	_, err := execute(t, cmd, "--db", filepath.Join(t.TempDir(), "no", "such", "dir", "ledger.db"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}
