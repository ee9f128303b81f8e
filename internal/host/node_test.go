package host

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hughlang/groupledger/internal/ledger"
	"github.com/hughlang/groupledger/internal/testutil"
)

func openTestNode(t *testing.T) (*Node, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "ledger.db")
	node, err := Open(context.Background(), path, ledger.DefaultLimits, testutil.NewSeqTokenGenerator())
	require.NoError(t, err)
	t.Cleanup(func() { node.Close() })
	return node, path
}

func TestNode_SubmitPersistsCommand(t *testing.T) {
	ctx := context.Background()
	node, _ := openTestNode(t)

	out, err := node.Submit(ctx, "alice", ledger.CreateGroup("readers", 8, false))
	require.NoError(t, err)
	assert.Equal(t, int64(1), out.Seq)
	require.Len(t, out.Events, 1)

	rec, err := node.Store().ReadCommand(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, ledger.CmdCreateGroup, rec.Kind)
	assert.Equal(t, ledger.AccountID("alice"), rec.Caller)
	assert.Equal(t, "test-token-000001", rec.Correlation)
	assert.Equal(t, ledger.CreateGroup("readers", 8, false).ID("alice", 1), rec.ID)

	events, err := node.Store().ReadEvents(ctx, 1)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, ledger.EventGroupCreated, events[0].Kind)

	digest, err := node.Store().Checkpoint(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, node.State().Digest(), digest)
}

func TestNode_RejectionLeavesLogUntouched(t *testing.T) {
	ctx := context.Background()
	node, _ := openTestNode(t)

	_, err := node.Submit(ctx, "alice", ledger.CreateGroup("readers", 8, false))
	require.NoError(t, err)

	out, err := node.Submit(ctx, "alice", ledger.CreateGroup("writers", 8, false))
	require.NoError(t, err)

	// bob does not own the group, so rename is rejected.
	name := "stolen"
	_, err = node.Submit(ctx, "bob", ledger.UpdateGroup(out.Group, &name, nil))
	require.Error(t, err)
	assert.Equal(t, ledger.CodeNotOwner, ledger.CodeOf(err))

	last, err := node.Store().LastSeq(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), last)
}

func TestNode_ReopenRestoresState(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "ledger.db")

	node, err := Open(ctx, path, ledger.DefaultLimits, testutil.NewFixedTokenGenerator(""))
	require.NoError(t, err)

	out, err := node.Submit(ctx, "alice", ledger.CreateGroup("readers", 8, false))
	require.NoError(t, err)
	group := out.Group
	_, err = node.Submit(ctx, "bob", ledger.JoinGroup(group))
	require.NoError(t, err)
	digest := node.State().Digest()
	require.NoError(t, node.Close())

	reopened, err := Open(ctx, path, ledger.DefaultLimits, testutil.NewFixedTokenGenerator(""))
	require.NoError(t, err)
	defer reopened.Close()

	assert.Equal(t, digest, reopened.State().Digest())
	status, err := reopened.State().Status(group, "bob")
	require.NoError(t, err)
	assert.Equal(t, ledger.StatusMember, status)

	// The rebuilt node keeps accepting commands at the next seq.
	out, err = reopened.Submit(ctx, "bob", ledger.LeaveGroup(group))
	require.NoError(t, err)
	assert.Equal(t, int64(3), out.Seq)
}

func TestNode_ReopenWithDifferentLimitsDiverges(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "ledger.db")

	node, err := Open(ctx, path, ledger.Limits{MaxGroupSize: 16, MaxNameSize: 64, MaxGroupsPerOwner: 4}, nil)
	require.NoError(t, err)
	_, err = node.Submit(ctx, "alice", ledger.CreateGroup("readers", 12, false))
	require.NoError(t, err)
	require.NoError(t, node.Close())

	// A tighter size cap rejects the logged create on replay.
	_, err = Open(ctx, path, ledger.Limits{MaxGroupSize: 8, MaxNameSize: 64, MaxGroupsPerOwner: 4}, nil)
	require.Error(t, err)
	var div *DivergenceError
	require.ErrorAs(t, err, &div)
	assert.Equal(t, int64(1), div.Seq)
}

func TestNode_DefaultTokenGenerator(t *testing.T) {
	ctx := context.Background()

	node, err := Open(ctx, filepath.Join(t.TempDir(), "ledger.db"), ledger.DefaultLimits, nil)
	require.NoError(t, err)
	defer node.Close()

	_, err = node.Submit(ctx, "alice", ledger.CreateGroup("readers", 8, false))
	require.NoError(t, err)

	rec, err := node.Store().ReadCommand(ctx, 1)
	require.NoError(t, err)
	assert.NotEmpty(t, rec.Correlation)
}
