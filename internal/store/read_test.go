package store

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hughlang/groupledger/internal/codec"
	"github.com/hughlang/groupledger/internal/ledger"
)

func TestReadCommands_EmptyLog(t *testing.T) {
	s := openTestStore(t)

	got, err := s.ReadCommands(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestReadCommands_SeqOrder(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	// Append out of order; reads must come back ordered.
	require.NoError(t, s.AppendOutcome(ctx, sampleCommand(2), nil, "d2"))
	require.NoError(t, s.AppendOutcome(ctx, namedCommand(1, "bob"), nil, "d1"))
	require.NoError(t, s.AppendOutcome(ctx, namedCommand(3, "carol"), nil, "d3"))

	got, err := s.ReadCommands(ctx)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, int64(1), got[0].Seq)
	assert.Equal(t, int64(2), got[1].Seq)
	assert.Equal(t, int64(3), got[2].Seq)
}

func TestReadCommand_NotFound(t *testing.T) {
	s := openTestStore(t)

	_, err := s.ReadCommand(context.Background(), 42)
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestReadAllEvents_OrderedAcrossCommands(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.AppendOutcome(ctx, sampleCommand(1), []EventRecord{
		{CommandSeq: 1, Idx: 0, Kind: ledger.EventGroupCreated, Payload: codec.Obj{"group": codec.Str("g1")}},
	}, "d1"))
	require.NoError(t, s.AppendOutcome(ctx, namedCommand(2, "bob"), []EventRecord{
		{CommandSeq: 2, Idx: 0, Kind: ledger.EventGroupRenamed, Payload: codec.Obj{"group": codec.Str("g1"), "name": codec.Str("x")}},
		{CommandSeq: 2, Idx: 1, Kind: ledger.EventGroupResized, Payload: codec.Obj{"group": codec.Str("g1"), "max_size": codec.Int(8)}},
	}, "d2"))

	got, err := s.ReadAllEvents(ctx)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, ledger.EventGroupCreated, got[0].Kind)
	assert.Equal(t, ledger.EventGroupRenamed, got[1].Kind)
	assert.Equal(t, ledger.EventGroupResized, got[2].Kind)
}

func TestLastSeq(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	seq, err := s.LastSeq(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), seq, "empty log")

	require.NoError(t, s.AppendOutcome(ctx, sampleCommand(1), nil, "d1"))
	require.NoError(t, s.AppendOutcome(ctx, namedCommand(2, "bob"), nil, "d2"))

	seq, err = s.LastSeq(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), seq)
}

func TestLastCheckpoint(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	digest, seq, err := s.LastCheckpoint(ctx)
	require.NoError(t, err)
	assert.Equal(t, "", digest)
	assert.Equal(t, int64(0), seq)

	require.NoError(t, s.AppendOutcome(ctx, sampleCommand(1), nil, "d1"))
	require.NoError(t, s.AppendOutcome(ctx, namedCommand(2, "bob"), nil, "d2"))

	digest, seq, err = s.LastCheckpoint(ctx)
	require.NoError(t, err)
	assert.Equal(t, "d2", digest)
	assert.Equal(t, int64(2), seq)
}

func TestCheckpoint_NotFound(t *testing.T) {
	s := openTestStore(t)

	_, err := s.Checkpoint(context.Background(), 9)
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

// namedCommand builds a distinct command record at seq from a different
// caller, so ids never collide with sampleCommand.
func namedCommand(seq int64, caller ledger.AccountID) CommandRecord {
	cmd := ledger.CreateGroup("club", 4, true)
	return CommandRecord{
		Seq:    seq,
		ID:     cmd.ID(caller, seq),
		Caller: caller,
		Kind:   cmd.Kind,
		Params: cmd.Params(),
	}
}
