package store

import (
	"context"
	"fmt"

	"github.com/hughlang/groupledger/internal/codec"
	"github.com/hughlang/groupledger/internal/ledger"
)

// CommandRecord is one accepted command in the log.
type CommandRecord struct {
	// Seq is the log position, assigned by the dispatcher.
	Seq int64
	// ID is the content-addressed command hash. Stable across replicas
	// for the same command at the same position.
	ID string
	// Caller is the authenticated identity the host supplied.
	Caller ledger.AccountID
	// Kind and Params are the wire form of the command.
	Kind   ledger.CommandKind
	Params codec.Obj
	// Correlation is the host-side request token (UUIDv7). It is stored
	// for tracing only and never hashed into state or identity.
	Correlation string
}

// EventRecord is one event emitted by an accepted command.
type EventRecord struct {
	CommandSeq int64
	// Idx orders events within their command's emission.
	Idx     int
	Kind    ledger.EventKind
	Payload codec.Obj
}

// AppendOutcome writes an accepted command, its events, and the resulting
// state digest in a single transaction, mirroring the dispatcher's
// per-command atomicity on disk.
//
// The command insert uses ON CONFLICT(id) DO NOTHING so re-appending the
// same command is idempotent; a different command at an occupied seq
// still fails on the primary key.
func (s *Store) AppendOutcome(ctx context.Context, cmd CommandRecord, events []EventRecord, digest string) error {
	paramsJSON, err := codec.MarshalCanonical(cmd.Params)
	if err != nil {
		return fmt.Errorf("append command %d: marshal params: %w", cmd.Seq, err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("append command %d: begin tx: %w", cmd.Seq, err)
	}
	defer tx.Rollback() // no-op if committed

	res, err := tx.ExecContext(ctx, `
		INSERT INTO commands (seq, id, caller, kind, params, correlation)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`,
		cmd.Seq,
		cmd.ID,
		string(cmd.Caller),
		string(cmd.Kind),
		string(paramsJSON),
		cmd.Correlation,
	)
	if err != nil {
		return fmt.Errorf("append command %d: %w", cmd.Seq, err)
	}

	inserted, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("append command %d: rows affected: %w", cmd.Seq, err)
	}
	if inserted == 0 {
		// Already logged; events and checkpoint were written with it.
		return nil
	}

	for _, ev := range events {
		payloadJSON, err := codec.MarshalCanonical(ev.Payload)
		if err != nil {
			return fmt.Errorf("append command %d: marshal event %d: %w", cmd.Seq, ev.Idx, err)
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO events (command_seq, idx, kind, payload)
			VALUES (?, ?, ?, ?)
		`, ev.CommandSeq, ev.Idx, string(ev.Kind), string(payloadJSON)); err != nil {
			return fmt.Errorf("append command %d: event %d: %w", cmd.Seq, ev.Idx, err)
		}
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO checkpoints (seq, state_digest)
		VALUES (?, ?)
	`, cmd.Seq, digest); err != nil {
		return fmt.Errorf("append command %d: checkpoint: %w", cmd.Seq, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("append command %d: commit: %w", cmd.Seq, err)
	}

	return nil
}
