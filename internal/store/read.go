package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/hughlang/groupledger/internal/ledger"
)

// ReadCommands returns the full accepted log in seq order.
// Returns an empty slice (not nil) for an empty log.
func (s *Store) ReadCommands(ctx context.Context) ([]CommandRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT seq, id, caller, kind, params, correlation
		FROM commands
		ORDER BY seq ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query commands: %w", err)
	}
	defer rows.Close()

	commands := []CommandRecord{}
	for rows.Next() {
		rec, err := scanCommand(rows)
		if err != nil {
			return nil, err
		}
		commands = append(commands, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate commands: %w", err)
	}

	return commands, nil
}

// ReadCommand retrieves a single command by log position.
// Returns sql.ErrNoRows if the position is vacant.
func (s *Store) ReadCommand(ctx context.Context, seq int64) (CommandRecord, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT seq, id, caller, kind, params, correlation
		FROM commands
		WHERE seq = ?
	`, seq)
	return scanCommandRow(row)
}

// ReadEvents returns the events emitted by the command at seq, in
// emission order.
func (s *Store) ReadEvents(ctx context.Context, commandSeq int64) ([]EventRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT command_seq, idx, kind, payload
		FROM events
		WHERE command_seq = ?
		ORDER BY idx ASC
	`, commandSeq)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	return collectEvents(rows)
}

// ReadAllEvents returns every logged event ordered by command position,
// then emission order. This is the stream the external indexer consumes.
func (s *Store) ReadAllEvents(ctx context.Context) ([]EventRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT command_seq, idx, kind, payload
		FROM events
		ORDER BY command_seq ASC, idx ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	return collectEvents(rows)
}

// LastSeq returns the highest log position, or 0 for an empty log.
func (s *Store) LastSeq(ctx context.Context) (int64, error) {
	var seq sql.NullInt64
	if err := s.db.QueryRowContext(ctx, `SELECT MAX(seq) FROM commands`).Scan(&seq); err != nil {
		return 0, fmt.Errorf("query last seq: %w", err)
	}
	if !seq.Valid {
		return 0, nil
	}
	return seq.Int64, nil
}

// Checkpoint returns the state digest recorded after the command at seq.
// Returns sql.ErrNoRows if no checkpoint exists at that position.
func (s *Store) Checkpoint(ctx context.Context, seq int64) (string, error) {
	var digest string
	err := s.db.QueryRowContext(ctx, `
		SELECT state_digest FROM checkpoints WHERE seq = ?
	`, seq).Scan(&digest)
	if err != nil {
		return "", err
	}
	return digest, nil
}

// LastCheckpoint returns the digest at the highest checkpointed position,
// or ("", 0, nil) for an empty log.
func (s *Store) LastCheckpoint(ctx context.Context) (string, int64, error) {
	var (
		digest string
		seq    int64
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT state_digest, seq FROM checkpoints
		ORDER BY seq DESC LIMIT 1
	`).Scan(&digest, &seq)
	if err == sql.ErrNoRows {
		return "", 0, nil
	}
	if err != nil {
		return "", 0, fmt.Errorf("query last checkpoint: %w", err)
	}
	return digest, seq, nil
}

func collectEvents(rows *sql.Rows) ([]EventRecord, error) {
	events := []EventRecord{}
	for rows.Next() {
		var (
			rec         EventRecord
			kind        string
			payloadJSON string
		)
		if err := rows.Scan(&rec.CommandSeq, &rec.Idx, &kind, &payloadJSON); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		rec.Kind = ledger.EventKind(kind)
		if err := json.Unmarshal([]byte(payloadJSON), &rec.Payload); err != nil {
			return nil, fmt.Errorf("event %d/%d payload: %w", rec.CommandSeq, rec.Idx, err)
		}
		events = append(events, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate events: %w", err)
	}
	return events, nil
}

func scanCommand(rows *sql.Rows) (CommandRecord, error) {
	var (
		rec        CommandRecord
		caller     string
		kind       string
		paramsJSON string
	)
	if err := rows.Scan(&rec.Seq, &rec.ID, &caller, &kind, &paramsJSON, &rec.Correlation); err != nil {
		return CommandRecord{}, fmt.Errorf("scan command: %w", err)
	}
	rec.Caller = ledger.AccountID(caller)
	rec.Kind = ledger.CommandKind(kind)
	if err := json.Unmarshal([]byte(paramsJSON), &rec.Params); err != nil {
		return CommandRecord{}, fmt.Errorf("command %d params: %w", rec.Seq, err)
	}
	return rec, nil
}

func scanCommandRow(row *sql.Row) (CommandRecord, error) {
	var (
		rec        CommandRecord
		caller     string
		kind       string
		paramsJSON string
	)
	if err := row.Scan(&rec.Seq, &rec.ID, &caller, &kind, &paramsJSON, &rec.Correlation); err != nil {
		return CommandRecord{}, err
	}
	rec.Caller = ledger.AccountID(caller)
	rec.Kind = ledger.CommandKind(kind)
	if err := json.Unmarshal([]byte(paramsJSON), &rec.Params); err != nil {
		return CommandRecord{}, fmt.Errorf("command %d params: %w", rec.Seq, err)
	}
	return rec, nil
}
