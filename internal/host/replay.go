package host

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/hughlang/groupledger/internal/codec"
	"github.com/hughlang/groupledger/internal/ledger"
	"github.com/hughlang/groupledger/internal/store"
)

// ReplayReport summarizes a log replay.
type ReplayReport struct {
	Commands int    `json:"commands"`
	Events   int    `json:"events"`
	FinalSeq int64  `json:"final_seq"`
	Digest   string `json:"digest"`
}

// DivergenceError reports the first log position where replay disagreed
// with the recorded history. Any divergence means either the log or the
// dispatcher changed underneath the deployment; the host must halt
// rather than serve from disputed state.
type DivergenceError struct {
	Seq    int64
	Reason string
}

// Error implements the error interface.
func (e *DivergenceError) Error() string {
	return fmt.Sprintf("replay divergence at seq %d: %s", e.Seq, e.Reason)
}

// Replay streams the accepted command log through a fresh dispatcher and
// verifies it against the recorded history: every command must re-apply
// cleanly, re-emitted events must match the logged events byte for byte,
// and the state digest after each command must match its checkpoint.
func Replay(ctx context.Context, st *store.Store, limits ledger.Limits) (*ledger.Dispatcher, ReplayReport, error) {
	disp := ledger.NewDispatcher(limits)
	report := ReplayReport{}

	commands, err := st.ReadCommands(ctx)
	if err != nil {
		return nil, report, fmt.Errorf("replay: %w", err)
	}

	for _, rec := range commands {
		cmd, err := ledger.ParseCommand(rec.Kind, rec.Params)
		if err != nil {
			return nil, report, &DivergenceError{Seq: rec.Seq, Reason: fmt.Sprintf("malformed command: %v", err)}
		}

		if id := cmd.ID(rec.Caller, rec.Seq); id != rec.ID {
			return nil, report, &DivergenceError{Seq: rec.Seq, Reason: "command id mismatch"}
		}

		out, err := disp.Apply(rec.Caller, cmd)
		if err != nil {
			return nil, report, &DivergenceError{Seq: rec.Seq, Reason: fmt.Sprintf("logged command rejected: %v", err)}
		}
		if out.Seq != rec.Seq {
			return nil, report, &DivergenceError{Seq: rec.Seq, Reason: fmt.Sprintf("applied at seq %d", out.Seq)}
		}

		logged, err := st.ReadEvents(ctx, rec.Seq)
		if err != nil {
			return nil, report, fmt.Errorf("replay seq %d: %w", rec.Seq, err)
		}
		if err := compareEvents(out.Events, logged); err != nil {
			return nil, report, &DivergenceError{Seq: rec.Seq, Reason: err.Error()}
		}

		digest := disp.State().Digest()
		checkpoint, err := st.Checkpoint(ctx, rec.Seq)
		if errors.Is(err, sql.ErrNoRows) {
			return nil, report, &DivergenceError{Seq: rec.Seq, Reason: "missing checkpoint"}
		}
		if err != nil {
			return nil, report, fmt.Errorf("replay seq %d: %w", rec.Seq, err)
		}
		if digest != checkpoint {
			return nil, report, &DivergenceError{Seq: rec.Seq, Reason: "state digest mismatch"}
		}

		report.Commands++
		report.Events += len(out.Events)
		report.FinalSeq = rec.Seq
	}

	report.Digest = disp.State().Digest()
	return disp, report, nil
}

// compareEvents checks that re-emitted events equal the logged records in
// kind, order, and canonical payload bytes.
func compareEvents(emitted []ledger.Event, logged []store.EventRecord) error {
	if len(emitted) != len(logged) {
		return fmt.Errorf("emitted %d events, log has %d", len(emitted), len(logged))
	}
	for i, ev := range emitted {
		if ev.Kind != logged[i].Kind {
			return fmt.Errorf("event %d: emitted %s, log has %s", i, ev.Kind, logged[i].Kind)
		}
		want, err := codec.MarshalCanonical(logged[i].Payload)
		if err != nil {
			return fmt.Errorf("event %d: logged payload: %v", i, err)
		}
		got, err := codec.MarshalCanonical(ev.Payload())
		if err != nil {
			return fmt.Errorf("event %d: emitted payload: %v", i, err)
		}
		if string(want) != string(got) {
			return fmt.Errorf("event %d payload mismatch", i)
		}
	}
	return nil
}
