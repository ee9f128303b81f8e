package host

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/hughlang/groupledger/internal/ledger"
	"github.com/hughlang/groupledger/internal/store"
)

// Node binds a dispatcher to its command log.
//
// Submit must be called from exactly one goroutine: the host's
// command-sequencing layer decides ordering before commands reach the
// core, and the deterministic state machine relies on there being no
// concurrent write window. Reads (State) are safe whenever no Submit is
// in flight.
type Node struct {
	st     *store.Store
	disp   *ledger.Dispatcher
	tokens TokenGenerator
}

// Open opens (or creates) the command log at path and rebuilds state by
// replaying it. A divergent log fails Open; serving from disputed state
// is never an option.
func Open(ctx context.Context, path string, limits ledger.Limits, tokens TokenGenerator) (*Node, error) {
	st, err := store.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open node: %w", err)
	}

	disp, report, err := Replay(ctx, st, limits)
	if err != nil {
		st.Close()
		return nil, fmt.Errorf("open node: %w", err)
	}

	slog.Info("ledger ready",
		"commands", report.Commands,
		"seq", report.FinalSeq,
		"digest", report.Digest,
	)

	if tokens == nil {
		tokens = UUIDv7Generator{}
	}

	return &Node{st: st, disp: disp, tokens: tokens}, nil
}

// Close closes the underlying log.
func (n *Node) Close() error {
	return n.st.Close()
}

// State exposes the read side of the ledger.
func (n *Node) State() *ledger.State {
	return n.disp.State()
}

// Store exposes the command log for trace queries.
func (n *Node) Store() *store.Store {
	return n.st
}

// Submit validates, applies, and persists one command from caller.
//
// A rejection leaves both state and log untouched and returns the
// rejection verbatim. A persistence failure after a successful apply is
// fatal: the in-memory state has advanced past the durable log, so the
// node must be reopened (which replays the intact prefix) before
// accepting further commands.
func (n *Node) Submit(ctx context.Context, caller ledger.AccountID, cmd ledger.Command) (ledger.Outcome, error) {
	out, err := n.disp.Apply(caller, cmd)
	if err != nil {
		slog.Debug("command rejected",
			"caller", caller,
			"kind", cmd.Kind,
			"code", ledger.CodeOf(err),
		)
		return ledger.Outcome{}, err
	}

	rec := store.CommandRecord{
		Seq:         out.Seq,
		ID:          cmd.ID(caller, out.Seq),
		Caller:      caller,
		Kind:        cmd.Kind,
		Params:      cmd.Params(),
		Correlation: n.tokens.Generate(),
	}

	events := make([]store.EventRecord, len(out.Events))
	for i, ev := range out.Events {
		events[i] = store.EventRecord{
			CommandSeq: out.Seq,
			Idx:        i,
			Kind:       ev.Kind,
			Payload:    ev.Payload(),
		}
	}

	if err := n.st.AppendOutcome(ctx, rec, events, n.disp.State().Digest()); err != nil {
		return ledger.Outcome{}, fmt.Errorf("persist command %d: %w", out.Seq, err)
	}

	slog.Debug("command applied",
		"caller", caller,
		"kind", cmd.Kind,
		"seq", out.Seq,
		"events", len(out.Events),
	)

	return out, nil
}
