package harness

import "github.com/hughlang/groupledger/internal/codec"

// TraceEvent is one entry in a scenario's execution trace. Commands,
// their emitted events, and rejections all appear, in execution order.
type TraceEvent struct {
	Type    string    `json:"type"` // "command", "event", or "rejection"
	Seq     int64     `json:"seq,omitempty"`
	Caller  string    `json:"caller,omitempty"`
	Kind    string    `json:"kind"`
	Params  codec.Obj `json:"params,omitempty"`
	Payload codec.Obj `json:"payload,omitempty"`
	Code    string    `json:"code,omitempty"` // rejection code
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass indicates overall scenario success: every expect clause and
	// assertion matched.
	Pass bool `json:"pass"`

	// Trace contains commands, events, and rejections in order.
	Trace []TraceEvent `json:"trace"`

	// Errors contains validation error messages. Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`

	// Digest is the state digest after the last step.
	Digest string `json:"digest"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceEvent{},
		Errors: []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// AddCommandTrace records an applied command.
func (r *Result) AddCommandTrace(seq int64, caller, kind string, params codec.Obj) {
	r.Trace = append(r.Trace, TraceEvent{
		Type:   "command",
		Seq:    seq,
		Caller: caller,
		Kind:   kind,
		Params: params,
	})
}

// AddEventTrace records one emitted event.
func (r *Result) AddEventTrace(seq int64, kind string, payload codec.Obj) {
	r.Trace = append(r.Trace, TraceEvent{
		Type:    "event",
		Seq:     seq,
		Kind:    kind,
		Payload: payload,
	})
}

// AddRejectionTrace records a rejected command. Rejections never reach
// the log; they appear only in the scenario trace.
func (r *Result) AddRejectionTrace(caller, kind, code string) {
	r.Trace = append(r.Trace, TraceEvent{
		Type:   "rejection",
		Caller: caller,
		Kind:   kind,
		Code:   code,
	})
}
