// Package harness provides a conformance testing framework for the
// membership ledger.
//
// Scenarios are YAML files describing a command sequence with expected
// outcomes. The harness drives the real dispatcher through a real
// in-memory log: every step goes through host.Node.Submit, and after
// the last step the harness replays the log through a fresh dispatcher
// and checks that the replayed digest matches the live one. A scenario
// therefore exercises the same code path production traffic takes,
// including persistence and replay verification.
package harness

import (
	"context"
	"fmt"

	"github.com/hughlang/groupledger/internal/codec"
	"github.com/hughlang/groupledger/internal/host"
	"github.com/hughlang/groupledger/internal/ledger"
	"github.com/hughlang/groupledger/internal/testutil"
)

// Harness executes one scenario against a fresh ledger.
type Harness struct {
	node   *host.Node
	groups map[string]ledger.GroupID // alias -> derived id
}

// Run executes a scenario and returns the result.
//
// Each scenario runs against a fresh in-memory database for isolation,
// with a fixed correlation token generator so repeated runs produce
// byte-identical logs.
func Run(scenario *Scenario) (*Result, error) {
	ctx := context.Background()
	limits := scenarioLimits(scenario)

	node, err := host.Open(ctx, ":memory:", limits, testutil.NewFixedTokenGenerator(""))
	if err != nil {
		return nil, fmt.Errorf("failed to open in-memory ledger: %w", err)
	}
	defer node.Close()

	h := &Harness{
		node:   node,
		groups: make(map[string]ledger.GroupID),
	}

	result := NewResult()
	for i, step := range scenario.Steps {
		if err := h.executeStep(ctx, i, step, result); err != nil {
			return nil, err
		}
	}

	result.Digest = node.State().Digest()

	// Replaying the log we just wrote must reproduce the same state.
	_, report, err := host.Replay(ctx, node.Store(), limits)
	if err != nil {
		result.AddError(fmt.Sprintf("replay verification failed: %v", err))
	} else if report.Digest != result.Digest {
		result.AddError(fmt.Sprintf("replay digest %s does not match live digest %s", report.Digest, result.Digest))
	}

	actx := &AssertionContext{
		State:  node.State(),
		Groups: h.groups,
	}
	for _, errMsg := range EvaluateAssertions(result, scenario.Assertions, actx) {
		result.AddError(errMsg)
	}

	return result, nil
}

// executeStep submits one command and validates its outcome against the
// step's expect clause.
func (h *Harness) executeStep(ctx context.Context, i int, step Step, result *Result) error {
	kind := ledger.CommandKind(step.Invoke)
	params, err := h.resolveArgs(step.Args)
	if err != nil {
		return fmt.Errorf("steps[%d]: %w", i, err)
	}

	cmd, err := ledger.ParseCommand(kind, params)
	if err != nil {
		return fmt.Errorf("steps[%d]: %w", i, err)
	}

	out, err := h.node.Submit(ctx, ledger.AccountID(step.As), cmd)
	if err != nil {
		code := ledger.CodeOf(err)
		result.AddRejectionTrace(step.As, step.Invoke, string(code))

		switch {
		case step.Expect == nil || step.Expect.Error == "":
			result.AddError(fmt.Sprintf("steps[%d]: %s by %s: expected success, got %s", i, step.Invoke, step.As, code))
		case string(code) != step.Expect.Error:
			result.AddError(fmt.Sprintf("steps[%d]: %s by %s: expected rejection %s, got %s", i, step.Invoke, step.As, step.Expect.Error, code))
		}
		return nil
	}

	result.AddCommandTrace(out.Seq, step.As, step.Invoke, cmd.Params())
	for _, ev := range out.Events {
		result.AddEventTrace(out.Seq, string(ev.Kind), ev.Payload())
	}

	if step.Alias != "" {
		h.groups[step.Alias] = out.Group
	}

	if step.Expect != nil && step.Expect.Error != "" {
		result.AddError(fmt.Sprintf("steps[%d]: %s by %s: expected rejection %s, got success", i, step.Invoke, step.As, step.Expect.Error))
		return nil
	}

	if step.Expect != nil && len(step.Expect.Events) > 0 {
		validateEvents(i, step, out.Events, result)
	}

	return nil
}

// validateEvents compares emitted event kinds to the expect clause, in
// order.
func validateEvents(i int, step Step, events []ledger.Event, result *Result) {
	if len(events) != len(step.Expect.Events) {
		result.AddError(fmt.Sprintf("steps[%d]: expected %d event(s), got %d", i, len(step.Expect.Events), len(events)))
		return
	}
	for j, want := range step.Expect.Events {
		if string(events[j].Kind) != want {
			result.AddError(fmt.Sprintf("steps[%d]: event %d: expected %s, got %s", i, j, want, events[j].Kind))
		}
	}
}

// resolveArgs converts YAML args to command params, resolving group
// alias references to derived ids.
func (h *Harness) resolveArgs(args map[string]interface{}) (codec.Obj, error) {
	resolved := make(map[string]interface{}, len(args))
	for key, val := range args {
		if ref, ok := aliasRef(val); ok {
			id, found := h.groups[ref]
			if !found {
				return nil, fmt.Errorf("args[%s]: group alias %q not yet created", key, ref)
			}
			resolved[key] = string(id)
			continue
		}
		resolved[key] = val
	}

	converted, err := codec.FromGo(resolved)
	if err != nil {
		return nil, fmt.Errorf("args: %w", err)
	}
	return converted.(codec.Obj), nil
}

// scenarioLimits merges the scenario's limit overrides over the
// defaults.
func scenarioLimits(scenario *Scenario) ledger.Limits {
	limits := ledger.DefaultLimits
	if scenario.Limits == nil {
		return limits
	}
	if scenario.Limits.MaxGroupSize != 0 {
		limits.MaxGroupSize = scenario.Limits.MaxGroupSize
	}
	if scenario.Limits.MaxNameSize != 0 {
		limits.MaxNameSize = scenario.Limits.MaxNameSize
	}
	if scenario.Limits.MaxGroupsPerOwner != 0 {
		limits.MaxGroupsPerOwner = scenario.Limits.MaxGroupsPerOwner
	}
	return limits
}
