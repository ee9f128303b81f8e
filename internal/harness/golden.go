package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/hughlang/groupledger/internal/codec"
)

// TraceSnapshot captures the complete trace for a scenario execution.
// All fields use canonical JSON serialization for deterministic
// comparison: group ids are content-derived, so the same scenario
// produces byte-identical snapshots on every machine.
type TraceSnapshot struct {
	ScenarioName string
	Trace        []TraceEvent
	Digest       string
}

// toCanonical converts a TraceSnapshot to a codec.Obj for canonical
// JSON serialization.
func (s *TraceSnapshot) toCanonical() codec.Obj {
	traceList := make(codec.Arr, len(s.Trace))
	for i, event := range s.Trace {
		eventObj := codec.Obj{
			"type": codec.Str(event.Type),
			"kind": codec.Str(event.Kind),
		}
		if event.Seq != 0 {
			eventObj["seq"] = codec.Int(event.Seq)
		}
		if event.Caller != "" {
			eventObj["caller"] = codec.Str(event.Caller)
		}
		if event.Params != nil {
			eventObj["params"] = event.Params
		}
		if event.Payload != nil {
			eventObj["payload"] = event.Payload
		}
		if event.Code != "" {
			eventObj["code"] = codec.Str(event.Code)
		}
		traceList[i] = eventObj
	}

	return codec.Obj{
		"scenario_name": codec.Str(s.ScenarioName),
		"trace":         traceList,
		"digest":        codec.Str(s.Digest),
	}
}

// RunWithGolden executes a scenario and compares the trace against a
// golden file in testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Golden files are the source of truth for expected trace output. A
// diff means either the state machine's behavior changed or the
// canonical encoding did; both need a deliberate decision, not a
// silent update.
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}

	snapshot := TraceSnapshot{
		ScenarioName: scenario.Name,
		Trace:        result.Trace,
		Digest:       result.Digest,
	}

	traceJSON, err := codec.MarshalCanonical(snapshot.toCanonical())
	if err != nil {
		return nil, err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenario.Name, traceJSON)

	return result, nil
}
