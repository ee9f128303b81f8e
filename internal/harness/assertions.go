package harness

import (
	"fmt"
	"strings"

	"github.com/hughlang/groupledger/internal/ledger"
)

// AssertionContext carries what assertions evaluate against.
type AssertionContext struct {
	State  *ledger.State
	Groups map[string]ledger.GroupID // alias -> derived id
}

// AssertionError is returned when an assertion fails. It includes the
// trace to help debug the failure.
type AssertionError struct {
	Type     string
	Expected string
	Actual   string
	Trace    []TraceEvent
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	fmt.Fprintf(&buf, "\nFull trace:\n")
	for i, event := range e.Trace {
		switch event.Type {
		case "command":
			fmt.Fprintf(&buf, "  [%d] %s by %s\n", i+1, event.Kind, event.Caller)
		case "rejection":
			fmt.Fprintf(&buf, "  [%d] %s by %s rejected: %s\n", i+1, event.Kind, event.Caller, event.Code)
		}
	}

	return buf.String()
}

// EvaluateAssertions runs all assertions and returns failure messages.
func EvaluateAssertions(result *Result, assertions []Assertion, actx *AssertionContext) []string {
	var failures []string
	for _, assertion := range assertions {
		var err error
		switch assertion.Type {
		case AssertStatus:
			err = assertStatus(result, assertion, actx)
		case AssertGroupState:
			err = assertGroupState(result, assertion, actx)
		case AssertOwned:
			err = assertOwned(result, assertion, actx)
		case AssertGroupAbsent:
			err = assertGroupAbsent(result, assertion, actx)
		case AssertEventCount:
			err = assertEventCount(result, assertion)
		default:
			err = fmt.Errorf("unknown assertion type %q", assertion.Type)
		}
		if err != nil {
			failures = append(failures, err.Error())
		}
	}
	return failures
}

// assertStatus checks an account's membership status in a group.
func assertStatus(result *Result, a Assertion, actx *AssertionContext) error {
	id := actx.Groups[a.Group]
	status, err := actx.State.Status(id, ledger.AccountID(a.Account))
	if err != nil {
		return &AssertionError{
			Type:     AssertStatus,
			Expected: fmt.Sprintf("%s has status %s in %s", a.Account, a.Status, a.Group),
			Actual:   err.Error(),
			Trace:    result.Trace,
		}
	}
	if status.String() != a.Status {
		return &AssertionError{
			Type:     AssertStatus,
			Expected: fmt.Sprintf("%s has status %s in %s", a.Account, a.Status, a.Group),
			Actual:   fmt.Sprintf("status is %s", status),
			Trace:    result.Trace,
		}
	}
	return nil
}

// assertGroupState checks a group's registry record (subset match).
func assertGroupState(result *Result, a Assertion, actx *AssertionContext) error {
	id := actx.Groups[a.Group]
	group, err := actx.State.Group(id)
	if err != nil {
		return &AssertionError{
			Type:     AssertGroupState,
			Expected: fmt.Sprintf("group %s exists", a.Group),
			Actual:   err.Error(),
			Trace:    result.Trace,
		}
	}

	actual := map[string]interface{}{
		"owner":             string(group.Owner),
		"name":              group.Name,
		"max_size":          int(group.MaxSize),
		"approval_required": group.ApprovalRequired,
		"member_count":      int(group.MemberCount),
	}

	for field, want := range a.Expect {
		got, known := actual[field]
		if !known {
			return &AssertionError{
				Type:     AssertGroupState,
				Expected: fmt.Sprintf("known field %q", field),
				Actual:   "no such group field",
				Trace:    result.Trace,
			}
		}
		if !valuesEqual(got, want) {
			return &AssertionError{
				Type:     AssertGroupState,
				Expected: fmt.Sprintf("%s.%s = %v", a.Group, field, want),
				Actual:   fmt.Sprintf("%v", got),
				Trace:    result.Trace,
			}
		}
	}
	return nil
}

// assertOwned checks how many groups an account owns.
func assertOwned(result *Result, a Assertion, actx *AssertionContext) error {
	owned := actx.State.GroupsOwnedBy(ledger.AccountID(a.Account))
	if len(owned) != a.Count {
		return &AssertionError{
			Type:     AssertOwned,
			Expected: fmt.Sprintf("%s owns %d group(s)", a.Account, a.Count),
			Actual:   fmt.Sprintf("owns %d", len(owned)),
			Trace:    result.Trace,
		}
	}
	return nil
}

// assertGroupAbsent checks that a previously created group id no longer
// resolves.
func assertGroupAbsent(result *Result, a Assertion, actx *AssertionContext) error {
	id := actx.Groups[a.Group]
	if _, err := actx.State.Group(id); err == nil {
		return &AssertionError{
			Type:     AssertGroupAbsent,
			Expected: fmt.Sprintf("group %s does not exist", a.Group),
			Actual:   "group still resolves",
			Trace:    result.Trace,
		}
	}
	return nil
}

// assertEventCount checks how many events of a kind the run emitted.
func assertEventCount(result *Result, a Assertion) error {
	count := 0
	for _, event := range result.Trace {
		if event.Type == "event" && event.Kind == a.Kind {
			count++
		}
	}
	if count != a.Count {
		return &AssertionError{
			Type:     AssertEventCount,
			Expected: fmt.Sprintf("%d %s event(s)", a.Count, a.Kind),
			Actual:   fmt.Sprintf("%d", count),
			Trace:    result.Trace,
		}
	}
	return nil
}

// valuesEqual compares a state field against a YAML-decoded expected
// value. YAML integers decode as int; everything else compares directly.
func valuesEqual(actual, expected interface{}) bool {
	if a, ok := actual.(int); ok {
		switch e := expected.(type) {
		case int:
			return a == e
		case int64:
			return int64(a) == e
		}
	}
	return actual == expected
}
