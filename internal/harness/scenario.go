package harness

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Scenario defines a conformance test scenario: a sequence of commands
// from named callers, with expected outcomes and final-state assertions.
type Scenario struct {
	// Name uniquely identifies this scenario. Also names the golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Limits overrides the deployment limits for this scenario. Omitted
	// fields keep the defaults.
	Limits *LimitsSpec `yaml:"limits,omitempty"`

	// Steps is the command sequence to execute.
	Steps []Step `yaml:"steps"`

	// Assertions validate the final state after all steps.
	Assertions []Assertion `yaml:"assertions"`
}

// LimitsSpec is the YAML form of the deployment limits.
type LimitsSpec struct {
	MaxGroupSize      uint32 `yaml:"max_group_size,omitempty"`
	MaxNameSize       uint32 `yaml:"max_name_size,omitempty"`
	MaxGroupsPerOwner uint32 `yaml:"max_groups_per_owner,omitempty"`
}

// Step is one command submission.
//
// Group ids are content hashes, so steps refer to groups through
// aliases: a create step declares `alias: readers`, and later steps
// write `group: "@readers"` in their args.
type Step struct {
	// Invoke is the command kind (e.g. "create_group").
	Invoke string `yaml:"invoke"`

	// As is the caller account id.
	As string `yaml:"as"`

	// Args contains the command arguments. String values starting with
	// "@" are resolved as group aliases.
	Args map[string]interface{} `yaml:"args"`

	// Alias registers the group a create_group step produced, for use
	// in later steps and assertions.
	Alias string `yaml:"alias,omitempty"`

	// Expect specifies the expected outcome. If nil, the step must be
	// accepted.
	Expect *ExpectClause `yaml:"expect,omitempty"`
}

// ExpectClause specifies expected command outcome.
type ExpectClause struct {
	// Error is the expected rejection code (e.g. "GROUP_FULL"). Empty
	// means the command must be accepted.
	Error string `yaml:"error,omitempty"`

	// Events lists the expected event kinds, in emission order. Only
	// checked when non-empty.
	Events []string `yaml:"events,omitempty"`
}

// Assertion validates final state.
type Assertion struct {
	// Type specifies the assertion type:
	// - "status": check an account's membership status in a group
	// - "group_state": check a group's registry record (subset match)
	// - "owned": check how many groups an account owns
	// - "group_absent": check a group id no longer resolves
	// - "event_count": check how many events of a kind the run emitted
	Type string `yaml:"type"`

	// Group is the group alias (status, group_state, group_absent).
	Group string `yaml:"group,omitempty"`

	// Account is the account id (status, owned).
	Account string `yaml:"account,omitempty"`

	// Status is the expected membership status (status).
	Status string `yaml:"status,omitempty"`

	// Expect contains expected group fields (group_state). Subset
	// match - only specified fields are validated.
	Expect map[string]interface{} `yaml:"expect,omitempty"`

	// Kind is the event kind (event_count).
	Kind string `yaml:"kind,omitempty"`

	// Count is the expected number of occurrences (owned, event_count).
	Count int `yaml:"count,omitempty"`
}

// Assertion type constants.
const (
	AssertStatus      = "status"
	AssertGroupState  = "group_state"
	AssertOwned       = "owned"
	AssertGroupAbsent = "group_absent"
	AssertEventCount  = "event_count"
)

// LoadScenario reads and parses a scenario YAML file. Unknown fields
// are rejected so a typo fails loudly instead of silently skipping a
// check.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}

	aliases := make(map[string]bool)
	for i, step := range s.Steps {
		if step.Invoke == "" {
			return fmt.Errorf("steps[%d]: invoke is required", i)
		}
		if step.As == "" {
			return fmt.Errorf("steps[%d]: as is required", i)
		}
		if step.Args == nil {
			return fmt.Errorf("steps[%d]: args is required (use empty map if no args)", i)
		}
		if step.Alias != "" {
			if step.Invoke != "create_group" {
				return fmt.Errorf("steps[%d]: alias is only valid on create_group", i)
			}
			if aliases[step.Alias] {
				return fmt.Errorf("steps[%d]: duplicate alias %q", i, step.Alias)
			}
			aliases[step.Alias] = true
		}
		if err := validateStepArgs(i, step, aliases); err != nil {
			return err
		}
	}

	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, &assertion, aliases); err != nil {
			return err
		}
	}

	return nil
}

// validateStepArgs checks that alias references resolve to an alias
// declared by an earlier step.
func validateStepArgs(i int, step Step, aliases map[string]bool) error {
	for key, val := range step.Args {
		ref, ok := aliasRef(val)
		if !ok {
			continue
		}
		if !aliases[ref] {
			return fmt.Errorf("steps[%d].args[%s]: unknown group alias %q", i, key, ref)
		}
	}
	return nil
}

// validateAssertion checks a single assertion for completeness.
func validateAssertion(i int, a *Assertion, aliases map[string]bool) error {
	checkGroup := func() error {
		if a.Group == "" {
			return fmt.Errorf("assertions[%d]: group is required for %s", i, a.Type)
		}
		if !aliases[a.Group] {
			return fmt.Errorf("assertions[%d]: unknown group alias %q", i, a.Group)
		}
		return nil
	}

	switch a.Type {
	case AssertStatus:
		if err := checkGroup(); err != nil {
			return err
		}
		if a.Account == "" {
			return fmt.Errorf("assertions[%d]: account is required for status", i)
		}
		if a.Status != "none" && a.Status != "pending" && a.Status != "member" {
			return fmt.Errorf("assertions[%d]: status must be none, pending, or member", i)
		}
	case AssertGroupState:
		if err := checkGroup(); err != nil {
			return err
		}
		if len(a.Expect) == 0 {
			return fmt.Errorf("assertions[%d]: expect is required for group_state", i)
		}
	case AssertOwned:
		if a.Account == "" {
			return fmt.Errorf("assertions[%d]: account is required for owned", i)
		}
	case AssertGroupAbsent:
		if err := checkGroup(); err != nil {
			return err
		}
	case AssertEventCount:
		if a.Kind == "" {
			return fmt.Errorf("assertions[%d]: kind is required for event_count", i)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", i, a.Type)
	}
	return nil
}

// aliasRef reports whether val is a group alias reference ("@name") and
// returns the alias name.
func aliasRef(val interface{}) (string, bool) {
	s, ok := val.(string)
	if !ok || len(s) < 2 || s[0] != '@' {
		return "", false
	}
	return s[1:], true
}
