package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRun_AcceptedSteps(t *testing.T) {
	scenario := &Scenario{
		Name:        "accepted",
		Description: "create and join",
		Steps: []Step{
			{
				Invoke: "create_group",
				As:     "alice",
				Alias:  "g",
				Args:   map[string]interface{}{"name": "readers", "max_size": 4, "approval_required": false},
			},
			{
				Invoke: "join_group",
				As:     "bob",
				Args:   map[string]interface{}{"group": "@g"},
				Expect: &ExpectClause{Events: []string{"MemberJoined"}},
			},
		},
	}

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
	assert.NotEmpty(t, result.Digest)

	// create command + created event + join command + joined event
	require.Len(t, result.Trace, 4)
	assert.Equal(t, "command", result.Trace[0].Type)
	assert.Equal(t, "event", result.Trace[1].Type)
	assert.Equal(t, "GroupCreated", result.Trace[1].Kind)
	assert.Equal(t, int64(2), result.Trace[2].Seq)
}

func TestRun_ExpectedRejection(t *testing.T) {
	scenario := &Scenario{
		Name:        "rejection",
		Description: "double join rejected",
		Steps: []Step{
			{
				Invoke: "create_group",
				As:     "alice",
				Alias:  "g",
				Args:   map[string]interface{}{"name": "readers", "max_size": 4, "approval_required": false},
			},
			{Invoke: "join_group", As: "bob", Args: map[string]interface{}{"group": "@g"}},
			{
				Invoke: "join_group",
				As:     "bob",
				Args:   map[string]interface{}{"group": "@g"},
				Expect: &ExpectClause{Error: "ALREADY_MEMBER"},
			},
		},
	}

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)

	last := result.Trace[len(result.Trace)-1]
	assert.Equal(t, "rejection", last.Type)
	assert.Equal(t, "ALREADY_MEMBER", last.Code)
}

func TestRun_UnexpectedRejectionFails(t *testing.T) {
	scenario := &Scenario{
		Name:        "unexpected-rejection",
		Description: "join of unknown group without expect",
		Steps: []Step{
			{
				Invoke: "create_group",
				As:     "alice",
				Alias:  "g",
				Args:   map[string]interface{}{"name": "readers", "max_size": 1, "approval_required": false},
			},
			// group is full (owner occupies the only slot)
			{Invoke: "join_group", As: "bob", Args: map[string]interface{}{"group": "@g"}},
		},
	}

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "expected success, got GROUP_FULL")
}

func TestRun_UnexpectedSuccessFails(t *testing.T) {
	scenario := &Scenario{
		Name:        "unexpected-success",
		Description: "expected rejection that does not happen",
		Steps: []Step{
			{
				Invoke: "create_group",
				As:     "alice",
				Alias:  "g",
				Args:   map[string]interface{}{"name": "readers", "max_size": 4, "approval_required": false},
				Expect: &ExpectClause{Error: "NAME_TOO_LONG"},
			},
		},
	}

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	require.NotEmpty(t, result.Errors)
	assert.Contains(t, result.Errors[0], "expected rejection NAME_TOO_LONG, got success")
}

func TestRun_WrongEventsFail(t *testing.T) {
	scenario := &Scenario{
		Name:        "wrong-events",
		Description: "event kind mismatch",
		Steps: []Step{
			{
				Invoke: "create_group",
				As:     "alice",
				Alias:  "g",
				Args:   map[string]interface{}{"name": "readers", "max_size": 4, "approval_required": false},
				Expect: &ExpectClause{Events: []string{"MemberJoined"}},
			},
		},
	}

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	assert.Contains(t, result.Errors[0], "expected MemberJoined, got GroupCreated")
}

func TestRun_LimitOverrides(t *testing.T) {
	scenario := &Scenario{
		Name:        "limits",
		Description: "scenario limits apply",
		Limits:      &LimitsSpec{MaxGroupsPerOwner: 1},
		Steps: []Step{
			{
				Invoke: "create_group",
				As:     "alice",
				Alias:  "g",
				Args:   map[string]interface{}{"name": "one", "max_size": 4, "approval_required": false},
			},
			{
				Invoke: "create_group",
				As:     "alice",
				Args:   map[string]interface{}{"name": "two", "max_size": 4, "approval_required": false},
				Expect: &ExpectClause{Error: "OWNER_QUOTA_EXCEEDED"},
			},
		},
	}

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
}

func TestRun_SameScenarioSameDigest(t *testing.T) {
	scenario := &Scenario{
		Name:        "digest-stable",
		Description: "repeated runs converge",
		Steps: []Step{
			{
				Invoke: "create_group",
				As:     "alice",
				Alias:  "g",
				Args:   map[string]interface{}{"name": "readers", "max_size": 4, "approval_required": false},
			},
			{Invoke: "join_group", As: "bob", Args: map[string]interface{}{"group": "@g"}},
		},
	}

	first, err := Run(scenario)
	require.NoError(t, err)
	second, err := Run(scenario)
	require.NoError(t, err)

	assert.Equal(t, first.Digest, second.Digest)
	assert.Equal(t, first.Trace, second.Trace)
}
