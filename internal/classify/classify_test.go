package classify

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLogCategory(t *testing.T) {
	t.Parallel()

	cases := map[string]Category{
		"Planner":                   Reasoning,
		"Critic Review":             Reasoning,
		"STRATEGY":                  Reasoning,
		"ABN Open":                  Coordination,
		"Receive Proposal":          Coordination,
		"negotiate budget":          Coordination,
		"Dispatch":                  Action,
		"Execution":                 Action,
		"":                          Action,
		"Planner Connect Negotiate": Reasoning,
	}
	for step, want := range cases {
		require.Equal(t, want, LogCategory(step), step)
	}
}

func TestLogCategoryFirstRuleWins(t *testing.T) {
	t.Parallel()

	require.Equal(t, Reasoning, LogCategory("Planner Connect Negotiate"))
	require.Equal(t, Reasoning, LogCategory("connect then analysis"))
}

func TestDetectPhysicsAcceptsMinimalShape(t *testing.T) {
	t.Parallel()

	sol, ok := DetectPhysics(`{"analysis":{"knowns":{}},"steps":[],"final_answer":{}}`)
	require.True(t, ok)
	require.NotNil(t, sol)
	require.Empty(t, sol.Knowns)
	require.Empty(t, sol.Steps)
}

func TestDetectPhysicsRejectsPartialShape(t *testing.T) {
	t.Parallel()

	rejects := []string{
		`{"analysis":{},"steps":[]}`,
		`{"analysis":{"knowns":{}},"steps":[]}`,
		`{"analysis":{"knowns":[]},"steps":[],"final_answer":{}}`,
		`{"analysis":{"knowns":{}},"steps":{},"final_answer":{}}`,
		`{"analysis":null,"steps":[],"final_answer":{}}`,
		`{"analysis":{"knowns":{}},"steps":[],"final_answer":"9.8"}`,
		`[1,2,3]`,
		`"just a string"`,
		`null`,
		``,
	}
	for _, stdout := range rejects {
		sol, ok := DetectPhysics(stdout)
		require.False(t, ok, stdout)
		require.Nil(t, sol, stdout)
	}
}

func TestDetectPhysicsPlainTextDoesNotPanic(t *testing.T) {
	t.Parallel()

	require.NotPanics(t, func() {
		_, ok := DetectPhysics("plain text output")
		require.False(t, ok)
	})
}

func TestDetectPhysicsFullPayload(t *testing.T) {
	t.Parallel()

	stdout := `{
		"analysis": {
			"knowns": {"v0": "0 m/s", "h": 20, "g": "9.81 m/s^2"},
			"unknowns": ["t"],
			"assumptions": ["no air resistance"]
		},
		"steps": ["h = 1/2 g t^2", {"eq": "t = sqrt(2h/g)"}],
		"final_answer": {"value": 2.02, "unit": "s", "variable": "t"},
		"reasoning": "free fall"
	}`
	sol, ok := DetectPhysics(stdout)
	require.True(t, ok)
	require.Equal(t, []Known{{Name: "g", Value: "9.81 m/s^2"}, {Name: "h", Value: "20"}, {Name: "v0", Value: "0 m/s"}}, sol.Knowns)
	require.Equal(t, []string{"t"}, sol.Unknowns)
	require.Equal(t, []string{"no air resistance"}, sol.Assumptions)
	require.Equal(t, []string{"h = 1/2 g t^2", `{"eq":"t = sqrt(2h/g)"}`}, sol.Steps)
	require.Equal(t, FinalAnswer{Variable: "t", Value: "2.02", Unit: "s"}, sol.Answer)
	require.Equal(t, "free fall", sol.Reasoning)
}
