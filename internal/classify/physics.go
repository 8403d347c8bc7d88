package classify

import (
	"bytes"
	"encoding/json"
	"sort"
)

// PhysicsSolution is the structured output of the physics solver agent.
type PhysicsSolution struct {
	Knowns      []Known
	Unknowns    []string
	Assumptions []string
	Steps       []string
	Answer      FinalAnswer
	Reasoning   string
}

// Known is one given variable, in key order.
type Known struct {
	Name  string
	Value string
}

// FinalAnswer is the solved quantity.
type FinalAnswer struct {
	Variable string
	Value    string
	Unit     string
}

// DetectPhysics sniffs raw stdout for physics-solution data. It returns false,
// never an error, for plain text, invalid JSON or partial shapes: the payload
// must have an "analysis" object with a "knowns" object, a "steps" array and a
// "final_answer" object.
func DetectPhysics(stdout string) (*PhysicsSolution, bool) {
	if stdout == "" {
		return nil, false
	}
	var top map[string]json.RawMessage
	if err := json.Unmarshal([]byte(stdout), &top); err != nil || top == nil {
		return nil, false
	}

	analysis, ok := asObject(top["analysis"])
	if !ok {
		return nil, false
	}
	knowns, ok := asObject(analysis["knowns"])
	if !ok {
		return nil, false
	}
	steps, ok := asArray(top["steps"])
	if !ok {
		return nil, false
	}
	final, ok := asObject(top["final_answer"])
	if !ok {
		return nil, false
	}

	sol := &PhysicsSolution{
		Knowns:      make([]Known, 0, len(knowns)),
		Unknowns:    textList(analysis["unknowns"]),
		Assumptions: textList(analysis["assumptions"]),
		Steps:       make([]string, 0, len(steps)),
		Answer: FinalAnswer{
			Variable: text(final["variable"]),
			Value:    text(final["value"]),
			Unit:     text(final["unit"]),
		},
		Reasoning: text(top["reasoning"]),
	}
	names := make([]string, 0, len(knowns))
	for name := range knowns {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		sol.Knowns = append(sol.Knowns, Known{Name: name, Value: text(knowns[name])})
	}
	for _, step := range steps {
		sol.Steps = append(sol.Steps, text(step))
	}
	return sol, true
}

func asObject(raw json.RawMessage) (map[string]json.RawMessage, bool) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, false
	}
	var out map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &out); err != nil {
		return nil, false
	}
	return out, true
}

func asArray(raw json.RawMessage) ([]json.RawMessage, bool) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, false
	}
	var out []json.RawMessage
	if err := json.Unmarshal(trimmed, &out); err != nil {
		return nil, false
	}
	return out, true
}

func textList(raw json.RawMessage) []string {
	items, ok := asArray(raw)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		out = append(out, text(item))
	}
	return out
}

// text renders a JSON value for display: strings unquoted, null empty, other
// values as compact JSON.
func text(raw json.RawMessage) string {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || string(trimmed) == "null" {
		return ""
	}
	var s string
	if err := json.Unmarshal(trimmed, &s); err == nil {
		return s
	}
	var compact bytes.Buffer
	if err := json.Compact(&compact, trimmed); err != nil {
		return string(trimmed)
	}
	return compact.String()
}
