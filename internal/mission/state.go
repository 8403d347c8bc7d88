package mission

import "beamdeck/internal/runs"

// State is the single source of truth for one client session.
type State struct {
	Prompt      string
	IsLoading   bool
	Result      *runs.RunResult
	Error       string // empty when there is no error to show
	History     []runs.HistorySummary
	Agents      []runs.AgentProfile
	SelectedRun *runs.SelectedRun
	FormInputs  map[string]string
}

// View is the main-pane mode derived from State.
type View int

const (
	// ViewInput shows the prompt editor.
	ViewInput View = iota
	// ViewClarification shows the form for missing variables.
	ViewClarification
	// ViewStream shows the selected run's trace and output.
	ViewStream
)

func (v View) String() string {
	switch v {
	case ViewClarification:
		return "clarification"
	case ViewStream:
		return "stream"
	default:
		return "input"
	}
}

// View derives the main-pane mode. There is no separately stored view state.
func (s State) View() View {
	if s.SelectedRun != nil {
		return ViewStream
	}
	if s.Result.AwaitingUser() {
		return ViewClarification
	}
	return ViewInput
}

// MissingVars lists the variables the current result is waiting on.
func (s State) MissingVars() []runs.VariableSpec {
	if !s.Result.AwaitingUser() {
		return nil
	}
	return s.Result.Payload.MissingVars
}

func (s State) clone() State {
	out := s
	out.History = append([]runs.HistorySummary(nil), s.History...)
	out.Agents = append([]runs.AgentProfile(nil), s.Agents...)
	out.FormInputs = make(map[string]string, len(s.FormInputs))
	for k, v := range s.FormInputs {
		out.FormInputs[k] = v
	}
	return out
}
