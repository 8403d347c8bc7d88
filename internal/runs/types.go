// Package runs holds the wire shapes exchanged with the mission backend and
// the normalized view model rendered by the client.
package runs

import "fmt"

// State is the backend lifecycle state of a run.
type State string

const (
	StatePending      State = "PENDING"
	StateRunning      State = "RUNNING"
	StateAwaitingUser State = "AWAITING_USER"
	StatePaused       State = "PAUSED"
	StateFailed       State = "FAILED"
	StateCompleted    State = "COMPLETED"
)

// LogEntry is one step of agent activity in a run's trace.
type LogEntry struct {
	Agent     string `json:"agent" yaml:"agent"`
	Step      string `json:"step" yaml:"step"`
	Content   string `json:"content" yaml:"content"`
	Icon      string `json:"icon" yaml:"icon"`
	Timestamp string `json:"timestamp" yaml:"timestamp"`
}

// VariableSpec describes one value the backend needs before it can proceed.
type VariableSpec struct {
	Name        string `json:"name" yaml:"name"`
	Description string `json:"description" yaml:"description"`
	Type        string `json:"type" yaml:"type"`
	Default     any    `json:"default,omitempty" yaml:"default,omitempty"`
}

// Numeric reports whether the variable expects a number.
func (v VariableSpec) Numeric() bool {
	return v.Type == "number"
}

// DefaultText renders the default value for placeholders.
func (v VariableSpec) DefaultText() string {
	if v.Default == nil {
		return ""
	}
	return fmt.Sprint(v.Default)
}

// ExecutionResult is the captured output of the generated program.
type ExecutionResult struct {
	Stdout string `json:"stdout,omitempty" yaml:"stdout,omitempty"`
	Stderr string `json:"stderr,omitempty" yaml:"stderr,omitempty"`
	Error  string `json:"error,omitempty" yaml:"error,omitempty"`
}

// Payload is the body of a RunResult.
type Payload struct {
	TraceLog        []LogEntry       `json:"trace_log" yaml:"trace_log"`
	MissingVars     []VariableSpec   `json:"missing_vars,omitempty" yaml:"missing_vars,omitempty"`
	ExecutionResult *ExecutionResult `json:"execution_result,omitempty" yaml:"execution_result,omitempty"`
	CodeURL         string           `json:"code_url,omitempty" yaml:"code_url,omitempty"`
}

// RunResult is the backend response to a start or continue request.
type RunResult struct {
	RunID              string  `json:"run_id" yaml:"run_id"`
	State              State   `json:"state" yaml:"state"`
	Summary            string  `json:"summary" yaml:"summary"`
	Payload            Payload `json:"payload" yaml:"payload"`
	ProblemDescription string  `json:"problem_description" yaml:"problem_description"`
	FromAgent          string  `json:"from_agent,omitempty" yaml:"from_agent,omitempty"`
	Confidence         float64 `json:"confidence,omitempty" yaml:"confidence,omitempty"`
}

// AwaitingUser reports whether the run is paused for clarification.
func (r *RunResult) AwaitingUser() bool {
	return r != nil && r.State == StateAwaitingUser
}

// HistoryMetadata is the stored side data of a finished run.
type HistoryMetadata struct {
	TraceLog []LogEntry `json:"trace_log,omitempty" yaml:"trace_log,omitempty"`
	URL      string     `json:"url,omitempty" yaml:"url,omitempty"`
}

// HistorySummary is one entry of the run history list.
type HistorySummary struct {
	RunID              string          `json:"run_id" yaml:"run_id"`
	ProblemDescription string          `json:"problem_description" yaml:"problem_description"`
	CreatedAt          string          `json:"created_at" yaml:"created_at"`
	FilePath           string          `json:"file_path" yaml:"file_path"`
	Metadata           HistoryMetadata `json:"metadata" yaml:"metadata"`
}

// SelectedPayload is the normalized body of a SelectedRun.
type SelectedPayload struct {
	TraceLog        []LogEntry       `json:"trace_log" yaml:"trace_log"`
	CodeURL         string           `json:"code_url,omitempty" yaml:"code_url,omitempty"` // empty means no link
	ExecutionResult *ExecutionResult `json:"execution_result,omitempty" yaml:"execution_result,omitempty"`
}

// SelectedRun is the single shape the stream view renders, whether it came
// from a live result or from history.
type SelectedRun struct {
	RunID              string          `json:"run_id" yaml:"run_id"`
	State              State           `json:"state" yaml:"state"`
	ProblemDescription string          `json:"problem_description" yaml:"problem_description"`
	Summary            string          `json:"summary" yaml:"summary"`
	Payload            SelectedPayload `json:"payload" yaml:"payload"`
}

// Relationships lists which agents talk to an agent and which it talks to.
type Relationships struct {
	Incoming []string `json:"incoming" yaml:"incoming"`
	Outgoing []string `json:"outgoing" yaml:"outgoing"`
}

// AgentProfile is a static roster entry.
type AgentProfile struct {
	ID            string        `json:"id" yaml:"id"`
	Name          string        `json:"name" yaml:"name"`
	Role          string        `json:"role" yaml:"role"`
	Icon          string        `json:"icon" yaml:"icon"`
	Description   string        `json:"description" yaml:"description"`
	Instructions  []string      `json:"instructions" yaml:"instructions"`
	Tools         []string      `json:"tools" yaml:"tools"`
	Relationships Relationships `json:"relationships" yaml:"relationships"`
}
