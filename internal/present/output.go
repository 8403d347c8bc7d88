package present

import (
	"strings"

	"beamdeck/internal/runs"
)

// NoOutput is shown when a run produced neither stdout nor an error.
const NoOutput = "No standard output captured."

// TerminalOutput is the text of the results terminal.
type TerminalOutput struct {
	Body   string
	Stderr string
}

// Terminal picks what the results terminal shows: stdout, else the execution
// error, else a fixed notice. ok is false when there is no execution result.
func Terminal(exec *runs.ExecutionResult) (TerminalOutput, bool) {
	if exec == nil {
		return TerminalOutput{}, false
	}
	out := TerminalOutput{Stderr: exec.Stderr}
	switch {
	case exec.Stdout != "":
		out.Body = exec.Stdout
	case exec.Error != "":
		out.Body = "Error: " + exec.Error
	default:
		out.Body = NoOutput
	}
	return out, true
}

// NewestFirst returns the trace in display order, most recent entry on top.
func NewestFirst(trace []runs.LogEntry) []runs.LogEntry {
	out := make([]runs.LogEntry, 0, len(trace))
	for i := len(trace) - 1; i >= 0; i-- {
		out = append(out, trace[i])
	}
	return out
}

// HasSource reports whether a selection carries a usable "view source" link.
func HasSource(run *runs.SelectedRun) bool {
	return run != nil && strings.TrimSpace(run.Payload.CodeURL) != ""
}
