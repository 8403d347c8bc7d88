// Package present normalizes live results and history entries into the one
// SelectedRun shape the stream view renders.
package present

import (
	"strings"

	"beamdeck/internal/runs"
)

const (
	// HistorySummary is the headline of any run opened from history.
	HistorySummary = "Loaded from history"
	// HistoryStdout stands in for execution output, which history does not keep.
	HistoryStdout = "Run execution to see live output."
)

// Adapter builds SelectedRun values. SourceBaseURL is the "view source" root
// that history file paths are joined onto.
type Adapter struct {
	SourceBaseURL string
}

// NewAdapter returns an Adapter for the given source root.
func NewAdapter(sourceBaseURL string) Adapter {
	return Adapter{SourceBaseURL: sourceBaseURL}
}

// FromHistory reshapes a history entry. The state is always COMPLETED and the
// execution result is always the placeholder.
func (a Adapter) FromHistory(item runs.HistorySummary) runs.SelectedRun {
	codeURL := ""
	if strings.TrimSpace(item.Metadata.URL) != "" {
		codeURL = a.SourceURL(item.FilePath)
	}
	return runs.SelectedRun{
		RunID:              item.RunID,
		State:              runs.StateCompleted,
		ProblemDescription: item.ProblemDescription,
		Summary:            HistorySummary,
		Payload: runs.SelectedPayload{
			TraceLog:        copyTrace(item.Metadata.TraceLog),
			CodeURL:         codeURL,
			ExecutionResult: &runs.ExecutionResult{Stdout: HistoryStdout},
		},
	}
}

// FromResult reshapes a live backend result. A nil result yields nil.
func (a Adapter) FromResult(res *runs.RunResult) *runs.SelectedRun {
	if res == nil {
		return nil
	}
	var exec *runs.ExecutionResult
	if res.Payload.ExecutionResult != nil {
		copied := *res.Payload.ExecutionResult
		exec = &copied
	}
	return &runs.SelectedRun{
		RunID:              res.RunID,
		State:              res.State,
		ProblemDescription: res.ProblemDescription,
		Summary:            res.Summary,
		Payload: runs.SelectedPayload{
			TraceLog:        copyTrace(res.Payload.TraceLog),
			CodeURL:         strings.TrimSpace(res.Payload.CodeURL),
			ExecutionResult: exec,
		},
	}
}

// SourceURL joins the source root and a repository file path. An empty path
// yields no link.
func (a Adapter) SourceURL(filePath string) string {
	path := strings.TrimLeft(strings.TrimSpace(filePath), "/")
	if path == "" {
		return ""
	}
	return strings.TrimRight(a.SourceBaseURL, "/") + "/" + path
}

func copyTrace(trace []runs.LogEntry) []runs.LogEntry {
	out := make([]runs.LogEntry, len(trace))
	copy(out, trace)
	return out
}
