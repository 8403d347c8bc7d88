package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/x/ansi"

	"beamdeck/internal/classify"
	"beamdeck/internal/present"
	"beamdeck/internal/runs"
)

const waitingForActivity = "Waiting for agent activity..."

// renderStream draws the selected run: header card, output, then the agent
// trace newest entry first.
func renderStream(theme uiTheme, run *runs.SelectedRun, width int, loading bool) string {
	if run == nil {
		return ""
	}
	width = max(20, width)

	var b strings.Builder
	b.WriteString(theme.panelTitle.Render(nullCoalesce(run.Summary, "Mission Log")))
	b.WriteString("\n")
	b.WriteString(theme.helpText.Render(fmt.Sprintf("ID: %s · state=%s", nullCoalesce(run.RunID, "n/a"), nullCoalesce(string(run.State), "unknown"))))
	if desc := strings.TrimSpace(run.ProblemDescription); desc != "" {
		b.WriteString("\n")
		b.WriteString(wrapText(desc, width))
	}

	actions := make([]string, 0, 2)
	if strings.TrimSpace(run.ProblemDescription) != "" {
		rerun := "[r] Rerun"
		if loading {
			rerun = "[r] rerunning..."
		}
		actions = append(actions, rerun)
	}
	if present.HasSource(run) {
		actions = append(actions, "View Source Code: "+theme.link.Render(run.Payload.CodeURL))
	}
	if len(actions) > 0 {
		b.WriteString("\n")
		b.WriteString(theme.status.Render(strings.Join(actions, "   ")))
	}

	output := renderOutput(theme, run.Payload.ExecutionResult, width)
	if output != "" {
		b.WriteString("\n\n")
		b.WriteString(output)
	}

	b.WriteString("\n\n")
	b.WriteString(theme.panelTitle.Render("Agent Thought Stream"))
	b.WriteString("\n")
	b.WriteString(renderTrace(theme, run.Payload.TraceLog, width))
	return b.String()
}

// renderOutput prefers the physics panel when stdout carries a solution and
// falls back to the plain terminal.
func renderOutput(theme uiTheme, exec *runs.ExecutionResult, width int) string {
	if exec == nil {
		return ""
	}
	if solution, ok := classify.DetectPhysics(exec.Stdout); ok {
		return renderPhysics(theme, solution, width)
	}
	term, ok := present.Terminal(exec)
	if !ok {
		return ""
	}
	var b strings.Builder
	b.WriteString(theme.fieldLabel.Render("FINAL OUTPUT"))
	b.WriteString("\n")
	b.WriteString(theme.terminal.Render(wrapText(term.Body, width)))
	if strings.TrimSpace(term.Stderr) != "" {
		b.WriteString("\n")
		b.WriteString(theme.terminalErr.Render(wrapText(term.Stderr, width)))
	}
	return b.String()
}

func renderTrace(theme uiTheme, trace []runs.LogEntry, width int) string {
	if len(trace) == 0 {
		return theme.helpText.Italic(true).Render(waitingForActivity)
	}
	blocks := make([]string, 0, len(trace))
	for _, entry := range present.NewestFirst(trace) {
		style := theme.category(classify.LogCategory(entry.Step))
		head := strings.Join([]string{
			nullCoalesce(entry.Icon, "•"),
			style.label.Render(strings.ToUpper(nullCoalesce(entry.Agent, "agent"))),
			style.badge.Render(style.glyph + " " + nullCoalesce(entry.Step, "step")),
			theme.helpText.Render(shortTime(entry.Timestamp)),
		}, " ")
		block := head
		if content := strings.TrimSpace(entry.Content); content != "" {
			block += "\n" + style.body.Render(indent(wrapText(content, max(10, width-3)), "   "))
		}
		blocks = append(blocks, block)
	}
	return strings.Join(blocks, "\n\n")
}

func renderPhysics(theme uiTheme, solution *classify.PhysicsSolution, width int) string {
	var b strings.Builder
	b.WriteString(theme.fieldLabel.Render("NEWTONIAN SOLVER"))
	b.WriteString("\n\n")

	b.WriteString(theme.panelTitle.Render("Known Variables"))
	b.WriteString("\n")
	if len(solution.Knowns) == 0 {
		b.WriteString(theme.helpText.Render("(none)"))
	}
	nameWidth := 0
	for _, known := range solution.Knowns {
		nameWidth = max(nameWidth, ansi.StringWidth(known.Name))
	}
	for i, known := range solution.Knowns {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(theme.fieldLabel.Render(padRight(known.Name, nameWidth)))
		b.WriteString(" = ")
		b.WriteString(known.Value)
	}

	b.WriteString("\n\n")
	b.WriteString(theme.panelTitle.Render("Target Variables"))
	b.WriteString("\n")
	b.WriteString(nullCoalesce(strings.Join(solution.Unknowns, ", "), theme.helpText.Render("(none)")))

	if len(solution.Assumptions) > 0 {
		b.WriteString("\n")
		b.WriteString(theme.helpText.Render(wrapText("Assumed: "+strings.Join(solution.Assumptions, ", "), width)))
	}

	b.WriteString("\n\n")
	b.WriteString(theme.panelTitle.Render("Solution Path"))
	for i, step := range solution.Steps {
		b.WriteString("\n")
		prefix := fmt.Sprintf("%d. ", i+1)
		b.WriteString(prefix)
		b.WriteString(strings.TrimPrefix(indent(wrapText(step, max(10, width-len(prefix))), strings.Repeat(" ", len(prefix))), strings.Repeat(" ", len(prefix))))
	}

	answer := strings.TrimSpace(solution.Answer.Value + " " + solution.Answer.Unit)
	b.WriteString("\n\n")
	b.WriteString(theme.answer.Render(fmt.Sprintf("%s = %s", nullCoalesce(solution.Answer.Variable, "answer"), answer)))

	if reasoning := strings.TrimSpace(solution.Reasoning); reasoning != "" {
		b.WriteString("\n")
		b.WriteString(theme.helpText.Render(wrapText(reasoning, width)))
	}
	return b.String()
}
