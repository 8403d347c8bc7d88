package tui

import (
	"fmt"
	"strings"

	"beamdeck/internal/runs"
)

const noMissions = "No missions recorded yet."

// renderHistory lists past runs. The cursor row is highlighted and the run
// currently on screen carries a marker.
func renderHistory(theme uiTheme, items []runs.HistorySummary, cursor int, selectedID string, width int) string {
	if len(items) == 0 {
		return theme.helpText.Italic(true).Render(noMissions)
	}
	descWidth := max(12, width-16)
	lines := make([]string, 0, len(items))
	for idx, item := range items {
		marker := " "
		if selectedID != "" && item.RunID == selectedID {
			marker = "●"
		}
		row := fmt.Sprintf("%s %s  %s", marker, shortDate(item.CreatedAt), padRight(compactSingleLine(item.ProblemDescription, descWidth), descWidth))
		switch {
		case idx == cursor:
			lines = append(lines, theme.rowSelected.Render(row))
		case marker != " ":
			lines = append(lines, theme.rowActive.Render(row))
		default:
			lines = append(lines, row)
		}
	}
	return strings.Join(lines, "\n")
}
