package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"beamdeck/internal/runs"
)

const (
	swarmCellWidth = 26
	noDossier      = "Select an agent node to view its classified dossier."
)

func swarmColumns(width int) int {
	return max(1, width/swarmCellWidth)
}

// renderSwarmGrid lays the roster out as a grid of nodes.
func renderSwarmGrid(theme uiTheme, agents []runs.AgentProfile, cursor int, selectedID string, width int) string {
	if len(agents) == 0 {
		return theme.helpText.Italic(true).Render("No agents reported by the backend.")
	}
	cols := swarmColumns(width)
	rows := make([]string, 0, len(agents)/cols+1)
	cells := make([]string, 0, cols)
	for idx, agent := range agents {
		label := padRight(nullCoalesce(agent.Icon, "◎")+" "+compactSingleLine(agent.Name, swarmCellWidth-6), swarmCellWidth-4)
		role := padRight(compactSingleLine(agent.Role, swarmCellWidth-4), swarmCellWidth-4)
		style := lipgloss.NewStyle().Width(swarmCellWidth - 2)
		switch {
		case idx == cursor:
			label = theme.rowSelected.Render(label)
		case agent.ID == selectedID:
			label = theme.rowActive.Render(label)
		}
		cells = append(cells, style.Render(label+"\n"+theme.helpText.Render(role)))
		if len(cells) == cols {
			rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, cells...))
			cells = cells[:0]
		}
	}
	if len(cells) > 0 {
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, cells...))
	}
	return strings.Join(rows, "\n\n")
}

// renderDossier shows one agent's description, directives, tools and links.
func renderDossier(theme uiTheme, agent *runs.AgentProfile, width int) string {
	if agent == nil {
		return theme.helpText.Italic(true).Render(noDossier)
	}
	var b strings.Builder
	b.WriteString(theme.panelTitle.Render(nullCoalesce(agent.Icon, "◎") + " " + agent.Name))
	b.WriteString("\n")
	b.WriteString(theme.helpText.Render(agent.Role + " · " + agent.ID))
	b.WriteString("\n\n")
	b.WriteString(wrapText(agent.Description, width))

	b.WriteString("\n\n")
	b.WriteString(theme.fieldLabel.Render("Core Directives"))
	b.WriteString("\n")
	b.WriteString(wrapText(bulletList(agent.Instructions, "(none)"), width))

	b.WriteString("\n\n")
	b.WriteString(theme.fieldLabel.Render("Toolbelt"))
	b.WriteString("\n")
	b.WriteString(wrapText(nullCoalesce(strings.Join(agent.Tools, " · "), "(none)"), width))

	b.WriteString("\n\n")
	b.WriteString(theme.fieldLabel.Render("Neural Links"))
	b.WriteString("\n")
	b.WriteString("Receives from: " + nullCoalesce(strings.Join(agent.Relationships.Incoming, ", "), "(none)"))
	b.WriteString("\n")
	b.WriteString("Delegates to:  " + nullCoalesce(strings.Join(agent.Relationships.Outgoing, ", "), "(none)"))
	return b.String()
}
