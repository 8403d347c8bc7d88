package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"beamdeck/internal/mission"
	"beamdeck/internal/version"
)

func (m model) View() string {
	out := ""
	if m.launcherActive {
		out = m.renderLauncher()
	} else {
		header := m.renderHeader()
		content := m.renderContent()
		input := m.renderInput()
		footer := m.renderFooter()
		out = lipgloss.JoinVertical(lipgloss.Left, header, content, input, footer)
	}
	switch {
	case m.quitConfirm:
		out = m.renderQuitModal()
	case m.deleteConfirm != "":
		out = m.renderDeleteModal()
	}
	return m.theme.root.Render(out)
}

func (m *model) renderLauncher() string {
	contentWidth := max(48, min(100, m.width-4))

	pulseOn := ((m.launcherPulse / 2) % 2) == 0
	titleStyle := m.theme.launcherTitle
	frameStyle := m.theme.launcherFrame
	if pulseOn {
		titleStyle = m.theme.launcherTitlePulse
		frameStyle = m.theme.launcherFrameAlt
	}

	innerWidth := clamp(contentWidth-8, 34, 74)
	rule := "+" + strings.Repeat("-", innerWidth) + "+"
	headerA := "| " + padRight("BEAM.ME MISSION DECK", innerWidth-2) + " |"
	headerB := "| " + padRight("one problem -> a swarm of agents", innerWidth-2) + " |"

	statusLabel := "BOOTING"
	statusStyle := m.theme.launcherBoot
	statusDetail := "syncing mission log and agent roster"
	if m.ready {
		statusLabel = "ONLINE"
		statusStyle = m.theme.launcherReady
		statusDetail = fmt.Sprintf("%d missions on record · %d agents on the grid", len(m.state.History), len(m.state.Agents))
	}
	bootLine := statusStyle.Render("["+statusLabel+"]") + " " + statusDetail

	var options strings.Builder
	for idx, item := range m.launcherItems {
		prefix := "   "
		if idx == m.launcherIndex {
			prefix = ">> "
		}
		line := fmt.Sprintf("%s%d. %s", prefix, idx+1, item)
		if idx == m.launcherIndex {
			options.WriteString(m.theme.launcherSelect.Render(line))
		} else {
			options.WriteString(m.theme.launcherOption.Render(line))
		}
		options.WriteString("\n")
	}

	art := []string{
		"        .      *        .",
		"   ==[ >>>>>>>>>>>>>>>>>> ]==",
		"        '      *        '",
	}

	body := strings.Join([]string{
		titleStyle.Render("Beamdeck"),
		m.theme.launcherMuted.Render("Terminal mission control for the Beam.me agent swarm"),
		"",
		m.theme.launcherAccent.Render(rule),
		m.theme.launcherAccent.Render(headerA),
		m.theme.launcherAccent.Render(headerB),
		m.theme.launcherAccent.Render(rule),
		"",
		m.theme.launcherAccent.Render(strings.Join(art, "\n")),
		"",
		m.spinner.View() + " " + bootLine,
		m.theme.launcherMuted.Render("Backend: " + nullCoalesce(m.backendURL, "(unset)")),
		"",
		strings.TrimRight(options.String(), "\n"),
		"",
		m.theme.launcherMuted.Render("Keys: up/down choose | enter launch | esc skip to mission | q quit prompt"),
	}, "\n")
	body = applyScanlineOverlay(body, m.theme.launcherScanlineA, m.theme.launcherScanlineB)

	panel := frameStyle.Width(contentWidth).Render(body)
	return lipgloss.Place(
		max(contentWidth+2, m.width-2),
		max(16, m.height-2),
		lipgloss.Center,
		lipgloss.Center,
		panel,
	)
}

func (m *model) renderHeader() string {
	tabs := []struct {
		id    tabID
		label string
	}{
		{tabMission, "Mission"},
		{tabHistory, fmt.Sprintf("Mission Log (%d)", len(m.state.History))},
		{tabSwarm, "Swarm"},
		{tabHelp, "Help"},
	}
	segments := make([]string, 0, len(tabs)+2)
	for _, tab := range tabs {
		style := m.theme.tabInactive
		if tab.id == m.activeTab {
			style = m.theme.tabActive
		}
		segments = append(segments, style.Render(tab.label))
	}
	segments = append(segments, m.theme.helpText.Render(" Backend: "+nullCoalesce(m.backendURL, "n/a")))
	if m.inflight || m.state.IsLoading {
		segments = append(segments, " "+m.spinner.View())
	}
	joined := lipgloss.JoinHorizontal(lipgloss.Left, segments...)
	return m.theme.header.Width(max(20, m.width-4)).Render(joined)
}

func (m *model) contentSize() (int, int) {
	return max(40, m.width-4), max(8, m.height-13)
}

func (m *model) swarmGridWidth() int {
	contentWidth, _ := m.contentSize()
	return max(swarmCellWidth, int(float64(contentWidth)*0.58)-4)
}

func (m *model) renderContent() string {
	contentWidth, contentHeight := m.contentSize()
	panel := m.theme.panel.Width(contentWidth).Height(contentHeight)

	switch m.activeTab {
	case tabMission:
		switch m.state.View() {
		case mission.ViewStream:
			return panel.Render(m.theme.panelTitle.Render("Run Stream") + "\n" + m.stream.View())
		case mission.ViewClarification:
			return panel.Render(m.renderClarification(contentWidth - 4))
		default:
			return panel.Render(m.renderMissionHome(contentWidth - 4))
		}
	case tabHistory:
		return panel.Render(m.theme.panelTitle.Render("Mission Log") + "\n" + m.history.View())
	case tabSwarm:
		gridWidth := m.swarmGridWidth() + 4
		dossierWidth := max(24, contentWidth-gridWidth-1)
		left := m.theme.panel.Width(gridWidth).Height(contentHeight).Render(
			m.theme.panelTitle.Render("Neural Grid") + "\n" +
				renderSwarmGrid(m.theme, m.state.Agents, m.swarmCursor, m.selectedAgentID, gridWidth-4),
		)
		right := m.theme.panel.Width(dossierWidth).Height(contentHeight).Render(
			m.theme.panelTitle.Render("Agent Dossier") + "\n" + m.dossier.View(),
		)
		return lipgloss.JoinHorizontal(lipgloss.Top, left, right)
	case tabHelp:
		return panel.Render(m.theme.panelTitle.Render("Beamdeck Help") + "\n" + m.renderHelp())
	default:
		return ""
	}
}

func (m *model) renderMissionHome(width int) string {
	var b strings.Builder
	b.WriteString(m.theme.panelTitle.Render("Mission Control"))
	b.WriteString("\n")
	b.WriteString(wrapText("Describe a physics or engineering problem and the swarm will plan, negotiate and execute a solution.", width))
	if m.state.Error != "" {
		b.WriteString("\n\n")
		b.WriteString(m.theme.errorStatus.Render(wrapText(m.state.Error, width)))
	}
	b.WriteString("\n\n")
	b.WriteString(m.theme.helpText.Render(fmt.Sprintf(
		"%d missions in the log · %d agents online · Tab to browse",
		len(m.state.History),
		len(m.state.Agents),
	)))
	return b.String()
}

func (m *model) renderClarification(width int) string {
	var b strings.Builder
	b.WriteString(m.theme.panelTitle.Render("Clarification Needed"))
	if res := m.state.Result; res != nil && strings.TrimSpace(res.Summary) != "" {
		b.WriteString("\n")
		b.WriteString(m.theme.helpText.Render(wrapText(res.Summary, width)))
	}
	if m.state.Error != "" {
		b.WriteString("\n")
		b.WriteString(m.theme.errorStatus.Render(wrapText(m.state.Error, width)))
	}
	for i, field := range m.formFields {
		b.WriteString("\n\n")
		label := nullCoalesce(field.spec.Description, field.spec.Name)
		marker := "  "
		if i == m.formFocus {
			marker = "> "
		}
		b.WriteString(m.theme.fieldLabel.Render(marker + label))
		b.WriteString(m.theme.helpText.Render(fmt.Sprintf("  (%s, %s)", field.spec.Name, nullCoalesce(field.spec.Type, "text"))))
		b.WriteString("\n  ")
		b.WriteString(field.input.View())
	}
	return b.String()
}

func (m *model) renderInput() string {
	contentWidth, _ := m.contentSize()
	busy := m.inflight || m.state.IsLoading
	hint := ""
	switch m.activeTab {
	case tabMission:
		switch m.state.View() {
		case mission.ViewInput:
			view := m.prompt.View()
			if busy {
				view = m.spinner.View() + " initializing... " + view
			}
			return m.theme.inputPanel.Width(contentWidth).Render(view)
		case mission.ViewClarification:
			hint = "Enter: Execute Simulation · Up/Down: switch field · Ctrl+N: new mission"
		default:
			hint = "r: Rerun · n: New Mission · PgUp/PgDn or Up/Down: scroll"
		}
	case tabHistory:
		hint = "Enter: open mission · d: delete · r: refresh"
	case tabSwarm:
		hint = "Arrows: move · Enter: open dossier · PgUp/PgDn: scroll dossier"
	default:
		hint = "Input disabled outside Mission tab. Press Tab to return."
	}
	if busy {
		hint = m.spinner.View() + " working... " + hint
	}
	return m.theme.inputPanel.Width(contentWidth).Render(m.theme.helpText.Render(hint))
}

func (m *model) renderFooter() string {
	contentWidth, _ := m.contentSize()
	statusStyle := m.theme.status
	lower := strings.ToLower(m.statusLine)
	if strings.Contains(lower, "failed") || strings.Contains(lower, "error") {
		statusStyle = m.theme.errorStatus
	}
	line := statusStyle.Render(compactSingleLine(m.statusLine, 180))
	hints := m.theme.helpText.Render("Keys: Tab switch view · Enter submit · Ctrl+N new mission · Ctrl+R refresh · Esc menu/quit prompt · Ctrl+C quit")
	return m.theme.footer.Width(contentWidth).Render(line + "\n" + hints)
}

func (m *model) renderModal(title, subtitle, note, confirm, cancel string) string {
	canvasWidth := max(40, m.width-4)
	canvasHeight := max(12, m.height-4)
	modalWidth := clamp(int(float64(canvasWidth)*0.56), 42, 78)
	if modalWidth > canvasWidth-2 {
		modalWidth = canvasWidth - 2
	}
	if modalWidth < 32 {
		modalWidth = 32
	}

	prompt := m.theme.tabActive.Render(confirm) + "    " + m.theme.helpText.Render(cancel)
	accent := m.theme.launcherAccent.Render(strings.Repeat("=", 40))
	body := strings.Join([]string{
		m.theme.errorStatus.Render(title),
		m.theme.helpText.Render(subtitle),
		"",
		accent,
		m.theme.helpText.Render(note),
		accent,
		"",
		prompt,
	}, "\n")
	panel := m.theme.launcherFrameAlt.Width(modalWidth).Render(body)
	return lipgloss.Place(
		canvasWidth,
		canvasHeight,
		lipgloss.Center,
		lipgloss.Center,
		panel,
		lipgloss.WithWhitespaceBackground(lipgloss.Color("#120924")),
	)
}

func (m *model) renderQuitModal() string {
	return m.renderModal(
		"EXIT MISSION DECK?",
		"Are you sure you want to quit Beamdeck?",
		"Mission history lives on the backend and survives this session.",
		"[Y / Enter] Quit",
		"[N / Esc] Return",
	)
}

func (m *model) renderDeleteModal() string {
	desc := ""
	for _, item := range m.state.History {
		if item.RunID == m.deleteConfirm {
			desc = item.ProblemDescription
			break
		}
	}
	return m.renderModal(
		"DELETE MISSION?",
		"Are you sure you want to delete this mission?",
		compactSingleLine(nullCoalesce(desc, m.deleteConfirm), 70),
		"[Y / Enter] Delete",
		"[N / Esc] Keep",
	)
}

func (m *model) renderHelp() string {
	lines := []string{
		"Core Keys",
		"- Launcher: Up/Down select, Enter launch, Esc skip to mission",
		"- Tab / Shift+Tab: switch views",
		"- Enter: start a mission (Mission tab, prompt view); Alt+Enter adds a newline",
		"- Enter in the clarification form submits every field; Up/Down moves between fields",
		"- r: rerun the mission on screen · n or Ctrl+N: new mission",
		"- Mission Log: Enter opens a run, d deletes after confirmation, r refreshes",
		"- Swarm: arrows move across the grid, Enter opens the agent dossier",
		"- Ctrl+R: refresh mission log and agent roster",
		"- Esc: from other tabs, return to launcher; on Mission, quit prompt",
		"- Ctrl+C: quit",
		"",
		"Stream Legend",
		"- ◇ reasoning: planning, analysis, strategy, review and critique steps",
		"- ⇄ coordination: agent-to-agent negotiation and handoffs",
		"- ⚡ action: everything else the swarm does",
		"- Physics solver output renders as a knowns / steps / answer panel",
		"",
		"Recent Activity",
	}
	if len(m.logs) == 0 {
		lines = append(lines, "- (none yet)")
	}
	start := max(0, len(m.logs)-8)
	for _, line := range m.logs[start:] {
		lines = append(lines, "- "+line)
	}
	lines = append(lines, "", "beamdeck "+version.Full())
	return m.theme.helpText.Render(strings.Join(lines, "\n"))
}

func (m *model) resize() {
	contentWidth, _ := m.contentSize()
	m.prompt.SetWidth(max(20, contentWidth-4))
	for i := range m.formFields {
		m.formFields[i].input.Width = max(16, min(48, contentWidth-12))
	}
}

func (m *model) renderPanes() {
	contentWidth, contentHeight := m.contentSize()

	prevStreamOffset := m.stream.YOffset
	m.stream.Width = max(20, contentWidth-4)
	m.stream.Height = max(5, contentHeight-1)
	if m.state.SelectedRun != nil {
		m.stream.SetContent(renderStream(m.theme, m.state.SelectedRun, m.stream.Width, m.inflight || m.state.IsLoading))
		m.stream.SetYOffset(prevStreamOffset)
	} else {
		m.stream.SetContent("")
	}

	m.history.Width = max(20, contentWidth-4)
	m.history.Height = max(5, contentHeight-1)
	selectedID := ""
	if m.state.SelectedRun != nil {
		selectedID = m.state.SelectedRun.RunID
	}
	m.history.SetContent(renderHistory(m.theme, m.state.History, m.historyCursor, selectedID, m.history.Width))
	if m.historyCursor < m.history.YOffset {
		m.history.SetYOffset(m.historyCursor)
	} else if m.historyCursor >= m.history.YOffset+m.history.Height {
		m.history.SetYOffset(m.historyCursor - m.history.Height + 1)
	}

	gridWidth := m.swarmGridWidth() + 4
	dossierWidth := max(24, contentWidth-gridWidth-1)
	m.dossier.Width = max(20, dossierWidth-4)
	m.dossier.Height = max(5, contentHeight-1)
	m.dossier.SetContent(renderDossier(m.theme, m.selectedAgent(), m.dossier.Width))
}
