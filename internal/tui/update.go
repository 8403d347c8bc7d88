package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"beamdeck/internal/mission"
)

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd
	switch msg := msg.(type) {
	case historyLoadedMsg:
		m.ready = true
		if msg.err != nil {
			m.appendLog("mission log fetch failed: " + compactSingleLine(msg.err.Error(), 160))
		} else if msg.autoSelect {
			m.statusLine = fmt.Sprintf("ready · %s", nullCoalesce(m.backendURL, "backend"))
		}
		m.sync()
	case agentsLoadedMsg:
		if msg.err != nil {
			m.appendLog("agent roster fetch failed: " + compactSingleLine(msg.err.Error(), 160))
		}
		m.sync()
	case missionDoneMsg:
		m.inflight = false
		m.sync()
		m.logger.Debug("mission operation finished", zap.String("op", msg.op), zap.Stringer("view", m.state.View()), zap.Bool("failed", msg.err != nil))
		if msg.err != nil {
			m.statusLine = msg.op + " failed: " + compactSingleLine(msg.err.Error(), 160)
			m.appendLog(m.statusLine)
			break
		}
		m.statusLine = m.missionStatus()
		m.appendLog(m.statusLine)
		m.stream.GotoTop()
	case deleteDoneMsg:
		m.inflight = false
		if msg.err != nil {
			m.appendLog("delete failed for " + msg.runID + ": " + compactSingleLine(msg.err.Error(), 120))
		} else {
			m.statusLine = "mission " + msg.runID + " deleted"
			m.appendLog(m.statusLine)
		}
		m.sync()
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resize()
		m.renderPanes()
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		if m.launcherActive {
			m.launcherPulse = (m.launcherPulse + 1) % 24
		}
		cmds = append(cmds, cmd)
	case tea.MouseMsg:
		if m.launcherActive || m.quitConfirm || m.deleteConfirm != "" {
			break
		}
		switch m.activeTab {
		case tabMission:
			var cmd tea.Cmd
			m.stream, cmd = m.stream.Update(msg)
			cmds = append(cmds, cmd)
		case tabSwarm:
			var cmd tea.Cmd
			m.dossier, cmd = m.dossier.Update(msg)
			cmds = append(cmds, cmd)
		}
	case tea.KeyMsg:
		return m.handleKey(msg)
	default:
		if m.activeTab == tabMission && m.state.View() == mission.ViewInput {
			var cmd tea.Cmd
			m.prompt, cmd = m.prompt.Update(msg)
			cmds = append(cmds, cmd)
		}
	}
	return m, tea.Batch(cmds...)
}

func (m model) missionStatus() string {
	switch m.state.View() {
	case mission.ViewClarification:
		return "clarification needed · fill the form and press Enter"
	case mission.ViewStream:
		run := m.state.SelectedRun
		return fmt.Sprintf("run %s · %s", run.RunID, nullCoalesce(string(run.State), "unknown"))
	default:
		return "ready"
	}
}

func (m model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd
	if msg.String() == "ctrl+c" {
		return m, tea.Quit
	}
	if m.quitConfirm {
		switch msg.String() {
		case "y", "Y", "enter":
			return m, tea.Quit
		case "n", "N", "esc":
			m.quitConfirm = false
			m.statusLine = "quit canceled"
			m.applyFocus()
		}
		return m, nil
	}
	if m.deleteConfirm != "" {
		runID := m.deleteConfirm
		switch msg.String() {
		case "y", "Y", "enter":
			m.deleteConfirm = ""
			m.inflight = true
			m.statusLine = "deleting " + runID + "..."
			return m, m.deleteCmd(runID)
		case "n", "N", "esc":
			m.deleteConfirm = ""
			m.statusLine = "delete canceled"
		}
		return m, nil
	}
	if m.launcherActive {
		return m.handleLauncherKey(msg)
	}

	switch msg.String() {
	case "esc":
		if m.activeTab == tabMission {
			m.beginQuitConfirm()
			return m, nil
		}
		m.launcherActive = true
		m.launcherIndex = launcherIndexForTab(m.activeTab)
		m.statusLine = "launcher menu"
		m.applyFocus()
		return m, nil
	case "tab":
		m.switchTab((m.activeTab + 1) % tabCount)
		return m, nil
	case "shift+tab":
		m.switchTab((m.activeTab + tabCount - 1) % tabCount)
		return m, nil
	case "ctrl+n":
		m.newMission()
		return m, nil
	case "ctrl+r":
		m.statusLine = "refreshing mission log and roster..."
		return m, tea.Batch(m.fetchHistoryCmd(false), m.fetchAgentsCmd())
	}

	switch m.activeTab {
	case tabMission:
		return m.handleMissionKey(msg)
	case tabHistory:
		switch msg.String() {
		case "up", "k":
			m.historyCursor = max(0, m.historyCursor-1)
		case "down", "j":
			m.historyCursor = min(max(0, len(m.state.History)-1), m.historyCursor+1)
		case "home":
			m.historyCursor = 0
		case "end":
			m.historyCursor = max(0, len(m.state.History)-1)
		case "enter":
			if len(m.state.History) == 0 {
				break
			}
			item := m.state.History[m.historyCursor]
			m.ctrl.SelectHistory(item)
			m.activeTab = tabMission
			m.sync()
			m.stream.GotoTop()
			m.statusLine = "loaded " + item.RunID + " from mission log"
			return m, nil
		case "d", "x", "delete":
			if len(m.state.History) == 0 {
				break
			}
			m.deleteConfirm = m.state.History[m.historyCursor].RunID
			m.statusLine = "delete this mission?"
			return m, nil
		case "r":
			m.statusLine = "refreshing mission log..."
			cmds = append(cmds, m.fetchHistoryCmd(false))
		}
		m.renderPanes()
	case tabSwarm:
		cols := swarmColumns(m.swarmGridWidth())
		last := max(0, len(m.state.Agents)-1)
		switch msg.String() {
		case "left", "h":
			m.swarmCursor = max(0, m.swarmCursor-1)
		case "right", "l":
			m.swarmCursor = min(last, m.swarmCursor+1)
		case "up", "k":
			m.swarmCursor = max(0, m.swarmCursor-cols)
		case "down", "j":
			m.swarmCursor = min(last, m.swarmCursor+cols)
		case "enter", " ":
			if len(m.state.Agents) > 0 {
				agent := m.state.Agents[m.swarmCursor]
				m.selectedAgentID = agent.ID
				m.statusLine = "dossier: " + agent.Name
				m.dossier.GotoTop()
			}
		case "pgup":
			m.dossier.LineUp(6)
		case "pgdown":
			m.dossier.LineDown(6)
		}
		m.renderPanes()
	}
	return m, tea.Batch(cmds...)
}

func (m model) handleMissionKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd
	switch m.state.View() {
	case mission.ViewInput:
		if msg.String() == "enter" {
			if m.inflight || m.state.IsLoading {
				return m, nil
			}
			text := m.prompt.Value()
			m.ctrl.SetPrompt(text)
			if strings.TrimSpace(text) == "" {
				m.statusLine = "describe a mission first"
				return m, nil
			}
			m.inflight = true
			m.statusLine = "initializing mission..."
			m.appendLog("start: " + compactSingleLine(text, 120))
			return m, m.startCmd("")
		}
		var cmd tea.Cmd
		m.prompt, cmd = m.prompt.Update(msg)
		m.ctrl.SetPrompt(m.prompt.Value())
		cmds = append(cmds, cmd)
	case mission.ViewClarification:
		switch msg.String() {
		case "enter":
			if m.inflight || m.state.IsLoading {
				return m, nil
			}
			m.inflight = true
			m.statusLine = "executing simulation..."
			return m, m.continueCmd()
		case "up", "shift+up":
			m.formFocus = max(0, m.formFocus-1)
			m.applyFocus()
			return m, nil
		case "down", "shift+down":
			m.formFocus = min(max(0, len(m.formFields)-1), m.formFocus+1)
			m.applyFocus()
			return m, nil
		}
		if len(m.formFields) == 0 {
			return m, nil
		}
		field := &m.formFields[m.formFocus]
		if field.spec.Numeric() && msg.Type == tea.KeyRunes {
			msg.Runes = numericOnly(msg.Runes)
			if len(msg.Runes) == 0 {
				return m, nil
			}
		}
		var cmd tea.Cmd
		field.input, cmd = field.input.Update(msg)
		m.ctrl.HandleInputChange(field.spec.Name, field.input.Value())
		cmds = append(cmds, cmd)
	case mission.ViewStream:
		switch msg.String() {
		case "r":
			if m.inflight || m.state.IsLoading {
				return m, nil
			}
			if strings.TrimSpace(m.state.SelectedRun.ProblemDescription) == "" {
				m.statusLine = "nothing to rerun"
				return m, nil
			}
			m.inflight = true
			m.statusLine = "rerunning mission..."
			m.renderPanes()
			return m, m.rerunCmd()
		case "n":
			m.newMission()
		case "pgup", "ctrl+b":
			m.stream.LineUp(8)
		case "pgdown", "ctrl+f", " ":
			m.stream.LineDown(8)
		case "up", "k":
			m.stream.LineUp(2)
		case "down", "j":
			m.stream.LineDown(2)
		case "home", "g":
			m.stream.GotoTop()
		case "end", "G":
			m.stream.GotoBottom()
		}
	}
	return m, tea.Batch(cmds...)
}

func (m model) handleLauncherKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "up", "k":
		m.launcherIndex = (m.launcherIndex + len(m.launcherItems) - 1) % len(m.launcherItems)
	case "down", "j":
		m.launcherIndex = (m.launcherIndex + 1) % len(m.launcherItems)
	case "esc":
		m.launcherActive = false
		m.switchTab(tabMission)
		m.statusLine = "launcher skipped · mission control ready"
	case "q":
		m.beginQuitConfirm()
	case "enter":
		switch m.launcherIndex {
		case 0:
			m.launcherActive = false
			m.switchTab(tabMission)
			m.statusLine = "connecting to mission control..."
			if m.ready {
				m.statusLine = "mission control ready"
			}
		case 1:
			m.launcherActive = false
			m.switchTab(tabHistory)
			m.statusLine = "mission log"
		case 2:
			m.launcherActive = false
			m.switchTab(tabSwarm)
			m.statusLine = "swarm intelligence"
		case 3:
			m.launcherActive = false
			m.switchTab(tabHelp)
			m.statusLine = "help"
		case 4:
			m.beginQuitConfirm()
		}
	}
	return m, nil
}

func launcherIndexForTab(tab tabID) int {
	switch tab {
	case tabHistory:
		return 1
	case tabSwarm:
		return 2
	case tabHelp:
		return 3
	default:
		return 0
	}
}

func (m *model) switchTab(tab tabID) {
	m.activeTab = tab
	m.applyFocus()
	m.renderPanes()
}

// newMission clears the selection and result and returns to the prompt.
func (m *model) newMission() {
	m.ctrl.ResetMission()
	m.prompt.Reset()
	m.activeTab = tabMission
	m.statusLine = "new mission"
	m.sync()
}
