// Package tui is the interactive terminal front end: a bubbletea program that
// renders mission state and dispatches controller operations.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"beamdeck/internal/mission"
	"beamdeck/internal/runs"
)

type tabID int

const (
	tabMission tabID = iota
	tabHistory
	tabSwarm
	tabHelp
)

const tabCount = 4

const promptPlaceholder = "e.g., Calculate the stress in a steel beam with 500N load..."

// Options configures the program.
type Options struct {
	// Launcher opens on the retro launcher menu instead of the mission tab.
	Launcher bool
	// AltScreen runs in the terminal's alternate screen buffer.
	AltScreen bool
	// BackendURL is shown in the header.
	BackendURL string
	Logger     *zap.Logger
}

type model struct {
	ctx        context.Context
	ctrl       *mission.Controller
	logger     *zap.Logger
	backendURL string

	state mission.State

	ready          bool
	statusLine     string
	logs           []string
	activeTab      tabID
	launcherActive bool
	launcherIndex  int
	launcherItems  []string
	launcherPulse  int
	inflight       bool
	quitConfirm    bool
	deleteConfirm  string

	historyCursor   int
	swarmCursor     int
	selectedAgentID string

	formRunID  string
	formFields []formField
	formFocus  int

	width  int
	height int

	prompt  textarea.Model
	stream  viewport.Model
	history viewport.Model
	dossier viewport.Model
	spinner spinner.Model

	theme uiTheme
}

// formField is one clarification input bound to a missing variable.
type formField struct {
	spec  runs.VariableSpec
	input textinput.Model
}

type historyLoadedMsg struct {
	autoSelect bool
	err        error
}

type agentsLoadedMsg struct {
	err error
}

type missionDoneMsg struct {
	op  string
	err error
}

type deleteDoneMsg struct {
	runID string
	err   error
}

func newModel(ctx context.Context, ctrl *mission.Controller, opts Options) model {
	if ctx == nil {
		ctx = context.Background()
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	prompt := textarea.New()
	prompt.Placeholder = promptPlaceholder
	prompt.ShowLineNumbers = false
	prompt.CharLimit = 4000
	prompt.SetHeight(2)
	prompt.KeyMap.InsertNewline = key.NewBinding(key.WithKeys("alt+enter", "ctrl+j"))

	sp := spinner.New()
	sp.Spinner = spinner.Points
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("#05ffa1"))

	stream := viewport.New(0, 0)
	stream.MouseWheelEnabled = true
	stream.MouseWheelDelta = 4
	history := viewport.New(0, 0)
	dossier := viewport.New(0, 0)
	dossier.MouseWheelEnabled = true

	m := model{
		ctx:            ctx,
		ctrl:           ctrl,
		logger:         logger,
		backendURL:     opts.BackendURL,
		state:          ctrl.Snapshot(),
		statusLine:     "connecting to mission control...",
		logs:           []string{},
		activeTab:      tabMission,
		launcherActive: opts.Launcher,
		launcherItems: []string{
			"Start Mission",
			"Open Mission Log",
			"Open Swarm Intelligence",
			"Open Help",
			"Quit",
		},
		prompt:  prompt,
		stream:  stream,
		history: history,
		dossier: dossier,
		spinner: sp,
		theme:   newTheme(),
	}
	m.applyFocus()
	return m
}

func (m model) Init() tea.Cmd {
	return tea.Batch(
		m.spinner.Tick,
		textarea.Blink,
		m.fetchHistoryCmd(true),
		m.fetchAgentsCmd(),
	)
}

func (m model) fetchHistoryCmd(autoSelect bool) tea.Cmd {
	ctx, ctrl := m.ctx, m.ctrl
	return func() tea.Msg {
		return historyLoadedMsg{autoSelect: autoSelect, err: ctrl.FetchHistory(ctx, autoSelect)}
	}
}

func (m model) fetchAgentsCmd() tea.Cmd {
	ctx, ctrl := m.ctx, m.ctrl
	return func() tea.Msg {
		return agentsLoadedMsg{err: ctrl.FetchAgents(ctx)}
	}
}

func (m model) startCmd(customPrompt string) tea.Cmd {
	ctx, ctrl := m.ctx, m.ctrl
	return func() tea.Msg {
		return missionDoneMsg{op: "start", err: ctrl.StartMission(ctx, customPrompt)}
	}
}

func (m model) continueCmd() tea.Cmd {
	ctx, ctrl := m.ctx, m.ctrl
	return func() tea.Msg {
		return missionDoneMsg{op: "continue", err: ctrl.ContinueMission(ctx)}
	}
}

func (m model) rerunCmd() tea.Cmd {
	ctx, ctrl := m.ctx, m.ctrl
	return func() tea.Msg {
		return missionDoneMsg{op: "rerun", err: ctrl.Rerun(ctx)}
	}
}

func (m model) deleteCmd(runID string) tea.Cmd {
	ctx, ctrl := m.ctx, m.ctrl
	return func() tea.Msg {
		return deleteDoneMsg{runID: runID, err: ctrl.DeleteHistory(ctx, runID)}
	}
}

// sync pulls a fresh snapshot from the controller and redraws.
func (m *model) sync() {
	m.state = m.ctrl.Snapshot()
	m.historyCursor = clamp(m.historyCursor, 0, max(0, len(m.state.History)-1))
	m.swarmCursor = clamp(m.swarmCursor, 0, max(0, len(m.state.Agents)-1))
	if m.state.View() == mission.ViewClarification {
		m.ensureForm()
	} else {
		m.formRunID = ""
		m.formFields = nil
		m.formFocus = 0
	}
	if m.state.View() == mission.ViewInput && strings.TrimSpace(m.prompt.Value()) == "" && m.state.Prompt != "" {
		m.prompt.SetValue(m.state.Prompt)
	}
	m.applyFocus()
	m.renderPanes()
}

// ensureForm builds one input per missing variable, once per result.
func (m *model) ensureForm() {
	res := m.state.Result
	vars := m.state.MissingVars()
	if m.formFields != nil && m.formRunID == res.RunID && len(m.formFields) == len(vars) {
		return
	}
	fields := make([]formField, 0, len(vars))
	for _, spec := range vars {
		in := textinput.New()
		in.Prompt = "❯ "
		in.CharLimit = 64
		in.Width = 32
		if def := spec.DefaultText(); def != "" {
			in.Placeholder = "e.g. " + def
		}
		if value, ok := m.state.FormInputs[spec.Name]; ok {
			in.SetValue(value)
		}
		fields = append(fields, formField{spec: spec, input: in})
	}
	m.formRunID = res.RunID
	m.formFields = fields
	m.formFocus = 0
}

// applyFocus keeps exactly one text control focused, and only when it is on screen.
func (m *model) applyFocus() {
	onMission := !m.launcherActive && m.activeTab == tabMission && !m.quitConfirm && m.deleteConfirm == ""
	view := m.state.View()
	if onMission && view == mission.ViewInput {
		m.prompt.Focus()
	} else {
		m.prompt.Blur()
	}
	for i := range m.formFields {
		if onMission && view == mission.ViewClarification && i == m.formFocus {
			m.formFields[i].input.Focus()
		} else {
			m.formFields[i].input.Blur()
		}
	}
}

func (m *model) selectedAgent() *runs.AgentProfile {
	for i := range m.state.Agents {
		if m.state.Agents[i].ID == m.selectedAgentID {
			return &m.state.Agents[i]
		}
	}
	return nil
}

func (m *model) appendLog(line string) {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" {
		return
	}
	m.logs = append(m.logs, fmt.Sprintf("%s %s", time.Now().Format("15:04:05"), compactSingleLine(trimmed, 220)))
	if len(m.logs) > 50 {
		m.logs = m.logs[len(m.logs)-50:]
	}
}

func (m *model) logError(err error) {
	if err == nil {
		return
	}
	m.appendLog("error: " + err.Error())
	m.statusLine = "error: " + compactSingleLine(err.Error(), 160)
}

func (m *model) beginQuitConfirm() {
	m.quitConfirm = true
	m.statusLine = "ARE YOU SURE YOU WANT TO QUIT?"
	m.applyFocus()
}

// Run starts the program and blocks until the user quits or ctx ends.
func Run(ctx context.Context, ctrl *mission.Controller, opts Options) error {
	programOpts := []tea.ProgramOption{tea.WithContext(ctx), tea.WithMouseCellMotion()}
	if opts.AltScreen {
		programOpts = append(programOpts, tea.WithAltScreen())
	}
	p := tea.NewProgram(newModel(ctx, ctrl, opts), programOpts...)
	_, err := p.Run()
	return err
}
