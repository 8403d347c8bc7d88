package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"beamdeck/internal/classify"
)

type categoryStyle struct {
	glyph string
	label lipgloss.Style
	badge lipgloss.Style
	body  lipgloss.Style
}

type uiTheme struct {
	root               lipgloss.Style
	header             lipgloss.Style
	tabActive          lipgloss.Style
	tabInactive        lipgloss.Style
	panel              lipgloss.Style
	panelTitle         lipgloss.Style
	footer             lipgloss.Style
	status             lipgloss.Style
	errorStatus        lipgloss.Style
	inputPanel         lipgloss.Style
	helpText           lipgloss.Style
	fieldLabel         lipgloss.Style
	rowSelected        lipgloss.Style
	rowActive          lipgloss.Style
	terminal           lipgloss.Style
	terminalErr        lipgloss.Style
	answer             lipgloss.Style
	link               lipgloss.Style
	categories         map[classify.Category]categoryStyle
	launcherFrame      lipgloss.Style
	launcherFrameAlt   lipgloss.Style
	launcherTitle      lipgloss.Style
	launcherTitlePulse lipgloss.Style
	launcherAccent     lipgloss.Style
	launcherOption     lipgloss.Style
	launcherSelect     lipgloss.Style
	launcherBoot       lipgloss.Style
	launcherReady      lipgloss.Style
	launcherMuted      lipgloss.Style
	launcherScanlineA  lipgloss.Style
	launcherScanlineB  lipgloss.Style
}

func newTheme() uiTheme {
	pink := lipgloss.Color("#ff71ce")
	blue := lipgloss.Color("#01cdfe")
	mint := lipgloss.Color("#05ffa1")
	gold := lipgloss.Color("#ffd166")
	bg := lipgloss.Color("#120924")
	panelBg := lipgloss.Color("#1b0f35")
	text := lipgloss.Color("#f3f3ff")
	muted := lipgloss.Color("#9ca3d8")
	indigo := lipgloss.Color("#8b8cf8")

	return uiTheme{
		root: lipgloss.NewStyle().
			Background(bg).
			Foreground(text).
			Padding(0, 1),
		header: lipgloss.NewStyle().
			Background(panelBg).
			Foreground(text).
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(blue).
			Padding(0, 1),
		tabActive: lipgloss.NewStyle().
			Background(pink).
			Foreground(lipgloss.Color("#22062f")).
			Bold(true).
			Padding(0, 1),
		tabInactive: lipgloss.NewStyle().
			Background(lipgloss.Color("#2a184a")).
			Foreground(muted).
			Padding(0, 1),
		panel: lipgloss.NewStyle().
			Background(panelBg).
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(blue).
			Padding(0, 1),
		panelTitle: lipgloss.NewStyle().
			Foreground(mint).
			Bold(true),
		footer: lipgloss.NewStyle().
			Background(panelBg).
			Foreground(muted).
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(pink).
			Padding(0, 1),
		status:      lipgloss.NewStyle().Foreground(blue).Bold(true),
		errorStatus: lipgloss.NewStyle().Foreground(pink).Bold(true),
		inputPanel: lipgloss.NewStyle().
			Background(panelBg).
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(mint).
			Padding(0, 1),
		helpText:    lipgloss.NewStyle().Foreground(muted),
		fieldLabel:  lipgloss.NewStyle().Foreground(blue),
		rowSelected: lipgloss.NewStyle().Foreground(lipgloss.Color("#22062f")).Background(pink).Bold(true),
		rowActive:   lipgloss.NewStyle().Foreground(mint).Bold(true),
		terminal:    lipgloss.NewStyle().Foreground(mint),
		terminalErr: lipgloss.NewStyle().Foreground(pink),
		answer: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#22062f")).
			Background(mint).
			Bold(true).
			Padding(0, 1),
		link: lipgloss.NewStyle().Foreground(blue).Underline(true),
		categories: map[classify.Category]categoryStyle{
			classify.Reasoning: {
				glyph: "◇",
				label: lipgloss.NewStyle().Foreground(muted).Bold(true),
				badge: lipgloss.NewStyle().Foreground(muted).Background(lipgloss.Color("#2a184a")).Padding(0, 1),
				body:  lipgloss.NewStyle().Foreground(muted).Italic(true),
			},
			classify.Coordination: {
				glyph: "⇄",
				label: lipgloss.NewStyle().Foreground(indigo).Bold(true),
				badge: lipgloss.NewStyle().Foreground(indigo).Background(lipgloss.Color("#221a4f")).Padding(0, 1),
				body:  lipgloss.NewStyle().Foreground(text),
			},
			classify.Action: {
				glyph: "⚡",
				label: lipgloss.NewStyle().Foreground(blue).Bold(true),
				badge: lipgloss.NewStyle().Foreground(blue).Background(lipgloss.Color("#0d2a40")).Padding(0, 1),
				body:  lipgloss.NewStyle().Foreground(text),
			},
		},
		launcherFrame: lipgloss.NewStyle().
			Background(panelBg).
			BorderStyle(lipgloss.ThickBorder()).
			BorderForeground(pink).
			Padding(1, 2),
		launcherFrameAlt: lipgloss.NewStyle().
			Background(panelBg).
			BorderStyle(lipgloss.ThickBorder()).
			BorderForeground(blue).
			Padding(1, 2),
		launcherTitle:      lipgloss.NewStyle().Foreground(blue).Bold(true),
		launcherTitlePulse: lipgloss.NewStyle().Foreground(pink).Bold(true),
		launcherAccent:     lipgloss.NewStyle().Foreground(mint).Bold(true),
		launcherOption:     lipgloss.NewStyle().Foreground(text),
		launcherSelect: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#22062f")).
			Background(pink).
			Bold(true).
			Padding(0, 1),
		launcherBoot:      lipgloss.NewStyle().Foreground(gold).Bold(true),
		launcherReady:     lipgloss.NewStyle().Foreground(mint).Bold(true),
		launcherMuted:     lipgloss.NewStyle().Foreground(muted),
		launcherScanlineA: lipgloss.NewStyle().Background(lipgloss.Color("#150b2d")),
		launcherScanlineB: lipgloss.NewStyle().Background(lipgloss.Color("#311a63")),
	}
}

func (t uiTheme) category(c classify.Category) categoryStyle {
	if style, ok := t.categories[c]; ok {
		return style
	}
	return t.categories[classify.Action]
}

func applyScanlineOverlay(text string, lineA lipgloss.Style, lineB lipgloss.Style) string {
	lines := strings.Split(text, "\n")
	maxWidth := 0
	for _, line := range lines {
		maxWidth = max(maxWidth, lipgloss.Width(line))
	}
	if maxWidth <= 0 {
		return text
	}
	out := make([]string, 0, len(lines))
	for idx, line := range lines {
		padded := line + strings.Repeat(" ", max(0, maxWidth-lipgloss.Width(line)))
		if idx%2 == 0 {
			out = append(out, lineA.Render(padded))
		} else {
			out = append(out, lineB.Render(padded))
		}
	}
	return strings.Join(out, "\n")
}
