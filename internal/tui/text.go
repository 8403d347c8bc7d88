package tui

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/x/ansi"
)

func shortTime(iso string) string {
	parsed, err := parseISO(iso)
	if err != nil {
		return "--:--:--"
	}
	return parsed.Local().Format("15:04:05")
}

func shortDate(iso string) string {
	parsed, err := parseISO(iso)
	if err != nil {
		return "----------"
	}
	return parsed.Format("2006-01-02")
}

// parseISO accepts RFC 3339 and the zone-less timestamps Python's isoformat emits.
func parseISO(value string) (time.Time, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return time.Time{}, errors.New("empty")
	}
	layouts := []string{time.RFC3339Nano, time.RFC3339, "2006-01-02T15:04:05.999999", "2006-01-02T15:04:05"}
	var err error
	for _, layout := range layouts {
		var parsed time.Time
		parsed, err = time.Parse(layout, trimmed)
		if err == nil {
			return parsed, nil
		}
	}
	return time.Time{}, err
}

// wrapText word-wraps text to width display cells. Words wider than a line,
// such as URLs, are hard-broken.
func wrapText(text string, width int) string {
	if width <= 0 {
		return text
	}
	var wrapped []string
	for _, line := range strings.Split(text, "\n") {
		current, currentWidth := "", 0
		for _, word := range strings.Fields(line) {
			for _, piece := range strings.Split(ansi.Hardwrap(word, width, false), "\n") {
				pieceWidth := ansi.StringWidth(piece)
				switch {
				case currentWidth == 0:
					current, currentWidth = piece, pieceWidth
				case currentWidth+1+pieceWidth <= width:
					current += " " + piece
					currentWidth += 1 + pieceWidth
				default:
					wrapped = append(wrapped, current)
					current, currentWidth = piece, pieceWidth
				}
			}
		}
		wrapped = append(wrapped, current)
	}
	return strings.Join(wrapped, "\n")
}

// indent prefixes every line of text.
func indent(text, prefix string) string {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = prefix + line
	}
	return strings.Join(lines, "\n")
}

// truncate cuts text to limit display cells, marking the cut with "...".
func truncate(text string, limit int) string {
	if limit <= 0 {
		return ""
	}
	if ansi.StringWidth(text) <= limit {
		return text
	}
	if limit <= 3 {
		return ansi.Truncate(text, limit, "")
	}
	return ansi.Truncate(text, limit, "...")
}

func compactSingleLine(text string, limit int) string {
	return truncate(strings.Join(strings.Fields(text), " "), limit)
}

// padRight fits text into exactly width display cells.
func padRight(text string, width int) string {
	if width <= 0 {
		return ""
	}
	fitted := ansi.Truncate(text, width, "")
	return fitted + strings.Repeat(" ", width-ansi.StringWidth(fitted))
}

func nullCoalesce(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}

func bulletList(items []string, empty string) string {
	if len(items) == 0 {
		return empty
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		out = append(out, fmt.Sprintf("- %s", item))
	}
	return strings.Join(out, "\n")
}

// numericOnly drops everything a number field cannot hold.
func numericOnly(runes []rune) []rune {
	out := runes[:0:0]
	for _, r := range runes {
		if (r >= '0' && r <= '9') || r == '.' || r == '-' || r == '+' || r == 'e' || r == 'E' {
			out = append(out, r)
		}
	}
	return out
}

func clamp(value, lo, hi int) int {
	return max(lo, min(value, hi))
}
