package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"stopro/roster/internal/tui/styles"
)

// KeyBinding is one key hint of the footer.
type KeyBinding struct {
	Key  string
	Desc string
}

// Footer renders the key hints. Hints that do not fit are cut off.
func Footer(width int, bindings []KeyBinding) string {
	if width < 10 || len(bindings) == 0 {
		return ""
	}

	parts := make([]string, len(bindings))
	for i, b := range bindings {
		parts[i] = styles.FormatKeyBinding(b.Key, b.Desc)
	}
	content := strings.Join(parts, styles.KeySepStyle.Render("  "))
	if inner := width - 4; lipgloss.Width(content) > inner {
		content = ansi.Truncate(content, inner, "…")
	}

	return lipgloss.NewStyle().
		Width(width).
		Padding(0, 2).
		BorderStyle(lipgloss.Border{Top: "─"}).
		BorderTop(true).
		BorderForeground(styles.DimGray).
		Render(content)
}

// StatusLine renders a one-line message above the footer.
func StatusLine(width int, message string, isError bool) string {
	if message == "" {
		return ""
	}
	style := styles.MutedText
	if isError {
		style = styles.ErrorText
	}
	return lipgloss.NewStyle().
		Width(width).
		Padding(0, 2).
		Render(style.Render(message))
}
