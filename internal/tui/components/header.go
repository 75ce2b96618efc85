// Package components holds render-only building blocks shared by the
// roster TUI models.
package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"stopro/roster/internal/tui/styles"
)

// Header renders the top bar.
//
//	roster > группы                    teacher@school.ru
func Header(width int, breadcrumb, account string) string {
	if width < 10 {
		return ""
	}

	left := styles.Title.Foreground(styles.Blue).Render("roster")
	if breadcrumb != "" {
		left += styles.MutedText.Render(" > ") + styles.Title.Render(breadcrumb)
	}

	right := ""
	if account != "" {
		right = styles.Subtitle.Render(account)
	}

	gap := max(width-4-lipgloss.Width(left)-lipgloss.Width(right), 1)

	return lipgloss.NewStyle().
		Width(width).
		Padding(0, 2).
		BorderStyle(lipgloss.Border{Bottom: "─"}).
		BorderBottom(true).
		BorderForeground(styles.DimGray).
		Render(left + strings.Repeat(" ", gap) + right)
}

// Tabs renders a tab strip with the active tab highlighted.
func Tabs(labels []string, active int) string {
	parts := make([]string, len(labels))
	for i, l := range labels {
		if i == active {
			parts[i] = styles.TabActive.Render(l)
		} else {
			parts[i] = styles.TabInactive.Render(l)
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, parts...)
}
