package components

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"stopro/roster/internal/tui/styles"
)

const (
	toastMaxWidth = 52
	toastMinWidth = 24
)

// Toast is one notification as displayed.
type Toast struct {
	Message   string
	Error     bool
	Undoable  bool
	Remaining time.Duration
	Retryable bool
}

// ToastHint is the affordance line of t, e.g. "u  отменить (4с)".
func ToastHint(t Toast) string {
	switch {
	case t.Undoable:
		secs := int(math.Ceil(t.Remaining.Seconds()))
		return fmt.Sprintf("u  отменить (%dс)", max(secs, 0))
	case t.Retryable:
		return "r  повторить   x  скрыть"
	}
	return ""
}

// Toasts renders notifications as a stack of cards, errors first as
// given. It returns "" when there is nothing to show or no room.
func Toasts(toasts []Toast, width int) string {
	if len(toasts) == 0 || width < toastMinWidth+4 {
		return ""
	}

	cardWidth := min(toastMaxWidth, width-4)
	textWidth := cardWidth - 4

	cards := make([]string, 0, len(toasts))
	for _, t := range toasts {
		msg := t.Message
		if lipgloss.Width(msg) > textWidth {
			msg = ansi.Truncate(msg, textWidth-1, "…")
		}

		style, text := styles.ToastInfo, styles.Value
		if t.Error {
			style, text = styles.ToastError, styles.ErrorText
		}

		body := text.Render(msg)
		if hint := ToastHint(t); hint != "" {
			body += "\n" + styles.KeyDescStyle.Render(hint)
		}
		cards = append(cards, style.Width(cardWidth).Render(body))
	}
	return lipgloss.JoinVertical(lipgloss.Right, cards...)
}

// Overlay composites panel onto the bottom-right corner of base, a full
// screen render of width x height, leaving the footer rows free.
func Overlay(base, panel string, width, height int) string {
	if panel == "" {
		return base
	}

	baseLines := strings.Split(base, "\n")
	for len(baseLines) < height {
		baseLines = append(baseLines, strings.Repeat(" ", width))
	}
	panelLines := strings.Split(panel, "\n")

	panelW := 0
	for _, l := range panelLines {
		panelW = max(panelW, lipgloss.Width(l))
	}

	startRow := max(height-len(panelLines)-2, 1)
	startCol := max(width-panelW-1, 0)

	for i, line := range panelLines {
		row := startRow + i
		if row >= len(baseLines) {
			break
		}
		left := ansi.Truncate(baseLines[row], startCol, "")
		if w := lipgloss.Width(left); w < startCol {
			left += strings.Repeat(" ", startCol-w)
		}
		pad := max(width-startCol-lipgloss.Width(line), 0)
		baseLines[row] = left + line + strings.Repeat(" ", pad)
	}
	return strings.Join(baseLines, "\n")
}
