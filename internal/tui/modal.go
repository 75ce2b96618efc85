package tui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"stopro/roster/internal/roster"
	"stopro/roster/internal/tui/styles"
)

const modalWidth = 56

// confirmModal is the destructive-action dialog. It opens on the cancel
// button; only y, or enter on the action button, confirms.
type confirmModal struct {
	prompt     roster.Prompt
	reply      chan<- bool
	confirmIdx int // 0 = action, 1 = cancel
	answered   bool
	confirmed  bool
}

func newConfirmModal(p roster.Prompt, reply chan<- bool) *confirmModal {
	return &confirmModal{prompt: p, reply: reply, confirmIdx: 1}
}

// update handles a key and reports whether the modal is done.
func (m *confirmModal) update(msg tea.KeyMsg) bool {
	switch msg.String() {
	case "left", "h":
		if m.confirmIdx > 0 {
			m.confirmIdx--
		}
	case "right", "l", "tab":
		if m.confirmIdx < 1 {
			m.confirmIdx++
		}
	case "enter":
		m.answer(m.confirmIdx == 0)
	case "y":
		m.answer(true)
	case "n", "esc", "q", "ctrl+c":
		m.answer(false)
	}
	return m.answered
}

func (m *confirmModal) answer(ok bool) {
	if m.answered {
		return
	}
	m.answered = true
	m.confirmed = ok
	if m.reply != nil {
		m.reply <- ok
	}
}

// dismiss answers "no" if the modal is discarded unanswered.
func (m *confirmModal) dismiss() { m.answer(false) }

func (m *confirmModal) view(width, height int) string {
	affirmative := "  " + m.prompt.Affirmative + "  "
	negative := "  " + m.prompt.Negative + "  "
	if m.confirmIdx == 0 {
		affirmative = styles.ButtonDanger.Render(affirmative)
		negative = styles.MutedText.Render(negative)
	} else {
		affirmative = styles.MutedText.Render(affirmative)
		negative = styles.ButtonNeutral.Render(negative)
	}

	parts := []string{styles.Title.Render(m.prompt.Title)}
	if m.prompt.Description != "" {
		parts = append(parts, "", styles.Value.Width(modalWidth-6).Render(m.prompt.Description))
	}
	parts = append(parts, "", lipgloss.JoinHorizontal(lipgloss.Center, affirmative, "  ", negative))

	card := styles.Modal.Width(modalWidth).Render(lipgloss.JoinVertical(lipgloss.Center, parts...))
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, card)
}
