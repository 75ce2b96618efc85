package tui

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"stopro/roster/internal/roster"
)

func key(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "left":
		return tea.KeyMsg{Type: tea.KeyLeft}
	case "right":
		return tea.KeyMsg{Type: tea.KeyRight}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "ctrl+c":
		return tea.KeyMsg{Type: tea.KeyCtrlC}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

var testPrompt = roster.Prompt{
	Title:       "Удалить ученика?",
	Description: "Иван Петров будет удалён.",
	Affirmative: "Удалить",
	Negative:    "Отмена",
}

func TestConfirmModal_Answers(t *testing.T) {
	tests := []struct {
		name string
		keys []string
		want bool
	}{
		{name: "enter on default cancels", keys: []string{"enter"}, want: false},
		{name: "left then enter confirms", keys: []string{"left", "enter"}, want: true},
		{name: "h then enter confirms", keys: []string{"h", "enter"}, want: true},
		{name: "left right enter cancels", keys: []string{"left", "right", "enter"}, want: false},
		{name: "y confirms", keys: []string{"y"}, want: true},
		{name: "n cancels", keys: []string{"left", "n"}, want: false},
		{name: "esc cancels", keys: []string{"left", "esc"}, want: false},
		{name: "ctrl+c cancels", keys: []string{"ctrl+c"}, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reply := make(chan bool, 1)
			m := newConfirmModal(testPrompt, reply)

			done := false
			for _, k := range tt.keys {
				done = m.update(key(k))
			}
			if !done {
				t.Fatal("expected modal to be answered")
			}
			if got := <-reply; got != tt.want {
				t.Errorf("reply = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestConfirmModal_NavigationDoesNotAnswer(t *testing.T) {
	reply := make(chan bool, 1)
	m := newConfirmModal(testPrompt, reply)

	for _, k := range []string{"left", "right", "tab", "x"} {
		if m.update(key(k)) {
			t.Fatalf("key %q answered the modal", k)
		}
	}
	select {
	case v := <-reply:
		t.Fatalf("unexpected reply %v", v)
	default:
	}
}

func TestConfirmModal_AnswersOnce(t *testing.T) {
	reply := make(chan bool, 1)
	m := newConfirmModal(testPrompt, reply)

	m.update(key("y"))
	m.dismiss()
	m.update(key("n"))

	if got := <-reply; !got {
		t.Error("expected the first answer to win")
	}
	if len(reply) != 0 {
		t.Errorf("expected a single reply, %d more queued", len(reply))
	}
}

func TestConfirmModal_View(t *testing.T) {
	m := newConfirmModal(testPrompt, nil)
	view := m.view(80, 20)

	for _, want := range []string{"Удалить ученика?", "Иван Петров будет удалён.", "Удалить", "Отмена"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q:\n%s", want, view)
		}
	}
}
