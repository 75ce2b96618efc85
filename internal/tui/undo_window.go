package tui

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"stopro/roster/internal/domain"
	"stopro/roster/internal/roster"
	"stopro/roster/internal/tui/components"
	"stopro/roster/internal/tui/styles"
	"stopro/roster/internal/undo"
)

// --- Messages ---

type windowTickMsg time.Time

type windowClosedMsg struct {
	state undo.State
	err   error
}

type windowUndoMsg struct{ err error }

type windowCommitMsg struct{ err error }

// --- Undo window model ---

// undoWindowModel is the inline countdown shown by CLI commands after a
// destructive action: u undoes, enter (or leaving) commits now.
type undoWindowModel struct {
	ctx    context.Context
	svc    *roster.Service
	action undo.PendingAction

	now     time.Time
	busy    bool
	spinner spinner.Model

	undoErr error
	state   undo.State
	err     error
}

// RunUndoWindow keeps the command alive for the grace window of pa and
// returns the state the action ended in. With interactive false it waits
// silently.
func RunUndoWindow(ctx context.Context, svc *roster.Service, pa undo.PendingAction, out io.Writer, interactive bool) (undo.State, error) {
	if !interactive {
		return svc.Controller().Wait(ctx, pa.ID)
	}

	p := tea.NewProgram(newUndoWindowModel(ctx, svc, pa), tea.WithOutput(out), tea.WithContext(ctx))
	result, err := p.Run()
	if err != nil {
		return "", fmt.Errorf("failed to run undo window: %w", err)
	}
	final := result.(undoWindowModel)
	return final.state, final.err
}

func newUndoWindowModel(ctx context.Context, svc *roster.Service, pa undo.PendingAction) undoWindowModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(styles.Blue)
	return undoWindowModel{ctx: ctx, svc: svc, action: pa, now: time.Now(), spinner: s}
}

func (m undoWindowModel) Init() tea.Cmd {
	ctrl, ctx, id := m.svc.Controller(), m.ctx, m.action.ID
	return tea.Batch(windowTick(), func() tea.Msg {
		state, err := ctrl.Wait(ctx, id)
		return windowClosedMsg{state: state, err: err}
	})
}

func windowTick() tea.Cmd {
	return tea.Tick(toastTickInterval, func(t time.Time) tea.Msg { return windowTickMsg(t) })
}

func (m undoWindowModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case windowTickMsg:
		m.now = time.Time(msg)
		return m, windowTick()

	case windowClosedMsg:
		m.state, m.err = msg.state, msg.err
		return m, tea.Quit

	case windowUndoMsg:
		m.busy = false
		m.undoErr = msg.err
		return m, nil

	case windowCommitMsg:
		if msg.err != nil {
			m.busy = false
			m.undoErr = msg.err
		}
		return m, nil

	case tea.KeyMsg:
		if m.busy {
			return m, nil
		}
		switch msg.String() {
		case "u":
			m.busy = true
			m.undoErr = nil
			svc, ctx, kind := m.svc, m.ctx, m.action.Kind
			return m, tea.Batch(m.spinner.Tick, func() tea.Msg {
				return windowUndoMsg{err: svc.Undo(ctx, kind)}
			})
		case "enter", "q", "esc", "ctrl+c":
			m.busy = true
			ctrl, kind := m.svc.Controller(), m.action.Kind
			return m, tea.Batch(m.spinner.Tick, func() tea.Msg {
				return windowCommitMsg{err: ctrl.Commit(kind)}
			})
		}
		return m, nil

	case spinner.TickMsg:
		if m.busy {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			return m, cmd
		}
	}
	return m, nil
}

func (m undoWindowModel) View() string {
	if m.state != "" || m.err != nil {
		return ""
	}

	line := styles.SuccessText.Render("✓ ") + styles.Value.Render(m.action.Message)
	if m.busy {
		line += "  " + m.spinner.View()
	} else {
		hint := components.ToastHint(components.Toast{Undoable: true, Remaining: m.action.Remaining(m.now)})
		line += "   " + styles.KeyDescStyle.Render(hint+"   enter  сейчас")
	}
	if m.undoErr != nil {
		line += "\n" + styles.ErrorText.Render("Не удалось отменить: "+domain.UserMessage(m.undoErr))
	}
	return line + "\n"
}
