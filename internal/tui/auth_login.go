package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"stopro/roster/internal/domain"
	"stopro/roster/internal/tui/components"
	"stopro/roster/internal/tui/styles"
)

// SignInFunc exchanges credentials for a stored session.
type SignInFunc func(ctx context.Context, email, password string) (*domain.Session, error)

// --- Messages ---

type signedInMsg struct{ session *domain.Session }

type signInErrorMsg struct{ err error }

// --- Auth login model ---

const (
	fieldEmail = iota
	fieldPassword
)

type authLoginModel struct {
	profile string
	signIn  SignInFunc

	inputs  []textinput.Model
	focused int

	busy    bool
	spinner spinner.Model

	width  int
	height int

	err      error
	session  *domain.Session
	quitting bool
}

// RunAuthLogin starts the interactive sign-in form. It returns a nil
// session when the user leaves without signing in.
func RunAuthLogin(profile, email string, signIn SignInFunc) (*domain.Session, error) {
	p := tea.NewProgram(newAuthLoginModel(profile, email, signIn), tea.WithAltScreen())
	result, err := p.Run()
	if err != nil {
		return nil, fmt.Errorf("failed to run auth login: %w", err)
	}
	return result.(authLoginModel).session, nil
}

func newAuthLoginModel(profile, email string, signIn SignInFunc) authLoginModel {
	emailInput := textinput.New()
	emailInput.Placeholder = "teacher@school.ru"
	emailInput.SetValue(email)
	emailInput.Width = 40

	password := textinput.New()
	password.Placeholder = "пароль"
	password.EchoMode = textinput.EchoPassword
	password.EchoCharacter = '*'
	password.Width = 40

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(styles.Blue)

	m := authLoginModel{
		profile: profile,
		signIn:  signIn,
		inputs:  []textinput.Model{emailInput, password},
		spinner: s,
	}
	if email != "" {
		m.focused = fieldPassword
	}
	m.inputs[m.focused].Focus()
	return m
}

func (m authLoginModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m authLoginModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case signedInMsg:
		m.busy = false
		m.session = msg.session
		return m, tea.Quit

	case signInErrorMsg:
		m.busy = false
		m.err = msg.err
		return m, nil

	case spinner.TickMsg:
		if m.busy {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			return m, cmd
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.inputs[m.focused], cmd = m.inputs[m.focused].Update(msg)
	return m, cmd
}

func (m authLoginModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.busy {
		if msg.String() == "ctrl+c" {
			m.quitting = true
			return m, tea.Quit
		}
		return m, nil
	}

	switch msg.String() {
	case "ctrl+c", "esc":
		m.quitting = true
		return m, tea.Quit
	case "tab", "down", "shift+tab", "up":
		return m.focus(1 - m.focused), textinput.Blink
	case "enter":
		if m.focused == fieldEmail {
			return m.focus(fieldPassword), textinput.Blink
		}
		email := strings.TrimSpace(m.inputs[fieldEmail].Value())
		password := m.inputs[fieldPassword].Value()
		if email == "" || password == "" {
			m.err = fmt.Errorf("введите email и пароль")
			return m, nil
		}
		m.err = nil
		m.busy = true
		signIn := m.signIn
		return m, tea.Batch(m.spinner.Tick, func() tea.Msg {
			s, err := signIn(context.Background(), email, password)
			if err != nil {
				return signInErrorMsg{err: err}
			}
			return signedInMsg{session: s}
		})
	}

	var cmd tea.Cmd
	m.inputs[m.focused], cmd = m.inputs[m.focused].Update(msg)
	m.err = nil
	return m, cmd
}

func (m authLoginModel) focus(i int) authLoginModel {
	m.inputs[m.focused].Blur()
	m.focused = i
	m.inputs[i].Focus()
	return m
}

func (m authLoginModel) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}

	header := components.Header(m.width, "вход", m.profile)
	footer := components.Footer(m.width, []components.KeyBinding{
		{Key: "tab", Desc: "поле"},
		{Key: "enter", Desc: "войти"},
		{Key: "esc", Desc: "отмена"},
	})

	contentH := max(m.height-lipgloss.Height(header)-lipgloss.Height(footer), 1)

	parts := []string{
		styles.Title.Render("Вход для учителя"),
		"",
		styles.Label.Render("Email"),
		m.inputs[fieldEmail].View(),
		"",
		styles.Label.Render("Пароль"),
		m.inputs[fieldPassword].View(),
	}
	switch {
	case m.busy:
		parts = append(parts, "", styles.MutedText.Render(m.spinner.View()+" Вход..."))
	case m.err != nil:
		parts = append(parts, "", styles.ErrorText.Render(domain.UserMessage(m.err)))
	}

	content := lipgloss.Place(m.width, contentH, lipgloss.Center, lipgloss.Center,
		lipgloss.JoinVertical(lipgloss.Left, parts...))
	return lipgloss.JoinVertical(lipgloss.Left, header, content, footer)
}
