package tui

import (
	"errors"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"stopro/roster/internal/services/auth"
	"stopro/roster/internal/tui/components"
	"stopro/roster/internal/tui/styles"
)

// StatusRow is one line of the auth status card.
type StatusRow struct {
	Label string
	Value string
	OK    bool
	Warn  bool
}

type authStatusModel struct {
	profile string
	rows    []StatusRow

	width  int
	height int
}

// RunAuthStatus starts the full-window auth status TUI for profile.
func RunAuthStatus(store auth.Store, profile string) error {
	m := authStatusModel{
		profile: profile,
		rows:    AuthStatusRows(store, profile, time.Now()),
	}

	p := tea.NewProgram(m, tea.WithAltScreen())
	_, err := p.Run()
	return err
}

// AuthStatusRows describes the session stored for profile as label/value
// pairs. The plain-text status command prints the same rows.
func AuthStatusRows(store auth.Store, profile string, now time.Time) []StatusRow {
	rows := []StatusRow{{Label: "Профиль", Value: profile, OK: true}}

	sess, err := auth.LoadSession(store, profile)
	switch {
	case errors.Is(err, auth.ErrTokenNotFound):
		return append(rows, StatusRow{Label: "Статус", Value: "не выполнен вход"})
	case err != nil:
		return append(rows, StatusRow{Label: "Статус", Value: fmt.Sprintf("ошибка: %v", err)})
	}

	if sess.User.Email != "" {
		name := strings.TrimSpace(sess.User.FirstName + " " + sess.User.LastName)
		account := sess.User.Email
		if name != "" {
			account = name + " <" + sess.User.Email + ">"
		}
		rows = append(rows, StatusRow{Label: "Пользователь", Value: account, OK: true})
	}

	info, err := auth.InspectToken(sess.AccessToken)
	if err != nil {
		// Opaque tokens carry nothing to show; the server still decides.
		return append(rows, StatusRow{Label: "Статус", Value: "вход выполнен", OK: true})
	}

	role := info.Role
	if role == "" {
		role = string(sess.User.Role)
	}
	if role != "" {
		rows = append(rows, StatusRow{Label: "Роль", Value: role, OK: true})
	}

	switch {
	case info.ExpiresAt.IsZero():
		rows = append(rows, StatusRow{Label: "Статус", Value: "вход выполнен", OK: true})
	case info.Expired(now):
		rows = append(rows, StatusRow{Label: "Статус", Value: "сессия истекла " + info.ExpiresAt.Local().Format("02.01.2006 15:04"), Warn: true})
	default:
		rows = append(rows, StatusRow{Label: "Статус", Value: "вход выполнен", OK: true})
		rows = append(rows, StatusRow{Label: "Действует до", Value: info.ExpiresAt.Local().Format("02.01.2006 15:04"), OK: true})
	}
	return rows
}

func (m authStatusModel) Init() tea.Cmd {
	return nil
}

func (m authStatusModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q", "esc":
			return m, tea.Quit
		}
	}

	return m, nil
}

func (m authStatusModel) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}

	header := components.Header(m.width, "auth status", "")
	footer := components.Footer(m.width, []components.KeyBinding{{Key: "q", Desc: "выход"}})

	contentH := m.height - lipgloss.Height(header) - lipgloss.Height(footer)
	if contentH < 1 {
		contentH = 1
	}

	return lipgloss.JoinVertical(lipgloss.Left, header, m.renderContent(contentH), footer)
}

func (m authStatusModel) renderContent(height int) string {
	labelWidth := 16

	lines := make([]string, 0, len(m.rows))
	for _, r := range m.rows {
		value := styles.MutedText.Render(r.Value)
		switch {
		case r.Warn:
			value = styles.WarningText.Render(r.Value)
		case r.OK:
			value = styles.Value.Render(r.Value)
		}
		lines = append(lines, styles.Label.Width(labelWidth).Render(r.Label)+value)
	}

	card := styles.Card.Width(56).Render(strings.Join(lines, "\n"))
	combined := lipgloss.JoinVertical(lipgloss.Center, styles.Title.Render("Авторизация"), "", card)

	return lipgloss.Place(m.width, height, lipgloss.Center, lipgloss.Center, combined)
}
