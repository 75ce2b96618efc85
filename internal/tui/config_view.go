package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"stopro/roster/internal/config"
	"stopro/roster/internal/tui/components"
	"stopro/roster/internal/tui/styles"
)

type configSavedMsg struct{ key string }

type configSaveErrorMsg struct{ err error }

type configViewModel struct {
	cfg  *config.Config
	keys []config.KeySpec
	save func(*config.Config) error

	cursor  int
	editing bool
	editor  textinput.Model

	width  int
	height int

	status  string
	isError bool
}

// RunConfigView starts the interactive config editor.
func RunConfigView() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	p := tea.NewProgram(newConfigViewModel(cfg), tea.WithAltScreen())
	_, err = p.Run()
	return err
}

func newConfigViewModel(cfg *config.Config) configViewModel {
	return configViewModel{
		cfg:  cfg,
		keys: config.Keys,
		save: func(c *config.Config) error { return c.Save() },
	}
}

func (m configViewModel) Init() tea.Cmd {
	return nil
}

func (m configViewModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		if m.editing {
			return m.handleEditKey(msg)
		}
		return m.handleKey(msg)

	case configSavedMsg:
		m.editing = false
		m.status = fmt.Sprintf("%s сохранён", msg.key)
		m.isError = false
		return m, nil

	case configSaveErrorMsg:
		m.status = msg.err.Error()
		m.isError = true
		return m, nil
	}

	if m.editing {
		var cmd tea.Cmd
		m.editor, cmd = m.editor.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m configViewModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "q", "esc":
		return m, tea.Quit
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.keys)-1 {
			m.cursor++
		}
	case "enter", "e":
		if len(m.keys) == 0 {
			return m, nil
		}
		spec := m.keys[m.cursor]
		ti := textinput.New()
		ti.SetValue(spec.Get(m.cfg))
		ti.Focus()
		ti.Width = 40
		ti.Placeholder = "значение"
		m.editor = ti
		m.editing = true
		m.status = ""
		return m, textinput.Blink
	}
	return m, nil
}

func (m configViewModel) handleEditKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.editing = false
		return m, nil
	case "enter":
		value := strings.TrimSpace(m.editor.Value())
		spec := m.keys[m.cursor]
		if spec.Validate != nil && value != "" {
			if err := spec.Validate(value); err != nil {
				m.status = fmt.Sprintf("%s: %v", spec.Name, err)
				m.isError = true
				return m, nil
			}
		}
		spec.Set(m.cfg, value)
		cfg, save := m.cfg, m.save
		return m, func() tea.Msg {
			if err := save(cfg); err != nil {
				return configSaveErrorMsg{err: err}
			}
			return configSavedMsg{key: spec.Name}
		}
	}

	var cmd tea.Cmd
	m.editor, cmd = m.editor.Update(msg)
	return m, cmd
}

func (m configViewModel) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}

	header := components.Header(m.width, "config", "")

	bindings := []components.KeyBinding{
		{Key: "j/k", Desc: "выбор"},
		{Key: "e", Desc: "изменить"},
		{Key: "q", Desc: "выход"},
	}
	if m.editing {
		bindings = []components.KeyBinding{
			{Key: "enter", Desc: "сохранить"},
			{Key: "esc", Desc: "отмена"},
		}
	}
	footer := components.Footer(m.width, bindings)

	sections := []string{header}
	status := ""
	if m.status != "" {
		status = components.StatusLine(m.width, m.status, m.isError)
	}

	contentH := m.height - lipgloss.Height(header) - lipgloss.Height(footer) - lipgloss.Height(status)
	if contentH < 1 {
		contentH = 1
	}
	sections = append(sections, m.renderContent(contentH))
	if status != "" {
		sections = append(sections, status)
	}
	sections = append(sections, footer)

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m configViewModel) renderContent(height int) string {
	labelWidth := 16

	rows := make([]string, 0, len(m.keys)+1)
	for i, spec := range m.keys {
		selected := i == m.cursor

		value := spec.Get(m.cfg)
		if value == "" {
			value = "(по умолчанию)"
		}

		var row string
		switch {
		case selected && m.editing:
			row = styles.AccentText.Render("> ") + styles.Label.Width(labelWidth).Render(spec.Name) + m.editor.View()
		case selected:
			row = styles.AccentText.Render("> ") + styles.Label.Width(labelWidth).Render(spec.Name) + styles.Value.Bold(true).Render(value)
		default:
			row = "  " + styles.MutedText.Width(labelWidth).Render(spec.Name) + styles.MutedText.Render(value)
		}
		rows = append(rows, row)

		if selected && !m.editing {
			rows = append(rows, "    "+styles.MutedText.Italic(true).Render(spec.Description))
		}
	}

	card := styles.Card.Width(64).Render(strings.Join(rows, "\n"))
	combined := lipgloss.JoinVertical(lipgloss.Center, styles.Title.Render("Настройки"), "", card)

	return lipgloss.Place(m.width, height, lipgloss.Center, lipgloss.Center, combined)
}
