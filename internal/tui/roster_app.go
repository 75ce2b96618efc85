package tui

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"stopro/roster/internal/app"
	"stopro/roster/internal/domain"
	"stopro/roster/internal/roster"
	"stopro/roster/internal/tui/components"
	"stopro/roster/internal/tui/styles"
	"stopro/roster/internal/undo"
	"stopro/roster/internal/util"
)

const toastTickInterval = 250 * time.Millisecond

type rosterTab int

const (
	tabStudents rosterTab = iota
	tabGroups
)

var tabLabels = []string{"Ученики", "Группы"}

// --- Messages ---

type rosterLoadedMsg struct{ err error }

// rosterChangedMsg is sent by the service after every view change.
type rosterChangedMsg struct{}

// boardChangedMsg is sent by the notification board.
type boardChangedMsg struct{}

type toastTickMsg time.Time

// actionDoneMsg ends a service call started from the UI. done is the
// status text on success.
type actionDoneMsg struct {
	done string
	err  error
}

// --- Roster app model ---

// rosterAppModel is the full-screen roster: students and groups tabs,
// a confirmation modal for destructive actions and undo toasts. Every
// service and controller call runs as a tea.Cmd; Update never blocks on
// the network or on the controller's notifications.
type rosterAppModel struct {
	ctx     context.Context
	svc     *roster.Service
	ctrl    *undo.Controller
	board   *undo.Board
	account string

	tab      rosterTab
	students []domain.Student
	groups   []domain.Group
	cursor   [2]int
	filter   *domain.Group

	modal *confirmModal

	loading bool
	busy    string
	spinner spinner.Model

	toasts  []undo.Notification
	ticking bool
	now     time.Time

	status  string
	isError bool

	width  int
	height int
}

// RunRosterApp starts the interactive roster. Armed actions still
// pending when the user quits are journaled as torn down.
func RunRosterApp(env *app.Env) error {
	r := &relay{}
	rt := env.Roster(app.RuntimeOptions{
		Gate:     modalGate{relay: r},
		OnNotify: func() { r.Send(boardChangedMsg{}) },
		OnChange: func() { r.Send(rosterChangedMsg{}) },
	})

	ctx, cancel := context.WithCancel(context.Background())
	m := newRosterAppModel(ctx, rt, accountLabel(env))
	p := tea.NewProgram(m, tea.WithAltScreen())
	r.Attach(p)

	_, runErr := p.Run()
	cancel()
	closeErr := rt.Close()
	if runErr != nil {
		return fmt.Errorf("failed to run roster ui: %w", runErr)
	}
	return closeErr
}

func newRosterAppModel(ctx context.Context, rt *app.Runtime, account string) rosterAppModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(styles.Blue)

	return rosterAppModel{
		ctx:     ctx,
		svc:     rt.Service,
		ctrl:    rt.Controller,
		board:   rt.Board,
		account: account,
		loading: true,
		spinner: s,
		now:     time.Now(),
	}
}

func accountLabel(env *app.Env) string {
	s, err := env.Session()
	if err != nil {
		return env.Profile()
	}
	if name := strings.TrimSpace(s.User.FirstName + " " + s.User.LastName); name != "" {
		return name
	}
	if s.User.Email != "" {
		return s.User.Email
	}
	return env.Profile()
}

func (m rosterAppModel) Init() tea.Cmd {
	svc, ctx := m.svc, m.ctx
	return tea.Batch(m.spinner.Tick, func() tea.Msg {
		return rosterLoadedMsg{err: svc.Load(ctx)}
	})
}

func (m rosterAppModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case rosterLoadedMsg:
		m.loading = false
		if msg.err != nil {
			m.setError(msg.err)
		}
		m.sync()
		return m, nil

	case rosterChangedMsg:
		m.sync()
		return m, nil

	case boardChangedMsg:
		m.toasts = m.board.Active()
		m.now = time.Now()
		cmd := m.startTicking()
		return m, cmd

	case toastTickMsg:
		m.now = time.Time(msg)
		m.ticking = false
		cmd := m.startTicking()
		return m, cmd

	case confirmRequestMsg:
		if m.modal != nil {
			msg.reply <- false
			return m, nil
		}
		m.modal = newConfirmModal(msg.prompt, msg.reply)
		return m, nil

	case actionDoneMsg:
		m.busy = ""
		switch {
		case msg.err == nil:
			m.setStatus(msg.done)
		case errors.Is(msg.err, roster.ErrCancelled):
			m.setStatus("Отменено")
		default:
			m.setError(msg.err)
		}
		return m, nil

	case spinner.TickMsg:
		if m.loading || m.busy != "" {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			return m, cmd
		}
		return m, nil
	}

	return m, nil
}

func (m rosterAppModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.modal != nil {
		if m.modal.update(msg) {
			m.modal = nil
		}
		return m, nil
	}

	switch msg.String() {
	case "ctrl+c", "q":
		return m, tea.Quit
	}
	if m.loading {
		return m, nil
	}

	switch msg.String() {
	case "tab", "1", "2":
		switch msg.String() {
		case "1":
			m.tab = tabStudents
		case "2":
			m.tab = tabGroups
		default:
			m.tab = 1 - m.tab
		}
		return m, nil
	case "up", "k":
		if m.cursor[m.tab] > 0 {
			m.cursor[m.tab]--
		}
		return m, nil
	case "down", "j":
		if m.cursor[m.tab] < m.rowCount()-1 {
			m.cursor[m.tab]++
		}
		return m, nil
	case "g":
		m.cursor[m.tab] = 0
		return m, nil
	case "G":
		m.cursor[m.tab] = max(m.rowCount()-1, 0)
		return m, nil
	case "esc":
		if m.filter != nil {
			m.filter = nil
			m.cursor[tabStudents] = 0
		}
		return m, nil
	case "u":
		if n, ok := latestUndoable(m.toasts); ok {
			kind := n.Kind
			return m.run("Действие отменено", func(ctx context.Context) error {
				return m.svc.Undo(ctx, kind)
			})
		}
		return m, nil
	case "r":
		if n, ok := firstRetryable(m.toasts); ok {
			kind := n.Kind
			return m.run("Удаление выполнено", func(ctx context.Context) error {
				return m.svc.RetryFinalize(ctx, kind)
			})
		}
		return m, nil
	case "x":
		if n, ok := firstRetryable(m.toasts); ok {
			ctrl, kind := m.ctrl, n.Kind
			return m, func() tea.Msg {
				ctrl.DismissFailure(kind)
				return nil
			}
		}
		return m, nil
	case "ctrl+r":
		return m.run("Список обновлён", m.svc.Refresh)
	}

	if m.tab == tabStudents {
		return m.handleStudentKey(msg)
	}
	return m.handleGroupKey(msg)
}

func (m rosterAppModel) handleStudentKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	students := m.visibleStudents()
	if len(students) == 0 {
		return m, nil
	}
	st := students[m.cursor[tabStudents]]

	switch msg.String() {
	case "d", "delete":
		return m.run("", func(ctx context.Context) error {
			_, err := m.svc.DeleteStudent(ctx, st.ID)
			return err
		})
	case "e":
		if st.GroupID == nil {
			m.setStatus(st.FullName() + " не состоит в группе")
			return m, nil
		}
		return m.run("", func(ctx context.Context) error {
			_, err := m.svc.RemoveFromGroup(ctx, st.ID)
			return err
		})
	}
	return m, nil
}

func (m rosterAppModel) handleGroupKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if len(m.groups) == 0 {
		return m, nil
	}
	g := m.groups[m.cursor[tabGroups]]

	switch msg.String() {
	case "enter":
		m.filter = &g
		m.tab = tabStudents
		m.cursor[tabStudents] = 0
		return m, nil
	case "d", "delete":
		return m.run("", func(ctx context.Context) error {
			_, err := m.svc.DeleteGroup(ctx, g.ID)
			return err
		})
	}
	return m, nil
}

// run starts fn as a command unless another call is in flight.
func (m rosterAppModel) run(done string, fn func(ctx context.Context) error) (tea.Model, tea.Cmd) {
	if m.busy != "" {
		return m, nil
	}
	m.busy = "Выполняется…"
	m.status = ""
	ctx := m.ctx
	return m, tea.Batch(m.spinner.Tick, func() tea.Msg {
		return actionDoneMsg{done: done, err: fn(ctx)}
	})
}

// startTicking schedules the countdown refresh while an undo window is
// visible.
func (m *rosterAppModel) startTicking() tea.Cmd {
	if m.ticking {
		return nil
	}
	if _, ok := latestUndoable(m.toasts); !ok {
		return nil
	}
	m.ticking = true
	return tea.Tick(toastTickInterval, func(t time.Time) tea.Msg { return toastTickMsg(t) })
}

func (m *rosterAppModel) sync() {
	m.students = m.svc.Students()
	m.groups = m.svc.Groups()
	if m.filter != nil {
		if g := domain.FindGroup(m.groups, m.filter.ID); g != nil {
			m.filter = g
		} else {
			m.filter = nil
		}
	}
	m.cursor[tabStudents] = clamp(m.cursor[tabStudents], len(m.visibleStudents()))
	m.cursor[tabGroups] = clamp(m.cursor[tabGroups], len(m.groups))
}

func (m *rosterAppModel) setStatus(s string) {
	m.status = s
	m.isError = false
}

func (m *rosterAppModel) setError(err error) {
	m.status = domain.UserMessage(err)
	m.isError = true
}

func (m rosterAppModel) visibleStudents() []domain.Student {
	if m.filter == nil {
		return m.students
	}
	var out []domain.Student
	for _, s := range m.students {
		if s.InGroup(m.filter.ID) {
			out = append(out, s)
		}
	}
	return out
}

func (m rosterAppModel) rowCount() int {
	if m.tab == tabStudents {
		return len(m.visibleStudents())
	}
	return len(m.groups)
}

func clamp(cursor, n int) int {
	if cursor >= n {
		cursor = n - 1
	}
	return max(cursor, 0)
}

// latestUndoable returns the undoable notification armed last.
func latestUndoable(notes []undo.Notification) (undo.Notification, bool) {
	var best undo.Notification
	found := false
	for _, n := range notes {
		if n.Undoable && (!found || n.Deadline.After(best.Deadline)) {
			best, found = n, true
		}
	}
	return best, found
}

func firstRetryable(notes []undo.Notification) (undo.Notification, bool) {
	for _, n := range notes {
		if n.Retryable {
			return n, true
		}
	}
	return undo.Notification{}, false
}

// toToasts converts notifications for display at now.
func toToasts(notes []undo.Notification, now time.Time) []components.Toast {
	out := make([]components.Toast, 0, len(notes))
	for _, n := range notes {
		t := components.Toast{
			Message:   n.Message,
			Error:     n.Level == undo.LevelError,
			Undoable:  n.Undoable,
			Retryable: n.Retryable,
		}
		if n.Undoable {
			t.Remaining = max(n.Deadline.Sub(now), 0)
		}
		out = append(out, t)
	}
	return out
}

// --- View ---

func (m rosterAppModel) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}

	breadcrumb := strings.ToLower(tabLabels[m.tab])
	if m.tab == tabStudents && m.filter != nil {
		breadcrumb = "группа «" + m.filter.Name + "»"
	}
	header := components.Header(m.width, breadcrumb, m.account)
	footer := components.Footer(m.width, m.bindings())

	var statusLine string
	switch {
	case m.busy != "":
		statusLine = components.StatusLine(m.width, m.spinner.View()+" "+m.busy, false)
	default:
		statusLine = components.StatusLine(m.width, m.status, m.isError)
	}

	contentH := max(m.height-lipgloss.Height(header)-lipgloss.Height(footer)-lipgloss.Height(statusLine), 1)

	var content string
	switch {
	case m.modal != nil:
		content = m.modal.view(m.width, contentH)
	case m.loading:
		content = lipgloss.Place(m.width, contentH, lipgloss.Center, lipgloss.Center,
			styles.MutedText.Render(m.spinner.View()+"  Загрузка списка..."))
	default:
		content = m.renderContent(contentH)
	}

	parts := []string{header, content}
	if statusLine != "" {
		parts = append(parts, statusLine)
	}
	parts = append(parts, footer)
	screen := lipgloss.JoinVertical(lipgloss.Left, parts...)

	if m.modal != nil {
		return screen
	}
	return components.Overlay(screen, components.Toasts(toToasts(m.toasts, m.now), m.width), m.width, m.height)
}

func (m rosterAppModel) bindings() []components.KeyBinding {
	if m.modal != nil {
		return []components.KeyBinding{
			{Key: "y/n", Desc: "подтвердить"},
			{Key: "←/→", Desc: "выбор"},
			{Key: "esc", Desc: "отмена"},
		}
	}

	b := []components.KeyBinding{{Key: "tab", Desc: "вкладка"}, {Key: "j/k", Desc: "навигация"}}
	if m.tab == tabStudents {
		b = append(b, components.KeyBinding{Key: "d", Desc: "удалить"}, components.KeyBinding{Key: "e", Desc: "исключить"})
		if m.filter != nil {
			b = append(b, components.KeyBinding{Key: "esc", Desc: "все ученики"})
		}
	} else {
		b = append(b, components.KeyBinding{Key: "enter", Desc: "состав"}, components.KeyBinding{Key: "d", Desc: "удалить"})
	}
	if _, ok := latestUndoable(m.toasts); ok {
		b = append(b, components.KeyBinding{Key: "u", Desc: "отменить"})
	}
	return append(b, components.KeyBinding{Key: "ctrl+r", Desc: "обновить"}, components.KeyBinding{Key: "q", Desc: "выход"})
}

func (m rosterAppModel) renderContent(height int) string {
	tabs := components.Tabs(tabLabels, int(m.tab))

	var headers []string
	var widths []int
	var rows [][]string
	if m.tab == tabStudents {
		headers, widths = []string{"Ученик", "Группа", "Email"}, []int{30, 18, 28}
		for _, s := range m.visibleStudents() {
			group := s.GroupName
			if group == "" {
				group = "-"
			}
			rows = append(rows, []string{s.FullName(), group, util.OrDash(s.Email)})
		}
	} else {
		headers, widths = []string{"Группа", "Учеников", "Код"}, []int{30, 10, 14}
		for _, g := range m.groups {
			rows = append(rows, []string{g.Name, strconv.Itoa(g.StudentsCount), util.OrDash(g.InviteCode)})
		}
	}

	if len(rows) == 0 {
		empty := "Учеников нет."
		if m.tab == tabGroups {
			empty = "Групп нет."
		}
		body := lipgloss.Place(m.width, max(height-2, 1), lipgloss.Center, lipgloss.Center, styles.MutedText.Render(empty))
		return lipgloss.JoinVertical(lipgloss.Left, "  "+tabs, "", body)
	}

	table := renderTable(headers, widths, rows, m.cursor[m.tab], max(height-4, 3))
	return lipgloss.NewStyle().Height(height).Render(lipgloss.JoinVertical(lipgloss.Left, "  "+tabs, "", table))
}

// renderTable renders a scrolled window of rows around cursor.
func renderTable(headers []string, widths []int, rows [][]string, cursor, maxVisible int) string {
	start := 0
	if cursor >= maxVisible {
		start = cursor - maxVisible + 1
	}
	end := min(start+maxVisible, len(rows))

	line := func(cells []string, style lipgloss.Style) string {
		out := make([]string, len(cells))
		for i, c := range cells {
			if lipgloss.Width(c) > widths[i] {
				c = ansi.Truncate(c, widths[i]-1, "…")
			}
			out[i] = style.Width(widths[i] + 2).Render(c)
		}
		return lipgloss.JoinHorizontal(lipgloss.Top, out...)
	}

	lines := []string{"  " + line(headers, styles.TableHeader)}
	for i := start; i < end; i++ {
		if i == cursor {
			lines = append(lines, styles.AccentText.Render("> ")+line(rows[i], styles.TableSelectedRow))
			continue
		}
		lines = append(lines, "  "+line(rows[i], styles.TableCell))
	}
	return strings.Join(lines, "\n")
}
