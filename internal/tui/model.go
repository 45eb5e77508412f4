// Package tui is the interactive day view. Bubble Tea's update loop is
// the only place local state changes hands: edits are applied there and
// their requests run as commands whose results come back as messages.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/idilsaglam/carrot/internal/apperr"
	"github.com/idilsaglam/carrot/internal/categories"
	"github.com/idilsaglam/carrot/internal/logging"
	"github.com/idilsaglam/carrot/internal/model"
	"github.com/idilsaglam/carrot/internal/optimistic"
	"github.com/idilsaglam/carrot/internal/prefs"
	"github.com/idilsaglam/carrot/internal/shop"
	"github.com/idilsaglam/carrot/internal/todos"
)

// Session is the part of the token gate the TUI drives.
type Session interface {
	Authenticated() bool
	Login(token string) error
}

// Authenticator exchanges credentials for a token.
type Authenticator interface {
	Login(ctx context.Context, username, password string) (string, error)
}

// Deps are the services the TUI renders and mutates.
type Deps struct {
	Session    Session
	Auth       Authenticator
	Todos      *todos.Service
	Categories *categories.Service
	Wallet     *shop.Wallet
	Prefs      prefs.Store
	Timeout    time.Duration
	Log        *log.Logger
}

type screen int

const (
	loginScreen screen = iota
	dayScreen
)

type inputMode int

const (
	inputNone inputMode = iota
	inputAdd
	inputEdit
)

type (
	loadedMsg struct {
		date model.Date
		err  error
	}
	mutationMsg struct {
		op  string
		err error
	}
	prefsMsg struct {
		mode prefs.ViewMode
		err  error
	}
)

type Model struct {
	deps   Deps
	keys   keyMap
	screen screen
	login  loginForm

	list     list.Model
	input    textinput.Model
	mode     inputMode
	editID   int
	inputErr string

	spinner  spinner.Model
	day      model.Date // requested by the latest load; navigation starts here
	loading  bool
	inflight int
	view     prefs.ViewMode
	status   string // last error, shown under the list

	width, height int
}

func New(deps Deps) Model {
	if deps.Timeout <= 0 {
		deps.Timeout = 10 * time.Second
	}
	if deps.Log == nil {
		deps.Log = logging.Discard()
	}
	deps.Log = deps.Log.WithPrefix("tui")

	p, err := deps.Prefs.Load()
	if err != nil {
		deps.Log.Warn("using default preferences", "err", err)
	}

	keys := newKeyMap()
	l := list.New(nil, itemDelegate{}, 0, 0)
	l.SetShowHelp(true)
	l.SetShowPagination(true)
	l.SetShowStatusBar(true)
	l.SetFilteringEnabled(true)
	l.Styles.Title = titleStyle
	l.Styles.HelpStyle = helpStyle
	l.Styles.PaginationStyle = helpStyle
	l.FilterInput.Prompt = "/ "
	l.SetStatusBarItemName("todo", "todos")
	l.AdditionalShortHelpKeys = keys.short
	l.AdditionalFullHelpKeys = keys.full

	ti := textinput.New()
	ti.Prompt = "> "
	ti.CharLimit = 200

	m := Model{
		deps:    deps,
		keys:    keys,
		login:   newLoginForm(),
		list:    l,
		input:   ti,
		spinner: spinner.New(spinner.WithSpinner(spinner.Dot), spinner.WithStyle(pendingStyle)),
		view:    p.ViewMode,
		day:     deps.Todos.Date(),
		width:   80,
		height:  24,
	}
	if deps.Session.Authenticated() {
		m.screen = dayScreen
		m.loading = true
	}
	m.syncList()
	return m
}

// Run starts the program on the alternate screen.
func Run(deps Deps) error {
	_, err := tea.NewProgram(New(deps), tea.WithAltScreen()).Run()
	return err
}

func (m Model) Init() tea.Cmd {
	if m.screen == loginScreen {
		return tea.Batch(m.spinner.Tick, textinput.Blink)
	}
	return tea.Batch(m.spinner.Tick, m.load(m.day, true))
}

// load fetches the todos of date, and with refs also the categories and
// the wallet shown in the header.
func (m Model) load(date model.Date, refs bool) tea.Cmd {
	d := m.deps
	fetch := d.Todos.BeginLoad(date)
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), d.Timeout)
		defer cancel()
		g, ctx := errgroup.WithContext(ctx)
		g.Go(func() error { return fetch(ctx) })
		if refs {
			g.Go(func() error { return d.Categories.Load(ctx) })
			g.Go(func() error { return d.Wallet.Load(ctx) })
		}
		return loadedMsg{date: date, err: g.Wait()}
	}
}

func (m Model) send(op string, p *optimistic.Pending) tea.Cmd {
	timeout := m.deps.Timeout
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		return mutationMsg{op: op, err: p.Send(ctx)}
	}
}

// apply shows an already applied change and sends its request.
func (m Model) apply(op string, p *optimistic.Pending, err error) (tea.Model, tea.Cmd) {
	if err != nil {
		return m.fail(op, err)
	}
	m.inflight++
	m.status = ""
	m.syncList()
	return m, m.send(op, p)
}

func (m Model) fail(op string, err error) (tea.Model, tea.Cmd) {
	if apperr.IsUnauthorized(err) {
		m.screen = loginScreen
		m.mode = inputNone
		return m, m.login.reset("session expired, log in again")
	}
	m.deps.Log.Debug("failed", "op", op, "err", err)
	m.status = err.Error()
	return m, nil
}

func (m *Model) syncList() {
	date, visible := m.deps.Todos.Day()
	items := make([]list.Item, len(visible))
	for i, td := range visible {
		if m.deps.Categories != nil {
			td.Categories = m.deps.Categories.Colorize(td.Categories)
		}
		items[i] = todoItem{todo: td, pending: td.ID < 0 || m.deps.Todos.Pending(td.ID)}
	}
	m.list.SetItems(items)
	m.list.Title = m.title(date, visible)
}

func (m Model) title(date model.Date, todos []model.Todo) string {
	var done, pending int
	for _, td := range todos {
		if td.Completed {
			done++
		} else {
			pending++
		}
	}
	t := fmt.Sprintf("%s   %s %d  %s %d  %s %d",
		titleStyle.Render(date.Time().Format("Mon 2 Jan 2006")),
		successStyle.Render("✔"), done,
		pendingStyle.Render("•"), pending,
		accentStyle.Render("Total"), done+pending,
	)
	if m.deps.Wallet != nil {
		if w, ok := m.deps.Wallet.Get(); ok {
			t += "   " + accentStyle.Render(fmt.Sprintf("🥕 %d", w.Balance))
		}
	}
	return t
}

func (m Model) selected() (model.Todo, bool) {
	it, ok := m.list.SelectedItem().(todoItem)
	return it.todo, ok
}

// Update and View implement Bubble Tea's Model
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		return m, nil
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case loginMsg:
		if msg.err != nil {
			m.login.busy = false
			m.login.err = msg.err.Error()
			return m, nil
		}
		m.login.reset("")
		m.screen = dayScreen
		m.status = ""
		m.loading = true
		m.day = m.deps.Todos.Date()
		return m, m.load(m.day, true)
	case loadedMsg:
		m.syncList()
		if msg.date != m.day {
			return m, nil
		}
		m.loading = false
		if msg.err != nil {
			m.day = m.deps.Todos.Date()
			return m.fail("load", msg.err)
		}
		return m, nil
	case mutationMsg:
		m.inflight--
		m.syncList()
		if msg.err != nil {
			return m.fail(msg.op, msg.err)
		}
		return m, nil
	case prefsMsg:
		if msg.err != nil {
			m.status = "save preferences: " + msg.err.Error()
			return m, nil
		}
		m.view = msg.mode
		return m, nil
	}

	if m.screen == loginScreen {
		return m.updateLogin(msg)
	}
	if m.mode != inputNone {
		return m.updateInput(msg)
	}
	return m.updateDay(msg)
}

func (m Model) updateDay(msg tea.Msg) (tea.Model, tea.Cmd) {
	km, ok := msg.(tea.KeyMsg)
	if !ok || m.list.FilterState() == list.Filtering {
		var cmd tea.Cmd
		m.list, cmd = m.list.Update(msg)
		return m, cmd
	}
	date := m.day

	switch {
	case key.Matches(km, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(km, m.keys.Toggle):
		if td, ok := m.selected(); ok {
			p, err := m.deps.Todos.BeginToggle(td.ID)
			return m.apply("toggle", p, err)
		}
		return m, nil
	case key.Matches(km, m.keys.Delete):
		if td, ok := m.selected(); ok {
			p, err := m.deps.Todos.BeginDelete(td.ID)
			return m.apply("delete", p, err)
		}
		return m, nil
	case key.Matches(km, m.keys.Add):
		m.mode = inputAdd
		m.inputErr = ""
		m.input.SetValue("")
		m.input.Placeholder = "New todo title..."
		return m, m.input.Focus()
	case key.Matches(km, m.keys.Edit):
		td, ok := m.selected()
		if !ok {
			return m, nil
		}
		m.mode = inputEdit
		m.editID = td.ID
		m.inputErr = ""
		m.input.SetValue(td.Title)
		m.input.CursorEnd()
		m.input.Placeholder = "Edit todo title..."
		return m, m.input.Focus()
	case key.Matches(km, m.keys.Prev):
		return m.goTo(date.AddDays(-1), false)
	case key.Matches(km, m.keys.Next):
		return m.goTo(date.AddDays(1), false)
	case key.Matches(km, m.keys.JumpBack):
		return m.goTo(m.jump(date, -1), false)
	case key.Matches(km, m.keys.Jump):
		return m.goTo(m.jump(date, 1), false)
	case key.Matches(km, m.keys.Reload):
		return m.goTo(date, true)
	case key.Matches(km, m.keys.View):
		next, store := m.view.Toggle(), m.deps.Prefs
		return m, func() tea.Msg {
			_, err := store.SetViewMode(next)
			return prefsMsg{mode: next, err: err}
		}
	}
	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

// jump moves by one unit of the view mode.
func (m Model) jump(date model.Date, dir int) model.Date {
	if m.view == prefs.Month {
		return model.DateOf(date.Time().AddDate(0, dir, 0))
	}
	return date.AddDays(7 * dir)
}

func (m Model) goTo(date model.Date, refs bool) (tea.Model, tea.Cmd) {
	m.day = date
	m.loading = true
	m.status = ""
	return m, m.load(date, refs)
}

func (m *Model) closeInput() {
	m.mode = inputNone
	m.inputErr = ""
	m.input.SetValue("")
	m.input.Blur()
}

func (m Model) updateInput(msg tea.Msg) (tea.Model, tea.Cmd) {
	if km, ok := msg.(tea.KeyMsg); ok {
		switch km.String() {
		case "enter":
			var (
				p   *optimistic.Pending
				err error
				op  = "add"
			)
			if m.mode == inputAdd {
				p, err = m.deps.Todos.BeginCreate(m.input.Value(), nil)
			} else {
				op = "edit"
				p, err = m.deps.Todos.BeginRename(m.editID, m.input.Value())
			}
			if apperr.IsValidation(err) {
				m.inputErr = err.Error()
				return m, nil
			}
			m.closeInput()
			return m.apply(op, p, err)
		case "esc":
			m.closeInput()
			return m, nil
		}
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) View() string {
	if m.screen == loginScreen {
		return m.loginView()
	}
	footer := []string{mutedStyle.Render(string(m.view) + " view")}
	if m.loading || m.inflight > 0 {
		footer[0] += "  " + m.spinner.View() + mutedStyle.Render(" syncing")
	}
	if m.status != "" {
		footer = append(footer, errorStyle.Render("✖ "+m.status))
	}

	listHeight := m.height - 4 - len(footer)
	if m.mode != inputNone {
		listHeight -= 3
	}
	m.list.SetSize(m.width-4, max(listHeight, 3))

	content := m.list.View()
	if m.mode != inputNone {
		title := "Add todo"
		if m.mode == inputEdit {
			title = "Edit todo"
		}
		if m.inputErr != "" {
			title += "  " + errorStyle.Render(m.inputErr)
		}
		content += "\n" + frameStyle.Render(title+"\n"+m.input.View())
	}
	content += "\n" + strings.Join(footer, "\n")
	return frameStyle.Render(content)
}
