package tui

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

type loginMsg struct{ err error }

type loginForm struct {
	user, pass textinput.Model
	focused    int
	busy       bool
	err        string
}

func newLoginForm() loginForm {
	user := textinput.New()
	user.Prompt = "username > "
	user.Placeholder = "you@example.com"
	user.CharLimit = 254

	pass := textinput.New()
	pass.Prompt = "password > "
	pass.EchoMode = textinput.EchoPassword
	pass.EchoCharacter = '•'
	pass.CharLimit = 128

	f := loginForm{user: user, pass: pass}
	f.focus()
	return f
}

func (f *loginForm) focus() tea.Cmd {
	if f.focused == 0 {
		f.pass.Blur()
		return f.user.Focus()
	}
	f.user.Blur()
	return f.pass.Focus()
}

func (f *loginForm) reset(reason string) tea.Cmd {
	f.pass.SetValue("")
	f.focused = 0
	f.busy = false
	f.err = reason
	return f.focus()
}

func (m Model) updateLogin(msg tea.Msg) (tea.Model, tea.Cmd) {
	f := &m.login
	if km, ok := msg.(tea.KeyMsg); ok {
		switch km.String() {
		case "ctrl+c", "esc":
			return m, tea.Quit
		case "tab", "shift+tab", "up", "down":
			f.focused = 1 - f.focused
			return m, f.focus()
		case "enter":
			if f.focused == 0 {
				f.focused = 1
				return m, f.focus()
			}
			if f.busy {
				return m, nil
			}
			user, pass := strings.TrimSpace(f.user.Value()), f.pass.Value()
			f.busy, f.err = true, ""
			return m, m.submitLogin(user, pass)
		}
	}
	var cmd tea.Cmd
	if f.focused == 0 {
		f.user, cmd = f.user.Update(msg)
	} else {
		f.pass, cmd = f.pass.Update(msg)
	}
	return m, cmd
}

func (m Model) submitLogin(user, pass string) tea.Cmd {
	d := m.deps
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), d.Timeout)
		defer cancel()
		token, err := d.Auth.Login(ctx, user, pass)
		if err != nil {
			return loginMsg{err: err}
		}
		return loginMsg{err: d.Session.Login(token)}
	}
}

func (m Model) loginView() string {
	f := m.login
	lines := []string{
		titleStyle.Render("carrot") + "  " + mutedStyle.Render("log in to sync your todos"),
		"",
		f.user.View(),
		f.pass.View(),
		"",
	}
	switch {
	case f.busy:
		lines = append(lines, m.spinner.View()+" logging in")
	case f.err != "":
		lines = append(lines, errorStyle.Render("✖ "+f.err))
	default:
		lines = append(lines, helpStyle.Render("tab switch field • enter submit • esc quit"))
	}
	return frameStyle.Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
}
