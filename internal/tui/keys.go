package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Toggle, Add, Edit, Delete key.Binding
	Prev, Next, JumpBack, Jump key.Binding
	View, Reload, Quit        key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		Toggle:   key.NewBinding(key.WithKeys(" "), key.WithHelp("space", "toggle")),
		Add:      key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "add")),
		Edit:     key.NewBinding(key.WithKeys("e"), key.WithHelp("e", "edit")),
		Delete:   key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "delete")),
		Prev:     key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("←", "prev day")),
		Next:     key.NewBinding(key.WithKeys("right", "l"), key.WithHelp("→", "next day")),
		JumpBack: key.NewBinding(key.WithKeys("["), key.WithHelp("[", "prev week/month")),
		Jump:     key.NewBinding(key.WithKeys("]"), key.WithHelp("]", "next week/month")),
		View:     key.NewBinding(key.WithKeys("v"), key.WithHelp("v", "week/month")),
		Reload:   key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reload")),
		Quit:     key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

func (k keyMap) short() []key.Binding {
	return []key.Binding{k.Add, k.Edit, k.Delete, k.Prev, k.Next, k.View, k.Reload}
}

func (k keyMap) full() []key.Binding {
	return []key.Binding{k.Toggle, k.Add, k.Edit, k.Delete, k.Prev, k.Next, k.JumpBack, k.Jump, k.View, k.Reload, k.Quit}
}
