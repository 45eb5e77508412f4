package tui

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/idilsaglam/carrot/internal/model"
)

// todoItem adapts a todo to bubbles/list.Item
type todoItem struct {
	todo    model.Todo
	pending bool // awaiting the server
}

func (i todoItem) FilterValue() string { return i.todo.Title }

// Custom delegate to control how items render (single line)
type itemDelegate struct{}

func (d itemDelegate) Height() int                               { return 1 }
func (d itemDelegate) Spacing() int                              { return 0 }
func (d itemDelegate) Update(msg tea.Msg, m *list.Model) tea.Cmd { return nil }
func (d itemDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	it, _ := item.(todoItem)

	box, text := mutedStyle.Render(boxUnchecked), it.todo.Title
	if it.todo.Completed {
		box, text = successStyle.Render(boxChecked), doneStyle.Render(text)
	}
	parts := []string{box, text}
	for _, c := range it.todo.Categories {
		parts = append(parts, categoryStyle(c.Color).Render("#"+c.Text))
	}
	if it.todo.AlarmTime != nil {
		parts = append(parts, accentStyle.Render("⏰"+*it.todo.AlarmTime))
	}
	if it.pending {
		parts = append(parts, pendingStyle.Render(syncMarker))
	}

	prefix := "  "
	if index == m.Index() {
		prefix = selectedStyle.Render("> ")
	}
	fmt.Fprint(w, prefix+strings.Join(parts, " "))
}
