package ui

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/idilsaglam/carrot/internal/model"
)

const maxTitle = 80

// Stats counts done and pending todos.
func Stats(todos []model.Todo) (done, pending int) {
	for _, td := range todos {
		if td.Completed {
			done++
		} else {
			pending++
		}
	}
	return
}

// DayHeader is the "date  ✔ n  • n  Total n" line.
func DayHeader(date model.Date, todos []model.Todo) string {
	t := Current()
	d, p := Stats(todos)
	return fmt.Sprintf("%s  %s %d  %s %d  %s %d",
		C(t.Title, date.Time().Format("Mon 2 Jan 2006")),
		C(t.Success, t.SymDone), d,
		C(t.Pending, t.SymUnchecked), p,
		C(t.Accent, "Total"), len(todos),
	)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}

// TodoLine renders one todo without its index.
func TodoLine(td model.Todo) string {
	t := Current()
	box, color := t.BoxUnchecked, t.Muted
	if td.Completed {
		box, color = t.BoxChecked, t.Success
	}
	var b strings.Builder
	b.WriteString(C(color, box) + " " + truncate(td.Title, maxTitle))
	for _, c := range td.Categories {
		b.WriteString(" " + Hex(c.Color, "#"+c.Text))
	}
	if td.AlarmTime != nil {
		alarm := t.SymAlarm + *td.AlarmTime
		if td.AlarmRepeatType != nil && *td.AlarmRepeatType != model.RepeatNone {
			alarm += " " + string(*td.AlarmRepeatType)
		}
		b.WriteString(" " + C(t.Accent, alarm))
	}
	return b.String()
}

// TodoLines numbers todos from 1, the index the CLI accepts.
func TodoLines(todos []model.Todo) []string {
	if len(todos) == 0 {
		return []string{C(Current().Muted, "no todos")}
	}
	out := make([]string, 0, len(todos))
	for i, td := range todos {
		out = append(out, fmt.Sprintf("%s %s", C(dim, fmt.Sprintf("%2d.", i+1)), TodoLine(td)))
	}
	return out
}

// GroupLines splits todos under Pending and Done headings, keeping each
// todo's list index.
func GroupLines(todos []model.Todo) []string {
	all := TodoLines(todos)
	if len(todos) == 0 {
		return all
	}
	var pend, done []string
	for i, td := range todos {
		if td.Completed {
			done = append(done, all[i])
		} else {
			pend = append(pend, all[i])
		}
	}
	t := Current()
	section := func(name string, lines []string) []string {
		out := []string{C(t.Accent, name)}
		if len(lines) == 0 {
			return append(out, C(t.Muted, "(none)"))
		}
		return append(out, lines...)
	}
	lines := section("Pending", pend)
	lines = append(lines, "")
	return append(lines, section("Done", done)...)
}

// DayPanel prints the framed todo list of one day.
func DayPanel(w io.Writer, date model.Date, todos []model.Todo, group bool) {
	d, p := Stats(todos)
	lines := []string{
		DayHeader(date, todos),
		C(Current().Muted, ProgressBar(d, d+p, 28)),
		"",
	}
	if group {
		lines = append(lines, GroupLines(todos)...)
	} else {
		lines = append(lines, TodoLines(todos)...)
	}
	lines = append(lines, "", C(Current().Muted, `Tip: add with carrot todo add "Buy milk"`))
	Panel(w, lines)
}

// CategoryLines lists categories with their colors.
func CategoryLines(cats []model.Category) []string {
	if len(cats) == 0 {
		return []string{C(Current().Muted, "no categories")}
	}
	out := make([]string, 0, len(cats))
	for _, c := range cats {
		out = append(out, fmt.Sprintf("%s %s", C(dim, fmt.Sprintf("%4d", c.ID)), Hex(c.Color, "#"+c.Text)))
	}
	return out
}

// WalletLines shows the balance and the inventory grouped by slot.
func WalletLines(p model.Profile, w model.Wallet) []string {
	t := Current()
	var lines []string
	if p.Name != "" || p.Email != "" {
		lines = append(lines, C(t.Title, p.Name)+"  "+C(t.Muted, "<"+p.Email+">"), "")
	}
	lines = append(lines, fmt.Sprintf("%s %d carrots", C(t.Accent, "Balance"), w.Balance), "")

	if len(w.Inventory) == 0 {
		return append(lines, C(t.Muted, "no items yet"))
	}
	inv := append([]model.InventoryEntry(nil), w.Inventory...)
	rank := map[model.Slot]int{}
	for i, s := range model.Slots {
		rank[s] = i
	}
	sort.SliceStable(inv, func(i, j int) bool {
		if rank[inv[i].Item.Type] != rank[inv[j].Item.Type] {
			return rank[inv[i].Item.Type] < rank[inv[j].Item.Type]
		}
		return inv[i].Item.ID < inv[j].Item.ID
	})
	for _, e := range inv {
		box, color := t.BoxUnchecked, t.Muted
		if e.IsEquipped {
			box, color = t.BoxChecked, t.Success
		}
		lines = append(lines, fmt.Sprintf("%s %-10s %s %s",
			C(color, box), string(e.Item.Type), e.Item.Name, C(t.Muted, fmt.Sprintf("#%d", e.Item.ID))))
	}
	return lines
}
