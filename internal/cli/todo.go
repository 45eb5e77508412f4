package cli

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/idilsaglam/carrot/internal/model"
	"github.com/idilsaglam/carrot/internal/ui"
)

func newTodoCommand(rt *runtime) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "todo",
		Aliases: []string{"t"},
		Short:   "List and change the todos of a day",
		Long: `List and change the todos of a day.

Todos are addressed by their position in "carrot todo ls", starting at 1.`,
	}
	cmd.AddCommand(newTodoListCommand(rt))
	cmd.AddCommand(newTodoAddCommand(rt))
	cmd.AddCommand(newTodoDoneCommand(rt))
	cmd.AddCommand(newTodoRenameCommand(rt))
	cmd.AddCommand(newTodoRemoveCommand(rt))
	cmd.AddCommand(newTodoTagCommand(rt))
	cmd.AddCommand(newTodoAlarmCommand(rt))
	return cmd
}

func addDateFlag(cmd *cobra.Command, p *string) {
	cmd.Flags().StringVar(p, "date", "", "day as YYYY-MM-DD, today, tomorrow or yesterday")
}

// openDay authenticates and loads the day named by the --date value.
func (rt *runtime) openDay(cmd *cobra.Command, date string) (model.Date, error) {
	if err := rt.requireAuth(); err != nil {
		return "", err
	}
	d, err := parseDate(date)
	if err != nil {
		return "", err
	}
	return d, rt.loadDay(cmd.Context(), d)
}

// pick returns the todo at a 1-based position of the loaded day.
func (rt *runtime) pick(arg string) (model.Todo, error) {
	list := rt.day()
	n, err := strconv.Atoi(arg)
	if err != nil || n < 1 || n > len(list) {
		return model.Todo{}, usageError(
			fmt.Sprintf("no todo #%s (day has %d)", arg, len(list)),
			"Run: carrot todo ls")
	}
	return list[n-1], nil
}

func newTodoListCommand(rt *runtime) *cobra.Command {
	var date string
	var group bool
	cmd := &cobra.Command{
		Use:     "ls",
		Aliases: []string{"list"},
		Short:   "Show the todos of a day",
		Args:    args(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, _ []string) error {
			d, err := rt.openDay(cmd, date)
			if err != nil {
				return err
			}
			list := rt.day()
			return rt.out.Print(list, func(w io.Writer) {
				ui.DayPanel(w, d, list, group)
			})
		},
	}
	addDateFlag(cmd, &date)
	cmd.Flags().BoolVarP(&group, "group", "g", false, "split into pending and done")
	return cmd
}

func newTodoAddCommand(rt *runtime) *cobra.Command {
	var date string
	var cats []string
	cmd := &cobra.Command{
		Use:   "add <title...>",
		Short: "Add a todo",
		Args:  args(cobra.MinimumNArgs(1)),
		RunE: func(cmd *cobra.Command, a []string) error {
			if _, err := rt.openDay(cmd, date); err != nil {
				return err
			}
			resolved, err := rt.app.Categories.Resolve(cats)
			if err != nil {
				return &ExitError{Code: ExitUsage, Err: err, Hint: "Run: carrot cat ls"}
			}
			if err := rt.app.Todos.Create(cmd.Context(), strings.Join(a, " "), resolved); err != nil {
				return err
			}
			list := rt.day()
			created := list[len(list)-1]
			return rt.out.Done(fmt.Sprintf("added #%d %s", len(list), created.Title), created)
		},
	}
	addDateFlag(cmd, &date)
	cmd.Flags().StringSliceVarP(&cats, "cat", "c", nil, "category name or id (repeatable)")
	return cmd
}

func newTodoDoneCommand(rt *runtime) *cobra.Command {
	var date string
	cmd := &cobra.Command{
		Use:   "done <n>",
		Short: "Toggle a todo between done and pending",
		Args:  args(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, a []string) error {
			if _, err := rt.openDay(cmd, date); err != nil {
				return err
			}
			td, err := rt.pick(a[0])
			if err != nil {
				return err
			}
			if err := rt.app.Todos.Toggle(cmd.Context(), td.ID); err != nil {
				return err
			}
			td, _ = rt.app.Todos.Get(td.ID)
			msg := "marked pending: " + td.Title
			if td.Completed {
				msg = "done: " + td.Title
			}
			return rt.out.Done(msg, td)
		},
	}
	addDateFlag(cmd, &date)
	return cmd
}

func newTodoRenameCommand(rt *runtime) *cobra.Command {
	var date string
	cmd := &cobra.Command{
		Use:   "rename <n> <title...>",
		Short: "Change the title of a todo",
		Args:  args(cobra.MinimumNArgs(2)),
		RunE: func(cmd *cobra.Command, a []string) error {
			if _, err := rt.openDay(cmd, date); err != nil {
				return err
			}
			td, err := rt.pick(a[0])
			if err != nil {
				return err
			}
			if err := rt.app.Todos.Rename(cmd.Context(), td.ID, strings.Join(a[1:], " ")); err != nil {
				return err
			}
			td, _ = rt.app.Todos.Get(td.ID)
			return rt.out.Done("renamed to "+td.Title, td)
		},
	}
	addDateFlag(cmd, &date)
	return cmd
}

func newTodoRemoveCommand(rt *runtime) *cobra.Command {
	var date string
	cmd := &cobra.Command{
		Use:     "rm <n>",
		Aliases: []string{"delete"},
		Short:   "Delete a todo",
		Args:    args(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, a []string) error {
			if _, err := rt.openDay(cmd, date); err != nil {
				return err
			}
			td, err := rt.pick(a[0])
			if err != nil {
				return err
			}
			if err := rt.app.Todos.Delete(cmd.Context(), td.ID); err != nil {
				return err
			}
			return rt.out.Done("deleted "+td.Title, td)
		},
	}
	addDateFlag(cmd, &date)
	return cmd
}

func newTodoTagCommand(rt *runtime) *cobra.Command {
	var date string
	cmd := &cobra.Command{
		Use:   "tag <n> [category...]",
		Short: "Replace the categories of a todo; none clears them",
		Args:  args(cobra.MinimumNArgs(1)),
		RunE: func(cmd *cobra.Command, a []string) error {
			if _, err := rt.openDay(cmd, date); err != nil {
				return err
			}
			td, err := rt.pick(a[0])
			if err != nil {
				return err
			}
			cats, err := rt.app.Categories.Resolve(a[1:])
			if err != nil {
				return &ExitError{Code: ExitUsage, Err: err, Hint: "Run: carrot cat ls"}
			}
			if err := rt.app.Todos.SetCategories(cmd.Context(), td.ID, cats); err != nil {
				return err
			}
			td, _ = rt.app.Todos.Get(td.ID)
			names := make([]string, 0, len(td.Categories))
			for _, c := range td.Categories {
				names = append(names, c.Text)
			}
			msg := "cleared categories of " + td.Title
			if len(names) > 0 {
				msg = fmt.Sprintf("tagged %s: %s", td.Title, strings.Join(names, ", "))
			}
			return rt.out.Done(msg, td)
		},
	}
	addDateFlag(cmd, &date)
	return cmd
}

func newTodoAlarmCommand(rt *runtime) *cobra.Command {
	var date, repeat string
	cmd := &cobra.Command{
		Use:   "alarm <n> <HH:MM|off>",
		Short: "Set or clear the alarm of a todo",
		Args:  args(cobra.ExactArgs(2)),
		RunE: func(cmd *cobra.Command, a []string) error {
			var at *string
			if a[1] != "off" {
				t, err := model.ParseAlarmTime(a[1])
				if err != nil {
					return usageError(err.Error(), "Use 24h time like 07:30, or off")
				}
				at = &t
			}
			rep, err := model.ParseRepeat(repeat)
			if err != nil {
				return usageError(err.Error(), "Use one of: none, daily, weekly, monthly")
			}
			if _, err := rt.openDay(cmd, date); err != nil {
				return err
			}
			td, err := rt.pick(a[0])
			if err != nil {
				return err
			}
			if err := rt.app.Todos.SetAlarm(cmd.Context(), td.ID, at, rep); err != nil {
				return err
			}
			td, _ = rt.app.Todos.Get(td.ID)
			msg := "alarm cleared for " + td.Title
			if at != nil {
				msg = fmt.Sprintf("alarm at %s (%s) for %s", *at, rep, td.Title)
			}
			return rt.out.Done(msg, td)
		},
	}
	addDateFlag(cmd, &date)
	cmd.Flags().StringVar(&repeat, "repeat", "none", "none|daily|weekly|monthly")
	return cmd
}
