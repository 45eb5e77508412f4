package cli

import (
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/idilsaglam/carrot/internal/model"
	"github.com/idilsaglam/carrot/internal/ui"
)

func newCategoryCommand(rt *runtime) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "cat",
		Aliases: []string{"category"},
		Short:   "Manage categories",
		Long: `Manage categories.

Categories are addressed by name (any case) or id.`,
	}
	cmd.AddCommand(newCategoryListCommand(rt))
	cmd.AddCommand(newCategoryAddCommand(rt))
	cmd.AddCommand(newCategoryRenameCommand(rt))
	cmd.AddCommand(newCategoryRemoveCommand(rt))
	return cmd
}

func (rt *runtime) loadCategories(cmd *cobra.Command) error {
	if err := rt.requireAuth(); err != nil {
		return err
	}
	return rt.app.Categories.Load(cmd.Context())
}

func (rt *runtime) category(ref string) (model.Category, error) {
	found, err := rt.app.Categories.Resolve([]string{ref})
	if err != nil || len(found) == 0 {
		return model.Category{}, usageError("no category "+ref, "Run: carrot cat ls")
	}
	return found[0], nil
}

func newCategoryListCommand(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:     "ls",
		Aliases: []string{"list"},
		Short:   "List categories",
		Args:    args(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := rt.loadCategories(cmd); err != nil {
				return err
			}
			cats := rt.app.Categories.Colorize(rt.app.Categories.Categories())
			return rt.out.Print(cats, func(w io.Writer) {
				ui.Panel(w, ui.CategoryLines(cats))
			})
		},
	}
}

func newCategoryAddCommand(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "add <name...>",
		Short: "Create a category",
		Args:  args(cobra.MinimumNArgs(1)),
		RunE: func(cmd *cobra.Command, a []string) error {
			if err := rt.loadCategories(cmd); err != nil {
				return err
			}
			if err := rt.app.Categories.Create(cmd.Context(), strings.Join(a, " ")); err != nil {
				return err
			}
			cats := rt.app.Categories.Categories()
			created := rt.app.Categories.Colorize(cats[len(cats)-1:])[0]
			return rt.out.Done("created "+ui.Hex(created.Color, "#"+created.Text), created)
		},
	}
}

func newCategoryRenameCommand(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "rename <name|id> <new name...>",
		Short: "Rename a category",
		Args:  args(cobra.MinimumNArgs(2)),
		RunE: func(cmd *cobra.Command, a []string) error {
			if err := rt.loadCategories(cmd); err != nil {
				return err
			}
			c, err := rt.category(a[0])
			if err != nil {
				return err
			}
			if err := rt.app.Categories.Rename(cmd.Context(), c.ID, strings.Join(a[1:], " ")); err != nil {
				return err
			}
			c, _ = rt.app.Categories.Get(c.ID)
			return rt.out.Done("renamed to "+c.Text, c)
		},
	}
}

func newCategoryRemoveCommand(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:     "rm <name|id>",
		Aliases: []string{"delete"},
		Short:   "Delete a category",
		Args:    args(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, a []string) error {
			if err := rt.loadCategories(cmd); err != nil {
				return err
			}
			c, err := rt.category(a[0])
			if err != nil {
				return err
			}
			if err := rt.app.Categories.Delete(cmd.Context(), c.ID); err != nil {
				return err
			}
			return rt.out.Done("deleted #"+c.Text, c)
		},
	}
}
