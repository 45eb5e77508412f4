package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/idilsaglam/carrot/internal/prefs"
)

func newViewCommand(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:       "view [week|month]",
		Short:     "Show or set the calendar view mode",
		Args:      args(cobra.MaximumNArgs(1)),
		ValidArgs: []string{string(prefs.Week), string(prefs.Month)},
		RunE: func(cmd *cobra.Command, a []string) error {
			if len(a) == 0 {
				p, err := rt.app.Prefs.Load()
				if err != nil {
					return err
				}
				return rt.out.Print(p, func(w io.Writer) {
					fmt.Fprintln(w, p.ViewMode)
				})
			}
			m, err := prefs.ParseViewMode(a[0])
			if err != nil {
				return usageError(err.Error(), "Use week or month")
			}
			p, err := rt.app.Prefs.SetViewMode(m)
			if err != nil {
				return err
			}
			return rt.out.Done("view mode set to "+string(p.ViewMode), p)
		},
	}
}
