package cli

import (
	"github.com/spf13/cobra"

	"github.com/idilsaglam/carrot/internal/tui"
)

func newTUICommand(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "tui",
		Short: "Open the interactive calendar",
		Long: `Open the interactive calendar.

Keys: space toggles, a adds, e edits, d deletes, ←/→ change day,
[ and ] jump a week or month, v switches the view, q quits.`,
		Args: args(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, _ []string) error {
			return tui.Run(rt.app.TUI())
		},
	}
}
