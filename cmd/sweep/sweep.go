// Package sweep implements the sweep subcommand: evict expired negative
// cache records.
package sweep

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fennecbyte/covercache/internal/app"
)

// Command returns the sweep subcommand.
func Command(a *app.App) *cobra.Command {
	return &cobra.Command{
		Use:   "sweep",
		Short: "Evict expired not-found records",
		RunE: func(cmd *cobra.Command, args []string) error {
			evicted := a.Service.NegativeCache().RunExpirySweep()
			fmt.Printf("evicted %d expired record(s)\n", evicted)
			return nil
		},
	}
}
