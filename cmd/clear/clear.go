// Package clear implements the clear subcommand: reset session and durable
// caches.
package clear

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fennecbyte/covercache/internal/app"
)

// Command returns the clear subcommand.
func Command(a *app.App) *cobra.Command {
	var durable bool

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Clear artwork caches",
		Long: "Clear the session caches (blob cache, in-flight registry, " +
			"throttle cursor). With --durable, also drop stored identities " +
			"and not-found records. Covers on disk are never removed.",
		RunE: func(cmd *cobra.Command, args []string) error {
			a.Service.ClearAllCaches()
			if durable {
				a.Service.Identities().Clear()
				a.Service.NegativeCache().Clear()
				fmt.Println("session and durable caches cleared")
				return nil
			}
			fmt.Println("session caches cleared")
			return nil
		},
	}

	cmd.Flags().BoolVar(&durable, "durable", false, "Also clear identity and not-found records")

	return cmd
}
