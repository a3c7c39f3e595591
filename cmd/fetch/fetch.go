// Package fetch implements the fetch subcommand: resolve one album or
// artist cover from the command line.
package fetch

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fennecbyte/covercache/internal/app"
)

// Command returns the fetch subcommand.
func Command(a *app.App) *cobra.Command {
	var artist, album string

	cmd := &cobra.Command{
		Use:   "fetch",
		Short: "Resolve artwork for an album or artist",
		Long: "Resolve artwork for an album (artist + album) or an artist " +
			"(artist only), walking the local caches before any network fetch.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if artist == "" {
				return fmt.Errorf("--artist is required")
			}

			if album != "" {
				result, err := a.Service.ResolveAlbumCover(cmd.Context(), artist, album)
				if err != nil {
					return err
				}
				if result == nil {
					fmt.Println("no artwork found")
					return nil
				}
				fmt.Println(result.Path)
				return nil
			}

			result, err := a.Service.ResolveArtistCover(cmd.Context(), artist)
			if err != nil {
				return err
			}
			if result == nil {
				fmt.Println("no artwork found")
				return nil
			}
			fmt.Println(result.Path)
			return nil
		},
	}

	cmd.Flags().StringVar(&artist, "artist", "", "Artist name")
	cmd.Flags().StringVar(&album, "album", "", "Album name (omit for an artist image)")

	return cmd
}
