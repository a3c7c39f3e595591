// Package cmd assembles the covercache command tree.
package cmd

import (
	"github.com/spf13/cobra"

	"github.com/fennecbyte/covercache/cmd/clear"
	"github.com/fennecbyte/covercache/cmd/fetch"
	"github.com/fennecbyte/covercache/cmd/sweep"
	"github.com/fennecbyte/covercache/internal/app"
	"github.com/fennecbyte/covercache/internal/conf"
)

// RootCommand creates and returns the root command.
func RootCommand() *cobra.Command {
	var configFile string
	a := &app.App{}

	rootCmd := &cobra.Command{
		Use:           "covercache",
		Short:         "Resolve and cache album and artist artwork",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "Path to config file")
	rootCmd.PersistentFlags().Bool("debug", false, "Enable debug output")
	rootCmd.PersistentFlags().String("library", "", "Library base path")

	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		settings, err := conf.Load(configFile)
		if err != nil {
			return err
		}
		if debug, err := cmd.Flags().GetBool("debug"); err == nil && debug {
			settings.Debug = true
		}
		if library, err := cmd.Flags().GetString("library"); err == nil && library != "" {
			settings.Library.Path = library
		}
		a.Settings = settings
		return a.Init()
	}

	rootCmd.PersistentPostRun = func(cmd *cobra.Command, args []string) {
		a.Shutdown()
	}

	rootCmd.AddCommand(
		fetch.Command(a),
		sweep.Command(a),
		clear.Command(a),
	)

	return rootCmd
}
