package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	configPath string
	verbose    bool
	jsonOutput bool
)

// Execute runs the root command
func Execute(ctx context.Context, version, commit, buildDate string) error {
	rootCmd := newRootCommand(version, commit, buildDate)
	return rootCmd.ExecuteContext(ctx)
}

func newRootCommand(version, commit, buildDate string) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "potaplan",
		Short: "potaplan - POTA activation planner",
		Long: `potaplan is a planning tool for Parks on the Air activations.

It keeps a local catalog of parks synced from the POTA directory,
tracks activation plans through their lifecycle, and caches daily
weather forecasts for planned locations.`,
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, buildDate),
	}

	// Persistent flags available to all commands
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "output in JSON format")

	// Add subcommands
	rootCmd.AddCommand(newSyncCommand())
	rootCmd.AddCommand(newImportCommand())
	rootCmd.AddCommand(newParkCommand())
	rootCmd.AddCommand(newPlanCommand())
	rootCmd.AddCommand(newWeatherCommand())
	rootCmd.AddCommand(newPurgeCommand())
	rootCmd.AddCommand(newConfigCommand())

	return rootCmd
}
