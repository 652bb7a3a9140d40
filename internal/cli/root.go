// Package cli provides the command-line interface for serialbinder.
package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// Version and Commit are set via ldflags at build time.
var (
	Version = "dev"
	Commit  = "none"
)

// DefaultConfigDir is used when --config-dir is not given.
const DefaultConfigDir = ".serialbinder"

var configDir string

var rootCmd = &cobra.Command{
	Use:   "serialbinder",
	Short: "Bundle new chapters of Reddit serials into titled batches",
	Long: "serialbinder watches authors on Reddit, picks the submissions that belong to the stories you follow, " +
		"and labels each author's batch with a title and filename for the e-book assembler.",
	SilenceUsage: true,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(_ *cobra.Command, _ []string) {
		fmt.Printf("serialbinder %s (%s)\n", Version, Commit)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configDir, "config-dir", DefaultConfigDir, "directory holding config.yaml and subscriptions.yaml")
	rootCmd.AddCommand(versionCmd)
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
