package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

// rootCmd represents the base command for the calsync application
var rootCmd = &cobra.Command{
	Use:   "calsync",
	Short: "Synchronizes events with a remote Microsoft calendar account",
	Long: `calsync keeps a local view of a remote Microsoft calendar account:
it signs in, caches the calendar catalog for offline use, fetches events
into a fixed local timezone, and pushes event changes back.

When the remote account cannot be reached with valid credentials, calsync
degrades into a simulation mode where results are fabricated locally
instead of failing outright.`,
	SilenceUsage: true,
}

var (
	configPath string
	verbose    bool
)

// version will be set by main
var version = "dev"

// SetVersion sets the version for the root command
func SetVersion(v string) {
	version = v
	rootCmd.Version = v
}

// Execute is the main entry point for the CLI application
func Execute() {
	rootCmd.SetVersionTemplate(`{{printf "calsync version %s\n" .Version}}`)

	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to the config file (default: $XDG_CONFIG_HOME/calsync/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	rootCmd.AddCommand(newLoginCmd())
	rootCmd.AddCommand(newLogoutCmd())
	rootCmd.AddCommand(newSyncCmd())
	rootCmd.AddCommand(newEventCmd())
	rootCmd.AddCommand(newCalendarsCmd())
	rootCmd.AddCommand(newWatchCmd())
	rootCmd.AddCommand(newVersionCmd())
}
