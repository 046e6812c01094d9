// Command clawtrack is a local sales pipeline tracker.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

// Version is the current CLI version string.
const Version = "v0.1.0"

var (
	configPath string
	dbPathFlag string
)

func main() {
	// A .env file in the working directory is optional.
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "clawtrack",
	Short: "Track leads through a sales pipeline",
	Long: `clawtrack keeps a local sales pipeline: leads, stages, notes,
activities, a board view and team dashboards. Everything is stored in a
local SQLite file.

Examples:
  clawtrack add --company "Acme" --contact "Jane Roe" --deal 5000
  clawtrack list --stage proposal_sent --city austin
  clawtrack move 3f2a negotiation
  clawtrack board`,
	SilenceUsage: true,
	Version:      Version,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, _ []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "clawtrack %s\n", Version)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default $XDG_CONFIG_HOME/clawtrack/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&dbPathFlag, "db", "", "database path (overrides config and CLAWTRACK_DB_PATH)")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(configCmd)
	addLeadCommands(rootCmd)
	addTransferCommands(rootCmd)
	addViewCommands(rootCmd)
	addPresetCommands(rootCmd)
	addUserCommands(rootCmd)
	addTaskCommands(rootCmd)
	rootCmd.AddCommand(newDBCmd())
}

// withApp opens the application for the duration of fn.
func withApp(cmd *cobra.Command, fn func(ctx context.Context, a *app) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(ctx, a)
}
