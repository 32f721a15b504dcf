package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	version string
	commit  string
	date    string
)

// Global flags
var (
	configPath    string
	backendFlag   string
	projectFlag   string
	verboseOutput bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "roadmapper",
	Short: "Roadmapper - sprint-based product roadmap planning",
	Long: `Roadmapper plans product roadmaps on a sprint calendar.

Lanes group timeline items, items are placed on sprints by their dates,
and every change is synced to a shared store (HTTP API, Redis or a local
SQLite file) so several editors can work on the same project.`,
	Version: version,
	// Show help instead of silently succeeding without a subcommand
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
	FParseErrWhitelist: cobra.FParseErrWhitelist{},
}

// Execute runs the root command. Called once by main.main().
func Execute() error {
	// Formatted errors are printed by the printer package
	rootCmd.SilenceErrors = true
	rootCmd.SilenceUsage = true
	return rootCmd.Execute()
}

// SetVersionInfo sets the version information for the CLI
func SetVersionInfo(v, c, d string) {
	version = v
	commit = c
	date = d
	rootCmd.Version = fmt.Sprintf("%s (commit: %s, built: %s)", v, c, d)
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to roadmapper.yml (default ./roadmapper.yml)")
	rootCmd.PersistentFlags().StringVarP(&backendFlag, "backend", "b", "", "Storage backend: api, redis or sqlite (overrides config)")
	rootCmd.PersistentFlags().StringVarP(&projectFlag, "project", "p", "", "Project ID (overrides the logged-in session)")
	rootCmd.PersistentFlags().BoolVarP(&verboseOutput, "verbose", "v", false, "Log sync activity to stderr")
}
