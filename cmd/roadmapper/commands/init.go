package commands

import (
	"github.com/dyluth/roadmapper/internal/printer"
	"github.com/dyluth/roadmapper/internal/scaffold"
	"github.com/spf13/cobra"
)

var (
	forceInit bool
	initDir   string
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a starter roadmapper.yml",
	Long: `Create a roadmapper.yml with every setting spelled out.

The backend written to the file is taken from --backend (default api).

Use --force to overwrite an existing roadmapper.yml.`,
	Args: cobra.NoArgs,
	RunE: runInit,
}

func runInit(cmd *cobra.Command, args []string) error {
	path, err := scaffold.Initialize(initDir, scaffold.Options{Backend: backendFlag}, forceInit)
	if err != nil {
		return printer.Error("initialization failed", err.Error(), nil)
	}

	printer.Success("Created %s\n", path)
	printer.Info("\nNext steps:\n")
	printer.Info("  1. Review the backend and setup sections\n")
	printer.Info("  2. Run 'roadmapper serve --setup' (api backend) or 'roadmapper setup' (redis)\n")
	printer.Info("  3. Run 'roadmapper login --username <name> --project <id>'\n")
	return nil
}

func init() {
	// No -f shorthand: it would read as a file flag next to --config
	initCmd.Flags().BoolVar(&forceInit, "force", false, "Overwrite an existing roadmapper.yml")
	initCmd.Flags().StringVar(&initDir, "dir", ".", "Directory to write roadmapper.yml into")
	rootCmd.AddCommand(initCmd)
}
