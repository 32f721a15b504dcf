package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/dyluth/roadmapper/internal/printer"
	"github.com/dyluth/roadmapper/internal/session"
	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the session and check the configured backend",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		s, err := session.Load()
		if err != nil {
			return fmt.Errorf("failed to load session: %w", err)
		}
		switch {
		case projectFlag != "":
			printer.Info("Project: %s (from --project)\n", projectFlag)
		case s != nil:
			printer.Info("Project: %s (%s session", s.Project, s.Source)
			if s.Username != "" {
				printer.Info(", user %s", s.Username)
			}
			printer.Info(")\n")
		default:
			printer.Warning("Not logged in\n")
		}

		b, err := openBackend(cfg)
		if err != nil {
			return err
		}
		defer b.Close()

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		switch {
		case b.api != nil:
			err = b.api.Health(ctx)
			printer.Info("Backend: api %s\n", cfg.API.URL)
		case b.redis != nil:
			err = b.redis.Ping(ctx)
			printer.Info("Backend: redis %s\n", cfg.Redis.URL)
		default:
			printer.Info("Backend: sqlite %s\n", cfg.SQLite.Path)
		}
		if err != nil {
			return printer.ErrorWithContext("backend unhealthy", fmt.Sprintf("Error: %v", err), nil, backendSuggestions(cfg))
		}

		printer.Success("Backend reachable\n")
		return nil
	},
}

var projectsCmd = &cobra.Command{
	Use:   "projects",
	Short: "List projects stored in the local sqlite file",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		b, err := openBackend(cfg)
		if err != nil {
			return err
		}
		defer b.Close()

		if b.local == nil {
			return printer.Error(
				fmt.Sprintf("projects is not supported by the %s backend", cfg.Backend),
				"Only the local store can enumerate projects.",
				[]string{"roadmapper --backend sqlite projects"},
			)
		}

		projects, err := b.local.Projects(context.Background())
		if err != nil {
			return fmt.Errorf("failed to list projects: %w", err)
		}
		if len(projects) == 0 {
			printer.Info("No projects in %s\n", cfg.SQLite.Path)
			return nil
		}
		for _, p := range projects {
			printer.Info("%s\tupdated %s\n", p.ProjectID, p.UpdatedAt.Format(time.RFC3339))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statusCmd, projectsCmd)
}
