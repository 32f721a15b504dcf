package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/dyluth/roadmapper/internal/printer"
	"github.com/dyluth/roadmapper/internal/server"
	"github.com/dyluth/roadmapper/pkg/roadmap"
	"github.com/spf13/cobra"
)

var (
	serveAddr  string
	serveSetup bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the roadmapper HTTP API",
	Long: `Run the roadmapper HTTP API on top of Redis.

The listen address comes from --addr, ROADMAPPER_ADDR or server.addr in
roadmapper.yml; Redis from REDIS_URL or redis.url.

Examples:
  roadmapper serve
  roadmapper serve --addr :9090 --setup`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if serveAddr != "" {
		cfg.Server.Addr = serveAddr
	}

	client, err := roadmap.NewClientFromURL(cfg.Redis.URL)
	if err != nil {
		return printer.ErrorWithContext(
			"Redis connection failed",
			fmt.Sprintf("Error: %v", err),
			map[string]string{"URL": cfg.Redis.URL},
			[]string{"Start Redis:\n  docker run -p 6379:6379 redis:7-alpine", "Set REDIS_URL to a reachable server"},
		)
	}
	defer client.Close()

	admin := roadmap.AdminCredentials{Username: cfg.Setup.AdminUsername, Password: cfg.Setup.AdminPassword}
	defaultUser := roadmap.User{
		Username:  cfg.Setup.DefaultUsername,
		Password:  cfg.Setup.DefaultPassword,
		ProjectID: cfg.Setup.DefaultProject,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if serveSetup {
		result, err := client.Setup(ctx, &admin, &defaultUser)
		if err != nil {
			return fmt.Errorf("setup failed: %w", err)
		}
		printer.Success("Setup complete (migrated: %t)\n", result.Migrated)
	}

	srv := server.New(client, server.Options{
		Addr:         cfg.Server.Addr,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		Admin:        admin,
		DefaultUser:  defaultUser,
	})

	printer.Step("Serving roadmaps on %s (Redis %s)\n", cfg.Server.Addr, cfg.Redis.URL)
	return srv.Run(ctx)
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (default from config, :8080)")
	serveCmd.Flags().BoolVar(&serveSetup, "setup", false, "Run setup before serving")
	rootCmd.AddCommand(serveCmd)
}
