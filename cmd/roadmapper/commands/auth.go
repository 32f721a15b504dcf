package commands

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/dyluth/roadmapper/internal/config"
	"github.com/dyluth/roadmapper/internal/printer"
	"github.com/dyluth/roadmapper/internal/session"
	"github.com/dyluth/roadmapper/pkg/roadmap"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
)

var (
	authUsername  string
	authPassword  string
	adminUsername string
	adminPassword string
)

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Seed the admin and default user, migrating legacy data",
	Long: `Seed the administrator record and the default project user from the
setup section of roadmapper.yml, and copy a legacy single-tenant roadmap
(key roadmap_data_v3) into the default project.

Safe to run repeatedly. Requires the api or redis backend.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		b, err := openBackend(cfg)
		if err != nil {
			return err
		}
		defer b.Close()

		var result *roadmap.SetupResult
		switch {
		case b.api != nil:
			result, err = b.api.Setup(ctx)
		case b.redis != nil:
			result, err = b.redis.Setup(ctx,
				&roadmap.AdminCredentials{Username: cfg.Setup.AdminUsername, Password: cfg.Setup.AdminPassword},
				&roadmap.User{Username: cfg.Setup.DefaultUsername, Password: cfg.Setup.DefaultPassword, ProjectID: cfg.Setup.DefaultProject},
			)
		default:
			return unsupportedBackend("setup", cfg)
		}
		if err != nil {
			return printer.ErrorWithContext("setup failed", fmt.Sprintf("Error: %v", err), nil, backendSuggestions(cfg))
		}

		printer.Success("Setup complete\n")
		printer.Detail("Admin", result.Admin)
		printer.Detail("Default user", result.DefaultUser)
		if result.Migrated {
			printer.Detail("Migrated", roadmap.LegacyRoadmapKey)
		}
		return nil
	},
}

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Log in to a project",
	Long: `Log in to a project. The session is stored in ~/.roadmapper and selects
the project every other command works on.

With the sqlite backend there are no credential records: the session only
records the project.

When --password is omitted and stdin is not a terminal, the password is
read from the first line of stdin.

Examples:
  roadmapper login --username sandeep --password password123 --project vision-2026
  echo "$PW" | roadmapper login --username sandeep --project vision-2026`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		if authUsername == "" || projectFlag == "" {
			return printer.Error(
				"missing required fields",
				"--username and --project are required.",
				[]string{"roadmapper login --username <name> --password <password> --project <id>"},
			)
		}

		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		b, err := openBackend(cfg)
		if err != nil {
			return err
		}
		defer b.Close()

		if authPassword == "" && b.local == nil {
			if authPassword, err = passwordFromStdin(cmd.InOrStdin()); err != nil {
				return printer.Error("login failed", err.Error(), nil)
			}
		}

		switch {
		case b.api != nil:
			_, err = b.api.Login(ctx, authUsername, authPassword, projectFlag)
		case b.redis != nil:
			_, err = b.redis.Authenticate(ctx, authUsername, authPassword, projectFlag)
		default:
			printer.Warning("The sqlite backend has no credentials; recording the project only\n")
		}
		if err != nil {
			if errors.Is(err, roadmap.ErrInvalidCredentials) {
				return printer.Error("login failed", "Invalid credentials or Project ID.", nil)
			}
			return printer.ErrorWithContext("login failed", fmt.Sprintf("Error: %v", err), nil, backendSuggestions(cfg))
		}

		s, err := session.Save(authUsername, projectFlag)
		if err != nil {
			return fmt.Errorf("failed to save session: %w", err)
		}

		printer.Success("Logged in as %s\n", s.Username)
		printer.Detail("Project", s.Project)
		return nil
	},
}

// stdinIsTerminal reports whether the password can only come from a flag.
var stdinIsTerminal = func() bool {
	return isatty.IsTerminal(os.Stdin.Fd()) || isatty.IsCygwinTerminal(os.Stdin.Fd())
}

// passwordFromStdin reads the first line of a piped stdin. It returns an
// empty password when stdin is a terminal.
func passwordFromStdin(in io.Reader) (string, error) {
	if stdinIsTerminal() {
		return "", nil
	}
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && err != io.EOF {
		return "", fmt.Errorf("failed to read password from stdin: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Forget the current session",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := session.Delete(); err != nil {
			return fmt.Errorf("failed to remove session: %w", err)
		}
		printer.Success("Logged out\n")
		return nil
	},
}

var userCmd = &cobra.Command{
	Use:   "user",
	Short: "Manage project users (admin)",
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
}

var userCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Register a user for the current project",
	Long: `Register a user for the project given by --project (or the session).
Admin credentials default to those in the setup section of roadmapper.yml.

Examples:
  roadmapper user create --project vision-2026 --username ann --password s3cret`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		if authUsername == "" || authPassword == "" {
			return printer.Error("missing required fields", "--username and --password are required.", nil)
		}
		projectID, err := currentProject()
		if err != nil {
			return err
		}

		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		b, err := openBackend(cfg)
		if err != nil {
			return err
		}
		defer b.Close()

		adminUser, adminPass := adminCredentials(cfg)
		user := &roadmap.User{Username: authUsername, Password: authPassword, ProjectID: projectID}

		switch {
		case b.api != nil:
			if _, err = b.api.AdminLogin(ctx, adminUser, adminPass); err == nil {
				err = b.api.CreateUser(ctx, user)
			}
		case b.redis != nil:
			if err = b.redis.AuthenticateAdmin(ctx, adminUser, adminPass); err == nil {
				err = b.redis.CreateUser(ctx, user)
			}
		default:
			return unsupportedBackend("user create", cfg)
		}

		switch {
		case err == nil:
		case errors.Is(err, roadmap.ErrUserExists):
			return printer.Error("user already exists", fmt.Sprintf("Username '%s' is taken.", authUsername), nil)
		case errors.Is(err, roadmap.ErrAdminNotInitialised):
			return printer.Error("admin not initialised", "No admin record exists yet.", []string{"Run setup first:\n  roadmapper setup"})
		case errors.Is(err, roadmap.ErrInvalidCredentials):
			return printer.Error("admin login failed", "Invalid admin credentials.", nil)
		default:
			return printer.ErrorWithContext("failed to create user", fmt.Sprintf("Error: %v", err), nil, backendSuggestions(cfg))
		}

		printer.Success("Created user %s\n", user.Username)
		printer.Detail("Project", projectID)
		return nil
	},
}

var userListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the users of the current project (redis backend)",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		projectID, err := currentProject()
		if err != nil {
			return err
		}

		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		b, err := openBackend(cfg)
		if err != nil {
			return err
		}
		defer b.Close()

		if b.redis == nil {
			return unsupportedBackend("user list", cfg)
		}

		members, err := b.redis.ProjectMembers(context.Background(), projectID)
		if err != nil {
			return fmt.Errorf("failed to list users: %w", err)
		}
		if len(members) == 0 {
			printer.Info("No users in project %s\n", projectID)
			return nil
		}
		for _, m := range members {
			printer.Info("%s\n", m)
		}
		return nil
	},
}

func adminCredentials(cfg *config.Config) (string, string) {
	user, pass := adminUsername, adminPassword
	if user == "" {
		user = cfg.Setup.AdminUsername
	}
	if pass == "" {
		pass = cfg.Setup.AdminPassword
	}
	return user, pass
}

func unsupportedBackend(command string, cfg *config.Config) error {
	return printer.Error(
		fmt.Sprintf("%s is not supported by the %s backend", command, cfg.Backend),
		"Credential records live in Redis.",
		[]string{fmt.Sprintf("roadmapper --backend redis %s", command)},
	)
}

func init() {
	loginCmd.Flags().StringVarP(&authUsername, "username", "u", "", "Username")
	loginCmd.Flags().StringVar(&authPassword, "password", "", "Password")

	userCreateCmd.Flags().StringVarP(&authUsername, "username", "u", "", "Username of the new user")
	userCreateCmd.Flags().StringVar(&authPassword, "password", "", "Password of the new user")
	userCreateCmd.Flags().StringVar(&adminUsername, "admin-username", "", "Admin username (default from config)")
	userCreateCmd.Flags().StringVar(&adminPassword, "admin-password", "", "Admin password (default from config)")

	userCmd.AddCommand(userCreateCmd, userListCmd)
	rootCmd.AddCommand(setupCmd, loginCmd, logoutCmd, userCmd)
}
