package commands

import (
	"fmt"

	"github.com/dyluth/roadmapper/internal/board"
	"github.com/dyluth/roadmapper/internal/printer"
	"github.com/dyluth/roadmapper/pkg/roadmap"
	"github.com/spf13/cobra"
)

var (
	resourceRole   string
	resourceRate   float64
	resourceAvatar string
)

var resourceCmd = &cobra.Command{
	Use:   "resource",
	Short: "Manage the people and capacity items can use",
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
}

var resourceListCmd = &cobra.Command{
	Use:   "list",
	Short: "List resources",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withRoadmap(func(s *roadmapSession) error {
			return board.FormatResources(printer.Out(), s.store.Snapshot().Resources)
		})
	},
}

var resourceAddCmd = &cobra.Command{
	Use:   "add NAME",
	Short: "Add a resource",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		role := roadmap.ResourceRole(resourceRole)
		if err := role.Validate(); err != nil {
			return printer.Error("invalid role", err.Error(), []string{fmt.Sprintf("Valid roles: %v", roadmap.Roles)})
		}

		return withRoadmap(func(s *roadmapSession) error {
			res, ok := s.store.AddResource(roadmap.Resource{
				Name:       args[0],
				Role:       role,
				HourlyRate: resourceRate,
				Avatar:     resourceAvatar,
			})
			if !ok {
				return printer.Error("invalid resource", "Resource names cannot be blank.", nil)
			}

			printer.Success("Added %s resource '%s'\n", res.Role, res.Name)
			printer.Detail("ID", res.ID)
			return nil
		})
	},
}

var resourceDeleteCmd = &cobra.Command{
	Use:   "delete RESOURCE_ID",
	Short: "Delete a resource (items keep referring to it)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withRoadmap(func(s *roadmapSession) error {
			resID, err := resolveResource(s.store.Snapshot(), args[0])
			if err != nil {
				return err
			}

			s.store.DeleteResource(resID)
			printer.Success("Deleted resource %s\n", resID)
			return nil
		})
	},
}

func init() {
	resourceAddCmd.Flags().StringVar(&resourceRole, "role", "", "Role: FE, BE, ML, UX, DevOps, QA, Product, Design")
	resourceAddCmd.Flags().Float64Var(&resourceRate, "rate", 0, "Hourly rate")
	resourceAddCmd.Flags().StringVar(&resourceAvatar, "avatar", "", "Avatar URL or initials")
	resourceAddCmd.MarkFlagRequired("role")

	resourceCmd.AddCommand(resourceListCmd, resourceAddCmd, resourceDeleteCmd)
	rootCmd.AddCommand(resourceCmd)
}
