package commands

import (
	"fmt"

	"github.com/dyluth/roadmapper/internal/board"
	"github.com/dyluth/roadmapper/internal/printer"
	"github.com/dyluth/roadmapper/internal/state"
	"github.com/spf13/cobra"
)

var (
	laneCategory    string
	laneDescription string
	laneName        string
	laneObjective   string
	laneOrder       int
	laneCollapse    bool
	laneExpand      bool
)

var laneCmd = &cobra.Command{
	Use:   "lane",
	Short: "Manage lanes (tracks) of the roadmap",
	Long: `Manage the lanes of the current project's roadmap.

Lanes are listed in display order. Lane IDs may be shortened to any unique
prefix of at least 4 characters.

Examples:
  roadmapper lane add "Smart Image" --category smart-img
  roadmapper lane move 3f2a9c up
  roadmapper lane update 3f2a9c --objective "Ship auto-crop" --collapse`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
}

var laneListCmd = &cobra.Command{
	Use:   "list",
	Short: "List lanes in display order",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withRoadmap(func(s *roadmapSession) error {
			return board.FormatLanes(printer.Out(), s.store.Snapshot())
		})
	},
}

var laneAddCmd = &cobra.Command{
	Use:   "add NAME",
	Short: "Add a lane at the end of the display order",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withRoadmap(func(s *roadmapSession) error {
			var categoryName, categoryID string
			if laneCategory != "" {
				c, err := resolveCategory(s.store.Snapshot().Settings, laneCategory)
				if err != nil {
					return err
				}
				categoryName, categoryID = c.Name, c.ID
			}

			lane, ok := s.store.AddLane(args[0], categoryName, categoryID, laneDescription)
			if !ok {
				return printer.Error("invalid lane name", "Lane names cannot be blank.", nil)
			}

			printer.Success("Added lane '%s'\n", lane.Name)
			printer.Detail("ID", lane.ID)
			return nil
		})
	},
}

var laneUpdateCmd = &cobra.Command{
	Use:   "update LANE_ID",
	Short: "Update lane fields",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withRoadmap(func(s *roadmapSession) error {
			snapshot := s.store.Snapshot()
			laneID, err := resolveLane(snapshot, args[0])
			if err != nil {
				return err
			}

			var patch state.LanePatch
			flags := cmd.Flags()
			if flags.Changed("name") {
				patch.Name = &laneName
			}
			if flags.Changed("objective") {
				patch.Objective = &laneObjective
			}
			if flags.Changed("description") {
				patch.Description = &laneDescription
			}
			if flags.Changed("order") {
				patch.Order = &laneOrder
			}
			if flags.Changed("category") {
				c, err := resolveCategory(snapshot.Settings, laneCategory)
				if err != nil {
					return err
				}
				patch.Category, patch.CategoryID = &c.Name, &c.ID
			}
			if laneCollapse && laneExpand {
				return printer.Error("conflicting flags", "--collapse and --expand cannot be combined.", nil)
			}
			if laneCollapse || laneExpand {
				collapsed := laneCollapse
				patch.IsCollapsed = &collapsed
			}

			s.store.UpdateLane(laneID, patch)
			printer.Success("Updated lane %s\n", laneID)
			return nil
		})
	},
}

var laneDeleteCmd = &cobra.Command{
	Use:   "delete LANE_ID",
	Short: "Delete a lane and all of its items",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withRoadmap(func(s *roadmapSession) error {
			laneID, err := resolveLane(s.store.Snapshot(), args[0])
			if err != nil {
				return err
			}

			s.store.DeleteLane(laneID)
			printer.Success("Deleted lane %s\n", laneID)
			return nil
		})
	},
}

var laneMoveCmd = &cobra.Command{
	Use:   "move LANE_ID up|down",
	Short: "Swap a lane with its neighbour in display order",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		var direction int
		switch args[1] {
		case "up":
			direction = -1
		case "down":
			direction = 1
		default:
			return printer.Error(
				"invalid direction",
				fmt.Sprintf("Unknown direction: %s", args[1]),
				[]string{"Valid directions: up, down"},
			)
		}

		return withRoadmap(func(s *roadmapSession) error {
			laneID, err := resolveLane(s.store.Snapshot(), args[0])
			if err != nil {
				return err
			}

			if !s.store.MoveLane(laneID, direction) {
				printer.Warning("Lane is already at the %s\n", map[int]string{-1: "top", 1: "bottom"}[direction])
				return nil
			}
			printer.Success("Moved lane %s %s\n", laneID, args[1])
			return nil
		})
	},
}

func init() {
	laneAddCmd.Flags().StringVar(&laneCategory, "category", "", "Category id or name")
	laneAddCmd.Flags().StringVar(&laneDescription, "description", "", "Lane description")

	laneUpdateCmd.Flags().StringVar(&laneName, "name", "", "New name")
	laneUpdateCmd.Flags().StringVar(&laneObjective, "objective", "", "Objective")
	laneUpdateCmd.Flags().StringVar(&laneDescription, "description", "", "Description")
	laneUpdateCmd.Flags().StringVar(&laneCategory, "category", "", "Category id or name")
	laneUpdateCmd.Flags().IntVar(&laneOrder, "order", 0, "Display order")
	laneUpdateCmd.Flags().BoolVar(&laneCollapse, "collapse", false, "Collapse the lane on the board")
	laneUpdateCmd.Flags().BoolVar(&laneExpand, "expand", false, "Expand a collapsed lane")

	laneCmd.AddCommand(laneListCmd, laneAddCmd, laneUpdateCmd, laneDeleteCmd, laneMoveCmd)
	rootCmd.AddCommand(laneCmd)
}
