package commands

import (
	"fmt"
	"time"

	"github.com/dyluth/roadmapper/internal/board"
	"github.com/dyluth/roadmapper/internal/calendar"
	"github.com/dyluth/roadmapper/internal/datespec"
	"github.com/dyluth/roadmapper/internal/placement"
	"github.com/dyluth/roadmapper/internal/printer"
	"github.com/dyluth/roadmapper/internal/state"
	"github.com/dyluth/roadmapper/pkg/roadmap"
	"github.com/spf13/cobra"
)

var (
	itemTitle        string
	itemDescription  string
	itemStatus       string
	itemStart        string
	itemEnd          string
	itemSprints      string
	itemSprint       string
	itemType         string
	itemShortName    string
	itemCost         float64
	itemHighValue    bool
	itemRevenue      bool
	itemResources    string
	itemDependencies string
	itemUnschedule   bool

	allocSprint    string
	allocRole      string
	allocHeadcount float64
)

var itemCmd = &cobra.Command{
	Use:   "item",
	Short: "Manage timeline items",
	Long: `Manage the timeline items of the current project's roadmap.

Items are placed on every sprint their dates overlap. Dates are given as
YYYY-MM-DD or RFC3339, or derived from a sprint range with --sprints.
Item and lane IDs may be shortened to any unique prefix.

Examples:
  # Quick add a "New Task" spanning sprint S-201
  roadmapper item add 3f2a9c --sprint S-201

  # Add a titled item spanning three sprints
  roadmapper item add 3f2a9c --title "Auto-crop" --sprints 201:203

  # Reschedule, then plan two FE engineers in sprint 202
  roadmapper item update 7c11e0 --start 2026-03-02 --end 2026-03-20
  roadmapper item alloc 7c11e0 --sprint 202 --role FE --headcount 2`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
}

var itemListCmd = &cobra.Command{
	Use:   "list [LANE_ID]",
	Short: "List items, optionally of a single lane",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withRoadmap(func(s *roadmapSession) error {
			r := s.store.Snapshot()
			sprints := calendar.Generate(r.Settings)

			lanes := state.SortedLanes(r)
			if len(args) == 1 {
				laneID, err := resolveLane(r, args[0])
				if err != nil {
					return err
				}
				for _, l := range lanes {
					if l.ID == laneID {
						return board.FormatItems(printer.Out(), l, r.Settings, sprints)
					}
				}
			}

			if len(lanes) == 0 {
				printer.Info("No lanes yet\n")
				return nil
			}
			for _, l := range lanes {
				printer.Step("%s\n", l.Name)
				if err := board.FormatItems(printer.Out(), l, r.Settings, sprints); err != nil {
					return err
				}
			}
			return nil
		})
	},
}

var itemShowCmd = &cobra.Command{
	Use:   "show ITEM_ID",
	Short: "Print an item as JSON",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withRoadmap(func(s *roadmapSession) error {
			r := s.store.Snapshot()
			laneID, itemID, err := resolveItem(r, args[0])
			if err != nil {
				return err
			}
			for _, l := range r.Lanes {
				if l.ID != laneID {
					continue
				}
				for _, it := range l.Items {
					if it.ID == itemID {
						return board.FormatJSON(printer.Out(), it)
					}
				}
			}
			return nil
		})
	},
}

var itemAddCmd = &cobra.Command{
	Use:   "add LANE_ID",
	Short: "Add an item to a lane",
	Long: `Add an item to a lane.

Without --title a "New Task" is added spanning one sprint (--sprint, or the
first sprint of the calendar), typed after the lane's category.
With --title the item takes the given fields; dates come from --start/--end
or --sprints and may be omitted for an unscheduled item.`,
	Args: cobra.ExactArgs(1),
	RunE: runItemAdd,
}

func runItemAdd(cmd *cobra.Command, args []string) error {
	return withRoadmap(func(s *roadmapSession) error {
		r := s.store.Snapshot()
		laneID, err := resolveLane(r, args[0])
		if err != nil {
			return err
		}

		var item roadmap.TimelineItem
		var ok bool

		if !cmd.Flags().Changed("title") {
			index := 0
			if itemSprint != "" {
				index, err = sprintIndex(r.Settings, itemSprint)
				if err != nil {
					return err
				}
			}
			item, ok = s.store.AddItem(laneID, index)
			if !ok {
				return printer.Error(
					"no sprints configured",
					"The calendar is empty, so there is no sprint to place the item on.",
					[]string{"Configure sprints:\n  roadmapper settings set --sprints 12"},
				)
			}
		} else {
			start, end, err := itemDates(r.Settings)
			if err != nil {
				return err
			}

			fields := roadmap.TimelineItem{
				Title:          itemTitle,
				Description:    itemDescription,
				Status:         itemStatus,
				StartDate:      start,
				EndDate:        end,
				ShortName:      itemShortName,
				IsHighValue:    itemHighValue,
				IsRevenueMaker: itemRevenue,
				ResourceIDs:    splitList(itemResources),
				DependencyIDs:  splitList(itemDependencies),
			}
			if cmd.Flags().Changed("cost") {
				cost := itemCost
				fields.OperationalCost = &cost
			}
			if itemType != "" {
				fields.Type = roadmap.ItemType(itemType)
			} else {
				for _, l := range r.Lanes {
					if l.ID == laneID {
						fields.Type = roadmap.ItemTypeForCategory(l.CategoryID)
					}
				}
			}

			item, ok = s.store.AddItemToLane(laneID, fields)
			if !ok {
				return printer.Error("lane not found", fmt.Sprintf("Lane %s no longer exists.", laneID), nil)
			}
			warnInverted(item.StartDate, item.EndDate)
		}

		printer.Success("Added item '%s'\n", item.Title)
		printer.Detail("ID", item.ID)
		return nil
	})
}

var itemUpdateCmd = &cobra.Command{
	Use:   "update ITEM_ID",
	Short: "Update item fields",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withRoadmap(func(s *roadmapSession) error {
			r := s.store.Snapshot()
			laneID, itemID, err := resolveItem(r, args[0])
			if err != nil {
				return err
			}

			patch, err := itemPatchFromFlags(cmd, r.Settings)
			if err != nil {
				return err
			}

			s.store.UpdateItem(laneID, itemID, patch)
			warnInverted(patch.StartDate, patch.EndDate)
			printer.Success("Updated item %s\n", itemID)
			return nil
		})
	},
}

var itemDeleteCmd = &cobra.Command{
	Use:   "delete ITEM_ID",
	Short: "Delete an item",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withRoadmap(func(s *roadmapSession) error {
			laneID, itemID, err := resolveItem(s.store.Snapshot(), args[0])
			if err != nil {
				return err
			}

			s.store.DeleteItem(laneID, itemID)
			printer.Success("Deleted item %s\n", itemID)
			return nil
		})
	},
}

var itemAllocCmd = &cobra.Command{
	Use:   "alloc ITEM_ID",
	Short: "Set the headcount of a role in one sprint of an item",
	Long: `Set the headcount of a role in one sprint of an item.
A headcount of 0 removes the allocation.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		role := roadmap.ResourceRole(allocRole)
		if err := role.Validate(); err != nil {
			return printer.Error("invalid role", err.Error(), []string{fmt.Sprintf("Valid roles: %v", roadmap.Roles)})
		}
		if allocHeadcount < 0 {
			return printer.Error("invalid headcount", "Headcount cannot be negative.", nil)
		}

		return withRoadmap(func(s *roadmapSession) error {
			r := s.store.Snapshot()
			laneID, itemID, err := resolveItem(r, args[0])
			if err != nil {
				return err
			}

			number, err := datespec.ParseSprint(allocSprint, r.Settings.SprintPrefix)
			if err != nil {
				return printer.Error("invalid sprint", err.Error(), nil)
			}

			s.store.SetAllocation(laneID, itemID, number, allocRole, allocHeadcount)
			printer.Success("Set %s headcount to %g in %s%d\n", allocRole, allocHeadcount, r.Settings.SprintPrefix, number)
			return nil
		})
	},
}

// itemPatchFromFlags builds a patch from the flags that were set.
func itemPatchFromFlags(cmd *cobra.Command, settings roadmap.RoadmapSettings) (state.ItemPatch, error) {
	var patch state.ItemPatch
	flags := cmd.Flags()

	if flags.Changed("title") {
		patch.Title = &itemTitle
	}
	if flags.Changed("description") {
		patch.Description = &itemDescription
	}
	if flags.Changed("status") {
		patch.Status = &itemStatus
	}
	if flags.Changed("type") {
		t := roadmap.ItemType(itemType)
		patch.Type = &t
	}
	if flags.Changed("short-name") {
		patch.ShortName = &itemShortName
	}
	if flags.Changed("cost") {
		patch.OperationalCost = &itemCost
	}
	if flags.Changed("high-value") {
		patch.IsHighValue = &itemHighValue
	}
	if flags.Changed("revenue") {
		patch.IsRevenueMaker = &itemRevenue
	}
	if flags.Changed("resources") {
		patch.ResourceIDs = splitList(itemResources)
	}
	if flags.Changed("depends-on") {
		patch.DependencyIDs = splitList(itemDependencies)
	}

	if itemUnschedule {
		patch.Unschedule = true
		return patch, nil
	}

	start, end, err := itemDates(settings)
	if err != nil {
		return patch, err
	}
	patch.StartDate, patch.EndDate = start, end
	return patch, nil
}

// itemDates reads --sprints, or --start and --end. Unset dates are nil.
func itemDates(settings roadmap.RoadmapSettings) (*time.Time, *time.Time, error) {
	if itemSprints != "" {
		if itemStart != "" || itemEnd != "" {
			return nil, nil, printer.Error("conflicting flags", "--sprints cannot be combined with --start or --end.", nil)
		}

		from, to, err := datespec.ParseSprintRange(itemSprints, settings.SprintPrefix)
		if err != nil {
			return nil, nil, printer.Error("invalid sprint range", err.Error(), nil)
		}
		start, end, ok := placement.RangeDates(calendar.Generate(settings), from, to)
		if !ok {
			return nil, nil, printer.Error(
				"sprint not on calendar",
				fmt.Sprintf("Sprints %s are not all on the calendar.", itemSprints),
				[]string{"List sprints:\n  roadmapper sprints"},
			)
		}
		return &start, &end, nil
	}

	start, end, err := datespec.ParseRange(itemStart, itemEnd)
	if err != nil {
		return nil, nil, printer.Error("invalid date", err.Error(), nil)
	}
	return start, end, nil
}

// sprintIndex returns the calendar position of a sprint reference.
func sprintIndex(settings roadmap.RoadmapSettings, ref string) (int, error) {
	number, err := datespec.ParseSprint(ref, settings.SprintPrefix)
	if err != nil {
		return 0, printer.Error("invalid sprint", err.Error(), nil)
	}
	for i, s := range calendar.Generate(settings) {
		if s.Number == number {
			return i, nil
		}
	}
	return 0, printer.Error(
		"sprint not on calendar",
		fmt.Sprintf("Sprint %s%d is not on the calendar.", settings.SprintPrefix, number),
		[]string{"List sprints:\n  roadmapper sprints"},
	)
}

// warnInverted flags an end date before the start date. Such items are
// kept but never placed on the board.
func warnInverted(start, end *time.Time) {
	if start != nil && end != nil && end.Before(*start) {
		printer.Warning("End date %s is before start date %s; the item will not appear on the board\n",
			end.Format(time.DateOnly), start.Format(time.DateOnly))
	}
}

func addItemFieldFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&itemTitle, "title", "", "Title")
	cmd.Flags().StringVar(&itemDescription, "description", "", "Description")
	cmd.Flags().StringVar(&itemStatus, "status", "", "Free-form status")
	cmd.Flags().StringVar(&itemStart, "start", "", "Start date (YYYY-MM-DD or RFC3339)")
	cmd.Flags().StringVar(&itemEnd, "end", "", "End date (YYYY-MM-DD or RFC3339)")
	cmd.Flags().StringVar(&itemSprints, "sprints", "", "Sprint range, e.g. 201 or 201:203")
	cmd.Flags().StringVar(&itemType, "type", "", "Item type (default derived from the lane category)")
	cmd.Flags().StringVar(&itemShortName, "short-name", "", "Short label shown on the board")
	cmd.Flags().Float64Var(&itemCost, "cost", 0, "Operational cost")
	cmd.Flags().BoolVar(&itemHighValue, "high-value", false, "Mark as high value")
	cmd.Flags().BoolVar(&itemRevenue, "revenue", false, "Mark as revenue maker")
	cmd.Flags().StringVar(&itemResources, "resources", "", "Comma-separated resource ids")
	cmd.Flags().StringVar(&itemDependencies, "depends-on", "", "Comma-separated item ids")
}

func init() {
	addItemFieldFlags(itemAddCmd)
	itemAddCmd.Flags().StringVar(&itemSprint, "sprint", "", "Sprint of a quick-added item (default first sprint)")

	addItemFieldFlags(itemUpdateCmd)
	itemUpdateCmd.Flags().BoolVar(&itemUnschedule, "unschedule", false, "Clear both dates")

	itemAllocCmd.Flags().StringVar(&allocSprint, "sprint", "", "Sprint number, e.g. 201 or S-201")
	itemAllocCmd.Flags().StringVar(&allocRole, "role", "", "Role: FE, BE, ML, UX, DevOps, QA, Product, Design")
	itemAllocCmd.Flags().Float64Var(&allocHeadcount, "headcount", 0, "Headcount (0 removes the allocation)")
	itemAllocCmd.MarkFlagRequired("sprint")
	itemAllocCmd.MarkFlagRequired("role")
	itemAllocCmd.MarkFlagRequired("headcount")

	itemCmd.AddCommand(itemListCmd, itemShowCmd, itemAddCmd, itemUpdateCmd, itemDeleteCmd, itemAllocCmd)
	rootCmd.AddCommand(itemCmd)
}
