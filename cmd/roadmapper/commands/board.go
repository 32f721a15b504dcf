package commands

import (
	"fmt"

	"github.com/dyluth/roadmapper/internal/board"
	"github.com/dyluth/roadmapper/internal/calendar"
	"github.com/dyluth/roadmapper/internal/printer"
	"github.com/spf13/cobra"
)

var (
	boardOutputFormat   string
	sprintsOutputFormat string
)

var sprintsCmd = &cobra.Command{
	Use:   "sprints",
	Short: "Show the sprint calendar",
	Long: `Show the sprint calendar derived from the roadmap settings.

Output Formats:
  default - Table of sprint label, first and last day, quarter marker
  json    - JSON array of sprints`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := checkOutputFormat(sprintsOutputFormat); err != nil {
			return err
		}

		return withRoadmap(func(s *roadmapSession) error {
			settings := s.store.Snapshot().Settings
			sprints := calendar.Generate(settings)
			if sprintsOutputFormat == "json" {
				return board.FormatJSON(printer.Out(), sprints)
			}
			return board.FormatSprints(printer.Out(), settings, sprints)
		})
	},
}

var boardCmd = &cobra.Command{
	Use:   "board",
	Short: "Show lanes against the sprint calendar",
	Long: `Show the roadmap board: one row per lane, one column per sprint.

Items appear in every sprint they overlap; "[" marks the sprint an item
starts in and "]" the sprint it ends in. Collapsed lanes show only their
item count. When resource totals are enabled a final row sums the
headcount allocated in each sprint.

Output Formats:
  default - Table
  json    - The whole roadmap document`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := checkOutputFormat(boardOutputFormat); err != nil {
			return err
		}

		return withRoadmap(func(s *roadmapSession) error {
			r := s.store.Snapshot()
			if boardOutputFormat == "json" {
				return board.FormatJSON(printer.Out(), r)
			}

			printer.Step("%s (%s)\n", r.Title, s.projectID)
			return board.FormatBoard(printer.Out(), r, calendar.Generate(r.Settings))
		})
	},
}

func checkOutputFormat(format string) error {
	switch format {
	case "default", "json":
		return nil
	default:
		return printer.Error(
			"invalid output format",
			fmt.Sprintf("Unknown format: %s", format),
			[]string{"Valid formats: default, json"},
		)
	}
}

func init() {
	sprintsCmd.Flags().StringVarP(&sprintsOutputFormat, "output", "o", "default", "Output format (default or json)")
	boardCmd.Flags().StringVarP(&boardOutputFormat, "output", "o", "default", "Output format (default or json)")
	rootCmd.AddCommand(sprintsCmd, boardCmd)
}
