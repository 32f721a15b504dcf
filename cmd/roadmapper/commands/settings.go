package commands

import (
	"fmt"
	"time"

	"github.com/dyluth/roadmapper/internal/board"
	"github.com/dyluth/roadmapper/internal/datespec"
	"github.com/dyluth/roadmapper/internal/printer"
	"github.com/dyluth/roadmapper/pkg/roadmap"
	"github.com/spf13/cobra"
)

var (
	settingsPrefix      string
	settingsStartNumber int
	settingsDuration    int
	settingsStartDate   string
	settingsSprints     int
	settingsQuarters    bool
	settingsTotals      bool
	settingsTheme       string
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Show or change the sprint cadence and display flags",
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the settings as JSON",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withRoadmap(func(s *roadmapSession) error {
			return board.FormatJSON(printer.Out(), s.store.Snapshot().Settings)
		})
	},
}

var settingsSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Change settings",
	Long: `Change settings. Flags not given keep their current value; the
resulting settings replace the old ones as a whole, and the sprint calendar
is regenerated from them.

Examples:
  roadmapper settings set --start-date 2026-01-12 --duration 2 --sprints 18
  roadmapper settings set --prefix "Sprint " --start-number 1
  roadmapper settings set --totals=false --theme light`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withRoadmap(func(s *roadmapSession) error {
			next := s.store.Snapshot().Settings.Clone()
			flags := cmd.Flags()

			if flags.Changed("prefix") {
				next.SprintPrefix = settingsPrefix
			}
			if flags.Changed("start-number") {
				next.SprintStartNumber = settingsStartNumber
			}
			if flags.Changed("duration") {
				if settingsDuration < 1 {
					return printer.Error("invalid duration", "Sprint duration must be at least one week.", nil)
				}
				next.SprintDurationWeeks = settingsDuration
			}
			if flags.Changed("start-date") {
				t, err := datespec.Parse(settingsStartDate)
				if err != nil {
					return printer.Error("invalid start date", err.Error(), nil)
				}
				next.SprintStartDate = t.Format(time.RFC3339)
			}
			if flags.Changed("sprints") {
				if settingsSprints < 0 {
					return printer.Error("invalid sprint count", "Number of sprints cannot be negative.", nil)
				}
				next.NumberOfSprints = settingsSprints
			}
			if flags.Changed("quarters") {
				next.ShowQuarterMarkers = settingsQuarters
			}
			if flags.Changed("totals") {
				next.ShowResourceTotals = settingsTotals
			}
			if flags.Changed("theme") {
				theme := roadmap.Theme(settingsTheme)
				if theme != roadmap.ThemeDark && theme != roadmap.ThemeLight {
					return printer.Error("invalid theme", fmt.Sprintf("Unknown theme: %s", settingsTheme), []string{"Valid themes: dark, light"})
				}
				next.Theme = theme
			}

			s.store.UpdateSettings(next)
			printer.Success("Settings updated\n")
			return nil
		})
	},
}

var titleCmd = &cobra.Command{
	Use:   "title TITLE",
	Short: "Rename the roadmap",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withRoadmap(func(s *roadmapSession) error {
			s.store.UpdateTitle(args[0])
			printer.Success("Renamed roadmap to '%s'\n", args[0])
			return nil
		})
	},
}

func init() {
	settingsSetCmd.Flags().StringVar(&settingsPrefix, "prefix", "", "Sprint label prefix, e.g. S-")
	settingsSetCmd.Flags().IntVar(&settingsStartNumber, "start-number", 0, "Number of the first sprint")
	settingsSetCmd.Flags().IntVar(&settingsDuration, "duration", 0, "Sprint length in weeks")
	settingsSetCmd.Flags().StringVar(&settingsStartDate, "start-date", "", "Start of the first sprint (YYYY-MM-DD or RFC3339)")
	settingsSetCmd.Flags().IntVar(&settingsSprints, "sprints", 0, "Number of sprints on the calendar")
	settingsSetCmd.Flags().BoolVar(&settingsQuarters, "quarters", false, "Show quarter markers")
	settingsSetCmd.Flags().BoolVar(&settingsTotals, "totals", false, "Show the resource totals row")
	settingsSetCmd.Flags().StringVar(&settingsTheme, "theme", "", "Theme: dark or light")

	settingsCmd.AddCommand(settingsShowCmd, settingsSetCmd)
	rootCmd.AddCommand(settingsCmd, titleCmd)
}
