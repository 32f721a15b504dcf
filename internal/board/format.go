// Package board renders the sprint calendar, lanes, items and resources of
// a roadmap as text tables and JSON.
package board

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/dyluth/roadmapper/internal/calendar"
	"github.com/dyluth/roadmapper/internal/placement"
	"github.com/dyluth/roadmapper/internal/state"
	"github.com/dyluth/roadmapper/pkg/roadmap"
	"github.com/olekukonko/tablewriter"
)

const dateLayout = "2006-01-02"

// render writes a table with the given header and rows.
func render(w io.Writer, header []string, rows [][]string) error {
	table := tablewriter.NewWriter(w)

	cells := make([]any, len(header))
	for i, h := range header {
		cells[i] = h
	}
	table.Header(cells...)

	if err := table.Bulk(rows); err != nil {
		return fmt.Errorf("failed to build table: %w", err)
	}
	if err := table.Render(); err != nil {
		return fmt.Errorf("failed to render table: %w", err)
	}
	return nil
}

// FormatSprints writes the sprint calendar as a table.
func FormatSprints(w io.Writer, settings roadmap.RoadmapSettings, sprints []roadmap.Sprint) error {
	if len(sprints) == 0 {
		fmt.Fprintln(w, "No sprints configured")
		return nil
	}

	rows := make([][]string, 0, len(sprints))
	for _, s := range sprints {
		rows = append(rows, []string{
			calendar.Label(settings, s),
			s.Start.Format(dateLayout),
			s.End.Format(dateLayout),
			orDash(s.Quarter),
		})
	}
	return render(w, []string{"Sprint", "Start", "End", "Quarter"}, rows)
}

// FormatBoard writes lanes as rows and sprints as columns. Each cell lists
// the items overlapping the sprint, bracketed where they start ("[") and
// end ("]"). When the settings ask for it, a final row sums the resource
// allocation of each sprint.
func FormatBoard(w io.Writer, r *roadmap.Roadmap, sprints []roadmap.Sprint) error {
	if len(sprints) == 0 {
		fmt.Fprintln(w, "No sprints configured")
		return nil
	}

	header := []string{"Lane"}
	for _, s := range sprints {
		label := calendar.Label(r.Settings, s)
		if s.Quarter != "" {
			label += " " + s.Quarter
		}
		header = append(header, label)
	}

	lanes := state.SortedLanes(r)
	rows := make([][]string, 0, len(lanes)+1)
	for _, lane := range lanes {
		row := []string{lane.Name}
		for _, s := range sprints {
			if lane.IsCollapsed {
				row = append(row, fmt.Sprintf("(%d)", len(placement.ItemsForSprint(lane, s))))
				continue
			}
			row = append(row, formatCell(lane, s))
		}
		rows = append(rows, row)
	}

	if r.Settings.ShowResourceTotals {
		row := []string{"Headcount"}
		for _, t := range placement.ResourceTotals(r, sprints) {
			row = append(row, formatHeadcount(t.Total()))
		}
		rows = append(rows, row)
	}

	return render(w, header, rows)
}

func formatCell(lane roadmap.Lane, sprint roadmap.Sprint) string {
	items := placement.ItemsForSprint(lane, sprint)
	if len(items) == 0 {
		return ""
	}

	parts := make([]string, 0, len(items))
	for _, it := range items {
		name := itemLabel(it)
		if placement.IsStart(it, sprint) {
			name = "[" + name
		}
		if placement.IsEnd(it, sprint) {
			name += "]"
		}
		parts = append(parts, name)
	}
	return strings.Join(parts, "\n")
}

// itemLabel prefers the short name and truncates long titles.
func itemLabel(it roadmap.TimelineItem) string {
	if it.ShortName != "" {
		return it.ShortName
	}
	if len(it.Title) > 16 {
		return it.Title[:13] + "..."
	}
	return it.Title
}

// FormatLanes writes the lanes of a roadmap in display order.
func FormatLanes(w io.Writer, r *roadmap.Roadmap) error {
	lanes := state.SortedLanes(r)
	if len(lanes) == 0 {
		fmt.Fprintln(w, "No lanes yet")
		return nil
	}

	rows := make([][]string, 0, len(lanes))
	for _, l := range lanes {
		rows = append(rows, []string{
			formatID(l.ID),
			strconv.Itoa(l.Order),
			l.Name,
			orDash(l.Category),
			strconv.Itoa(len(l.Items)),
		})
	}
	return render(w, []string{"ID", "Order", "Name", "Category", "Items"}, rows)
}

// FormatItems writes the items of a lane with their sprint range.
func FormatItems(w io.Writer, lane roadmap.Lane, settings roadmap.RoadmapSettings, sprints []roadmap.Sprint) error {
	if len(lane.Items) == 0 {
		fmt.Fprintf(w, "No items in lane '%s'\n", lane.Name)
		return nil
	}

	rows := make([][]string, 0, len(lane.Items))
	for _, it := range lane.Items {
		rows = append(rows, []string{
			formatID(it.ID),
			it.Title,
			orDash(string(it.Type)),
			formatDate(it.StartDate),
			formatDate(it.EndDate),
			formatSprintRange(it, settings, sprints),
		})
	}
	return render(w, []string{"ID", "Title", "Type", "Start", "End", "Sprints"}, rows)
}

// FormatResources writes the global resource list.
func FormatResources(w io.Writer, resources []roadmap.Resource) error {
	if len(resources) == 0 {
		fmt.Fprintln(w, "No resources yet")
		return nil
	}

	rows := make([][]string, 0, len(resources))
	for _, res := range resources {
		rows = append(rows, []string{
			formatID(res.ID),
			res.Name,
			string(res.Role),
			strconv.FormatFloat(res.HourlyRate, 'f', -1, 64),
		})
	}
	return render(w, []string{"ID", "Name", "Role", "Rate"}, rows)
}

// FormatJSON writes v as pretty-printed JSON.
func FormatJSON(w io.Writer, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("failed to write JSON output: %w", err)
	}
	fmt.Fprintln(w)
	return nil
}

// formatID truncates ids to their first 8 characters for compact display.
func formatID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func formatDate(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return t.Format(dateLayout)
}

// formatSprintRange shows "S-199..S-201", or "-" when the item is
// unscheduled or falls outside the calendar.
func formatSprintRange(it roadmap.TimelineItem, settings roadmap.RoadmapSettings, sprints []roadmap.Sprint) string {
	first, last, ok := placement.SprintRange(it, sprints)
	if !ok {
		return "-"
	}
	from := settings.SprintPrefix + strconv.Itoa(first)
	if first == last {
		return from
	}
	return from + ".." + settings.SprintPrefix + strconv.Itoa(last)
}

func formatHeadcount(n float64) string {
	if n == 0 {
		return "-"
	}
	return strconv.FormatFloat(n, 'f', -1, 64)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
