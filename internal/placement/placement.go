// Package placement positions timeline items against the sprint calendar.
//
// All functions are pure. Items lacking either date are unscheduled and are
// excluded from every predicate. An item whose start is after its end never
// overlaps anything, although its individual edges may still fall inside a
// sprint.
package placement

import (
	"sort"
	"time"

	"github.com/dyluth/roadmapper/pkg/roadmap"
)

func scheduled(item roadmap.TimelineItem) bool {
	return item.StartDate != nil && item.EndDate != nil
}

func within(t, start, end time.Time) bool {
	return !t.Before(start) && !t.After(end)
}

// Overlaps reports whether the item's closed interval intersects the sprint's.
func Overlaps(item roadmap.TimelineItem, sprint roadmap.Sprint) bool {
	if !scheduled(item) || item.StartDate.After(*item.EndDate) {
		return false
	}
	return !item.StartDate.After(sprint.End) && !sprint.Start.After(*item.EndDate)
}

// IsStart reports whether the item's start date falls inside the sprint.
func IsStart(item roadmap.TimelineItem, sprint roadmap.Sprint) bool {
	if !scheduled(item) {
		return false
	}
	return within(*item.StartDate, sprint.Start, sprint.End)
}

// IsEnd reports whether the item's end date falls inside the sprint.
func IsEnd(item roadmap.TimelineItem, sprint roadmap.Sprint) bool {
	if !scheduled(item) {
		return false
	}
	return within(*item.EndDate, sprint.Start, sprint.End)
}

// ItemsForSprint returns the lane's items overlapping the sprint, in lane order.
func ItemsForSprint(lane roadmap.Lane, sprint roadmap.Sprint) []roadmap.TimelineItem {
	var items []roadmap.TimelineItem
	for _, it := range lane.Items {
		if Overlaps(it, sprint) {
			items = append(items, it)
		}
	}
	return items
}

// SprintRange returns the numbers of the sprints containing the item's start
// and end dates. ok is false when either edge falls outside the calendar.
func SprintRange(item roadmap.TimelineItem, sprints []roadmap.Sprint) (first, last int, ok bool) {
	var foundStart, foundEnd bool
	for _, s := range sprints {
		if !foundStart && IsStart(item, s) {
			first, foundStart = s.Number, true
		}
		if !foundEnd && IsEnd(item, s) {
			last, foundEnd = s.Number, true
		}
	}
	return first, last, foundStart && foundEnd
}

// RangeDates returns item dates spanning sprints from..to inclusive: the
// start of the first and the last day of the second. ok is false when the
// range is inverted or either sprint is not on the calendar.
func RangeDates(sprints []roadmap.Sprint, from, to int) (start, end time.Time, ok bool) {
	if from > to {
		return time.Time{}, time.Time{}, false
	}

	var foundFrom, foundTo bool
	for _, s := range sprints {
		if s.Number == from {
			start, foundFrom = s.Start, true
		}
		if s.Number == to {
			end, foundTo = s.End, true
		}
	}
	return start, end, foundFrom && foundTo
}

// RoleTotal is the summed headcount of one role in one sprint.
type RoleTotal struct {
	Role      string
	Headcount float64
}

// SprintTotals is the per-role headcount allocated in one sprint.
type SprintTotals struct {
	Sprint roadmap.Sprint
	Roles  []RoleTotal // Sorted by role id
}

// Total returns the summed headcount across roles.
func (t SprintTotals) Total() float64 {
	var sum float64
	for _, r := range t.Roles {
		sum += r.Headcount
	}
	return sum
}

// ResourceTotals sums every item's ResourceAllocation per sprint and role.
// One entry is returned per calendar sprint, in calendar order. Allocations
// for sprint numbers outside the calendar are ignored.
func ResourceTotals(r *roadmap.Roadmap, sprints []roadmap.Sprint) []SprintTotals {
	sums := make(map[int]map[string]float64, len(sprints))
	for _, lane := range r.Lanes {
		for _, it := range lane.Items {
			for sprint, roles := range it.ResourceAllocation {
				if sums[sprint] == nil {
					sums[sprint] = map[string]float64{}
				}
				for role, n := range roles {
					sums[sprint][role] += n
				}
			}
		}
	}

	totals := make([]SprintTotals, 0, len(sprints))
	for _, s := range sprints {
		entry := SprintTotals{Sprint: s}
		for role, n := range sums[s.Number] {
			entry.Roles = append(entry.Roles, RoleTotal{Role: role, Headcount: n})
		}
		sort.Slice(entry.Roles, func(i, j int) bool { return entry.Roles[i].Role < entry.Roles[j].Role })
		totals = append(totals, entry)
	}
	return totals
}
