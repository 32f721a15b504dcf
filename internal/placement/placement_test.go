package placement

import (
	"testing"
	"time"

	"github.com/dyluth/roadmapper/internal/calendar"
	"github.com/dyluth/roadmapper/pkg/roadmap"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(y int, m time.Month, d int) *time.Time {
	t := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return &t
}

func item(start, end *time.Time) roadmap.TimelineItem {
	return roadmap.TimelineItem{ID: "it", Title: "Task", StartDate: start, EndDate: end}
}

// Sprint 199: 2026-01-12 .. 2026-02-01, 200: 2026-02-02 .. 2026-02-22
func testSprints() []roadmap.Sprint {
	return calendar.Generate(roadmap.RoadmapSettings{
		SprintStartDate:     "2026-01-12",
		SprintDurationWeeks: 3,
		NumberOfSprints:     4,
		SprintStartNumber:   199,
	})
}

func TestSingleDayItemOnSprintBoundary(t *testing.T) {
	for _, s := range testSprints() {
		start := s.Start
		it := item(&start, &start)

		assert.True(t, IsStart(it, s), "sprint %d", s.Number)
		assert.True(t, IsEnd(it, s), "sprint %d", s.Number)
		assert.True(t, Overlaps(it, s), "sprint %d", s.Number)
	}
}

func TestOverlaps(t *testing.T) {
	sprints := testSprints()
	s199, s200 := sprints[0], sprints[1]

	tests := []struct {
		name string
		item roadmap.TimelineItem
		want map[int]bool
	}{
		{
			name: "inside one sprint",
			item: item(day(2026, 1, 14), day(2026, 1, 20)),
			want: map[int]bool{199: true, 200: false},
		},
		{
			name: "spans boundary",
			item: item(day(2026, 1, 30), day(2026, 2, 3)),
			want: map[int]bool{199: true, 200: true},
		},
		{
			name: "ends on last day of sprint",
			item: item(day(2026, 1, 20), day(2026, 2, 1)),
			want: map[int]bool{199: true, 200: false},
		},
		{
			name: "starts on first day of next sprint",
			item: item(day(2026, 2, 2), day(2026, 2, 5)),
			want: map[int]bool{199: false, 200: true},
		},
		{
			name: "before calendar",
			item: item(day(2025, 12, 1), day(2025, 12, 24)),
			want: map[int]bool{199: false, 200: false},
		},
		{
			name: "inverted range",
			item: item(day(2026, 2, 10), day(2026, 1, 14)),
			want: map[int]bool{199: false, 200: false},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want[199], Overlaps(tt.item, s199))
			assert.Equal(t, tt.want[200], Overlaps(tt.item, s200))
		})
	}
}

func TestStartEnd(t *testing.T) {
	sprints := testSprints()
	it := item(day(2026, 1, 30), day(2026, 2, 3))

	assert.True(t, IsStart(it, sprints[0]))
	assert.False(t, IsEnd(it, sprints[0]))
	assert.False(t, IsStart(it, sprints[1]))
	assert.True(t, IsEnd(it, sprints[1]))

	t.Run("end later on the last day is outside the sprint", func(t *testing.T) {
		end := time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC)
		late := item(day(2026, 1, 20), &end)
		assert.False(t, IsEnd(late, sprints[0]))
	})
}

func TestUnscheduledItemsAreExcluded(t *testing.T) {
	s := testSprints()[0]
	for _, it := range []roadmap.TimelineItem{
		item(nil, nil),
		item(day(2026, 1, 14), nil),
		item(nil, day(2026, 1, 14)),
	} {
		assert.False(t, Overlaps(it, s))
		assert.False(t, IsStart(it, s))
		assert.False(t, IsEnd(it, s))
	}
}

func TestItemsForSprint(t *testing.T) {
	sprints := testSprints()
	lane := roadmap.Lane{ID: "l1", Items: []roadmap.TimelineItem{
		{ID: "a", StartDate: day(2026, 1, 12), EndDate: day(2026, 1, 15)},
		{ID: "b"},
		{ID: "c", StartDate: day(2026, 1, 20), EndDate: day(2026, 2, 10)},
	}}

	got := ItemsForSprint(lane, sprints[0])
	require.Len(t, got, 2)
	assert.Equal(t, "a", got[0].ID)
	assert.Equal(t, "c", got[1].ID)

	got = ItemsForSprint(lane, sprints[1])
	require.Len(t, got, 1)
	assert.Equal(t, "c", got[0].ID)
}

func TestSprintRangeAndRangeDates(t *testing.T) {
	sprints := testSprints()

	start, end, ok := RangeDates(sprints, 200, 201)
	require.True(t, ok)
	assert.Equal(t, *day(2026, 2, 2), start)
	assert.Equal(t, sprints[2].End, end)

	first, last, ok := SprintRange(item(&start, &end), sprints)
	require.True(t, ok)
	assert.Equal(t, 200, first)
	assert.Equal(t, 201, last)

	_, _, ok = RangeDates(sprints, 201, 200)
	assert.False(t, ok)

	_, _, ok = RangeDates(sprints, 199, 400)
	assert.False(t, ok)

	_, _, ok = SprintRange(item(day(2025, 1, 1), day(2026, 1, 13)), sprints)
	assert.False(t, ok, "start outside calendar")
}

func TestResourceTotals(t *testing.T) {
	sprints := testSprints()
	r := &roadmap.Roadmap{Lanes: []roadmap.Lane{
		{ID: "l1", Items: []roadmap.TimelineItem{
			{ID: "a", ResourceAllocation: roadmap.Allocation{199: {"frontend": 2, "backend": 1}}},
			{ID: "b", ResourceAllocation: roadmap.Allocation{199: {"frontend": 1.5}, 200: {"ml": 1}}},
		}},
		{ID: "l2", Items: []roadmap.TimelineItem{
			{ID: "c", ResourceAllocation: roadmap.Allocation{500: {"ux": 3}}},
		}},
	}}

	totals := ResourceTotals(r, sprints)
	require.Len(t, totals, len(sprints))

	assert.Equal(t, 199, totals[0].Sprint.Number)
	assert.Equal(t, []RoleTotal{{Role: "backend", Headcount: 1}, {Role: "frontend", Headcount: 3.5}}, totals[0].Roles)
	assert.Equal(t, 4.5, totals[0].Total())

	assert.Equal(t, []RoleTotal{{Role: "ml", Headcount: 1}}, totals[1].Roles)
	assert.Empty(t, totals[2].Roles)
	assert.Zero(t, totals[3].Total())
}
