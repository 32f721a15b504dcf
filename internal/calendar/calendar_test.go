package calendar

import (
	"testing"
	"time"

	"github.com/dyluth/roadmapper/pkg/roadmap"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestGenerate_SingleSprint(t *testing.T) {
	settings := roadmap.RoadmapSettings{
		SprintStartDate:     "2026-01-12",
		SprintDurationWeeks: 3,
		NumberOfSprints:     1,
		SprintStartNumber:   199,
	}

	sprints := Generate(settings)

	require.Len(t, sprints, 1)
	assert.Equal(t, 199, sprints[0].Number)
	assert.Equal(t, date(2026, 1, 12), sprints[0].Start)
	assert.Equal(t, date(2026, 2, 1), sprints[0].End)
	assert.Empty(t, sprints[0].Quarter, "quarter markers are off")
}

func TestGenerate_SequentialAndContiguous(t *testing.T) {
	for _, weeks := range []int{1, 2, 3, 4} {
		for _, n := range []int{0, 1, 5, 26} {
			settings := roadmap.RoadmapSettings{
				SprintStartDate:     "2026-01-12T00:00:00.000Z",
				SprintDurationWeeks: weeks,
				NumberOfSprints:     n,
				SprintStartNumber:   42,
			}

			sprints := Generate(settings)
			require.Len(t, sprints, n, "weeks=%d n=%d", weeks, n)

			for i, s := range sprints {
				assert.Equal(t, 42+i, s.Number)
				assert.Equal(t, s.Start.AddDate(0, 0, 7*weeks-1), s.End)
				if i+1 < len(sprints) {
					assert.Equal(t, sprints[i+1].Start.AddDate(0, 0, -1), s.End,
						"sprint %d must end the day before the next one starts", s.Number)
				}
			}
		}
	}
}

func TestGenerate_QuarterMarkers(t *testing.T) {
	settings := roadmap.DefaultSettings()

	t.Run("labels only the fixed sprint numbers", func(t *testing.T) {
		sprints := Generate(settings)
		require.Len(t, sprints, 12)

		labels := map[int]string{}
		for _, s := range sprints {
			if s.Quarter != "" {
				labels[s.Number] = s.Quarter
			}
		}
		assert.Equal(t, map[int]string{199: "Q1", 203: "Q2", 207: "Q3"}, labels)
	})

	t.Run("no labels when markers are hidden", func(t *testing.T) {
		settings.ShowQuarterMarkers = false
		for _, s := range Generate(settings) {
			assert.Empty(t, s.Quarter)
		}
	})

	t.Run("numbering scheme that misses the fixed numbers gets no labels", func(t *testing.T) {
		settings.ShowQuarterMarkers = true
		settings.SprintStartNumber = 1
		for _, s := range Generate(settings) {
			assert.Empty(t, s.Quarter)
		}
	})
}

func TestGenerate_Degenerate(t *testing.T) {
	t.Run("negative count", func(t *testing.T) {
		assert.Empty(t, Generate(roadmap.RoadmapSettings{SprintStartDate: "2026-01-12", NumberOfSprints: -3}))
	})

	t.Run("bad start date", func(t *testing.T) {
		assert.Empty(t, Generate(roadmap.RoadmapSettings{SprintStartDate: "soon", NumberOfSprints: 3, SprintDurationWeeks: 2}))
	})
}

func TestLabelAndFind(t *testing.T) {
	settings := roadmap.DefaultSettings()
	sprints := Generate(settings)

	s, ok := FindByNumber(sprints, 201)
	require.True(t, ok)
	assert.Equal(t, "S-201", Label(settings, s))

	_, ok = FindByNumber(sprints, 999)
	assert.False(t, ok)
}
