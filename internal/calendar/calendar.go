// Package calendar derives the sprint calendar from roadmap settings.
package calendar

import (
	"fmt"

	"github.com/dyluth/roadmapper/internal/datespec"
	"github.com/dyluth/roadmapper/pkg/roadmap"
)

// quarterMarkers labels the first sprint of each quarter. The mapping is tied
// to the 2026 numbering scheme and is not derived from dates.
var quarterMarkers = map[int]string{
	199: "Q1",
	203: "Q2",
	207: "Q3",
}

// Generate returns NumberOfSprints sequential, non-overlapping sprints.
// Sprint i starts the day after sprint i-1 ends and lasts
// SprintDurationWeeks weeks; End is the inclusive last calendar day.
// Returns an empty calendar for a non-positive count or an unparseable
// start date.
func Generate(settings roadmap.RoadmapSettings) []roadmap.Sprint {
	if settings.NumberOfSprints <= 0 {
		return []roadmap.Sprint{}
	}

	start, err := datespec.Parse(settings.SprintStartDate)
	if err != nil {
		return []roadmap.Sprint{}
	}

	sprints := make([]roadmap.Sprint, 0, settings.NumberOfSprints)
	number := settings.SprintStartNumber

	for i := 0; i < settings.NumberOfSprints; i++ {
		end := start.AddDate(0, 0, 7*settings.SprintDurationWeeks-1)

		var quarter string
		if settings.ShowQuarterMarkers {
			quarter = quarterMarkers[number]
		}

		sprints = append(sprints, roadmap.Sprint{
			Number:  number,
			Start:   start,
			End:     end,
			Quarter: quarter,
		})

		start = end.AddDate(0, 0, 1)
		number++
	}

	return sprints
}

// Label returns the display name of a sprint, e.g. "S-199".
func Label(settings roadmap.RoadmapSettings, sprint roadmap.Sprint) string {
	return fmt.Sprintf("%s%d", settings.SprintPrefix, sprint.Number)
}

// FindByNumber returns the sprint with the given number.
func FindByNumber(sprints []roadmap.Sprint, number int) (roadmap.Sprint, bool) {
	for _, s := range sprints {
		if s.Number == number {
			return s, true
		}
	}
	return roadmap.Sprint{}, false
}
