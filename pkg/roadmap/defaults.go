package roadmap

import (
	"time"

	"github.com/google/uuid"
)

// DefaultCategories is the category palette of a new roadmap.
func DefaultCategories() []LaneCategory {
	return []LaneCategory{
		{ID: "smart-img", Name: "Smart Image", Color: "#3fb950", BgColor: "rgba(63, 185, 80, 0.15)", Order: 1},
		{ID: "ai-related", Name: "AI / ML", Color: "#58a6ff", BgColor: "rgba(88, 166, 255, 0.15)", Order: 2},
		{ID: "one-off", Name: "One-off", Color: "#f78166", BgColor: "rgba(247, 129, 102, 0.15)", Order: 3},
		{ID: "ongoing", Name: "Ongoing", Color: "#a371f7", BgColor: "rgba(163, 113, 247, 0.15)", Order: 4},
	}
}

// DefaultSettings returns the sprint cadence of a new roadmap: twelve
// three-week sprints numbered from 199, starting 2026-01-12.
func DefaultSettings() RoadmapSettings {
	return RoadmapSettings{
		SprintPrefix:        "S-",
		SprintStartNumber:   199,
		SprintDurationWeeks: 3,
		SprintStartDate:     "2026-01-12T00:00:00.000Z",
		NumberOfSprints:     12,
		ShowQuarterMarkers:  true,
		ShowResourceTotals:  true,
		Theme:               ThemeDark,
		Categories:          DefaultCategories(),
	}
}

// NewDefault returns an empty roadmap with default settings, stamped with now.
func NewDefault(now time.Time) *Roadmap {
	now = now.UTC()
	return &Roadmap{
		ID:          uuid.New().String(),
		Title:       "Vision 2026 Roadmap",
		Description: "Varsity Yearbook — eDesign Platform Evolution",
		CreatedAt:   now,
		UpdatedAt:   now,
		Settings:    DefaultSettings(),
		Lanes:       []Lane{},
		Resources:   []Resource{},
	}
}
