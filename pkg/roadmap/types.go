package roadmap

import (
	"fmt"
	"time"
)

// Roadmap is the root aggregate. It exclusively owns its settings, lanes,
// items and resources.
type Roadmap struct {
	ID          string          `json:"id"`
	Title       string          `json:"title"`
	Description string          `json:"description,omitempty"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"` // Sole ordering field between concurrent versions
	Settings    RoadmapSettings `json:"settings"`
	Lanes       []Lane          `json:"lanes"`     // Tracks
	Resources   []Resource      `json:"resources"` // Global resources available to items
}

// RoadmapSettings holds sprint cadence parameters and display flags.
// Settings are an immutable snapshot replaced wholesale on edit.
type RoadmapSettings struct {
	SprintPrefix        string         `json:"sprintPrefix"`
	SprintStartNumber   int            `json:"sprintStartNumber"`
	SprintDurationWeeks int            `json:"sprintDurationWeeks"`
	SprintStartDate     string         `json:"sprintStartDate"` // YYYY-MM-DD or RFC3339
	NumberOfSprints     int            `json:"numberOfSprints"`
	ShowQuarterMarkers  bool           `json:"showQuarterMarkers"`
	ShowResourceTotals  bool           `json:"showResourceTotals"`
	Theme               Theme          `json:"theme"`
	Categories          []LaneCategory `json:"categories"`
}

// Theme is the display theme of the roadmap.
type Theme string

const (
	ThemeDark  Theme = "dark"
	ThemeLight Theme = "light"
)

// LaneCategory is an entry of the category palette.
type LaneCategory struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Color   string `json:"color"`
	BgColor string `json:"bgColor"`
	Order   int    `json:"order"`
}

// Lane is a horizontal grouping of scheduled items (a track).
type Lane struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	Objective   string         `json:"objective,omitempty"`
	Category    string         `json:"category,omitempty"`
	CategoryID  string         `json:"categoryId,omitempty"`
	Description string         `json:"description,omitempty"`
	Order       int            `json:"order"` // Display order, ties broken by collection order
	IsCollapsed bool           `json:"isCollapsed,omitempty"`
	Items       []TimelineItem `json:"items"`
}

// TimelineItem is a scheduled piece of work inside a lane.
// Items without both dates are unscheduled and never placed on the calendar.
type TimelineItem struct {
	ID              string     `json:"id"`
	Title           string     `json:"title"`
	Description     string     `json:"description,omitempty"`
	Status          string     `json:"status,omitempty"`
	StartDate       *time.Time `json:"startDate,omitempty"`
	EndDate         *time.Time `json:"endDate,omitempty"`
	Type            ItemType   `json:"type,omitempty"`
	ResourceIDs     []string   `json:"resourceIds"`
	DependencyIDs   []string   `json:"dependencyIds"` // Not validated: no cycle or existence checks
	OperationalCost *float64   `json:"operationalCost,omitempty"`
	IsHighValue     bool       `json:"isHighValue,omitempty"`
	IsRevenueMaker  bool       `json:"isRevenueMaker,omitempty"`
	ShortName       string     `json:"shortName,omitempty"`

	// Sparse allocation: sprint number -> role id -> headcount
	ResourceAllocation Allocation `json:"resourceAllocation,omitempty"`
}

// Allocation maps sprint numbers to per-role headcount.
type Allocation map[int]map[string]float64

// ItemType is the category-derived type of an item.
type ItemType string

const (
	ItemTypeSmartImg  ItemType = "smart-img"
	ItemTypeAIRelated ItemType = "ai-related"
	ItemTypeOneOff    ItemType = "one-off"
	ItemTypeOngoing   ItemType = "ongoing"
	ItemTypeRevenue   ItemType = "revenue"
)

// categoryNameTypes maps display category names to item types. Category ids
// that are already item types map to themselves.
var categoryNameTypes = map[string]ItemType{
	"Smart Image": ItemTypeSmartImg,
	"AI / ML":     ItemTypeAIRelated,
	"One-off":     ItemTypeOneOff,
	"Ongoing":     ItemTypeOngoing,
	"Revenue":     ItemTypeRevenue,
}

// ItemTypeForCategory derives an item type from a lane's category id or name.
// Unknown non-empty values pass through unchanged; empty yields smart-img.
func ItemTypeForCategory(category string) ItemType {
	if t, ok := categoryNameTypes[category]; ok {
		return t
	}
	if category == "" {
		return ItemTypeSmartImg
	}
	return ItemType(category)
}

// Resource is a person or capacity that can be attached to items.
type Resource struct {
	ID         string       `json:"id"`
	Name       string       `json:"name"`
	Role       ResourceRole `json:"role"`
	Avatar     string       `json:"avatar,omitempty"`
	HourlyRate float64      `json:"hourlyRate"`
}

// ResourceRole is one of a fixed set of roles.
type ResourceRole string

const (
	RoleFE      ResourceRole = "FE"
	RoleBE      ResourceRole = "BE"
	RoleML      ResourceRole = "ML"
	RoleUX      ResourceRole = "UX"
	RoleDevOps  ResourceRole = "DevOps"
	RoleQA      ResourceRole = "QA"
	RoleProduct ResourceRole = "Product"
	RoleDesign  ResourceRole = "Design"
)

// Roles lists every valid resource role in display order.
var Roles = []ResourceRole{RoleFE, RoleBE, RoleML, RoleUX, RoleDevOps, RoleQA, RoleProduct, RoleDesign}

// Validate checks that the role is one of the known roles.
func (r ResourceRole) Validate() error {
	for _, known := range Roles {
		if r == known {
			return nil
		}
	}
	return fmt.Errorf("invalid resource role: %q", string(r))
}

// Sprint is a derived calendar period. Sprints are never stored; they are
// regenerated from settings on every read.
type Sprint struct {
	Number  int       `json:"number"`
	Start   time.Time `json:"start"`
	End     time.Time `json:"end"` // Inclusive last calendar day
	Quarter string    `json:"quarter,omitempty"`
}

// User is a project member credential record.
type User struct {
	Username  string `json:"username"`
	Password  string `json:"password,omitempty"`
	ProjectID string `json:"projectId"`
}

// Validate checks that every field of the credential record is present.
func (u *User) Validate() error {
	if u.Username == "" || u.Password == "" || u.ProjectID == "" {
		return fmt.Errorf("username, password and projectId are required")
	}
	return nil
}

// AdminCredentials is the single administrator record.
type AdminCredentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Validate checks the aggregate for structural problems the store cannot
// repair: missing identity, an unknown theme or an invalid resource role.
// Date ordering inside items is deliberately not checked.
func (r *Roadmap) Validate() error {
	if r.ID == "" {
		return fmt.Errorf("roadmap id is required")
	}
	if r.Settings.Theme != "" && r.Settings.Theme != ThemeDark && r.Settings.Theme != ThemeLight {
		return fmt.Errorf("invalid theme: %s (must be 'dark' or 'light')", r.Settings.Theme)
	}
	for _, res := range r.Resources {
		if err := res.Role.Validate(); err != nil {
			return fmt.Errorf("resource '%s': %w", res.ID, err)
		}
	}
	return nil
}

// Clone returns a deep copy that shares no slices, maps or pointers with r.
func (r *Roadmap) Clone() *Roadmap {
	if r == nil {
		return nil
	}
	out := *r
	out.Settings = r.Settings.Clone()
	out.Lanes = make([]Lane, len(r.Lanes))
	for i, l := range r.Lanes {
		out.Lanes[i] = l.Clone()
	}
	out.Resources = append([]Resource{}, r.Resources...)
	return &out
}

// Clone returns a deep copy of the settings.
func (s RoadmapSettings) Clone() RoadmapSettings {
	s.Categories = append([]LaneCategory{}, s.Categories...)
	return s
}

// Clone returns a deep copy of the lane and its items.
func (l Lane) Clone() Lane {
	items := make([]TimelineItem, len(l.Items))
	for i, it := range l.Items {
		items[i] = it.Clone()
	}
	l.Items = items
	return l
}

// Clone returns a deep copy of the item.
func (it TimelineItem) Clone() TimelineItem {
	if it.StartDate != nil {
		t := *it.StartDate
		it.StartDate = &t
	}
	if it.EndDate != nil {
		t := *it.EndDate
		it.EndDate = &t
	}
	if it.OperationalCost != nil {
		c := *it.OperationalCost
		it.OperationalCost = &c
	}
	it.ResourceIDs = append([]string{}, it.ResourceIDs...)
	it.DependencyIDs = append([]string{}, it.DependencyIDs...)
	it.ResourceAllocation = it.ResourceAllocation.Clone()
	return it
}

// Clone returns a deep copy of the allocation, or nil for a nil allocation.
func (a Allocation) Clone() Allocation {
	if a == nil {
		return nil
	}
	out := make(Allocation, len(a))
	for sprint, roles := range a {
		inner := make(map[string]float64, len(roles))
		for role, n := range roles {
			inner[role] = n
		}
		out[sprint] = inner
	}
	return out
}
