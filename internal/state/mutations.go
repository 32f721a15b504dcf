package state

import (
	"sort"
	"strings"
	"time"

	"github.com/dyluth/roadmapper/internal/calendar"
	"github.com/dyluth/roadmapper/pkg/roadmap"
)

// The boolean returned by mutations reports whether the target existed and
// the change was applied. Following the web client, update and delete
// operations on unknown ids still stamp UpdatedAt; MoveLane at an edge and
// rejected input (blank names, unknown roles) leave the store untouched.

// LanePatch holds the lane fields to merge. Nil fields are left unchanged.
type LanePatch struct {
	Name        *string
	Objective   *string
	Category    *string
	CategoryID  *string
	Description *string
	Order       *int
	IsCollapsed *bool
}

func (p LanePatch) apply(l *roadmap.Lane) {
	if p.Name != nil {
		l.Name = *p.Name
	}
	if p.Objective != nil {
		l.Objective = *p.Objective
	}
	if p.Category != nil {
		l.Category = *p.Category
	}
	if p.CategoryID != nil {
		l.CategoryID = *p.CategoryID
	}
	if p.Description != nil {
		l.Description = *p.Description
	}
	if p.Order != nil {
		l.Order = *p.Order
	}
	if p.IsCollapsed != nil {
		l.IsCollapsed = *p.IsCollapsed
	}
}

// ItemPatch holds the item fields to merge. Nil fields are left unchanged.
// Unschedule clears both dates and wins over StartDate/EndDate.
type ItemPatch struct {
	Title              *string
	Description        *string
	Status             *string
	StartDate          *time.Time
	EndDate            *time.Time
	Unschedule         bool
	Type               *roadmap.ItemType
	ResourceIDs        []string
	DependencyIDs      []string
	OperationalCost    *float64
	IsHighValue        *bool
	IsRevenueMaker     *bool
	ShortName          *string
	ResourceAllocation roadmap.Allocation
}

func (p ItemPatch) apply(it *roadmap.TimelineItem) {
	if p.Title != nil {
		it.Title = *p.Title
	}
	if p.Description != nil {
		it.Description = *p.Description
	}
	if p.Status != nil {
		it.Status = *p.Status
	}
	if p.StartDate != nil {
		t := *p.StartDate
		it.StartDate = &t
	}
	if p.EndDate != nil {
		t := *p.EndDate
		it.EndDate = &t
	}
	if p.Unschedule {
		it.StartDate, it.EndDate = nil, nil
	}
	if p.Type != nil {
		it.Type = *p.Type
	}
	if p.ResourceIDs != nil {
		it.ResourceIDs = append([]string{}, p.ResourceIDs...)
	}
	if p.DependencyIDs != nil {
		it.DependencyIDs = append([]string{}, p.DependencyIDs...)
	}
	if p.OperationalCost != nil {
		c := *p.OperationalCost
		it.OperationalCost = &c
	}
	if p.IsHighValue != nil {
		it.IsHighValue = *p.IsHighValue
	}
	if p.IsRevenueMaker != nil {
		it.IsRevenueMaker = *p.IsRevenueMaker
	}
	if p.ShortName != nil {
		it.ShortName = *p.ShortName
	}
	if p.ResourceAllocation != nil {
		it.ResourceAllocation = p.ResourceAllocation.Clone()
	}
}

func findLane(r *roadmap.Roadmap, id string) *roadmap.Lane {
	for i := range r.Lanes {
		if r.Lanes[i].ID == id {
			return &r.Lanes[i]
		}
	}
	return nil
}

func findItem(l *roadmap.Lane, id string) *roadmap.TimelineItem {
	for i := range l.Items {
		if l.Items[i].ID == id {
			return &l.Items[i]
		}
	}
	return nil
}

// UpdateTitle renames the roadmap.
func (s *Store) UpdateTitle(title string) {
	s.update(func(next *roadmap.Roadmap) bool {
		next.Title = title
		return true
	})
}

// UpdateSettings replaces the settings snapshot wholesale.
func (s *Store) UpdateSettings(settings roadmap.RoadmapSettings) {
	settings = settings.Clone()
	s.update(func(next *roadmap.Roadmap) bool {
		next.Settings = settings
		return true
	})
}

// AddLane appends a lane with Order = lane count + 1. Names need not be
// unique; a blank name is rejected.
func (s *Store) AddLane(name, category, categoryID, description string) (roadmap.Lane, bool) {
	if strings.TrimSpace(name) == "" {
		return roadmap.Lane{}, false
	}

	var lane roadmap.Lane
	s.update(func(next *roadmap.Roadmap) bool {
		lane = roadmap.Lane{
			ID:          s.newID(),
			Name:        name,
			Category:    category,
			CategoryID:  categoryID,
			Description: description,
			Order:       len(next.Lanes) + 1,
			Items:       []roadmap.TimelineItem{},
		}
		next.Lanes = append(next.Lanes, lane)
		return true
	})
	return lane.Clone(), true
}

// UpdateLane merges patch into the lane with the given id.
func (s *Store) UpdateLane(id string, patch LanePatch) bool {
	var found bool
	s.update(func(next *roadmap.Roadmap) bool {
		if l := findLane(next, id); l != nil {
			patch.apply(l)
			found = true
		}
		return true
	})
	return found
}

// DeleteLane removes a lane and its items. Other lanes keep their Order
// values and dependency ids pointing into the removed lane are kept.
func (s *Store) DeleteLane(id string) bool {
	var found bool
	s.update(func(next *roadmap.Roadmap) bool {
		lanes := next.Lanes[:0]
		for _, l := range next.Lanes {
			if l.ID == id {
				found = true
				continue
			}
			lanes = append(lanes, l)
		}
		next.Lanes = lanes
		return true
	})
	return found
}

// MoveLane swaps the lane's Order with its neighbour in display order.
// direction is +1 (down) or -1 (up). Nothing happens at an edge, for an
// unknown id or for any other direction.
func (s *Store) MoveLane(id string, direction int) bool {
	if direction != 1 && direction != -1 {
		return false
	}

	var moved bool
	s.update(func(next *roadmap.Roadmap) bool {
		// Indexes into next.Lanes, in display order
		order := make([]int, len(next.Lanes))
		for i := range order {
			order[i] = i
		}
		sort.SliceStable(order, func(i, j int) bool {
			return next.Lanes[order[i]].Order < next.Lanes[order[j]].Order
		})

		pos := -1
		for p, idx := range order {
			if next.Lanes[idx].ID == id {
				pos = p
				break
			}
		}
		if pos == -1 {
			return false
		}

		target := pos + direction
		if target < 0 || target >= len(order) {
			return false
		}

		a, b := &next.Lanes[order[pos]], &next.Lanes[order[target]]
		a.Order, b.Order = b.Order, a.Order
		moved = true
		return true
	})
	return moved
}

// AddItemToLane appends a copy of fields with a fresh id to the lane.
// An unknown lane drops the item.
func (s *Store) AddItemToLane(laneID string, fields roadmap.TimelineItem) (roadmap.TimelineItem, bool) {
	item := fields.Clone()
	item.ID = s.newID()

	var found bool
	s.update(func(next *roadmap.Roadmap) bool {
		if l := findLane(next, laneID); l != nil {
			l.Items = append(l.Items, item.Clone())
			found = true
		}
		return true
	})
	if !found {
		return roadmap.TimelineItem{}, false
	}
	return item, true
}

// AddItem adds a "New Task" spanning the sprint at sprintIndex (the first
// sprint when the index is out of range), typed after the lane's category.
// Calendar and category are read from the snapshot being mutated. Nothing
// happens when the calendar is empty.
func (s *Store) AddItem(laneID string, sprintIndex int) (roadmap.TimelineItem, bool) {
	id := s.newID()

	var item roadmap.TimelineItem
	var found bool
	s.update(func(next *roadmap.Roadmap) bool {
		sprints := calendar.Generate(next.Settings)
		if len(sprints) == 0 {
			return false
		}

		l := findLane(next, laneID)
		if l == nil {
			return true
		}

		sprint := sprints[0]
		if sprintIndex >= 0 && sprintIndex < len(sprints) {
			sprint = sprints[sprintIndex]
		}
		start, end := sprint.Start, sprint.End
		cost := 0.0
		item = roadmap.TimelineItem{
			ID:              id,
			Title:           "New Task",
			StartDate:       &start,
			EndDate:         &end,
			ResourceIDs:     []string{},
			DependencyIDs:   []string{},
			OperationalCost: &cost,
			Type:            roadmap.ItemTypeForCategory(l.CategoryID),
		}
		l.Items = append(l.Items, item.Clone())
		found = true
		return true
	})
	if !found {
		return roadmap.TimelineItem{}, false
	}
	return item, true
}

// UpdateItem merges patch into an item of the given lane.
func (s *Store) UpdateItem(laneID, itemID string, patch ItemPatch) bool {
	var found bool
	s.update(func(next *roadmap.Roadmap) bool {
		if l := findLane(next, laneID); l != nil {
			if it := findItem(l, itemID); it != nil {
				patch.apply(it)
				found = true
			}
		}
		return true
	})
	return found
}

// SetAllocation sets the headcount of one role in one sprint of an item.
// A zero headcount removes the entry.
func (s *Store) SetAllocation(laneID, itemID string, sprintNumber int, role string, headcount float64) bool {
	var found bool
	s.update(func(next *roadmap.Roadmap) bool {
		l := findLane(next, laneID)
		if l == nil {
			return true
		}
		it := findItem(l, itemID)
		if it == nil {
			return true
		}

		if it.ResourceAllocation == nil {
			it.ResourceAllocation = roadmap.Allocation{}
		}
		if headcount == 0 {
			delete(it.ResourceAllocation[sprintNumber], role)
			if len(it.ResourceAllocation[sprintNumber]) == 0 {
				delete(it.ResourceAllocation, sprintNumber)
			}
		} else {
			if it.ResourceAllocation[sprintNumber] == nil {
				it.ResourceAllocation[sprintNumber] = map[string]float64{}
			}
			it.ResourceAllocation[sprintNumber][role] = headcount
		}
		found = true
		return true
	})
	return found
}

// DeleteItem removes an item from the given lane. Dependency ids naming it
// elsewhere are kept.
func (s *Store) DeleteItem(laneID, itemID string) bool {
	var found bool
	s.update(func(next *roadmap.Roadmap) bool {
		l := findLane(next, laneID)
		if l == nil {
			return true
		}
		items := l.Items[:0]
		for _, it := range l.Items {
			if it.ID == itemID {
				found = true
				continue
			}
			items = append(items, it)
		}
		l.Items = items
		return true
	})
	return found
}

// AddResource appends a copy of fields with a fresh id. A blank name or an
// unknown role is rejected.
func (s *Store) AddResource(fields roadmap.Resource) (roadmap.Resource, bool) {
	if strings.TrimSpace(fields.Name) == "" || fields.Role.Validate() != nil {
		return roadmap.Resource{}, false
	}

	res := fields
	res.ID = s.newID()
	s.update(func(next *roadmap.Roadmap) bool {
		next.Resources = append(next.Resources, res)
		return true
	})
	return res, true
}

// DeleteResource removes a resource. Items keep the removed id in their
// ResourceIDs.
func (s *Store) DeleteResource(id string) bool {
	var found bool
	s.update(func(next *roadmap.Roadmap) bool {
		resources := next.Resources[:0]
		for _, r := range next.Resources {
			if r.ID == id {
				found = true
				continue
			}
			resources = append(resources, r)
		}
		next.Resources = resources
		return true
	})
	return found
}
