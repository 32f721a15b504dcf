package commands

import (
	"errors"
	"fmt"
	"strings"

	"github.com/dyluth/roadmapper/internal/printer"
	"github.com/dyluth/roadmapper/internal/resolver"
	"github.com/dyluth/roadmapper/pkg/roadmap"
)

// resolveError prints a resolver failure and returns the cobra error.
func resolveError(kind string, err error) error {
	var amb *resolver.AmbiguousError
	if errors.As(err, &amb) {
		return printer.Error(
			fmt.Sprintf("ambiguous %s ID", kind),
			resolver.FormatAmbiguousError(amb),
			nil,
		)
	}
	if resolver.IsNotFoundError(err) {
		return printer.Error(
			fmt.Sprintf("%s not found", kind),
			err.Error(),
			[]string{fmt.Sprintf("List %ss:\n  roadmapper %s list", kind, kind)},
		)
	}
	return printer.Error(fmt.Sprintf("invalid %s ID", kind), err.Error(), nil)
}

func resolveLane(r *roadmap.Roadmap, id string) (string, error) {
	laneID, err := resolver.ResolveLane(r, id)
	if err != nil {
		return "", resolveError("lane", err)
	}
	return laneID, nil
}

func resolveItem(r *roadmap.Roadmap, id string) (string, string, error) {
	laneID, itemID, err := resolver.ResolveItem(r, id)
	if err != nil {
		return "", "", resolveError("item", err)
	}
	return laneID, itemID, nil
}

func resolveResource(r *roadmap.Roadmap, id string) (string, error) {
	resID, err := resolver.ResolveResource(r, id)
	if err != nil {
		return "", resolveError("resource", err)
	}
	return resID, nil
}

// resolveCategory matches a category by id or case-insensitive name.
func resolveCategory(settings roadmap.RoadmapSettings, ref string) (roadmap.LaneCategory, error) {
	for _, c := range settings.Categories {
		if c.ID == ref || strings.EqualFold(c.Name, ref) {
			return c, nil
		}
	}

	names := make([]string, 0, len(settings.Categories))
	for _, c := range settings.Categories {
		names = append(names, c.ID)
	}
	return roadmap.LaneCategory{}, printer.Error(
		"unknown category",
		fmt.Sprintf("No category matches '%s'.", ref),
		[]string{"Valid categories: " + strings.Join(names, ", ")},
	)
}

// splitList splits a comma-separated flag value, dropping blanks.
func splitList(s string) []string {
	out := []string{}
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
