// Package resolver turns the short ids shown in tables back into full lane,
// item and resource ids.
package resolver

import (
	"errors"
	"fmt"
	"strings"

	"github.com/dyluth/roadmapper/pkg/roadmap"
)

// MinShortIDLength is the minimum length of an id prefix. Exact ids of any
// length are always accepted.
const MinShortIDLength = 4

// NotFoundError indicates no entity matched the id.
type NotFoundError struct {
	Kind    string
	ShortID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("no %s found matching '%s'", e.Kind, e.ShortID)
}

// AmbiguousError indicates several entities matched the prefix.
type AmbiguousError struct {
	Kind    string
	ShortID string
	Matches []string
}

func (e *AmbiguousError) Error() string {
	return fmt.Sprintf("ambiguous short ID '%s' matches %d %ss", e.ShortID, len(e.Matches), e.Kind)
}

// resolve picks the id equal to shortID, else the single id it prefixes.
func resolve(kind, shortID string, ids []string) (string, error) {
	shortID = strings.TrimSpace(shortID)
	for _, id := range ids {
		if id == shortID {
			return id, nil
		}
	}

	if len(shortID) < MinShortIDLength {
		return "", fmt.Errorf("short ID must be at least %d characters (got %d)", MinShortIDLength, len(shortID))
	}

	var matches []string
	for _, id := range ids {
		if strings.HasPrefix(id, shortID) {
			matches = append(matches, id)
		}
	}

	switch len(matches) {
	case 0:
		return "", &NotFoundError{Kind: kind, ShortID: shortID}
	case 1:
		return matches[0], nil
	default:
		return "", &AmbiguousError{Kind: kind, ShortID: shortID, Matches: matches}
	}
}

// ResolveLane returns the full id of the lane identified by shortID.
func ResolveLane(r *roadmap.Roadmap, shortID string) (string, error) {
	ids := make([]string, 0, len(r.Lanes))
	for _, l := range r.Lanes {
		ids = append(ids, l.ID)
	}
	return resolve("lane", shortID, ids)
}

// ResolveItem finds an item anywhere in the roadmap and returns its lane id
// alongside its full id.
func ResolveItem(r *roadmap.Roadmap, shortID string) (laneID, itemID string, err error) {
	var ids []string
	owner := make(map[string]string)
	for _, l := range r.Lanes {
		for _, it := range l.Items {
			ids = append(ids, it.ID)
			owner[it.ID] = l.ID
		}
	}

	itemID, err = resolve("item", shortID, ids)
	if err != nil {
		return "", "", err
	}
	return owner[itemID], itemID, nil
}

// ResolveResource returns the full id of the resource identified by shortID.
func ResolveResource(r *roadmap.Roadmap, shortID string) (string, error) {
	ids := make([]string, 0, len(r.Resources))
	for _, res := range r.Resources {
		ids = append(ids, res.ID)
	}
	return resolve("resource", shortID, ids)
}

// FormatAmbiguousError lists up to 10 matching ids.
func FormatAmbiguousError(err *AmbiguousError) string {
	msg := fmt.Sprintf("Error: ambiguous short ID '%s' matches %d %ss:\n", err.ShortID, len(err.Matches), err.Kind)

	displayCount := min(len(err.Matches), 10)
	for i := 0; i < displayCount; i++ {
		msg += fmt.Sprintf("  %s\n", err.Matches[i])
	}

	if len(err.Matches) > 10 {
		msg += fmt.Sprintf("  ...and %d more\n", len(err.Matches)-10)
	}

	msg += "\nUse a longer prefix to uniquely identify the " + err.Kind + "."
	return msg
}

// IsNotFoundError checks if an error is a NotFoundError.
func IsNotFoundError(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

// IsAmbiguousError checks if an error is an AmbiguousError.
func IsAmbiguousError(err error) bool {
	var amb *AmbiguousError
	return errors.As(err, &amb)
}
