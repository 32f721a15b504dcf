package datespec

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Parse parses a calendar date or instant into a UTC time.
// Supports two formats:
//   - calendar dates: "2026-01-12" (midnight UTC)
//   - RFC3339 timestamps, with or without fractional seconds:
//     "2026-01-12T00:00:00Z", "2026-01-12T00:00:00.000Z"
func Parse(spec string) (time.Time, error) {
	spec = strings.TrimSpace(spec)
	if spec == "" {
		return time.Time{}, fmt.Errorf("empty date specification")
	}

	// RFC3339Nano also accepts timestamps without a fractional part
	if t, err := time.Parse(time.RFC3339Nano, spec); err == nil {
		return t.UTC(), nil
	}

	if t, err := time.Parse(time.DateOnly, spec); err == nil {
		return t, nil
	}

	return time.Time{}, fmt.Errorf("invalid date specification: %s (use a date like '2026-01-12' or RFC3339 like '2026-01-12T00:00:00Z')", spec)
}

// ParseRange parses optional --start and --end flags.
// Empty values yield nil (unscheduled). Inverted ranges are returned as-is:
// callers decide whether to warn.
func ParseRange(start, end string) (*time.Time, *time.Time, error) {
	var startAt, endAt *time.Time

	if start != "" {
		t, err := Parse(start)
		if err != nil {
			return nil, nil, fmt.Errorf("invalid --start: %w", err)
		}
		startAt = &t
	}

	if end != "" {
		t, err := Parse(end)
		if err != nil {
			return nil, nil, fmt.Errorf("invalid --end: %w", err)
		}
		endAt = &t
	}

	return startAt, endAt, nil
}

// ParseSprint parses a sprint reference such as "201" or "S-201" into a
// sprint number. The prefix is optional in the input.
func ParseSprint(spec, prefix string) (int, error) {
	trimmed := strings.TrimSpace(spec)
	if prefix != "" {
		trimmed = strings.TrimPrefix(trimmed, prefix)
	}

	n, err := strconv.Atoi(trimmed)
	if err != nil {
		return 0, fmt.Errorf("invalid sprint reference: %s (use a number like '201' or '%s201')", spec, prefix)
	}
	return n, nil
}

// ParseSprintRange parses "201" or "201:203" into first and last sprint
// numbers. A single sprint yields equal bounds.
func ParseSprintRange(spec, prefix string) (int, int, error) {
	first, last, found := strings.Cut(spec, ":")

	from, err := ParseSprint(first, prefix)
	if err != nil {
		return 0, 0, err
	}
	if !found {
		return from, from, nil
	}

	to, err := ParseSprint(last, prefix)
	if err != nil {
		return 0, 0, err
	}
	if from > to {
		return 0, 0, fmt.Errorf("sprint range %s is inverted", spec)
	}
	return from, to, nil
}
