// Package watch follows a project's roadmap as other editors save it.
package watch

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/dyluth/roadmapper/pkg/roadmap"
)

// OutputFormat selects how Stream renders each saved snapshot.
type OutputFormat string

const (
	OutputFormatDefault OutputFormat = "default"
	OutputFormatJSON    OutputFormat = "json"
)

// Getter is satisfied by every roadmap backend.
type Getter interface {
	GetRoadmap(ctx context.Context, projectID string) (*roadmap.Roadmap, error)
}

// PollForUpdate polls until the project's roadmap carries an UpdatedAt
// later than since. Polls every 200ms for the specified timeout duration.
func PollForUpdate(ctx context.Context, src Getter, projectID string, since time.Time, timeout time.Duration) (*roadmap.Roadmap, error) {
	ticker := time.NewTicker(200 * time.Millisecond)
	defer ticker.Stop()

	timeoutCh := time.After(timeout)

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()

		case <-timeoutCh:
			return nil, fmt.Errorf("timeout waiting for roadmap update after %v", timeout)

		case <-ticker.C:
			r, err := src.GetRoadmap(ctx, projectID)
			if err != nil {
				if roadmap.IsNotFound(err) {
					continue
				}
				return nil, fmt.Errorf("failed to query roadmap: %w", err)
			}

			if r.UpdatedAt.After(since) {
				return r, nil
			}
		}
	}
}

// Stream writes every save of the project's roadmap to w until ctx is
// cancelled. Undecodable events are reported inline and skipped.
func Stream(ctx context.Context, client *roadmap.Client, projectID string, format OutputFormat, w io.Writer) error {
	f, err := NewFormatter(format, w)
	if err != nil {
		return err
	}

	sub, err := client.SubscribeRoadmapEvents(ctx, projectID)
	if err != nil {
		return err
	}
	defer sub.Close()

	events, errs := sub.Events(), sub.Errors()
	for {
		select {
		case <-ctx.Done():
			return nil

		case r, ok := <-events:
			if !ok {
				return nil
			}
			if err := f.FormatUpdate(r); err != nil {
				return fmt.Errorf("failed to write update: %w", err)
			}

		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			if err := f.FormatError(err); err != nil {
				return fmt.Errorf("failed to write error: %w", err)
			}
		}
	}
}

// Formatter renders saved snapshots and subscription errors.
type Formatter interface {
	FormatUpdate(r *roadmap.Roadmap) error
	FormatError(err error) error
}

// NewFormatter returns the formatter for format writing to w.
func NewFormatter(format OutputFormat, w io.Writer) (Formatter, error) {
	switch format {
	case OutputFormatDefault, "":
		return &defaultFormatter{writer: w}, nil
	case OutputFormatJSON:
		return &jsonFormatter{writer: w}, nil
	default:
		return nil, fmt.Errorf("unknown output format: %s", format)
	}
}

// defaultFormatter prints one human-readable line per save, describing
// what changed since the previous save it saw.
type defaultFormatter struct {
	writer io.Writer
	prev   *roadmap.Roadmap
}

func (f *defaultFormatter) FormatUpdate(r *roadmap.Roadmap) error {
	ts := r.UpdatedAt.Local().Format("15:04:05")
	summary := fmt.Sprintf("[%s] 📋 Roadmap saved: title=%q, lanes=%d, items=%d, resources=%d",
		ts, r.Title, len(r.Lanes), countItems(r), len(r.Resources))

	if changes := describeChanges(f.prev, r); len(changes) > 0 {
		summary += " (" + strings.Join(changes, ", ") + ")"
	}
	f.prev = r

	_, err := fmt.Fprintln(f.writer, summary)
	return err
}

func (f *defaultFormatter) FormatError(err error) error {
	_, werr := fmt.Fprintf(f.writer, "⚠️  %v\n", err)
	return werr
}

// jsonFormatter prints line-delimited JSON, one snapshot per line.
type jsonFormatter struct {
	writer io.Writer
}

func (f *jsonFormatter) FormatUpdate(r *roadmap.Roadmap) error {
	data, err := json.Marshal(r)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(f.writer, string(data))
	return err
}

func (f *jsonFormatter) FormatError(err error) error {
	data, merr := json.Marshal(map[string]string{"error": err.Error()})
	if merr != nil {
		return merr
	}
	_, werr := fmt.Fprintln(f.writer, string(data))
	return werr
}

func countItems(r *roadmap.Roadmap) int {
	n := 0
	for _, lane := range r.Lanes {
		n += len(lane.Items)
	}
	return n
}

// describeChanges lists lanes added or removed and the net item delta.
func describeChanges(prev, next *roadmap.Roadmap) []string {
	if prev == nil {
		return nil
	}

	before := make(map[string]string, len(prev.Lanes))
	for _, lane := range prev.Lanes {
		before[lane.ID] = lane.Name
	}

	var added []string
	for _, lane := range next.Lanes {
		if _, ok := before[lane.ID]; ok {
			delete(before, lane.ID)
			continue
		}
		added = append(added, lane.Name)
	}

	removed := make([]string, 0, len(before))
	for _, name := range before {
		removed = append(removed, name)
	}
	sort.Strings(removed)

	var changes []string
	for _, name := range added {
		changes = append(changes, fmt.Sprintf("+lane %q", name))
	}
	for _, name := range removed {
		changes = append(changes, fmt.Sprintf("-lane %q", name))
	}
	if delta := countItems(next) - countItems(prev); delta != 0 {
		changes = append(changes, fmt.Sprintf("items %+d", delta))
	}
	if prev.Title != next.Title {
		changes = append(changes, "title changed")
	}
	return changes
}
