// Package reconcile keeps a state.Store in sync with a remote roadmap store.
//
// Local snapshots are pushed after a quiet period (debounce), and the remote
// copy is polled periodically and applied when it is strictly newer than the
// local one (last writer wins on UpdatedAt). There is no field-level merge:
// a pull that lands while a push is pending discards the unpushed edit,
// and a push can overwrite a remote version written since the last pull. This is acceptable for a
// single active editor per project.
package reconcile

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/dyluth/roadmapper/internal/state"
	"github.com/dyluth/roadmapper/pkg/roadmap"
)

const (
	// DefaultDebounce is the quiet period after the last local change
	// before the snapshot is pushed.
	DefaultDebounce = time.Second

	// DefaultPollInterval is the period between pulls.
	DefaultPollInterval = 10 * time.Second
)

// Remote is a key-value store holding one roadmap per project.
// GetRoadmap returns roadmap.ErrNotFound when the project has no roadmap.
type Remote interface {
	GetRoadmap(ctx context.Context, projectID string) (*roadmap.Roadmap, error)
	SaveRoadmap(ctx context.Context, projectID string, r *roadmap.Roadmap) error
}

// ProjectSource supplies the active project id. An empty id means no
// project is selected and sync is paused.
type ProjectSource interface {
	ProjectID() string
}

// StaticProject is a ProjectSource with a fixed id.
type StaticProject string

// ProjectID implements ProjectSource.
func (p StaticProject) ProjectID() string { return string(p) }

// Options tunes the reconciler. Zero values select the defaults.
type Options struct {
	Debounce     time.Duration
	PollInterval time.Duration
	Logger       *log.Logger
}

// Reconciler pushes local snapshots of a store and pulls remote ones.
// Create with New and release with Close.
type Reconciler struct {
	store   *state.Store
	remote  Remote
	project ProjectSource
	opts    Options
	logger  *log.Logger

	mu      sync.Mutex
	pending *roadmap.Roadmap // Latest unpushed local snapshot
	applied []func(*roadmap.Roadmap)

	dirty       chan struct{}
	unsubscribe func()
}

// New creates a reconciler and starts tracking local snapshots of store.
// Snapshots installed from the remote side are never queued for push, and
// they discard any local snapshot still waiting for one.
func New(store *state.Store, remote Remote, project ProjectSource, opts Options) *Reconciler {
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = DefaultPollInterval
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}

	r := &Reconciler{
		store:   store,
		remote:  remote,
		project: project,
		opts:    opts,
		logger:  logger,
		dirty:   make(chan struct{}, 1),
	}
	r.unsubscribe = store.Subscribe(r.onSnapshot)
	return r
}

// Close stops tracking the store. Pending changes are not flushed.
func (r *Reconciler) Close() error {
	r.unsubscribe()
	return nil
}

// OnRemoteApplied registers fn to be called with every remote snapshot
// installed into the store by Load or a pull.
func (r *Reconciler) OnRemoteApplied(fn func(*roadmap.Roadmap)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.applied = append(r.applied, fn)
}

// onSnapshot runs inside the store's notification path and must not block.
// The store serializes notifications with its mutations, so a remote
// snapshot drops exactly the local edits it replaced.
func (r *Reconciler) onSnapshot(snapshot *roadmap.Roadmap, origin state.Origin) {
	if origin != state.OriginLocal {
		r.mu.Lock()
		r.pending = nil
		r.mu.Unlock()
		return
	}

	r.mu.Lock()
	r.pending = snapshot
	r.mu.Unlock()

	select {
	case r.dirty <- struct{}{}:
	default:
	}
}

// Run drives the push and pull loops and blocks until ctx is cancelled.
// Every local change restarts the debounce timer; remote errors are logged
// and never stop the loops.
func (r *Reconciler) Run(ctx context.Context) error {
	r.logger.Printf("[Reconciler] Starting (debounce=%s, poll=%s)", r.opts.Debounce, r.opts.PollInterval)

	debounce := time.NewTimer(r.opts.Debounce)
	debounce.Stop()
	defer debounce.Stop()

	poll := time.NewTicker(r.opts.PollInterval)
	defer poll.Stop()

	for {
		select {
		case <-ctx.Done():
			r.logger.Printf("[Reconciler] Shutting down...")
			return nil

		case <-r.dirty:
			debounce.Reset(r.opts.Debounce)

		case <-debounce.C:
			if err := r.push(ctx); err != nil {
				// Dropped: the next local change schedules a fresh push
				r.logger.Printf("[Reconciler] Push failed: %v", err)
			}

		case <-poll.C:
			if err := r.pull(ctx); err != nil {
				r.logger.Printf("[Reconciler] Pull failed: %v", err)
			}
		}
	}
}

// Load fetches the remote roadmap and installs it unconditionally.
// A project without a stored roadmap keeps the local state.
func (r *Reconciler) Load(ctx context.Context) error {
	projectID := r.project.ProjectID()
	if projectID == "" {
		return fmt.Errorf("no project selected")
	}

	remote, err := r.remote.GetRoadmap(ctx, projectID)
	if err != nil {
		if roadmap.IsNotFound(err) {
			r.logEvent("load_empty", map[string]interface{}{"project_id": projectID})
			return nil
		}
		return fmt.Errorf("failed to load roadmap: %w", err)
	}

	r.apply(remote)
	r.logEvent("loaded", map[string]interface{}{
		"project_id": projectID,
		"updated_at": remote.UpdatedAt.Format(time.RFC3339Nano),
	})
	return nil
}

// Flush pushes the pending local snapshot now. Returns nil when nothing
// is pending.
func (r *Reconciler) Flush(ctx context.Context) error {
	return r.push(ctx)
}

// Pending reports whether a local snapshot is waiting to be pushed.
func (r *Reconciler) Pending() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.pending != nil
}

// push saves the pending snapshot. The snapshot is consumed whether or
// not the save succeeds.
func (r *Reconciler) push(ctx context.Context) error {
	r.mu.Lock()
	snapshot := r.pending
	r.pending = nil
	r.mu.Unlock()

	if snapshot == nil {
		return nil
	}

	projectID := r.project.ProjectID()
	if projectID == "" {
		r.logEvent("push_skipped", map[string]interface{}{"reason": "no project"})
		return nil
	}

	if err := r.remote.SaveRoadmap(ctx, projectID, snapshot); err != nil {
		return fmt.Errorf("failed to save roadmap: %w", err)
	}

	r.logEvent("pushed", map[string]interface{}{
		"project_id": projectID,
		"updated_at": snapshot.UpdatedAt.Format(time.RFC3339Nano),
	})
	return nil
}

// pull fetches the remote roadmap and installs it when it is strictly newer
// than the local snapshot.
func (r *Reconciler) pull(ctx context.Context) error {
	projectID := r.project.ProjectID()
	if projectID == "" {
		return nil
	}

	remote, err := r.remote.GetRoadmap(ctx, projectID)
	if err != nil {
		if roadmap.IsNotFound(err) {
			return nil
		}
		return fmt.Errorf("failed to fetch roadmap: %w", err)
	}

	local := r.store.Snapshot()
	if !remote.UpdatedAt.After(local.UpdatedAt) {
		return nil
	}

	r.apply(remote)
	r.logEvent("remote_applied", map[string]interface{}{
		"project_id":   projectID,
		"local_stamp":  local.UpdatedAt.Format(time.RFC3339Nano),
		"remote_stamp": remote.UpdatedAt.Format(time.RFC3339Nano),
	})
	return nil
}

func (r *Reconciler) apply(remote *roadmap.Roadmap) {
	r.store.Replace(remote)

	r.mu.Lock()
	hooks := append([]func(*roadmap.Roadmap){}, r.applied...)
	r.mu.Unlock()

	snapshot := r.store.Snapshot()
	for _, fn := range hooks {
		fn(snapshot)
	}
}

// logEvent logs a structured event in JSON format.
func (r *Reconciler) logEvent(eventType string, data map[string]interface{}) {
	data["timestamp"] = time.Now().UTC().Format(time.RFC3339)
	data["level"] = "info"
	data["component"] = "reconciler"
	data["event_type"] = eventType

	jsonData, err := json.Marshal(data)
	if err != nil {
		r.logger.Printf("[Reconciler] Failed to marshal log event: %v", err)
		return
	}

	r.logger.Println(string(jsonData))
}
