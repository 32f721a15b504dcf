package reconcile

import (
	"bytes"
	"context"
	"errors"
	"log"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/dyluth/roadmapper/internal/state"
	"github.com/dyluth/roadmapper/pkg/roadmap"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeRemote is an in-memory Remote that records every call.
type fakeRemote struct {
	mu      sync.Mutex
	stored  *roadmap.Roadmap
	saves   []*roadmap.Roadmap
	savedAt []time.Time
	gets    int
	saveErr error
	getErr  error
}

func (f *fakeRemote) GetRoadmap(_ context.Context, _ string) (*roadmap.Roadmap, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.gets++
	if f.getErr != nil {
		return nil, f.getErr
	}
	if f.stored == nil {
		return nil, roadmap.ErrNotFound
	}
	return f.stored.Clone(), nil
}

func (f *fakeRemote) SaveRoadmap(_ context.Context, _ string, r *roadmap.Roadmap) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.saves = append(f.saves, r)
	f.savedAt = append(f.savedAt, time.Now())
	if f.saveErr != nil {
		return f.saveErr
	}
	f.stored = r.Clone()
	return nil
}

func (f *fakeRemote) setStored(r *roadmap.Roadmap) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stored = r
}

func (f *fakeRemote) saveCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.saves)
}

func (f *fakeRemote) getCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.gets
}

func (f *fakeRemote) firstSaveTime() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.savedAt[0]
}

func (f *fakeRemote) storedRoadmap() *roadmap.Roadmap {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.stored
}

func (f *fakeRemote) lastSave() *roadmap.Roadmap {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.saves[len(f.saves)-1]
}

// lockedBuffer collects log output written from the reconciler goroutine.
type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

// mutableProject is a ProjectSource that can be switched mid-test.
type mutableProject struct {
	mu sync.Mutex
	id string
}

func (p *mutableProject) ProjectID() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.id
}

func (p *mutableProject) set(id string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.id = id
}

var base = time.Date(2026, 1, 5, 9, 0, 0, 0, time.UTC)

func setupTestReconciler(t *testing.T, remote Remote, project ProjectSource, opts Options) (*state.Store, *Reconciler, *lockedBuffer) {
	t.Helper()

	logs := &lockedBuffer{}
	if opts.Logger == nil {
		opts.Logger = log.New(logs, "", 0)
	}

	store := state.New(roadmap.NewDefault(base))
	r := New(store, remote, project, opts)
	t.Cleanup(func() { r.Close() })
	return store, r, logs
}

func runInBackground(t *testing.T, r *Reconciler) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		r.Run(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
}

func TestPush_Debounce(t *testing.T) {
	remote := &fakeRemote{}
	store, r, _ := setupTestReconciler(t, remote, StaticProject("p1"), Options{
		Debounce:     100 * time.Millisecond,
		PollInterval: time.Hour,
	})
	runInBackground(t, r)

	// Three edits at 0, 40 and 80ms: a single push of the last snapshot,
	// one quiet period after the last edit
	store.UpdateTitle("a")
	time.Sleep(40 * time.Millisecond)
	store.UpdateTitle("b")
	time.Sleep(40 * time.Millisecond)
	lastEdit := time.Now()
	store.UpdateTitle("c")

	require.Eventually(t, func() bool { return remote.saveCount() == 1 }, 2*time.Second, 10*time.Millisecond)
	time.Sleep(250 * time.Millisecond)

	assert.Equal(t, 1, remote.saveCount())
	pushedAfter := remote.firstSaveTime().Sub(lastEdit)
	assert.GreaterOrEqual(t, pushedAfter, 100*time.Millisecond, "push fired before the quiet period after the last edit")
	assert.Equal(t, "c", remote.lastSave().Title)
	assert.Same(t, store.Snapshot(), remote.lastSave())
	assert.False(t, r.Pending())
}

func TestPush_FailureIsLoggedAndDropped(t *testing.T) {
	remote := &fakeRemote{saveErr: errors.New("connection refused")}
	store, r, logs := setupTestReconciler(t, remote, StaticProject("p1"), Options{
		Debounce:     20 * time.Millisecond,
		PollInterval: time.Hour,
	})
	runInBackground(t, r)

	store.UpdateTitle("a")
	require.Eventually(t, func() bool { return remote.saveCount() == 1 }, 2*time.Second, 10*time.Millisecond)

	// No retry of the failed snapshot
	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, 1, remote.saveCount())
	assert.Contains(t, logs.String(), "connection refused")

	store.UpdateTitle("b")
	require.Eventually(t, func() bool { return remote.saveCount() == 2 }, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, "b", remote.lastSave().Title)
}

func TestPull_DiscardsSupersededPendingPush(t *testing.T) {
	remote := &fakeRemote{}
	store, r, _ := setupTestReconciler(t, remote, StaticProject("p1"), Options{
		Debounce:     300 * time.Millisecond,
		PollInterval: 30 * time.Millisecond,
	})

	store.UpdateTitle("local unsaved")
	require.True(t, r.Pending())

	newer := store.Snapshot().Clone()
	newer.Title = "remote newer"
	newer.UpdatedAt = store.Snapshot().UpdatedAt.Add(time.Hour)
	remote.setStored(newer)

	runInBackground(t, r)

	require.Eventually(t, func() bool {
		return store.Snapshot().Title == "remote newer"
	}, 2*time.Second, 10*time.Millisecond)
	assert.False(t, r.Pending())

	// Past the debounce window: the older local snapshot must not reach the server
	time.Sleep(450 * time.Millisecond)
	assert.Zero(t, remote.saveCount())
	assert.Equal(t, "remote newer", remote.storedRoadmap().Title)
	assert.Equal(t, newer.UpdatedAt, remote.storedRoadmap().UpdatedAt)

	// Edits made after the pull are pushed as usual
	store.UpdateTitle("after pull")
	require.Eventually(t, func() bool { return remote.saveCount() == 1 }, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, "after pull", remote.lastSave().Title)
	assert.True(t, remote.lastSave().UpdatedAt.After(newer.UpdatedAt))
}

func TestPull_LastWriterWins(t *testing.T) {
	t.Run("strictly newer remote replaces local", func(t *testing.T) {
		remote := &fakeRemote{}
		store, r, _ := setupTestReconciler(t, remote, StaticProject("p1"), Options{
			Debounce:     20 * time.Millisecond,
			PollInterval: 20 * time.Millisecond,
		})

		newer := store.Snapshot().Clone()
		newer.Title = "from another editor"
		newer.UpdatedAt = store.Snapshot().UpdatedAt.Add(time.Hour)
		remote.setStored(newer)

		var applied []string
		var mu sync.Mutex
		r.OnRemoteApplied(func(snap *roadmap.Roadmap) {
			mu.Lock()
			defer mu.Unlock()
			applied = append(applied, snap.Title)
		})

		runInBackground(t, r)

		require.Eventually(t, func() bool {
			return store.Snapshot().Title == "from another editor"
		}, 2*time.Second, 10*time.Millisecond)
		assert.Equal(t, newer.UpdatedAt, store.Snapshot().UpdatedAt, "pulled snapshot is not restamped")

		// A pulled snapshot is never pushed back
		time.Sleep(100 * time.Millisecond)
		assert.Zero(t, remote.saveCount())

		mu.Lock()
		assert.Equal(t, []string{"from another editor"}, applied)
		mu.Unlock()
	})

	t.Run("older or equal remote is ignored", func(t *testing.T) {
		remote := &fakeRemote{}
		store, r, _ := setupTestReconciler(t, remote, StaticProject("p1"), Options{
			Debounce:     time.Hour,
			PollInterval: 20 * time.Millisecond,
		})
		store.UpdateTitle("local edit")
		local := store.Snapshot()

		equal := local.Clone()
		equal.Title = "same stamp"
		remote.setStored(equal)

		runInBackground(t, r)
		require.Eventually(t, func() bool { return remote.getCount() >= 2 }, 2*time.Second, 10*time.Millisecond)
		assert.Same(t, local, store.Snapshot())

		older := local.Clone()
		older.Title = "stale"
		older.UpdatedAt = local.UpdatedAt.Add(-time.Minute)
		remote.setStored(older)

		seen := remote.getCount()
		require.Eventually(t, func() bool { return remote.getCount() >= seen+2 }, 2*time.Second, 10*time.Millisecond)
		assert.Equal(t, "local edit", store.Snapshot().Title)
	})

	t.Run("errors are logged and polling continues", func(t *testing.T) {
		remote := &fakeRemote{getErr: errors.New("timeout")}
		_, r, logs := setupTestReconciler(t, remote, StaticProject("p1"), Options{
			Debounce:     time.Hour,
			PollInterval: 20 * time.Millisecond,
		})
		runInBackground(t, r)

		require.Eventually(t, func() bool { return remote.getCount() >= 3 }, 2*time.Second, 10*time.Millisecond)
		assert.Contains(t, logs.String(), "Pull failed")
	})
}

func TestNoProjectSkipsBothLoops(t *testing.T) {
	remote := &fakeRemote{}
	project := &mutableProject{}
	store, r, _ := setupTestReconciler(t, remote, project, Options{
		Debounce:     20 * time.Millisecond,
		PollInterval: 20 * time.Millisecond,
	})
	runInBackground(t, r)

	store.UpdateTitle("offline edit")
	time.Sleep(150 * time.Millisecond)
	assert.Zero(t, remote.saveCount())
	assert.Zero(t, remote.getCount())

	project.set("p1")
	store.UpdateTitle("online edit")
	require.Eventually(t, func() bool { return remote.saveCount() == 1 }, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, "online edit", remote.lastSave().Title)
}

func TestLoad(t *testing.T) {
	t.Run("installs remote regardless of timestamps", func(t *testing.T) {
		remote := &fakeRemote{}
		store, r, _ := setupTestReconciler(t, remote, StaticProject("p1"), Options{})

		older := roadmap.NewDefault(base.Add(-24 * time.Hour))
		older.Title = "stored"
		remote.setStored(older)

		require.NoError(t, r.Load(context.Background()))
		assert.Equal(t, "stored", store.Snapshot().Title)
		assert.Equal(t, older.ID, store.Snapshot().ID)
		assert.False(t, r.Pending(), "loaded snapshot is not queued for push")
	})

	t.Run("missing roadmap keeps local state", func(t *testing.T) {
		remote := &fakeRemote{}
		store, r, _ := setupTestReconciler(t, remote, StaticProject("p1"), Options{})
		before := store.Snapshot()

		require.NoError(t, r.Load(context.Background()))
		assert.Same(t, before, store.Snapshot())
	})

	t.Run("transport error is returned", func(t *testing.T) {
		remote := &fakeRemote{getErr: errors.New("boom")}
		_, r, _ := setupTestReconciler(t, remote, StaticProject("p1"), Options{})

		err := r.Load(context.Background())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "boom")
	})

	t.Run("no project", func(t *testing.T) {
		_, r, _ := setupTestReconciler(t, &fakeRemote{}, StaticProject(""), Options{})
		assert.Error(t, r.Load(context.Background()))
	})
}

func TestFlush(t *testing.T) {
	remote := &fakeRemote{}
	store, r, _ := setupTestReconciler(t, remote, StaticProject("p1"), Options{Debounce: time.Hour})

	require.NoError(t, r.Flush(context.Background()))
	assert.Zero(t, remote.saveCount(), "nothing pending")

	store.UpdateTitle("now")
	assert.True(t, r.Pending())
	require.NoError(t, r.Flush(context.Background()))
	require.Equal(t, 1, remote.saveCount())
	assert.Equal(t, "now", remote.lastSave().Title)

	remote.saveErr = errors.New("down")
	store.UpdateTitle("later")
	assert.Error(t, r.Flush(context.Background()))
	assert.False(t, r.Pending())
}

// TestTwoEditorsOverRedis syncs two stores through the Redis-backed client.
func TestTwoEditorsOverRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	client, err := roadmap.NewClient(&redis.Options{Addr: mr.Addr()})
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })

	ctx := context.Background()
	opts := Options{Debounce: 20 * time.Millisecond, PollInterval: 20 * time.Millisecond}

	storeA, recA, _ := setupTestReconciler(t, client, StaticProject("vision-2026"), opts)
	storeB := state.New(nil)
	recB := New(storeB, client, StaticProject("vision-2026"), Options{
		Debounce:     opts.Debounce,
		PollInterval: opts.PollInterval,
		Logger:       log.New(&lockedBuffer{}, "", 0),
	})
	t.Cleanup(func() { recB.Close() })

	lane, ok := storeA.AddLane("Platform", "", "", "")
	require.True(t, ok)
	require.NoError(t, recA.Flush(ctx))

	require.NoError(t, recB.Load(ctx))
	require.Len(t, storeB.Snapshot().Lanes, 1)
	assert.Equal(t, lane.ID, storeB.Snapshot().Lanes[0].ID)

	runInBackground(t, recB)

	storeA.UpdateTitle("Edited by A")
	require.NoError(t, recA.Flush(ctx))

	require.Eventually(t, func() bool {
		return storeB.Snapshot().Title == "Edited by A"
	}, 2*time.Second, 10*time.Millisecond)

	stored, err := client.GetRoadmap(ctx, "vision-2026")
	require.NoError(t, err)
	assert.True(t, stored.UpdatedAt.Equal(storeB.Snapshot().UpdatedAt))
}
