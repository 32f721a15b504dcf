package state

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/dyluth/roadmapper/pkg/roadmap"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var epoch = time.Date(2026, 1, 5, 9, 0, 0, 0, time.UTC)

// fakeClock advances one second per call so every stamp is distinct.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(time.Second)
	return c.now
}

// setupTestStore creates a store over an empty default roadmap with a
// deterministic clock and sequential ids.
func setupTestStore(t *testing.T) (*Store, *fakeClock) {
	t.Helper()
	clock := &fakeClock{now: epoch}
	initial := roadmap.NewDefault(epoch)

	n := 0
	s := New(initial,
		WithClock(clock.Now),
		WithIDGenerator(func() string {
			n++
			return fmt.Sprintf("id-%d", n)
		}),
	)
	return s, clock
}

func TestNew(t *testing.T) {
	t.Run("copies the initial roadmap", func(t *testing.T) {
		initial := roadmap.NewDefault(epoch)
		s := New(initial)
		initial.Title = "changed"
		assert.NotEqual(t, "changed", s.Snapshot().Title)
	})

	t.Run("nil initial starts from defaults", func(t *testing.T) {
		s := New(nil)
		require.NotNil(t, s.Snapshot())
		assert.Equal(t, 12, s.Snapshot().Settings.NumberOfSprints)
	})
}

func TestMutationsProduceNewSnapshots(t *testing.T) {
	s, _ := setupTestStore(t)

	before := s.Snapshot()
	lane, ok := s.AddLane("Platform", "", "", "")
	require.True(t, ok)
	after := s.Snapshot()

	assert.NotSame(t, before, after)
	assert.Empty(t, before.Lanes, "published snapshot must not change")
	require.Len(t, after.Lanes, 1)
	assert.Equal(t, lane.ID, after.Lanes[0].ID)
	assert.True(t, after.UpdatedAt.After(before.UpdatedAt))
}

func TestUpdatedAtStrictlyIncreases(t *testing.T) {
	initial := roadmap.NewDefault(epoch)
	frozen := func() time.Time { return epoch }
	s := New(initial, WithClock(frozen))

	s.UpdateTitle("a")
	first := s.Snapshot().UpdatedAt
	s.UpdateTitle("b")
	second := s.Snapshot().UpdatedAt

	assert.True(t, first.After(epoch))
	assert.True(t, second.After(first))
}

func TestSubscribe(t *testing.T) {
	s, _ := setupTestStore(t)

	var got []*roadmap.Roadmap
	var origins []Origin
	unsubscribe := s.Subscribe(func(snap *roadmap.Roadmap, origin Origin) {
		got = append(got, snap)
		origins = append(origins, origin)
		// Reading the store from a listener is allowed
		assert.Same(t, snap, s.Snapshot())
	})

	s.UpdateTitle("one")
	remote := s.Snapshot().Clone()
	remote.Title = "remote"
	s.Replace(remote)

	require.Len(t, got, 2)
	assert.Equal(t, "one", got[0].Title)
	assert.Equal(t, "remote", got[1].Title)
	assert.Equal(t, []Origin{OriginLocal, OriginRemote}, origins)

	unsubscribe()
	s.UpdateTitle("two")
	assert.Len(t, got, 2)
}

func TestSubscribe_OrderUnderConcurrentMutations(t *testing.T) {
	s, _ := setupTestStore(t)

	var mu sync.Mutex
	var stamps []time.Time
	s.Subscribe(func(snap *roadmap.Roadmap, _ Origin) {
		mu.Lock()
		defer mu.Unlock()
		stamps = append(stamps, snap.UpdatedAt)
	})

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			s.AddLane(fmt.Sprintf("lane-%d", i), "", "", "")
		}(i)
	}
	wg.Wait()

	require.Len(t, stamps, 50)
	for i := 1; i < len(stamps); i++ {
		assert.True(t, stamps[i].After(stamps[i-1]), "listener saw snapshots out of order")
	}
	assert.Len(t, s.Snapshot().Lanes, 50)
}

func TestReplaceDoesNotStamp(t *testing.T) {
	s, _ := setupTestStore(t)

	remote := roadmap.NewDefault(epoch.Add(-time.Hour))
	s.Replace(remote)

	assert.Equal(t, remote.UpdatedAt, s.Snapshot().UpdatedAt)
	assert.Equal(t, remote.ID, s.Snapshot().ID)
}
