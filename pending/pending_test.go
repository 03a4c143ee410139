package pending

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eringen/sitebot/site"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func TestSetReplacesPreviousAction(t *testing.T) {
	tr := NewTracker(0)
	defer tr.Close()

	tr.Set(1, Create())
	tr.Set(1, DeleteConfirm("abc123"))

	got, ok := tr.Get(1)
	require.True(t, ok)
	assert.Equal(t, KindDeleteConfirm, got.Kind)
	assert.Equal(t, "abc123", got.SiteID)
	assert.Equal(t, 1, tr.Len())
}

func TestActionsArePerUser(t *testing.T) {
	tr := NewTracker(0)
	defer tr.Close()

	tr.Set(1, Create())
	tr.Set(2, Update("xyz789"))

	a, ok := tr.Get(1)
	require.True(t, ok)
	assert.Equal(t, KindCreate, a.Kind)

	b, ok := tr.Get(2)
	require.True(t, ok)
	assert.Equal(t, KindUpdate, b.Kind)

	tr.Clear(1)
	_, ok = tr.Get(1)
	assert.False(t, ok)
	_, ok = tr.Get(2)
	assert.True(t, ok)
}

func TestTakeConsumesOnce(t *testing.T) {
	tr := NewTracker(0)
	defer tr.Close()

	tr.Set(1, DeleteConfirm("abc123"))
	a, ok := tr.Take(1)
	require.True(t, ok)
	assert.Equal(t, "abc123", a.SiteID)

	_, ok = tr.Take(1)
	assert.False(t, ok)
	_, ok = tr.Get(1)
	assert.False(t, ok)
}

func TestConcurrentTakeYieldsSingleWinner(t *testing.T) {
	tr := NewTracker(0)
	defer tr.Close()
	tr.Set(1, Create())

	var wins atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, ok := tr.Take(1); ok {
				wins.Add(1)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), wins.Load())
}

func TestExpiry(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	tr := NewTracker(time.Hour, WithClock(clock.Now))
	defer tr.Close()

	tr.Set(1, Create())
	clock.Advance(59 * time.Minute)
	_, ok := tr.Get(1)
	assert.True(t, ok, "action should still be live before the ttl")

	clock.Advance(time.Minute)
	_, ok = tr.Get(1)
	assert.False(t, ok, "action should expire at the ttl")

	tr.Set(2, Create())
	clock.Advance(2 * time.Hour)
	_, ok = tr.Take(2)
	assert.False(t, ok, "expired action must not be taken")
}

func TestSweeperRemovesExpired(t *testing.T) {
	tr := NewTracker(50 * time.Millisecond)
	defer tr.Close()

	tr.Set(1, Create())
	require.Eventually(t, func() bool { return tr.Len() == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestLockSerializesPerUser(t *testing.T) {
	tr := NewTracker(0)
	defer tr.Close()

	var inside atomic.Int32
	var maxInside atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := tr.Lock(site.UserID(7))
			defer unlock()
			n := inside.Add(1)
			for {
				m := maxInside.Load()
				if n <= m || maxInside.CompareAndSwap(m, n) {
					break
				}
			}
			time.Sleep(time.Millisecond)
			inside.Add(-1)
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), maxInside.Load())

	tr.mu.Lock()
	assert.Empty(t, tr.locks, "released locks should be dropped")
	tr.mu.Unlock()
}

func TestLockDoesNotBlockOtherUsers(t *testing.T) {
	tr := NewTracker(0)
	defer tr.Close()

	unlock := tr.Lock(1)
	defer unlock()

	done := make(chan struct{})
	go func() {
		release := tr.Lock(2)
		release()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("lock for another user blocked")
	}
}

func TestCloseIsIdempotent(t *testing.T) {
	tr := NewTracker(time.Minute)
	require.NoError(t, tr.Close())
	require.NoError(t, tr.Close())
}
