// ABOUTME: Tests for the draft cache.
// ABOUTME: Validates TTL expiration, size limits, eviction order, cleanup and concurrency safety.

package draft

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClock is a manually advanced time source.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (f *fakeClock) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *fakeClock) Advance(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = f.now.Add(d)
}

func newDraftFunc(subject, plugin string) func() *Draft {
	return func() *Draft { return New(subject, plugin, "PingdomHooksConfigs") }
}

func TestCache_GetMissing(t *testing.T) {
	cache := newCache(time.Minute, 10, newFakeClock().Now)

	_, ok := cache.Get("alice", "plugin")
	assert.False(t, ok)
}

func TestCache_GetOrCreate(t *testing.T) {
	cache := newCache(time.Minute, 10, newFakeClock().Now)

	d1, created := cache.GetOrCreate("alice", "plugin", newDraftFunc("alice", "plugin"))
	require.True(t, created)
	assert.Equal(t, "alice", d1.Subject)
	assert.Equal(t, "plugin", d1.PluginID)

	d2, created := cache.GetOrCreate("alice", "plugin", newDraftFunc("alice", "plugin"))
	assert.False(t, created)
	assert.Same(t, d1, d2)

	got, ok := cache.Get("alice", "plugin")
	require.True(t, ok)
	assert.Same(t, d1, got)
}

func TestCache_KeyedBySubjectAndPlugin(t *testing.T) {
	cache := newCache(time.Minute, 10, newFakeClock().Now)

	a, _ := cache.GetOrCreate("alice", "plugin", newDraftFunc("alice", "plugin"))
	b, _ := cache.GetOrCreate("bob", "plugin", newDraftFunc("bob", "plugin"))
	c, _ := cache.GetOrCreate("alice", "other", newDraftFunc("alice", "other"))

	assert.NotSame(t, a, b)
	assert.NotSame(t, a, c)
	assert.Equal(t, 3, cache.Len())
	assert.Equal(t, "alice/plugin", Key("alice", "plugin"))
}

func TestCache_Expired(t *testing.T) {
	clock := newFakeClock()
	cache := newCache(time.Minute, 10, clock.Now)

	d1, _ := cache.GetOrCreate("alice", "plugin", newDraftFunc("alice", "plugin"))

	clock.Advance(time.Minute)

	_, ok := cache.Get("alice", "plugin")
	assert.False(t, ok, "draft should expire after the TTL")

	d2, created := cache.GetOrCreate("alice", "plugin", newDraftFunc("alice", "plugin"))
	assert.True(t, created)
	assert.NotSame(t, d1, d2)
}

func TestCache_AccessRefreshesTTL(t *testing.T) {
	clock := newFakeClock()
	cache := newCache(time.Minute, 10, clock.Now)

	cache.GetOrCreate("alice", "plugin", newDraftFunc("alice", "plugin"))

	clock.Advance(40 * time.Second)
	_, ok := cache.Get("alice", "plugin")
	require.True(t, ok)

	clock.Advance(40 * time.Second)
	_, ok = cache.Get("alice", "plugin")
	assert.True(t, ok, "access should refresh the TTL")
}

func TestCache_EvictionOrder(t *testing.T) {
	clock := newFakeClock()
	cache := newCache(time.Hour, 2, clock.Now)

	cache.GetOrCreate("a", "p", newDraftFunc("a", "p"))
	clock.Advance(time.Second)
	cache.GetOrCreate("b", "p", newDraftFunc("b", "p"))
	clock.Advance(time.Second)

	// Touch a so that b is the least recently used
	_, ok := cache.Get("a", "p")
	require.True(t, ok)

	cache.GetOrCreate("c", "p", newDraftFunc("c", "p"))

	assert.Equal(t, 2, cache.Len())
	_, ok = cache.Get("b", "p")
	assert.False(t, ok, "least recently used draft should be evicted")
	_, ok = cache.Get("a", "p")
	assert.True(t, ok)
	_, ok = cache.Get("c", "p")
	assert.True(t, ok)
}

func TestCache_Remove(t *testing.T) {
	cache := newCache(time.Minute, 10, newFakeClock().Now)

	cache.GetOrCreate("alice", "plugin", newDraftFunc("alice", "plugin"))
	cache.Remove("alice", "plugin")
	cache.Remove("alice", "plugin")

	_, ok := cache.Get("alice", "plugin")
	assert.False(t, ok)
	assert.Equal(t, 0, cache.Len())
}

func TestCache_Cleanup(t *testing.T) {
	clock := newFakeClock()
	cache := newCache(time.Minute, 10, clock.Now)

	cache.GetOrCreate("old", "p", newDraftFunc("old", "p"))
	clock.Advance(50 * time.Second)
	cache.GetOrCreate("new", "p", newDraftFunc("new", "p"))
	clock.Advance(20 * time.Second)

	cache.runCleanup()

	assert.Equal(t, 1, cache.Len())
	_, ok := cache.Get("new", "p")
	assert.True(t, ok)
}

func TestCache_Concurrent(t *testing.T) {
	cache := NewCache(time.Minute, 50)
	defer cache.Close()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			subject := fmt.Sprintf("admin-%d", i%5)
			for j := 0; j < 50; j++ {
				d, _ := cache.GetOrCreate(subject, "plugin", newDraftFunc(subject, "plugin"))
				d.SetEnabled(j%2 == 0)
				cache.Get(subject, "plugin")
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 5, cache.Len())
}

func TestCache_Close(t *testing.T) {
	cache := NewCache(time.Minute, 10)

	// Close twice should not panic
	cache.Close()
	cache.Close()
}

func TestCache_MinimumSize(t *testing.T) {
	cache := newCache(time.Minute, 0, newFakeClock().Now)

	cache.GetOrCreate("a", "p", newDraftFunc("a", "p"))
	cache.GetOrCreate("b", "p", newDraftFunc("b", "p"))

	assert.Equal(t, 1, cache.Len())
}
