package cache

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct{ t time.Time }

func (f *fakeClock) Now() time.Time          { return f.t }
func (f *fakeClock) Advance(d time.Duration) { f.t = f.t.Add(d) }

func newTestCache() (*Cache, *fakeClock) {
	clk := &fakeClock{t: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	return New(Options{Now: clk.Now}), clk
}

func TestNewKeyIsDeterministicAndFieldSensitive(t *testing.T) {
	a := NewKey("baidu", "hello", "auto", "zh")
	assert.Equal(t, a, NewKey("baidu", "hello", "auto", "zh"))
	assert.Len(t, string(a), 64)
	assert.NotEqual(t, a, NewKey("tencent", "hello", "auto", "zh"))
	assert.NotEqual(t, a, NewKey("baidu", "hello", "auto", "en"))
	// field boundaries matter
	assert.NotEqual(t, NewKey("ab", "c", "", ""), NewKey("a", "bc", "", ""))
}

func TestLookupMissAndHit(t *testing.T) {
	c, _ := newTestCache()
	k := NewKey("p", "t", "s", "d")

	_, ok := c.Lookup(k)
	assert.False(t, ok)

	c.Insert(k, "value")
	v, ok := c.Lookup(k)
	require.True(t, ok)
	assert.Equal(t, "value", v)
	assert.Equal(t, uint(1), c.entries[k].hits)
}

func TestExpiredEntryIsMissAndRemoved(t *testing.T) {
	c, clk := newTestCache()
	k := NewKey("p", "t", "s", "d")
	c.Insert(k, "value")

	clk.Advance(DefaultTTL - time.Second)
	_, ok := c.Lookup(k)
	assert.True(t, ok)

	clk.Advance(time.Second)
	_, ok = c.Lookup(k)
	assert.False(t, ok)
	assert.Equal(t, 0, c.Len())
}

func TestEvictionPrefersLowestHitCount(t *testing.T) {
	c, clk := newTestCache()
	keys := make([]Key, DefaultCapacity)
	for i := range keys {
		keys[i] = NewKey("p", fmt.Sprint(i), "s", "d")
		c.Insert(keys[i], fmt.Sprint(i))
		clk.Advance(time.Second)
	}
	// Every entry gets a hit except 42, which is not the oldest.
	for i, k := range keys {
		if i != 42 {
			_, ok := c.Lookup(k)
			require.True(t, ok)
		}
	}

	c.Insert(NewKey("p", "new", "s", "d"), "new")

	assert.Equal(t, DefaultCapacity, c.Len())
	_, ok := c.Lookup(keys[42])
	assert.False(t, ok, "entry with fewest hits should be evicted")
	_, ok = c.Lookup(keys[0])
	assert.True(t, ok)
}

func TestEvictionTieBreaksOnOldest(t *testing.T) {
	c, clk := newTestCache()
	keys := make([]Key, DefaultCapacity)
	for i := range keys {
		keys[i] = NewKey("p", fmt.Sprint(i), "s", "d")
		c.Insert(keys[i], fmt.Sprint(i))
		clk.Advance(time.Second)
	}

	c.Insert(NewKey("p", "new", "s", "d"), "new")

	assert.Equal(t, DefaultCapacity, c.Len())
	_, ok := c.Lookup(keys[0])
	assert.False(t, ok, "oldest zero-hit entry should be evicted")
	for _, k := range keys[1:] {
		_, ok := c.Lookup(k)
		assert.True(t, ok)
	}
}

func TestClear(t *testing.T) {
	c, _ := newTestCache()
	c.Insert(NewKey("p", "t", "s", "d"), "v")
	c.Clear()
	assert.Equal(t, 0, c.Len())
}

func TestOptionsOverride(t *testing.T) {
	c := New(Options{Capacity: 2, TTL: time.Minute})
	c.Insert("a", "1")
	c.Insert("b", "2")
	c.Insert("c", "3")
	assert.Equal(t, 2, c.Len())
	assert.Equal(t, time.Minute, c.ttl)
}

func TestConcurrentAccess(t *testing.T) {
	c := New(Options{Capacity: 10})
	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				k := NewKey("p", fmt.Sprint(i%20), "s", "d")
				if _, ok := c.Lookup(k); !ok {
					c.Insert(k, fmt.Sprint(g))
				}
			}
		}(g)
	}
	wg.Wait()
	assert.LessOrEqual(t, c.Len(), 10)
}
