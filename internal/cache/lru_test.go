// Instadash - Instagram Automation Account Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/instadash

package cache

import (
	"fmt"
	"sync"
	"testing"
	"time"
)

type clock struct{ t time.Time }

func (c *clock) now() time.Time { return c.t }

func newClocked[V any](capacity int, ttl time.Duration) (*LRU[string, V], *clock) {
	clk := &clock{t: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	c := New[string, V](capacity, ttl)
	c.now = clk.now
	return c, clk
}

func TestLRU_GetSet(t *testing.T) {
	c, _ := newClocked[int](3, time.Minute)
	c.Set("a", 1)
	c.Set("b", 2)

	if v, ok := c.Get("a"); !ok || v != 1 {
		t.Errorf("Get(a) = %v, %v, want 1, true", v, ok)
	}
	if _, ok := c.Get("missing"); ok {
		t.Error("Get(missing) found a value")
	}
	c.Set("a", 10)
	if v, _ := c.Get("a"); v != 10 {
		t.Errorf("Get(a) after overwrite = %v, want 10", v)
	}
	if c.Len() != 2 {
		t.Errorf("Len() = %d, want 2", c.Len())
	}
}

func TestLRU_Eviction(t *testing.T) {
	c, _ := newClocked[int](3, time.Minute)
	c.Set("a", 1)
	c.Set("b", 2)
	c.Set("c", 3)
	c.Get("a")
	c.Set("d", 4)

	if _, ok := c.Get("b"); ok {
		t.Error("b should have been evicted as least recently used")
	}
	for _, k := range []string{"a", "c", "d"} {
		if _, ok := c.Get(k); !ok {
			t.Errorf("%s missing after eviction", k)
		}
	}
	if s := c.Stats(); s.Evictions != 1 {
		t.Errorf("Evictions = %d, want 1", s.Evictions)
	}
}

func TestLRU_TTL(t *testing.T) {
	c, clk := newClocked[string](10, time.Minute)
	c.Set("short", "x")
	c.SetWithTTL("long", "y", time.Hour)

	clk.t = clk.t.Add(2 * time.Minute)
	if _, ok := c.Get("short"); ok {
		t.Error("short entry survived its TTL")
	}
	if _, ok := c.Get("long"); !ok {
		t.Error("long entry expired early")
	}

	c.Set("other", "z")
	clk.t = clk.t.Add(2 * time.Minute)
	if n := c.CleanupExpired(); n != 1 {
		t.Errorf("CleanupExpired() = %d, want 1", n)
	}
}

func TestLRU_DeleteFunc(t *testing.T) {
	c, _ := newClocked[bool](10, time.Minute)
	c.Set("admin:/a:read", true)
	c.Set("admin:/b:read", true)
	c.Set("user:/a:read", false)

	if n := c.DeleteFunc(HasPrefix("admin:")); n != 2 {
		t.Errorf("DeleteFunc() = %d, want 2", n)
	}
	if c.Len() != 1 {
		t.Errorf("Len() = %d, want 1", c.Len())
	}
	if !c.Delete("user:/a:read") || c.Delete("user:/a:read") {
		t.Error("Delete() should report presence exactly once")
	}
	c.Set("x", true)
	c.Clear()
	if c.Len() != 0 {
		t.Errorf("Len() after Clear = %d, want 0", c.Len())
	}
}

func TestLRU_Stats(t *testing.T) {
	c, _ := newClocked[int](10, time.Minute)
	c.Set("a", 1)
	c.Get("a")
	c.Get("a")
	c.Get("b")
	s := c.Stats()
	if s.Hits != 2 || s.Misses != 1 || s.Size != 1 {
		t.Errorf("Stats() = %+v, want 2 hits, 1 miss, size 1", s)
	}
}

func TestLRU_Concurrent(t *testing.T) {
	c := New[string, int](100, time.Minute)
	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 500; i++ {
				k := fmt.Sprintf("k%d", (g*i)%150)
				c.Set(k, i)
				c.Get(k)
				if i%50 == 0 {
					c.DeleteFunc(HasPrefix("k1"))
				}
			}
		}(g)
	}
	wg.Wait()
	if c.Len() > 100 {
		t.Errorf("Len() = %d, exceeds capacity", c.Len())
	}
}
