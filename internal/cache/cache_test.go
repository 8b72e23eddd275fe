package cache

import (
	"bytes"
	"testing"
	"time"
)

func TestCacheGetSet(t *testing.T) {
	c := New(true, time.Minute, 10)

	if _, ok := c.Get("missing"); ok {
		t.Error("Get on empty cache reported a hit")
	}

	body := []byte(`[{"artist":"x"}]`)
	c.Set("q", body)
	got, ok := c.Get("q")
	if !ok {
		t.Fatal("Get after Set reported a miss")
	}
	if !bytes.Equal(got, body) {
		t.Errorf("Get returned %q, want %q", got, body)
	}
}

func TestCacheDisabled(t *testing.T) {
	c := New(false, time.Minute, 10)
	c.Set("q", []byte("body"))
	if _, ok := c.Get("q"); ok {
		t.Error("disabled cache reported a hit")
	}
	if c.Len() != 0 {
		t.Errorf("disabled cache stored %d entries, want 0", c.Len())
	}
}

func TestCacheExpiry(t *testing.T) {
	c := New(true, time.Minute, 10)
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	c.Set("q", []byte("body"))
	if _, ok := c.Get("q"); !ok {
		t.Fatal("fresh entry reported a miss")
	}

	now = now.Add(2 * time.Minute)
	if _, ok := c.Get("q"); ok {
		t.Error("expired entry reported a hit")
	}
	if c.Len() != 0 {
		t.Errorf("expired entry not dropped, Len = %d", c.Len())
	}
}

func TestCacheEviction(t *testing.T) {
	c := New(true, time.Minute, 2)
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	c.Set("a", []byte("1"))
	now = now.Add(time.Second)
	c.Set("b", []byte("2"))
	now = now.Add(time.Second)
	c.Set("c", []byte("3"))

	if c.Len() != 2 {
		t.Fatalf("Len after eviction = %d, want 2", c.Len())
	}
	if _, ok := c.Get("a"); ok {
		t.Error("oldest entry survived eviction")
	}
	if _, ok := c.Get("c"); !ok {
		t.Error("newest entry was evicted")
	}
}

func TestCacheEvictionPrefersExpired(t *testing.T) {
	c := New(true, time.Minute, 2)
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	c.Set("old", []byte("1"))
	now = now.Add(2 * time.Minute)
	c.Set("fresh", []byte("2"))
	c.Set("newer", []byte("3"))

	if _, ok := c.Get("fresh"); !ok {
		t.Error("live entry evicted while an expired one existed")
	}
	if _, ok := c.Get("newer"); !ok {
		t.Error("just-written entry missing")
	}
}

func TestCachePurge(t *testing.T) {
	c := New(true, time.Minute, 10)
	c.Set("a", []byte("1"))
	c.Set("b", []byte("2"))
	c.Purge()
	if c.Len() != 0 {
		t.Errorf("Len after Purge = %d, want 0", c.Len())
	}
	if _, ok := c.Get("a"); ok {
		t.Error("purged entry reported a hit")
	}
}
