package cache

import (
	"testing"
	"time"
)

func TestCacheHitAndMiss(t *testing.T) {
	c := New(time.Minute)

	if _, ok := c.Get("forecast"); ok {
		t.Error("expected a miss on an empty cache")
	}

	c.Put("forecast", 42)
	got, ok := c.Get("forecast")
	if !ok {
		t.Fatal("expected a hit after Put")
	}
	if got.(int) != 42 {
		t.Errorf("expected 42, got %v", got)
	}
}

func TestCacheExpiry(t *testing.T) {
	now := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	c := New(time.Minute)
	c.now = func() time.Time { return now }

	c.Put("forecast", "v1")

	now = now.Add(59 * time.Second)
	if _, ok := c.Get("forecast"); !ok {
		t.Error("entry expired before its TTL")
	}

	now = now.Add(2 * time.Second)
	if _, ok := c.Get("forecast"); ok {
		t.Error("entry survived past its TTL")
	}
}

func TestCacheNoExpiryWithZeroTTL(t *testing.T) {
	now := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	c := New(0)
	c.now = func() time.Time { return now }

	c.Put("forecast", "v1")
	now = now.Add(24 * time.Hour)
	if _, ok := c.Get("forecast"); !ok {
		t.Error("zero TTL must disable expiry")
	}
}

func TestCacheInvalidate(t *testing.T) {
	c := New(time.Minute)
	c.Put("a", 1)
	c.Put("b", 2)

	if err := c.Invalidate(); err != nil {
		t.Fatalf("Invalidate returned error: %v", err)
	}
	if _, ok := c.Get("a"); ok {
		t.Error("entry a survived invalidation")
	}
	if _, ok := c.Get("b"); ok {
		t.Error("entry b survived invalidation")
	}
}

func TestCacheOverwrite(t *testing.T) {
	c := New(time.Minute)
	c.Put("forecast", "v1")
	c.Put("forecast", "v2")

	got, _ := c.Get("forecast")
	if got != "v2" {
		t.Errorf("expected the newer value, got %v", got)
	}
}
