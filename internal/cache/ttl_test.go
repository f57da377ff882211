package cache

import (
	"testing"
	"time"
)

func TestGetReturnsStoredValue(t *testing.T) {
	c := NewTTL[int](time.Minute)
	c.Set("a", 42)

	got, ok := c.Get("a")
	if !ok || got != 42 {
		t.Errorf("Get = %d, %v; want 42, true", got, ok)
	}
}

func TestGetMissesUnknownKey(t *testing.T) {
	c := NewTTL[int](time.Minute)
	if _, ok := c.Get("missing"); ok {
		t.Error("expected a miss for an unknown key")
	}
}

func TestEntriesExpire(t *testing.T) {
	c := NewTTL[string](10 * time.Millisecond)
	c.Set("a", "x")

	time.Sleep(25 * time.Millisecond)

	if _, ok := c.Get("a"); ok {
		t.Error("entry should have expired")
	}
	if c.Size() != 0 {
		t.Errorf("Size = %d after expired Get, want 0", c.Size())
	}
}

func TestInvalidateRemovesImmediately(t *testing.T) {
	c := NewTTL[int](time.Minute)
	c.Set("a", 1)
	c.Invalidate("a")

	if _, ok := c.Get("a"); ok {
		t.Error("entry should be gone after Invalidate")
	}
}

func TestSetRefreshesTTL(t *testing.T) {
	c := NewTTL[int](30 * time.Millisecond)
	c.Set("a", 1)
	time.Sleep(20 * time.Millisecond)
	c.Set("a", 2)
	time.Sleep(20 * time.Millisecond)

	got, ok := c.Get("a")
	if !ok || got != 2 {
		t.Errorf("Get = %d, %v; want 2, true", got, ok)
	}
}

func TestCleanExpired(t *testing.T) {
	c := NewTTL[int](10 * time.Millisecond)
	c.Set("a", 1)
	c.Set("b", 2)

	time.Sleep(25 * time.Millisecond)
	c.Set("c", 3)

	if removed := c.CleanExpired(); removed != 2 {
		t.Errorf("CleanExpired = %d, want 2", removed)
	}
	if c.Size() != 1 {
		t.Errorf("Size = %d, want 1", c.Size())
	}
}
