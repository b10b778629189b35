package cache

import (
	"context"
	"testing"
	"time"
)

func TestCache_SetGet(t *testing.T) {
	c := New[string, int](time.Minute)
	defer c.Close()

	ctx := context.Background()

	if _, ok := c.Get(ctx, "missing"); ok {
		t.Error("Get on empty cache should miss")
	}

	c.Set(ctx, "a", 1, time.Minute)
	v, ok := c.Get(ctx, "a")
	if !ok || v != 1 {
		t.Errorf("Get = (%d, %v), want (1, true)", v, ok)
	}

	// Overwrite
	c.Set(ctx, "a", 2, time.Minute)
	v, _ = c.Get(ctx, "a")
	if v != 2 {
		t.Errorf("Get after overwrite = %d, want 2", v)
	}
}

func TestCache_Expiry(t *testing.T) {
	c := New[string, string](time.Minute)
	defer c.Close()

	ctx := context.Background()
	c.Set(ctx, "k", "v", 10*time.Millisecond)

	time.Sleep(25 * time.Millisecond)

	if _, ok := c.Get(ctx, "k"); ok {
		t.Error("expired entry should not be returned")
	}
}

func TestCache_Delete(t *testing.T) {
	c := New[string, int](time.Minute)
	defer c.Close()

	ctx := context.Background()
	c.Set(ctx, "k", 7, time.Minute)
	c.Delete("k")

	if _, ok := c.Get(ctx, "k"); ok {
		t.Error("deleted entry should not be returned")
	}
}
