package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/orderdesk/backend/internal/domain"
)

func TestMemoryCache(t *testing.T) {
	ctx := context.Background()

	t.Run("set and get round-trip", func(t *testing.T) {
		c := NewMemoryCache()

		err := c.Set(ctx, "key", map[string]string{"product_id": "p1"}, time.Minute)
		if err != nil {
			t.Fatalf("Set error: %v", err)
		}

		value, err := c.Get(ctx, "key")
		if err != nil {
			t.Fatalf("Get error: %v", err)
		}

		// Values come back in their JSON shape
		entry, ok := value.(map[string]interface{})
		if !ok {
			t.Fatalf("value type = %T, want map[string]interface{}", value)
		}
		if entry["product_id"] != "p1" {
			t.Errorf("product_id = %v, want p1", entry["product_id"])
		}
	})

	t.Run("missing key is a cache miss", func(t *testing.T) {
		c := NewMemoryCache()

		_, err := c.Get(ctx, "absent")
		if !errors.Is(err, domain.ErrCacheMiss) {
			t.Errorf("error = %v, want ErrCacheMiss", err)
		}
	})

	t.Run("expired key is a cache miss", func(t *testing.T) {
		c := NewMemoryCache()

		if err := c.Set(ctx, "key", "value", time.Millisecond); err != nil {
			t.Fatalf("Set error: %v", err)
		}
		time.Sleep(5 * time.Millisecond)

		_, err := c.Get(ctx, "key")
		if !errors.Is(err, domain.ErrCacheMiss) {
			t.Errorf("error = %v, want ErrCacheMiss", err)
		}
	})

	t.Run("delete removes the key", func(t *testing.T) {
		c := NewMemoryCache()

		if err := c.Set(ctx, "key", "value", time.Minute); err != nil {
			t.Fatalf("Set error: %v", err)
		}
		if err := c.Delete(ctx, "key"); err != nil {
			t.Fatalf("Delete error: %v", err)
		}

		_, err := c.Get(ctx, "key")
		if !errors.Is(err, domain.ErrCacheMiss) {
			t.Errorf("error = %v, want ErrCacheMiss", err)
		}
	})

	t.Run("exists reflects presence and expiry", func(t *testing.T) {
		c := NewMemoryCache()

		exists, err := c.Exists(ctx, "key")
		if err != nil || exists {
			t.Errorf("Exists = %v, %v; want false, nil", exists, err)
		}

		if err := c.Set(ctx, "key", "value", time.Minute); err != nil {
			t.Fatalf("Set error: %v", err)
		}

		exists, err = c.Exists(ctx, "key")
		if err != nil || !exists {
			t.Errorf("Exists = %v, %v; want true, nil", exists, err)
		}
	})

	t.Run("unmarshalable value is rejected", func(t *testing.T) {
		c := NewMemoryCache()

		if err := c.Set(ctx, "key", make(chan int), time.Minute); err == nil {
			t.Error("Set should fail for unmarshalable values")
		}
	})

	t.Run("size and clear", func(t *testing.T) {
		c := NewMemoryCache()

		_ = c.Set(ctx, "a", 1, time.Minute)
		_ = c.Set(ctx, "b", 2, time.Minute)
		if c.Size() != 2 {
			t.Errorf("Size = %d, want 2", c.Size())
		}

		c.Clear()
		if c.Size() != 0 {
			t.Errorf("Size after Clear = %d, want 0", c.Size())
		}
	})
}
