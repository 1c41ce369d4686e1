package cache

import (
	"context"
	"testing"
	"time"
)

func TestNilCacheIsSafe(t *testing.T) {
	var c *Cache
	ctx := context.Background()

	if payload, ok := c.Get(ctx, "GC-ABCDEFGHJKMN"); ok || payload != nil {
		t.Fatalf("nil cache Get = (%v, %v)", payload, ok)
	}
	c.Set(ctx, "GC-ABCDEFGHJKMN", []byte("{}"))
	c.Del(ctx, "GC-ABCDEFGHJKMN")
	if errClose := c.Close(); errClose != nil {
		t.Fatalf("nil cache Close: %v", errClose)
	}
}

func TestNewWithoutAddrDisablesCaching(t *testing.T) {
	if c := New("", "", 0, time.Minute); c != nil {
		t.Fatal("empty addr should return nil cache")
	}
}
