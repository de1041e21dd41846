package cache

import (
	"bytes"
	"context"
	"testing"
	"time"
)

func TestNullCache(t *testing.T) {
	ctx := context.Background()
	c := NewNullCache()
	defer c.Close()

	// Get always returns miss
	data, hit, err := c.Get(ctx, "key")
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if hit {
		t.Error("NullCache.Get should always return miss")
	}
	if data != nil {
		t.Error("NullCache.Get should return nil data")
	}

	// Set does nothing (no error)
	if err := c.Set(ctx, "key", []byte("value"), time.Hour); err != nil {
		t.Errorf("Set error: %v", err)
	}

	// Still a miss after Set
	_, hit, _ = c.Get(ctx, "key")
	if hit {
		t.Error("NullCache should not store data")
	}

	// Delete does nothing (no error)
	if err := c.Delete(ctx, "key"); err != nil {
		t.Errorf("Delete error: %v", err)
	}
}

func TestFileCache_SetGetDelete(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileCache error: %v", err)
	}
	defer c.Close()

	want := []byte(`{"positions":{}}`)
	if err := c.Set(ctx, "layout:abc", want, time.Hour); err != nil {
		t.Fatalf("Set error: %v", err)
	}

	data, hit, err := c.Get(ctx, "layout:abc")
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if !hit {
		t.Fatal("Get should hit after Set")
	}
	if !bytes.Equal(data, want) {
		t.Errorf("Get = %q, want %q", data, want)
	}

	if err := c.Delete(ctx, "layout:abc"); err != nil {
		t.Fatalf("Delete error: %v", err)
	}
	if _, hit, _ := c.Get(ctx, "layout:abc"); hit {
		t.Error("Get should miss after Delete")
	}
}

func TestFileCache_MissOnUnknownKey(t *testing.T) {
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileCache error: %v", err)
	}
	defer c.Close()

	if _, hit, err := c.Get(context.Background(), "never-set"); hit || err != nil {
		t.Errorf("Get = (hit=%v, err=%v), want miss with no error", hit, err)
	}
}

func TestFileCache_Expiration(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileCache error: %v", err)
	}
	defer c.Close()

	if err := c.Set(ctx, "key", []byte("v"), time.Nanosecond); err != nil {
		t.Fatalf("Set error: %v", err)
	}
	time.Sleep(10 * time.Millisecond)

	if _, hit, _ := c.Get(ctx, "key"); hit {
		t.Error("Get should miss after TTL expired")
	}
}

func TestHash(t *testing.T) {
	// Test determinism
	h1 := Hash([]byte("hello"))
	h2 := Hash([]byte("hello"))
	if h1 != h2 {
		t.Error("Hash should be deterministic")
	}

	// Test different inputs produce different hashes
	h3 := Hash([]byte("world"))
	if h1 == h3 {
		t.Error("Different inputs should produce different hashes")
	}

	// Test hash length (SHA-256 produces 64 hex chars)
	if len(h1) != 64 {
		t.Errorf("Hash length should be 64, got %d", len(h1))
	}
}

func TestLayoutKey(t *testing.T) {
	k1 := LayoutKey("hash123", LayoutKeyOpts{Width: 800, Height: 600})
	k2 := LayoutKey("hash123", LayoutKeyOpts{Width: 800, Height: 600})
	if k1 != k2 {
		t.Error("LayoutKey should be deterministic")
	}

	k3 := LayoutKey("hash123", LayoutKeyOpts{Width: 1024, Height: 600})
	if k1 == k3 {
		t.Error("Different canvas sizes should produce different keys")
	}

	k4 := LayoutKey("otherhash", LayoutKeyOpts{Width: 800, Height: 600})
	if k1 == k4 {
		t.Error("Different graph hashes should produce different keys")
	}

	k5 := LayoutKey("hash123", LayoutKeyOpts{Width: 800, Height: 600, HSpacing: 200})
	if k1 == k5 {
		t.Error("Different spacing should produce different keys")
	}
}

func TestAnalysisKey(t *testing.T) {
	k1 := AnalysisKey("hash123", AnalysisKeyOpts{MaxPaths: 1000})
	k2 := AnalysisKey("hash123", AnalysisKeyOpts{MaxPaths: 50})
	if k1 == k2 {
		t.Error("Different MaxPaths should produce different keys")
	}

	if k1 == LayoutKey("hash123", LayoutKeyOpts{}) {
		t.Error("Analysis and layout keys must not collide")
	}
}
