package cache

import (
	"context"
	"testing"
	"time"
)

func TestFileCacheRoundTrip(t *testing.T) {
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileCache: %v", err)
	}
	defer c.Close()
	ctx := context.Background()

	if _, hit, err := c.Get(ctx, "absent"); err != nil || hit {
		t.Errorf("Get absent = hit=%v err=%v", hit, err)
	}

	if err := c.Set(ctx, "key", []byte("value"), time.Hour); err != nil {
		t.Fatalf("Set: %v", err)
	}
	data, hit, err := c.Get(ctx, "key")
	if err != nil || !hit {
		t.Fatalf("Get = hit=%v err=%v", hit, err)
	}
	if string(data) != "value" {
		t.Errorf("data = %q", data)
	}

	if err := c.Delete(ctx, "key"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, hit, _ := c.Get(ctx, "key"); hit {
		t.Error("deleted key still present")
	}

	// Deleting a missing key is not an error.
	if err := c.Delete(ctx, "absent"); err != nil {
		t.Errorf("Delete absent: %v", err)
	}
}

func TestFileCacheExpiry(t *testing.T) {
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileCache: %v", err)
	}
	ctx := context.Background()

	if err := c.Set(ctx, "short", []byte("x"), time.Nanosecond); err != nil {
		t.Fatalf("Set: %v", err)
	}
	time.Sleep(5 * time.Millisecond)
	if _, hit, _ := c.Get(ctx, "short"); hit {
		t.Error("expired entry still served")
	}

	// TTL 0 never expires.
	if err := c.Set(ctx, "forever", []byte("x"), 0); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if _, hit, _ := c.Get(ctx, "forever"); !hit {
		t.Error("zero-TTL entry expired")
	}
}

func TestNullCache(t *testing.T) {
	c := NewNullCache()
	ctx := context.Background()

	if err := c.Set(ctx, "key", []byte("value"), time.Hour); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if _, hit, err := c.Get(ctx, "key"); err != nil || hit {
		t.Errorf("null cache stored a value: hit=%v err=%v", hit, err)
	}
	if err := c.Delete(ctx, "key"); err != nil {
		t.Errorf("Delete: %v", err)
	}
	if err := c.Close(); err != nil {
		t.Errorf("Close: %v", err)
	}
}

func TestHash(t *testing.T) {
	h1 := Hash([]byte("hello"))
	h2 := Hash([]byte("hello"))
	h3 := Hash([]byte("world"))

	if len(h1) != 64 {
		t.Errorf("hash length = %d, want 64", len(h1))
	}
	if h1 != h2 {
		t.Error("hash not deterministic")
	}
	if h1 == h3 {
		t.Error("distinct inputs collided")
	}
}

func TestKeyer(t *testing.T) {
	k := NewDefaultKeyer()

	if k.ImageKey("https://a.example/x.png") != k.ImageKey("https://a.example/x.png") {
		t.Error("image key not deterministic")
	}
	if k.ImageKey("https://a.example/x.png") == k.ImageKey("https://a.example/y.png") {
		t.Error("distinct URLs share a key")
	}

	base := ArtifactKeyOpts{Format: "png", Width: 800, Height: 600}
	if k.ArtifactKey("h1", base) != k.ArtifactKey("h1", base) {
		t.Error("artifact key not deterministic")
	}
	for name, opts := range map[string]ArtifactKeyOpts{
		"format":     {Format: "svg", Width: 800, Height: 600},
		"width":      {Format: "png", Width: 400, Height: 600},
		"screenshot": {Format: "png", Width: 800, Height: 600, Screenshot: "abc"},
	} {
		if k.ArtifactKey("h1", base) == k.ArtifactKey("h1", opts) {
			t.Errorf("changing %s did not change the key", name)
		}
	}
	if k.ArtifactKey("h1", base) == k.ArtifactKey("h2", base) {
		t.Error("distinct documents share a key")
	}
}

func TestScopedKeyer(t *testing.T) {
	inner := NewDefaultKeyer()
	scoped := NewScopedKeyer(inner, "tenant1:")

	if got, want := scoped.ImageKey("u"), "tenant1:"+inner.ImageKey("u"); got != want {
		t.Errorf("ImageKey = %q, want %q", got, want)
	}

	// Nil inner falls back to the default keyer.
	fallback := NewScopedKeyer(nil, "p:")
	if got, want := fallback.ImageKey("u"), "p:"+inner.ImageKey("u"); got != want {
		t.Errorf("fallback ImageKey = %q, want %q", got, want)
	}
}
