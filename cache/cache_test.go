package cache

import (
	"testing"

	"short-link-registry/config"
	"short-link-registry/model"
)

func newTestCache(t *testing.T) *Cache {
	t.Helper()
	c, err := New(config.CacheConfig{
		MaxSizeMB:   1,
		TTLSeconds:  60,
		CounterSize: 1000,
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(c.Close)
	return c
}

func TestSetGetDelete(t *testing.T) {
	c := newTestCache(t)

	entry := model.Entry{Code: "abc12345", Kind: model.KindURL, Value: "https://example.com"}
	if ok := c.Set(entry.Code, entry, 1024); !ok {
		t.Fatal("Set() = false")
	}
	c.Wait()

	cached, found := c.Get(entry.Code)
	if !found {
		t.Fatal("Get() miss for a key that was just set")
	}
	got, ok := cached.(model.Entry)
	if !ok {
		t.Fatalf("cached value has type %T, want model.Entry", cached)
	}
	if got != entry {
		t.Errorf("Get() = %+v, want %+v", got, entry)
	}

	c.Delete(entry.Code)
	c.Wait()
	if _, found := c.Get(entry.Code); found {
		t.Error("Get() hit after Delete()")
	}
}

func TestGetUnknownKey(t *testing.T) {
	c := newTestCache(t)

	if _, found := c.Get("missing0"); found {
		t.Error("Get() hit for a key that was never set")
	}
}

func TestNilCacheIsInert(t *testing.T) {
	var c *Cache

	if ok := c.Set("abc12345", "value", 1); ok {
		t.Error("Set() on nil cache = true")
	}
	if _, found := c.Get("abc12345"); found {
		t.Error("Get() on nil cache reported a hit")
	}
	c.Delete("abc12345")
	c.Wait()
	c.Close()
}
