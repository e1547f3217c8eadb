package http

import (
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"spendcraft/internal/core"
)

func sampleBuckets(total string) []core.Bucket {
	amt, _ := decimal.NewFromString(total)
	return []core.Bucket{{Label: "Food", Total: amt, Count: 1}}
}

func TestLRUCacheGetSet(t *testing.T) {
	cache := newLRUCache[[]core.Bucket](10, time.Minute)

	if _, found := cache.Get("missing"); found {
		t.Error("Get() on empty cache should miss")
	}

	cache.Set("k", sampleBuckets("10.00"))
	got, found := cache.Get("k")
	if !found {
		t.Fatal("Get() after Set() should hit")
	}
	if len(got) != 1 || got[0].Label != "Food" {
		t.Errorf("cached value = %+v", got)
	}
}

func TestLRUCacheTTLExpiry(t *testing.T) {
	cache := newLRUCache[[]core.Bucket](10, 10*time.Millisecond)

	cache.Set("k", sampleBuckets("10.00"))
	time.Sleep(20 * time.Millisecond)

	if _, found := cache.Get("k"); found {
		t.Error("Get() should miss after TTL expiry")
	}
}

func TestLRUCacheEviction(t *testing.T) {
	cache := newLRUCache[[]core.Bucket](3, time.Minute)

	for i := 0; i < 5; i++ {
		cache.Set(fmt.Sprintf("k%d", i), sampleBuckets("10.00"))
	}

	if cache.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", cache.Len())
	}
	if _, found := cache.Get("k0"); found {
		t.Error("oldest entry should have been evicted")
	}
	if _, found := cache.Get("k4"); !found {
		t.Error("newest entry should survive eviction")
	}
}

func TestLRUCacheClear(t *testing.T) {
	cache := newLRUCache[[]core.Bucket](10, time.Minute)

	cache.Set("a", sampleBuckets("10.00"))
	cache.Set("b", sampleBuckets("20.00"))
	cache.Clear()

	if cache.Len() != 0 {
		t.Fatalf("Len() after Clear() = %d, want 0", cache.Len())
	}
	if _, found := cache.Get("a"); found {
		t.Error("Get() after Clear() should miss")
	}
}

func TestLRUCacheCleanExpired(t *testing.T) {
	cache := newLRUCache[[]core.Bucket](10, 10*time.Millisecond)

	cache.Set("a", sampleBuckets("10.00"))
	cache.Set("b", sampleBuckets("20.00"))
	time.Sleep(20 * time.Millisecond)

	if removed := cache.CleanExpired(); removed != 2 {
		t.Errorf("CleanExpired() = %d, want 2", removed)
	}
	if cache.Len() != 0 {
		t.Errorf("Len() after cleanup = %d, want 0", cache.Len())
	}
}
