package timeline

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/keyxmakerx/loreline/internal/chronology"
)

func newCacheWithServer(t *testing.T) (*Cache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewCache(client, time.Minute), mr
}

func cachedEvents() []Event {
	return []Event{{
		ID:        "event-1",
		SagaID:    "saga-1",
		Title:     "Battle of Arrakeen",
		DateText:  "10,191 AG",
		Timestamp: 10191 * chronology.SecondsPerYear,
	}}
}

func TestCacheListRoundTrip(t *testing.T) {
	cache, _ := newCacheWithServer(t)
	ctx := context.Background()
	filter := DefaultEventFilter()

	if _, _, ok := cache.GetList(ctx, "saga-1", filter); ok {
		t.Fatal("expected miss on empty cache")
	}

	cache.SetList(ctx, "saga-1", filter, cachedEvents(), 1)

	events, total, ok := cache.GetList(ctx, "saga-1", filter)
	if !ok {
		t.Fatal("expected hit after SetList")
	}
	if total != 1 || len(events) != 1 {
		t.Fatalf("expected 1 event (total 1), got %d (total %d)", len(events), total)
	}
	if events[0].ID != "event-1" {
		t.Errorf("expected event-1, got %s", events[0].ID)
	}
	if events[0].Timestamp != 10191*chronology.SecondsPerYear {
		t.Errorf("expected timestamp preserved, got %d", events[0].Timestamp)
	}
	if events[0].CanonDate != "" {
		t.Errorf("expected no canon date in cached payload, got %q", events[0].CanonDate)
	}
}

func TestCacheInvalidateDropsLists(t *testing.T) {
	cache, _ := newCacheWithServer(t)
	ctx := context.Background()
	filter := DefaultEventFilter()

	cache.SetList(ctx, "saga-1", filter, cachedEvents(), 1)
	cache.Invalidate(ctx, "saga-1")

	if _, _, ok := cache.GetList(ctx, "saga-1", filter); ok {
		t.Fatal("expected miss after invalidation")
	}
}

func TestCacheInvalidateIsPerSaga(t *testing.T) {
	cache, _ := newCacheWithServer(t)
	ctx := context.Background()
	filter := DefaultEventFilter()

	cache.SetList(ctx, "saga-1", filter, cachedEvents(), 1)
	cache.SetList(ctx, "saga-2", filter, cachedEvents(), 1)
	cache.Invalidate(ctx, "saga-1")

	if _, _, ok := cache.GetList(ctx, "saga-1", filter); ok {
		t.Error("expected miss for invalidated saga")
	}
	if _, _, ok := cache.GetList(ctx, "saga-2", filter); !ok {
		t.Error("expected other saga's cache to survive")
	}
}

func TestCacheFingerprintSeparatesFilters(t *testing.T) {
	cache, _ := newCacheWithServer(t)
	ctx := context.Background()

	base := DefaultEventFilter()
	cache.SetList(ctx, "saga-1", base, cachedEvents(), 1)

	from := int64(42)
	ranged := base
	ranged.From = &from
	if _, _, ok := cache.GetList(ctx, "saga-1", ranged); ok {
		t.Error("expected miss for a different range filter")
	}

	paged := base
	paged.Page = 2
	if _, _, ok := cache.GetList(ctx, "saga-1", paged); ok {
		t.Error("expected miss for a different page")
	}

	if _, _, ok := cache.GetList(ctx, "saga-1", base); !ok {
		t.Error("expected hit for the original filter")
	}
}

func TestCacheSpanRoundTrip(t *testing.T) {
	cache, _ := newCacheWithServer(t)
	ctx := context.Background()

	if _, _, _, ok := cache.GetSpan(ctx, "saga-1"); ok {
		t.Fatal("expected miss on empty cache")
	}

	cache.SetSpan(ctx, "saga-1", -5*chronology.SecondsPerYear, 10*chronology.SecondsPerYear, 7)

	min, max, count, ok := cache.GetSpan(ctx, "saga-1")
	if !ok {
		t.Fatal("expected hit after SetSpan")
	}
	if min != -5*chronology.SecondsPerYear {
		t.Errorf("expected min preserved, got %d", min)
	}
	if max != 10*chronology.SecondsPerYear {
		t.Errorf("expected max preserved, got %d", max)
	}
	if count != 7 {
		t.Errorf("expected count 7, got %d", count)
	}
}

func TestCacheSpanInvalidated(t *testing.T) {
	cache, _ := newCacheWithServer(t)
	ctx := context.Background()

	cache.SetSpan(ctx, "saga-1", 0, 100, 2)
	cache.Invalidate(ctx, "saga-1")

	if _, _, _, ok := cache.GetSpan(ctx, "saga-1"); ok {
		t.Fatal("expected miss after invalidation")
	}
}

func TestCacheEntriesExpire(t *testing.T) {
	cache, mr := newCacheWithServer(t)
	ctx := context.Background()
	filter := DefaultEventFilter()

	cache.SetList(ctx, "saga-1", filter, cachedEvents(), 1)
	mr.FastForward(2 * time.Minute)

	if _, _, ok := cache.GetList(ctx, "saga-1", filter); ok {
		t.Fatal("expected miss after TTL expiry")
	}

	// The generation counter has no TTL, so writes after expiry land in the
	// same generation and are readable again.
	cache.SetList(ctx, "saga-1", filter, cachedEvents(), 1)
	if _, _, ok := cache.GetList(ctx, "saga-1", filter); !ok {
		t.Fatal("expected hit after re-populating the same generation")
	}
}

func TestCacheDegradesWhenRedisDown(t *testing.T) {
	cache, mr := newCacheWithServer(t)
	ctx := context.Background()
	filter := DefaultEventFilter()
	mr.Close()

	// Every operation degrades to a miss or no-op instead of failing.
	if _, _, ok := cache.GetList(ctx, "saga-1", filter); ok {
		t.Error("expected miss when redis is unreachable")
	}
	cache.SetList(ctx, "saga-1", filter, cachedEvents(), 1)
	if _, _, _, ok := cache.GetSpan(ctx, "saga-1"); ok {
		t.Error("expected span miss when redis is unreachable")
	}
	cache.SetSpan(ctx, "saga-1", 0, 1, 1)
	cache.Invalidate(ctx, "saga-1")
}
