package cache

import (
	"context"
	"testing"
	"time"
)

// fixedClock returns a controllable clock for the memory backend.
func fixedClock(start time.Time) (func() time.Time, func(d time.Duration)) {
	current := start
	now := func() time.Time { return current }
	advance := func(d time.Duration) { current = current.Add(d) }
	return now, advance
}

func TestMemory_SetGet(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	if err := m.Set(ctx, "price:binance:BTC/USDT", 50000.0, time.Minute); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	value, ok, err := m.Get(ctx, "price:binance:BTC/USDT")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if !ok {
		t.Fatal("Get() ok = false, want true")
	}
	if value != 50000.0 {
		t.Errorf("Get() = %v, want 50000.0", value)
	}
}

func TestMemory_GetMissing(t *testing.T) {
	m := NewMemory()

	_, ok, err := m.Get(context.Background(), "missing")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if ok {
		t.Error("Get() ok = true for missing key, want false")
	}
}

func TestMemory_Expiry(t *testing.T) {
	m := NewMemory()
	now, advance := fixedClock(time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC))
	m.now = now
	ctx := context.Background()

	if err := m.Set(ctx, "key", "value", 5*time.Second); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	// Still fresh at exactly the TTL boundary.
	advance(5 * time.Second)
	if _, ok, _ := m.Get(ctx, "key"); !ok {
		t.Error("Get() at TTL boundary ok = false, want true")
	}

	// One tick past the boundary it expires and is evicted.
	advance(time.Second)
	if _, ok, _ := m.Get(ctx, "key"); ok {
		t.Error("Get() past TTL ok = true, want false")
	}

	stats, err := m.GetStats(ctx)
	if err != nil {
		t.Fatalf("GetStats() error = %v", err)
	}
	if stats.Size != 0 {
		t.Errorf("Size after expiry eviction = %d, want 0", stats.Size)
	}
}

func TestMemory_SetOverwriteResetsTTL(t *testing.T) {
	m := NewMemory()
	now, advance := fixedClock(time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC))
	m.now = now
	ctx := context.Background()

	m.Set(ctx, "key", "old", 5*time.Second)
	advance(4 * time.Second)
	m.Set(ctx, "key", "new", 5*time.Second)
	advance(4 * time.Second)

	// 8 seconds after the first write, but only 4 after the overwrite.
	value, ok, _ := m.Get(ctx, "key")
	if !ok {
		t.Fatal("Get() ok = false after overwrite, want true")
	}
	if value != "new" {
		t.Errorf("Get() = %v, want new", value)
	}
}

func TestMemory_Delete(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	m.Set(ctx, "key", "value", time.Minute)
	if err := m.Delete(ctx, "key"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, ok, _ := m.Get(ctx, "key"); ok {
		t.Error("Get() after Delete ok = true, want false")
	}

	// Deleting an absent key is a no-op.
	if err := m.Delete(ctx, "missing"); err != nil {
		t.Errorf("Delete() on missing key error = %v", err)
	}
}

func TestMemory_ClearPreservesCounters(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	m.Set(ctx, "a", 1, time.Minute)
	m.Set(ctx, "b", 2, time.Minute)
	m.Get(ctx, "a")       // hit
	m.Get(ctx, "missing") // miss

	if err := m.Clear(ctx); err != nil {
		t.Fatalf("Clear() error = %v", err)
	}

	stats, _ := m.GetStats(ctx)
	if stats.Size != 0 {
		t.Errorf("Size after Clear = %d, want 0", stats.Size)
	}
	if stats.Hits != 1 || stats.Misses != 1 {
		t.Errorf("Counters after Clear = %d/%d, want 1/1", stats.Hits, stats.Misses)
	}
}

func TestMemory_Stats(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	// No requests yet: hit rate must be 0, not NaN.
	stats, _ := m.GetStats(ctx)
	if stats.HitRate != 0 {
		t.Errorf("HitRate with no requests = %v, want 0", stats.HitRate)
	}
	if stats.Backend != "memory" {
		t.Errorf("Backend = %q, want memory", stats.Backend)
	}

	m.Set(ctx, "key", "value", time.Minute)
	m.Get(ctx, "key")     // hit
	m.Get(ctx, "key")     // hit
	m.Get(ctx, "missing") // miss
	m.Get(ctx, "other")   // miss

	stats, _ = m.GetStats(ctx)
	if stats.Hits != 2 {
		t.Errorf("Hits = %d, want 2", stats.Hits)
	}
	if stats.Misses != 2 {
		t.Errorf("Misses = %d, want 2", stats.Misses)
	}
	if stats.TotalRequests != 4 {
		t.Errorf("TotalRequests = %d, want 4", stats.TotalRequests)
	}
	if stats.HitRate != 50.0 {
		t.Errorf("HitRate = %v, want 50.0", stats.HitRate)
	}
	if stats.Size != 1 {
		t.Errorf("Size = %d, want 1", stats.Size)
	}
}

func TestMemory_ConcurrentAccess(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	done := make(chan struct{})
	for i := 0; i < 10; i++ {
		go func() {
			defer func() { done <- struct{}{} }()
			for j := 0; j < 100; j++ {
				m.Set(ctx, "key", j, time.Minute)
				m.Get(ctx, "key")
			}
		}()
	}
	for i := 0; i < 10; i++ {
		<-done
	}

	stats, _ := m.GetStats(ctx)
	if stats.TotalRequests != 1000 {
		t.Errorf("TotalRequests = %d, want 1000", stats.TotalRequests)
	}
}
