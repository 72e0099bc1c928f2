package quota

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

type fakeUsageStore struct {
	mu       sync.Mutex
	counts   map[string]int
	countErr error
	incErr   error
	incDone  chan string
}

func newFakeUsageStore() *fakeUsageStore {
	return &fakeUsageStore{counts: map[string]int{}, incDone: make(chan string, 8)}
}

func key(userID, modelID, day string) string { return userID + "/" + modelID + "/" + day }

func (s *fakeUsageStore) Count(ctx context.Context, userID, modelID, day string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.countErr != nil {
		return 0, s.countErr
	}
	return s.counts[key(userID, modelID, day)], nil
}

func (s *fakeUsageStore) Increment(ctx context.Context, userID, modelID, day string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := key(userID, modelID, day)
	if s.incErr == nil {
		s.counts[k]++
	}
	s.incDone <- k
	return s.incErr
}

func fixedLimit(n int) LimitFunc {
	return func(modelID string) int { return n }
}

var quotaNow = time.Date(2025, 6, 1, 23, 30, 0, 0, time.UTC)

func quotaClock() time.Time { return quotaNow }

func TestCheck_UnderAndAtLimit(t *testing.T) {
	store := newFakeUsageStore()
	l := NewLedger(store, fixedLimit(5), time.UTC, WithClock(quotaClock))

	d := l.Check(context.Background(), "u1", "m1", false)
	if !d.Allowed || d.Remaining != 5 || d.Limit != 5 {
		t.Fatalf("fresh user: got %+v", d)
	}

	store.counts[key("u1", "m1", "2025-06-01")] = 4
	d = l.Check(context.Background(), "u1", "m1", false)
	if !d.Allowed || d.Remaining != 1 {
		t.Fatalf("one left: got %+v", d)
	}

	store.counts[key("u1", "m1", "2025-06-01")] = 5
	d = l.Check(context.Background(), "u1", "m1", false)
	if d.Allowed || d.Remaining != 0 {
		t.Fatalf("at limit: got %+v", d)
	}

	store.counts[key("u1", "m1", "2025-06-01")] = 9
	d = l.Check(context.Background(), "u1", "m1", false)
	if d.Allowed || d.Remaining != 0 {
		t.Fatalf("over limit: remaining must clamp to 0, got %+v", d)
	}
}

func TestCheck_AdminBypass(t *testing.T) {
	store := newFakeUsageStore()
	store.counts[key("admin", "m1", "2025-06-01")] = 100
	l := NewLedger(store, fixedLimit(5), time.UTC, WithClock(quotaClock))

	d := l.Check(context.Background(), "admin", "m1", true)
	if !d.Allowed || d.Remaining != Unlimited || d.Limit != Unlimited {
		t.Fatalf("admin: got %+v", d)
	}
}

func TestCheck_NoCap(t *testing.T) {
	store := newFakeUsageStore()
	store.counts[key("u1", "m1", "2025-06-01")] = 1000
	l := NewLedger(store, fixedLimit(0), time.UTC, WithClock(quotaClock))

	d := l.Check(context.Background(), "u1", "m1", false)
	if !d.Allowed || d.Remaining != Unlimited {
		t.Fatalf("uncapped model: got %+v", d)
	}
}

func TestCheck_StoreFailureFailsOpen(t *testing.T) {
	store := newFakeUsageStore()
	store.countErr = errors.New("db down")
	l := NewLedger(store, fixedLimit(5), time.UTC, WithClock(quotaClock))

	d := l.Check(context.Background(), "u1", "m1", false)
	if !d.Allowed {
		t.Fatalf("store failure must fail open, got %+v", d)
	}
}

func TestCheck_DayBoundaryUsesLedgerTimezone(t *testing.T) {
	// 23:30 UTC on June 1 is already June 2 in UTC+1.
	loc := time.FixedZone("UTC+1", 3600)
	store := newFakeUsageStore()
	store.counts[key("u1", "m1", "2025-06-01")] = 5
	l := NewLedger(store, fixedLimit(5), loc, WithClock(quotaClock))

	d := l.Check(context.Background(), "u1", "m1", false)
	if !d.Allowed || d.Remaining != 5 {
		t.Fatalf("new local day should start a fresh counter, got %+v", d)
	}
}

func TestRecord_IncrementsInBackground(t *testing.T) {
	store := newFakeUsageStore()
	l := NewLedger(store, fixedLimit(5), time.UTC, WithClock(quotaClock))

	l.Record("u1", "m1")

	select {
	case k := <-store.incDone:
		if k != key("u1", "m1", "2025-06-01") {
			t.Fatalf("incremented %s, want u1/m1/2025-06-01", k)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("increment never ran")
	}

	store.mu.Lock()
	defer store.mu.Unlock()
	if store.counts[key("u1", "m1", "2025-06-01")] != 1 {
		t.Fatal("count not bumped")
	}
}

func TestRecord_SwallowsStoreErrors(t *testing.T) {
	store := newFakeUsageStore()
	store.incErr = errors.New("db down")
	l := NewLedger(store, fixedLimit(5), time.UTC, WithClock(quotaClock))

	// must not panic or block the caller
	l.Record("u1", "m1")

	select {
	case <-store.incDone:
	case <-time.After(2 * time.Second):
		t.Fatal("increment never attempted")
	}
}
