package rotation

import (
	"testing"
	"time"

	"github.com/KNIGHTABDO/zeroqcm-sub001/internal/exchange"
)

func TestTokenCache_MarginBoundary(t *testing.T) {
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	now := base
	tc := newTokenCache(5*time.Minute, func() time.Time { return now })

	tc.put(1, exchange.Result{Token: "tok", ExpiresAt: base.Add(10 * time.Minute)})

	// 4 minutes in: still inside expiry minus margin
	now = base.Add(4 * time.Minute)
	if _, ok := tc.get(1); !ok {
		t.Fatal("expected cache hit at expiry-6m")
	}

	// 6 minutes in: past expiry minus margin, entry dropped
	now = base.Add(6 * time.Minute)
	if _, ok := tc.get(1); ok {
		t.Fatal("expected cache miss at expiry-4m")
	}
	// entry was evicted, even going back in time misses
	now = base
	if _, ok := tc.get(1); ok {
		t.Fatal("expected stale entry to be evicted")
	}
}

func TestTokenCache_PerCredential(t *testing.T) {
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	tc := newTokenCache(5*time.Minute, func() time.Time { return base })

	tc.put(1, exchange.Result{Token: "tok-a", ExpiresAt: base.Add(time.Hour)})

	if _, ok := tc.get(2); ok {
		t.Fatal("credential 2 must not share credential 1's token")
	}
	res, ok := tc.get(1)
	if !ok || res.Token != "tok-a" {
		t.Fatalf("get(1) = %v %v, want tok-a", res, ok)
	}

	tc.drop(1)
	if _, ok := tc.get(1); ok {
		t.Fatal("expected miss after drop")
	}
}
