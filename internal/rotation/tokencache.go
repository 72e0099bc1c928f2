package rotation

import (
	"time"

	"github.com/KNIGHTABDO/zeroqcm-sub001/internal/exchange"
	"github.com/KNIGHTABDO/zeroqcm-sub001/internal/utils/cache"
)

// tokenCache maps credential id to the last exchanged token. Process
// lifetime only; a restart starts cold. A token stops being served
// margin before its real expiry.
type tokenCache struct {
	entries *cache.Cache[int, exchange.Result]
	margin  time.Duration
	now     func() time.Time
}

func newTokenCache(margin time.Duration, now func() time.Time) *tokenCache {
	if now == nil {
		now = time.Now
	}
	return &tokenCache{
		entries: cache.New[int, exchange.Result](16),
		margin:  margin,
		now:     now,
	}
}

func (tc *tokenCache) get(credentialID int) (exchange.Result, bool) {
	res, ok := tc.entries.Get(credentialID)
	if !ok {
		return exchange.Result{}, false
	}
	if !tc.now().Before(res.ExpiresAt.Add(-tc.margin)) {
		tc.entries.Del(credentialID)
		return exchange.Result{}, false
	}
	return res, true
}

func (tc *tokenCache) put(credentialID int, res exchange.Result) {
	tc.entries.Set(credentialID, res)
}

func (tc *tokenCache) drop(credentialID int) {
	tc.entries.Del(credentialID)
}
