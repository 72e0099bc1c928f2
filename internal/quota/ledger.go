// Package quota enforces per-user per-model daily usage caps.
// Check and Record are deliberately not atomic as a pair: the request
// path checks, calls upstream, then fires Record without awaiting it.
// A concurrent burst can slip past the limit; that is an accepted
// availability trade-off, not a bug to lock away.
package quota

import (
	"context"
	"time"

	"github.com/KNIGHTABDO/zeroqcm-sub001/internal/utils/log"
)

// Unlimited is the sentinel Remaining/Limit value when no cap applies.
const Unlimited = -1

const storeTimeout = 2 * time.Second

type Decision struct {
	Allowed   bool `json:"allowed"`
	Remaining int  `json:"remaining"`
	Limit     int  `json:"limit"`
}

// UsageStore reads and bumps day-keyed counters. Increment must be a
// single atomic create-or-increment statement.
type UsageStore interface {
	Count(ctx context.Context, userID, modelID, day string) (int, error)
	Increment(ctx context.Context, userID, modelID, day string) error
}

type LimitResolver interface {
	DailyLimit(modelID string) int
}

// LimitFunc adapts a plain function to LimitResolver.
type LimitFunc func(modelID string) int

func (f LimitFunc) DailyLimit(modelID string) int { return f(modelID) }

type Ledger struct {
	store  UsageStore
	limits LimitResolver
	loc    *time.Location
	now    func() time.Time
}

type LedgerOption func(*Ledger)

// WithClock overrides the ledger's clock, for tests.
func WithClock(now func() time.Time) LedgerOption {
	return func(l *Ledger) { l.now = now }
}

// NewLedger builds a ledger whose day boundary is midnight in loc.
// Pass the one canonical deployment timezone; nil falls back to UTC.
func NewLedger(store UsageStore, limits LimitResolver, loc *time.Location, opts ...LedgerOption) *Ledger {
	if loc == nil {
		loc = time.UTC
	}
	l := &Ledger{
		store:  store,
		limits: limits,
		loc:    loc,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func (l *Ledger) day() string {
	return l.now().In(l.loc).Format("2006-01-02")
}

// Check resolves the user's standing against today's cap. Admins
// always pass. Store failures fail open: availability wins over
// strict enforcement.
func (l *Ledger) Check(ctx context.Context, userID, modelID string, isAdmin bool) Decision {
	if isAdmin {
		return Decision{Allowed: true, Remaining: Unlimited, Limit: Unlimited}
	}

	limit := l.limits.DailyLimit(modelID)
	if limit <= 0 {
		return Decision{Allowed: true, Remaining: Unlimited, Limit: 0}
	}

	cctx, cancel := context.WithTimeout(ctx, storeTimeout)
	defer cancel()
	count, err := l.store.Count(cctx, userID, modelID, l.day())
	if err != nil {
		log.Warnf("quota check for user %s model %s failed, allowing: %v", userID, modelID, err)
		return Decision{Allowed: true, Remaining: Unlimited, Limit: limit}
	}

	remaining := limit - count
	if remaining < 0 {
		remaining = 0
	}
	return Decision{Allowed: count < limit, Remaining: remaining, Limit: limit}
}

// Record bumps today's counter in the background. At most once, no
// retry; failures are logged and swallowed so the caller's request
// path is never blocked or failed by bookkeeping.
func (l *Ledger) Record(userID, modelID string) {
	day := l.day()
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
		defer cancel()
		if err := l.store.Increment(ctx, userID, modelID, day); err != nil {
			log.Warnf("usage increment for user %s model %s failed: %v", userID, modelID, err)
		}
	}()
}
