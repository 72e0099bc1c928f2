// Package rotation picks a credential for each upstream call,
// spreading load across the pool and absorbing individual failures.
// One Manager instance owns the cursor, the token cache and the
// health writes; there are no package globals.
package rotation

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"time"

	"github.com/KNIGHTABDO/zeroqcm-sub001/internal/exchange"
	"github.com/KNIGHTABDO/zeroqcm-sub001/internal/model"
	"github.com/KNIGHTABDO/zeroqcm-sub001/internal/utils/log"
	"golang.org/x/sync/singleflight"
)

var (
	// ErrAllCredentialsDead: one pass over the pool yielded no token.
	// Operator action required; nothing retries past this.
	ErrAllCredentialsDead = errors.New("all credentials failed to produce a token")
	// ErrNoCredentials: empty pool and no fallback configured.
	ErrNoCredentials = errors.New("no credentials enrolled and no fallback configured")
)

// fallbackID keys the operator fallback credential in the token
// cache. Real credentials always have positive ids.
const fallbackID = 0

// Store is the credential persistence the manager needs. op
// implements it over the credential cache + database.
type Store interface {
	// ListUsable returns non-dead credentials ordered by use count
	// ascending.
	ListUsable(ctx context.Context) ([]model.Credential, error)
	// ListAll returns every credential, dead ones included.
	ListAll(ctx context.Context) ([]model.Credential, error)
	Get(ctx context.Context, id int) (model.Credential, error)
	// MarkAlive and MarkDead persist status and last_tested_at.
	MarkAlive(ctx context.Context, id int) error
	MarkDead(ctx context.Context, id int) error
	// Touch bumps use_count and last_used_at after a successful
	// exchange.
	Touch(ctx context.Context, id int) error
}

type Exchanger interface {
	Exchange(ctx context.Context, secret string) (exchange.Result, error)
}

// Token is what callers get back. The secret that produced it never
// leaves this package.
type Token struct {
	Value        string
	ExpiresAt    time.Time
	CredentialID int
}

// Fallback is the operator-configured credential used when the pool
// is empty. It sits outside rotation and health tracking.
type Fallback struct {
	Label  string
	Secret string
}

type Manager struct {
	store    Store
	exch     Exchanger
	cache    *tokenCache
	fallback Fallback

	// pool is the rotation order, frozen when membership last changed.
	// The cursor walks it positionally, so the order must not reshuffle
	// between calls or round-robin fairness is lost.
	mu     sync.Mutex
	pool   []model.Credential
	cursor int

	sf  singleflight.Group
	now func() time.Time
}

type ManagerOption func(*Manager)

// WithClock overrides the manager's clock, for tests.
func WithClock(now func() time.Time) ManagerOption {
	return func(m *Manager) {
		m.now = now
		m.cache.now = now
	}
}

func NewManager(store Store, exch Exchanger, margin time.Duration, fallback Fallback, opts ...ManagerOption) *Manager {
	m := &Manager{
		store:    store,
		exch:     exch,
		cache:    newTokenCache(margin, time.Now),
		fallback: fallback,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// AcquireToken returns a usable inference token, trying each pool
// member at most once. Unauthorized exchange failures mark the
// credential dead; network or malformed failures only advance to the
// next candidate.
func (m *Manager) AcquireToken(ctx context.Context) (Token, error) {
	usable, err := m.store.ListUsable(ctx)
	if err != nil {
		return Token{}, err
	}
	if len(usable) == 0 {
		return m.acquireFallback(ctx)
	}

	pool, start := m.nextRotation(usable)

	for i := 0; i < len(pool); i++ {
		cand := pool[(start+i)%len(pool)]

		if res, ok := m.cache.get(cand.ID); ok {
			return Token{Value: res.Token, ExpiresAt: res.ExpiresAt, CredentialID: cand.ID}, nil
		}

		res, err := m.exchangeOnce(ctx, cand.ID, cand.Secret)
		if err == nil {
			return Token{Value: res.Token, ExpiresAt: res.ExpiresAt, CredentialID: cand.ID}, nil
		}

		if exchange.KindOf(err) == exchange.KindUnauthorized {
			log.Warnf("credential %s (id %d) rejected by upstream, marking dead", cand.Label, cand.ID)
			if derr := m.store.MarkDead(ctx, cand.ID); derr != nil {
				log.Errorf("failed to mark credential %d dead: %v", cand.ID, derr)
			}
			m.cache.drop(cand.ID)
		} else {
			log.Debugf("credential %s (id %d) exchange failed (%s), trying next", cand.Label, cand.ID, exchange.KindOf(err))
		}
	}

	return Token{}, ErrAllCredentialsDead
}

// nextRotation returns the frozen rotation order and the position to
// start from, advancing the cursor. The snapshot is replaced only when
// pool membership changed; the store re-sorts by use count on every
// list, and following that reshuffle with a positional cursor would
// let one credential be picked twice while its neighbor is skipped.
func (m *Manager) nextRotation(usable []model.Credential) ([]model.Credential, int) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !sameMembers(m.pool, usable) {
		m.pool = make([]model.Credential, len(usable))
		copy(m.pool, usable)
		m.cursor = 0
	}
	pool := make([]model.Credential, len(m.pool))
	copy(pool, m.pool)
	start := m.cursor % len(pool)
	m.cursor++
	return pool, start
}

func sameMembers(a, b []model.Credential) bool {
	if len(a) != len(b) {
		return false
	}
	ids := make(map[int]struct{}, len(a))
	for _, c := range a {
		ids[c.ID] = struct{}{}
	}
	for _, c := range b {
		if _, ok := ids[c.ID]; !ok {
			return false
		}
	}
	return true
}

// exchangeOnce dedups concurrent exchanges for the same credential.
// The winner caches the token and bumps the use counter; everyone
// shares the result.
func (m *Manager) exchangeOnce(ctx context.Context, id int, secret string) (exchange.Result, error) {
	v, err, _ := m.sf.Do(strconv.Itoa(id), func() (any, error) {
		res, err := m.exch.Exchange(ctx, secret)
		if err != nil {
			return nil, err
		}
		m.cache.put(id, res)
		if id != fallbackID {
			if terr := m.store.Touch(ctx, id); terr != nil {
				log.Warnf("failed to record use of credential %d: %v", id, terr)
			}
		}
		return res, nil
	})
	if err != nil {
		return exchange.Result{}, err
	}
	return v.(exchange.Result), nil
}

func (m *Manager) acquireFallback(ctx context.Context) (Token, error) {
	if m.fallback.Secret == "" {
		return Token{}, ErrNoCredentials
	}
	if res, ok := m.cache.get(fallbackID); ok {
		return Token{Value: res.Token, ExpiresAt: res.ExpiresAt, CredentialID: fallbackID}, nil
	}
	res, err := m.exchangeOnce(ctx, fallbackID, m.fallback.Secret)
	if err != nil {
		return Token{}, err
	}
	log.Infof("served token from fallback credential %s", m.fallback.Label)
	return Token{Value: res.Token, ExpiresAt: res.ExpiresAt, CredentialID: fallbackID}, nil
}

// Validate exchanges a raw secret without touching the store or the
// cache. Enrollment uses it before a credential row exists.
func (m *Manager) Validate(ctx context.Context, secret string) error {
	_, err := m.exch.Exchange(ctx, secret)
	return err
}

// Test validates one credential with a throwaway exchange and writes
// its status from the outcome. This is the only path that can bring a
// dead credential back.
func (m *Manager) Test(ctx context.Context, id int) (model.CredentialStatus, error) {
	cred, err := m.store.Get(ctx, id)
	if err != nil {
		return "", err
	}
	if _, xerr := m.exch.Exchange(ctx, cred.Secret); xerr != nil {
		if derr := m.store.MarkDead(ctx, id); derr != nil {
			log.Errorf("failed to persist dead status for credential %d: %v", id, derr)
		}
		m.cache.drop(id)
		return model.CredentialStatusDead, xerr
	}
	if aerr := m.store.MarkAlive(ctx, id); aerr != nil {
		log.Errorf("failed to persist alive status for credential %d: %v", id, aerr)
	}
	return model.CredentialStatusAlive, nil
}

// TestAll sweeps every credential, dead ones included. Only explicit
// admin operations call it: a successful test is the one path that
// brings a dead credential back.
func (m *Manager) TestAll(ctx context.Context) {
	creds, err := m.store.ListAll(ctx)
	if err != nil {
		log.Errorf("failed to list credentials for health sweep: %v", err)
		return
	}
	m.testEach(ctx, creds)
}

// Sweep tests only credentials not already dead. The periodic health
// task uses it, so a timer can demote an alive credential but never
// resurrect a dead one.
func (m *Manager) Sweep(ctx context.Context) {
	creds, err := m.store.ListUsable(ctx)
	if err != nil {
		log.Errorf("failed to list credentials for health sweep: %v", err)
		return
	}
	m.testEach(ctx, creds)
}

func (m *Manager) testEach(ctx context.Context, creds []model.Credential) {
	for _, cred := range creds {
		status, err := m.Test(ctx, cred.ID)
		if err != nil {
			log.Warnf("health test: credential %s (id %d) -> %s: %v", cred.Label, cred.ID, status, err)
			continue
		}
		log.Debugf("health test: credential %s (id %d) -> %s", cred.Label, cred.ID, status)
	}
}
