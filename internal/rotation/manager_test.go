package rotation

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/KNIGHTABDO/zeroqcm-sub001/internal/exchange"
	"github.com/KNIGHTABDO/zeroqcm-sub001/internal/model"
)

type fakeStore struct {
	mu      sync.Mutex
	creds   []model.Credential
	touches map[int]int
}

func newFakeStore(creds ...model.Credential) *fakeStore {
	return &fakeStore{creds: creds, touches: map[int]int{}}
}

// ListUsable mirrors the op layer: non-dead only, least used first,
// ties by id.
func (s *fakeStore) ListUsable(ctx context.Context) ([]model.Credential, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.Credential
	for _, c := range s.creds {
		if c.Status != model.CredentialStatusDead {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].UseCount != out[j].UseCount {
			return out[i].UseCount < out[j].UseCount
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *fakeStore) ListAll(ctx context.Context) ([]model.Credential, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Credential, len(s.creds))
	copy(out, s.creds)
	return out, nil
}

func (s *fakeStore) Get(ctx context.Context, id int) (model.Credential, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.creds {
		if c.ID == id {
			return c, nil
		}
	}
	return model.Credential{}, errors.New("not found")
}

func (s *fakeStore) setStatus(id int, status model.CredentialStatus) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.creds {
		if s.creds[i].ID == id {
			s.creds[i].Status = status
		}
	}
}

func (s *fakeStore) MarkAlive(ctx context.Context, id int) error {
	s.setStatus(id, model.CredentialStatusAlive)
	return nil
}

func (s *fakeStore) MarkDead(ctx context.Context, id int) error {
	s.setStatus(id, model.CredentialStatusDead)
	return nil
}

func (s *fakeStore) Touch(ctx context.Context, id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touches[id]++
	for i := range s.creds {
		if s.creds[i].ID == id {
			s.creds[i].UseCount++
		}
	}
	return nil
}

func (s *fakeStore) status(id int) model.CredentialStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.creds {
		if c.ID == id {
			return c.Status
		}
	}
	return ""
}

// fakeExchanger maps each secret to a canned outcome and counts calls.
type fakeExchanger struct {
	mu      sync.Mutex
	results map[string]exchange.Result
	errs    map[string]error
	calls   map[string]int
}

func newFakeExchanger() *fakeExchanger {
	return &fakeExchanger{
		results: map[string]exchange.Result{},
		errs:    map[string]error{},
		calls:   map[string]int{},
	}
}

func (e *fakeExchanger) Exchange(ctx context.Context, secret string) (exchange.Result, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.calls[secret]++
	if err, ok := e.errs[secret]; ok {
		return exchange.Result{}, err
	}
	return e.results[secret], nil
}

var testNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return testNow }

func alive(id int, label, secret string) model.Credential {
	return model.Credential{ID: id, Label: label, Secret: secret, Status: model.CredentialStatusAlive}
}

func TestAcquireToken_RoundRobin(t *testing.T) {
	store := newFakeStore(
		alive(1, "a", "sec-a"),
		alive(2, "b", "sec-b"),
		alive(3, "c", "sec-c"),
	)
	exch := newFakeExchanger()
	// Tokens expire inside the margin so the cache never serves them
	// and every acquire hits the exchanger. Touch bumps use counts, so
	// the store reshuffles its ordering under the manager on every
	// call, exactly as the op layer does.
	for _, s := range []string{"sec-a", "sec-b", "sec-c"} {
		exch.results[s] = exchange.Result{Token: "tok-" + s, ExpiresAt: testNow.Add(time.Minute)}
	}
	mgr := NewManager(store, exch, time.Hour, Fallback{}, WithClock(fixedClock))

	// With m calls over n credentials, fairness demands each is
	// selected exactly m/n times when m divides evenly.
	const calls = 300
	counts := map[int]int{}
	for i := 0; i < calls; i++ {
		tok, err := mgr.AcquireToken(context.Background())
		if err != nil {
			t.Fatalf("acquire %d: %v", i, err)
		}
		counts[tok.CredentialID]++
	}
	for _, id := range []int{1, 2, 3} {
		if counts[id] != calls/3 {
			t.Errorf("credential %d selected %d times, want %d (all: %v)", id, counts[id], calls/3, counts)
		}
	}
}

func TestAcquireToken_UnauthorizedMarksDead(t *testing.T) {
	store := newFakeStore(
		alive(1, "bad", "sec-bad"),
		alive(2, "good", "sec-good"),
	)
	exch := newFakeExchanger()
	exch.errs["sec-bad"] = &exchange.Error{Kind: exchange.KindUnauthorized, Status: 401, Err: errors.New("rejected")}
	exch.results["sec-good"] = exchange.Result{Token: "tok", ExpiresAt: testNow.Add(time.Hour)}
	mgr := NewManager(store, exch, 5*time.Minute, Fallback{}, WithClock(fixedClock))

	tok, err := mgr.AcquireToken(context.Background())
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}
	if tok.CredentialID != 2 {
		t.Fatalf("got credential %d, want 2", tok.CredentialID)
	}
	if store.status(1) != model.CredentialStatusDead {
		t.Fatal("unauthorized credential should be marked dead")
	}
}

func TestAcquireToken_NetworkFailureSkipsWithoutMarking(t *testing.T) {
	store := newFakeStore(
		alive(1, "flaky", "sec-flaky"),
		alive(2, "good", "sec-good"),
	)
	exch := newFakeExchanger()
	exch.errs["sec-flaky"] = &exchange.Error{Kind: exchange.KindNetwork, Err: errors.New("timeout")}
	exch.results["sec-good"] = exchange.Result{Token: "tok", ExpiresAt: testNow.Add(time.Hour)}
	mgr := NewManager(store, exch, 5*time.Minute, Fallback{}, WithClock(fixedClock))

	tok, err := mgr.AcquireToken(context.Background())
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}
	if tok.CredentialID != 2 {
		t.Fatalf("got credential %d, want 2", tok.CredentialID)
	}
	if store.status(1) != model.CredentialStatusAlive {
		t.Fatal("network failure must not mark the credential dead")
	}
}

func TestAcquireToken_AllFail(t *testing.T) {
	store := newFakeStore(
		alive(1, "a", "sec-a"),
		alive(2, "b", "sec-b"),
	)
	exch := newFakeExchanger()
	exch.errs["sec-a"] = &exchange.Error{Kind: exchange.KindNetwork, Err: errors.New("down")}
	exch.errs["sec-b"] = &exchange.Error{Kind: exchange.KindUnauthorized, Status: 403, Err: errors.New("rejected")}
	mgr := NewManager(store, exch, 5*time.Minute, Fallback{}, WithClock(fixedClock))

	if _, err := mgr.AcquireToken(context.Background()); !errors.Is(err, ErrAllCredentialsDead) {
		t.Fatalf("got %v, want ErrAllCredentialsDead", err)
	}
}

func TestAcquireToken_EmptyPool(t *testing.T) {
	store := newFakeStore()
	exch := newFakeExchanger()
	mgr := NewManager(store, exch, 5*time.Minute, Fallback{}, WithClock(fixedClock))

	if _, err := mgr.AcquireToken(context.Background()); !errors.Is(err, ErrNoCredentials) {
		t.Fatalf("got %v, want ErrNoCredentials", err)
	}
}

func TestAcquireToken_Fallback(t *testing.T) {
	store := newFakeStore()
	exch := newFakeExchanger()
	exch.results["sec-fb"] = exchange.Result{Token: "tok-fb", ExpiresAt: testNow.Add(time.Hour)}
	mgr := NewManager(store, exch, 5*time.Minute, Fallback{Label: "operator", Secret: "sec-fb"}, WithClock(fixedClock))

	tok, err := mgr.AcquireToken(context.Background())
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}
	if tok.CredentialID != fallbackID || tok.Value != "tok-fb" {
		t.Fatalf("got %+v, want fallback token", tok)
	}
	if len(store.touches) != 0 {
		t.Fatal("fallback use must not touch the store")
	}

	// second call is served from cache
	if _, err := mgr.AcquireToken(context.Background()); err != nil {
		t.Fatalf("cached acquire: %v", err)
	}
	exch.mu.Lock()
	defer exch.mu.Unlock()
	if exch.calls["sec-fb"] != 1 {
		t.Fatalf("fallback exchanged %d times, want 1", exch.calls["sec-fb"])
	}
}

func TestAcquireToken_CacheServesUntilMargin(t *testing.T) {
	store := newFakeStore(alive(1, "a", "sec-a"))
	exch := newFakeExchanger()
	exch.results["sec-a"] = exchange.Result{Token: "tok", ExpiresAt: testNow.Add(10 * time.Minute)}

	now := testNow
	mgr := NewManager(store, exch, 5*time.Minute, Fallback{}, WithClock(func() time.Time { return now }))

	for i := 0; i < 3; i++ {
		if _, err := mgr.AcquireToken(context.Background()); err != nil {
			t.Fatalf("acquire %d: %v", i, err)
		}
	}
	exch.mu.Lock()
	calls := exch.calls["sec-a"]
	exch.mu.Unlock()
	if calls != 1 {
		t.Fatalf("exchanged %d times, want 1 (cache should serve repeats)", calls)
	}
	if store.touches[1] != 1 {
		t.Fatalf("use count bumped %d times, want 1", store.touches[1])
	}

	// cross the margin boundary: next acquire re-exchanges
	now = testNow.Add(6 * time.Minute)
	if _, err := mgr.AcquireToken(context.Background()); err != nil {
		t.Fatalf("acquire past margin: %v", err)
	}
	exch.mu.Lock()
	defer exch.mu.Unlock()
	if exch.calls["sec-a"] != 2 {
		t.Fatalf("exchanged %d times, want 2 after expiry", exch.calls["sec-a"])
	}
}

func TestTest_Resurrection(t *testing.T) {
	store := newFakeStore(model.Credential{ID: 1, Label: "a", Secret: "sec-a", Status: model.CredentialStatusDead})
	exch := newFakeExchanger()
	exch.results["sec-a"] = exchange.Result{Token: "tok", ExpiresAt: testNow.Add(time.Hour)}
	mgr := NewManager(store, exch, 5*time.Minute, Fallback{}, WithClock(fixedClock))

	status, err := mgr.Test(context.Background(), 1)
	if err != nil {
		t.Fatalf("test: %v", err)
	}
	if status != model.CredentialStatusAlive {
		t.Fatalf("got status %s, want alive", status)
	}
	if store.status(1) != model.CredentialStatusAlive {
		t.Fatal("store should record the credential as alive again")
	}
}

func TestSweep_NeverResurrectsDead(t *testing.T) {
	store := newFakeStore(
		model.Credential{ID: 1, Label: "dead", Secret: "sec-dead", Status: model.CredentialStatusDead},
		alive(2, "live", "sec-live"),
	)
	exch := newFakeExchanger()
	// The dead credential's secret works again, but only an explicit
	// admin test may bring it back.
	exch.results["sec-dead"] = exchange.Result{Token: "tok", ExpiresAt: testNow.Add(time.Hour)}
	exch.errs["sec-live"] = &exchange.Error{Kind: exchange.KindNetwork, Err: errors.New("down")}
	mgr := NewManager(store, exch, 5*time.Minute, Fallback{}, WithClock(fixedClock))

	mgr.Sweep(context.Background())

	if store.status(1) != model.CredentialStatusDead {
		t.Fatal("periodic sweep must not resurrect a dead credential")
	}
	if store.status(2) != model.CredentialStatusDead {
		t.Fatal("periodic sweep should demote a failing alive credential")
	}
	exch.mu.Lock()
	defer exch.mu.Unlock()
	if exch.calls["sec-dead"] != 0 {
		t.Fatalf("dead credential exchanged %d times by the sweep, want 0", exch.calls["sec-dead"])
	}
}

func TestTestAll_ResurrectsDead(t *testing.T) {
	store := newFakeStore(model.Credential{ID: 1, Label: "dead", Secret: "sec-dead", Status: model.CredentialStatusDead})
	exch := newFakeExchanger()
	exch.results["sec-dead"] = exchange.Result{Token: "tok", ExpiresAt: testNow.Add(time.Hour)}
	mgr := NewManager(store, exch, 5*time.Minute, Fallback{}, WithClock(fixedClock))

	mgr.TestAll(context.Background())

	if store.status(1) != model.CredentialStatusAlive {
		t.Fatal("explicit full test should bring a working credential back")
	}
}

func TestTest_AnyFailureMarksDead(t *testing.T) {
	store := newFakeStore(alive(1, "a", "sec-a"))
	exch := newFakeExchanger()
	exch.errs["sec-a"] = &exchange.Error{Kind: exchange.KindNetwork, Err: errors.New("down")}
	mgr := NewManager(store, exch, 5*time.Minute, Fallback{}, WithClock(fixedClock))

	status, err := mgr.Test(context.Background(), 1)
	if err == nil {
		t.Fatal("expected error from failing test")
	}
	if status != model.CredentialStatusDead {
		t.Fatalf("got status %s, want dead", status)
	}
	if store.status(1) != model.CredentialStatusDead {
		t.Fatal("explicit test failure should mark the credential dead")
	}
}
