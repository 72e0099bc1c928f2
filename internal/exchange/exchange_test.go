package exchange

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"
)

func newTestClient(ts *httptest.Server, timeout time.Duration) *Client {
	c := New(ts.URL, timeout)
	c.HTTPClient = ts.Client()
	return c
}

func TestExchange_Success(t *testing.T) {
	expiry := time.Now().Add(time.Hour).Unix()
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer secret-1" {
			t.Errorf("unexpected authorization header: %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"token":"tok-abc","expires_at":` + strconv.FormatInt(expiry, 10) + `}`))
	}))
	defer ts.Close()

	res, err := newTestClient(ts, time.Second).Exchange(context.Background(), "secret-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Token != "tok-abc" {
		t.Errorf("token = %q, want tok-abc", res.Token)
	}
	if res.ExpiresAt.Unix() != expiry {
		t.Errorf("expiresAt = %d, want %d", res.ExpiresAt.Unix(), expiry)
	}
}

func TestExchange_Classification(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   Kind
	}{
		{"401 unauthorized", http.StatusUnauthorized, `{}`, KindUnauthorized},
		{"403 unauthorized", http.StatusForbidden, `{}`, KindUnauthorized},
		{"500 network", http.StatusInternalServerError, `{}`, KindNetwork},
		{"429 network", http.StatusTooManyRequests, `{}`, KindNetwork},
		{"bad json malformed", http.StatusOK, `{not json`, KindMalformed},
		{"empty token malformed", http.StatusOK, `{"token":"","expires_at":99}`, KindMalformed},
		{"missing expiry malformed", http.StatusOK, `{"token":"tok"}`, KindMalformed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer ts.Close()

			_, err := newTestClient(ts, time.Second).Exchange(context.Background(), "s")
			if err == nil {
				t.Fatal("expected an error")
			}
			if got := KindOf(err); got != tt.want {
				t.Errorf("KindOf = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestExchange_TimeoutIsNetwork(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer ts.Close()

	_, err := newTestClient(ts, 20*time.Millisecond).Exchange(context.Background(), "s")
	if err == nil {
		t.Fatal("expected an error")
	}
	if got := KindOf(err); got != KindNetwork {
		t.Errorf("KindOf = %s, want network", got)
	}
}
