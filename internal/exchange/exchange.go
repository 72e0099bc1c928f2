// Package exchange swaps a long-lived credential secret for a
// short-lived inference token. One bounded attempt per call, no
// internal retry; retrying across credentials is the rotation
// manager's job.
package exchange

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/KNIGHTABDO/zeroqcm-sub001/internal/client"
)

type Kind int

const (
	// KindUnauthorized: upstream rejected the secret. The only
	// outcome that counts as a durable credential failure.
	KindUnauthorized Kind = iota + 1
	// KindNetwork: transport error, timeout or upstream 5xx.
	KindNetwork
	// KindMalformed: 2xx with a body we cannot use.
	KindMalformed
)

func (k Kind) String() string {
	switch k {
	case KindUnauthorized:
		return "unauthorized"
	case KindNetwork:
		return "network"
	case KindMalformed:
		return "malformed"
	default:
		return "unknown"
	}
}

type Error struct {
	Kind   Kind
	Status int
	Err    error
}

func (e *Error) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("exchange %s (status %d): %v", e.Kind, e.Status, e.Err)
	}
	return fmt.Sprintf("exchange %s: %v", e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// KindOf extracts the classification from an exchange error chain,
// defaulting to network for anything unclassified.
func KindOf(err error) Kind {
	var ee *Error
	if errors.As(err, &ee) {
		return ee.Kind
	}
	return KindNetwork
}

// Result is an ephemeral inference token. Never persisted.
type Result struct {
	Token     string
	ExpiresAt time.Time
}

type tokenResponse struct {
	Token     string `json:"token"`
	ExpiresAt int64  `json:"expires_at"`
}

type Client struct {
	url     string
	timeout time.Duration

	// HTTPClient overrides the settings-driven client; tests use it.
	HTTPClient *http.Client
}

func New(url string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	return &Client{url: url, timeout: timeout}
}

// Exchange performs one token exchange. Failure is always an *Error
// whose Kind tells the caller whether the credential itself is bad.
func (c *Client) Exchange(ctx context.Context, secret string) (Result, error) {
	httpClient := c.HTTPClient
	if httpClient == nil {
		var err error
		httpClient, err = client.GetProxyAware()
		if err != nil {
			return Result{}, &Error{Kind: KindNetwork, Err: err}
		}
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return Result{}, &Error{Kind: KindNetwork, Err: err}
	}
	req.Header.Set("Authorization", "Bearer "+secret)
	req.Header.Set("Accept", "application/json")

	res, err := httpClient.Do(req)
	if err != nil {
		return Result{}, &Error{Kind: KindNetwork, Err: err}
	}
	defer res.Body.Close()

	switch {
	case res.StatusCode == http.StatusUnauthorized || res.StatusCode == http.StatusForbidden:
		io.Copy(io.Discard, res.Body)
		return Result{}, &Error{Kind: KindUnauthorized, Status: res.StatusCode, Err: errors.New("secret rejected by upstream")}
	case res.StatusCode < 200 || res.StatusCode >= 300:
		io.Copy(io.Discard, res.Body)
		return Result{}, &Error{Kind: KindNetwork, Status: res.StatusCode, Err: errors.New("unexpected upstream status")}
	}

	var body tokenResponse
	if err := json.NewDecoder(res.Body).Decode(&body); err != nil {
		return Result{}, &Error{Kind: KindMalformed, Status: res.StatusCode, Err: err}
	}
	if body.Token == "" || body.ExpiresAt <= 0 {
		return Result{}, &Error{Kind: KindMalformed, Status: res.StatusCode, Err: errors.New("missing token or expiry in response")}
	}

	return Result{
		Token:     body.Token,
		ExpiresAt: time.Unix(body.ExpiresAt, 0),
	}, nil
}
