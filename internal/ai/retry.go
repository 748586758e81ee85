package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"net/http"
	"time"
)

// retryPolicy is the backoff shared by the HTTP runtimes.
type retryPolicy struct {
	Attempts int
	Base     time.Duration
	Max      time.Duration
}

// delay is the jittered wait after failed attempt n (1-based), capped at Max.
func (p retryPolicy) delay(n int) time.Duration {
	d := p.Base
	for i := 1; i < n && (p.Max <= 0 || d < p.Max); i++ {
		d *= 2
	}
	d = withJitter(d)
	if p.Max > 0 && d > p.Max {
		d = p.Max
	}
	return d
}

// run calls fn until it succeeds, fails permanently or the attempts run out.
// A rate limit carrying Retry-After waits that long instead of the backoff.
func (p retryPolicy) run(ctx context.Context, fn func() error) error {
	attempts := p.Attempts
	if attempts < 1 {
		attempts = 1
	}
	for n := 1; ; n++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		err := fn()
		if err == nil || n >= attempts || !Retryable(err) {
			return err
		}
		wait := p.delay(n)
		var rl *RateLimitError
		if errors.As(err, &rl) && rl.RetryAfter > 0 {
			wait = rl.RetryAfter
		}
		if err := sleepCtx(ctx, wait); err != nil {
			return err
		}
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// withJitter returns d with +/- 20% jitter applied.
func withJitter(d time.Duration) time.Duration {
	if d <= 0 {
		return 0
	}
	out := time.Duration(float64(d) * (0.8 + rand.Float64()*0.4))
	if out <= 0 {
		return d
	}
	return out
}

// postJSON sends payload to endpoint and decodes a 2xx body into out.
// Transport failures become *UnreachableError; other statuses go through classify.
func postJSON(ctx context.Context, hc *http.Client, endpoint string, header http.Header, payload []byte, out any, classify func(*APIError, http.Header) error) (http.Header, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	for k, v := range header {
		req.Header[k] = v
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := hc.Do(req)
	if err != nil {
		return nil, &UnreachableError{Host: req.URL.Host, Err: err}
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return resp.Header, classify(readAPIError(resp), resp.Header)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return resp.Header, fmt.Errorf("decode response: %w", err)
	}
	return resp.Header, nil
}
