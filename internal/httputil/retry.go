// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package httputil provides the HTTP plumbing shared by the source
// fetchers: retry with exponential backoff, a per-source circuit breaker,
// and a token-window rate limiter. The decorators stay orthogonal to the
// pipeline's own per-source failure isolation.
package httputil

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// Doer executes an HTTP request. *http.Client satisfies it, as do the
// decorators in this package.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// RetryBaseDelay controls the initial backoff interval. Tests override
// this to avoid real sleeps.
var RetryBaseDelay = 2 * time.Second

const defaultMaxRetries = 3

// retryableStatus reports whether an HTTP status warrants a retry:
// rate limiting and server-side faults do, other 4xx never do.
func retryableStatus(code int) bool {
	return code == http.StatusTooManyRequests || code >= 500
}

// DoWithRetry executes an HTTP request and retries transport errors,
// HTTP 429, and 5xx responses with exponential backoff. Non-retryable
// responses are returned as-is for the caller to inspect. On each retried
// response the body is drained and closed before waiting. When maxRetries
// is 0 the default (3) is used. A cancelled context aborts the wait.
func DoWithRetry(ctx context.Context, client Doer, req *http.Request, maxRetries int) (*http.Response, error) {
	if maxRetries <= 0 {
		maxRetries = defaultMaxRetries
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = RetryBaseDelay
	policy := backoff.WithContext(backoff.WithMaxRetries(bo, uint64(maxRetries)), ctx)

	var resp *http.Response
	operation := func() error {
		r, err := client.Do(req.Clone(ctx))
		if err != nil {
			return fmt.Errorf("http request: %w", err)
		}
		if retryableStatus(r.StatusCode) {
			// Drain and close the body before retrying.
			io.Copy(io.Discard, r.Body)
			r.Body.Close()
			return fmt.Errorf("http %d from %s", r.StatusCode, req.URL.Host)
		}
		resp = r
		return nil
	}

	if err := backoff.Retry(operation, policy); err != nil {
		return nil, err
	}
	return resp, nil
}
