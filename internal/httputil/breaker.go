// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package httputil

import (
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sony/gobreaker"
)

// BreakerClient wraps a Doer with a circuit breaker so a flapping source
// API is skipped fast for the remainder of a run instead of burning its
// timeout on every call. Server-side errors and transport failures count
// as breaker failures; 4xx responses do not.
type BreakerClient struct {
	inner Doer
	cb    *gobreaker.CircuitBreaker
}

// NewBreakerClient creates a circuit-breaking decorator around inner.
// The breaker opens after five consecutive failures and probes again
// after 30 seconds.
func NewBreakerClient(name string, inner Doer) *BreakerClient {
	settings := gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	}
	return &BreakerClient{inner: inner, cb: gobreaker.NewCircuitBreaker(settings)}
}

// Do executes the request through the breaker. An open breaker returns
// an error without touching the network.
func (c *BreakerClient) Do(req *http.Request) (*http.Response, error) {
	result, err := c.cb.Execute(func() (interface{}, error) {
		resp, err := c.inner.Do(req)
		if err != nil {
			return nil, err
		}
		if resp.StatusCode >= 500 {
			io.Copy(io.Discard, resp.Body)
			resp.Body.Close()
			return nil, fmt.Errorf("http %d from %s", resp.StatusCode, req.URL.Host)
		}
		return resp, nil
	})
	if err != nil {
		return nil, err
	}
	return result.(*http.Response), nil
}
