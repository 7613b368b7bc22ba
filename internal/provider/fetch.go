// Package provider adapts upstream weather APIs to the normalized response
// shape. Each adapter owns a total condition-code table; an unmapped upstream
// code is a hard error so schema drift surfaces instead of mis-rendering.
package provider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sony/gobreaker"

	"weatherreport/internal/models"
	"weatherreport/internal/observability"
)

// FetchFunc is the contract one report kind binds to: fetch and normalize a
// forecast for the coordinates. Transient-failure handling beyond the circuit
// breaker is the caller's concern; there are no retries here.
type FetchFunc func(ctx context.Context, lat, lon float64, lang string) (*models.Response, error)

// ErrNotConfigured marks a provider whose token is missing; its report kinds
// are unavailable.
var ErrNotConfigured = errors.New("provider is not configured")

// StatusError reports a non-2xx upstream response.
type StatusError struct {
	Provider   string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: unexpected status %d", e.Provider, e.StatusCode)
}

// UnmappedCodeError reports an upstream condition code absent from the
// adapter's table. Never coerced to KindUnknown: a wrong canonical kind would
// poison cached data other requests reuse.
type UnmappedCodeError struct {
	Provider string
	Code     string
}

func (e *UnmappedCodeError) Error() string {
	return fmt.Sprintf("%s: unmapped condition code %q", e.Provider, e.Code)
}

// client is the shared HTTP helper: one timeout-bounded http.Client and one
// circuit breaker per provider.
type client struct {
	name    string
	http    *http.Client
	breaker *gobreaker.CircuitBreaker
}

func newClient(name string, timeout time.Duration) *client {
	return &client{
		name: name,
		http: &http.Client{Timeout: timeout},
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:    name,
			Timeout: 30 * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= 5
			},
		}),
	}
}

// getJSON performs a GET through the breaker and decodes the body into out.
func (c *client) getJSON(ctx context.Context, url string, out any) error {
	start := time.Now()
	_, err := c.breaker.Execute(func() (any, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, fmt.Errorf("build request: %w", err)
		}
		resp, err := c.http.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
			return nil, &StatusError{Provider: c.name, StatusCode: resp.StatusCode}
		}
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return nil, fmt.Errorf("%s: decode response: %w", c.name, err)
		}
		return nil, nil
	})

	observability.ProviderRequestDuration.WithLabelValues(c.name).Observe(time.Since(start).Seconds())
	status := "success"
	if err != nil {
		status = "error"
	}
	observability.ProviderRequestsTotal.WithLabelValues(c.name, status).Inc()
	return err
}
