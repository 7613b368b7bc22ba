package service

import (
	"context"
	"sync"
	"time"

	"weatherreport/internal/models"
)

// inFlightFetch tracks a single upstream fetch that multiple callers may wait
// for.
type inFlightFetch struct {
	mu      sync.Mutex
	entry   *models.Entry
	err     error
	done    bool
	waiters []chan struct{}
}

// fetchCoalescer collapses concurrent report requests for the same
// kind/coordinates/language onto one upstream fetch. Without it a burst of
// identical requests would each miss the cache and burn the user's quota.
type fetchCoalescer struct {
	mu       sync.Mutex
	inFlight map[string]*inFlightFetch
	timeout  time.Duration
}

func newFetchCoalescer(timeout time.Duration) *fetchCoalescer {
	return &fetchCoalescer{
		inFlight: make(map[string]*inFlightFetch),
		timeout:  timeout,
	}
}

// getOrDo executes fn for key unless an identical fetch is already running, in
// which case it waits for that fetch's result. Waiting is bounded by the
// coalescer timeout and the caller's context.
func (fc *fetchCoalescer) getOrDo(ctx context.Context, key string, fn func() (*models.Entry, error)) (*models.Entry, error) {
	fc.mu.Lock()
	req, exists := fc.inFlight[key]
	if exists {
		notify := make(chan struct{})
		req.mu.Lock()
		if req.done {
			entry, err := req.entry, req.err
			req.mu.Unlock()
			fc.mu.Unlock()
			return entry, err
		}
		req.waiters = append(req.waiters, notify)
		req.mu.Unlock()
		fc.mu.Unlock()

		waitCtx, cancel := context.WithTimeout(ctx, fc.timeout)
		defer cancel()
		select {
		case <-notify:
			req.mu.Lock()
			entry, err := req.entry, req.err
			req.mu.Unlock()
			return entry, err
		case <-waitCtx.Done():
			return nil, waitCtx.Err()
		}
	}

	req = &inFlightFetch{}
	fc.inFlight[key] = req
	fc.mu.Unlock()

	entry, err := fn()

	req.mu.Lock()
	req.entry = entry
	req.err = err
	req.done = true
	waiters := req.waiters
	req.waiters = nil
	req.mu.Unlock()

	fc.mu.Lock()
	delete(fc.inFlight, key)
	fc.mu.Unlock()

	for _, w := range waiters {
		close(w)
	}
	return entry, err
}
