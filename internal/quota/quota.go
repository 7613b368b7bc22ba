// Package quota throttles upstream fetches with a sliding window over the
// report log.
package quota

import (
	"context"
	"time"

	"weatherreport/internal/store"
)

// Limiter counts a user's completed fetches in a trailing window. It is
// checked before an upstream fetch only; cache hits trigger no fetch and are
// therefore free even under quota pressure.
type Limiter struct {
	store store.Store
	now   func() time.Time
}

// New creates a limiter over the given store.
func New(s store.Store) *Limiter {
	return &Limiter{store: s, now: time.Now}
}

// CountSince returns the number of fetches the user completed within the
// trailing window. Monotonically non-decreasing in window length.
func (l *Limiter) CountSince(ctx context.Context, userID int64, window time.Duration) (int, error) {
	return l.store.CountByUser(ctx, userID, l.now().Add(-window))
}

// Allow reports whether the user may perform another upstream fetch given the
// limit for the window.
func (l *Limiter) Allow(ctx context.Context, userID int64, limit int, window time.Duration) (bool, error) {
	n, err := l.CountSince(ctx, userID, window)
	if err != nil {
		return false, err
	}
	return n < limit, nil
}
