package quota

import (
	"context"
	"testing"
	"time"

	"weatherreport/internal/models"
	"weatherreport/internal/store"
)

func seed(t *testing.T, s *store.Memory, userID int64, ages ...time.Duration) time.Time {
	t.Helper()
	now := time.Date(2025, time.June, 1, 12, 0, 0, 0, time.UTC)
	for _, age := range ages {
		_, err := s.Insert(context.Background(), &models.Entry{
			UserID:    userID,
			Kind:      models.OpenMeteoHourly,
			FetchedAt: now.Add(-age),
			Response:  &models.Response{},
		})
		if err != nil {
			t.Fatalf("Insert: %v", err)
		}
	}
	return now
}

func TestCountSinceMonotone(t *testing.T) {
	mem := store.NewMemory()
	l := New(mem)
	now := seed(t, mem, 7, time.Minute, 10*time.Minute, 30*time.Minute, 2*time.Hour)
	l.now = func() time.Time { return now }
	ctx := context.Background()

	prev := -1
	for _, window := range []time.Duration{time.Minute, 5 * time.Minute, 15 * time.Minute, time.Hour, 3 * time.Hour} {
		n, err := l.CountSince(ctx, 7, window)
		if err != nil {
			t.Fatalf("CountSince(%v): %v", window, err)
		}
		if n < prev {
			t.Errorf("CountSince(%v) = %d, decreased from %d", window, n, prev)
		}
		prev = n
	}

	if n, _ := l.CountSince(ctx, 7, time.Hour); n != 3 {
		t.Errorf("CountSince(1h) = %d, want 3", n)
	}
}

// TestAllow covers the concrete quota scenario: limit 5, five fetches within
// the last hour, the sixth is refused.
func TestAllow(t *testing.T) {
	mem := store.NewMemory()
	l := New(mem)
	now := seed(t, mem, 7,
		time.Minute, 5*time.Minute, 10*time.Minute, 20*time.Minute, 40*time.Minute)
	l.now = func() time.Time { return now }
	ctx := context.Background()

	ok, err := l.Allow(ctx, 7, 5, time.Hour)
	if err != nil {
		t.Fatalf("Allow: %v", err)
	}
	if ok {
		t.Error("Allow = true with a full window, want refusal")
	}

	// Another user is unaffected.
	ok, err = l.Allow(ctx, 8, 5, time.Hour)
	if err != nil || !ok {
		t.Errorf("Allow(other user) = %v, %v, want true", ok, err)
	}

	// The same user regains quota once entries age out of the window.
	ok, err = l.Allow(ctx, 7, 5, 30*time.Minute)
	if err != nil || !ok {
		t.Errorf("Allow(shorter window) = %v, %v, want true", ok, err)
	}
}
