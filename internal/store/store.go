// Package store persists the append-only report log that backs both the fuzzy
// report cache and the quota window, plus the AccuWeather location key lookup
// table.
package store

import (
	"context"
	"time"

	"weatherreport/internal/models"
)

// Store is the persistence contract for report log entries. Implementations
// must support concurrent inserts and point/range reads; entries are never
// updated or deleted here (retention is an external concern).
type Store interface {
	// Insert appends an entry and returns its assigned id.
	Insert(ctx context.Context, e *models.Entry) (int64, error)

	// Find returns the entry with the given id, or ok=false when absent.
	Find(ctx context.Context, id int64) (*models.Entry, bool, error)

	// RecentByKind returns entries of the kind fetched at or after since,
	// newest first (descending id).
	RecentByKind(ctx context.Context, kind models.ReportKind, since time.Time) ([]*models.Entry, error)

	// CountByUser counts entries a user created at or after since.
	CountByUser(ctx context.Context, userID int64, since time.Time) (int, error)
}

// LocationKeys caches provider-assigned location identifiers by exact
// coordinates, so repeat requests skip the geoposition round trip.
type LocationKeys interface {
	FindLocationKey(ctx context.Context, lat, lon float64) (int, bool, error)
	SaveLocationKey(ctx context.Context, key int, lat, lon float64) error
}
