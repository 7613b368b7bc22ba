// Package cache deduplicates upstream fetches by report kind, time and
// geographic proximity, on top of the append-only report log.
package cache

import (
	"context"
	"time"

	"github.com/umahmood/haversine"

	"weatherreport/internal/models"
	"weatherreport/internal/store"
)

// Config bounds the fuzzy match.
type Config struct {
	// Lifetime is how long a logged fetch can satisfy new requests.
	Lifetime time.Duration
	// DistanceThresholdMeters is the great-circle radius within which two
	// requests are considered the same place.
	DistanceThresholdMeters float64
}

// Cache answers "is there a recent fetch close enough to this one". It never
// owns rows: every fetch is appended to the store and stays there, which also
// feeds the quota window.
type Cache struct {
	store store.Store
	cfg   Config
	now   func() time.Time
}

// New creates a cache over the given store.
func New(s store.Store, cfg Config) *Cache {
	return &Cache{store: s, cfg: cfg, now: time.Now}
}

// Lookup returns the most recent entry of the kind fetched within the cache
// lifetime whose coordinates lie within the distance threshold of (lat, lon).
// Among qualifying entries the newest (highest id) wins. ok=false means the
// caller must fetch.
func (c *Cache) Lookup(ctx context.Context, kind models.ReportKind, lat, lon float64) (*models.Entry, bool, error) {
	since := c.now().Add(-c.cfg.Lifetime)
	entries, err := c.store.RecentByKind(ctx, kind, since)
	if err != nil {
		return nil, false, err
	}

	from := haversine.Coord{Lat: lat, Lon: lon}
	for _, e := range entries {
		_, km := haversine.Distance(from, haversine.Coord{Lat: e.Lat, Lon: e.Lon})
		if km*1000 <= c.cfg.DistanceThresholdMeters {
			return e, true, nil
		}
	}
	return nil, false, nil
}

// ByID resolves an entry for pagination. No time or distance filtering: a
// result that has aged out of the fuzzy window is still pageable as long as
// the row exists. ok=false means the interaction has expired.
func (c *Cache) ByID(ctx context.Context, id int64) (*models.Entry, bool, error) {
	return c.store.Find(ctx, id)
}

// Create logs a completed fetch. Always inserts; rows are never updated, so
// every upstream call is visible to both caching and quota counting.
func (c *Cache) Create(ctx context.Context, userID int64, kind models.ReportKind, lat, lon float64, resp *models.Response) (*models.Entry, error) {
	e := &models.Entry{
		UserID:    userID,
		Kind:      kind,
		Lat:       lat,
		Lon:       lon,
		FetchedAt: c.now(),
		Response:  resp,
	}
	id, err := c.store.Insert(ctx, e)
	if err != nil {
		return nil, err
	}
	e.ID = id
	return e, nil
}
