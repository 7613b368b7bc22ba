package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"weatherreport/internal/models"
)

// Memory is an in-memory Store used for tests and for running without a
// database. Safe for concurrent use.
type Memory struct {
	mu      sync.RWMutex
	nextID  int64
	entries []*models.Entry
	keys    map[coord]int
}

type coord struct{ lat, lon float64 }

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{nextID: 1, keys: make(map[coord]int)}
}

func (m *Memory) Insert(ctx context.Context, e *models.Entry) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	stored := *e
	stored.ID = m.nextID
	m.nextID++
	m.entries = append(m.entries, &stored)
	return stored.ID, nil
}

func (m *Memory) Find(ctx context.Context, id int64) (*models.Entry, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, e := range m.entries {
		if e.ID == id {
			cp := *e
			return &cp, true, nil
		}
	}
	return nil, false, nil
}

func (m *Memory) RecentByKind(ctx context.Context, kind models.ReportKind, since time.Time) ([]*models.Entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []*models.Entry
	for _, e := range m.entries {
		if e.Kind == kind && !e.FetchedAt.Before(since) {
			cp := *e
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (m *Memory) CountByUser(ctx context.Context, userID int64, since time.Time) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	n := 0
	for _, e := range m.entries {
		if e.UserID == userID && !e.FetchedAt.Before(since) {
			n++
		}
	}
	return n, nil
}

func (m *Memory) FindLocationKey(ctx context.Context, lat, lon float64) (int, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	key, ok := m.keys[coord{lat, lon}]
	return key, ok, nil
}

func (m *Memory) SaveLocationKey(ctx context.Context, key int, lat, lon float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.keys[coord{lat, lon}] = key
	return nil
}
