// Package postgres implements the report log store on PostgreSQL.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/lib/pq"

	"weatherreport/internal/models"
)

// DB wraps a *sql.DB and implements store.Store and store.LocationKeys.
type DB struct {
	sql *sql.DB
}

// Open connects to PostgreSQL, pings, and runs migrations.
func Open(connStr string) (*DB, error) {
	s, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, err
	}
	s.SetMaxOpenConns(10)
	s.SetMaxIdleConns(5)
	s.SetConnMaxLifetime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.PingContext(ctx); err != nil {
		_ = s.Close()
		return nil, err
	}

	d := &DB{sql: s}
	if err := d.migrate(ctx); err != nil {
		_ = s.Close()
		return nil, err
	}
	return d, nil
}

// Close closes the underlying database connection.
func (d *DB) Close() error {
	return d.sql.Close()
}

func (d *DB) migrate(ctx context.Context) error {
	stmts := []string{
		"CREATE TABLE IF NOT EXISTS report_log (id BIGSERIAL PRIMARY KEY, user_id BIGINT NOT NULL, kind TEXT NOT NULL, lat DOUBLE PRECISION NOT NULL, lon DOUBLE PRECISION NOT NULL, fetched_at TIMESTAMPTZ NOT NULL, payload JSONB NOT NULL);",
		"CREATE INDEX IF NOT EXISTS idx_report_log_kind_fetched_at ON report_log(kind, fetched_at);",
		"CREATE INDEX IF NOT EXISTS idx_report_log_user_fetched_at ON report_log(user_id, fetched_at);",
		"CREATE TABLE IF NOT EXISTS provider_locations (lat DOUBLE PRECISION NOT NULL, lon DOUBLE PRECISION NOT NULL, location_key INTEGER NOT NULL, PRIMARY KEY(lat, lon));",
	}

	for _, stmt := range stmts {
		if _, err := d.sql.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}

// Insert appends a report log row and returns the assigned id.
func (d *DB) Insert(ctx context.Context, e *models.Entry) (int64, error) {
	payload, err := json.Marshal(e.Response)
	if err != nil {
		return 0, fmt.Errorf("encode payload: %w", err)
	}

	var id int64
	err = d.sql.QueryRowContext(ctx,
		"INSERT INTO report_log(user_id, kind, lat, lon, fetched_at, payload) VALUES($1, $2, $3, $4, $5, $6) RETURNING id;",
		e.UserID, string(e.Kind), e.Lat, e.Lon, e.FetchedAt.UTC(), payload,
	).Scan(&id)
	return id, err
}

// Find returns the entry with the given id, or ok=false when absent.
func (d *DB) Find(ctx context.Context, id int64) (*models.Entry, bool, error) {
	row := d.sql.QueryRowContext(ctx,
		"SELECT id, user_id, kind, lat, lon, fetched_at, payload FROM report_log WHERE id=$1;", id)

	e, err := scanEntry(row)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return e, true, nil
}

// RecentByKind returns entries of the kind fetched at or after since, newest
// first.
func (d *DB) RecentByKind(ctx context.Context, kind models.ReportKind, since time.Time) ([]*models.Entry, error) {
	rows, err := d.sql.QueryContext(ctx,
		"SELECT id, user_id, kind, lat, lon, fetched_at, payload FROM report_log WHERE kind=$1 AND fetched_at >= $2 ORDER BY id DESC;",
		string(kind), since.UTC())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*models.Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// CountByUser counts entries a user created at or after since.
func (d *DB) CountByUser(ctx context.Context, userID int64, since time.Time) (int, error) {
	var n int
	err := d.sql.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM report_log WHERE user_id=$1 AND fetched_at >= $2;",
		userID, since.UTC(),
	).Scan(&n)
	return n, err
}

// FindLocationKey returns a cached provider location key for the coordinates.
func (d *DB) FindLocationKey(ctx context.Context, lat, lon float64) (int, bool, error) {
	var key int
	err := d.sql.QueryRowContext(ctx,
		"SELECT location_key FROM provider_locations WHERE lat=$1 AND lon=$2;", lat, lon,
	).Scan(&key)
	if err == sql.ErrNoRows {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return key, true, nil
}

// SaveLocationKey stores a provider location key for the coordinates.
func (d *DB) SaveLocationKey(ctx context.Context, key int, lat, lon float64) error {
	_, err := d.sql.ExecContext(ctx,
		"INSERT INTO provider_locations(lat, lon, location_key) VALUES($1, $2, $3) ON CONFLICT (lat, lon) DO NOTHING;",
		lat, lon, key)
	return err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(s scanner) (*models.Entry, error) {
	var (
		e       models.Entry
		kind    string
		payload []byte
	)
	if err := s.Scan(&e.ID, &e.UserID, &kind, &e.Lat, &e.Lon, &e.FetchedAt, &payload); err != nil {
		return nil, err
	}
	e.Kind = models.ReportKind(kind)

	var resp models.Response
	if err := json.Unmarshal(payload, &resp); err != nil {
		return nil, fmt.Errorf("decode payload for entry %d: %w", e.ID, err)
	}
	e.Response = &resp
	return &e, nil
}
