package models

import "time"

// Entry is one logged fetch result. Entries are append-only: every upstream
// fetch inserts a new row, which serves both the fuzzy report cache and the
// per-user quota window. An entry is never mutated after creation.
type Entry struct {
	ID        int64      `json:"id"`
	UserID    int64      `json:"userId"`
	Kind      ReportKind `json:"kind"`
	Lat       float64    `json:"lat"`
	Lon       float64    `json:"lon"`
	FetchedAt time.Time  `json:"fetchedAt"`
	Response  *Response  `json:"response"`
}
