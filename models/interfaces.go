package models

import "context"

// RowFetcher retrieves the raw, not yet aggregated rows for one date.
type RowFetcher interface {
	FetchRows(ctx context.Context, date string) ([]RawRow, error)
}

// SnapshotStore persists aggregated snapshots keyed by date.
type SnapshotStore interface {
	Get(ctx context.Context, date string) (*DateSnapshot, error)
	Put(ctx context.Context, snapshot *DateSnapshot) error
	Exists(ctx context.Context, date string) (bool, error)
}

// RecordsProvider returns aggregated records for a date, from cache or upstream.
type RecordsProvider interface {
	Provide(ctx context.Context, date string, force bool) (Records, error)
}
