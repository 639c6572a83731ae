// Package cache persists one aggregated snapshot per trading date. A snapshot
// is written once and read many times; it is only replaced on a forced refetch.
package cache

import (
	"errors"
	"fmt"

	"github.com/Alias1177/VolumeAnomaly/internal/config"
	"github.com/Alias1177/VolumeAnomaly/models"
)

// ErrNotFound is returned by Get when no snapshot exists for the date.
var ErrNotFound = errors.New("snapshot not found")

// Store is a SnapshotStore that holds resources and must be closed.
type Store interface {
	models.SnapshotStore
	Close() error
}

// New opens the backend selected by cfg.CacheBackend.
func New(cfg config.StorageConfig) (Store, error) {
	switch cfg.CacheBackend {
	case "", "file":
		return NewFileStore(cfg.DataDir)
	case "badger":
		return NewBadgerStore(cfg.BadgerDir)
	default:
		return nil, fmt.Errorf("unknown cache backend %q", cfg.CacheBackend)
	}
}

func normalize(s *models.DateSnapshot) *models.DateSnapshot {
	if s.Tickers == nil {
		s.Tickers = models.Records{}
	}
	return s
}
