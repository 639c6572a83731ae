package cache

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/timshannon/badgerhold/v4"

	"github.com/Alias1177/VolumeAnomaly/models"
)

// BadgerStore keeps snapshots in an embedded Badger database keyed by date.
// Each Put is a single transaction, so a snapshot is never partially visible.
type BadgerStore struct {
	store  *badgerhold.Store
	logger zerolog.Logger
}

// NewBadgerStore opens (or creates) the database in dir.
func NewBadgerStore(dir string) (*BadgerStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	options := badgerhold.DefaultOptions
	options.Dir = dir
	options.ValueDir = dir
	options.Logger = nil

	store, err := badgerhold.Open(options)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger database: %w", err)
	}

	logger := log.With().Str("component", "badger_cache").Logger()
	logger.Debug().Str("path", dir).Msg("Badger cache opened")

	return &BadgerStore{store: store, logger: logger}, nil
}

func (s *BadgerStore) Get(_ context.Context, date string) (*models.DateSnapshot, error) {
	var snap models.DateSnapshot
	if err := s.store.Get(date, &snap); err != nil {
		if errors.Is(err, badgerhold.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, date)
		}
		return nil, fmt.Errorf("failed to get snapshot %s: %w", date, err)
	}
	if snap.Date == "" {
		snap.Date = date
	}
	return normalize(&snap), nil
}

func (s *BadgerStore) Put(_ context.Context, snap *models.DateSnapshot) error {
	if snap == nil || snap.Date == "" {
		return fmt.Errorf("snapshot date is required")
	}
	if err := s.store.Upsert(snap.Date, snap); err != nil {
		return fmt.Errorf("failed to store snapshot %s: %w", snap.Date, err)
	}
	s.logger.Debug().Str("date", snap.Date).Int("tickers", len(snap.Tickers)).Msg("Snapshot saved")
	return nil
}

func (s *BadgerStore) Exists(ctx context.Context, date string) (bool, error) {
	_, err := s.Get(ctx, date)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, ErrNotFound):
		return false, nil
	default:
		return false, err
	}
}

// Close closes the underlying database.
func (s *BadgerStore) Close() error {
	if s.store != nil {
		return s.store.Close()
	}
	return nil
}
