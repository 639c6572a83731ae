package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Alias1177/VolumeAnomaly/models"
)

// FileStore keeps each snapshot in dir/volumes_<date>.json.
type FileStore struct {
	dir    string
	logger zerolog.Logger
}

// NewFileStore creates dir if needed.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}
	return &FileStore{
		dir:    dir,
		logger: log.With().Str("component", "file_cache").Logger(),
	}, nil
}

func (s *FileStore) path(date string) string {
	return filepath.Join(s.dir, "volumes_"+date+".json")
}

func (s *FileStore) Get(_ context.Context, date string) (*models.DateSnapshot, error) {
	data, err := os.ReadFile(s.path(date))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, date)
		}
		return nil, fmt.Errorf("failed to read snapshot %s: %w", date, err)
	}

	var snap models.DateSnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("failed to decode snapshot %s: %w", date, err)
	}
	if snap.Date == "" {
		snap.Date = date
	}
	return normalize(&snap), nil
}

// Put writes the snapshot to a temporary file in the cache directory and
// renames it over the final name, so readers see either the old file or the
// complete new one.
func (s *FileStore) Put(_ context.Context, snap *models.DateSnapshot) error {
	if snap == nil || snap.Date == "" {
		return fmt.Errorf("snapshot date is required")
	}

	data, err := json.MarshalIndent(normalize(snap), "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode snapshot %s: %w", snap.Date, err)
	}

	tmp, err := os.CreateTemp(s.dir, ".volumes_"+snap.Date+"_*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) // no-op after a successful rename

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write snapshot %s: %w", snap.Date, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to sync snapshot %s: %w", snap.Date, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close snapshot %s: %w", snap.Date, err)
	}
	if err := os.Rename(tmpName, s.path(snap.Date)); err != nil {
		return fmt.Errorf("failed to store snapshot %s: %w", snap.Date, err)
	}

	s.logger.Debug().Str("date", snap.Date).Int("tickers", len(snap.Tickers)).Msg("Snapshot saved")
	return nil
}

func (s *FileStore) Exists(_ context.Context, date string) (bool, error) {
	_, err := os.Stat(s.path(date))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, fs.ErrNotExist):
		return false, nil
	default:
		return false, fmt.Errorf("failed to stat snapshot %s: %w", date, err)
	}
}

func (s *FileStore) Close() error { return nil }
