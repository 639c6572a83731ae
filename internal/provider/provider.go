package provider

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Alias1177/VolumeAnomaly/internal/aggregate"
	"github.com/Alias1177/VolumeAnomaly/internal/cache"
	"github.com/Alias1177/VolumeAnomaly/internal/metrics"
	"github.com/Alias1177/VolumeAnomaly/models"
)

// Provider is the only place that decides between the snapshot cache and the
// upstream source.
type Provider struct {
	fetcher    models.RowFetcher
	store      models.SnapshotStore
	aggregator *aggregate.Aggregator
	recorder   metrics.Recorder
	logger     zerolog.Logger
}

// New creates a Provider. A nil recorder discards metrics.
func New(fetcher models.RowFetcher, store models.SnapshotStore, aggregator *aggregate.Aggregator, recorder metrics.Recorder) *Provider {
	if recorder == nil {
		recorder = metrics.Noop{}
	}
	return &Provider{
		fetcher:    fetcher,
		store:      store,
		aggregator: aggregator,
		recorder:   recorder,
		logger:     log.With().Str("component", "provider").Logger(),
	}
}

// Provide returns the aggregated records for date. Unless force is set, a
// cached snapshot is returned as is without touching the network. A fetched
// snapshot is persisted before it is returned; a failed fetch writes nothing.
func (p *Provider) Provide(ctx context.Context, date string, force bool) (models.Records, error) {
	if !force {
		snap, err := p.store.Get(ctx, date)
		switch {
		case err == nil:
			p.recorder.RecordCacheLookup(true)
			p.logger.Debug().Str("date", date).Int("tickers", len(snap.Tickers)).Msg("Using cached snapshot")
			return snap.Tickers, nil
		case errors.Is(err, cache.ErrNotFound):
			p.recorder.RecordCacheLookup(false)
		default:
			return nil, fmt.Errorf("reading cache for %s: %w", date, err)
		}
	}

	p.logger.Info().Str("date", date).Bool("force", force).Msg("Fetching from upstream")

	started := time.Now()
	rows, err := p.fetcher.FetchRows(ctx, date)
	p.recorder.RecordFetchDuration(time.Since(started).Seconds())
	if err != nil {
		return nil, err
	}

	snap := &models.DateSnapshot{Date: date, Tickers: p.aggregator.Aggregate(rows)}
	if err := p.store.Put(ctx, snap); err != nil {
		return nil, fmt.Errorf("caching snapshot for %s: %w", date, err)
	}

	if len(snap.Tickers) == 0 {
		p.logger.Warn().Str("date", date).Msg("No trading data for date")
	} else {
		p.logger.Info().Str("date", date).Int("rows", len(rows)).Int("tickers", len(snap.Tickers)).Msg("Snapshot cached")
	}
	return snap.Tickers, nil
}
