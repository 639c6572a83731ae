// Package detector runs one analysis: it loads the baseline window and the
// target date through the provider, scores the target date and builds the
// report.
package detector

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Alias1177/VolumeAnomaly/internal/anomaly"
	"github.com/Alias1177/VolumeAnomaly/internal/config"
	"github.com/Alias1177/VolumeAnomaly/internal/exclusion"
	"github.com/Alias1177/VolumeAnomaly/internal/metrics"
	"github.com/Alias1177/VolumeAnomaly/internal/report"
	"github.com/Alias1177/VolumeAnomaly/internal/stats"
	"github.com/Alias1177/VolumeAnomaly/models"
)

var (
	// ErrInvalidDate is returned for a target date that is not YYYY-MM-DD.
	ErrInvalidDate = errors.New("invalid target date")
	// ErrNoBaselineData is returned when no baseline date could be loaded.
	ErrNoBaselineData = errors.New("no baseline data")
	// ErrTargetFetch is returned when the target date could not be loaded.
	ErrTargetFetch = errors.New("target date unavailable")
)

type Detector struct {
	provider     models.RecordsProvider
	engine       *stats.Engine
	selector     *anomaly.Selector
	builder      *report.Builder
	baselineDays int
	sigma        float64
	recorder     metrics.Recorder
	now          func() time.Time
}

// Option customizes a Detector.
type Option func(*Detector)

// WithRecorder reports run totals to r.
func WithRecorder(r metrics.Recorder) Option {
	return func(d *Detector) {
		d.recorder = r
	}
}

// WithClock replaces time.Now, used for the default date and init mode.
func WithClock(now func() time.Time) Option {
	return func(d *Detector) {
		d.now = now
	}
}

func New(cfg config.DetectionConfig, provider models.RecordsProvider, opts ...Option) *Detector {
	rules := exclusion.New(cfg.ExcludedPrefixes, cfg.ExcludedKeywords)
	d := &Detector{
		provider:     provider,
		engine:       stats.New(rules, cfg.BaselineDays),
		selector:     anomaly.NewSelector(cfg.MinDeviationPercent, cfg.MinAvgValue),
		builder:      report.NewBuilder(cfg.ThresholdSigma),
		baselineDays: cfg.BaselineDays,
		sigma:        cfg.ThresholdSigma,
		recorder:     metrics.Noop{},
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// DefaultDate is the previous weekday relative to the detector clock.
func (d *Detector) DefaultDate() string {
	return models.PreviousWeekday(d.now()).Format(models.DateLayout)
}

// Analyze scores date against its baseline window. A target date without any
// trading returns a nil report and a nil error. Baseline dates that fail to
// load are skipped; if all of them fail the run stops with ErrNoBaselineData.
func (d *Detector) Analyze(ctx context.Context, date string, force bool) (*models.Report, error) {
	target, err := models.ParseDate(date)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidDate, err)
	}

	logger := log.With().
		Str("component", "detector").
		Str("run_id", uuid.New().String()).
		Str("date", date).
		Logger()

	window := models.BaselineWindow(target, d.baselineDays)
	if len(window) == 0 {
		return nil, fmt.Errorf("%w: empty baseline window", ErrNoBaselineData)
	}
	logger.Info().
		Str("base_start", window[0]).
		Str("base_end", window[len(window)-1]).
		Float64("threshold_sigma", d.sigma).
		Msg("Starting analysis")

	baseline, err := d.loadBaseline(ctx, logger, window, force)
	if err != nil {
		return nil, err
	}

	current, err := d.provider.Provide(ctx, date, force)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrTargetFetch, date, err)
	}
	if len(current) == 0 {
		logger.Warn().Msg("No trading data for target date, probably a holiday")
		return nil, nil
	}

	statistics, warnings := d.engine.Compute(baseline, current)
	anomalies := d.selector.Select(statistics, d.sigma)
	r := d.builder.Build(anomalies, date, window, len(current), warnings)

	d.recorder.RecordRun(len(current), len(anomalies), len(warnings))
	logger.Info().
		Int("tickers", len(current)).
		Int("scored", len(statistics)).
		Int("anomalies", len(anomalies)).
		Int("warnings", len(warnings)).
		Msg("Analysis complete")

	return r, nil
}

func (d *Detector) loadBaseline(ctx context.Context, logger zerolog.Logger, window []string, force bool) ([]models.Records, error) {
	baseline := make([]models.Records, 0, len(window))
	for _, date := range window {
		records, err := d.provider.Provide(ctx, date, force)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			logger.Warn().Err(err).Str("base_date", date).Msg("Baseline date unavailable, continuing without it")
			continue
		}
		baseline = append(baseline, records)
	}

	if len(baseline) == 0 {
		return nil, fmt.Errorf("%w: all %d dates from %s to %s failed",
			ErrNoBaselineData, len(window), window[0], window[len(window)-1])
	}
	return baseline, nil
}

// InitResult summarizes a cache warm-up.
type InitResult struct {
	Dates  []string
	Loaded int
	Failed []string
}

// Init fills the cache for the last `days` trading dates up to today. Dates
// already cached are not fetched again; failures are logged and skipped.
func (d *Detector) Init(ctx context.Context, days int) (InitResult, error) {
	logger := log.With().Str("component", "detector").Str("mode", "init").Logger()

	res := InitResult{Dates: models.TradingDates(d.now(), days)}
	if len(res.Dates) == 0 {
		return res, fmt.Errorf("days must be positive, got %d", days)
	}
	logger.Info().Str("from", res.Dates[0]).Str("to", res.Dates[len(res.Dates)-1]).Int("days", days).Msg("Loading history")

	for i, date := range res.Dates {
		if _, err := d.provider.Provide(ctx, date, false); err != nil {
			if ctx.Err() != nil {
				return res, ctx.Err()
			}
			logger.Warn().Err(err).Str("date", date).Msg("Failed to load date")
			res.Failed = append(res.Failed, date)
			continue
		}
		res.Loaded++
		logger.Debug().Str("date", date).Int("n", i+1).Int("of", len(res.Dates)).Msg("Date loaded")
	}

	logger.Info().Int("loaded", res.Loaded).Int("failed", len(res.Failed)).Msg("History load complete")
	return res, nil
}
