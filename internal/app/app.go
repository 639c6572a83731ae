// Package app wires the configured components together for the command line
// tools.
package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog/log"

	"github.com/Alias1177/VolumeAnomaly/internal/aggregate"
	"github.com/Alias1177/VolumeAnomaly/internal/api/iss"
	"github.com/Alias1177/VolumeAnomaly/internal/cache"
	"github.com/Alias1177/VolumeAnomaly/internal/config"
	"github.com/Alias1177/VolumeAnomaly/internal/detector"
	"github.com/Alias1177/VolumeAnomaly/internal/exclusion"
	"github.com/Alias1177/VolumeAnomaly/internal/listing"
	"github.com/Alias1177/VolumeAnomaly/internal/metrics"
	"github.com/Alias1177/VolumeAnomaly/internal/notify"
	"github.com/Alias1177/VolumeAnomaly/internal/provider"
	"github.com/Alias1177/VolumeAnomaly/internal/report"
	"github.com/Alias1177/VolumeAnomaly/models"
)

// ErrNotifyNotConfigured is returned when Telegram credentials are missing.
var ErrNotifyNotConfigured = errors.New("telegram is not configured: set TELEGRAM_BOT_TOKEN and TELEGRAM_CHAT_ID")

type App struct {
	Config   config.Config
	Store    cache.Store
	Detector *detector.Detector
	Writer   *report.Writer
	Metrics  *metrics.Prometheus
}

// New opens the snapshot cache and builds the pipeline.
func New(cfg config.Config, opts ...detector.Option) (*App, error) {
	store, err := cache.New(cfg.Storage)
	if err != nil {
		return nil, fmt.Errorf("open cache: %w", err)
	}

	recorder := metrics.NewPrometheus()
	client := iss.NewClient(iss.ClientOptions{
		BaseURL:        cfg.ISS.BaseURL,
		PageSize:       cfg.ISS.PageSize,
		PageDelay:      cfg.ISS.PageDelay,
		RequestTimeout: cfg.ISS.RequestTimeout,
		RequestsPerSec: cfg.ISS.RequestsPerSec,
		MaxAttempts:    cfg.ISS.MaxRetries,
		RetryDelay:     cfg.ISS.RetryDelay,
	}, iss.WithRecorder(recorder))

	rules := exclusion.New(cfg.Detection.ExcludedPrefixes, cfg.Detection.ExcludedKeywords)
	prov := provider.New(client, store, aggregate.New(rules), recorder)

	opts = append([]detector.Option{detector.WithRecorder(recorder)}, opts...)

	return &App{
		Config:   cfg,
		Store:    store,
		Detector: detector.New(cfg.Detection, prov, opts...),
		Writer:   report.NewWriter(cfg.Storage.ReportsDir),
		Metrics:  recorder,
	}, nil
}

// Close releases the cache.
func (a *App) Close() error {
	return a.Store.Close()
}

// Analyze runs the detector for date and saves the report. It returns the
// report and its text rendering; both are empty when the date had no trading.
func (a *App) Analyze(ctx context.Context, date string, force bool) (*models.Report, string, error) {
	r, err := a.Detector.Analyze(ctx, date, force)
	if err != nil || r == nil {
		return nil, "", err
	}

	text, err := a.Writer.Save(r)
	if err != nil {
		return nil, "", err
	}
	return r, text, nil
}

// RefreshIndex regenerates the HTML listing of the reports directory.
func (a *App) RefreshIndex(now time.Time) error {
	n, err := listing.Generate(a.Config.Storage.ReportsDir, now, a.Config.Schedule.Cron)
	if err != nil {
		return err
	}
	log.Info().Str("component", "listing").Int("reports", n).Msg("Index generated")
	return nil
}

// PushMetrics sends the run metrics when a Pushgateway is configured.
func (a *App) PushMetrics(ctx context.Context) {
	if a.Config.Metrics.PushgatewayURL == "" {
		return
	}
	if err := a.Metrics.Push(ctx, a.Config.Metrics.PushgatewayURL, a.Config.Metrics.Job); err != nil {
		log.Warn().Err(err).Msg("Failed to push metrics")
	}
}

// NewNotifier connects to Telegram with the configured credentials.
func NewNotifier(cfg config.NotifyConfig) (*notify.Notifier, error) {
	if cfg.TelegramToken == "" || cfg.TelegramChatID == 0 {
		return nil, ErrNotifyNotConfigured
	}
	bot, err := tgbotapi.NewBotAPI(cfg.TelegramToken)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Telegram bot: %w", err)
	}
	return notify.New(bot, cfg.TelegramChatID, cfg.Always, cfg.TopN), nil
}
