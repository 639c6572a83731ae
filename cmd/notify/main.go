package main

import (
	"time"

	"github.com/rs/zerolog/log"

	"github.com/Alias1177/VolumeAnomaly/internal/app"
	"github.com/Alias1177/VolumeAnomaly/internal/config"
	"github.com/Alias1177/VolumeAnomaly/internal/notify"
	"github.com/Alias1177/VolumeAnomaly/internal/platform/logging"
	"github.com/Alias1177/VolumeAnomaly/internal/report"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	logging.Setup(cfg.LogLevel)

	path, err := notify.FindReport(cfg.Storage.ReportsDir, time.Now())
	if err != nil {
		log.Fatal().Err(err).Msg("Report not found")
	}

	r, err := report.Load(path)
	if err != nil {
		log.Fatal().Err(err).Str("path", path).Msg("Failed to read report")
	}

	n, err := app.NewNotifier(cfg.Notify)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize notifier")
	}

	sent, err := n.Notify(r)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to send notification")
	}
	if !sent {
		log.Info().Str("date", r.Metadata.AnalysisDate).Msg("No anomalies, notification skipped")
		return
	}
	log.Info().Str("date", r.Metadata.AnalysisDate).Int("anomalies", len(r.Anomalies)).Msg("Notification sent")
}
