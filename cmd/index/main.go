package main

import (
	"time"

	"github.com/rs/zerolog/log"

	"github.com/Alias1177/VolumeAnomaly/internal/config"
	"github.com/Alias1177/VolumeAnomaly/internal/listing"
	"github.com/Alias1177/VolumeAnomaly/internal/platform/logging"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	logging.Setup(cfg.LogLevel)

	n, err := listing.Generate(cfg.Storage.ReportsDir, time.Now(), cfg.Schedule.Cron)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to generate index")
	}
	log.Info().Int("reports", n).Str("dir", cfg.Storage.ReportsDir).Msg("Index generated")
}
