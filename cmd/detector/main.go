package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"

	"github.com/Alias1177/VolumeAnomaly/internal/platform/logging"
)

func main() {
	// уровень уточняется после загрузки конфига
	logging.Setup("info")

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := Execute(ctx); err != nil {
		log.Error().Msg(fatalMessage(err))
		log.Debug().Err(err).Msg("Run failed")
		cancel()
		os.Exit(1)
	}
}
