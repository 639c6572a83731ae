package main

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/Alias1177/VolumeAnomaly/internal/app"
	"github.com/Alias1177/VolumeAnomaly/internal/scheduler"
)

func newScheduleCmd() *cobra.Command {
	var runNow bool

	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "Analyze the previous weekday on a cron schedule (SCHEDULE_CRON)",
		Long: `Runs until interrupted. Each run analyzes the previous weekday, saves the
reports, regenerates the index page and sends the Telegram summary when
credentials are configured.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp()
			if err != nil {
				return err
			}
			defer a.Close()

			job := scheduledRun(a)
			s := scheduler.New(cmd.Context(), scheduler.LoadLocation(a.Config.Schedule.Timezone))
			if runNow {
				s.RunNow(job)
				if cmd.Context().Err() != nil {
					s.Stop()
					return nil
				}
			}
			if err := s.Start(a.Config.Schedule.Cron, job); err != nil {
				return err
			}

			<-cmd.Context().Done()
			s.Stop()
			return nil
		},
	}

	cmd.Flags().BoolVar(&runNow, "run-now", false, "run once immediately before waiting for the schedule")
	return cmd
}

func scheduledRun(a *app.App) scheduler.Job {
	return func(ctx context.Context) error {
		defer a.PushMetrics(context.WithoutCancel(ctx))

		date := a.Detector.DefaultDate()
		r, _, err := a.Analyze(ctx, date, false)
		if err != nil {
			log.Error().Msg(fatalMessage(err))
			return err
		}
		if r == nil {
			log.Warn().Str("date", date).Msg("No trading data, nothing to report")
			return nil
		}

		if err := a.RefreshIndex(time.Now()); err != nil {
			log.Warn().Err(err).Msg("Failed to refresh index")
		}

		n, err := app.NewNotifier(a.Config.Notify)
		if errors.Is(err, app.ErrNotifyNotConfigured) {
			log.Info().Msg("Telegram not configured, skipping notification")
			return nil
		}
		if err != nil {
			return err
		}
		_, err = n.Notify(r)
		return err
	}
}
