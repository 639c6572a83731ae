package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/Alias1177/VolumeAnomaly/internal/app"
	"github.com/Alias1177/VolumeAnomaly/internal/config"
	"github.com/Alias1177/VolumeAnomaly/internal/detector"
	"github.com/Alias1177/VolumeAnomaly/internal/platform/logging"
)

type rootFlags struct {
	date  string
	force bool
	init  bool
	days  int
}

// Execute builds the command tree and runs it.
func Execute(ctx context.Context) error {
	root := newRootCmd()
	root.AddCommand(newScheduleCmd())
	return root.ExecuteContext(ctx)
}

func newRootCmd() *cobra.Command {
	var f rootFlags

	cmd := &cobra.Command{
		Use:   "detector",
		Short: "Детектор аномальных объемов торгов на Московской Бирже",
		Example: `  # первый запуск: загрузить историю за 60 торговых дней
  detector --init --days 60

  # анализ конкретной даты
  detector --date 2026-01-30

  # анализ предыдущего рабочего дня (по умолчанию)
  detector

  # перезагрузить данные, игнорируя кеш
  detector --date 2026-01-30 --force`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDetector(cmd.Context(), f)
		},
	}

	cmd.Flags().StringVar(&f.date, "date", "", "analysis date YYYY-MM-DD (default: previous weekday)")
	cmd.Flags().BoolVar(&f.force, "force", false, "refetch from the exchange, ignoring cached snapshots")
	cmd.Flags().BoolVar(&f.init, "init", false, "load history into the cache instead of analyzing")
	cmd.Flags().IntVar(&f.days, "days", 60, "number of trading days to load with --init")
	return cmd
}

func loadApp() (*app.App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	logging.Setup(cfg.LogLevel)
	return app.New(cfg)
}

func runDetector(ctx context.Context, f rootFlags) error {
	a, err := loadApp()
	if err != nil {
		return err
	}
	defer a.Close()
	defer a.PushMetrics(context.WithoutCancel(ctx))

	if f.init {
		res, err := a.Detector.Init(ctx, f.days)
		if err != nil {
			return err
		}
		fmt.Printf("Загрузка завершена: %d из %d дней (%s - %s)\n",
			res.Loaded, len(res.Dates), res.Dates[0], res.Dates[len(res.Dates)-1])
		for _, d := range res.Failed {
			fmt.Printf("  ⚠️  не загружено: %s\n", d)
		}
		return nil
	}

	date := f.date
	if date == "" {
		date = a.Detector.DefaultDate()
	}

	r, text, err := a.Analyze(ctx, date, f.force)
	if err != nil {
		return err
	}
	if r == nil {
		fmt.Printf("⚠️  Нет данных за %s. Возможно, это выходной день.\n", date)
		return nil
	}

	fmt.Fprintln(os.Stdout, text)
	log.Info().Str("date", date).Int("anomalies", len(r.Anomalies)).Msg("Done")
	return nil
}

// fatalMessage names the condition that stopped the run.
func fatalMessage(err error) string {
	switch {
	case errors.Is(err, detector.ErrInvalidDate):
		return "Ошибка: неверный формат даты, используйте YYYY-MM-DD: " + err.Error()
	case errors.Is(err, detector.ErrNoBaselineData):
		return "ОШИБКА: не удалось загрузить данные за базовый период: " + err.Error()
	case errors.Is(err, detector.ErrTargetFetch):
		return "ОШИБКА: не удалось загрузить данные за целевую дату: " + err.Error()
	case errors.Is(err, context.Canceled):
		return "Прервано"
	default:
		return "ОШИБКА: " + err.Error()
	}
}
