package stats

import (
	"math"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alias1177/VolumeAnomaly/internal/exclusion"
	"github.com/Alias1177/VolumeAnomaly/models"
)

func day(values map[string]float64) models.Records {
	r := models.Records{}
	for ticker, v := range values {
		r[ticker] = models.InstrumentRecord{ShortName: ticker + " ао", Value: decimal.NewFromFloat(v)}
	}
	return r
}

func baselineOf(ticker string, values ...float64) []models.Records {
	out := make([]models.Records, 0, len(values))
	for _, v := range values {
		out = append(out, day(map[string]float64{ticker: v}))
	}
	return out
}

func newEngine() *Engine {
	return New(exclusion.New([]string{"RU000"}, []string{"ETF"}), 5)
}

func TestComputeScenarios(t *testing.T) {
	tests := []struct {
		name     string
		baseline []float64
		target   float64
		mean     float64
		std      float64
		z        float64
		dev      float64
	}{
		{
			name:     "нулевой разброс",
			baseline: []float64{100, 100, 100, 100, 100},
			target:   500,
			mean:     100,
			std:      0,
			z:        0,
			dev:      400,
		},
		{
			name:     "выброс в миллионах",
			baseline: []float64{10e6, 11e6, 9e6, 10e6, 10e6},
			target:   40e6,
			mean:     10e6,
			std:      math.Sqrt(0.5e12),
			z:        30e6 / math.Sqrt(0.5e12),
			dev:      300,
		},
		{
			name:     "падение объема",
			baseline: []float64{200, 100},
			target:   50,
			mean:     150,
			std:      math.Sqrt(5000),
			z:        -100 / math.Sqrt(5000),
			dev:      -100.0 / 150 * 100,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, warnings := newEngine().Compute(baselineOf("SBER", tt.baseline...), day(map[string]float64{"SBER": tt.target}))
			require.Contains(t, got, "SBER")
			assert.Empty(t, warnings)

			s := got["SBER"]
			assert.InDelta(t, tt.mean, s.MeanValue, 1e-6)
			assert.InDelta(t, tt.std, s.StdValue, 1e-6)
			assert.InDelta(t, tt.z, s.ZScore, 1e-9)
			assert.InDelta(t, tt.dev, s.DeviationPercent, 1e-9)
			assert.Equal(t, len(tt.baseline), s.BaseDaysCount)
			assert.Equal(t, tt.target, s.CurrentValue)
		})
	}
}

func TestComputeZScoreMatchesSampleStdDev(t *testing.T) {
	got, _ := newEngine().Compute(baselineOf("SBER", 10e6, 11e6, 9e6, 10e6, 10e6), day(map[string]float64{"SBER": 40e6}))
	assert.InDelta(t, 42.43, got["SBER"].ZScore, 0.01)
}

func TestComputeSingleBaselineDay(t *testing.T) {
	baseline := []models.Records{
		day(map[string]float64{"GAZP": 1000}),
		day(map[string]float64{}),
		day(map[string]float64{"ZERO": 0}),
	}
	target := day(map[string]float64{"GAZP": 1100, "ZERO": 5})

	got, warnings := newEngine().Compute(baseline, target)

	gazp := got["GAZP"]
	assert.Equal(t, 1, gazp.BaseDaysCount)
	assert.InDelta(t, 10, gazp.StdValue, 1e-9)
	assert.InDelta(t, 10, gazp.ZScore, 1e-9)
	assert.InDelta(t, 10, gazp.DeviationPercent, 1e-9)

	zero := got["ZERO"]
	assert.Equal(t, 1.0, zero.StdValue)
	assert.Equal(t, 5.0, zero.ZScore)
	assert.Zero(t, zero.DeviationPercent, "mean of zero has no percentage")

	assert.Equal(t, []string{
		"ticker GAZP: only 1 day(s) of data instead of 5",
		"ticker ZERO: only 1 day(s) of data instead of 5",
	}, warnings)
}

func TestComputeSkipsTickersWithoutBaseline(t *testing.T) {
	baseline := baselineOf("SBER", 1, 2, 3)
	target := day(map[string]float64{"SBER": 4, "NEWCO": 1e9})

	got, warnings := newEngine().Compute(baseline, target)
	assert.NotContains(t, got, "NEWCO")
	assert.Contains(t, got, "SBER")
	for _, w := range warnings {
		assert.NotContains(t, w, "NEWCO")
	}
}

func TestComputeTargetOnly(t *testing.T) {
	// baseline tickers absent on the target date are never scored
	baseline := []models.Records{day(map[string]float64{"SBER": 1, "GONE": 1}), day(map[string]float64{"SBER": 2, "GONE": 2})}
	got, _ := newEngine().Compute(baseline, day(map[string]float64{"SBER": 3}))
	assert.Len(t, got, 1)
	assert.NotContains(t, got, "GONE")
}

func TestComputeExclusions(t *testing.T) {
	baseline := []models.Records{
		{
			"RU000A1": {ShortName: "ОФЗ", Value: decimal.NewFromInt(1)},
			"TMOS":    {ShortName: "Тинькофф iMOEX etf", Value: decimal.NewFromInt(1)},
			"SBER":    {ShortName: "Сбербанк", Value: decimal.NewFromInt(1)},
		},
	}
	target := models.Records{
		"RU000A1": {ShortName: "ОФЗ", Value: decimal.NewFromInt(10)},
		"TMOS":    {ShortName: "Тинькофф iMOEX etf", Value: decimal.NewFromInt(10)},
		"SBER":    {ShortName: "Сбербанк", Value: decimal.NewFromInt(10)},
	}

	got, warnings := newEngine().Compute(baseline, target)
	assert.Len(t, got, 1)
	assert.Contains(t, got, "SBER")
	assert.Len(t, warnings, 1)
}

func TestHelpers(t *testing.T) {
	assert.Zero(t, Mean(nil))
	assert.Zero(t, SampleStdDev([]float64{5}, 5))
	assert.Equal(t, 1.0, SyntheticStdDev(0))
	assert.Equal(t, 2.5, SyntheticStdDev(250))
	assert.Zero(t, ZScore(10, 5, 0))
	assert.Zero(t, DeviationPercent(10, 0))
}
