package stats

import (
	"fmt"
	"math"
	"sort"

	"github.com/Alias1177/VolumeAnomaly/internal/exclusion"
	"github.com/Alias1177/VolumeAnomaly/models"
)

// Engine scores target-date trading value against a baseline window.
type Engine struct {
	rules      exclusion.Rules
	windowSize int
}

// New creates an Engine. windowSize is the configured baseline length and is
// only used in warning messages; the actual number of baseline days may be
// smaller when some dates could not be fetched.
func New(rules exclusion.Rules, windowSize int) *Engine {
	return &Engine{rules: rules, windowSize: windowSize}
}

// Compute returns statistics for every ticker traded on the target date that
// passes the exclusion rules and has at least one baseline value. Tickers
// without any baseline value are skipped without a warning.
func (e *Engine) Compute(baseline []models.Records, target models.Records) (map[string]models.InstrumentStatistics, []string) {
	result := make(map[string]models.InstrumentStatistics, len(target))
	var warnings []string

	for _, ticker := range sortedTickers(target) {
		rec := target[ticker]
		if e.rules.TickerExcluded(ticker) || e.rules.NameExcluded(rec.ShortName) {
			continue
		}

		values := baselineValues(baseline, ticker)
		if len(values) == 0 {
			continue
		}

		current := rec.Value.InexactFloat64()
		mean := Mean(values)

		var std float64
		if len(values) >= 2 {
			std = SampleStdDev(values, mean)
		} else {
			std = SyntheticStdDev(mean)
			warnings = append(warnings, fmt.Sprintf("ticker %s: only %d day(s) of data instead of %d",
				ticker, len(values), e.windowSize))
		}

		result[ticker] = models.InstrumentStatistics{
			Ticker:           ticker,
			ShortName:        rec.ShortName,
			CurrentValue:     current,
			MeanValue:        mean,
			StdValue:         std,
			ZScore:           ZScore(current, mean, std),
			DeviationPercent: DeviationPercent(current, mean),
			BaseDaysCount:    len(values),
		}
	}

	return result, warnings
}

// baselineValues collects the ticker's value from each baseline date in
// window order, skipping dates where it did not trade.
func baselineValues(baseline []models.Records, ticker string) []float64 {
	var values []float64
	for _, day := range baseline {
		if rec, ok := day[ticker]; ok {
			values = append(values, rec.Value.InexactFloat64())
		}
	}
	return values
}

// Mean returns the arithmetic mean, 0 for no values.
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// SampleStdDev returns the sample (n-1) standard deviation around mean.
func SampleStdDev(values []float64, mean float64) float64 {
	if len(values) < 2 {
		return 0
	}
	var sq float64
	for _, v := range values {
		d := v - mean
		sq += d * d
	}
	return math.Sqrt(sq / float64(len(values)-1))
}

// SyntheticStdDev stands in for the spread when there is a single baseline
// point: 1% of the mean, or 1 when the mean is not positive.
func SyntheticStdDev(mean float64) float64 {
	if mean <= 0 {
		return 1
	}
	return mean * 0.01
}

func ZScore(current, mean, std float64) float64 {
	if std <= 0 {
		return 0
	}
	return (current - mean) / std
}

func DeviationPercent(current, mean float64) float64 {
	if mean <= 0 {
		return 0
	}
	return (current - mean) / mean * 100
}

// sortedTickers keeps warning order stable between runs.
func sortedTickers(r models.Records) []string {
	out := make([]string, 0, len(r))
	for k := range r {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
