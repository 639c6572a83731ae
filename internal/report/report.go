// Package report assembles the result of an analysis run and renders it as
// text and JSON files in the reports directory.
package report

import (
	"math"

	"github.com/Alias1177/VolumeAnomaly/models"
)

// Builder assembles reports. It performs no I/O.
type Builder struct {
	thresholdSigma float64
}

func NewBuilder(thresholdSigma float64) *Builder {
	return &Builder{thresholdSigma: thresholdSigma}
}

// Build assembles the report for targetDate. window is the baseline window
// that was requested, oldest first. Z-scores are rounded to two decimals and
// deviations to one, as published.
func (b *Builder) Build(anomalies []models.AnomalyEntry, targetDate string, window []string, totalTickers int, warnings []string) *models.Report {
	r := &models.Report{
		Metadata: models.ReportMetadata{
			AnalysisDate:   targetDate,
			BasePeriodDays: len(window),
			ThresholdSigma: b.thresholdSigma,
			TotalTickers:   totalTickers,
			AnomaliesFound: len(anomalies),
		},
		Anomalies: make([]models.ReportAnomaly, 0, len(anomalies)),
		Warnings:  append([]string{}, warnings...),
	}
	if len(window) > 0 {
		r.Metadata.BasePeriodStart = window[0]
		r.Metadata.BasePeriodEnd = window[len(window)-1]
	}

	for _, a := range anomalies {
		r.Anomalies = append(r.Anomalies, models.ReportAnomaly{
			Rank:             a.Rank,
			Ticker:           a.Ticker,
			ShortName:        a.ShortName,
			CurrentValue:     a.CurrentValue,
			AvgValue:         a.MeanValue,
			StdValue:         a.StdValue,
			ZScore:           round(a.ZScore, 2),
			DeviationPercent: round(a.DeviationPercent, 1),
			BaseDaysCount:    a.BaseDaysCount,
		})
	}
	return r
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
