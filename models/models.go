package models

import (
	"github.com/shopspring/decimal"
)

// RawRow is a single history row as returned by the exchange, one per
// trading session/board. Several rows may share a SecID.
type RawRow struct {
	SecID     string
	ShortName string
	Volume    int64
	Value     decimal.Decimal
	NumTrades int64
}

// InstrumentRecord holds the aggregated trading totals of one instrument for one date
type InstrumentRecord struct {
	ShortName string          `json:"shortname"`
	Volume    int64           `json:"volume"`
	Value     decimal.Decimal `json:"value"`
	NumTrades int64           `json:"numtrades"`
}

// Records maps a ticker to its aggregated record.
type Records map[string]InstrumentRecord

// DateSnapshot is the persisted form of one trading date.
type DateSnapshot struct {
	Date    string  `json:"date"`
	Tickers Records `json:"tickers"`
}

// InstrumentStatistics is computed per run and never persisted
type InstrumentStatistics struct {
	Ticker           string
	ShortName        string
	CurrentValue     float64
	MeanValue        float64
	StdValue         float64
	ZScore           float64
	DeviationPercent float64
	BaseDaysCount    int
}

// AnomalyEntry is a ranked view over InstrumentStatistics.
type AnomalyEntry struct {
	Rank int
	InstrumentStatistics
}

// ReportMetadata describes the run that produced a report.
type ReportMetadata struct {
	AnalysisDate    string  `json:"analysisDate"`
	BasePeriodStart string  `json:"basePeriodStart"`
	BasePeriodEnd   string  `json:"basePeriodEnd"`
	BasePeriodDays  int     `json:"basePeriodDays"`
	ThresholdSigma  float64 `json:"thresholdSigma"`
	TotalTickers    int     `json:"totalTickers"`
	AnomaliesFound  int     `json:"anomaliesFound"`
}

// ReportAnomaly is the serialized form of an AnomalyEntry.
type ReportAnomaly struct {
	Rank             int     `json:"rank"`
	Ticker           string  `json:"ticker"`
	ShortName        string  `json:"shortname"`
	CurrentValue     float64 `json:"currentValue"`
	AvgValue         float64 `json:"avgValue"`
	StdValue         float64 `json:"stdValue"`
	ZScore           float64 `json:"zScore"`
	DeviationPercent float64 `json:"deviationPercent"`
	BaseDaysCount    int     `json:"baseDaysCount"`
}

// Report is the complete result of one analysis run.
type Report struct {
	Metadata  ReportMetadata  `json:"metadata"`
	Anomalies []ReportAnomaly `json:"anomalies"`
	Warnings  []string        `json:"warnings"`
}

// AnomalyShare returns the percentage of analyzed tickers flagged as anomalies.
// Zero tickers yields zero.
func (r *Report) AnomalyShare() float64 {
	if r.Metadata.TotalTickers == 0 {
		return 0
	}
	return float64(r.Metadata.AnomaliesFound) / float64(r.Metadata.TotalTickers) * 100
}
