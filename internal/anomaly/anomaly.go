package anomaly

import (
	"sort"

	"github.com/Alias1177/VolumeAnomaly/models"
)

// Thresholds are the three tests an instrument must pass together.
type Thresholds struct {
	Sigma               float64
	MinDeviationPercent float64
	MinAvgValue         float64
}

// Selector filters and ranks instrument statistics.
type Selector struct {
	minDeviationPercent float64
	minAvgValue         float64
}

func NewSelector(minDeviationPercent, minAvgValue float64) *Selector {
	return &Selector{minDeviationPercent: minDeviationPercent, minAvgValue: minAvgValue}
}

// Select returns the anomalies ordered by z-score descending, ties broken by
// ticker ascending. Ranks start at 1 and follow the final order.
func (s *Selector) Select(stats map[string]models.InstrumentStatistics, thresholdSigma float64) []models.AnomalyEntry {
	th := Thresholds{
		Sigma:               thresholdSigma,
		MinDeviationPercent: s.minDeviationPercent,
		MinAvgValue:         s.minAvgValue,
	}

	var picked []models.InstrumentStatistics
	for _, st := range stats {
		if IsAnomaly(st, th) {
			picked = append(picked, st)
		}
	}

	sort.Slice(picked, func(i, j int) bool {
		if picked[i].ZScore != picked[j].ZScore {
			return picked[i].ZScore > picked[j].ZScore
		}
		return picked[i].Ticker < picked[j].Ticker
	})

	entries := make([]models.AnomalyEntry, len(picked))
	for i, st := range picked {
		entries[i] = models.AnomalyEntry{Rank: i + 1, InstrumentStatistics: st}
	}
	return entries
}

// IsAnomaly reports whether st passes all three thresholds. The comparisons
// on z-score and deviation are strict.
func IsAnomaly(st models.InstrumentStatistics, th Thresholds) bool {
	return st.ZScore > th.Sigma &&
		st.DeviationPercent > th.MinDeviationPercent &&
		st.MeanValue >= th.MinAvgValue
}
