package aggregate

import (
	"github.com/Alias1177/VolumeAnomaly/internal/exclusion"
	"github.com/Alias1177/VolumeAnomaly/models"
)

// Aggregator merges per-session rows into one record per ticker.
type Aggregator struct {
	rules exclusion.Rules
}

func New(rules exclusion.Rules) *Aggregator {
	return &Aggregator{rules: rules}
}

// Aggregate sums volume, value and trade count per ticker. Rows with an
// excluded ticker contribute nothing. The short name is taken from the first
// row seen for a ticker.
func (a *Aggregator) Aggregate(rows []models.RawRow) models.Records {
	out := make(models.Records)
	for _, row := range rows {
		if a.rules.TickerExcluded(row.SecID) {
			continue
		}

		rec, ok := out[row.SecID]
		if !ok {
			rec = models.InstrumentRecord{ShortName: row.ShortName}
		}
		rec.Volume += row.Volume
		rec.Value = rec.Value.Add(row.Value)
		rec.NumTrades += row.NumTrades
		out[row.SecID] = rec
	}
	return out
}
