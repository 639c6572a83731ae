// Package exclusion decides which instruments are left out of the analysis.
// The same Rules value is applied by the aggregator and by the statistics
// engine; applying it twice yields the same result as applying it once.
package exclusion

import "strings"

// Rules lists ticker prefixes (bonds, ISIN-style codes) and short-name
// keywords (funds) that are never analyzed.
type Rules struct {
	prefixes []string
	keywords []string
}

// New builds Rules. Keywords are matched case-insensitively.
func New(prefixes, keywords []string) Rules {
	r := Rules{prefixes: append([]string(nil), prefixes...)}
	for _, k := range keywords {
		if k != "" {
			r.keywords = append(r.keywords, strings.ToUpper(k))
		}
	}
	return r
}

// TickerExcluded reports whether ticker starts with an excluded prefix.
func (r Rules) TickerExcluded(ticker string) bool {
	for _, p := range r.prefixes {
		if p != "" && strings.HasPrefix(ticker, p) {
			return true
		}
	}
	return false
}

// NameExcluded reports whether shortName contains an excluded keyword.
func (r Rules) NameExcluded(shortName string) bool {
	upper := strings.ToUpper(shortName)
	for _, k := range r.keywords {
		if strings.Contains(upper, k) {
			return true
		}
	}
	return false
}
