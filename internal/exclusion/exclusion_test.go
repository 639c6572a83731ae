package exclusion

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRules(t *testing.T) {
	r := New([]string{"RU000", ""}, []string{"etf", ""})

	assert.True(t, r.TickerExcluded("RU000A0JX0J2"))
	assert.False(t, r.TickerExcluded("SBER"))
	assert.False(t, r.TickerExcluded("XRU000"))

	assert.True(t, r.NameExcluded("TRUR ETF"))
	assert.True(t, r.NameExcluded("Etf Gold"))
	assert.False(t, r.NameExcluded("Сбербанк"))
}

func TestEmptyRulesExcludeNothing(t *testing.T) {
	var r Rules
	assert.False(t, r.TickerExcluded("RU000A0JX0J2"))
	assert.False(t, r.NameExcluded("ETF"))
}
