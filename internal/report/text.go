package report

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/Alias1177/VolumeAnomaly/models"
)

// MaxTextWarnings is how many warnings the text rendering lists before
// collapsing the rest into a counter.
const MaxTextWarnings = 10

var rule = strings.Repeat("=", 70)

// RenderText returns the human-readable report.
func RenderText(r *models.Report) string {
	m := r.Metadata
	var b strings.Builder

	line := func(format string, args ...any) {
		fmt.Fprintf(&b, format, args...)
		b.WriteByte('\n')
	}

	line(rule)
	line("АНОМАЛИИ ОБЪЕМОВ ТОРГОВ")
	line("Дата анализа: %s", m.AnalysisDate)
	line("Базовый период: %s - %s (%d дней)", orDash(m.BasePeriodStart), orDash(m.BasePeriodEnd), m.BasePeriodDays)
	line("Порог аномалии: %.1fσ", m.ThresholdSigma)
	line(rule)
	line("")

	if len(r.Anomalies) > 0 {
		line("Обнаружено аномалий: %d", len(r.Anomalies))
		line("")
		for _, a := range r.Anomalies {
			line("[%d] %s - %s", a.Rank, a.Ticker, a.ShortName)
			line("    Оборот: %s руб", FormatNumber(a.CurrentValue))
			line("    Средний: %s руб", FormatNumber(a.AvgValue))
			line("    Z-score: %+.2f", a.ZScore)
			line("    Отклонение: %+.1f%%", a.DeviationPercent)
			if a.BaseDaysCount < m.BasePeriodDays {
				line("    ⚠️  Данных за базовый период: %d дней", a.BaseDaysCount)
			}
			line("")
		}
	} else {
		line("Аномалий не обнаружено")
		line("")
	}

	line(rule)
	line("Статистика:")
	line("- Всего тикеров: %d", m.TotalTickers)
	line("- Аномалий найдено: %d (%.1f%%)", m.AnomaliesFound, r.AnomalyShare())
	line("- Использовано дней для базы: %d", m.BasePeriodDays)

	if len(r.Warnings) > 0 {
		line("")
		line("Предупреждения:")
		shown := r.Warnings
		if len(shown) > MaxTextWarnings {
			shown = shown[:MaxTextWarnings]
		}
		for _, w := range shown {
			line("- %s", w)
		}
		if extra := len(r.Warnings) - len(shown); extra > 0 {
			line("... и еще %d предупреждений", extra)
		}
	}

	b.WriteString(rule)
	return b.String()
}

// FormatNumber renders a ruble amount: billions and millions with one
// decimal, smaller values as whole numbers with thousands separators.
func FormatNumber(v float64) string {
	switch {
	case v >= 1_000_000_000:
		return oneDecimal(v/1_000_000_000) + " млрд"
	case v >= 1_000_000:
		return oneDecimal(v/1_000_000) + " млн"
	default:
		return humanize.Comma(int64(math.Round(v)))
	}
}

// oneDecimal rounds a non-negative v to tenths and groups the integer part.
func oneDecimal(v float64) string {
	tenths := int64(math.Round(v * 10))
	return humanize.Comma(tenths/10) + "." + strconv.FormatInt(tenths%10, 10)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
