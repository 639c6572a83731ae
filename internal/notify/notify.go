package notify

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Alias1177/VolumeAnomaly/internal/report"
	"github.com/Alias1177/VolumeAnomaly/models"
)

// ErrNoReport is returned when the reports directory has no JSON report.
var ErrNoReport = errors.New("no report found")

// Sender is the part of the Telegram bot API the notifier uses.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

type Notifier struct {
	sender Sender
	chatID int64
	always bool
	topN   int
	logger zerolog.Logger
}

func New(sender Sender, chatID int64, always bool, topN int) *Notifier {
	if topN <= 0 {
		topN = 10
	}
	return &Notifier{
		sender: sender,
		chatID: chatID,
		always: always,
		topN:   topN,
		logger: log.With().Str("component", "notifier").Logger(),
	}
}

// Notify sends the summary of r. Reports without anomalies are only sent
// when the notifier was created with always set. It reports whether a
// message went out.
func (n *Notifier) Notify(r *models.Report) (bool, error) {
	if len(r.Anomalies) == 0 && !n.always {
		n.logger.Info().Str("date", r.Metadata.AnalysisDate).Msg("No anomalies, notification skipped (set NOTIFY_ALWAYS=1 to send every report)")
		return false, nil
	}

	msg := tgbotapi.NewMessage(n.chatID, FormatMessage(r, n.topN))
	msg.ParseMode = tgbotapi.ModeMarkdown
	msg.DisableWebPagePreview = true

	if _, err := n.sender.Send(msg); err != nil {
		return false, fmt.Errorf("failed to send telegram message: %w", err)
	}
	n.logger.Info().Str("date", r.Metadata.AnalysisDate).Int("anomalies", len(r.Anomalies)).Msg("Notification sent")
	return true, nil
}

// FormatMessage renders the Markdown summary with at most topN anomalies.
func FormatMessage(r *models.Report, topN int) string {
	m := r.Metadata
	var lines []string
	add := func(format string, args ...any) {
		lines = append(lines, fmt.Sprintf(format, args...))
	}

	add("📊 *Аномалии объемов торгов*")
	add("📅 Дата: %s", m.AnalysisDate)
	add("📉 Базовый период: %s — %s", m.BasePeriodStart, m.BasePeriodEnd)
	add("🎯 Порог: %gσ", m.ThresholdSigma)
	add("")

	if len(r.Anomalies) > 0 {
		add("🔥 *Найдено аномалий: %d*", len(r.Anomalies))
		add("")

		shown := r.Anomalies
		if len(shown) > topN {
			shown = shown[:topN]
		}
		for _, a := range shown {
			emoji := "📈"
			if a.ZScore >= 3 {
				emoji = "🚀"
			}
			add("%s *%s* — %s\n   💰 %s руб\n   📊 Z-score: %+.2f | %+.1f%%",
				emoji, escapeMarkdown(a.Ticker), escapeMarkdown(a.ShortName),
				report.FormatNumber(a.CurrentValue), a.ZScore, a.DeviationPercent)
			add("")
		}
		if extra := len(r.Anomalies) - len(shown); extra > 0 {
			add("_...и еще %d аномалий_", extra)
		}
	} else {
		add("✅ Аномалий не обнаружено")
	}

	add("")
	add("📋 Всего тикеров: %d", m.TotalTickers)
	return strings.Join(lines, "\n")
}

var markdownEscaper = strings.NewReplacer("_", "\\_", "*", "\\*", "`", "\\`", "[", "\\[")

// escapeMarkdown protects legacy Markdown control characters in names.
func escapeMarkdown(s string) string {
	return markdownEscaper.Replace(s)
}

// FindReport picks the JSON report for the previous weekday before now, or
// the newest report on disk when that one does not exist.
func FindReport(dir string, now time.Time) (string, error) {
	date := models.PreviousWeekday(now).Format(models.DateLayout)
	path := report.JSONPath(dir, date)
	if _, err := os.Stat(path); err == nil {
		return path, nil
	}

	dates, err := report.Dates(dir, ".json")
	if err != nil {
		return "", err
	}
	if len(dates) == 0 {
		return "", fmt.Errorf("%w in %s", ErrNoReport, dir)
	}
	return report.JSONPath(dir, dates[0]), nil
}
