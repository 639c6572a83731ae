package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Alias1177/VolumeAnomaly/models"
)

const filePrefix = "anomalies_"

// TextPath returns the text report location for date.
func TextPath(dir, date string) string {
	return filepath.Join(dir, filePrefix+date+".txt")
}

// JSONPath returns the JSON report location for date.
func JSONPath(dir, date string) string {
	return filepath.Join(dir, filePrefix+date+".json")
}

// Writer saves reports into a directory.
type Writer struct {
	dir    string
	logger zerolog.Logger
}

func NewWriter(dir string) *Writer {
	return &Writer{
		dir:    dir,
		logger: log.With().Str("component", "report_writer").Logger(),
	}
}

// Save writes both renderings of r and returns the text rendering.
func (w *Writer) Save(r *models.Report) (string, error) {
	if err := os.MkdirAll(w.dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create reports directory: %w", err)
	}

	date := r.Metadata.AnalysisDate
	text := RenderText(r)

	txtPath := TextPath(w.dir, date)
	if err := os.WriteFile(txtPath, []byte(text), 0644); err != nil {
		return "", fmt.Errorf("failed to write text report: %w", err)
	}

	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode report: %w", err)
	}
	jsonPath := JSONPath(w.dir, date)
	if err := os.WriteFile(jsonPath, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write json report: %w", err)
	}

	w.logger.Info().Str("txt", txtPath).Str("json", jsonPath).Msg("Reports saved")
	return text, nil
}

// Load reads a JSON report.
func Load(path string) (*models.Report, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read report: %w", err)
	}
	var r models.Report
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("failed to decode report %s: %w", path, err)
	}
	return &r, nil
}

// Dates lists the dates that have a report file with the given extension
// (".txt" or ".json") in dir, newest first. A missing directory yields no
// dates.
func Dates(dir, ext string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to list reports: %w", err)
	}

	var dates []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasPrefix(name, filePrefix) || !strings.HasSuffix(name, ext) {
			continue
		}
		date := strings.TrimSuffix(strings.TrimPrefix(name, filePrefix), ext)
		if _, err := models.ParseDate(date); err != nil {
			continue
		}
		dates = append(dates, date)
	}

	sort.Sort(sort.Reverse(sort.StringSlice(dates)))
	return dates, nil
}
