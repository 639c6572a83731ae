// Package listing renders the browsable index of report files.
package listing

import (
	"bytes"
	_ "embed"
	"fmt"
	"html/template"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/Alias1177/VolumeAnomaly/internal/report"
)

// IndexFile is the name of the generated page inside the reports directory.
const IndexFile = "index.html"

//go:embed index.html.tmpl
var indexSource string

var indexTemplate = template.Must(template.New("index").Parse(indexSource))

// Page is the data the index template is rendered with.
type Page struct {
	Total     int
	LastDate  string
	Dates     []string
	UpdatedAt string
	Schedule  string
}

// NewPage builds the page for dates, newest first.
func NewPage(dates []string, now time.Time, schedule string) Page {
	p := Page{
		Total:     len(dates),
		LastDate:  "—",
		Dates:     dates,
		UpdatedAt: now.Format("2006-01-02 15:04:05"),
		Schedule:  schedule,
	}
	if len(dates) > 0 {
		p.LastDate = dates[0]
	}
	return p
}

func Render(w io.Writer, p Page) error {
	return indexTemplate.Execute(w, p)
}

// Generate scans dir for text reports and writes dir/index.html. It returns
// the number of reports listed.
func Generate(dir string, now time.Time, schedule string) (int, error) {
	dates, err := report.Dates(dir, ".txt")
	if err != nil {
		return 0, err
	}

	var buf bytes.Buffer
	if err := Render(&buf, NewPage(dates, now, schedule)); err != nil {
		return 0, fmt.Errorf("failed to render index: %w", err)
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return 0, fmt.Errorf("failed to create reports directory: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, IndexFile), buf.Bytes(), 0644); err != nil {
		return 0, fmt.Errorf("failed to write index: %w", err)
	}
	return len(dates), nil
}
