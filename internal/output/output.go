// Package output writes run artifacts to disk: the matched listings as
// JSON and CSV, the raw pre-filter collection on request, and the run
// report.
package output

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"wardwatch/internal/config"
	"wardwatch/internal/model"
)

// Writer writes run artifacts into the configured output directory.
type Writer struct {
	cfg    config.OutputConfig
	logger *slog.Logger
}

// NewWriter creates the output directory if needed.
func NewWriter(cfg config.OutputConfig, logger *slog.Logger) (*Writer, error) {
	if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating output dir %s: %w", cfg.Dir, err)
	}
	return &Writer{cfg: cfg, logger: logger}, nil
}

// WriteJobsJSON writes the matched listings as a JSON array.
func (w *Writer) WriteJobsJSON(listings []model.Listing) error {
	return w.writeJSON(w.cfg.JSON, listingsOrEmpty(listings))
}

// WriteRawJSON writes the pre-filter aggregate as a JSON array.
func (w *Writer) WriteRawJSON(listings []model.Listing) error {
	return w.writeJSON(w.cfg.RawJSON, listingsOrEmpty(listings))
}

// WriteRunReport writes the run report.
func (w *Writer) WriteRunReport(report model.RunReport) error {
	return w.writeJSON(w.cfg.RunReport, report)
}

// WriteJobsCSV writes the matched listings as CSV with a header row.
func (w *Writer) WriteJobsCSV(listings []model.Listing) error {
	path := filepath.Join(w.cfg.Dir, w.cfg.CSV)
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer f.Close()

	cw := csv.NewWriter(f)
	if err := cw.Write([]string{"hospital_id", "title", "job_type", "location", "date_posted", "url"}); err != nil {
		return fmt.Errorf("writing csv header: %w", err)
	}
	for _, l := range listings {
		row := []string{l.HospitalID, l.Title, l.JobType, l.Location, l.DatePosted, l.URL}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("writing csv row for %s: %w", l.URL, err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flushing %s: %w", path, err)
	}

	w.logger.Debug("wrote artifact", "path", path, "rows", len(listings))
	return nil
}

func (w *Writer) writeJSON(name string, v any) error {
	path := filepath.Join(w.cfg.Dir, name)
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding %s: %w", name, err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	w.logger.Debug("wrote artifact", "path", path)
	return nil
}

// listingsOrEmpty keeps empty runs rendering as [] instead of null.
func listingsOrEmpty(listings []model.Listing) []model.Listing {
	if listings == nil {
		return []model.Listing{}
	}
	return listings
}
