package output

import (
	"encoding/csv"
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"wardwatch/internal/config"
	"wardwatch/internal/model"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testWriter(t *testing.T) (*Writer, string) {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "out")
	w, err := NewWriter(config.OutputConfig{
		Dir:       dir,
		JSON:      "jobs.json",
		CSV:       "jobs.csv",
		RawJSON:   "raw_jobs.json",
		RunReport: "run_report.json",
	}, discardLogger())
	if err != nil {
		t.Fatalf("NewWriter: %v", err)
	}
	return w, dir
}

func TestWriteJobsJSON_RoundTrip(t *testing.T) {
	w, dir := testWriter(t)

	listings := []model.Listing{
		{URL: "https://a/1", Title: "RN", JobType: "Full-Time", HospitalID: "general"},
	}
	if err := w.WriteJobsJSON(listings); err != nil {
		t.Fatalf("WriteJobsJSON: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "jobs.json"))
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var got []model.Listing
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(got) != 1 || got[0].URL != "https://a/1" {
		t.Errorf("got %+v", got)
	}
}

func TestWriteJobsJSON_EmptyIsArray(t *testing.T) {
	w, dir := testWriter(t)

	if err := w.WriteJobsJSON(nil); err != nil {
		t.Fatalf("WriteJobsJSON: %v", err)
	}

	data, _ := os.ReadFile(filepath.Join(dir, "jobs.json"))
	if !strings.HasPrefix(strings.TrimSpace(string(data)), "[") {
		t.Errorf("empty output must be a JSON array, got %q", string(data))
	}
}

func TestWriteJobsCSV_HeaderAndRows(t *testing.T) {
	w, dir := testWriter(t)

	listings := []model.Listing{
		{URL: "https://a/1", Title: "RN, Emergency", JobType: "Part-Time", Location: "Toronto, ON", HospitalID: "general", DatePosted: "2026-08-01"},
	}
	if err := w.WriteJobsCSV(listings); err != nil {
		t.Fatalf("WriteJobsCSV: %v", err)
	}

	f, err := os.Open(filepath.Join(dir, "jobs.csv"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("parse csv: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected header + 1 row, got %d rows", len(rows))
	}
	if rows[0][0] != "hospital_id" {
		t.Errorf("header = %v", rows[0])
	}
	if rows[1][1] != "RN, Emergency" {
		t.Errorf("title cell = %q (comma must survive quoting)", rows[1][1])
	}
}

func TestWriteRunReport(t *testing.T) {
	w, dir := testWriter(t)

	report := model.RunReport{
		StartedAt:  time.Now().Add(-time.Minute),
		FinishedAt: time.Now(),
		Hospitals: []model.HospitalReport{
			{HospitalID: "general", Status: model.StatusOK, RawCount: 12},
			{HospitalID: "st-marys", Status: model.StatusFailed, Error: "board down"},
		},
	}
	if err := w.WriteRunReport(report); err != nil {
		t.Fatalf("WriteRunReport: %v", err)
	}

	data, _ := os.ReadFile(filepath.Join(dir, "run_report.json"))
	var got model.RunReport
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(got.Hospitals) != 2 || got.Hospitals[1].Error != "board down" {
		t.Errorf("got %+v", got)
	}
}
