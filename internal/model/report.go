package model

import "time"

// Hospital scrape outcomes.
const (
	StatusOK      = "ok"      // all pages fetched
	StatusPartial = "partial" // errored mid-pagination, some listings kept
	StatusFailed  = "failed"  // errored with nothing to show
)

// HospitalReport is the per-hospital entry of a run report. One entry is
// written per configured hospital, in configuration order, exactly once.
type HospitalReport struct {
	HospitalID      string `json:"hospital_id"`
	Status          string `json:"status"`
	RawCount        int    `json:"raw_count"`
	NormalizedCount int    `json:"normalized_count"`
	FilteredCount   int    `json:"filtered_count"`
	FallbackUsed    bool   `json:"fallback_used,omitempty"`
	Error           string `json:"error,omitempty"`
}

// RunReport summarizes one pipeline run. It is rebuilt from scratch every
// run and never merged with earlier reports.
type RunReport struct {
	StartedAt  time.Time        `json:"started_at"`
	FinishedAt time.Time        `json:"finished_at"`
	Hospitals  []HospitalReport `json:"hospitals"`
}

// Failed returns the entries whose hospital produced no usable listings.
func (r RunReport) Failed() []HospitalReport {
	var out []HospitalReport
	for _, h := range r.Hospitals {
		if h.Status == StatusFailed {
			out = append(out, h)
		}
	}
	return out
}
