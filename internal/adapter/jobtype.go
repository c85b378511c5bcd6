package adapter

import (
	"regexp"
	"strings"
)

var (
	pttRegex  = regexp.MustCompile(`\bptt\b`)
	fttRegex  = regexp.MustCompile(`\bftt\b`)
	tempRegex = regexp.MustCompile(`\btemp\b`)
)

// InferJobType derives an employment label from the job title when the
// board exposes no structured field. Hospital boards routinely pack the
// employment terms into the title ("RN - Part Time Temporary"), so title
// signals win over whatever default the adapter carries.
func InferJobType(title, current string) string {
	title = strings.TrimSpace(title)
	if current = strings.TrimSpace(current); current == "" {
		current = "Unknown"
	}
	if title == "" {
		return current
	}

	lower := strings.ToLower(title)

	var timeBasis string
	switch {
	case pttRegex.MatchString(lower):
		timeBasis = "Part-Time"
	case fttRegex.MatchString(lower):
		timeBasis = "Full-Time"
	case strings.Contains(lower, "part time") || strings.Contains(lower, "part-time"):
		timeBasis = "Part-Time"
	case strings.Contains(lower, "full time") || strings.Contains(lower, "full-time"):
		timeBasis = "Full-Time"
	}

	var status string
	switch {
	case strings.Contains(lower, "casual"):
		status = "Casual"
	case strings.Contains(lower, "contract"):
		status = "Contract"
	case strings.Contains(lower, "temporary") || tempRegex.MatchString(lower):
		status = "Temporary"
	case strings.Contains(lower, "permanent"):
		status = "Permanent"
	}

	if timeBasis == "" && status == "" {
		return current
	}
	if timeBasis == "" {
		return status
	}
	if status == "" {
		return timeBasis
	}
	return timeBasis + " " + status
}
