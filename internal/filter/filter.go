// Package filter decides which normalized listings are relevant. All
// matching is case-insensitive substring matching; an empty keyword set
// disables its check.
package filter

import (
	"strings"

	"wardwatch/internal/config"
	"wardwatch/internal/model"
)

// Engine applies the role profile plus per-hospital location includes to
// normalized listings. Exclusions run after inclusions and win.
type Engine struct {
	titleGroups      [][]string
	groupsMode       string // config.GroupsModeAll or config.GroupsModeAny
	titleExcludes    []string
	employment       []string
	employmentExcl   []string
	locationIncludes map[string][]string // hospital ID -> keywords
}

// NewEngine builds an Engine from the role profile and the enabled
// hospitals' location includes.
func NewEngine(role config.RoleConfig, hospitals []config.HospitalConfig) *Engine {
	locs := make(map[string][]string)
	for _, h := range hospitals {
		if len(h.LocationIncludeAnyOf) > 0 {
			locs[h.ID] = h.LocationIncludeAnyOf
		}
	}
	return &Engine{
		titleGroups:      role.TitleGroups,
		groupsMode:       role.TitleGroupsMode,
		titleExcludes:    role.TitleExcludeAnyOf,
		employment:       role.EmploymentAnyOf,
		employmentExcl:   role.EmploymentExcludeAnyOf,
		locationIncludes: locs,
	}
}

// Apply returns the listings that match, preserving input order.
func (e *Engine) Apply(listings []model.Listing) []model.Listing {
	var kept []model.Listing
	for _, l := range listings {
		if e.Match(l) {
			kept = append(kept, l)
		}
	}
	return kept
}

// Match reports whether a single listing passes every check.
func (e *Engine) Match(l model.Listing) bool {
	title := strings.ToLower(l.Title)

	if !e.matchTitleGroups(title) {
		return false
	}
	if containsAny(title, e.titleExcludes) {
		return false
	}

	// Boards often leave job_type unset and pack the employment terms
	// into the title, so both are searched.
	employment := strings.ToLower(l.JobType + " " + l.Title)
	if len(e.employment) > 0 && !containsAny(employment, e.employment) {
		return false
	}
	if containsAny(employment, e.employmentExcl) {
		return false
	}

	if keywords, ok := e.locationIncludes[l.HospitalID]; ok {
		if !containsAny(strings.ToLower(l.Location), keywords) {
			return false
		}
	}
	return true
}

// matchTitleGroups evaluates the grouped title scheme: a group matches
// when any of its keywords appears in the title; mode "all" requires
// every group to match, mode "any" requires at least one. No groups
// means every title passes.
func (e *Engine) matchTitleGroups(titleLower string) bool {
	if len(e.titleGroups) == 0 {
		return true
	}

	for _, group := range e.titleGroups {
		matched := containsAny(titleLower, group)
		if e.groupsMode == config.GroupsModeAny && matched {
			return true
		}
		if e.groupsMode != config.GroupsModeAny && !matched {
			return false
		}
	}
	return e.groupsMode != config.GroupsModeAny
}

// containsAny reports whether haystack contains any keyword. The haystack
// must already be lowercased; keywords are lowercased here.
func containsAny(haystack string, keywords []string) bool {
	for _, kw := range keywords {
		if kw == "" {
			continue
		}
		if strings.Contains(haystack, strings.ToLower(kw)) {
			return true
		}
	}
	return false
}
