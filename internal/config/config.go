package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Hospital board types. The type selects the adapter, nothing else.
const (
	TypeAPIPaginated    = "api-paginated"    // Workday-style JSON endpoint
	TypeHTMLPaginated   = "html-paginated"   // Njoyn-style server-rendered pages
	TypeBrowserRendered = "browser-rendered" // eRecruit-style JS-heavy pages
)

// Title-group matching modes.
const (
	GroupsModeAll = "all" // every group must match
	GroupsModeAny = "any" // at least one group must match
)

var hospitalTypes = map[string]bool{
	TypeAPIPaginated:    true,
	TypeHTMLPaginated:   true,
	TypeBrowserRendered: true,
}

// Config is the root configuration for a wardwatch run.
type Config struct {
	Role          RoleConfig
	Scrape        ScrapeConfig
	Output        OutputConfig
	State         StateConfig
	Notification  NotificationConfig
	WatchInterval time.Duration
	Hospitals     []HospitalConfig
}

// HospitalConfig describes a single hospital board.
type HospitalConfig struct {
	ID                   string   `yaml:"id"`
	Type                 string   `yaml:"type"`
	URL                  string   `yaml:"url"`
	LocationIncludeAnyOf []string `yaml:"location_include_any_of"`
	Enabled              *bool    `yaml:"enabled"` // nil means enabled
}

// IsEnabled treats a missing enabled key as true.
func (h HospitalConfig) IsEnabled() bool {
	return h.Enabled == nil || *h.Enabled
}

// RoleConfig is the target-role definition used by the filter engine.
type RoleConfig struct {
	TitleGroups            [][]string
	TitleGroupsMode        string // "all" or "any"
	TitleExcludeAnyOf      []string
	EmploymentAnyOf        []string
	EmploymentExcludeAnyOf []string
}

// ScrapeConfig bounds every network-facing part of a run.
type ScrapeConfig struct {
	Timeout                 time.Duration
	UserAgent               string
	MaxPages                int
	PageSize                int // api-paginated page size
	SearchText              string
	ExpandActionsMax        int // browser-rendered "view more" click cap
	EnrichDetailTitles      bool
	EnrichDetailMaxRequests int
	RequestsPerSecond       float64
	Parallelism             int
	BrowserFallback         bool
}

// OutputConfig names the files the run writes under Dir.
type OutputConfig struct {
	Dir       string `yaml:"dir"`
	JSON      string `yaml:"json"`
	CSV       string `yaml:"csv"`
	RawJSON   string `yaml:"raw_json"`
	RunReport string `yaml:"run_report"`
}

// StateConfig selects the seen-URL store.
type StateConfig struct {
	Backend string `yaml:"backend"` // "file" or "sqlite"
	Path    string `yaml:"path"`
}

// NotificationConfig selects the notifier used for new listings.
type NotificationConfig struct {
	Type       string `yaml:"type"`        // "log" or "webhook"
	WebhookURL string `yaml:"webhook_url"` // required if type is "webhook"
}

// rawConfig is used for YAML unmarshaling (snake_case and durations as strings).
type rawConfig struct {
	Role          rawRoleConfig      `yaml:"role"`
	Scrape        rawScrapeConfig    `yaml:"scrape"`
	Output        OutputConfig       `yaml:"output"`
	State         StateConfig        `yaml:"state"`
	Notification  NotificationConfig `yaml:"notification"`
	WatchInterval string             `yaml:"watch_interval"`
	Hospitals     []HospitalConfig   `yaml:"hospitals"`
}

type rawRoleConfig struct {
	TitleGroupsAll         [][]string `yaml:"title_groups_all"`
	TitleGroupsMode        string     `yaml:"title_groups_mode"`
	TitleExcludeAnyOf      []string   `yaml:"title_exclude_any_of"`
	EmploymentAnyOf        []string   `yaml:"employment_any_of"`
	EmploymentExcludeAnyOf []string   `yaml:"employment_exclude_any_of"`
}

type rawScrapeConfig struct {
	Timeout                 string  `yaml:"timeout"`
	UserAgent               string  `yaml:"user_agent"`
	MaxPages                int     `yaml:"max_pages"`
	PageSize                int     `yaml:"page_size"`
	SearchText              string  `yaml:"search_text"`
	ExpandActionsMax        int     `yaml:"expand_actions_max"`
	EnrichDetailTitles      *bool   `yaml:"enrich_detail_titles"`
	EnrichDetailMaxRequests *int    `yaml:"enrich_detail_max_requests"`
	RequestsPerSecond       float64 `yaml:"requests_per_second"`
	Parallelism             int     `yaml:"parallelism"`
	BrowserFallback         bool    `yaml:"browser_fallback"`
}

// Load reads and parses the YAML config file at path, applies defaults,
// validates it, and returns Config.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	// Expand environment variables (webhook URLs, state paths).
	expanded := os.ExpandEnv(string(data))

	var raw rawConfig
	if err := yaml.Unmarshal([]byte(expanded), &raw); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	timeout := 30 * time.Second
	if raw.Scrape.Timeout != "" {
		timeout, err = time.ParseDuration(raw.Scrape.Timeout)
		if err != nil {
			return nil, fmt.Errorf("parse scrape.timeout %q: %w", raw.Scrape.Timeout, err)
		}
	}

	watchInterval := 24 * time.Hour
	if raw.WatchInterval != "" {
		watchInterval, err = time.ParseDuration(raw.WatchInterval)
		if err != nil {
			return nil, fmt.Errorf("parse watch_interval %q: %w", raw.WatchInterval, err)
		}
	}

	mode := raw.Role.TitleGroupsMode
	if mode == "" {
		mode = GroupsModeAll
	}

	groups := make([][]string, 0, len(raw.Role.TitleGroupsAll))
	for i, g := range raw.Role.TitleGroupsAll {
		cleaned := cleanKeywords(g)
		if len(cleaned) == 0 {
			return nil, fmt.Errorf("role.title_groups_all[%d] is empty", i)
		}
		groups = append(groups, cleaned)
	}

	cfg := &Config{
		Role: RoleConfig{
			TitleGroups:            groups,
			TitleGroupsMode:        mode,
			TitleExcludeAnyOf:      cleanKeywords(raw.Role.TitleExcludeAnyOf),
			EmploymentAnyOf:        cleanKeywords(raw.Role.EmploymentAnyOf),
			EmploymentExcludeAnyOf: cleanKeywords(raw.Role.EmploymentExcludeAnyOf),
		},
		Scrape: ScrapeConfig{
			Timeout:                 timeout,
			UserAgent:               defaultString(raw.Scrape.UserAgent, "wardwatch/1.0"),
			MaxPages:                defaultInt(raw.Scrape.MaxPages, 50),
			PageSize:                defaultInt(raw.Scrape.PageSize, 50),
			SearchText:              raw.Scrape.SearchText,
			ExpandActionsMax:        defaultInt(raw.Scrape.ExpandActionsMax, 20),
			EnrichDetailTitles:      defaultBool(raw.Scrape.EnrichDetailTitles, true),
			EnrichDetailMaxRequests: defaultIntPtr(raw.Scrape.EnrichDetailMaxRequests, 25),
			RequestsPerSecond:       defaultFloat(raw.Scrape.RequestsPerSecond, 2),
			Parallelism:             defaultInt(raw.Scrape.Parallelism, 1),
			BrowserFallback:         raw.Scrape.BrowserFallback,
		},
		Output: OutputConfig{
			Dir:       defaultString(raw.Output.Dir, "output"),
			JSON:      defaultString(raw.Output.JSON, "jobs.json"),
			CSV:       defaultString(raw.Output.CSV, "jobs.csv"),
			RawJSON:   defaultString(raw.Output.RawJSON, "raw_jobs.json"),
			RunReport: defaultString(raw.Output.RunReport, "run_report.json"),
		},
		State: StateConfig{
			Backend: defaultString(raw.State.Backend, "file"),
			Path:    defaultString(raw.State.Path, "output/seen_urls.json"),
		},
		Notification:  raw.Notification,
		WatchInterval: watchInterval,
		Hospitals:     raw.Hospitals,
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

func validate(cfg *Config) error {
	if cfg.Role.TitleGroupsMode != GroupsModeAll && cfg.Role.TitleGroupsMode != GroupsModeAny {
		return fmt.Errorf("role.title_groups_mode must be \"all\" or \"any\", got %q", cfg.Role.TitleGroupsMode)
	}
	if cfg.Scrape.MaxPages <= 0 {
		return fmt.Errorf("scrape.max_pages must be positive, got %d", cfg.Scrape.MaxPages)
	}
	if cfg.Scrape.PageSize <= 0 {
		return fmt.Errorf("scrape.page_size must be positive, got %d", cfg.Scrape.PageSize)
	}
	if cfg.Scrape.Parallelism <= 0 {
		return fmt.Errorf("scrape.parallelism must be positive, got %d", cfg.Scrape.Parallelism)
	}
	if cfg.WatchInterval <= 0 {
		return fmt.Errorf("watch_interval must be positive, got %v", cfg.WatchInterval)
	}

	switch cfg.State.Backend {
	case "file", "sqlite":
	default:
		return fmt.Errorf("state.backend must be \"file\" or \"sqlite\", got %q", cfg.State.Backend)
	}

	if cfg.Notification.Type == "webhook" && cfg.Notification.WebhookURL == "" {
		return fmt.Errorf("notification.webhook_url is required when type is \"webhook\"")
	}

	if len(cfg.Hospitals) == 0 {
		return fmt.Errorf("at least one hospital must be configured")
	}
	seen := make(map[string]bool, len(cfg.Hospitals))
	enabled := 0
	for i, h := range cfg.Hospitals {
		if h.ID == "" {
			return fmt.Errorf("hospitals[%d].id is required", i)
		}
		if seen[h.ID] {
			return fmt.Errorf("duplicate hospital id %q", h.ID)
		}
		seen[h.ID] = true
		if !hospitalTypes[h.Type] {
			return fmt.Errorf("hospitals[%d].type must be one of api-paginated, html-paginated, browser-rendered; got %q", i, h.Type)
		}
		if h.URL == "" {
			return fmt.Errorf("hospitals[%d].url is required", i)
		}
		if h.IsEnabled() {
			enabled++
		}
	}
	if enabled == 0 {
		return fmt.Errorf("at least one hospital must be enabled")
	}

	return nil
}

func cleanKeywords(in []string) []string {
	var out []string
	for _, kw := range in {
		if kw != "" {
			out = append(out, kw)
		}
	}
	return out
}

func defaultString(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

func defaultInt(v, def int) int {
	if v == 0 {
		return def
	}
	return v
}

func defaultIntPtr(v *int, def int) int {
	if v == nil {
		return def
	}
	return *v
}

func defaultFloat(v, def float64) float64 {
	if v == 0 {
		return def
	}
	return v
}

func defaultBool(v *bool, def bool) bool {
	if v == nil {
		return def
	}
	return *v
}
