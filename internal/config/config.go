package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"caldesign/internal/model"
)

// ICSConfig describes a single ICS subscription whose events are imported
// into the session.
type ICSConfig struct {
	// URL is the ICS subscription endpoint.
	URL string `yaml:"url" json:"url"`
	// ID is an internal identifier; imported events carry it as their source.
	ID string `yaml:"id" json:"id"`
	// Name is a human-friendly label.
	Name string `yaml:"name" json:"name"`
	// Category is used for events no keyword or CATEGORIES property matches.
	Category model.Category `yaml:"category" json:"category"`
}

// SourceID returns ID, falling back to Name and then URL.
func (c ICSConfig) SourceID() string {
	switch {
	case c.ID != "":
		return c.ID
	case c.Name != "":
		return c.Name
	default:
		return c.URL
	}
}

// BasicAuthConfig holds HTTP Basic Auth credentials for the API. Password
// may be plain text or a bcrypt hash ("$2a$...").
type BasicAuthConfig struct {
	Username string `yaml:"username" json:"username"`
	Password string `yaml:"password" json:"password"`
}

// CoverConfig points at an optional cover image loaded at startup.
type CoverConfig struct {
	Path     string  `yaml:"path" json:"path"`
	Scale    float64 `yaml:"scale" json:"scale"`
	OffsetX  float64 `yaml:"offset_x" json:"offset_x"`
	OffsetY  float64 `yaml:"offset_y" json:"offset_y"`
	Rotation float64 `yaml:"rotation" json:"rotation"`
}

// ExportConfig holds defaults for the export collaborator.
type ExportConfig struct {
	// Format is one of "pdf", "png", "jpg".
	Format string `yaml:"format" json:"format"`
	// Quality is one of "high", "medium", "low".
	Quality string `yaml:"quality" json:"quality"`
	// PageSize is "a3" or "a4".
	PageSize string `yaml:"page_size" json:"page_size"`
	// Orientation is "portrait" or "landscape".
	Orientation string `yaml:"orientation" json:"orientation"`
	// OutputDir receives one-shot and scheduled exports.
	OutputDir string `yaml:"output_dir" json:"output_dir"`
	// Cron, if set, schedules an export of the current month.
	Cron string `yaml:"cron" json:"cron"`
	// TimeoutSec bounds a single export.
	TimeoutSec int `yaml:"timeout_sec" json:"timeout_sec"`
	// ChromePath overrides the headless browser binary.
	ChromePath string `yaml:"chrome_path,omitempty" json:"chrome_path,omitempty"`
}

// Config is the top-level application configuration.
type Config struct {
	// Listen is the HTTP listen address for the API.
	Listen string `yaml:"listen" json:"listen"`

	// Timezone is the IANA zone that decides what "today" is.
	Timezone string `yaml:"timezone" json:"timezone"`

	// WeekStart is "sunday" (default) or "monday".
	WeekStart string `yaml:"week_start" json:"week_start"`

	// WeekendsColored tints in-month Saturdays and Sundays.
	WeekendsColored bool `yaml:"weekends_colored" json:"weekends_colored"`

	// Template is the ID of the initial template preset.
	Template string `yaml:"template" json:"template"`

	// LogLevel is "debug", "info", "warn" or "error".
	LogLevel string `yaml:"log_level" json:"log_level"`

	// RefreshCron is a cron schedule for re-importing ICS sources.
	RefreshCron string `yaml:"refresh" json:"refresh"`

	// Events seed the session's event store.
	Events []model.Event `yaml:"events" json:"events"`

	Cover  CoverConfig  `yaml:"cover" json:"cover"`
	Export ExportConfig `yaml:"export" json:"export"`

	// ICS is the list of subscribed ICS sources.
	ICS []ICSConfig `yaml:"ics" json:"ics"`

	// CategoryKeywords maps a category to summary keywords that select it
	// for imported events.
	CategoryKeywords map[model.Category][]string `yaml:"category_keywords" json:"category_keywords"`

	// BasicAuth, if non-nil, enables HTTP Basic Authentication on all
	// endpoints except /health.
	BasicAuth *BasicAuthConfig `yaml:"basic_auth,omitempty" json:"basic_auth,omitempty"`
}

// DefaultConfig returns an in-memory default configuration.
func DefaultConfig() *Config {
	return &Config{
		Listen:          "127.0.0.1:8080",
		Timezone:        "UTC",
		WeekStart:       "sunday",
		WeekendsColored: true,
		Template:        "modern",
		LogLevel:        "info",
		RefreshCron:     "*/30 * * * *",
		Events:          []model.Event{},
		Cover:           CoverConfig{Scale: 1},
		Export: ExportConfig{
			Format:      "pdf",
			Quality:     "high",
			PageSize:    "a3",
			Orientation: "portrait",
			OutputDir:   "./exports",
			TimeoutSec:  60,
		},
		ICS: []ICSConfig{},
		CategoryKeywords: map[model.Category][]string{
			model.CategoryHoliday:  {"holiday", "vacation"},
			model.CategoryBirthday: {"birthday", "bday"},
			model.CategoryTechTalk: {"talk", "meetup", "conference"},
		},
		BasicAuth: nil,
	}
}

// Normalize fills in missing/zero values with defaults so partially-filled
// configs still behave correctly.
func (c *Config) Normalize() {
	def := DefaultConfig()

	if c.Listen == "" {
		c.Listen = def.Listen
	}
	if c.Timezone == "" {
		c.Timezone = def.Timezone
	}
	c.WeekStart = strings.ToLower(c.WeekStart)
	switch c.WeekStart {
	case "monday", "sunday":
	default:
		c.WeekStart = def.WeekStart
	}
	if c.Template == "" {
		c.Template = def.Template
	}
	if c.LogLevel == "" {
		c.LogLevel = def.LogLevel
	}
	if c.RefreshCron == "" {
		c.RefreshCron = def.RefreshCron
	}
	if c.Events == nil {
		c.Events = []model.Event{}
	}
	if c.Cover.Scale == 0 {
		c.Cover.Scale = 1
	}

	e := &c.Export
	switch strings.ToLower(e.Format) {
	case "pdf", "png", "jpg":
		e.Format = strings.ToLower(e.Format)
	case "jpeg":
		e.Format = "jpg"
	default:
		e.Format = def.Export.Format
	}
	switch e.Quality {
	case "high", "medium", "low":
	default:
		e.Quality = def.Export.Quality
	}
	switch e.PageSize {
	case "a3", "a4":
	default:
		e.PageSize = def.Export.PageSize
	}
	switch e.Orientation {
	case "portrait", "landscape":
	default:
		e.Orientation = def.Export.Orientation
	}
	if e.OutputDir == "" {
		e.OutputDir = def.Export.OutputDir
	}
	if e.TimeoutSec <= 0 {
		e.TimeoutSec = def.Export.TimeoutSec
	}

	if c.ICS == nil {
		c.ICS = []ICSConfig{}
	}
	for i := range c.ICS {
		if !c.ICS[i].Category.Valid() {
			c.ICS[i].Category = model.CategoryEvent
		}
	}
	if c.CategoryKeywords == nil {
		c.CategoryKeywords = def.CategoryKeywords
	}
}

// Load loads configuration from the given YAML path.
//
// Behavior:
//   - If the file does not exist, a default config is written with 0600
//     perms and returned.
//   - Otherwise the YAML is unmarshalled and normalized.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			cfg := DefaultConfig()
			if err := Save(path, cfg); err != nil {
				// Even if save fails, return cfg with error so caller can decide.
				return cfg, err
			}
			return cfg, nil
		}
		return nil, err
	}

	cfg := DefaultConfig()
	// Keys present in the file replace the defaults wholesale.
	cfg.CategoryKeywords = nil
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	cfg.Normalize()

	return cfg, nil
}

// Save writes cfg to path atomically (temp file + rename) with 0600 perms,
// creating the parent directory (0700) if needed.
func Save(path string, cfg *Config) error {
	if path == "" {
		return errors.New("config path is empty")
	}
	if cfg == nil {
		return errors.New("config is nil")
	}

	cfg.Normalize()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".caldesign-config-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, 0o600); err != nil {
		return err
	}

	return os.Rename(tmpName, path)
}

// Save is a convenience method that delegates to the package-level Save.
func (c *Config) Save(path string) error {
	return Save(path, c)
}
