package config

import (
	"errors"
	"io/fs"
	"os"
	"strings"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"

	"labcal/internal/store"
)

// NOTE: This file provides the configuration model and full YAML-based
// load/save behavior, including first-run config creation and 0600
// permissions. Environment variables (LABCAL_*) override file values.

var (
	defaultProfessors = []string{"Olivares", "Bernabé", "Miguel"}
	defaultSubjects   = []string{"Redes", "Conmutación", "Administración"}
)

// BasicAuthConfig holds HTTP Basic Auth credentials for the local API.
type BasicAuthConfig struct {
	Username string `yaml:"username" json:"username"`
	Password string `yaml:"password" json:"password"`
}

// SlotConfig describes the bookable window offered to clients.
type SlotConfig struct {
	// StartHour / EndHour bound the day, e.g. 7 and 21 give 07:00 … 21:00.
	StartHour int `yaml:"start_hour" json:"start_hour"`
	EndHour   int `yaml:"end_hour" json:"end_hour"`
	// StepMinutes is the granularity of selectable times.
	StepMinutes int `yaml:"step_minutes" json:"step_minutes"`
}

// BackupConfig controls the auto-backup side effect and the periodic snapshot job.
type BackupConfig struct {
	// Dir receives bitacora-laboratorio-YYYY-MM-DD.json files. Empty disables
	// file snapshots; the last_backup_date marker is still maintained.
	Dir string `yaml:"dir" json:"dir"`
	// MinBookings is the record count below which no backup is taken.
	MinBookings int `yaml:"min_bookings" json:"min_bookings"`
	// Cron is a cron-style schedule for the periodic snapshot. Empty disables it.
	Cron string `yaml:"cron" json:"cron"`
}

// Config is the top-level application configuration.
type Config struct {
	// Listen is the HTTP listen address for the local API.
	Listen string `yaml:"listen" json:"listen"`

	// DataDir holds the key-value store files.
	DataDir string `yaml:"data_dir" json:"data_dir"`

	// Timezone is the IANA zone whose calendar dates bookings live in.
	Timezone string `yaml:"timezone" json:"timezone"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level" json:"log_level"`

	Slots  SlotConfig   `yaml:"slots" json:"slots"`
	Backup BackupConfig `yaml:"backup" json:"backup"`

	// Professors / Subjects seed the registry when nothing is stored yet and
	// are what "reset to defaults" restores.
	Professors []string `yaml:"professors" json:"professors"`
	Subjects   []string `yaml:"subjects" json:"subjects"`

	// BasicAuth, if non-nil, enables HTTP Basic Authentication on all endpoints
	// except /health.
	BasicAuth *BasicAuthConfig `yaml:"basic_auth,omitempty" json:"basic_auth,omitempty"`
}

// envOverrides mirrors the subset of Config that may be set from the
// environment. Empty values leave the file value untouched.
type envOverrides struct {
	Listen       string `envconfig:"LISTEN"`
	DataDir      string `envconfig:"DATA_DIR"`
	Timezone     string `envconfig:"TIMEZONE"`
	LogLevel     string `envconfig:"LOG_LEVEL"`
	BackupDir    string `envconfig:"BACKUP_DIR"`
	BackupCron   string `envconfig:"BACKUP_CRON"`
	AuthUser     string `envconfig:"AUTH_USER"`
	AuthPassword string `envconfig:"AUTH_PASSWORD"`
}

// DefaultConfig returns an in-memory default configuration.
func DefaultConfig() *Config {
	return &Config{
		Listen:   "127.0.0.1:8080",
		DataDir:  "./var/labcal",
		Timezone: "America/Mexico_City",
		LogLevel: "info",
		Slots: SlotConfig{
			StartHour:   7,
			EndHour:     21,
			StepMinutes: 30,
		},
		Backup: BackupConfig{
			Dir:         "./var/labcal/backups",
			MinBookings: 3,
			Cron:        "0 3 * * *",
		},
		Professors: append([]string(nil), defaultProfessors...),
		Subjects:   append([]string(nil), defaultSubjects...),
		BasicAuth:  nil,
	}
}

// Normalize fills in missing/zero values with sensible defaults so that
// partially-filled configs still behave correctly.
func (c *Config) Normalize() {
	if c.Listen == "" {
		c.Listen = "127.0.0.1:8080"
	}
	if c.DataDir == "" {
		c.DataDir = "./var/labcal"
	}
	if c.Timezone == "" {
		c.Timezone = "America/Mexico_City"
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}

	s := &c.Slots
	if s.StartHour == 0 && s.EndHour == 0 {
		// Section missing entirely.
		s.StartHour, s.EndHour = 7, 21
	}
	if s.StartHour < 0 || s.StartHour > 22 {
		s.StartHour = 7
	}
	if s.EndHour <= s.StartHour || s.EndHour > 23 {
		s.EndHour = 21
		if s.EndHour <= s.StartHour {
			s.StartHour = 7
		}
	}
	if s.StepMinutes <= 0 || s.StepMinutes > 60 || 60%s.StepMinutes != 0 {
		s.StepMinutes = 30
	}

	if c.Backup.MinBookings <= 0 {
		c.Backup.MinBookings = 3
	}

	c.Professors = cleanList(c.Professors, defaultProfessors)
	c.Subjects = cleanList(c.Subjects, defaultSubjects)
}

// cleanList trims entries, drops blanks and duplicates, and falls back to
// def when nothing usable is left.
func cleanList(in, def []string) []string {
	out := make([]string, 0, len(in))
	seen := make(map[string]bool, len(in))
	for _, v := range in {
		v = strings.TrimSpace(v)
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	if len(out) == 0 {
		return append([]string(nil), def...)
	}
	return out
}

// ApplyEnv overlays LABCAL_* environment variables onto c.
func (c *Config) ApplyEnv() error {
	var env envOverrides
	if err := envconfig.Process("labcal", &env); err != nil {
		return err
	}
	if env.Listen != "" {
		c.Listen = env.Listen
	}
	if env.DataDir != "" {
		c.DataDir = env.DataDir
	}
	if env.Timezone != "" {
		c.Timezone = env.Timezone
	}
	if env.LogLevel != "" {
		c.LogLevel = env.LogLevel
	}
	if env.BackupDir != "" {
		c.Backup.Dir = env.BackupDir
	}
	if env.BackupCron != "" {
		c.Backup.Cron = env.BackupCron
	}
	if env.AuthUser != "" && env.AuthPassword != "" {
		c.BasicAuth = &BasicAuthConfig{Username: env.AuthUser, Password: env.AuthPassword}
	}
	return nil
}

// Load loads configuration from the given YAML path.
//
// Behavior:
//   - If the file does not exist:
//   - create parent directory if needed
//   - write a default config with 0600 perms
//   - return the default config
//   - If the file exists:
//   - read YAML and unmarshal into Config
//   - normalize defaults
//   - In both cases LABCAL_* environment overrides are applied last.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			// First run: create default config file.
			cfg := DefaultConfig()
			if err := Save(path, cfg); err != nil {
				// Even if save fails, return cfg with error so caller can decide.
				return cfg, err
			}
			return cfg, cfg.ApplyEnv()
		}
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	cfg.Normalize()
	if err := cfg.ApplyEnv(); err != nil {
		return &cfg, err
	}

	return &cfg, nil
}

// Save writes the given configuration to the specified path.
//
// Implementation details:
//   - Ensures parent directory exists (0700).
//   - Marshals cfg to YAML.
//   - Writes atomically via a temp file + rename.
//   - Ensures final file permissions are 0600.
func Save(path string, cfg *Config) error {
	if path == "" {
		return errors.New("config path is empty")
	}
	if cfg == nil {
		return errors.New("config is nil")
	}

	cfg.Normalize()

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return store.WriteFileAtomic(path, data, ".labcal-config-*.tmp")
}

// Save is a convenience method on Config that delegates to the package-level
// Save function.
func (c *Config) Save(path string) error {
	return Save(path, c)
}
