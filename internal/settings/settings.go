// Package settings holds songdeck's own application settings, as opposed to
// the per-experiment configuration documents. Settings live in
// $SONGDECK_HOME/settings.yaml and can be overridden by CLI flags.
package settings

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/harrison/songdeck/internal/logger"
)

// HistorySettings controls the run history database.
type HistorySettings struct {
	// Enabled records every prep/train/learncurve/eval/predict run
	Enabled bool `yaml:"enabled"`

	// DBPath is the SQLite database path, relative to the home directory
	DBPath string `yaml:"db_path"`

	// KeepDays prunes runs older than this many days (0 = keep forever)
	KeepDays int `yaml:"keep_days"`
}

// Settings represents songdeck application settings
type Settings struct {
	// LogLevel sets the logging verbosity (trace, debug, info, warn, error)
	LogLevel string `yaml:"log_level"`

	// LogDir receives per-run log files for commands without an output
	// directory of their own, relative to the home directory
	LogDir string `yaml:"log_dir"`

	// ModelsDir holds user model cards, relative to the home directory
	ModelsDir string `yaml:"models_dir"`

	// FFProbe is the ffprobe binary used to measure audio durations
	FFProbe string `yaml:"ffprobe"`

	// MaxWorkers caps PREP.num_workers (0 = no cap)
	MaxWorkers int `yaml:"max_workers"`

	// EntrypointTimeout bounds one model entrypoint invocation (0 = none)
	EntrypointTimeout time.Duration `yaml:"entrypoint_timeout"`

	// History contains run history settings
	History HistorySettings `yaml:"history"`
}

// DefaultSettings returns Settings with default values
func DefaultSettings() *Settings {
	return &Settings{
		LogLevel:          "info",
		LogDir:            "logs",
		ModelsDir:         "models",
		FFProbe:           "ffprobe",
		MaxWorkers:        0,
		EntrypointTimeout: 0,
		History: HistorySettings{
			Enabled:  true,
			DBPath:   filepath.Join("history", "runs.db"),
			KeepDays: 0,
		},
	}
}

// LoadSettings loads settings from path, layered over the defaults.
// A missing file yields the defaults; a malformed file is an error.
func LoadSettings(path string) (*Settings, error) {
	s := DefaultSettings()

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read settings file: %w", err)
	}

	// Durations are written as strings ("2h"), and pointers tell an
	// explicit false apart from an absent key.
	type yamlHistory struct {
		Enabled  *bool  `yaml:"enabled"`
		DBPath   string `yaml:"db_path"`
		KeepDays *int   `yaml:"keep_days"`
	}
	type yamlSettings struct {
		LogLevel          string      `yaml:"log_level"`
		LogDir            string      `yaml:"log_dir"`
		ModelsDir         string      `yaml:"models_dir"`
		FFProbe           string      `yaml:"ffprobe"`
		MaxWorkers        *int        `yaml:"max_workers"`
		EntrypointTimeout string      `yaml:"entrypoint_timeout"`
		History           yamlHistory `yaml:"history"`
	}

	var y yamlSettings
	if err := yaml.Unmarshal(data, &y); err != nil {
		return nil, fmt.Errorf("failed to parse settings file: %w", err)
	}

	if y.LogLevel != "" {
		s.LogLevel = y.LogLevel
	}
	if y.LogDir != "" {
		s.LogDir = y.LogDir
	}
	if y.ModelsDir != "" {
		s.ModelsDir = y.ModelsDir
	}
	if y.FFProbe != "" {
		s.FFProbe = y.FFProbe
	}
	if y.MaxWorkers != nil {
		s.MaxWorkers = *y.MaxWorkers
	}
	if y.EntrypointTimeout != "" {
		d, err := time.ParseDuration(y.EntrypointTimeout)
		if err != nil {
			return nil, fmt.Errorf("invalid entrypoint_timeout %q: %w", y.EntrypointTimeout, err)
		}
		s.EntrypointTimeout = d
	}
	if y.History.Enabled != nil {
		s.History.Enabled = *y.History.Enabled
	}
	if y.History.DBPath != "" {
		s.History.DBPath = y.History.DBPath
	}
	if y.History.KeepDays != nil {
		s.History.KeepDays = *y.History.KeepDays
	}

	return s, nil
}

// MergeWithFlags lets CLI flags take precedence over the settings file.
// Nil or empty flag values leave the setting unchanged.
func (s *Settings) MergeWithFlags(logLevel *string, maxWorkers *int, noHistory *bool) {
	if logLevel != nil && *logLevel != "" {
		s.LogLevel = *logLevel
	}
	if maxWorkers != nil {
		s.MaxWorkers = *maxWorkers
	}
	if noHistory != nil && *noHistory {
		s.History.Enabled = false
	}
}

// Resolve makes relative directories absolute against home.
func (s *Settings) Resolve(home string) {
	abs := func(p string) string {
		if p == "" || filepath.IsAbs(p) {
			return p
		}
		return filepath.Join(home, p)
	}
	s.LogDir = abs(s.LogDir)
	s.ModelsDir = abs(s.ModelsDir)
	s.History.DBPath = abs(s.History.DBPath)
}

// Validate validates the settings values
func (s *Settings) Validate() error {
	if !logger.ValidLevel(s.LogLevel) {
		return fmt.Errorf("invalid log_level %q, must be one of: trace, debug, info, warn, error", s.LogLevel)
	}
	if s.MaxWorkers < 0 {
		return fmt.Errorf("max_workers must be >= 0, got %d", s.MaxWorkers)
	}
	if s.EntrypointTimeout < 0 {
		return fmt.Errorf("entrypoint_timeout must be >= 0, got %v", s.EntrypointTimeout)
	}
	if s.FFProbe == "" {
		return fmt.Errorf("ffprobe cannot be empty")
	}
	if s.History.Enabled && s.History.DBPath == "" {
		return fmt.Errorf("history.db_path cannot be empty when history is enabled")
	}
	if s.History.KeepDays < 0 {
		return fmt.Errorf("history.keep_days must be >= 0, got %d", s.History.KeepDays)
	}
	return nil
}
