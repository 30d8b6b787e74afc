package settings

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// TestDefaultSettings verifies default settings values
func TestDefaultSettings(t *testing.T) {
	s := DefaultSettings()

	if s.LogLevel != "info" {
		t.Errorf("LogLevel = %q, want %q", s.LogLevel, "info")
	}
	if s.FFProbe != "ffprobe" {
		t.Errorf("FFProbe = %q, want ffprobe", s.FFProbe)
	}
	if !s.History.Enabled {
		t.Error("History.Enabled = false, want true")
	}
	if s.History.DBPath != filepath.Join("history", "runs.db") {
		t.Errorf("History.DBPath = %q", s.History.DBPath)
	}
	if err := s.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

// TestLoadSettingsMissingFile returns defaults without error
func TestLoadSettingsMissingFile(t *testing.T) {
	s, err := LoadSettings(filepath.Join(t.TempDir(), "settings.yaml"))
	if err != nil {
		t.Fatalf("LoadSettings() error = %v", err)
	}
	if s.LogLevel != "info" {
		t.Errorf("LogLevel = %q, want info", s.LogLevel)
	}
}

// TestLoadSettingsPartial merges a partial file over defaults
func TestLoadSettingsPartial(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.yaml")
	content := `log_level: debug
max_workers: 4
entrypoint_timeout: 90m
history:
  enabled: false
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write settings: %v", err)
	}

	s, err := LoadSettings(path)
	if err != nil {
		t.Fatalf("LoadSettings() error = %v", err)
	}
	if s.LogLevel != "debug" {
		t.Errorf("LogLevel = %q, want debug", s.LogLevel)
	}
	if s.MaxWorkers != 4 {
		t.Errorf("MaxWorkers = %d, want 4", s.MaxWorkers)
	}
	if s.EntrypointTimeout != 90*time.Minute {
		t.Errorf("EntrypointTimeout = %v, want 90m", s.EntrypointTimeout)
	}
	if s.History.Enabled {
		t.Error("History.Enabled = true, want false")
	}
	if s.History.DBPath != filepath.Join("history", "runs.db") {
		t.Errorf("History.DBPath = %q, want default", s.History.DBPath)
	}
	if s.ModelsDir != "models" {
		t.Errorf("ModelsDir = %q, want default", s.ModelsDir)
	}
}

func TestLoadSettingsErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{"malformed yaml", "log_level: [", "failed to parse settings file"},
		{"bad timeout", "entrypoint_timeout: soon", "invalid entrypoint_timeout"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "settings.yaml")
			if err := os.WriteFile(path, []byte(tt.content), 0644); err != nil {
				t.Fatal(err)
			}
			_, err := LoadSettings(path)
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("LoadSettings() error = %v, want %q", err, tt.wantErr)
			}
		})
	}
}

func TestMergeWithFlags(t *testing.T) {
	s := DefaultSettings()
	level := "trace"
	workers := 2
	noHistory := true
	s.MergeWithFlags(&level, &workers, &noHistory)

	if s.LogLevel != "trace" || s.MaxWorkers != 2 || s.History.Enabled {
		t.Errorf("flags not applied: %+v", s)
	}

	empty := ""
	s.MergeWithFlags(&empty, nil, nil)
	if s.LogLevel != "trace" {
		t.Errorf("empty flag overrode LogLevel: %q", s.LogLevel)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Settings)
	}{
		{"bad level", func(s *Settings) { s.LogLevel = "loud" }},
		{"negative workers", func(s *Settings) { s.MaxWorkers = -1 }},
		{"negative timeout", func(s *Settings) { s.EntrypointTimeout = -time.Second }},
		{"no ffprobe", func(s *Settings) { s.FFProbe = "" }},
		{"no db path", func(s *Settings) { s.History.DBPath = "" }},
		{"negative keep", func(s *Settings) { s.History.KeepDays = -3 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := DefaultSettings()
			tt.modify(s)
			if err := s.Validate(); err == nil {
				t.Error("Validate() = nil, want error")
			}
		})
	}
}

func TestResolve(t *testing.T) {
	s := DefaultSettings()
	s.ModelsDir = "/opt/cards"
	s.Resolve("/home/u/.songdeck")

	if s.LogDir != "/home/u/.songdeck/logs" {
		t.Errorf("LogDir = %q", s.LogDir)
	}
	if s.ModelsDir != "/opt/cards" {
		t.Errorf("absolute ModelsDir changed: %q", s.ModelsDir)
	}
	if s.History.DBPath != "/home/u/.songdeck/history/runs.db" {
		t.Errorf("History.DBPath = %q", s.History.DBPath)
	}
}

func TestHome(t *testing.T) {
	override := filepath.Join(t.TempDir(), "flag-home")
	got, err := Home(override)
	if err != nil {
		t.Fatalf("Home() error = %v", err)
	}
	if got != override {
		t.Errorf("Home() = %q, want %q", got, override)
	}
	if info, err := os.Stat(got); err != nil || !info.IsDir() {
		t.Errorf("home directory not created: %v", err)
	}

	env := filepath.Join(t.TempDir(), "env-home")
	t.Setenv(HomeEnv, env)
	got, err = Home("")
	if err != nil {
		t.Fatalf("Home() error = %v", err)
	}
	if got != env {
		t.Errorf("Home() = %q, want %q", got, env)
	}
	if Path(got) != filepath.Join(env, "settings.yaml") {
		t.Errorf("Path() = %q", Path(got))
	}
}
