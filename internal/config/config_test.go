package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/pfrederiksen/hltv-stats/internal/logger"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "hltv-stats.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	return path
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv(EnvConfig, "")
	t.Setenv(EnvLogLevel, "")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if *cfg != *Default() {
		t.Errorf("Load() = %+v, want defaults", cfg)
	}
	if cfg.DelayMin != 350*time.Millisecond || cfg.DelayMax != 500*time.Millisecond {
		t.Errorf("delay = [%s, %s], want [350ms, 500ms]", cfg.DelayMin, cfg.DelayMax)
	}
	if cfg.MaxRetries != 0 {
		t.Errorf("MaxRetries = %d, want 0", cfg.MaxRetries)
	}
}

func TestLoad_File(t *testing.T) {
	t.Setenv(EnvLogLevel, "")
	t.Setenv("HLTV_TEST_OUT", "/tmp/hltv-out")
	path := writeConfig(t, `
base_url: https://mirror.example.com
output_dir: ${HLTV_TEST_OUT}
timeout: 10s
delay_min: 1s
delay_max: 2s
max_retries: 3
include_live: false
log_level: debug
location: UTC
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.BaseURL != "https://mirror.example.com" {
		t.Errorf("BaseURL = %q", cfg.BaseURL)
	}
	if cfg.OutputDir != "/tmp/hltv-out" {
		t.Errorf("OutputDir = %q, want expanded env var", cfg.OutputDir)
	}
	if cfg.ConfigDir != "configs" {
		t.Errorf("ConfigDir = %q, want default", cfg.ConfigDir)
	}
	if cfg.Timeout != 10*time.Second {
		t.Errorf("Timeout = %s", cfg.Timeout)
	}
	if cfg.IncludeLive {
		t.Error("IncludeLive = true, want false")
	}
	if cfg.Level() != logger.LevelDebug {
		t.Errorf("Level() = %s", cfg.Level())
	}

	opts := cfg.FetcherOptions(nil, nil)
	if opts.Delay.Min != time.Second || opts.Delay.Max != 2*time.Second || opts.MaxRetries != 3 {
		t.Errorf("FetcherOptions() = %+v", opts)
	}
}

func TestLoad_EnvPath(t *testing.T) {
	t.Setenv(EnvLogLevel, "")
	t.Setenv(EnvConfig, writeConfig(t, "output_dir: from-env\n"))

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.OutputDir != "from-env" {
		t.Errorf("OutputDir = %q, want from-env", cfg.OutputDir)
	}
}

func TestLoad_LogLevelOverride(t *testing.T) {
	t.Setenv(EnvLogLevel, "warn")

	cfg, err := Load(writeConfig(t, "log_level: debug\n"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Level() != logger.LevelWarn {
		t.Errorf("Level() = %s, want WARN", cfg.Level())
	}
}

func TestLoad_Errors(t *testing.T) {
	t.Setenv(EnvLogLevel, "")

	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{"relative base url", "base_url: /matches\n", "base_url"},
		{"inverted delay", "delay_min: 2s\ndelay_max: 1s\n", "delay range"},
		{"negative retries", "max_retries: -1\n", "max_retries"},
		{"unknown level", "log_level: loud\n", "log level"},
		{"unknown location", "location: Mars/Olympus\n", "location"},
		{"bad duration", "timeout: soon\n", "parsing config"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.content))
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(strings.ToLower(err.Error()), tt.wantErr) {
				t.Errorf("error = %v, want it to mention %q", err, tt.wantErr)
			}
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("expected error for missing config file")
	}
}

func TestTimeLocation(t *testing.T) {
	cfg := Default()
	if loc, _ := cfg.TimeLocation(); loc != time.Local {
		t.Errorf("default location = %v, want Local", loc)
	}
	cfg.Location = "UTC"
	if loc, err := cfg.TimeLocation(); err != nil || loc.String() != "UTC" {
		t.Errorf("TimeLocation() = %v, %v", loc, err)
	}
}
