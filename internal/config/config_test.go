package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/liamcoop/survey/internal/logger"
)

var envVars = []string{
	"SURVEY_LOG_LEVEL",
	"SURVEY_ERROR_SAMPLE_RATE",
	"SURVEY_OUTPUT_FORMAT",
	"SURVEY_PROGRAM_CACHE_SIZE",
}

// clearEnv unsets every SURVEY_* variable for the duration of the test
func clearEnv(t *testing.T) {
	t.Helper()
	for _, name := range envVars {
		t.Setenv(name, "")
		os.Unsetenv(name)
	}
}

// TestFromEnvDefaults verifies the defaults with an empty environment
func TestFromEnvDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := FromEnv()
	if err != nil {
		t.Fatalf("FromEnv() failed: %v", err)
	}
	if cfg.LogLevel != logger.LevelInfo {
		t.Errorf("LogLevel = %v, want INFO", cfg.LogLevel)
	}
	if cfg.ErrorSampleRate != 1 {
		t.Errorf("ErrorSampleRate = %d, want 1", cfg.ErrorSampleRate)
	}
	if cfg.OutputFormat != FormatJSON {
		t.Errorf("OutputFormat = %q, want json", cfg.OutputFormat)
	}
	if cfg.ProgramCacheSize != DefaultProgramCacheSize {
		t.Errorf("ProgramCacheSize = %d, want %d", cfg.ProgramCacheSize, DefaultProgramCacheSize)
	}
}

// TestFromEnvOverrides verifies each variable is honoured
func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("SURVEY_LOG_LEVEL", "debug")
	t.Setenv("SURVEY_ERROR_SAMPLE_RATE", "10")
	t.Setenv("SURVEY_OUTPUT_FORMAT", "YAML")
	t.Setenv("SURVEY_PROGRAM_CACHE_SIZE", "8")

	cfg, err := FromEnv()
	if err != nil {
		t.Fatalf("FromEnv() failed: %v", err)
	}
	if cfg.LogLevel != logger.LevelDebug {
		t.Errorf("LogLevel = %v, want DEBUG", cfg.LogLevel)
	}
	if cfg.ErrorSampleRate != 10 {
		t.Errorf("ErrorSampleRate = %d, want 10", cfg.ErrorSampleRate)
	}
	if cfg.OutputFormat != FormatYAML {
		t.Errorf("OutputFormat = %q, want yaml", cfg.OutputFormat)
	}
	if cfg.ProgramCacheSize != 8 {
		t.Errorf("ProgramCacheSize = %d, want 8", cfg.ProgramCacheSize)
	}
}

// TestFromEnvErrors verifies malformed values are rejected with the
// variable name
func TestFromEnvErrors(t *testing.T) {
	tests := []struct {
		name  string
		value string
	}{
		{"SURVEY_LOG_LEVEL", "loud"},
		{"SURVEY_ERROR_SAMPLE_RATE", "0"},
		{"SURVEY_OUTPUT_FORMAT", "xml"},
		{"SURVEY_PROGRAM_CACHE_SIZE", "many"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(tt.name, tt.value)

			_, err := FromEnv()
			if err == nil {
				t.Fatalf("FromEnv() with %s=%s should fail", tt.name, tt.value)
			}
			if !strings.Contains(err.Error(), tt.name) {
				t.Errorf("error %q should name %s", err.Error(), tt.name)
			}
		})
	}
}

// TestLoadFile verifies values come from the env file unless the
// environment already sets them
func TestLoadFile(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), ".env")
	content := "SURVEY_OUTPUT_FORMAT=yaml\nSURVEY_PROGRAM_CACHE_SIZE=16\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("SURVEY_PROGRAM_CACHE_SIZE", "32")

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile() failed: %v", err)
	}
	if cfg.OutputFormat != FormatYAML {
		t.Errorf("OutputFormat = %q, want yaml from file", cfg.OutputFormat)
	}
	if cfg.ProgramCacheSize != 32 {
		t.Errorf("ProgramCacheSize = %d, want 32 from environment", cfg.ProgramCacheSize)
	}

	if _, err := LoadFile(filepath.Join(t.TempDir(), "missing.env")); err == nil {
		t.Error("LoadFile() of a missing file should fail")
	}
}
