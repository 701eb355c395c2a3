package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/liamcoop/survey/internal/logger"
)

const (
	FormatJSON = "json"
	FormatYAML = "yaml"

	DefaultProgramCacheSize = 64
)

type Config struct {
	LogLevel         logger.Level
	ErrorSampleRate  int
	OutputFormat     string
	ProgramCacheSize int
}

// Load reads an optional .env file from the working directory and then the
// SURVEY_* environment variables. Variables already set in the environment
// win over the file.
func Load() (*Config, error) {
	_ = godotenv.Load()
	return FromEnv()
}

// LoadFile is Load with an explicit .env path, which must exist.
func LoadFile(path string) (*Config, error) {
	if err := godotenv.Load(path); err != nil {
		return nil, fmt.Errorf("failed to load env file %s: %w", path, err)
	}
	return FromEnv()
}

// FromEnv builds a Config from the environment alone.
func FromEnv() (*Config, error) {
	level, err := logger.ParseLevel(strings.TrimSpace(os.Getenv("SURVEY_LOG_LEVEL")))
	if err != nil {
		return nil, fmt.Errorf("SURVEY_LOG_LEVEL: %w", err)
	}

	sampleRate, err := positiveInt("SURVEY_ERROR_SAMPLE_RATE", 1)
	if err != nil {
		return nil, err
	}
	cacheSize, err := positiveInt("SURVEY_PROGRAM_CACHE_SIZE", DefaultProgramCacheSize)
	if err != nil {
		return nil, err
	}

	format := strings.ToLower(firstNonEmpty(strings.TrimSpace(os.Getenv("SURVEY_OUTPUT_FORMAT")), FormatJSON))
	if err := ValidateFormat(format); err != nil {
		return nil, fmt.Errorf("SURVEY_OUTPUT_FORMAT: %w", err)
	}

	return &Config{
		LogLevel:         level,
		ErrorSampleRate:  sampleRate,
		OutputFormat:     format,
		ProgramCacheSize: cacheSize,
	}, nil
}

// Apply pushes the logging settings into the logger package.
func (c *Config) Apply() {
	logger.SetLevel(c.LogLevel)
	logger.SetSampleRate(c.ErrorSampleRate)
}

// ValidateFormat accepts json or yaml.
func ValidateFormat(format string) error {
	switch format {
	case FormatJSON, FormatYAML:
		return nil
	}
	return fmt.Errorf("unknown output format %q (want json or yaml)", format)
}

func positiveInt(name string, fallback int) (int, error) {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v <= 0 {
		return 0, fmt.Errorf("%s must be a positive integer, got %q", name, raw)
	}
	return v, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
