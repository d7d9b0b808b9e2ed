// Package config loads process settings from the environment.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/ironsheep/mrz-visa-mcp/internal/mrz"
	"github.com/ironsheep/mrz-visa-mcp/internal/pipeline"
)

// Default rule file locations, relative to the working directory.
const (
	DefaultRulesPath        = "visa_rules.json"
	DefaultRulesVersionPath = "visa_rules_version.json"
)

// Config holds all process configuration.
type Config struct {
	Rules    RulesConfig
	OCR      OCRConfig
	Pipeline pipeline.Config

	// MetricsAddr is the listen address for /metrics. Empty disables the
	// listener.
	MetricsAddr string

	LogLevel slog.Level
}

// RulesConfig holds the visa rule file locations.
type RulesConfig struct {
	Path        string
	VersionPath string
}

// OCRConfig holds OCR engine settings.
type OCRConfig struct {
	Language       string
	TessdataPrefix string
}

// FromEnv builds a Config from environment variables so main stays lean.
//
// Unparseable numbers fall back to their defaults. The result is validated;
// the returned error wraps pipeline.ErrInvalidConfig when a pipeline knob
// is out of range.
func FromEnv() (Config, error) {
	cfg := Config{
		Rules: RulesConfig{
			Path:        getEnv("MRZ_RULES_PATH", DefaultRulesPath),
			VersionPath: getEnv("MRZ_RULES_VERSION_PATH", DefaultRulesVersionPath),
		},
		OCR: OCRConfig{
			Language:       getEnv("MRZ_OCR_LANGUAGE", "eng"),
			TessdataPrefix: getEnv("MRZ_TESSDATA_PREFIX", os.Getenv("TESSDATA_PREFIX")),
		},
		MetricsAddr: os.Getenv("MRZ_METRICS_ADDR"),
		LogLevel:    ParseLogLevel(os.Getenv("MRZ_MCP_LOG_LEVEL")),
	}

	p := pipeline.DefaultConfig()
	p.CropFraction = getEnvAsFloat("MRZ_CROP_FRACTION", p.CropFraction)
	p.MaxWidth = getEnvAsInt("MRZ_MAX_WIDTH", p.MaxWidth)
	p.MinCandidateLength = getEnvAsInt("MRZ_MIN_CANDIDATE_LENGTH", p.MinCandidateLength)
	p.FullFrameFallback = getEnvAsBool("MRZ_FULL_FRAME_FALLBACK", p.FullFrameFallback)
	p.Enhance.MedianRadius = getEnvAsFloat("MRZ_MEDIAN_RADIUS", p.Enhance.MedianRadius)
	p.Enhance.Contrast = getEnvAsFloat("MRZ_CONTRAST", p.Enhance.Contrast)
	if v := os.Getenv("MRZ_SUBSTITUTION_SCOPE"); v != "" {
		scope, err := mrz.ParseScope(v)
		if err != nil {
			return cfg, fmt.Errorf("MRZ_SUBSTITUTION_SCOPE: %w", err)
		}
		p.SubstitutionScope = scope
	}
	cfg.Pipeline = p

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate checks the loaded configuration.
func (c Config) Validate() error {
	if c.Rules.Path == "" {
		return fmt.Errorf("MRZ_RULES_PATH is required")
	}
	if c.OCR.Language == "" {
		return fmt.Errorf("MRZ_OCR_LANGUAGE is required")
	}
	return c.Pipeline.Validate()
}

// ParseLogLevel maps "debug", "info", "warn" and "error" to slog levels.
// Anything else is info.
func ParseLogLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}
