// Package config loads symlib settings from the environment and an optional
// .env file. Command-line flags override these values.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	LogMode      string // "dev" or "prod"
	Verbosity    string // rule diagnostics: "normal" or "high"
	FootprintDir string // directory holding *.pretty libraries
	Format       FormatConfig
}

// FormatConfig controls S-expression pretty printing.
type FormatConfig struct {
	Indent     int
	MaxNesting int
}

// Load reads .env (when present) and the SYMLIB_* environment variables.
func Load() (*Config, error) {
	_ = godotenv.Load()
	return FromEnv()
}

// FromEnv reads the SYMLIB_* environment variables without touching .env.
func FromEnv() (*Config, error) {
	indent, err := intEnv("SYMLIB_INDENT", 2)
	if err != nil {
		return nil, err
	}
	nesting, err := intEnv("SYMLIB_MAX_NESTING", 2)
	if err != nil {
		return nil, err
	}

	return &Config{
		LogMode:      firstNonEmpty(strings.TrimSpace(os.Getenv("SYMLIB_LOG_MODE")), "dev"),
		Verbosity:    firstNonEmpty(strings.TrimSpace(os.Getenv("SYMLIB_VERBOSITY")), "normal"),
		FootprintDir: strings.TrimSpace(os.Getenv("SYMLIB_FOOTPRINT_DIR")),
		Format: FormatConfig{
			Indent:     indent,
			MaxNesting: nesting,
		},
	}, nil
}

func intEnv(key string, def int) (int, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return 0, fmt.Errorf("%s: expected a non-negative integer, got %q", key, raw)
	}
	return v, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
