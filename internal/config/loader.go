package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/example/workspace-analytics/internal/logging"
)

// EnvFile is loaded, when present, before the environment is read. Variables
// already set in the process win over the file.
const EnvFile = ".env"

// Config captures environment driven configuration for the CLI and API.
type Config struct {
	SQLitePath   string
	HTTPPort     int
	OutputPath   string
	ScenarioFile string
	// Seed is meaningful only when SeedSet is true.
	Seed        uint64
	SeedSet     bool
	LogLevel    slog.Level
	LogFormat   logging.Format
	CORSOrigins []string
	CacheTTL    time.Duration
}

// Load reads .env (if any) and then the WORKSPACE_* variables.
func Load() (Config, error) {
	if err := godotenv.Load(EnvFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load %s: %w", EnvFile, err)
	}
	return FromEnvironment()
}

// FromEnvironment parses configuration from the current process environment
// only, applying defaults for unset variables. Every invalid value is
// reported in a single error.
func FromEnvironment() (Config, error) {
	cfg := Config{
		SQLitePath: "workspace_analytics.db",
		HTTPPort:   8080,
		OutputPath: "raw_workspace_data.csv",
		LogLevel:   slog.LevelInfo,
		LogFormat:  logging.FormatJSON,
		CacheTTL:   10 * time.Minute,
	}

	invalid := make([]string, 0, 4)

	if path := env("WORKSPACE_SQLITE_PATH"); path != "" {
		cfg.SQLitePath = path
	}

	if portValue := env("WORKSPACE_HTTP_PORT"); portValue != "" {
		port, err := strconv.Atoi(portValue)
		if err != nil || port <= 0 || port > 65535 {
			invalid = append(invalid, "WORKSPACE_HTTP_PORT")
		} else {
			cfg.HTTPPort = port
		}
	}

	if path := env("WORKSPACE_OUTPUT_PATH"); path != "" {
		cfg.OutputPath = path
	}

	cfg.ScenarioFile = env("WORKSPACE_SCENARIO_FILE")

	if seedValue := env("WORKSPACE_SEED"); seedValue != "" {
		seed, err := strconv.ParseUint(seedValue, 10, 64)
		if err != nil {
			invalid = append(invalid, "WORKSPACE_SEED")
		} else {
			cfg.Seed, cfg.SeedSet = seed, true
		}
	}

	if levelValue := env("WORKSPACE_LOG_LEVEL"); levelValue != "" {
		level, err := logging.ParseLevel(levelValue)
		if err != nil {
			invalid = append(invalid, "WORKSPACE_LOG_LEVEL")
		} else {
			cfg.LogLevel = level
		}
	}

	if formatValue := env("WORKSPACE_LOG_FORMAT"); formatValue != "" {
		format, err := logging.ParseFormat(formatValue)
		if err != nil {
			invalid = append(invalid, "WORKSPACE_LOG_FORMAT")
		} else {
			cfg.LogFormat = format
		}
	}

	if origins := env("WORKSPACE_CORS_ORIGINS"); origins != "" {
		cfg.CORSOrigins = splitList(origins)
	}

	if ttlValue := env("WORKSPACE_CACHE_TTL"); ttlValue != "" {
		ttl, err := time.ParseDuration(ttlValue)
		if err != nil || ttl <= 0 {
			invalid = append(invalid, "WORKSPACE_CACHE_TTL")
		} else {
			cfg.CacheTTL = ttl
		}
	}

	if len(invalid) > 0 {
		return Config{}, fmt.Errorf("invalid environment variables: %s", strings.Join(invalid, ", "))
	}

	return cfg, nil
}

func env(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}

func splitList(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
