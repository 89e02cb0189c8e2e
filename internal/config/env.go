package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// Runtime holds process settings read from the environment. Command
// flags override these values.
type Runtime struct {
	PostgresDSN   string `env:"TRD_POSTGRES_DSN"`
	ClickHouseDSN string `env:"TRD_CLICKHOUSE_DSN"`
	SQLitePath    string `env:"TRD_SQLITE_PATH"`
	OutputDir     string `env:"TRD_OUTPUT_DIR" envDefault:"results"`
	Workers       int    `env:"TRD_WORKERS" envDefault:"0"`
	LogLevel      string `env:"LOG_LEVEL" envDefault:"info"`
	MetricsFile   string `env:"TRD_METRICS_FILE"`
}

// ParseEnv loads configuration from environment variables.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// LoadRuntime parses Runtime from the environment.
func LoadRuntime() (Runtime, error) {
	var rt Runtime
	if err := ParseEnv(&rt); err != nil {
		return Runtime{}, err
	}
	return rt, nil
}
