// Package config loads the settings shared by the tools from the
// environment.
package config

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/pkg/errors"

	"github.com/dustin/go-wikihistory/internal/logging"
)

// Prefix of every environment variable, e.g. WIKIHISTORY_WORKERS.
const Prefix = "WIKIHISTORY"

// Config holds the tool settings.
type Config struct {
	SevenZip    string `envconfig:"SEVENZIP" default:"7z"`
	Workers     int    `envconfig:"WORKERS" default:"0"`
	ReportEvery int64  `envconfig:"REPORT_EVERY" default:"10000"`
	MetricsAddr string `envconfig:"METRICS_ADDR" default:""`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info"`
	LogDev      bool   `envconfig:"LOG_DEV" default:"false"`
}

// Load reads a .env file from the working directory, if any, then
// the environment.  Variables already set win over the file.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, errors.Wrap(err, "reading .env")
	}
	var cfg Config
	if err := envconfig.Process(Prefix, &cfg); err != nil {
		return nil, errors.Wrap(err, "failed to load config")
	}
	return &cfg, nil
}

// Logging gets the logger configuration.
func (c *Config) Logging() logging.Config {
	cfg := logging.DefaultConfig()
	cfg.Level = c.LogLevel
	cfg.Development = c.LogDev
	return cfg
}
