package internal

import (
	"errors"
	"fmt"
	"os"

	"github.com/hbomb79/Reel/internal/api"
	"github.com/hbomb79/Reel/internal/fetch"
	"github.com/hbomb79/Reel/internal/process"
	"github.com/hbomb79/Reel/internal/search"
	"github.com/hbomb79/Reel/pkg/logger"
	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

// ReelConfig is the struct used to contain the
// various user config supplied by file, or
// by the environment.
type ReelConfig struct {
	Tool       process.Config `toml:"tool"`
	Search     search.Config  `toml:"search"`
	Fetch      fetch.Config   `toml:"fetch"`
	RestConfig api.RestConfig `toml:"api"`
	LogLevel   string         `toml:"log_level" env:"LOG_LEVEL" env-default:"info"`

	// Namespace prefixed to every exported Prometheus metric
	MetricsNamespace string `toml:"metrics_namespace" env:"REEL_METRICS_NAMESPACE" env-default:"reel"`
}

// LoadConfig populates a ReelConfig. If an env file path is provided, the
// variables within are loaded in to the environment first (a missing file is
// not an error). If a config path is provided, the file is read (TOML, YAML or
// JSON by extension) and then overridden by the environment, otherwise the
// config is built from the environment and defaults alone.
func LoadConfig(configPath string, envPath string) (*ReelConfig, error) {
	if envPath != "" {
		if err := godotenv.Load(envPath); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to load env file %s: %w", envPath, err)
		}
	}

	config := &ReelConfig{}
	if configPath != "" {
		if err := config.LoadFromFile(configPath); err != nil {
			return nil, err
		}
	} else if err := cleanenv.ReadEnv(config); err != nil {
		return nil, fmt.Errorf("failed to read configuration from environment - %w", err)
	}

	return config, nil
}

// Loads a configuration file in to a ReelConfig. Values
// found in the environment take precedence over the file.
func (config *ReelConfig) LoadFromFile(configPath string) error {
	err := cleanenv.ReadConfig(configPath, config)
	if err != nil {
		return fmt.Errorf("failed to load configuration from %s - %w", configPath, err)
	}

	return nil
}

// ApplyLogLevel sets the global minimum logging level to the
// level named in the config.
func (config *ReelConfig) ApplyLogLevel() error {
	level, err := logger.ParseLevel(config.LogLevel)
	if err != nil {
		return err
	}

	logger.SetMinLoggingLevel(level.Level())
	return nil
}
