// Package config provides application-wide configuration loaded from env vars.
// All fields have safe defaults so the binary runs locally without any env setup.
// An optional YAML file (AIGATEWAY_CONFIG) can override the defaults; env vars
// always win over the file.
package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config holds runtime configuration for the AI gateway.
type Config struct {
	Host   string `yaml:"host"`    // AIGATEWAY_HOST — default: "0.0.0.0"
	Port   int    `yaml:"port"`    // AIGATEWAY_PORT — default: 8080
	DBPath string `yaml:"db_path"` // AIGATEWAY_DB_PATH — default: "aigateway.db"
}

const (
	envKeyHost       = "AIGATEWAY_HOST"
	envKeyPort       = "AIGATEWAY_PORT"
	envKeyDBPath     = "AIGATEWAY_DB_PATH"
	envKeyConfigFile = "AIGATEWAY_CONFIG"
)

// Load reads configuration from the optional YAML file and environment
// variables, applying defaults for missing values.
func Load() (Config, error) {
	cfg := Config{
		Host:   "0.0.0.0",
		Port:   8080,
		DBPath: "aigateway.db",
	}

	if path := os.Getenv(envKeyConfigFile); path != "" {
		if err := loadFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}

	cfg.Host = envOr(envKeyHost, cfg.Host)
	cfg.DBPath = envOr(envKeyDBPath, cfg.DBPath)
	if v := os.Getenv(envKeyPort); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil || port <= 0 {
			return Config{}, fmt.Errorf("config: invalid %s value %q", envKeyPort, v)
		}
		cfg.Port = port
	}

	return cfg, nil
}

// loadFile merges YAML file contents over cfg.
func loadFile(path string, cfg *Config) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config: read %q: %w", path, err)
	}
	if err := yaml.Unmarshal(raw, cfg); err != nil {
		return fmt.Errorf("config: parse %q: %w", path, err)
	}
	return nil
}

// envOr returns the value of the environment variable key, or fallback if not set.
func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
