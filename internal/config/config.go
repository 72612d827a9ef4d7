// Package config loads adboard configuration from an optional YAML
// file, a .env file and the environment. Environment variables win.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config is the resolved application configuration.
type Config struct {
	Port      int      `yaml:"port"`
	LogLevel  string   `yaml:"log_level"`
	ServerURL string   `yaml:"server_url"`
	DB        DBConfig `yaml:"db"`
}

// DBConfig selects and parameterizes the storage backend.
type DBConfig struct {
	Driver      string `yaml:"driver"` // sqlite or postgres
	Path        string `yaml:"path"`   // sqlite database file
	PostgresURL string `yaml:"postgres_url"`
}

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Load resolves configuration: defaults, then the YAML file at path
// (or the first of ./adboard.yaml, ~/.adboard/config.yaml when path is
// empty), then .env, then environment variables.
func Load(path string) (*Config, error) {
	cfg := &Config{
		Port:      8080,
		LogLevel:  "info",
		ServerURL: "http://localhost:8080",
		DB: DBConfig{
			Driver: DriverSQLite,
		},
	}

	if path == "" {
		path = findConfigFile()
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file %s: %w", path, err)
		}
	}

	_ = godotenv.Load()
	applyEnv(cfg)

	if cfg.DB.Driver != DriverSQLite && cfg.DB.Driver != DriverPostgres {
		return nil, fmt.Errorf("unknown db driver: %q", cfg.DB.Driver)
	}
	if cfg.DB.Driver == DriverPostgres && cfg.DB.PostgresURL == "" {
		return nil, fmt.Errorf("db driver %q requires a postgres url", DriverPostgres)
	}

	return cfg, nil
}

// findConfigFile returns the first existing default config path.
func findConfigFile() string {
	if _, err := os.Stat("adboard.yaml"); err == nil {
		return "adboard.yaml"
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	p := filepath.Join(home, ".adboard", "config.yaml")
	if _, err := os.Stat(p); err == nil {
		return p
	}
	return ""
}

func applyEnv(cfg *Config) {
	cfg.Port = getEnvInt("ADBOARD_PORT", cfg.Port)
	cfg.LogLevel = getEnv("ADBOARD_LOG_LEVEL", cfg.LogLevel)
	cfg.ServerURL = getEnv("ADBOARD_SERVER_URL", cfg.ServerURL)
	cfg.DB.Driver = getEnv("ADBOARD_DB_DRIVER", cfg.DB.Driver)
	cfg.DB.Path = getEnv("ADBOARD_DB_PATH", cfg.DB.Path)
	cfg.DB.PostgresURL = getEnv("ADBOARD_POSTGRES_URL", cfg.DB.PostgresURL)
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}
