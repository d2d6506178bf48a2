// Package config provides centralized configuration management.
//
// Configuration can be loaded from:
//  1. YAML file (config.yaml)
//  2. Environment variables (fallback)
//
// Example usage:
//
//	cfg := config.LoadOrEnv()
//	dbPath := cfg.Storage.DatabasePath
//	window := cfg.Reconcile.TimeWindowMinutes
package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config represents the entire application configuration
type Config struct {
	Server        ServerConfig        `yaml:"server"`
	Storage       StorageConfig       `yaml:"storage"`
	Reconcile     ReconcileConfig     `yaml:"reconcile"`
	Observability ObservabilityConfig `yaml:"observability"`
}

// ServerConfig holds the HTTP server settings
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// StorageConfig holds database configuration
type StorageConfig struct {
	DatabasePath string `yaml:"database_path"`
}

// ReconcileConfig holds the matching engine knobs
type ReconcileConfig struct {
	// TimeWindowMinutes is the batch matching tolerance
	TimeWindowMinutes int `yaml:"time_window_minutes"`

	// MaxLookbackDays bounds how far behind the wallet cutoff a batch looks
	MaxLookbackDays int `yaml:"max_lookback_days"`

	// WalletMontoFactor and WalletIDFactor correct feeds reporting amounts
	// or ids at the wrong decimal scale; 1 means no correction
	WalletMontoFactor float64 `yaml:"wallet_monto_factor"`
	WalletIDFactor    float64 `yaml:"wallet_id_factor"`

	// Scan bounds on how much history import and reporting consider
	WalletScanTailRows    int `yaml:"wallet_scan_tail_rows"`
	TransfersScanTailRows int `yaml:"transfers_scan_tail_rows"`
}

// ObservabilityConfig holds observability settings
type ObservabilityConfig struct {
	Logging LoggingConfig `yaml:"logging"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Load reads and parses the config file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	// Expand environment variables (e.g., ${ATENEA_DB_PATH})
	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, err
	}
	cfg.applyDefaults()

	return &cfg, nil
}

// LoadFromEnv loads configuration from environment variables only
func LoadFromEnv() *Config {
	cfg := &Config{
		Server: ServerConfig{
			Host: getEnv("ATENEA_HOST", "0.0.0.0"),
			Port: getEnvInt("ATENEA_PORT", 8080),
		},
		Storage: StorageConfig{
			DatabasePath: getEnv("ATENEA_DB_PATH", "atenea.db"),
		},
		Reconcile: ReconcileConfig{
			TimeWindowMinutes:     getEnvInt("ATENEA_TIME_WINDOW_MINUTES", 15),
			MaxLookbackDays:       getEnvInt("ATENEA_MAX_LOOKBACK_DAYS", 45),
			WalletMontoFactor:     getEnvFloat("ATENEA_WALLET_MONTO_FACTOR", 1),
			WalletIDFactor:        getEnvFloat("ATENEA_WALLET_ID_FACTOR", 1),
			WalletScanTailRows:    getEnvInt("ATENEA_WALLET_SCAN_TAIL_ROWS", 20000),
			TransfersScanTailRows: getEnvInt("ATENEA_TRANSFERS_SCAN_TAIL_ROWS", 3000),
		},
		Observability: ObservabilityConfig{
			Logging: LoggingConfig{
				Level:  getEnv("LOG_LEVEL", "info"),
				Format: getEnv("LOG_FORMAT", "text"),
			},
		},
	}
	return cfg
}

// LoadOrEnv tries to load from config.yaml, falls back to environment variables
func LoadOrEnv() *Config {
	return LoadOrEnvWithPath("config.yaml")
}

// LoadOrEnvWithPath tries to load from specified path, falls back to environment variables
func LoadOrEnvWithPath(path string) *Config {
	if cfg, err := Load(path); err == nil {
		return cfg
	}
	return LoadFromEnv()
}

// applyDefaults fills zero values left by a partial YAML file
func (c *Config) applyDefaults() {
	if c.Server.Host == "" {
		c.Server.Host = "0.0.0.0"
	}
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Storage.DatabasePath == "" {
		c.Storage.DatabasePath = "atenea.db"
	}
	if c.Reconcile.TimeWindowMinutes == 0 {
		c.Reconcile.TimeWindowMinutes = 15
	}
	if c.Reconcile.MaxLookbackDays == 0 {
		c.Reconcile.MaxLookbackDays = 45
	}
	if c.Reconcile.WalletMontoFactor == 0 {
		c.Reconcile.WalletMontoFactor = 1
	}
	if c.Reconcile.WalletIDFactor == 0 {
		c.Reconcile.WalletIDFactor = 1
	}
	if c.Reconcile.WalletScanTailRows == 0 {
		c.Reconcile.WalletScanTailRows = 20000
	}
	if c.Reconcile.TransfersScanTailRows == 0 {
		c.Reconcile.TransfersScanTailRows = 3000
	}
	if c.Observability.Logging.Level == "" {
		c.Observability.Logging.Level = "info"
	}
	if c.Observability.Logging.Format == "" {
		c.Observability.Logging.Format = "text"
	}
}

// getEnv retrieves an environment variable with a fallback default
func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

// getEnvInt retrieves an integer environment variable with a fallback default
func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		var result int
		if _, err := fmt.Sscanf(val, "%d", &result); err == nil {
			return result
		}
	}
	return fallback
}

// getEnvFloat retrieves a float environment variable with a fallback default
func getEnvFloat(key string, fallback float64) float64 {
	if val := os.Getenv(key); val != "" {
		if result, err := strconv.ParseFloat(val, 64); err == nil {
			return result
		}
	}
	return fallback
}
