package config

import (
	"fmt"
	"os"

	"benchmark-server/src/models"

	"gopkg.in/yaml.v3"
)

// -----------------------------------------------------------------------------

// Config wraps models.MConfig and provides business logic methods
type Config struct {
	*models.MConfig
}

// -----------------------------------------------------------------------------

// NewConfig creates a new MConfig instance from YAML file
func NewConfig(configPath string) (*Config, error) {
	// 1. Read the YAML file content
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file '%s': %w", configPath, err)
	}

	// 2. Unmarshal data into the models struct
	var modelConfig models.MConfig
	if err := yaml.Unmarshal(data, &modelConfig); err != nil {
		return nil, fmt.Errorf("failed to parse config from YAML: %w", err)
	}

	config := &Config{MConfig: &modelConfig}
	config.applyDefaults()

	// 3. Validate the loaded configuration
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return config, nil
}

// -----------------------------------------------------------------------------

// applyDefaults fills the optional provider/cache values the YAML may omit.
func (c *Config) applyDefaults() {
	if c.Provider.ChartBaseURL == "" {
		c.Provider.ChartBaseURL = "https://query1.finance.yahoo.com/v8/finance/chart"
	}
	if c.Provider.StreamURL == "" {
		c.Provider.StreamURL = "wss://streamer.finance.yahoo.com/?version=2"
	}
	if c.Provider.BackoffSeconds == 0 {
		c.Provider.BackoffSeconds = 5
	}
	if c.Cache.Type == "" {
		c.Cache.Type = "memory"
	}
	if c.Cache.TTLSeconds == 0 {
		c.Cache.TTLSeconds = 60
	}
	if c.Refresh.Period == "" {
		c.Refresh.Period = "1y"
	}
}

// -----------------------------------------------------------------------------

// Validate performs basic configuration validation
func (c *Config) Validate() error {
	// Validate App configuration
	if c.Name == "" {
		return fmt.Errorf("application name cannot be empty")
	}

	// Validate Server configuration
	if c.Host == "" {
		return fmt.Errorf("server host cannot be empty")
	}
	if c.Port <= 1024 || c.Port > 65535 {
		return fmt.Errorf("invalid server port number: %d (must be between 1025 and 65535)", c.Port)
	}

	// Validate Storage configuration
	if c.Storage.DBType == "" {
		return fmt.Errorf("database type cannot be empty")
	}
	if c.Storage.DBType == "sqlite" && c.Storage.DBPath == "" {
		return fmt.Errorf("database path cannot be empty for sqlite")
	}
	if c.Storage.DBType == "postgres" && c.Storage.DBConnectionString == "" {
		return fmt.Errorf("connection string cannot be empty for postgres")
	}

	// Validate Cache configuration
	if c.Cache.Type != "memory" && c.Cache.Type != "redis" {
		return fmt.Errorf("unsupported cache type: %s", c.Cache.Type)
	}
	if c.Cache.Type == "redis" && c.Cache.RedisAddr == "" {
		return fmt.Errorf("redis address cannot be empty for redis cache")
	}
	if c.Cache.TTLSeconds <= 0 {
		return fmt.Errorf("cache ttl must be greater than 0")
	}

	// Validate Network configuration
	if c.Network.RequestTimeout <= 0 {
		return fmt.Errorf("request timeout must be greater than 0")
	}
	if c.Network.MaxRetries < 0 {
		return fmt.Errorf("max retries cannot be negative")
	}

	// Validate Provider configuration
	if c.Provider.BackoffSeconds <= 0 {
		return fmt.Errorf("stream backoff must be greater than 0")
	}

	// Validate Benchmarks
	if len(c.Benchmarks) == 0 {
		return fmt.Errorf("at least one benchmark must be configured")
	}
	for i, b := range c.Benchmarks {
		if b.Symbol == "" {
			return fmt.Errorf("benchmark %d must have a symbol", i)
		}
	}

	// Validate Refresh configuration
	if c.Refresh.Enabled && c.Refresh.IntervalSeconds <= 0 {
		return fmt.Errorf("refresh interval must be greater than 0 when refresh is enabled")
	}

	return nil
}

// -----------------------------------------------------------------------------

// Save persists the current configuration to the specified YAML file path
func (c *Config) Save(configPath string) error {
	// 1. Marshal the struct to YAML
	data, err := yaml.Marshal(c.MConfig)
	if err != nil {
		return fmt.Errorf("failed to marshal config to YAML: %w", err)
	}

	// 2. Write to file (0644 permissions)
	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write config to file '%s': %w", configPath, err)
	}

	return nil
}
