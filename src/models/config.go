package models

// MConfig Structure
type MConfig struct {
	Name       string          `yaml:"name"`
	Host       string          `yaml:"host"`
	Port       int             `yaml:"port"`
	LogLevel   string          `yaml:"log_level"`
	Storage    MStorageConfig  `yaml:"storage"`
	Cache      MCacheConfig    `yaml:"cache"`
	Network    MNetworkConfig  `yaml:"network"`
	Provider   MProviderConfig `yaml:"provider"`
	Refresh    MRefreshConfig  `yaml:"refresh"`
	Benchmarks []MBenchmark    `yaml:"benchmarks"`
}

type MStorageConfig struct {
	DBType             string `yaml:"db_type"`
	DBPath             string `yaml:"db_path"`
	DBConnectionString string `yaml:"db_connection_string"`
}

type MCacheConfig struct {
	Type          string `yaml:"type"` // "memory" or "redis"
	TTLSeconds    int    `yaml:"ttl_seconds"`
	RedisAddr     string `yaml:"redis_addr"`
	RedisPassword string `yaml:"redis_password"`
	RedisDB       int    `yaml:"redis_db"`
}

type MNetworkConfig struct {
	RequestTimeout  int    `yaml:"timeout"`
	MaxRetries      int    `yaml:"retries"`
	Proxy           string `yaml:"proxy"`
	AutoDetectProxy bool   `yaml:"auto_detect_proxy"`
	UserAgent       string `yaml:"user_agent"`
}

type MProviderConfig struct {
	ChartBaseURL   string `yaml:"chart_base_url"`
	StreamURL      string `yaml:"stream_url"`
	BackoffSeconds int    `yaml:"backoff_seconds"`
}

type MRefreshConfig struct {
	Enabled         bool   `yaml:"enabled"`
	IntervalSeconds int    `yaml:"interval_seconds"`
	Period          string `yaml:"period"`
}

// -----------------------------------------------------------------------------

// BenchmarkSymbols returns the configured bootstrap symbol list.
func (c *MConfig) BenchmarkSymbols() []string {
	symbols := make([]string, 0, len(c.Benchmarks))
	for _, b := range c.Benchmarks {
		symbols = append(symbols, b.Symbol)
	}
	return symbols
}
