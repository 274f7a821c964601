package config

import (
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Cryptobridge CryptobridgeConfig `yaml:"cryptobridge"`
	Logging      LoggingConfig      `yaml:"logging"`
	Runtime      RuntimeConfig      `yaml:"runtime"`
	Exchanges    ExchangesConfig    `yaml:"exchanges"`
	Metrics      MetricsConfig      `yaml:"metrics"`
}

type CryptobridgeConfig struct {
	Name    string `yaml:"name"`
	Version string `yaml:"version"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
	MaxAge int    `yaml:"max_age"`
}

type RuntimeConfig struct {
	Timeout        time.Duration        `yaml:"timeout"`
	UserAgent      string               `yaml:"user_agent"`
	RateLimit      RateLimitConfig      `yaml:"rate_limit"`
	ConnectionPool ConnectionPoolConfig `yaml:"connection_pool"`
}

// RateLimitConfig overrides the pacing derived from each exchange's
// description. Zero keeps the exchange default.
type RateLimitConfig struct {
	RequestsPerSecond float64 `yaml:"requests_per_second"`
	BurstSize         int     `yaml:"burst_size"`
}

type ConnectionPoolConfig struct {
	MaxIdleConns    int           `yaml:"max_idle_conns"`
	MaxConnsPerHost int           `yaml:"max_conns_per_host"`
	IdleConnTimeout time.Duration `yaml:"idle_conn_timeout"`
}

type ExchangesConfig struct {
	Bitstamp ExchangeConfig `yaml:"bitstamp"`
	Gemini   ExchangeConfig `yaml:"gemini"`
}

type ExchangeConfig struct {
	Enabled         bool          `yaml:"enabled"`
	BaseURL         string        `yaml:"base_url"`
	Sandbox         bool          `yaml:"sandbox"`
	APIKey          string        `yaml:"api_key"`
	Secret          string        `yaml:"secret"`
	UID             string        `yaml:"uid"`
	RefreshInterval time.Duration `yaml:"refresh_interval"`
}

type MetricsConfig struct {
	Prometheus PrometheusConfig `yaml:"prometheus"`
	CloudWatch CloudWatchConfig `yaml:"cloudwatch"`
}

type PrometheusConfig struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr"`
}

type CloudWatchConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Region    string `yaml:"region"`
	Namespace string `yaml:"namespace"`
	Dashboard string `yaml:"dashboard"`
}

func defaults() Config {
	return Config{
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
		Runtime: RuntimeConfig{
			Timeout:   10 * time.Second,
			UserAgent: "cryptobridge/1.0",
			ConnectionPool: ConnectionPoolConfig{
				MaxIdleConns:    10,
				MaxConnsPerHost: 10,
				IdleConnTimeout: 90 * time.Second,
			},
		},
		Exchanges: ExchangesConfig{
			Bitstamp: ExchangeConfig{RefreshInterval: time.Hour},
			Gemini:   ExchangeConfig{RefreshInterval: time.Hour},
		},
		Metrics: MetricsConfig{
			Prometheus: PrometheusConfig{Addr: "0.0.0.0:2112"},
			CloudWatch: CloudWatchConfig{Namespace: "Cryptobridge", Dashboard: "Cryptobridge"},
		},
	}
}

func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := defaults()
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	// Credentials from the environment win over the file.
	overrideFromEnv(&config.Exchanges.Bitstamp.APIKey, "BITSTAMP_API_KEY")
	overrideFromEnv(&config.Exchanges.Bitstamp.Secret, "BITSTAMP_SECRET")
	overrideFromEnv(&config.Exchanges.Bitstamp.UID, "BITSTAMP_UID")
	overrideFromEnv(&config.Exchanges.Gemini.APIKey, "GEMINI_API_KEY")
	overrideFromEnv(&config.Exchanges.Gemini.Secret, "GEMINI_SECRET")
	if config.Metrics.CloudWatch.Enabled {
		overrideFromEnv(&config.Metrics.CloudWatch.Region, "AWS_REGION")
	}

	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return &config, nil
}

func overrideFromEnv(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = strings.TrimSpace(v)
	}
}

func validateConfig(cfg *Config) error {
	if cfg.Cryptobridge.Name == "" {
		return fmt.Errorf("cryptobridge.name is required")
	}
	if cfg.Cryptobridge.Version == "" {
		return fmt.Errorf("cryptobridge.version is required")
	}
	if cfg.Runtime.Timeout <= 0 {
		return fmt.Errorf("runtime.timeout must be greater than 0")
	}
	if cfg.Runtime.RateLimit.RequestsPerSecond < 0 {
		return fmt.Errorf("runtime.rate_limit.requests_per_second must not be negative")
	}
	if cfg.Runtime.RateLimit.BurstSize < 0 {
		return fmt.Errorf("runtime.rate_limit.burst_size must not be negative")
	}
	if !cfg.Exchanges.Bitstamp.Enabled && !cfg.Exchanges.Gemini.Enabled {
		return fmt.Errorf("at least one exchange must be enabled")
	}
	for name, ex := range map[string]ExchangeConfig{
		"bitstamp": cfg.Exchanges.Bitstamp,
		"gemini":   cfg.Exchanges.Gemini,
	} {
		if !ex.Enabled {
			continue
		}
		if ex.Sandbox && IsProductionLike(AppEnvironment()) {
			return fmt.Errorf("exchanges.%s.sandbox is not allowed in %s", name, AppEnvironment())
		}
		if ex.RefreshInterval <= 0 {
			return fmt.Errorf("exchanges.%s.refresh_interval must be greater than 0", name)
		}
		if ex.BaseURL != "" {
			if u, err := url.Parse(ex.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
				return fmt.Errorf("exchanges.%s.base_url '%s' is invalid", name, ex.BaseURL)
			}
		}
	}
	if cfg.Metrics.Prometheus.Enabled && cfg.Metrics.Prometheus.Addr == "" {
		return fmt.Errorf("metrics.prometheus.addr is required when prometheus is enabled")
	}
	if cfg.Metrics.CloudWatch.Enabled && cfg.Metrics.CloudWatch.Namespace == "" {
		return fmt.Errorf("metrics.cloudwatch.namespace is required when cloudwatch is enabled")
	}
	return nil
}
