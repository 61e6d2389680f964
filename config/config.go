package config

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/httplog"
	"github.com/rs/zerolog"
	"github.com/spf13/viper"

	"github.com/marcelsud/webhook-dispatch/webhook/delivery"
)

/* Config holds every setting of the api, worker and notify binaries.
 * Values come from a TOML .env file and the environment, environment first.
 */

type Config struct {
	Port     string `mapstructure:"PORT"`
	LogLevel string `mapstructure:"LOG_LEVEL"`
	LogJSON  bool   `mapstructure:"LOG_JSON"`

	RegistryBackend  string `mapstructure:"REGISTRY_BACKEND"`
	DestinationsFile string `mapstructure:"DESTINATIONS_FILE"`
	RedisAddr        string `mapstructure:"REDIS_ADDR"`
	RedisPassword    string `mapstructure:"REDIS_PASSWORD"`
	RedisDB          int    `mapstructure:"REDIS_DB"`
	PostgresURL      string `mapstructure:"POSTGRES_URL"`

	DeliveryRetries        int    `mapstructure:"DELIVERY_RETRIES"`
	DeliveryDelayMS        int    `mapstructure:"DELIVERY_DELAY_MS"`
	DeliveryTimeoutSeconds int    `mapstructure:"DELIVERY_TIMEOUT_SECONDS"`
	DeliverySuccessStatus  string `mapstructure:"DELIVERY_SUCCESS_STATUS"`
	RateLimitPerMinute     int    `mapstructure:"RATE_LIMIT_PER_MINUTE"`
	RateLimitBurst         int    `mapstructure:"RATE_LIMIT_BURST"`

	DeliveredTTLHours int `mapstructure:"DELIVERED_TTL_HOURS"`
	FailedTTLHours    int `mapstructure:"FAILED_TTL_HOURS"`
}

const (
	BackendFile     = "file"
	BackendRedis    = "redis"
	BackendPostgres = "postgres"
)

var defaults = map[string]any{
	"PORT":                     "8080",
	"LOG_LEVEL":                "info",
	"LOG_JSON":                 true,
	"REGISTRY_BACKEND":         BackendFile,
	"DESTINATIONS_FILE":        "destinations.yaml",
	"REDIS_ADDR":               "",
	"REDIS_PASSWORD":           "",
	"REDIS_DB":                 0,
	"POSTGRES_URL":             "",
	"DELIVERY_RETRIES":         1,
	"DELIVERY_DELAY_MS":        1000,
	"DELIVERY_TIMEOUT_SECONDS": 10,
	"DELIVERY_SUCCESS_STATUS":  "200,201,204",
	"RATE_LIMIT_PER_MINUTE":    0,
	"RATE_LIMIT_BURST":         1,
	"DELIVERED_TTL_HOURS":      1,
	"FAILED_TTL_HOURS":         24,
}

// GetConfig loads the configuration from the working directory
func GetConfig() (*Config, error) {
	return Load(".")
}

// Load reads .env from dir; a missing file leaves only defaults and the environment
func Load(dir string) (*Config, error) {
	v := viper.New()
	v.SetConfigName(".env")
	v.SetConfigType("toml")
	v.AddConfigPath(dir)
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.AutomaticEnv()

	err := v.ReadInConfig()
	var notFound viper.ConfigFileNotFoundError
	if err != nil && !errors.As(err, &notFound) {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("parsing config data: %w", err)
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

// Validate checks the settings that cannot be defaulted
func (c *Config) Validate() error {
	switch c.RegistryBackend {
	case BackendFile:
		if c.DestinationsFile == "" {
			return fmt.Errorf("DESTINATIONS_FILE is required for the file backend")
		}
	case BackendRedis:
		if c.RedisAddr == "" {
			return fmt.Errorf("REDIS_ADDR is required for the redis backend")
		}
	case BackendPostgres:
		if c.PostgresURL == "" {
			return fmt.Errorf("POSTGRES_URL is required for the postgres backend")
		}
	default:
		return fmt.Errorf("invalid REGISTRY_BACKEND: %q", c.RegistryBackend)
	}

	if _, err := c.successStatusCodes(); err != nil {
		return err
	}
	return nil
}

// DeliveryConfig builds the service-wide delivery defaults
func (c *Config) DeliveryConfig() delivery.Config {
	cfg := delivery.DefaultConfig()
	cfg.Retries = max(c.DeliveryRetries, 0)
	cfg.Delay = time.Duration(c.DeliveryDelayMS) * time.Millisecond
	cfg.Timeout = time.Duration(c.DeliveryTimeoutSeconds) * time.Second
	if codes, err := c.successStatusCodes(); err == nil && len(codes) > 0 {
		cfg.SuccessStatusCodes = codes
	}
	return cfg
}

func (c *Config) DeliveredTTL() time.Duration {
	return time.Duration(c.DeliveredTTLHours) * time.Hour
}

func (c *Config) FailedTTL() time.Duration {
	return time.Duration(c.FailedTTLHours) * time.Hour
}

// Logger builds the service logger the same way the request logger is built
func (c *Config) Logger(service string) zerolog.Logger {
	return httplog.NewLogger(service, httplog.Options{
		JSON:     c.LogJSON,
		LogLevel: c.LogLevel,
	})
}

func (c *Config) successStatusCodes() ([]int, error) {
	var codes []int
	for _, field := range strings.Split(c.DeliverySuccessStatus, ",") {
		field = strings.TrimSpace(field)
		if field == "" {
			continue
		}
		code, err := strconv.Atoi(field)
		if err != nil || code < 100 || code > 599 {
			return nil, fmt.Errorf("invalid DELIVERY_SUCCESS_STATUS entry: %q", field)
		}
		codes = append(codes, code)
	}
	return codes, nil
}
