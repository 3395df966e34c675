// Package config provides configuration management for the Alexander form upload server.
// Configuration can be loaded from YAML files and environment variables.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Store drivers.
const (
	StoreDriverMemory = "memory"
	StoreDriverRedis  = "redis"
	StoreDriverNone   = "none"
)

// Config represents the complete application configuration.
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	AWS     AWSConfig     `mapstructure:"aws"`
	Upload  UploadConfig  `mapstructure:"upload"`
	Store   StoreConfig   `mapstructure:"store"`
	Redis   RedisConfig   `mapstructure:"redis"`
	Logging LoggingConfig `mapstructure:"logging"`
	Metrics MetricsConfig `mapstructure:"metrics"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// Addr returns the listen address in host:port format.
func (c ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// AWSConfig holds S3 client settings.
// Signing credentials are always read from the environment at build time;
// the static keys here only configure the S3 clients.
type AWSConfig struct {
	// Region is the default region for buckets without an entry in BucketRegions.
	Region string `mapstructure:"region"`

	// BucketRegions maps bucket names to their regions.
	BucketRegions map[string]string `mapstructure:"bucket_regions"`

	// Endpoint is an optional custom endpoint for S3-compatible services.
	Endpoint string `mapstructure:"endpoint"`

	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	UsePathStyle    bool   `mapstructure:"use_path_style"`
}

// UploadConfig holds upload form settings.
type UploadConfig struct {
	// Service is the signing service name.
	Service string `mapstructure:"service"`

	// HostTemplate builds the upload host; "{region}" is substituted.
	HostTemplate string `mapstructure:"host_template"`

	// DefaultExpiry is the policy lifetime when a request sets none.
	DefaultExpiry time.Duration `mapstructure:"default_expiry"`

	// MaxContentLength caps upload size when a request sets none. Zero disables it.
	MaxContentLength int64 `mapstructure:"max_content_length"`
}

// StoreConfig holds issuance store settings.
type StoreConfig struct {
	// Driver is "memory", "redis" or "none".
	Driver string `mapstructure:"driver"`

	// CleanupInterval is how often the memory store purges expired issuances.
	CleanupInterval time.Duration `mapstructure:"cleanup_interval"`

	// KeyPrefix namespaces redis keys.
	KeyPrefix string `mapstructure:"key_prefix"`
}

// RedisConfig holds Redis connection settings.
type RedisConfig struct {
	Host        string        `mapstructure:"host"`
	Port        int           `mapstructure:"port"`
	Password    string        `mapstructure:"password"`
	DB          int           `mapstructure:"db"`
	PoolSize    int           `mapstructure:"pool_size"`
	DialTimeout time.Duration `mapstructure:"dial_timeout"`
}

// Addr returns the Redis address in host:port format.
func (c RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	Output     string `mapstructure:"output"`
	TimeFormat string `mapstructure:"time_format"`
}

// MetricsConfig holds Prometheus metrics settings.
type MetricsConfig struct {
	// Enabled determines if metrics collection is active.
	Enabled bool `mapstructure:"enabled"`

	// Namespace prefixes every metric name.
	Namespace string `mapstructure:"namespace"`
}

// Load reads configuration from the specified file and environment variables.
// Environment variables take precedence over file values.
// Environment variables are prefixed with FORMUPLOAD_ and use _ as separator.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	// Set defaults
	setDefaults(v)

	// Environment variable configuration
	v.SetEnvPrefix("FORMUPLOAD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Config file configuration
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		v.AddConfigPath("/etc/formupload")
	}

	// Read config file (optional - environment variables can be used instead)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found is acceptable - use defaults and env vars
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets default configuration values.
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 10*time.Second)
	v.SetDefault("server.write_timeout", 30*time.Second)
	v.SetDefault("server.idle_timeout", 120*time.Second)
	v.SetDefault("server.shutdown_timeout", 30*time.Second)

	// AWS defaults
	v.SetDefault("aws.region", "us-east-1")
	v.SetDefault("aws.endpoint", "")
	v.SetDefault("aws.access_key_id", "")
	v.SetDefault("aws.secret_access_key", "")
	v.SetDefault("aws.use_path_style", false)

	// Upload defaults
	v.SetDefault("upload.service", "s3")
	v.SetDefault("upload.host_template", "s3-{region}.amazonaws.com")
	v.SetDefault("upload.default_expiry", 1*time.Hour)
	v.SetDefault("upload.max_content_length", 0)

	// Store defaults
	v.SetDefault("store.driver", StoreDriverMemory)
	v.SetDefault("store.cleanup_interval", 60*time.Second)
	v.SetDefault("store.key_prefix", "formupload:issuance:")

	// Redis defaults
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.pool_size", 10)
	v.SetDefault("redis.dial_timeout", 5*time.Second)

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.output", "stdout")
	v.SetDefault("logging.time_format", time.RFC3339)

	// Metrics defaults
	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.namespace", "formupload")
}

// Validate checks the configuration for required values and valid ranges.
func (c *Config) Validate() error {
	// Validate server configuration
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535")
	}

	// Validate AWS configuration
	if c.AWS.Region == "" {
		return fmt.Errorf("aws.region is required")
	}
	if (c.AWS.AccessKeyID == "") != (c.AWS.SecretAccessKey == "") {
		return fmt.Errorf("aws.access_key_id and aws.secret_access_key must be set together")
	}

	// Validate upload configuration
	if !strings.Contains(c.Upload.HostTemplate, "{region}") {
		return fmt.Errorf("upload.host_template must contain {region}")
	}
	if c.Upload.DefaultExpiry <= 0 || c.Upload.DefaultExpiry > 7*24*time.Hour {
		return fmt.Errorf("upload.default_expiry must be between 1s and 168h")
	}
	if c.Upload.MaxContentLength < 0 {
		return fmt.Errorf("upload.max_content_length must not be negative")
	}

	// Validate store configuration
	validDrivers := map[string]bool{StoreDriverMemory: true, StoreDriverRedis: true, StoreDriverNone: true}
	if !validDrivers[c.Store.Driver] {
		return fmt.Errorf("store.driver must be 'memory', 'redis' or 'none'")
	}
	if c.Store.Driver == StoreDriverRedis && c.Redis.Host == "" {
		return fmt.Errorf("redis.host is required for redis store")
	}

	// Validate logging configuration
	validLevels := map[string]bool{
		"trace": true, "debug": true, "info": true,
		"warn": true, "error": true, "fatal": true, "panic": true,
	}
	if !validLevels[strings.ToLower(c.Logging.Level)] {
		return fmt.Errorf("logging.level must be one of: trace, debug, info, warn, error, fatal, panic")
	}

	return nil
}

// MustLoad loads configuration or panics on error.
// Useful for main function initialization.
func MustLoad(configPath string) *Config {
	cfg, err := Load(configPath)
	if err != nil {
		panic(fmt.Sprintf("failed to load configuration: %v", err))
	}
	return cfg
}
