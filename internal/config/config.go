package config

import (
	"fmt"
	"os"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Storage  StorageConfig  `yaml:"storage"`
	Worker   WorkerConfig   `yaml:"worker"`
	Tikwm    TikwmConfig    `yaml:"tikwm"`
	Download DownloadConfig `yaml:"download"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Host         string        `yaml:"host" envconfig:"SERVER_HOST" default:"0.0.0.0"`
	Port         int           `yaml:"port" envconfig:"SERVER_PORT" default:"9848"`
	APIKey       string        `yaml:"api_key" envconfig:"API_KEY"`
	ReadTimeout  time.Duration `yaml:"read_timeout" envconfig:"SERVER_READ_TIMEOUT" default:"30s"`
	WriteTimeout time.Duration `yaml:"write_timeout" envconfig:"SERVER_WRITE_TIMEOUT" default:"15m"`
}

// StorageConfig holds filesystem storage configuration.
type StorageConfig struct {
	BasePath    string `yaml:"base_path" envconfig:"STORAGE_PATH" default:"./downloads"`
	HistoryPath string `yaml:"history_path" envconfig:"HISTORY_PATH" default:"./downloads/history.db"`
}

// WorkerConfig holds concurrency configuration.
type WorkerConfig struct {
	// ImageWorkers bounds concurrent transfers inside one photo set.
	ImageWorkers int `yaml:"image_workers" envconfig:"IMAGE_WORKERS" default:"4"`
	// MaxJobs bounds concurrently running download jobs.
	MaxJobs int `yaml:"max_jobs" envconfig:"MAX_JOBS" default:"2"`
}

// TikwmConfig holds aggregation API configuration.
type TikwmConfig struct {
	BaseURL       string        `yaml:"base_url" envconfig:"TIKWM_BASE_URL" default:"https://www.tikwm.com/"`
	UserAgent     string        `yaml:"user_agent" envconfig:"TIKWM_USER_AGENT"`
	Timeout       time.Duration `yaml:"timeout" envconfig:"TIKWM_TIMEOUT" default:"30s"`
	FetchAttempts int           `yaml:"fetch_attempts" envconfig:"TIKWM_FETCH_ATTEMPTS" default:"3"`
	FetchDelay    time.Duration `yaml:"fetch_delay" envconfig:"TIKWM_FETCH_DELAY" default:"1s"`
}

// DownloadConfig holds asset transfer configuration.
type DownloadConfig struct {
	Timeout               time.Duration `yaml:"timeout" envconfig:"DOWNLOAD_TIMEOUT" default:"10m"`
	ResponseHeaderTimeout time.Duration `yaml:"response_header_timeout" envconfig:"DOWNLOAD_RESPONSE_HEADER_TIMEOUT" default:"30s"`
	UserAgent             string        `yaml:"user_agent" envconfig:"DOWNLOAD_USER_AGENT" default:"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"`
}

// Load reads configuration from file and environment variables.
// Environment variables override file values.
func Load(configPath string) (*Config, error) {
	cfg := &Config{}

	// Load from YAML file if provided
	if configPath != "" {
		data, err := os.ReadFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
	}

	// Override with environment variables
	if err := envconfig.Process("", cfg); err != nil {
		return nil, fmt.Errorf("process environment: %w", err)
	}

	// Validate
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return cfg, nil
}

// Validate checks that configuration values are usable.
func (c *Config) Validate() error {
	if c.Storage.BasePath == "" {
		return fmt.Errorf("STORAGE_PATH is required")
	}
	if c.Worker.ImageWorkers <= 0 {
		return fmt.Errorf("IMAGE_WORKERS must be positive")
	}
	if c.Tikwm.FetchAttempts <= 0 {
		return fmt.Errorf("TIKWM_FETCH_ATTEMPTS must be positive")
	}
	return nil
}

// Address returns the server address in host:port format.
func (c *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
