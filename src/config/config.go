package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"

	"investment-dashboard/src/helpers"
	"investment-dashboard/src/models"

	"github.com/joho/godotenv"
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
	modelConfig := Defaults()
	if err := yaml.Unmarshal(data, modelConfig); err != nil {
		return nil, fmt.Errorf("failed to parse config from YAML: %w", err)
	}

	config := &Config{MConfig: modelConfig}

	// 3. Environment overrides (.env.local wins over .env, real env wins over both)
	_ = godotenv.Load(".env.local", ".env")
	if err := config.ApplyEnv(); err != nil {
		return nil, err
	}

	// 4. Validate the loaded configuration
	if err := config.Validate(); err != nil {
		return nil, &helpers.ConfigurationError{DashboardError: helpers.DashboardError{Message: "config validation failed", Cause: err}}
	}

	return config, nil
}

// -----------------------------------------------------------------------------

// Defaults returns the values used for keys missing from the YAML file.
func Defaults() *models.MConfig {
	return &models.MConfig{
		Name:     "investment-dashboard",
		Host:     "127.0.0.1",
		Port:     8088,
		LogLevel: "INFO",
		GrpcPort: 50051,
		Storage: models.MStorageConfig{
			DBType:     "sqlite",
			DBPath:     "dashboard.db",
			Collection: "view_snapshots",
		},
		Backend: models.MBackendConfig{
			BaseURL:        "http://localhost:8000",
			RequestTimeout: 15,
			UserAgent:      "investment-dashboard/1.0",
		},
		Aggregator: models.MAggregatorConfig{
			Retries:        0,
			RetryBackoffMs: 250,
		},
		Views: models.MViewsConfig{
			SampleFallback:     true,
			CachedFallback:     true,
			OpportunitiesLimit: models.DefaultLimit,
			OpportunitiesScore: 70,
			RefreshInterval:    60,
		},
	}
}

// -----------------------------------------------------------------------------

// ApplyEnv overrides selected keys from DASHBOARD_* environment variables.
func (c *Config) ApplyEnv() error {
	if v := strings.TrimSpace(os.Getenv("DASHBOARD_BACKEND_URL")); v != "" {
		c.Backend.BaseURL = v
	}
	if v := strings.TrimSpace(os.Getenv("DASHBOARD_HOST")); v != "" {
		c.Host = v
	}
	if v := strings.TrimSpace(os.Getenv("DASHBOARD_PORT")); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("parse DASHBOARD_PORT: %w", err)
		}
		c.Port = port
	}
	if v := strings.TrimSpace(os.Getenv("DASHBOARD_LOG_LEVEL")); v != "" {
		c.LogLevel = v
	}
	if v := strings.TrimSpace(os.Getenv("DASHBOARD_DB_TYPE")); v != "" {
		c.Storage.DBType = v
	}
	if v := strings.TrimSpace(os.Getenv("DASHBOARD_DB_PATH")); v != "" {
		c.Storage.DBPath = v
	}
	if v := strings.TrimSpace(os.Getenv("DASHBOARD_DB_DSN")); v != "" {
		c.Storage.DBConnectionString = v
	}
	return nil
}

// -----------------------------------------------------------------------------

// Validate performs basic configuration validation
func (c *Config) Validate() error {
	if c.Name == "" {
		return fmt.Errorf("application name cannot be empty")
	}

	// Server
	if c.Host == "" {
		return fmt.Errorf("server host cannot be empty")
	}
	if c.Port <= 1024 || c.Port > 65535 {
		return fmt.Errorf("invalid server port number: %d (must be between 1025 and 65535)", c.Port)
	}
	if c.GrpcPort < 0 || c.GrpcPort > 65535 {
		return fmt.Errorf("invalid grpc port number: %d", c.GrpcPort)
	}

	// Storage
	switch c.Storage.DBType {
	case "sqlite":
		if c.Storage.DBPath == "" {
			return fmt.Errorf("database path cannot be empty for sqlite")
		}
	case "postgres":
		if c.Storage.DBConnectionString == "" {
			return fmt.Errorf("database connection string cannot be empty for postgres")
		}
	case "firestore":
		if c.Storage.ProjectID == "" {
			return fmt.Errorf("project id cannot be empty for firestore")
		}
	case "memory":
	case "":
		return fmt.Errorf("database type cannot be empty")
	default:
		return fmt.Errorf("unsupported database type: %s", c.Storage.DBType)
	}

	// Backend
	u, err := url.Parse(c.Backend.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("backend base url must be absolute: %q", c.Backend.BaseURL)
	}
	if c.Backend.RequestTimeout <= 0 {
		return fmt.Errorf("request timeout must be greater than 0")
	}

	// Aggregator
	if c.Aggregator.Retries < 0 {
		return fmt.Errorf("max retries cannot be negative")
	}
	if c.Aggregator.RetryBackoffMs < 0 {
		return fmt.Errorf("retry backoff cannot be negative")
	}

	// Views
	if c.Views.OpportunitiesLimit < 0 || c.Views.OpportunitiesLimit > models.MaxOpportunitiesLimit {
		return fmt.Errorf("opportunities limit must be between 0 and %d", models.MaxOpportunitiesLimit)
	}
	if c.Views.OpportunitiesScore < 0 || c.Views.OpportunitiesScore > 100 {
		return fmt.Errorf("opportunities min score must be between 0 and 100")
	}
	if c.Views.RefreshInterval < 0 {
		return fmt.Errorf("refresh interval cannot be negative")
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
