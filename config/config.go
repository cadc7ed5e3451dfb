package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Server        ServerConfig
	Database      DatabaseConfig
	Nutritionix   NutritionixConfig
	USDA          USDAConfig
	OpenFoodFacts OpenFoodFactsConfig
	Aggregator    AggregatorConfig
	Log           LogConfig
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port           string   `mapstructure:"port"`
	Environment    string   `mapstructure:"environment"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// DatabaseConfig holds the relational store configuration
type DatabaseConfig struct {
	DSN string `mapstructure:"dsn"`
}

// NutritionixConfig holds Nutritionix API credentials
type NutritionixConfig struct {
	AppID   string `mapstructure:"app_id"`
	AppKey  string `mapstructure:"app_key"`
	BaseURL string `mapstructure:"base_url"`
}

// USDAConfig holds USDA FoodData Central API configuration
type USDAConfig struct {
	APIKey  string `mapstructure:"api_key"`
	BaseURL string `mapstructure:"base_url"`
}

// OpenFoodFactsConfig holds Open Food Facts configuration. The API is open,
// only the base URL and User-Agent are configurable.
type OpenFoodFactsConfig struct {
	BaseURL   string `mapstructure:"base_url"`
	UserAgent string `mapstructure:"user_agent"`
	Enabled   bool   `mapstructure:"enabled"`
}

// AggregatorConfig holds food aggregation tuning knobs
type AggregatorConfig struct {
	PerSourceFloor int           `mapstructure:"per_source_floor"`
	AdapterTimeout time.Duration `mapstructure:"adapter_timeout"`
	MemoTTL        time.Duration `mapstructure:"memo_ttl"`
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level string `mapstructure:"level"`
}

// Load loads configuration from environment variables and config files
func Load() (*Config, error) {
	v := viper.New()

	// Set config name and paths
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/fittrack/")

	// Environment variable settings
	v.SetEnvPrefix("FITTRACK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Set default values
	setDefaults(v)

	// Read config file (optional - will use env vars if file doesn't exist)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found; using environment variables and defaults
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	// Validate configuration
	if err := validate(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.allowed_origins", []string{"http://localhost:5173"})

	// Keys without a real default still need an empty one registered:
	// Unmarshal only materializes keys viper already knows, so without it
	// the FITTRACK_* env overrides would never be seen. Blank credentials
	// make the adapter degrade to empty results.
	v.SetDefault("database.dsn", "")
	v.SetDefault("nutritionix.app_id", "")
	v.SetDefault("nutritionix.app_key", "")
	v.SetDefault("usda.api_key", "")

	// Provider defaults
	v.SetDefault("nutritionix.base_url", "https://trackapi.nutritionix.com/v2")
	v.SetDefault("usda.base_url", "https://api.nal.usda.gov/fdc")
	v.SetDefault("openfoodfacts.base_url", "https://world.openfoodfacts.org")
	v.SetDefault("openfoodfacts.user_agent", "FitTrack - Nutrition Tracker - Version 1.0")
	v.SetDefault("openfoodfacts.enabled", true)

	// Aggregator defaults
	v.SetDefault("aggregator.per_source_floor", 5)
	v.SetDefault("aggregator.adapter_timeout", "10s")
	v.SetDefault("aggregator.memo_ttl", "60s")

	// Log defaults
	v.SetDefault("log.level", "info")
}

// validate validates the configuration
func validate(config *Config) error {
	if config.Database.DSN == "" {
		return fmt.Errorf("database DSN is required (set FITTRACK_DATABASE_DSN)")
	}

	if config.Aggregator.PerSourceFloor < 1 {
		return fmt.Errorf("aggregator per_source_floor must be at least 1, got: %d", config.Aggregator.PerSourceFloor)
	}

	if config.Aggregator.AdapterTimeout <= 0 {
		return fmt.Errorf("aggregator adapter_timeout must be positive, got: %s", config.Aggregator.AdapterTimeout)
	}

	return nil
}
