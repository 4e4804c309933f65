// Package config provides configuration management for the application.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server      ServerConfig   `mapstructure:"server"`
	Client      ClientConfig   `mapstructure:"client"`
	Behavior    BehaviorConfig `mapstructure:"behavior"`
	UI          UIConfig       `mapstructure:"ui"`
	Credentials Credentials    `mapstructure:"-"` // Loaded separately
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Addr         string `mapstructure:"addr"`
	DBPath       string `mapstructure:"db_path"`
	DefaultModel string `mapstructure:"default_model"`
}

// ClientConfig holds API client configuration.
type ClientConfig struct {
	BaseURL       string `mapstructure:"base_url"`
	DefaultSymbol string `mapstructure:"default_symbol"`
	ChartPoints   int    `mapstructure:"chart_points"`
	StatePath     string `mapstructure:"state_path"`
}

// BehaviorConfig holds the behavior pattern detection thresholds.
type BehaviorConfig struct {
	LossStreakMin        int           `mapstructure:"loss_streak_min"`
	LossStreakHigh       int           `mapstructure:"loss_streak_high"`
	RevengeWindow        time.Duration `mapstructure:"revenge_window"`
	RapidReentryWindow   time.Duration `mapstructure:"rapid_reentry_window"`
	OversizeMultiple     float64       `mapstructure:"oversize_multiple"`
	OversizeHighMultiple float64       `mapstructure:"oversize_high_multiple"`
	SizingVarianceBand   float64       `mapstructure:"sizing_variance_band"`
	ImprovingWindow      int           `mapstructure:"improving_window"`
}

// UIConfig holds terminal output configuration.
type UIConfig struct {
	ColorEnabled bool   `mapstructure:"color_enabled"`
	DateFormat   string `mapstructure:"date_format"`
	TimeFormat   string `mapstructure:"time_format"`
}

// Credentials holds API credentials.
type Credentials struct {
	OpenAI OpenAICredentials `mapstructure:"openai"`
	Auth   AuthCredentials   `mapstructure:"auth"`
}

// OpenAICredentials holds OpenAI API credentials.
type OpenAICredentials struct {
	APIKey  string `mapstructure:"api_key"`
	BaseURL string `mapstructure:"base_url"`
	Model   string `mapstructure:"model"`
}

// AuthCredentials holds the cached bearer token for the backend API.
type AuthCredentials struct {
	Token string `mapstructure:"token"`
}

// DefaultConfigDir returns the default configuration directory.
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".config/marketmind"
	}
	return filepath.Join(home, ".config", "marketmind")
}

// Load loads configuration from the specified directory.
// If configDir is empty, uses the default config directory.
func Load(configDir string) (*Config, error) {
	if configDir == "" {
		configDir = DefaultConfigDir()
	}

	cfg := &Config{}

	if err := loadConfigFile(configDir, cfg); err != nil {
		return nil, fmt.Errorf("loading config.toml: %w", err)
	}

	if err := loadCredentials(configDir, &cfg.Credentials); err != nil {
		return nil, fmt.Errorf("loading credentials.toml: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

func loadConfigFile(configDir string, target *Config) error {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(configDir)

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			if err := createTemplateConfig(configDir); err != nil {
				return err
			}
			return v.Unmarshal(target)
		}
		return err
	}

	return v.Unmarshal(target)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", ":8000")
	v.SetDefault("server.db_path", filepath.Join(DefaultConfigDir(), "marketmind.db"))
	v.SetDefault("server.default_model", "gpt-4o-mini")

	v.SetDefault("client.base_url", "http://localhost:8000/api/v1")
	v.SetDefault("client.default_symbol", "EURUSD")
	v.SetDefault("client.chart_points", 50)
	v.SetDefault("client.state_path", filepath.Join(DefaultConfigDir(), "session.db"))

	v.SetDefault("behavior.loss_streak_min", 3)
	v.SetDefault("behavior.loss_streak_high", 5)
	v.SetDefault("behavior.revenge_window", 15*time.Minute)
	v.SetDefault("behavior.rapid_reentry_window", 5*time.Minute)
	v.SetDefault("behavior.oversize_multiple", 2.0)
	v.SetDefault("behavior.oversize_high_multiple", 3.0)
	v.SetDefault("behavior.sizing_variance_band", 0.25)
	v.SetDefault("behavior.improving_window", 5)

	v.SetDefault("ui.color_enabled", true)
	v.SetDefault("ui.date_format", "02-Jan-2006")
	v.SetDefault("ui.time_format", "15:04:05")
}

func loadCredentials(configDir string, creds *Credentials) error {
	v := viper.New()
	v.SetConfigName("credentials")
	v.SetConfigType("toml")
	v.AddConfigPath(configDir)

	v.SetDefault("openai.model", "gpt-4o-mini")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return createTemplateCredentials(configDir)
		}
		return err
	}

	return v.Unmarshal(creds)
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		cfg.Credentials.OpenAI.APIKey = v
	}
	if v := os.Getenv("OPENAI_BASE_URL"); v != "" {
		cfg.Credentials.OpenAI.BaseURL = v
	}
	if v := os.Getenv("MARKETMIND_API_URL"); v != "" {
		cfg.Client.BaseURL = v
	}
	if v := os.Getenv("MARKETMIND_ADDR"); v != "" {
		cfg.Server.Addr = v
	}
	if v := os.Getenv("MARKETMIND_TOKEN"); v != "" {
		cfg.Credentials.Auth.Token = v
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Behavior.LossStreakMin < 1 {
		return fmt.Errorf("loss_streak_min must be at least 1")
	}
	if c.Behavior.LossStreakHigh < c.Behavior.LossStreakMin {
		return fmt.Errorf("loss_streak_high must be >= loss_streak_min")
	}
	if c.Behavior.OversizeMultiple <= 1 {
		return fmt.Errorf("oversize_multiple must be greater than 1")
	}
	if c.Behavior.OversizeHighMultiple < c.Behavior.OversizeMultiple {
		return fmt.Errorf("oversize_high_multiple must be >= oversize_multiple")
	}
	if c.Behavior.RevengeWindow <= 0 || c.Behavior.RapidReentryWindow <= 0 {
		return fmt.Errorf("detection windows must be positive")
	}
	if c.Client.ChartPoints <= 0 {
		return fmt.Errorf("chart_points must be positive")
	}
	return nil
}
