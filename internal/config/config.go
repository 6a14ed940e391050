// Package config provides configuration management for the backlinkd service.
// Values come from a YAML config file and environment variables, with
// production-safe defaults.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/madx/backlinkd/internal/api"
	"github.com/madx/backlinkd/internal/fetch"
	"github.com/madx/backlinkd/internal/logger"
	"github.com/madx/backlinkd/internal/rating"
	"github.com/madx/backlinkd/internal/scheduler"
	"github.com/madx/backlinkd/internal/sse"
)

// OnDemandFetchTimeout bounds fetches for synchronous single checks, where an
// external caller is waiting on the response.
const OnDemandFetchTimeout = 8 * time.Second

// AppConfig identifies the running service.
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Environment string `mapstructure:"environment"`
	Debug       bool   `mapstructure:"debug"`
}

// Config is the full application configuration.
type Config struct {
	App       AppConfig        `mapstructure:"app"`
	Logger    logger.Config    `mapstructure:"logger"`
	Server    api.Config       `mapstructure:"server"`
	Fetch     fetch.Config     `mapstructure:"fetch"`
	Scheduler scheduler.Config `mapstructure:"scheduler"`
	Ahrefs    rating.Config    `mapstructure:"ahrefs"`
	SSE       sse.Config       `mapstructure:"sse"`
}

// Initialize configures Viper: loads .env, wires environment variables, sets
// defaults and reads an optional config file. Must be called before Load.
func Initialize() error {
	// Missing .env is fine
	_ = godotenv.Load()

	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")

	setDefaults()

	// Missing config file is fine, env and defaults cover everything
	_ = viper.ReadInConfig()

	if err := bindEnvironmentVariables(); err != nil {
		return fmt.Errorf("failed to bind environment variables: %w", err)
	}

	return nil
}

// Load unmarshals the configuration initialized by Initialize.
func Load() (*Config, error) {
	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	cfg.Logger.SetDefaults()
	cfg.Server.SetDefaults()
	cfg.Fetch.SetDefaults()
	cfg.Scheduler.SetDefaults()
	cfg.Ahrefs.SetDefaults()

	return &cfg, nil
}

// bindEnvironmentVariables binds well-known environment variables to config keys.
func bindEnvironmentVariables() error {
	binds := map[string]string{
		"app.environment": "APP_ENV",
		"app.debug":       "APP_DEBUG",
		"logger.level":    "LOG_LEVEL",
		"server.port":     "PORT",
		"ahrefs.api_key":  "AHREFS_API",
	}

	for key, env := range binds {
		if err := viper.BindEnv(key, env); err != nil {
			return fmt.Errorf("bind %s: %w", key, err)
		}
	}

	return nil
}

// setDefaults sets production-safe default configuration values.
func setDefaults() {
	viper.SetDefault("app", map[string]any{
		"name":        "backlinkd",
		"environment": "production",
		"debug":       false,
	})

	viper.SetDefault("logger", map[string]any{
		"level":        "info",
		"development":  false,
		"output_paths": []string{"stdout"},
	})

	viper.SetDefault("server", map[string]any{
		"port":             8080,
		"read_timeout":     "10s",
		"idle_timeout":     "120s",
		"shutdown_timeout": "10s",
	})

	viper.SetDefault("fetch", map[string]any{
		"timeout":       "15s",
		"max_redirects": 5,
	})

	viper.SetDefault("scheduler", map[string]any{
		"pacing_interval": "1s",
	})

	viper.SetDefault("ahrefs", map[string]any{
		"timeout": "10s",
	})

	viper.SetDefault("sse", map[string]any{
		"event_buffer_size":  1000,
		"client_buffer_size": 100,
		"heartbeat_interval": "15s",
		"shutdown_timeout":   "5s",
		"max_clients":        1000,
	})
}
