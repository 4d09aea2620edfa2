/*
Package config loads service configuration.

PURPOSE:
  Configuration comes from environment variables and an optional yaml
  file (config.yaml in the working directory or ./config). Environment
  variables win; a missing file is fine. Defaults make the service
  runnable against a local commerce twin with no configuration at all.
*/
package config

import (
	"strings"

	"github.com/spf13/viper"
)

// Config holds all configuration for the service.
type Config struct {
	Server   ServerConfig
	Platform PlatformConfig
	Program  ProgramConfig
	LogLevel string
}

// ServerConfig holds the HTTP server settings.
type ServerConfig struct {
	Port           string
	AllowedOrigins []string
	// AdminToken guards the account-initialization endpoint.
	AdminToken string
}

// PlatformConfig holds the commerce platform connection settings.
type PlatformConfig struct {
	// Endpoint is the platform's GraphQL URL.
	Endpoint string
	// AdminToken is the elevated credential used only for account
	// initialization.
	AdminToken string
	// TimeoutSeconds bounds every platform call.
	TimeoutSeconds int
}

// ProgramConfig holds the loyalty program's earn parameters.
type ProgramConfig struct {
	PointsPerDollar float64
	SignupBonus     int
	SpecialEvent    bool
	EventMultiplier float64
}

// Load reads configuration from the environment and optional yaml file.
func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		// Environment-only configuration is supported; only a malformed
		// file is an error.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults() {
	viper.SetDefault("Server.Port", "8080")
	viper.SetDefault("Server.AllowedOrigins", []string{"http://localhost:3000"})
	viper.SetDefault("Server.AdminToken", "")
	viper.SetDefault("Platform.Endpoint", "http://localhost:9090/graphql")
	viper.SetDefault("Platform.AdminToken", "twin-admin")
	viper.SetDefault("Platform.TimeoutSeconds", 10)
	viper.SetDefault("Program.PointsPerDollar", 1.0)
	viper.SetDefault("Program.SignupBonus", 200)
	viper.SetDefault("Program.SpecialEvent", false)
	viper.SetDefault("Program.EventMultiplier", 2.0)
	viper.SetDefault("LogLevel", "info")
}
