// Package config loads server configuration from the environment.
package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// Config is the server configuration. Values come from TRACKBET_*
// environment variables; command-line flags override them in main.
type Config struct {
	Port       int    `env:"TRACKBET_PORT" envDefault:"8081"`
	DBPath     string `env:"TRACKBET_DB" envDefault:"trackbet.db"`
	LogLevel   string `env:"TRACKBET_LOG_LEVEL" envDefault:"info"`
	MaxRaces   int    `env:"TRACKBET_MAX_RACES" envDefault:"4"`
	MaxPlayers int    `env:"TRACKBET_MAX_PLAYERS" envDefault:"9"`

	// BaseURL is the externally reachable address advertised in join
	// QR codes. Detected from the LAN address when empty.
	BaseURL string `env:"TRACKBET_BASE_URL"`
}

// FromEnv parses configuration from the environment
func FromEnv() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}
