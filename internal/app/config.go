package app

import (
	"errors"
	"fmt"

	"github.com/vk/aether/internal/tree"
)

// Config holds all the necessary configuration for an App instance to run.
type Config struct {
	ModulesPath string // extra .hcl manifests on disk
	ScenePath   string // scene applied at startup
	JournalPath string // where inbound commands are recorded

	ListenAddr      string
	HealthcheckPort int
	FPS             int
	Mode            string
	Width           int
	Height          int

	LogFormat string
	LogLevel  string
}

// NewConfig validates cfg and fills defaults.
func NewConfig(cfg Config) (*Config, error) {
	if cfg.Mode == "" {
		cfg.Mode = "dev"
	}
	if _, err := tree.ParseMode(cfg.Mode); err != nil {
		return nil, err
	}
	if cfg.FPS < 0 {
		return nil, fmt.Errorf("fps must not be negative, got %d", cfg.FPS)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, fmt.Errorf("surface size must be positive, got %dx%d", cfg.Width, cfg.Height)
	}
	if cfg.HealthcheckPort < 0 {
		return nil, errors.New("healthcheck port must not be negative")
	}
	return &cfg, nil
}

// TreeMode returns the parsed tree mode.
func (c *Config) TreeMode() tree.Mode {
	m, _ := tree.ParseMode(c.Mode)
	return m
}
