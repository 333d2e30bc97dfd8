// Package config handles YAML configuration loading, environment variable
// expansion, and structural validation for voxscribe.
package config

import (
	"gopkg.in/yaml.v3"

	"github.com/flemzord/voxscribe/internal/telemetry"
	"github.com/flemzord/voxscribe/internal/voice"
)

// Config is the top-level configuration structure.
type Config struct {
	// Version is the config format version. Currently only "1" is supported.
	Version string `yaml:"version"`

	Log     LogConfig        `yaml:"log"`
	Tracing telemetry.Config `yaml:"tracing"`
	Voice   voice.Config     `yaml:"voice"`

	// Modules maps module IDs to their raw YAML configuration.
	// Keys must match registered module IDs (e.g. "channel.telegram").
	Modules map[string]yaml.Node `yaml:"modules"`
}

// LogConfig selects the log handler.
type LogConfig struct {
	// Level is debug, info, warn or error. Defaults to info.
	Level string `yaml:"level"`
	// Format is text or json. Defaults to text.
	Format string `yaml:"format"`
}
