package server

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

type BaseServerConfig struct {
	ShutdownTimeout string `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout" toml:"shutdown_timeout"`

	Log      LogServerConfig      `mapstructure:"log"      yaml:"log"      toml:"log"`
	Groups   GroupsServerConfig   `mapstructure:"groups"   yaml:"groups"   toml:"groups"`
	Watch    WatchServerConfig    `mapstructure:"watch"    yaml:"watch"    toml:"watch"`
	Content  ContentServerConfig  `mapstructure:"content"  yaml:"content"  toml:"content"`
	Metadata MetadataServerConfig `mapstructure:"metadata" yaml:"metadata" toml:"metadata"`
	Lock     LockServerConfig     `mapstructure:"lock"     yaml:"lock"     toml:"lock"`
}

// GroupsServerConfig points to the persisted group document
type GroupsServerConfig struct {
	Path string `mapstructure:"path" yaml:"path" toml:"path"`
}

// ContentServerConfig limits content based rule evaluation
type ContentServerConfig struct {
	MaxFileSize int64 `mapstructure:"max_file_size" yaml:"max_file_size" toml:"max_file_size"`
}

// LockServerConfig holds the single instance lock file
type LockServerConfig struct {
	Path string `mapstructure:"path" yaml:"path" toml:"path"`
}

func LoadServerConfig() (*BaseServerConfig, error) {
	cfg := &BaseServerConfig{}

	setDefaults()

	if err := viper.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	return cfg, nil
}

// ParseDuration parses a configured duration, returning fallback for empty
// or invalid values.
func ParseDuration(value string, fallback time.Duration) time.Duration {
	if value == "" {
		return fallback
	}
	d, err := time.ParseDuration(value)
	if err != nil || d < 0 {
		return fallback
	}
	return d
}
