package server

// MetadataServerConfig holds history store configuration
type MetadataServerConfig struct {
	Type   string               `mapstructure:"type"   yaml:"type"   toml:"type"`
	SQLite MetadataSQLiteConfig `mapstructure:"sqlite" yaml:"sqlite" toml:"sqlite"`
}

// MetadataSQLiteConfig holds SQLite-specific configuration
type MetadataSQLiteConfig struct {
	Path string `mapstructure:"path" yaml:"path" toml:"path"`
}

// Enabled reports whether events and moves are persisted.
func (c MetadataServerConfig) Enabled() bool {
	return c.Type != "" && c.Type != "none"
}
