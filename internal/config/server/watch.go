package server

// WatchServerConfig controls the watch and scan loops
type WatchServerConfig struct {
	PollInterval string `mapstructure:"poll_interval" yaml:"poll_interval" toml:"poll_interval"`
	ScanInterval string `mapstructure:"scan_interval" yaml:"scan_interval" toml:"scan_interval"`
	JoinTimeout  string `mapstructure:"join_timeout"  yaml:"join_timeout"  toml:"join_timeout"`
	Debounce     string `mapstructure:"debounce"      yaml:"debounce"      toml:"debounce"`
	WatchDelete  bool   `mapstructure:"watch_delete"  yaml:"watch_delete"  toml:"watch_delete"`
	// Ignore lists glob patterns of files never processed. An empty list
	// forwards every file.
	Ignore []string `mapstructure:"ignore" yaml:"ignore" toml:"ignore"`
}

// DefaultIgnorePatterns matches files still being written by browsers and
// editors.
func DefaultIgnorePatterns() []string {
	return []string{
		"*.tmp",
		"*.part",
		"*.download",
		"*.crdownload",
		"*.partial",
		".~*",
	}
}
