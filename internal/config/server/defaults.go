package server

import "github.com/spf13/viper"

func GetServerDefault() BaseServerConfig {
	return BaseServerConfig{
		ShutdownTimeout: "10s",

		Log: LogServerConfig{
			Level:      "INFO",
			TimeFormat: "2006-01-02 15:04:05",
			File:       "",
			NoColor:    false,
			JSON:       false,
			NoTerminal: false,
			Rotation: LogServerRotationConfig{
				MaxSize:    128,
				MaxBackups: 5,
				MaxAge:     16,
				Compress:   false,
			},
		},
		Groups: GroupsServerConfig{
			Path: "groups.json",
		},
		Watch: WatchServerConfig{
			PollInterval: "1s",
			ScanInterval: "5s",
			JoinTimeout:  "1s",
			Debounce:     "0s",
			WatchDelete:  false,
			Ignore:       DefaultIgnorePatterns(),
		},
		Content: ContentServerConfig{
			MaxFileSize: 100_000_000,
		},
		Metadata: MetadataServerConfig{
			Type: "sqlite",
			SQLite: MetadataSQLiteConfig{
				Path: "gosort.db",
			},
		},
		Lock: LockServerConfig{
			Path: "gosort.lock",
		},
	}
}

func setDefaults() {
	defaults := GetServerDefault()

	viper.SetDefault("shutdown_timeout", defaults.ShutdownTimeout)

	viper.SetDefault("log.level", defaults.Log.Level)
	viper.SetDefault("log.time_format", defaults.Log.TimeFormat)
	viper.SetDefault("log.file", defaults.Log.File)
	viper.SetDefault("log.no_color", defaults.Log.NoColor)
	viper.SetDefault("log.json", defaults.Log.JSON)
	viper.SetDefault("log.no_terminal", defaults.Log.NoTerminal)
	viper.SetDefault("log.rotation.max_size", defaults.Log.Rotation.MaxSize)
	viper.SetDefault("log.rotation.max_backups", defaults.Log.Rotation.MaxBackups)
	viper.SetDefault("log.rotation.max_age", defaults.Log.Rotation.MaxAge)
	viper.SetDefault("log.rotation.compress", defaults.Log.Rotation.Compress)

	viper.SetDefault("groups.path", defaults.Groups.Path)

	viper.SetDefault("watch.poll_interval", defaults.Watch.PollInterval)
	viper.SetDefault("watch.scan_interval", defaults.Watch.ScanInterval)
	viper.SetDefault("watch.join_timeout", defaults.Watch.JoinTimeout)
	viper.SetDefault("watch.debounce", defaults.Watch.Debounce)
	viper.SetDefault("watch.watch_delete", defaults.Watch.WatchDelete)
	viper.SetDefault("watch.ignore", defaults.Watch.Ignore)

	viper.SetDefault("content.max_file_size", defaults.Content.MaxFileSize)

	viper.SetDefault("metadata.type", defaults.Metadata.Type)
	viper.SetDefault("metadata.sqlite.path", defaults.Metadata.SQLite.Path)

	viper.SetDefault("lock.path", defaults.Lock.Path)
}
