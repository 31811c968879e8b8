package config

const (
	defaultDataDir               = "~/.local/share/satchel/data"
	defaultLogDir                = "~/.local/share/satchel/logs"
	defaultLogFormat             = "console"
	defaultLogLevel              = "info"
	defaultLogMaxSizeMB          = 20
	defaultLogMaxBackups         = 5
	defaultLogMaxAgeDays         = 60
	defaultClientName            = "Satchel"
	defaultClientVersion         = "dev"
	defaultMaxNewDownloads       = 10
	defaultProgressOnlyThreshold = 2
	defaultDownloadTimeout       = 0 // no timeout; transfers can be large
	defaultNotifyRequestTimeout  = 10
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir: defaultDataDir,
			LogDir:  defaultLogDir,
		},
		Client: Client{
			Name:    defaultClientName,
			Version: defaultClientVersion,
		},
		Sync: Sync{
			MaxNewDownloads:       defaultMaxNewDownloads,
			ProgressOnlyThreshold: defaultProgressOnlyThreshold,
			CheckFileExistence:    true,
		},
		Logging: Logging{
			Format:     defaultLogFormat,
			Level:      defaultLogLevel,
			MaxSizeMB:  defaultLogMaxSizeMB,
			MaxBackups: defaultLogMaxBackups,
			MaxAgeDays: defaultLogMaxAgeDays,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNotifyRequestTimeout,
			SyncComplete:   true,
			Errors:         true,
		},
	}
}
