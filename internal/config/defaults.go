package config

const (
	defaultDataDir               = "~/.local/share/scout"
	defaultLogDir                = "~/.local/share/scout/logs"
	defaultAPIBind               = "127.0.0.1:7519"
	defaultDebounceMs            = 500
	defaultEventBuffer           = 256
	defaultPermissionPollSeconds = 2
	defaultPermissionPollMax     = 15
	defaultNtfyRequestTimeout    = 10
	defaultLogFormat             = "console"
	defaultLogLevel              = "info"
)

// defaultCommonFolders are the pre-seeded protected entries on first run.
var defaultCommonFolders = []string{
	"~/Desktop",
	"~/Documents",
	"~/Downloads",
}

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir: defaultDataDir,
			LogDir:  defaultLogDir,
			APIBind: defaultAPIBind,
		},
		Watcher: Watcher{
			DebounceMs:  defaultDebounceMs,
			EventBuffer: defaultEventBuffer,
		},
		Permission: Permission{
			PollIntervalSeconds: defaultPermissionPollSeconds,
			PollMaxAttempts:     defaultPermissionPollMax,
		},
		Folders: Folders{
			CommonFolders: append([]string(nil), defaultCommonFolders...),
		},
		Notifications: Notifications{
			RequestTimeout: defaultNtfyRequestTimeout,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
