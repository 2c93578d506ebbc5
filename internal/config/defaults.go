package config

const (
	defaultWorkspaceDir       = "~/.local/share/mediascribe/workspaces"
	defaultLogDir             = "~/.local/share/mediascribe/logs"
	defaultProvider           = "openai"
	defaultModel              = "gpt-4o-mini"
	defaultPromptStyle        = "detailed"
	defaultLockTimeoutSeconds = 10
	defaultMonitorPollSeconds = 2
	defaultNotifyTimeout      = 10
	defaultLogFormat          = "console"
	defaultLogLevel           = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			WorkspaceDir: defaultWorkspaceDir,
			LogDir:       defaultLogDir,
		},
		Processing: Processing{
			Provider:    defaultProvider,
			Model:       defaultModel,
			PromptStyle: defaultPromptStyle,
		},
		Store: Store{
			LockTimeoutSeconds: defaultLockTimeoutSeconds,
			MonitorPollSeconds: defaultMonitorPollSeconds,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNotifyTimeout,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
