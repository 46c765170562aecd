package config

const (
	defaultDataDir        = "~/.local/share/fieldsync/data"
	defaultLogDir         = "~/.local/share/fieldsync/logs"
	defaultRequestTimeout = 30
	defaultHealthPath     = "/health"
	defaultFlushInterval  = 30
	defaultMaxRetries     = 5
	defaultProbeInterval  = 15
	defaultProbeTimeout   = 5
	defaultLogFormat      = "console"
	defaultLogLevel       = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir: defaultDataDir,
			LogDir:  defaultLogDir,
		},
		Backend: Backend{
			RequestTimeout: defaultRequestTimeout,
			HealthPath:     defaultHealthPath,
		},
		Sync: Sync{
			FlushInterval: defaultFlushInterval,
			MaxRetries:    defaultMaxRetries,
		},
		Network: Network{
			ProbeInterval: defaultProbeInterval,
			ProbeTimeout:  defaultProbeTimeout,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
