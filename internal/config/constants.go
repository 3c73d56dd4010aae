package config

const (
	ServiceName    = "diagnostic-core"
	ServiceVersion = "v0.1.0"
	APIVersion     = "v1"

	// DefaultMaxFrameSize bounds a single device protocol frame payload (spec §4.1).
	DefaultMaxFrameSize = 4096

	DefaultShutdownTimeoutSeconds = 30

	DefaultRetryAttempts = 3
	DefaultRetryDelayMS  = 1000
)

// Environment-specific overrides applied by LoadEnvironmentConfig.
var (
	ProductionLogLevel  = "warn"
	StagingLogLevel     = "info"
	DevelopmentLogLevel = "debug"
	TestLogLevel        = "error"
)
