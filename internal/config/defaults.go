package config

import "time"

// GetDefaultConfig returns a configuration with all default values.
func GetDefaultConfig() *Config {
	return &Config{
		Environment: "development",
		LogLevel:    "info",

		DeviceServer: DeviceServerConfig{
			ListenAddr:      ":9000",
			ReadTimeout:     5,
			MaxFrameSize:    DefaultMaxFrameSize,
			AcceptQueueSize: 128,
		},

		HTTPServer: HTTPServerConfig{
			ListenAddr: ":8080",
			CORS: CORSConfig{
				AllowedOrigins:   []string{"*"},
				AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
				AllowedHeaders:   []string{"Content-Type", "X-Internal-Auth"},
				AllowCredentials: true,
				MaxAge:           3600,
			},
		},

		Analyzer: AnalyzerConfig{
			ZThreshold:             3.0,
			IsolationTrees:         100,
			IsolationSampleSize:    256,
			IsolationContamination: 0.05,
			RollingWindowCapacity:  1000,
			RollingWindowRetention: 24 * time.Hour,
			MinSamplesForAnomaly:   30,
		},

		Correlator: CorrelatorConfig{
			DBSCANEpsSeconds: 60,
			DBSCANMinSamples: 2,
			TemporalWindow:   300,
		},

		Orchestrator: OrchestratorConfig{
			MaxConcurrentPerStation: 5,
			DefaultTimeout:          300 * time.Second,
			TickInterval:            1 * time.Second,
			HistoryCapacity:         1000,
		},

		Cache: CacheConfig{
			Addr: "localhost:6379",
			TTL:  60,
			DB:   0,
		},

		Auth: AuthConfig{
			MaxClockSkew: 5 * time.Minute,
		},
	}
}
