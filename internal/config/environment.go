package config

// LoadEnvironmentConfig loads configuration and applies environment-specific
// overrides on top of it.
func LoadEnvironmentConfig(env string) (*Config, error) {
	base, err := Load()
	if err != nil {
		return nil, err
	}

	switch env {
	case "production":
		return applyProductionConfig(base), nil
	case "staging":
		return applyStagingConfig(base), nil
	case "development":
		return applyDevelopmentConfig(base), nil
	case "test":
		return applyTestConfig(base), nil
	default:
		return base, nil
	}
}

func applyProductionConfig(config *Config) *Config {
	config.LogLevel = ProductionLogLevel
	config.Cache.TTL = 300
	config.HTTPServer.CORS.AllowedOrigins = []string{}
	return config
}

func applyStagingConfig(config *Config) *Config {
	config.LogLevel = StagingLogLevel
	config.Cache.TTL = 120
	return config
}

func applyDevelopmentConfig(config *Config) *Config {
	config.LogLevel = DevelopmentLogLevel
	config.Cache.TTL = 30
	config.HTTPServer.CORS.AllowedOrigins = []string{"*"}
	return config
}

func applyTestConfig(config *Config) *Config {
	config.LogLevel = TestLogLevel
	config.Cache.TTL = 5
	config.Orchestrator.TickInterval = 0
	return config
}
