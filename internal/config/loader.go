package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/viper"
)

// Load loads configuration from, in priority order: environment variables,
// configs/config.yaml, then defaults.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("/etc/bscore/")
	v.AddConfigPath("./configs/")
	v.AddConfigPath(".")

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.SetEnvPrefix("BSCORE")

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	overrideWithEnvVars(v)

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

func setDefaults(v *viper.Viper) {
	d := GetDefaultConfig()

	v.SetDefault("environment", d.Environment)
	v.SetDefault("log_level", d.LogLevel)

	v.SetDefault("device_server.listen_addr", d.DeviceServer.ListenAddr)
	v.SetDefault("device_server.read_timeout_seconds", d.DeviceServer.ReadTimeout)
	v.SetDefault("device_server.max_frame_size", d.DeviceServer.MaxFrameSize)
	v.SetDefault("device_server.accept_queue_size", d.DeviceServer.AcceptQueueSize)

	v.SetDefault("http_server.listen_addr", d.HTTPServer.ListenAddr)
	v.SetDefault("http_server.cors.allowed_origins", d.HTTPServer.CORS.AllowedOrigins)
	v.SetDefault("http_server.cors.allowed_methods", d.HTTPServer.CORS.AllowedMethods)
	v.SetDefault("http_server.cors.allowed_headers", d.HTTPServer.CORS.AllowedHeaders)
	v.SetDefault("http_server.cors.allow_credentials", d.HTTPServer.CORS.AllowCredentials)
	v.SetDefault("http_server.cors.max_age", d.HTTPServer.CORS.MaxAge)

	v.SetDefault("analyzer.z_threshold", d.Analyzer.ZThreshold)
	v.SetDefault("analyzer.isolation_trees", d.Analyzer.IsolationTrees)
	v.SetDefault("analyzer.isolation_sample_size", d.Analyzer.IsolationSampleSize)
	v.SetDefault("analyzer.isolation_contamination", d.Analyzer.IsolationContamination)
	v.SetDefault("analyzer.rolling_window_capacity", d.Analyzer.RollingWindowCapacity)
	v.SetDefault("analyzer.rolling_window_retention", d.Analyzer.RollingWindowRetention)
	v.SetDefault("analyzer.min_samples_for_anomaly", d.Analyzer.MinSamplesForAnomaly)

	v.SetDefault("correlator.dbscan_eps_seconds", d.Correlator.DBSCANEpsSeconds)
	v.SetDefault("correlator.dbscan_min_samples", d.Correlator.DBSCANMinSamples)
	v.SetDefault("correlator.temporal_window_seconds", d.Correlator.TemporalWindow)

	v.SetDefault("orchestrator.max_concurrent_per_station", d.Orchestrator.MaxConcurrentPerStation)
	v.SetDefault("orchestrator.default_timeout", d.Orchestrator.DefaultTimeout)
	v.SetDefault("orchestrator.tick_interval", d.Orchestrator.TickInterval)
	v.SetDefault("orchestrator.history_capacity", d.Orchestrator.HistoryCapacity)

	v.SetDefault("cache.addr", d.Cache.Addr)
	v.SetDefault("cache.ttl", d.Cache.TTL)
	v.SetDefault("cache.db", d.Cache.DB)
	v.SetDefault("cache.cluster", d.Cache.Cluster)

	v.SetDefault("auth.max_clock_skew", d.Auth.MaxClockSkew)
}

// overrideWithEnvVars explicitly handles a handful of deployment-friendly
// environment variables beyond viper's automatic BSCORE_ prefix binding.
func overrideWithEnvVars(v *viper.Viper) {
	if env := os.Getenv("ENVIRONMENT"); env != "" {
		v.Set("environment", env)
	}

	if logLevel := os.Getenv("LOG_LEVEL"); logLevel != "" {
		v.Set("log_level", logLevel)
	}

	if addr := os.Getenv("DEVICE_SERVER_ADDR"); addr != "" {
		v.Set("device_server.listen_addr", addr)
	}

	if addr := os.Getenv("HTTP_SERVER_ADDR"); addr != "" {
		v.Set("http_server.listen_addr", addr)
	}

	if nodes := os.Getenv("CACHE_NODES"); nodes != "" {
		split := strings.Split(nodes, ",")
		for i, n := range split {
			split[i] = strings.TrimSpace(n)
		}
		v.Set("cache.nodes", split)
		v.Set("cache.cluster", true)
	}

	if ttl := os.Getenv("CACHE_TTL"); ttl != "" {
		if n, err := strconv.Atoi(ttl); err == nil {
			v.Set("cache.ttl", n)
		}
	}

	if secret := os.Getenv("INTERNAL_AUTH_SECRET"); secret != "" {
		v.Set("auth.internal_shared_secret", secret)
	}
}

func validateConfig(config *Config) error {
	if config.DeviceServer.ListenAddr == "" {
		return fmt.Errorf("device_server.listen_addr is required")
	}

	if config.DeviceServer.MaxFrameSize < 1 || config.DeviceServer.MaxFrameSize > 65535 {
		return fmt.Errorf("device_server.max_frame_size must be between 1 and 65535")
	}

	if config.HTTPServer.ListenAddr == "" {
		return fmt.Errorf("http_server.listen_addr is required")
	}

	validLogLevels := []string{"debug", "info", "warn", "error", "fatal"}
	if !contains(validLogLevels, config.LogLevel) {
		return fmt.Errorf("invalid log level: %s", config.LogLevel)
	}

	validEnvironments := []string{"development", "staging", "production", "test"}
	if !contains(validEnvironments, config.Environment) {
		return fmt.Errorf("invalid environment: %s", config.Environment)
	}

	if config.Analyzer.ZThreshold <= 0 {
		return fmt.Errorf("analyzer.z_threshold must be positive")
	}

	if config.Analyzer.IsolationContamination <= 0 || config.Analyzer.IsolationContamination >= 1 {
		return fmt.Errorf("analyzer.isolation_contamination must be between 0 and 1")
	}

	if config.Correlator.DBSCANMinSamples < 1 {
		return fmt.Errorf("correlator.dbscan_min_samples must be at least 1")
	}

	if config.Orchestrator.MaxConcurrentPerStation < 1 {
		return fmt.Errorf("orchestrator.max_concurrent_per_station must be at least 1")
	}

	if config.Cache.TTL < 0 {
		return fmt.Errorf("cache.ttl cannot be negative")
	}

	if config.Environment == "production" && config.Auth.InternalSharedSecret == "" {
		return fmt.Errorf("auth.internal_shared_secret is required in production")
	}

	return nil
}
