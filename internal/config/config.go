package config

import "time"

// Config is the root configuration for the diagnostic core service.
type Config struct {
	Environment string `mapstructure:"environment" yaml:"environment"`
	LogLevel    string `mapstructure:"log_level" yaml:"log_level"`

	DeviceServer DeviceServerConfig `mapstructure:"device_server" yaml:"device_server"`
	HTTPServer   HTTPServerConfig   `mapstructure:"http_server" yaml:"http_server"`
	Analyzer     AnalyzerConfig     `mapstructure:"analyzer" yaml:"analyzer"`
	Correlator   CorrelatorConfig   `mapstructure:"correlator" yaml:"correlator"`
	Orchestrator OrchestratorConfig `mapstructure:"orchestrator" yaml:"orchestrator"`
	Cache        CacheConfig        `mapstructure:"cache" yaml:"cache"`
	Auth         AuthConfig         `mapstructure:"auth" yaml:"auth"`
}

// DeviceServerConfig controls the TCP listener speaking the base station wire
// protocol (frame codec in internal/protocol).
type DeviceServerConfig struct {
	ListenAddr      string `mapstructure:"listen_addr" yaml:"listen_addr"`
	ReadTimeout     int    `mapstructure:"read_timeout_seconds" yaml:"read_timeout_seconds"`
	MaxFrameSize    int    `mapstructure:"max_frame_size" yaml:"max_frame_size"`
	AcceptQueueSize int    `mapstructure:"accept_queue_size" yaml:"accept_queue_size"`
}

// HTTPServerConfig controls the gin façade and websocket fan-out.
type HTTPServerConfig struct {
	ListenAddr string     `mapstructure:"listen_addr" yaml:"listen_addr"`
	CORS       CORSConfig `mapstructure:"cors" yaml:"cors"`
}

// CORSConfig handles Cross-Origin Resource Sharing for the HTTP façade.
type CORSConfig struct {
	AllowedOrigins   []string `mapstructure:"allowed_origins" yaml:"allowed_origins"`
	AllowedMethods   []string `mapstructure:"allowed_methods" yaml:"allowed_methods"`
	AllowedHeaders   []string `mapstructure:"allowed_headers" yaml:"allowed_headers"`
	AllowCredentials bool     `mapstructure:"allow_credentials" yaml:"allow_credentials"`
	MaxAge           int      `mapstructure:"max_age" yaml:"max_age"`
}

// AnalyzerConfig tunes the rolling-window store, Z-score detector and
// isolation forest (internal/stats, internal/anomaly).
type AnalyzerConfig struct {
	ZThreshold              float64       `mapstructure:"z_threshold" yaml:"z_threshold"`
	IsolationTrees          int           `mapstructure:"isolation_trees" yaml:"isolation_trees"`
	IsolationSampleSize     int           `mapstructure:"isolation_sample_size" yaml:"isolation_sample_size"`
	IsolationContamination  float64       `mapstructure:"isolation_contamination" yaml:"isolation_contamination"`
	RollingWindowCapacity   int           `mapstructure:"rolling_window_capacity" yaml:"rolling_window_capacity"`
	RollingWindowRetention  time.Duration `mapstructure:"rolling_window_retention" yaml:"rolling_window_retention"`
	MinSamplesForAnomaly    int           `mapstructure:"min_samples_for_anomaly" yaml:"min_samples_for_anomaly"`
}

// CorrelatorConfig tunes the alarm correlation DBSCAN pass (internal/correlate).
type CorrelatorConfig struct {
	DBSCANEpsSeconds int `mapstructure:"dbscan_eps_seconds" yaml:"dbscan_eps_seconds"`
	DBSCANMinSamples int `mapstructure:"dbscan_min_samples" yaml:"dbscan_min_samples"`
	TemporalWindow   int `mapstructure:"temporal_window_seconds" yaml:"temporal_window_seconds"`
}

// OrchestratorConfig tunes the self-healing action queue (internal/heal).
type OrchestratorConfig struct {
	MaxConcurrentPerStation int           `mapstructure:"max_concurrent_per_station" yaml:"max_concurrent_per_station"`
	DefaultTimeout          time.Duration `mapstructure:"default_timeout" yaml:"default_timeout"`
	TickInterval            time.Duration `mapstructure:"tick_interval" yaml:"tick_interval"`
	HistoryCapacity         int           `mapstructure:"history_capacity" yaml:"history_capacity"`
}

// CacheConfig handles the Valkey/Redis result-memoization cache (pkg/cache).
type CacheConfig struct {
	Addr     string   `mapstructure:"addr" yaml:"addr"`
	Nodes    []string `mapstructure:"nodes" yaml:"nodes"`
	Cluster  bool     `mapstructure:"cluster" yaml:"cluster"`
	TTL      int      `mapstructure:"ttl" yaml:"ttl"` // seconds
	Password string   `mapstructure:"password" yaml:"password"`
	DB       int      `mapstructure:"db" yaml:"db"`
}

// AuthConfig holds the internal HMAC boundary authentication secret.
type AuthConfig struct {
	InternalSharedSecret string        `mapstructure:"internal_shared_secret" yaml:"internal_shared_secret"`
	MaxClockSkew         time.Duration `mapstructure:"max_clock_skew" yaml:"max_clock_skew"`
}
