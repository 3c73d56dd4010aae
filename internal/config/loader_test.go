package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigLoading(t *testing.T) {
	t.Run("load from file", func(t *testing.T) {
		configContent := `
environment: test
log_level: debug

device_server:
  listen_addr: ":9100"

cache:
  addr: "test-redis:6379"
  ttl: 30
`
		dir := t.TempDir()
		require.NoError(t, os.WriteFile(dir+"/config.yaml", []byte(configContent), 0o644))

		wd, err := os.Getwd()
		require.NoError(t, err)
		require.NoError(t, os.Chdir(dir))
		defer func() { _ = os.Chdir(wd) }()

		config, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "test", config.Environment)
		assert.Equal(t, "debug", config.LogLevel)
		assert.Equal(t, ":9100", config.DeviceServer.ListenAddr)
		assert.Equal(t, 30, config.Cache.TTL)
	})

	t.Run("env var precedence", func(t *testing.T) {
		os.Setenv("BSCORE_LOG_LEVEL", "warn")
		defer os.Unsetenv("BSCORE_LOG_LEVEL")

		config, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "warn", config.LogLevel)
	})
}

func TestValidateConfig_RejectsBadFrameSize(t *testing.T) {
	config := GetDefaultConfig()
	config.DeviceServer.MaxFrameSize = 0
	err := validateConfig(config)
	assert.Error(t, err)
}

func TestValidateConfig_RequiresInternalSecretInProduction(t *testing.T) {
	config := GetDefaultConfig()
	config.Environment = "production"
	config.Auth.InternalSharedSecret = ""
	err := validateConfig(config)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "internal_shared_secret")
}

func BenchmarkConfigValidation(b *testing.B) {
	config := GetDefaultConfig()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if err := validateConfig(config); err != nil {
			b.Fatal(err)
		}
	}
}
