package config

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/bscore/diagnostic-core/pkg/logger"
)

func TestWatcher_ReloadsOnWrite(t *testing.T) {
	dir := t.TempDir()
	configPath := dir + "/config.yaml"
	require.NoError(t, os.WriteFile(configPath, []byte("environment: test\nlog_level: info\ndevice_server:\n  listen_addr: \":9100\"\n"), 0o644))

	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	defer func() { _ = os.Chdir(wd) }()

	initial, err := Load()
	require.NoError(t, err)
	require.Equal(t, "info", initial.LogLevel)

	w := NewWatcher(configPath, initial, logger.New("error"))

	changed := make(chan *Config, 1)
	w.OnChange(func(next *Config) { changed <- next })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = w.Start(ctx) }()

	time.Sleep(50 * time.Millisecond) // let the watcher attach before the write

	require.NoError(t, os.WriteFile(configPath, []byte("environment: test\nlog_level: debug\ndevice_server:\n  listen_addr: \":9100\"\n"), 0o644))

	select {
	case next := <-changed:
		require.Equal(t, "debug", next.LogLevel)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for config reload notification")
	}

	require.Equal(t, "debug", w.Current().LogLevel)
}
