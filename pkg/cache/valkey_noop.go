package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/bscore/diagnostic-core/pkg/logger"
)

// noopValkeyCache provides an in-memory, process-local fallback that satisfies
// ValkeyCluster when the external cache is unavailable. Best-effort, used for
// degraded operation: predictions and RCA results simply get recomputed more
// often instead of coming from cache.
type noopValkeyCache struct {
	m      map[string][]byte
	mu     sync.RWMutex
	logger logger.Logger
}

func NewNoopValkeyCache(log logger.Logger) ValkeyCluster {
	log.Warn("Valkey cache unavailable; using in-memory fallback (noop)")
	return &noopValkeyCache{m: make(map[string][]byte), logger: log}
}

func (n *noopValkeyCache) Get(ctx context.Context, key string) ([]byte, error) {
	n.mu.RLock()
	defer n.mu.RUnlock()
	b, ok := n.m[key]
	if !ok {
		return nil, fmt.Errorf("key not found: %s", key)
	}
	return b, nil
}

func (n *noopValkeyCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	var b []byte
	switch v := value.(type) {
	case []byte:
		b = v
	case string:
		b = []byte(v)
	default:
		jb, err := json.Marshal(v)
		if err != nil {
			return err
		}
		b = jb
	}
	n.mu.Lock()
	n.m[key] = b
	n.mu.Unlock()
	return nil
}

func (n *noopValkeyCache) Delete(ctx context.Context, key string) error {
	n.mu.Lock()
	delete(n.m, key)
	n.mu.Unlock()
	return nil
}

func (n *noopValkeyCache) AcquireLock(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	// No contention within a single process: always acquire.
	return true, nil
}

func (n *noopValkeyCache) ReleaseLock(ctx context.Context, key string) error {
	return nil
}

// HealthCheck returns an error to indicate no external Valkey connectivity.
func (n *noopValkeyCache) HealthCheck(ctx context.Context) error {
	return fmt.Errorf("valkey noop cache in use (external cache not connected)")
}
