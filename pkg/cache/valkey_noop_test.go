package cache

import (
	"context"
	"testing"
	"time"

	"github.com/bscore/diagnostic-core/pkg/logger"
)

func TestNoopValkey_BasicOps(t *testing.T) {
	log := logger.New("error")
	cch := NewNoopValkeyCache(log)
	ctx := context.Background()

	if err := cch.Set(ctx, "k1", "v1", time.Second); err != nil {
		t.Fatalf("set: %v", err)
	}
	b, err := cch.Get(ctx, "k1")
	if err != nil || string(b) != "v1" {
		t.Fatalf("get: %v %q", err, string(b))
	}
	if err := cch.Delete(ctx, "k1"); err != nil {
		t.Fatalf("del: %v", err)
	}
	if _, err := cch.Get(ctx, "k1"); err == nil {
		t.Fatalf("expected miss after delete")
	}

	acquired, err := cch.AcquireLock(ctx, "station-1", time.Second)
	if err != nil || !acquired {
		t.Fatalf("acquire lock: %v %v", acquired, err)
	}
	if err := cch.ReleaseLock(ctx, "station-1"); err != nil {
		t.Fatalf("release lock: %v", err)
	}

	if nc, ok := cch.(*noopValkeyCache); ok {
		if err := nc.HealthCheck(ctx); err == nil {
			t.Fatalf("expected health error for noop cache")
		}
	}
}
