package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/bscore/diagnostic-core/internal/api"
	"github.com/bscore/diagnostic-core/internal/api/ws"
	"github.com/bscore/diagnostic-core/internal/config"
	"github.com/bscore/diagnostic-core/internal/core"
	"github.com/bscore/diagnostic-core/internal/deviceio"
	"github.com/bscore/diagnostic-core/pkg/cache"
	"github.com/bscore/diagnostic-core/pkg/logger"
)

// These are set via -ldflags at build time.
var (
	version    = "dev"
	commitHash = "unknown"
	buildTime  = ""
)

func main() {
	if len(os.Args) > 1 && os.Args[1] == "healthcheck" {
		runHealthcheck()
		return
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	log := logger.New(cfg.LogLevel)
	log.Info("starting diagnostic core", "version", version, "commit", commitHash, "built", buildTime, "environment", cfg.Environment)

	configWatcher := config.NewWatcher("configs/config.yaml", cfg, log)
	configWatcher.OnChange(func(next *config.Config) {
		log.SetLevel(next.LogLevel)
		log.Info("applied reloaded config", "log_level", next.LogLevel)
	})

	valkeyCache := newCache(cfg.Cache, log)

	svc := core.New(*cfg, valkeyCache, log)

	hub := ws.NewHub(log)
	wireCompletionBroadcast(svc, hub)

	deviceServer := deviceio.NewServer(cfg.DeviceServer, core.NewSessionFactory(svc, log), log)
	httpServer := api.NewServer(cfg.HTTPServer, cfg.Auth, svc, hub, log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if stopper, ok := interface{}(valkeyCache).(interface{ Stop() }); ok {
		go func() { <-ctx.Done(); stopper.Stop() }()
	}

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan
		log.Info("shutdown signal received")
		cancel()
	}()

	go hub.Run(ctx)
	go svc.Run(ctx)
	go func() {
		if err := configWatcher.Start(ctx); err != nil {
			log.Warn("config watcher stopped", "error", err)
		}
	}()

	go func() {
		if err := deviceServer.Start(ctx); err != nil {
			log.Error("device protocol server failed", "error", err)
		}
	}()

	if err := httpServer.Start(ctx); err != nil {
		log.Fatal("HTTP façade failed to start", "error", err)
	}

	log.Info("diagnostic core shutdown complete")
}

// wireCompletionBroadcast forwards every terminal execution result to
// websocket subscribers.
func wireCompletionBroadcast(svc *core.Service, hub *ws.Hub) {
	svc.Orchestrator().OnCompletion(hub.BroadcastExecutionResult)
}

// newCache initializes the Valkey/Redis cache: single-node when exactly one
// address is configured, cluster when several are, falling back to an
// in-memory noop cache with background auto-reconnect if the target is
// unreachable at startup. With no nodes configured it returns a plain
// in-memory noop cache.
func newCache(cfg config.CacheConfig, log logger.Logger) cache.ValkeyCluster {
	ttl := time.Duration(cfg.TTL) * time.Second

	if len(cfg.Nodes) == 1 {
		single, err := cache.NewValkeySingle(cfg.Nodes[0], cfg.DB, cfg.Password, ttl)
		if err != nil {
			log.Warn("valkey single-node unavailable; starting with in-memory cache", "error", err)
			fallback := cache.NewNoopValkeyCache(log)
			return cache.NewAutoSwapForSingle(cfg.Nodes[0], cfg.DB, cfg.Password, ttl, log, fallback)
		}
		log.Info("valkey single-node cache initialized", "addr", cfg.Nodes[0])
		return single
	}

	if len(cfg.Nodes) == 0 {
		log.Warn("no cache nodes configured; using in-memory cache")
		return cache.NewNoopValkeyCache(log)
	}

	cluster, err := cache.NewValkeyCluster(cfg.Nodes, ttl)
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "cluster support disabled") {
			log.Warn("valkey reports cluster support disabled; falling back to single-node mode", "nodes", cfg.Nodes)
			if single, sErr := cache.NewValkeySingle(cfg.Nodes[0], cfg.DB, cfg.Password, ttl); sErr == nil {
				log.Info("valkey single-node cache initialized via fallback", "addr", cfg.Nodes[0])
				return single
			}
		}
		log.Warn("valkey cluster unavailable; starting with in-memory cache", "error", err)
		fallback := cache.NewNoopValkeyCache(log)
		return cache.NewAutoSwapForCluster(cfg.Nodes, ttl, log, fallback)
	}
	log.Info("valkey cluster cache initialized", "nodes", len(cfg.Nodes))
	return cluster
}

func runHealthcheck() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("configuration load failed: %v", err)
	}

	resp, err := http.Get(fmt.Sprintf("http://%s/health", cfg.HTTPServer.ListenAddr))
	if err != nil {
		log.Fatalf("health check failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		log.Fatalf("health check failed: status %d", resp.StatusCode)
	}
	fmt.Println("healthy")
}
