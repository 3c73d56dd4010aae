// Package predictor implements per-component health scoring and failure
// prediction (fan, thermal, power, battery, fiber) as described in
// spec.md §4.7.
package predictor

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/bscore/diagnostic-core/internal/domain"
	"github.com/bscore/diagnostic-core/internal/monitoring"
	"github.com/bscore/diagnostic-core/internal/stats"
	"github.com/bscore/diagnostic-core/internal/trend"
	"github.com/bscore/diagnostic-core/pkg/cache"
	"github.com/bscore/diagnostic-core/pkg/logger"
)

// DefaultWindow is the analysis window used when the caller does not
// specify one.
const DefaultWindow = 24 * time.Hour

// CacheTTL is how long a computed ComponentPrediction is memoized, per
// SPEC_FULL.md §4.15.
const CacheTTL = 10 * time.Second

// Predictor scores component health from a station's rolling stores.
type Predictor struct {
	store  *stats.Store
	cache  cache.ValkeyCluster
	logger logger.Logger
}

// New returns a Predictor reading from store, memoizing results in cch.
func New(store *stats.Store, cch cache.ValkeyCluster, log logger.Logger) *Predictor {
	return &Predictor{store: store, cache: cch, logger: log}
}

func (p *Predictor) cacheKey(station string, component domain.Component) string {
	return fmt.Sprintf("predict:%s:%s", station, component)
}

func (p *Predictor) lookupCache(ctx context.Context, station string, component domain.Component) (*domain.ComponentPrediction, bool) {
	raw, err := p.cache.Get(ctx, p.cacheKey(station, component))
	if err != nil || raw == nil {
		return nil, false
	}
	var out domain.ComponentPrediction
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, false
	}
	return &out, true
}

func (p *Predictor) storeCache(ctx context.Context, station string, component domain.Component, pred domain.ComponentPrediction) {
	raw, err := json.Marshal(pred)
	if err != nil {
		return
	}
	if err := p.cache.Set(ctx, p.cacheKey(station, component), raw, CacheTTL); err != nil {
		p.logger.Warn("predictor cache write failed", "station", station, "component", component, "error", err)
	}
}

// Predict dispatches to the component-specific analyzer. Returns nil if the
// component is healthy with no notable trend, or has insufficient data
// (DataInsufficientError is not surfaced; spec.md §7 treats it as "no
// result").
func (p *Predictor) Predict(ctx context.Context, station string, component domain.Component, window time.Duration) (*domain.ComponentPrediction, error) {
	if window <= 0 {
		window = DefaultWindow
	}

	if cached, ok := p.lookupCache(ctx, station, component); ok {
		return cached, nil
	}

	var result *domain.ComponentPrediction
	var err error
	switch component {
	case domain.ComponentCoolingFan:
		result, err = p.analyzeFan(station, window)
	case domain.ComponentThermalSystem:
		result, err = p.analyzeTemperature(station, window)
	case domain.ComponentPowerSupply:
		result, err = p.analyzePower(station, window)
	case domain.ComponentBatterySystem:
		result, err = p.analyzeBattery(station, window)
	case domain.ComponentFiberTransport:
		result, err = p.analyzeFiber(station, window)
	default:
		return nil, &domain.ValidationError{Field: "component", Reason: "unknown component " + string(component)}
	}
	if err != nil || result == nil {
		return nil, err
	}

	status := "ok"
	if result.CurrentHealth == domain.HealthCritical || result.CurrentHealth == domain.HealthFailed {
		status = "critical"
	}
	monitoring.RecordPrediction(string(component), status)

	p.storeCache(ctx, station, component, *result)
	return result, nil
}

// windowPoints fetches the live samples for (station, metric) as trend
// points, applying the requested analysis window.
func (p *Predictor) windowPoints(station string, metric domain.MetricKind, window time.Duration, now time.Time) []trend.Point {
	samples := p.store.Window(station, metric, now)
	cutoff := now.Add(-window)
	var points []trend.Point
	for _, s := range samples {
		if s.Timestamp.Before(cutoff) {
			continue
		}
		points = append(points, trend.Point{Timestamp: s.Timestamp, Value: s.Value})
	}
	return points
}
