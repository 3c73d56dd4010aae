package anomaly

import (
	"fmt"
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/bscore/diagnostic-core/internal/domain"
	"github.com/bscore/diagnostic-core/internal/monitoring"
	"github.com/bscore/diagnostic-core/internal/stats"
)

// MinSamplesForZScore is the minimum sample count before Z-score detection
// activates for a (station, metric) pair (spec.md §4.5).
const MinSamplesForZScore = 30

// Config holds the detector's tunable parameters, sourced from
// internal/config.AnalyzerConfig.
type Config struct {
	ZThreshold             float64
	IsolationTrees         int
	IsolationSampleSize    int
	IsolationContamination float64
}

// Detector combines univariate Z-score scoring with per-station
// multivariate Isolation Forest scoring.
type Detector struct {
	cfg   Config
	store *stats.Store

	mu      sync.Mutex
	counter uint64
	forests map[string]*IsolationForest
}

// NewDetector returns a Detector reading from store.
func NewDetector(cfg Config, store *stats.Store) *Detector {
	return &Detector{cfg: cfg, store: store, forests: make(map[string]*IsolationForest)}
}

// Check evaluates a newly written reading against the Z-score path and
// returns an Anomaly if the reading is anomalous, or nil otherwise
// (spec.md §4.5, §4.3).
func (d *Detector) Check(reading domain.MetricReading, now time.Time) *domain.Anomaly {
	snap := d.store.Stats(reading.StationID, reading.Metric)
	// When the reading is the latest stored sample (the ingest path writes
	// before checking), its contribution is taken back out of the Welford
	// statistics so it is scored against the samples that preceded it.
	if window := d.store.Window(reading.StationID, reading.Metric, now); len(window) > 0 && snap.Count > 1 {
		if last := window[len(window)-1]; last.Value == reading.Value && last.Timestamp.Equal(reading.Timestamp) {
			n := float64(snap.Count)
			prevMean := (n*snap.Mean - reading.Value) / (n - 1)
			snap.M2 -= (reading.Value - prevMean) * (reading.Value - snap.Mean)
			snap.Mean, snap.Count, snap.Std = prevMean, snap.Count-1, 0
			if snap.Count > 1 && snap.M2 > 0 {
				snap.Std = math.Sqrt(snap.M2 / float64(snap.Count-1))
			}
		}
	}
	if snap.Count < MinSamplesForZScore {
		return nil
	}

	safeStd := snap.Std
	if safeStd < 1e-10 {
		if snap.Mean != 0 {
			safeStd = absf(snap.Mean) * 0.01
		} else {
			safeStd = 1.0
		}
	}

	z := absf(reading.Value-snap.Mean) / safeStd
	if z < d.cfg.ZThreshold {
		return nil
	}

	zt := d.cfg.ZThreshold
	var severity domain.Severity
	switch {
	case z > zt*3:
		severity = domain.SeverityCritical
	case z > zt*2:
		severity = domain.SeverityHigh
	case z > zt*1.5:
		severity = domain.SeverityMedium
	default:
		severity = domain.SeverityLow
	}

	score := minf(1.0, z/(2*zt))
	category := categoryByMetric[reading.Metric]
	if category == "" {
		category = domain.CategoryPerformance
	}

	sign := 1
	if reading.Value < snap.Mean {
		sign = -1
	}

	hints := d.correlationHints(reading.StationID, reading.Metric, now)
	recs := append([]string{}, severityActions(severity)...)
	recs = append(recs, recommendationTable[recKey{category, sign}]...)

	d.mu.Lock()
	d.counter++
	id := fmt.Sprintf("ANM-%s-%06d", shortID(reading.StationID), d.counter)
	d.mu.Unlock()

	monitoring.RecordAnomalyDetected(string(severity))

	return &domain.Anomaly{
		ID:              id,
		StationID:       reading.StationID,
		DetectedAt:      reading.Timestamp,
		Severity:        severity,
		Category:        category,
		Score:           score,
		AffectedMetrics: []domain.MetricKind{reading.Metric},
		Values:          map[domain.MetricKind]float64{reading.Metric: reading.Value},
		ExpectedRange:   [2]float64{snap.Mean - 2*snap.Std, snap.Mean + 2*snap.Std},
		Hints:           hints,
		Recommendations: recs,
	}
}

func (d *Detector) correlationHints(station string, metric domain.MetricKind, now time.Time) []string {
	var hints []string
	for _, corr := range correlatedMetrics[metric] {
		snap := d.store.Stats(station, corr)
		if snap.Count < 10 {
			continue
		}
		window := d.store.Window(station, corr, now)
		if len(window) == 0 {
			continue
		}
		latest := window[len(window)-1].Value
		std := snap.Std
		if std <= 0 {
			std = 1
		}
		z := absf(latest-snap.Mean) / std
		if z > 2 {
			hints = append(hints, fmt.Sprintf("Related metric '%s' is also abnormal (%.1f std from mean)", corr, z))
		}
	}
	return hints
}

// FitForest (re)fits a station's Isolation Forest over the given feature
// rows. Trees are refit offline per station on demand; scoring is online
// (spec.md §4.5).
func (d *Detector) FitForest(station string, rows [][]float64, rng *rand.Rand) {
	forest := NewIsolationForest(d.cfg.IsolationTrees, d.cfg.IsolationSampleSize, d.cfg.IsolationContamination, rng)
	forest.Fit(rows)

	d.mu.Lock()
	d.forests[station] = forest
	d.mu.Unlock()
}

// ScoreMultivariate scores a feature vector against a station's fitted
// forest. Returns (0, false) if no forest has been fitted yet.
func (d *Detector) ScoreMultivariate(station string, features []float64) (float64, bool) {
	d.mu.Lock()
	forest := d.forests[station]
	d.mu.Unlock()
	if forest == nil || !forest.fitted {
		return 0, false
	}
	return forest.Score(features), true
}

// IsMultivariateAnomaly reports whether features exceed the fitted
// forest's contamination threshold.
func (d *Detector) IsMultivariateAnomaly(station string, features []float64) bool {
	d.mu.Lock()
	forest := d.forests[station]
	d.mu.Unlock()
	if forest == nil {
		return false
	}
	return forest.IsAnomaly(features)
}

func absf(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

func minf(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}

func shortID(s string) string {
	if len(s) > 8 {
		return s[:8]
	}
	return s
}
