package anomaly

import (
	"math/rand"
	"testing"
	"time"

	"github.com/bscore/diagnostic-core/internal/domain"
	"github.com/bscore/diagnostic-core/internal/stats"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDetector() (*Detector, *stats.Store) {
	store := stats.NewStore(1000, 24*time.Hour)
	det := NewDetector(Config{
		ZThreshold:             3.0,
		IsolationTrees:         50,
		IsolationSampleSize:    64,
		IsolationContamination: 0.05,
	}, store)
	return det, store
}

// Scenario B: 50 CPU_USAGE samples uniform on [20,40], then one sample of
// 95. Expect CRITICAL severity, PERFORMANCE category, score >= 0.9, and
// expected_range covering [mean-2sigma, mean+2sigma] of the first 50.
func TestScenarioB_ZScoreAnomalyTrigger(t *testing.T) {
	det, store := newTestDetector()
	now := time.Now()

	rng := rand.New(rand.NewSource(1))
	for i := 0; i < 50; i++ {
		v := 20 + rng.Float64()*20
		ts := now.Add(time.Duration(i) * time.Second)
		store.Write("S1", domain.CPUUsage, v, ts)
	}

	snapBefore := store.Stats("S1", domain.CPUUsage)

	reading := domain.MetricReading{
		StationID: "S1",
		Metric:    domain.CPUUsage,
		Value:     95,
		Timestamp: now.Add(51 * time.Second),
	}
	store.Write("S1", domain.CPUUsage, reading.Value, reading.Timestamp)

	anomaly := det.Check(reading, reading.Timestamp)
	require.NotNil(t, anomaly)
	assert.Equal(t, domain.SeverityCritical, anomaly.Severity)
	assert.Equal(t, domain.CategoryPerformance, anomaly.Category)
	assert.GreaterOrEqual(t, anomaly.Score, 0.9)
	assert.InDelta(t, snapBefore.Mean-2*snapBefore.Std, anomaly.ExpectedRange[0], 0.5)
}

func TestDetector_NoAnomalyBelowMinSamples(t *testing.T) {
	det, store := newTestDetector()
	now := time.Now()
	for i := 0; i < 10; i++ {
		store.Write("S2", domain.CPUUsage, 30, now.Add(time.Duration(i)*time.Second))
	}
	reading := domain.MetricReading{StationID: "S2", Metric: domain.CPUUsage, Value: 99, Timestamp: now}
	assert.Nil(t, det.Check(reading, now))
}

// Invariant 4: holding mean and std fixed, anomaly score is non-decreasing
// in |value - mean|.
func TestAnomalyScoreMonotonicity(t *testing.T) {
	det, store := newTestDetector()
	now := time.Now()
	rng := rand.New(rand.NewSource(2))
	for i := 0; i < 40; i++ {
		store.Write("S3", domain.Temperature, 50+rng.Float64()*2-1, now.Add(time.Duration(i)*time.Second))
	}

	values := []float64{54, 58, 65, 80}
	var lastScore float64
	for i, v := range values {
		reading := domain.MetricReading{StationID: "S3", Metric: domain.Temperature, Value: v, Timestamp: now.Add(time.Minute)}
		a := det.Check(reading, reading.Timestamp)
		if a == nil {
			continue
		}
		if i > 0 {
			assert.GreaterOrEqual(t, a.Score, lastScore)
		}
		lastScore = a.Score
	}
}

// Invariant 5: severity bands for Z in {1.6, 2.5, 6.5, 10} * z_t.
func TestSeverityBands(t *testing.T) {
	det, store := newTestDetector()
	now := time.Now()
	for i := 0; i < 40; i++ {
		store.Write("S4", domain.CPUUsage, 30, now.Add(time.Duration(i)*time.Second))
	}
	snap := store.Stats("S4", domain.CPUUsage)
	safeStd := snap.SafeStd()

	cases := []struct {
		zMultiple float64
		want      domain.Severity
	}{
		{1.6, domain.SeverityMedium},
		{2.5, domain.SeverityHigh},
		{6.5, domain.SeverityCritical},
		{10, domain.SeverityCritical},
	}
	for _, c := range cases {
		value := snap.Mean + c.zMultiple*det.cfg.ZThreshold*safeStd
		reading := domain.MetricReading{StationID: "S4", Metric: domain.CPUUsage, Value: value, Timestamp: now.Add(time.Minute)}
		a := det.Check(reading, reading.Timestamp)
		require.NotNil(t, a, "zMultiple=%v", c.zMultiple)
		assert.Equal(t, c.want, a.Severity, "zMultiple=%v", c.zMultiple)
	}
}

func TestIsolationForestSeparatesOutlier(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	var rows [][]float64
	for i := 0; i < 200; i++ {
		rows = append(rows, []float64{rng.Float64() * 10, rng.Float64() * 10})
	}
	forest := NewIsolationForest(100, 64, 0.05, rng)
	forest.Fit(rows)

	normalScore := forest.Score([]float64{5, 5})
	outlierScore := forest.Score([]float64{1000, -1000})
	assert.Greater(t, outlierScore, normalScore)
}
