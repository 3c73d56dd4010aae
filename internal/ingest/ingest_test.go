package ingest

import (
	"testing"
	"time"

	"github.com/bscore/diagnostic-core/internal/anomaly"
	"github.com/bscore/diagnostic-core/internal/domain"
	"github.com/bscore/diagnostic-core/internal/stats"
	"github.com/bscore/diagnostic-core/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestIngestor() *Ingestor {
	store := stats.NewStore(1000, time.Hour)
	detector := anomaly.NewDetector(anomaly.Config{
		ZThreshold:             3.0,
		IsolationTrees:         100,
		IsolationSampleSize:    256,
		IsolationContamination: 0.05,
	}, store)
	return New(store, detector, logger.New("error"))
}

func TestIngestAcceptsInRangeReading(t *testing.T) {
	ing := newTestIngestor()
	_, err := ing.Ingest(domain.MetricReading{
		StationID: "S1",
		Metric:    domain.CPUUsage,
		Value:     42.0,
		Timestamp: time.Now(),
	})
	require.NoError(t, err)
}

func TestIngestRejectsOutOfRangeReading(t *testing.T) {
	ing := newTestIngestor()
	_, err := ing.Ingest(domain.MetricReading{
		StationID: "S1",
		Metric:    domain.CPUUsage,
		Value:     150.0,
		Timestamp: time.Now(),
	})
	require.Error(t, err)
	var verr *domain.ValidationError
	assert.ErrorAs(t, err, &verr)
}

func TestIngestRejectsUnknownMetricKind(t *testing.T) {
	ing := newTestIngestor()
	_, err := ing.Ingest(domain.MetricReading{
		StationID: "S1",
		Metric:    domain.MetricKind("NOT_A_REAL_METRIC"),
		Value:     1.0,
		Timestamp: time.Now(),
	})
	require.Error(t, err)
}

func TestIngestDefaultsMissingTimestamp(t *testing.T) {
	ing := newTestIngestor()
	_, err := ing.Ingest(domain.MetricReading{
		StationID: "S1",
		Metric:    domain.CPUUsage,
		Value:     50.0,
	})
	require.NoError(t, err)
}

func TestIngestFlagsOutlierAfterBaseline(t *testing.T) {
	ing := newTestIngestor()
	base := time.Now()
	for i := 0; i < 30; i++ {
		_, err := ing.Ingest(domain.MetricReading{
			StationID: "S2",
			Metric:    domain.Temperature,
			Value:     40.0,
			Timestamp: base.Add(time.Duration(i) * time.Second),
		})
		require.NoError(t, err)
	}
	anomalyResult, err := ing.Ingest(domain.MetricReading{
		StationID: "S2",
		Metric:    domain.Temperature,
		Value:     95.0,
		Timestamp: base.Add(31 * time.Second),
	})
	require.NoError(t, err)
	assert.NotNil(t, anomalyResult)
}
