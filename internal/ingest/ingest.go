// Package ingest validates and dispatches incoming MetricReadings, per
// spec.md §4.3: normalize, bound-check against the metric dictionary,
// write to the rolling store, then hand off to the anomaly detector.
package ingest

import (
	"time"

	"github.com/bscore/diagnostic-core/internal/anomaly"
	"github.com/bscore/diagnostic-core/internal/domain"
	"github.com/bscore/diagnostic-core/internal/monitoring"
	"github.com/bscore/diagnostic-core/internal/stats"
	"github.com/bscore/diagnostic-core/pkg/logger"
)

// Ingestor validates MetricReadings, writes them to the rolling store,
// and triggers anomaly detection on each accepted reading.
type Ingestor struct {
	store    *stats.Store
	detector *anomaly.Detector
	logger   logger.Logger
}

// New returns an Ingestor writing into store and scoring with detector.
func New(store *stats.Store, detector *anomaly.Detector, log logger.Logger) *Ingestor {
	return &Ingestor{store: store, detector: detector, logger: log}
}

// Ingest validates reading against the metric dictionary, writes it to
// the rolling store, and runs the anomaly detector over the updated
// statistics. Returns the detected Anomaly, if any, or a ValidationError
// if the reading is out of contract.
func (i *Ingestor) Ingest(reading domain.MetricReading) (*domain.Anomaly, error) {
	spec, ok := domain.MetricDictionary[reading.Metric]
	if !ok {
		monitoring.RecordMetricIngested(false)
		return nil, &domain.ValidationError{Field: "metric", Reason: "unknown metric kind " + string(reading.Metric)}
	}
	if !reading.Metric.Valid(reading.Value) {
		monitoring.RecordMetricIngested(false)
		return nil, &domain.ValidationError{
			Field:  "value",
			Reason: boundsReason(reading.Value, spec),
		}
	}

	ts := reading.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}

	i.store.Write(reading.StationID, reading.Metric, reading.Value, ts)
	monitoring.RecordMetricIngested(true)

	anomaly := i.detector.Check(reading, ts)
	return anomaly, nil
}

func boundsReason(value float64, spec domain.MetricSpec) string {
	if value < spec.Min {
		return "value below declared minimum"
	}
	return "value above declared maximum"
}
