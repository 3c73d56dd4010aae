package core

import (
	"context"
	"testing"
	"time"

	"github.com/bscore/diagnostic-core/internal/config"
	"github.com/bscore/diagnostic-core/internal/domain"
	"github.com/bscore/diagnostic-core/pkg/cache"
	"github.com/bscore/diagnostic-core/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService() *Service {
	cfg := *config.GetDefaultConfig()
	log := logger.New("error")
	return New(cfg, cache.NewNoopValkeyCache(log), log)
}

func TestIngestMetricAcceptsValidReading(t *testing.T) {
	svc := newTestService()
	accepted, _, err := svc.IngestMetric(domain.MetricReading{
		StationID: "S1",
		Metric:    domain.CPUUsage,
		Value:     50.0,
		Timestamp: time.Now(),
	})
	require.NoError(t, err)
	assert.True(t, accepted)
}

func TestIngestMetricRejectsInvalidReading(t *testing.T) {
	svc := newTestService()
	accepted, _, err := svc.IngestMetric(domain.MetricReading{
		StationID: "S1",
		Metric:    domain.CPUUsage,
		Value:     -5.0,
		Timestamp: time.Now(),
	})
	require.Error(t, err)
	assert.False(t, accepted)
}

func TestIngestAlarmAndCorrelateUsesBufferedAlarms(t *testing.T) {
	svc := newTestService()
	base := time.Now()
	svc.IngestAlarm(domain.Alarm{AlarmID: "al1", StationID: "S2", AlarmType: "POWER_FAILURE", Severity: domain.AlarmCritical, Timestamp: base})
	svc.IngestAlarm(domain.Alarm{AlarmID: "al2", StationID: "S2", AlarmType: "TEMPERATURE_HIGH", Severity: domain.AlarmMajor, Timestamp: base.Add(5 * time.Second)})

	result := svc.Correlate(nil)
	assert.Equal(t, 2, result.TotalAlarms)
}

func TestStationHealthReportAggregatesComponents(t *testing.T) {
	svc := newTestService()
	report := svc.StationHealthReport(context.Background(), "S3", 0)
	assert.Equal(t, "S3", report.StationID)
	assert.NotEmpty(t, report.Overall)
}

func TestSubmitActionAndExecutionHistory(t *testing.T) {
	svc := newTestService()
	action := domain.HealingAction{
		ID:          "test-action-1",
		StationID:   "S4",
		Kind:        domain.ActionServiceRestart,
		Risk:        domain.RiskLow,
		AutoExecute: true,
		Source:      domain.SourcePredictive,
	}
	outcome := svc.SubmitAction(action)
	assert.Equal(t, "queued_for_execution", outcome.Status)

	svc.Orchestrator().Tick()
	history := svc.ExecutionHistory("S4", 10)
	require.Len(t, history, 1)
}

func TestComposeAndSubmitFromPredictionSkipsLowProbability(t *testing.T) {
	svc := newTestService()
	outcome := svc.ComposeAndSubmitFromPrediction(domain.ComponentPrediction{
		Component:   domain.ComponentCoolingFan,
		StationID:   "S5",
		Probability: 0.1,
	})
	assert.Nil(t, outcome)
}
