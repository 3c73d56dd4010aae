package correlate

import (
	"testing"
	"time"

	"github.com/bscore/diagnostic-core/internal/config"
	"github.com/bscore/diagnostic-core/internal/domain"
	"github.com/bscore/diagnostic-core/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCorrelator() *Correlator {
	return New(config.CorrelatorConfig{DBSCANEpsSeconds: 60, DBSCANMinSamples: 2, TemporalWindow: 300}, logger.New("error"))
}

// Scenario C: alarms at t=0 POWER_FAILURE/critical and t=5,10,15
// TEMPERATURE_HIGH, FAN_FAILURE, SIGNAL_LOSS/major all on station S2.
// Expect one cluster, root_cause POWER_FAILURE, confidence >= 0.9,
// suppressed = true, suppression_count = 3.
func TestScenarioC_CorrelationAndSuppression(t *testing.T) {
	c := newTestCorrelator()
	base := time.Now()
	alarms := []domain.Alarm{
		{AlarmID: "A1", StationID: "S2", AlarmType: "POWER_FAILURE", Severity: domain.AlarmCritical, Timestamp: base},
		{AlarmID: "A2", StationID: "S2", AlarmType: "TEMPERATURE_HIGH", Severity: domain.AlarmMajor, Timestamp: base.Add(5 * time.Second)},
		{AlarmID: "A3", StationID: "S2", AlarmType: "FAN_FAILURE", Severity: domain.AlarmMajor, Timestamp: base.Add(10 * time.Second)},
		{AlarmID: "A4", StationID: "S2", AlarmType: "SIGNAL_LOSS", Severity: domain.AlarmMajor, Timestamp: base.Add(15 * time.Second)},
	}

	result := c.Correlate(alarms)

	require.Len(t, result.Clusters, 1)
	cluster := result.Clusters[0]
	assert.Equal(t, "POWER_FAILURE", cluster.RootCause)
	assert.GreaterOrEqual(t, cluster.RootCauseConfidence, 0.9)
	assert.True(t, cluster.Suppressed)
	assert.Equal(t, 3, result.SuppressionCount)
	assert.Empty(t, result.Uncorrelated)
	assert.Equal(t, 4, result.TotalAlarms)
}

// Invariant 6: clusters + uncorrelated <= total_alarms.
func TestCorrelationReduction(t *testing.T) {
	c := newTestCorrelator()
	base := time.Now()
	alarms := []domain.Alarm{
		{AlarmID: "A1", StationID: "S1", AlarmType: "VSWR_HIGH", Severity: domain.AlarmMajor, Timestamp: base},
		{AlarmID: "A2", StationID: "S2", AlarmType: "INTERFERENCE", Severity: domain.AlarmMinor, Timestamp: base.Add(10 * time.Minute)},
	}

	result := c.Correlate(alarms)
	total := len(result.Clusters) + len(result.Uncorrelated)
	assert.LessOrEqual(t, total, result.TotalAlarms)
	assert.GreaterOrEqual(t, result.ReductionRatio(), 0.0)
}

func TestTemporalClusteringSeparatesFarAlarms(t *testing.T) {
	c := newTestCorrelator()
	base := time.Now()
	alarms := []domain.Alarm{
		{AlarmID: "A1", StationID: "S1", AlarmType: "FOO", Severity: domain.AlarmMinor, Timestamp: base},
		{AlarmID: "A2", StationID: "S1", AlarmType: "BAR", Severity: domain.AlarmMinor, Timestamp: base.Add(1 * time.Hour)},
	}
	groups := c.temporalClustering(alarms)
	assert.Len(t, groups, 2)
}

func TestLearnFromFeedbackOverridesRootCause(t *testing.T) {
	c := newTestCorrelator()
	base := time.Now()
	alarms := []domain.Alarm{
		{AlarmID: "A1", StationID: "S9", AlarmType: "UNKNOWN_A", Severity: domain.AlarmMajor, Timestamp: base},
		{AlarmID: "A2", StationID: "S9", AlarmType: "UNKNOWN_B", Severity: domain.AlarmMajor, Timestamp: base.Add(2 * time.Second)},
	}
	c.LearnFromFeedback(alarms, "UNKNOWN_A", "Replace unit")

	result := c.Correlate(alarms)
	require.Len(t, result.Clusters, 1)
	assert.Equal(t, "UNKNOWN_A", result.Clusters[0].RootCause)
	assert.Equal(t, 0.85, result.Clusters[0].RootCauseConfidence)
	assert.Contains(t, result.Clusters[0].CorrelationTypes, domain.CorrelationPattern)
}
