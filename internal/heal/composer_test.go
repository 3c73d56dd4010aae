package heal

import (
	"testing"
	"time"

	"github.com/bscore/diagnostic-core/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromPredictionAutoExecutesLowRiskHighProbability(t *testing.T) {
	p := domain.ComponentPrediction{
		Component:   domain.ComponentCoolingFan,
		StationID:   "S1",
		Prediction:  "fan likely to fail within 48h",
		Probability: 0.85,
	}
	action := FromPrediction(1, time.Now(), p)
	require.NotNil(t, action)
	assert.Equal(t, domain.ActionServiceRestart, action.Kind)
	assert.Equal(t, domain.RiskLow, action.Risk)
	assert.True(t, action.AutoExecute)
	assert.Equal(t, domain.SourcePredictive, action.Source)
}

func TestFromPredictionDoesNotAutoExecuteBelowProbabilityThreshold(t *testing.T) {
	p := domain.ComponentPrediction{
		Component:   domain.ComponentCoolingFan,
		StationID:   "S1",
		Probability: 0.6,
	}
	action := FromPrediction(1, time.Now(), p)
	require.NotNil(t, action)
	assert.False(t, action.AutoExecute)
}

func TestFromPredictionSkipsLowProbability(t *testing.T) {
	p := domain.ComponentPrediction{
		Component:   domain.ComponentCoolingFan,
		StationID:   "S1",
		Probability: 0.2,
	}
	assert.Nil(t, FromPrediction(1, time.Now(), p))
}

func TestFromRCAAutoExecutesLowAndMediumRisk(t *testing.T) {
	result := domain.RCAResult{
		RootCause: domain.CausalEvent{EventType: "CONFIG_ERROR", StationID: "S1"},
	}
	action := FromRCA(1, time.Now(), result, "an-1")
	require.NotNil(t, action)
	assert.Equal(t, domain.RiskLow, action.Risk)
	assert.True(t, action.AutoExecute)

	critical := domain.RCAResult{
		RootCause: domain.CausalEvent{EventType: "HARDWARE_FAULT", StationID: "S1"},
	}
	criticalAction := FromRCA(2, time.Now(), critical, "an-2")
	require.NotNil(t, criticalAction)
	assert.Equal(t, domain.RiskCritical, criticalAction.Risk)
	assert.False(t, criticalAction.AutoExecute)
}

func TestFromRCAReturnsNilForUnknownCause(t *testing.T) {
	result := domain.RCAResult{RootCause: domain.CausalEvent{EventType: "MYSTERY", StationID: "S1"}}
	assert.Nil(t, FromRCA(1, time.Now(), result, "an-1"))
}

func TestFromAISolutionRequiresConfidenceForAutoExecute(t *testing.T) {
	low := AISolution{StationID: "S1", SolutionID: "sol-1", RiskLevel: domain.RiskLow, Confidence: 0.9}
	action := FromAISolution(1, time.Now(), low)
	assert.True(t, action.AutoExecute)

	unconfident := AISolution{StationID: "S1", SolutionID: "sol-2", RiskLevel: domain.RiskLow, Confidence: 0.5}
	action2 := FromAISolution(2, time.Now(), unconfident)
	assert.False(t, action2.AutoExecute)
}
