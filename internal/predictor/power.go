package predictor

import (
	"fmt"
	"math"
	"time"

	"github.com/bscore/diagnostic-core/internal/domain"
	"github.com/bscore/diagnostic-core/internal/trend"
)

// analyzePower assesses power supply stability from POWER_CONSUMPTION
// variation and trend (adapted from the source's voltage/current analysis
// to this domain's declared metric set, which has no separate
// voltage/current kinds).
func (p *Predictor) analyzePower(station string, window time.Duration) (*domain.ComponentPrediction, error) {
	now := time.Now()
	points := p.windowPoints(station, domain.PowerConsumption, window, now)
	if len(points) < MinDataPoints {
		return nil, nil
	}

	analysis := trend.Analyze(points)

	variation := 0.0
	if analysis.Mean > 0 {
		variation = analysis.Std / analysis.Mean
	}

	var health domain.HealthStatus
	var probability float64
	var prediction, recommendation string

	switch {
	case variation > VoltageTolerance:
		health = domain.HealthWarning
		probability = math.Min(0.8, variation*5)
		prediction = fmt.Sprintf("Power draw instability detected: %.1f%% variation", variation*100)
		recommendation = "Check power supply connections and backup battery"
	case analysis.Direction == domain.TrendDecreasing && analysis.Slope < -0.01:
		health = domain.HealthDegraded
		probability = 0.4
		prediction = "Gradual power draw decline detected"
		recommendation = "Monitor power supply and schedule inspection"
	default:
		return nil, nil
	}

	return &domain.ComponentPrediction{
		Component:         domain.ComponentPowerSupply,
		StationID:         station,
		Prediction:        prediction,
		Confidence:        confidenceFromFit(len(points), analysis.RSquared),
		Probability:       probability,
		CurrentHealth:     health,
		Trend:             analysis,
		RecommendedAction: recommendation,
		DataPoints:        len(points),
		Window:            window,
	}, nil
}
