package predictor

import (
	"fmt"
	"time"

	"github.com/bscore/diagnostic-core/internal/domain"
	"github.com/bscore/diagnostic-core/internal/trend"
)

func (p *Predictor) analyzeTemperature(station string, window time.Duration) (*domain.ComponentPrediction, error) {
	now := time.Now()
	points := p.windowPoints(station, domain.Temperature, window, now)
	if len(points) < MinDataPoints {
		return nil, nil
	}

	analysis := trend.Analyze(points)
	current := points[len(points)-1].Value

	var health domain.HealthStatus
	switch {
	case current >= TempCriticalMax:
		health = domain.HealthCritical
	case current >= TempWarningMax:
		health = domain.HealthWarning
	case current >= TempHealthyMax:
		health = domain.HealthDegraded
	default:
		health = domain.HealthHealthy
	}

	var probability float64
	var eta *time.Duration
	if analysis.Direction == domain.TrendIncreasing && analysis.Slope > 0.5 {
		probability = minf(0.9, 0.3+analysis.Slope*0.2)
		hoursToCritical := (TempCriticalMax - current) / analysis.Slope
		if hoursToCritical > 0 {
			eta = durationPtr(time.Duration(hoursToCritical * float64(time.Hour)))
		}
	} else if health != domain.HealthHealthy {
		probability = 0.1
	}

	if probability < 0.1 && health == domain.HealthHealthy {
		return nil, nil
	}

	return &domain.ComponentPrediction{
		Component:         domain.ComponentThermalSystem,
		StationID:         station,
		Prediction:        fmt.Sprintf("Temperature at %.1fC, trend: %s", current, analysis.Direction),
		Confidence:        confidenceFromFit(len(points), analysis.RSquared),
		Probability:       probability,
		ETA:               eta,
		CurrentHealth:     health,
		Trend:             analysis,
		RecommendedAction: temperatureRecommendation(health),
		DataPoints:        len(points),
		Window:            window,
	}, nil
}

func temperatureRecommendation(health domain.HealthStatus) string {
	switch health {
	case domain.HealthCritical:
		return "URGENT: shut down non-essential load and inspect cooling immediately"
	case domain.HealthWarning:
		return "Check HVAC system and ventilation"
	case domain.HealthDegraded:
		return "Schedule cooling system inspection"
	default:
		return "No action required"
	}
}

func minf(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}
