package predictor

import (
	"math"
	"time"

	"github.com/bscore/diagnostic-core/internal/domain"
	"github.com/bscore/diagnostic-core/internal/trend"
)

func (p *Predictor) analyzeFan(station string, window time.Duration) (*domain.ComponentPrediction, error) {
	now := time.Now()
	points := p.windowPoints(station, domain.FanSpeed, window, now)
	if len(points) < MinDataPoints {
		return nil, nil
	}

	analysis := trend.Analyze(points)
	currentRPM := points[len(points)-1].Value

	health := fanHealthStatus(currentRPM, analysis)
	probability, eta := fanFailureProbability(currentRPM, analysis)
	confidence := confidenceFromFit(len(points), analysis.RSquared)

	if probability < 0.1 && health == domain.HealthHealthy {
		return nil, nil
	}

	return &domain.ComponentPrediction{
		Component:         domain.ComponentCoolingFan,
		StationID:         station,
		Prediction:        fanPredictionText(health, analysis, probability),
		Confidence:        confidence,
		Probability:       probability,
		ETA:               eta,
		CurrentHealth:     health,
		Trend:             analysis,
		RecommendedAction: fanRecommendation(health, analysis, probability),
		DataPoints:        len(points),
		Window:            window,
	}, nil
}

func fanHealthStatus(rpm float64, a domain.TrendAnalysis) domain.HealthStatus {
	cv := 0.0
	if a.Mean != 0 {
		cv = a.Std / math.Abs(a.Mean)
	}

	status := domain.HealthHealthy
	switch {
	case rpm < FanCriticalRPMMin:
		status = domain.HealthCritical
	case rpm < FanWarningRPMMin:
		status = domain.HealthWarning
	case rpm < FanHealthyRPMMin:
		status = domain.HealthDegraded
	}

	if cv > FanRPMVariationThreshold && status == domain.HealthHealthy {
		status = domain.HealthDegraded
	}
	if a.Slope < FanDegradationSlopeThresh && status == domain.HealthHealthy {
		status = domain.HealthDegraded
	}
	return status
}

func fanFailureProbability(rpm float64, a domain.TrendAnalysis) (float64, *time.Duration) {
	if a.Direction != domain.TrendDecreasing {
		if rpm < FanCriticalRPMMin {
			return 0.9, nil
		}
		return 0.0, nil
	}

	hoursToFailure := (rpm - FanCriticalRPMMin) / -a.Slope
	probability := math.Min(0.95, 0.3+math.Abs(a.Slope)*0.02)
	if rpm < FanCriticalRPMMin {
		probability = math.Max(probability, 0.8)
	}

	var eta *time.Duration
	if hoursToFailure > 0 {
		eta = durationPtr(time.Duration(hoursToFailure * float64(time.Hour)))
	}
	return probability, eta
}

func fanPredictionText(health domain.HealthStatus, a domain.TrendAnalysis, probability float64) string {
	if health == domain.HealthCritical || probability > 0.8 {
		return "Fan speed critically low with declining trend; failure imminent"
	}
	return "Fan RPM trend: " + string(a.Direction)
}

func fanRecommendation(health domain.HealthStatus, a domain.TrendAnalysis, probability float64) string {
	if probability > 0.8 || health == domain.HealthCritical {
		return "URGENT: schedule fan replacement before failure"
	}
	if health == domain.HealthWarning || health == domain.HealthDegraded {
		return "Inspect cooling fan and bearings at next maintenance window"
	}
	return "No action required"
}
