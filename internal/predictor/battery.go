package predictor

import (
	"fmt"
	"time"

	"github.com/bscore/diagnostic-core/internal/domain"
	"github.com/bscore/diagnostic-core/internal/trend"
)

func (p *Predictor) analyzeBattery(station string, window time.Duration) (*domain.ComponentPrediction, error) {
	now := time.Now()
	socPoints := p.windowPoints(station, domain.BatterySOC, window, now)
	if len(socPoints) < MinDataPoints {
		return nil, nil
	}
	dodPoints := p.windowPoints(station, domain.BatteryDOD, window, now)
	tempPoints := p.windowPoints(station, domain.BatteryTemp, window, now)
	cyclePoints := p.windowPoints(station, domain.BatteryCycles, window, now)

	socTrend := trend.Analyze(socPoints)
	currentSOC := socPoints[len(socPoints)-1].Value

	var factors []float64
	var issues []string

	switch {
	case currentSOC < BatterySOCCriticalMin:
		factors = append(factors, 0.2)
		issues = append(issues, fmt.Sprintf("Critical SOC: %.1f%%", currentSOC))
	case currentSOC < BatterySOCWarningMin:
		factors = append(factors, 0.5)
		issues = append(issues, fmt.Sprintf("Low SOC: %.1f%%", currentSOC))
	case currentSOC < BatterySOCHealthyMin:
		factors = append(factors, 0.8)
	default:
		factors = append(factors, 1.0)
	}

	if len(dodPoints) > 0 {
		currentDOD := dodPoints[len(dodPoints)-1].Value
		switch {
		case currentDOD > BatteryDODCriticalMax:
			factors = append(factors, 0.3)
			issues = append(issues, fmt.Sprintf("Critical DOD: %.1f%%", currentDOD))
		case currentDOD > BatteryDODWarningMax:
			factors = append(factors, 0.6)
			issues = append(issues, fmt.Sprintf("High DOD: %.1f%%", currentDOD))
		case currentDOD > BatteryDODHealthyMax:
			factors = append(factors, 0.8)
		default:
			factors = append(factors, 1.0)
		}
	}

	if len(tempPoints) > 0 {
		currentTemp := tempPoints[len(tempPoints)-1].Value
		switch {
		case currentTemp > BatteryTempCriticalMax:
			factors = append(factors, 0.2)
			issues = append(issues, fmt.Sprintf("Critical battery temperature: %.1fC", currentTemp))
		case currentTemp > BatteryTempWarningMax:
			factors = append(factors, 0.5)
			issues = append(issues, fmt.Sprintf("High battery temperature: %.1fC", currentTemp))
		case currentTemp > BatteryTempHealthyMax:
			factors = append(factors, 0.8)
		default:
			factors = append(factors, 1.0)
		}
	}

	if len(cyclePoints) > 0 {
		currentCycles := cyclePoints[len(cyclePoints)-1].Value
		switch {
		case currentCycles > BatteryCycleCriticalMax:
			factors = append(factors, 0.3)
			issues = append(issues, fmt.Sprintf("High cycle count: %.0f", currentCycles))
		case currentCycles > BatteryCycleWarningMax:
			factors = append(factors, 0.6)
			issues = append(issues, fmt.Sprintf("Elevated cycles: %.0f", currentCycles))
		case currentCycles > BatteryCycleHealthyMax:
			factors = append(factors, 0.8)
		default:
			factors = append(factors, 1.0)
		}
	}

	if socTrend.Direction == domain.TrendDecreasing && socTrend.Slope < -0.5 {
		factors = append(factors, 0.6)
		issues = append(issues, fmt.Sprintf("Capacity fade detected: %.2f%%/hr decline", -socTrend.Slope))
	}

	combined := average(factors)
	health := healthFromScore(combined)

	if health == domain.HealthHealthy && len(issues) == 0 {
		return nil, nil
	}

	return &domain.ComponentPrediction{
		Component:         domain.ComponentBatterySystem,
		StationID:         station,
		Prediction:        batteryPredictionText(issues),
		Confidence:        confidenceFromFit(len(socPoints), socTrend.RSquared),
		Probability:       1 - combined,
		CurrentHealth:     health,
		Trend:             socTrend,
		RecommendedAction: batteryRecommendation(health),
		DataPoints:        len(socPoints),
		Window:            window,
	}, nil
}

func batteryPredictionText(issues []string) string {
	if len(issues) == 0 {
		return "Battery degradation trend detected"
	}
	return issues[0]
}

func batteryRecommendation(health domain.HealthStatus) string {
	switch health {
	case domain.HealthCritical:
		return "URGENT: schedule battery replacement"
	case domain.HealthWarning:
		return "Schedule battery health inspection"
	case domain.HealthDegraded:
		return "Monitor battery trend at next maintenance window"
	default:
		return "No action required"
	}
}
