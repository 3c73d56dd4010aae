package predictor

import (
	"fmt"
	"time"

	"github.com/bscore/diagnostic-core/internal/domain"
	"github.com/bscore/diagnostic-core/internal/trend"
)

func (p *Predictor) analyzeFiber(station string, window time.Duration) (*domain.ComponentPrediction, error) {
	now := time.Now()
	rxPoints := p.windowPoints(station, domain.FiberRXPower, window, now)
	if len(rxPoints) < MinDataPoints {
		return nil, nil
	}
	txPoints := p.windowPoints(station, domain.FiberTXPower, window, now)
	berPoints := p.windowPoints(station, domain.FiberBER, window, now)
	osnrPoints := p.windowPoints(station, domain.FiberOSNR, window, now)

	rxTrend := trend.Analyze(rxPoints)
	currentRX := rxPoints[len(rxPoints)-1].Value

	var factors []float64
	var issues []string

	switch {
	case currentRX < FiberRXCriticalMin:
		factors = append(factors, 0.2)
		issues = append(issues, fmt.Sprintf("Critical RX power: %.1fdBm", currentRX))
	case currentRX < FiberRXWarningMin:
		factors = append(factors, 0.5)
		issues = append(issues, fmt.Sprintf("Low RX power: %.1fdBm", currentRX))
	case currentRX < FiberRXHealthyMin:
		factors = append(factors, 0.8)
	default:
		factors = append(factors, 1.0)
	}

	if len(txPoints) > 0 {
		currentTX := txPoints[len(txPoints)-1].Value
		switch {
		case currentTX < FiberTXCriticalMin:
			factors = append(factors, 0.2)
			issues = append(issues, fmt.Sprintf("Critical TX power: %.1fdBm", currentTX))
		case currentTX < FiberTXWarningMin:
			factors = append(factors, 0.5)
			issues = append(issues, fmt.Sprintf("Low TX power: %.1fdBm", currentTX))
		case currentTX < FiberTXHealthyMin:
			factors = append(factors, 0.8)
		default:
			factors = append(factors, 1.0)
		}
	}

	if len(berPoints) > 0 {
		currentBER := berPoints[len(berPoints)-1].Value
		switch {
		case currentBER > FiberBERCriticalMax:
			factors = append(factors, 0.2)
			issues = append(issues, fmt.Sprintf("Critical BER: %.2e", currentBER))
		case currentBER > FiberBERWarningMax:
			factors = append(factors, 0.5)
			issues = append(issues, fmt.Sprintf("Elevated BER: %.2e", currentBER))
		case currentBER > FiberBERHealthyMax:
			factors = append(factors, 0.8)
		default:
			factors = append(factors, 1.0)
		}
	}

	if len(osnrPoints) > 0 {
		currentOSNR := osnrPoints[len(osnrPoints)-1].Value
		switch {
		case currentOSNR < FiberOSNRCriticalMin:
			factors = append(factors, 0.2)
			issues = append(issues, fmt.Sprintf("Critical OSNR: %.1fdB", currentOSNR))
		case currentOSNR < FiberOSNRWarningMin:
			factors = append(factors, 0.5)
			issues = append(issues, fmt.Sprintf("Low OSNR: %.1fdB", currentOSNR))
		case currentOSNR < FiberOSNRHealthyMin:
			factors = append(factors, 0.8)
		default:
			factors = append(factors, 1.0)
		}
	}

	combined := average(factors)
	if rxTrend.Direction == domain.TrendDecreasing {
		combined -= 0.6 * (1 - combined)
		if combined < 0 {
			combined = 0
		}
	}

	health := healthFromScore(combined)
	if health == domain.HealthHealthy && len(issues) == 0 {
		return nil, nil
	}

	var eta *time.Duration
	if rxTrend.Direction == domain.TrendDecreasing && rxTrend.Slope < 0 {
		hours := (currentRX - FiberRXCriticalMin) / -rxTrend.Slope
		if hours > 0 {
			eta = durationPtr(time.Duration(hours * float64(time.Hour)))
		}
	}

	prediction := "Fiber transport degradation detected"
	if len(issues) > 0 {
		prediction = issues[0]
	}

	return &domain.ComponentPrediction{
		Component:         domain.ComponentFiberTransport,
		StationID:         station,
		Prediction:        prediction,
		Confidence:        confidenceFromFit(len(rxPoints), rxTrend.RSquared),
		Probability:       1 - combined,
		ETA:               eta,
		CurrentHealth:     health,
		Trend:             rxTrend,
		RecommendedAction: fiberRecommendation(health),
		DataPoints:        len(rxPoints),
		Window:            window,
	}, nil
}

func fiberRecommendation(health domain.HealthStatus) string {
	switch health {
	case domain.HealthCritical:
		return "URGENT: inspect fiber link, optical transceiver replacement likely required"
	case domain.HealthWarning:
		return "Inspect fiber connectors and optical transceiver"
	case domain.HealthDegraded:
		return "Schedule fiber link inspection"
	default:
		return "No action required"
	}
}
