package predictor

import (
	"time"

	"github.com/bscore/diagnostic-core/internal/domain"
)

// healthFromScore bands a [0,1] health score per spec.md §4.7.
func healthFromScore(score float64) domain.HealthStatus {
	switch {
	case score < 0.4:
		return domain.HealthCritical
	case score < 0.6:
		return domain.HealthWarning
	case score < 0.8:
		return domain.HealthDegraded
	default:
		return domain.HealthHealthy
	}
}

// confidenceFromFit derives a qualitative confidence from sample count and
// trend fit quality.
func confidenceFromFit(n int, rSquared float64) domain.PredictionConfidence {
	switch {
	case n >= 100 && rSquared > 0.7:
		return domain.PredictionHigh
	case n >= MinDataPoints && rSquared > 0.3:
		return domain.PredictionMedium
	default:
		return domain.PredictionLow
	}
}

func durationPtr(d time.Duration) *time.Duration { return &d }

func average(factors []float64) float64 {
	if len(factors) == 0 {
		return 1.0
	}
	var sum float64
	for _, f := range factors {
		sum += f
	}
	return sum / float64(len(factors))
}
