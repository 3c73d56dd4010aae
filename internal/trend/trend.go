// Package trend computes least-squares trend statistics over a time-ordered
// window of metric values (spec.md §4.6).
package trend

import (
	"math"
	"time"

	"github.com/bscore/diagnostic-core/internal/domain"
)

// Point is one time-ordered sample fed to Analyze.
type Point struct {
	Timestamp time.Time
	Value     float64
}

// Analyze computes mean/std/min/max/slope/R² and classifies the window's
// direction.
func Analyze(points []Point) domain.TrendAnalysis {
	n := len(points)
	if n == 0 {
		return domain.TrendAnalysis{}
	}

	var sum float64
	minV, maxV := points[0].Value, points[0].Value
	for _, p := range points {
		sum += p.Value
		if p.Value < minV {
			minV = p.Value
		}
		if p.Value > maxV {
			maxV = p.Value
		}
	}
	mean := sum / float64(n)

	var sqDiff float64
	for _, p := range points {
		d := p.Value - mean
		sqDiff += d * d
	}
	var std float64
	if n > 1 {
		std = math.Sqrt(sqDiff / float64(n-1))
	}

	slope, rSquared := leastSquares(points, mean)

	direction := domain.TrendStable
	if mean != 0 && std/math.Abs(mean) > 0.2 {
		direction = domain.TrendErratic
	} else if math.Abs(slope) < 0.1 {
		direction = domain.TrendStable
	} else if slope > 0 {
		direction = domain.TrendIncreasing
	} else {
		direction = domain.TrendDecreasing
	}

	return domain.TrendAnalysis{
		Mean:      mean,
		Std:       std,
		Min:       minV,
		Max:       maxV,
		Count:     n,
		Slope:     slope,
		RSquared:  rSquared,
		Direction: direction,
	}
}

// leastSquares fits value vs. hours-since-first-sample.
func leastSquares(points []Point, meanY float64) (slope, rSquared float64) {
	n := len(points)
	if n < 2 {
		return 0, 0
	}

	t0 := points[0].Timestamp
	xs := make([]float64, n)
	var sumX float64
	for i, p := range points {
		xs[i] = p.Timestamp.Sub(t0).Hours()
		sumX += xs[i]
	}
	meanX := sumX / float64(n)

	var num, den float64
	for i, p := range points {
		dx := xs[i] - meanX
		num += dx * (p.Value - meanY)
		den += dx * dx
	}
	if den == 0 {
		return 0, 0
	}
	slope = num / den
	intercept := meanY - slope*meanX

	var ssRes, ssTot float64
	for i, p := range points {
		predicted := intercept + slope*xs[i]
		ssRes += (p.Value - predicted) * (p.Value - predicted)
		ssTot += (p.Value - meanY) * (p.Value - meanY)
	}
	if ssTot == 0 {
		return slope, 0
	}
	return slope, 1 - ssRes/ssTot
}
