package trend

import (
	"testing"
	"time"

	"github.com/bscore/diagnostic-core/internal/domain"
	"github.com/stretchr/testify/assert"
)

func points(values []float64, step time.Duration) []Point {
	now := time.Now()
	out := make([]Point, len(values))
	for i, v := range values {
		out[i] = Point{Timestamp: now.Add(time.Duration(i) * step), Value: v}
	}
	return out
}

func TestAnalyzeDecreasingTrend(t *testing.T) {
	values := make([]float64, 24)
	for i := range values {
		values[i] = 3000 - float64(i)*(500.0/23)
	}
	result := Analyze(points(values, time.Hour))
	assert.Equal(t, domain.TrendDecreasing, result.Direction)
	assert.Less(t, result.Slope, 0.0)
	assert.Greater(t, result.RSquared, 0.9)
}

func TestAnalyzeStableTrend(t *testing.T) {
	values := []float64{50, 50.01, 49.99, 50.02, 49.98, 50}
	result := Analyze(points(values, time.Hour))
	assert.Equal(t, domain.TrendStable, result.Direction)
}

func TestAnalyzeErraticTrend(t *testing.T) {
	values := []float64{10, 90, 5, 95, 2, 99, 1, 100}
	result := Analyze(points(values, time.Minute))
	assert.Equal(t, domain.TrendErratic, result.Direction)
}

func TestAnalyzeEmpty(t *testing.T) {
	result := Analyze(nil)
	assert.Equal(t, 0, result.Count)
}
