// Package stats implements the per-(station, metric) rolling window and
// Welford online statistics that feed the anomaly detector and predictors.
package stats

import "math"

// OnlineStats maintains count/mean/m2/std with Welford's algorithm.
// Invariants: Count >= 0; Std >= 0; Count == 0 implies Mean == 0.
type OnlineStats struct {
	Count int64
	Mean  float64
	M2    float64
	Std   float64
}

// Update folds a new value into the running statistics.
func (s *OnlineStats) Update(v float64) {
	s.Count++
	delta := v - s.Mean
	s.Mean += delta / float64(s.Count)
	delta2 := v - s.Mean
	s.M2 += delta * delta2
	if s.Count > 1 {
		s.Std = math.Sqrt(s.M2 / float64(s.Count-1))
	} else {
		s.Std = 0
	}
}

// SafeStd returns Std, substituting a usable non-zero value for downstream
// divisions when Std is effectively zero (spec.md §4.4).
func (s *OnlineStats) SafeStd() float64 {
	if s.Std < 1e-10 {
		if math.Abs(s.Mean) > 1e-10 {
			return math.Abs(s.Mean) * 0.01
		}
		return 1.0
	}
	return s.Std
}

// ZScore computes |v - mean| / safeStd.
func (s *OnlineStats) ZScore(v float64) float64 {
	return math.Abs(v-s.Mean) / s.SafeStd()
}
