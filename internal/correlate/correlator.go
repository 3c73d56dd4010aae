package correlate

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/bscore/diagnostic-core/internal/config"
	"github.com/bscore/diagnostic-core/internal/domain"
	"github.com/bscore/diagnostic-core/internal/monitoring"
	"github.com/bscore/diagnostic-core/pkg/logger"
)

// learnedPattern is an operator-confirmed correction applied on future
// clusters whose sorted alarm-type signature matches.
type learnedPattern struct {
	rootCause  string
	confidence float64
	action     string
}

// Correlator groups related alarms into clusters and attributes a root
// cause to each, per the temporal/spatial/causal/pattern pipeline.
type Correlator struct {
	cfg    config.CorrelatorConfig
	logger logger.Logger

	mu       sync.Mutex
	counter  int
	patterns map[string]learnedPattern
}

// New constructs a Correlator with the given DBSCAN/temporal-window
// tuning.
func New(cfg config.CorrelatorConfig, log logger.Logger) *Correlator {
	return &Correlator{
		cfg:      cfg,
		logger:   log,
		patterns: make(map[string]learnedPattern),
	}
}

// Correlate clusters the given alarms and identifies likely root causes,
// per spec.md §4.8.
func (c *Correlator) Correlate(alarms []domain.Alarm) domain.CorrelationResult {
	start := time.Now()
	if len(alarms) == 0 {
		return domain.CorrelationResult{}
	}

	temporalGroups := c.temporalClustering(alarms)
	clusters := c.spatialGrouping(temporalGroups)
	c.causalAnalysis(clusters)
	suppressionCount := c.applySuppression(clusters)

	correlated := make(map[string]struct{}, len(alarms))
	for _, cl := range clusters {
		for _, a := range cl.Alarms {
			correlated[a.AlarmID] = struct{}{}
		}
	}
	var uncorrelated []domain.Alarm
	for _, a := range alarms {
		if _, ok := correlated[a.AlarmID]; !ok {
			uncorrelated = append(uncorrelated, a)
		}
	}

	for range clusters {
		monitoring.RecordAlarmCluster()
	}
	if suppressionCount > 0 {
		monitoring.RecordAlarmsSuppressed(suppressionCount)
	}

	result := domain.CorrelationResult{
		Clusters:         clusters,
		Uncorrelated:     uncorrelated,
		TotalAlarms:      len(alarms),
		SuppressionCount: suppressionCount,
		ProcessingTimeMS: time.Since(start).Milliseconds(),
	}
	return result
}

// temporalClustering runs 1-D DBSCAN over alarm timestamps (seconds since
// the earliest alarm in the batch). Noise points become singleton groups.
func (c *Correlator) temporalClustering(alarms []domain.Alarm) [][]domain.Alarm {
	if len(alarms) < c.cfg.DBSCANMinSamples {
		groups := make([][]domain.Alarm, len(alarms))
		for i, a := range alarms {
			groups[i] = []domain.Alarm{a}
		}
		return groups
	}

	base := alarms[0].Timestamp
	for _, a := range alarms {
		if a.Timestamp.Before(base) {
			base = a.Timestamp
		}
	}
	points := make([]float64, len(alarms))
	for i, a := range alarms {
		points[i] = a.Timestamp.Sub(base).Seconds()
	}

	labels := dbscan1D(points, float64(c.cfg.DBSCANEpsSeconds), c.cfg.DBSCANMinSamples)

	byLabel := make(map[int][]domain.Alarm)
	var noise [][]domain.Alarm
	for i, label := range labels {
		if label == -1 {
			noise = append(noise, []domain.Alarm{alarms[i]})
			continue
		}
		byLabel[label] = append(byLabel[label], alarms[i])
	}

	groups := make([][]domain.Alarm, 0, len(byLabel)+len(noise))
	for _, g := range byLabel {
		groups = append(groups, g)
	}
	groups = append(groups, noise...)
	return groups
}

// spatialGrouping splits each temporal group by station_id, producing one
// AlarmCluster per (temporal group, station) pair.
func (c *Correlator) spatialGrouping(groups [][]domain.Alarm) []domain.AlarmCluster {
	var clusters []domain.AlarmCluster

	c.mu.Lock()
	defer c.mu.Unlock()

	for _, group := range groups {
		byStation := make(map[string][]domain.Alarm)
		var order []string
		for _, a := range group {
			if _, ok := byStation[a.StationID]; !ok {
				order = append(order, a.StationID)
			}
			byStation[a.StationID] = append(byStation[a.StationID], a)
		}

		for _, stationID := range order {
			stationAlarms := byStation[stationID]
			c.counter++
			cluster := domain.AlarmCluster{
				ClusterID:        fmt.Sprintf("CL-%06d", c.counter),
				Alarms:           stationAlarms,
				CorrelationTypes: []domain.CorrelationType{domain.CorrelationTemporal},
				CreatedAt:        time.Now(),
			}
			if len(stationAlarms) > 1 {
				cluster.CorrelationTypes = append(cluster.CorrelationTypes, domain.CorrelationSpatial)
			}
			clusters = append(clusters, cluster)
		}
	}
	return clusters
}

// causalAnalysis attributes a root cause to each multi-alarm cluster:
// known rule match, then earliest-alarm heuristic, then learned pattern
// override.
func (c *Correlator) causalAnalysis(clusters []domain.AlarmCluster) {
	c.mu.Lock()
	patterns := c.patterns
	c.mu.Unlock()

	for i := range clusters {
		cluster := &clusters[i]
		if len(cluster.Alarms) < 2 {
			continue
		}

		types := make(map[string]struct{}, len(cluster.Alarms))
		for _, a := range cluster.Alarms {
			types[a.AlarmType] = struct{}{}
		}

		for _, rule := range causalRules {
			_, hasCause := types[rule.cause]
			_, hasEffect := types[rule.effect]
			if hasCause && hasEffect {
				cluster.CorrelationTypes = append(cluster.CorrelationTypes, domain.CorrelationCausal)
				cluster.RootCause = rule.cause
				cluster.RootCauseConfidence = 0.9
				cluster.RecommendedAction = recommendedActionFor(rule.cause)
				break
			}
		}

		if cluster.RootCause == "" {
			sorted := append([]domain.Alarm{}, cluster.Alarms...)
			sort.Slice(sorted, func(a, b int) bool { return sorted[a].Timestamp.Before(sorted[b].Timestamp) })
			cluster.RootCause = sorted[0].AlarmType
			cluster.RootCauseConfidence = 0.6
			cluster.RecommendedAction = "Investigate " + cluster.RootCause + " as potential root cause"
		}

		key := patternKey(cluster.Alarms)
		if pattern, ok := patterns[key]; ok {
			cluster.RootCause = pattern.rootCause
			cluster.RootCauseConfidence = pattern.confidence
			cluster.RecommendedAction = pattern.action
			cluster.CorrelationTypes = append(cluster.CorrelationTypes, domain.CorrelationPattern)
		}
	}
}

// applySuppression marks non-root-cause alarms in confident clusters as
// suppressed and returns the total number of alarms suppressed across all
// clusters (the suppression counter is global, not per-cluster, per
// spec.md §9's resolution of the source's ambiguous shared counter).
func (c *Correlator) applySuppression(clusters []domain.AlarmCluster) int {
	total := 0
	for i := range clusters {
		cluster := &clusters[i]
		if cluster.RootCause == "" || cluster.RootCauseConfidence <= 0.7 {
			continue
		}
		suppressed := 0
		for _, a := range cluster.Alarms {
			if a.AlarmType != cluster.RootCause {
				suppressed++
			}
		}
		if suppressed > 0 {
			cluster.Suppressed = true
			total += suppressed
		}
	}
	return total
}

func patternKey(alarms []domain.Alarm) string {
	seen := make(map[string]struct{}, len(alarms))
	var types []string
	for _, a := range alarms {
		if _, ok := seen[a.AlarmType]; !ok {
			seen[a.AlarmType] = struct{}{}
			types = append(types, a.AlarmType)
		}
	}
	sort.Strings(types)
	return strings.Join(types, "|")
}

// LearnFromFeedback records an operator-confirmed root cause for future
// clusters matching the same alarm-type signature.
func (c *Correlator) LearnFromFeedback(alarms []domain.Alarm, rootCause, action string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	key := patternKey(alarms)
	c.patterns[key] = learnedPattern{rootCause: rootCause, confidence: 0.85, action: action}
	c.logger.Info("learned alarm pattern", "pattern", key, "root_cause", rootCause)
}
