// Package rca infers a single root cause from a set of correlated events
// using domain causal rules, learned patterns, and temporal heuristics,
// per spec.md §4.9.
package rca

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/bscore/diagnostic-core/internal/domain"
	"github.com/bscore/diagnostic-core/internal/monitoring"
	"github.com/bscore/diagnostic-core/pkg/cache"
	"github.com/bscore/diagnostic-core/pkg/logger"
)

// CacheTTL is how long a computed RCAResult is memoized for an identical
// event set, per SPEC_FULL.md §4.15.
const CacheTTL = 10 * time.Second

var severityRank = map[domain.AlarmSeverity]int{
	domain.AlarmInfo: 0, domain.AlarmWarning: 1, domain.AlarmMinor: 2, domain.AlarmMajor: 3, domain.AlarmCritical: 4,
}

// Engine performs causal inference over CausalEvent sets.
type Engine struct {
	cache  cache.ValkeyCluster
	logger logger.Logger

	mu       sync.Mutex
	patterns map[string]float64 // "type1->type2" -> confidence
}

// New returns an Engine memoizing results in cch.
func New(cch cache.ValkeyCluster, log logger.Logger) *Engine {
	return &Engine{cache: cch, logger: log, patterns: make(map[string]float64)}
}

// Analyze infers the root cause of a set of events, per spec.md §4.9.
// A single event is trivially its own root cause with confidence 0.95.
// An empty set returns nil.
func (e *Engine) Analyze(ctx context.Context, events []domain.CausalEvent) (*domain.RCAResult, error) {
	if len(events) == 0 {
		return nil, nil
	}

	key := cacheKey(events)
	if cached, ok := e.lookupCache(ctx, key); ok {
		return cached, nil
	}

	start := time.Now()

	if len(events) == 1 {
		result := &domain.RCAResult{
			RootCause:         events[0],
			Confidence:        0.95,
			ConfidenceLevel:   domain.ConfidenceHigh,
			Evidence:          []string{"single event, no correlation analysis needed"},
			RecommendedAction: actionFor(events[0].EventType),
			AnalysisTimeMS:    time.Since(start).Milliseconds(),
		}
		e.storeCache(ctx, key, *result)
		monitoring.RecordRCAAnalysis(string(result.ConfidenceLevel))
		return result, nil
	}

	sorted := append([]domain.CausalEvent{}, events...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Timestamp.Before(sorted[j].Timestamp) })

	links := e.buildCausalGraph(sorted)
	// rankCandidates always returns one candidate per input event, so with
	// sorted non-empty (len(events) > 1 on this path) it never returns empty.
	candidates := e.rankCandidates(sorted, links)

	root := candidates[0].Event
	confidence := candidates[0].Confidence

	var chain []domain.CausalLink
	for _, l := range links {
		if l.Cause.EventID == root.EventID {
			chain = append(chain, l)
		}
	}

	var affected []domain.CausalEvent
	for _, ev := range sorted {
		if ev.EventID != root.EventID {
			affected = append(affected, ev)
		}
	}

	level := domain.ConfidenceLow
	switch {
	case confidence > 0.85:
		level = domain.ConfidenceHigh
	case confidence > 0.6:
		level = domain.ConfidenceMedium
	}

	alternatives := candidates[1:min(4, len(candidates))]

	result := &domain.RCAResult{
		RootCause:         root,
		Confidence:        confidence,
		ConfidenceLevel:   level,
		Chain:             chain,
		Affected:          affected,
		Alternatives:      alternatives,
		Evidence:          evidenceSummary(root, chain, sorted),
		RecommendedAction: actionFor(root.EventType),
	}

	result.AnalysisTimeMS = time.Since(start).Milliseconds()
	e.storeCache(ctx, key, *result)
	monitoring.RecordRCAAnalysis(string(result.ConfidenceLevel))
	return result, nil
}

// buildCausalGraph tests every ordered pair (event_i precedes event_j) for
// a causal relationship: domain rule, then learned pattern, then the
// same-station/close-in-time/non-decreasing-severity heuristic.
func (e *Engine) buildCausalGraph(events []domain.CausalEvent) []domain.CausalLink {
	e.mu.Lock()
	patterns := e.patterns
	e.mu.Unlock()

	var links []domain.CausalLink
	for i := 0; i < len(events); i++ {
		for j := i + 1; j < len(events); j++ {
			cause, effect := events[i], events[j]
			if !cause.Timestamp.Before(effect.Timestamp) {
				continue
			}
			lag := effect.Timestamp.Sub(cause.Timestamp).Seconds()

			if k, ok := causalKnowledge[cause.EventType]; ok {
				if _, isEffect := k.effects[effect.EventType]; isEffect {
					maxLag := maxLagFor(cause.EventType)
					if lag <= maxLag {
						confidence := 0.9
						if cause.StationID == effect.StationID {
							confidence += 0.05
						}
						if lag <= maxLag/2 {
							confidence += 0.03
						}
						links = append(links, domain.CausalLink{
							Cause:          cause,
							Effect:         effect,
							Relation:       domain.RelationDirect,
							Confidence:     minf(confidence, 0.99),
							TimeLagSeconds: lag,
							Evidence: []string{
								fmt.Sprintf("known causal rule: %s -> %s", cause.EventType, effect.EventType),
								fmt.Sprintf("temporal precedence: %.1fs delay", lag),
								fmt.Sprintf("same station: %v", cause.StationID == effect.StationID),
							},
						})
						continue
					}
				}
			}

			patternKey := cause.EventType + "->" + effect.EventType
			if confidence, ok := patterns[patternKey]; ok {
				links = append(links, domain.CausalLink{
					Cause:          cause,
					Effect:         effect,
					Relation:       domain.RelationDirect,
					Confidence:     confidence,
					TimeLagSeconds: lag,
					Evidence:       []string{"learned pattern"},
				})
				continue
			}

			if cause.StationID == effect.StationID && lag <= 120 && severityRank[cause.Severity] <= severityRank[effect.Severity] {
				links = append(links, domain.CausalLink{
					Cause:          cause,
					Effect:         effect,
					Relation:       domain.RelationCorrelation,
					Confidence:     0.5,
					TimeLagSeconds: lag,
					Evidence: []string{
						"same station",
						fmt.Sprintf("temporal proximity: %.1fs", lag),
						"severity non-decreasing",
					},
				})
			}
		}
	}
	return links
}

// rankCandidates scores every event as a root-cause candidate: temporal
// earliness (0.3), causal out-degree and mean outgoing confidence (up to
// 0.6 combined), domain-knowledge severity boost (0.1x), and an in-degree
// zero bonus (0.15), clipped to 0.99. Results are sorted descending.
func (e *Engine) rankCandidates(events []domain.CausalEvent, links []domain.CausalLink) []domain.RankedAlternative {
	n := len(events)
	if n == 0 {
		return nil
	}

	scores := make(map[string]float64, n)
	for idx, ev := range events {
		score := 0.0

		timeRank := float64(idx) / float64(n)
		score += (1 - timeRank) * 0.3

		var outgoing []domain.CausalLink
		for _, l := range links {
			if l.Cause.EventID == ev.EventID {
				outgoing = append(outgoing, l)
			}
		}
		if len(outgoing) > 0 {
			score += minf(float64(len(outgoing))*0.15, 0.4)
			sum := 0.0
			for _, l := range outgoing {
				sum += l.Confidence
			}
			score += (sum / float64(len(outgoing))) * 0.2
		}

		if k, ok := causalKnowledge[ev.EventType]; ok {
			score += 0.1 * k.severityBoost
		}

		hasIncoming := false
		for _, l := range links {
			if l.Effect.EventID == ev.EventID {
				hasIncoming = true
				break
			}
		}
		if !hasIncoming {
			score += 0.15
		}

		scores[ev.EventID] = minf(score, 0.99)
	}

	ranked := make([]domain.RankedAlternative, n)
	for i, ev := range events {
		ranked[i] = domain.RankedAlternative{Event: ev, Confidence: scores[ev.EventID]}
	}
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].Confidence > ranked[j].Confidence })
	return ranked
}

func evidenceSummary(root domain.CausalEvent, chain []domain.CausalLink, all []domain.CausalEvent) []string {
	var parts []string

	earliest := all[0].Timestamp
	for _, ev := range all {
		if ev.Timestamp.Before(earliest) {
			earliest = ev.Timestamp
		}
	}
	if root.Timestamp.Equal(earliest) {
		parts = append(parts, fmt.Sprintf("%s occurred first at %s", root.EventType, root.Timestamp.Format("15:04:05")))
	}

	if len(chain) > 0 {
		effects := make([]string, len(chain))
		for i, l := range chain {
			effects[i] = l.Effect.EventType
		}
		parts = append(parts, "known to cause: "+strings.Join(effects, ", "))
	}

	if _, ok := causalKnowledge[root.EventType]; ok {
		parts = append(parts, "matches known causal pattern in domain knowledge base")
	}

	stations := map[string]struct{}{}
	for _, ev := range all {
		stations[ev.StationID] = struct{}{}
	}
	if len(stations) == 1 {
		for s := range stations {
			parts = append(parts, fmt.Sprintf("all events from same station (%s)", s))
		}
	} else {
		parts = append(parts, fmt.Sprintf("events span %d stations", len(stations)))
	}

	if len(parts) == 0 {
		return []string{"analysis based on temporal and statistical patterns"}
	}
	return parts
}

// LearnFromFeedback records an operator-confirmed cause->effect pattern
// for future analyses.
func (e *Engine) LearnFromFeedback(causeType, effectType string, confidence float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.patterns[causeType+"->"+effectType] = confidence
	e.logger.Info("learned RCA pattern", "cause", causeType, "effect", effectType, "confidence", confidence)
}

func (e *Engine) lookupCache(ctx context.Context, key string) (*domain.RCAResult, bool) {
	raw, err := e.cache.Get(ctx, key)
	if err != nil || raw == nil {
		return nil, false
	}
	var out domain.RCAResult
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, false
	}
	return &out, true
}

func (e *Engine) storeCache(ctx context.Context, key string, result domain.RCAResult) {
	raw, err := json.Marshal(result)
	if err != nil {
		return
	}
	if err := e.cache.Set(ctx, key, raw, CacheTTL); err != nil {
		e.logger.Warn("rca cache write failed", "error", err)
	}
}

// cacheKey is a content hash of the event IDs and timestamps so that
// identical inputs hit the cache regardless of slice order.
func cacheKey(events []domain.CausalEvent) string {
	ids := make([]string, len(events))
	for i, ev := range events {
		ids[i] = fmt.Sprintf("%s@%d", ev.EventID, ev.Timestamp.UnixNano())
	}
	sort.Strings(ids)
	h := sha1.Sum([]byte(strings.Join(ids, ",")))
	return "rca:" + hex.EncodeToString(h[:])
}

func minf(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
