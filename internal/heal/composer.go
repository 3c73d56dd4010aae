package heal

import (
	"fmt"
	"time"

	"github.com/bscore/diagnostic-core/internal/domain"
)

// AISolution is the payload an external AI diagnostic collaborator hands
// the orchestrator, carrying its own risk and confidence assessment
// rather than one derived from a table (spec.md §4.10).
type AISolution struct {
	StationID   string
	SolutionID  string
	Description string
	RiskLevel   domain.RiskLevel
	Confidence  float64
	Parameters  map[string]string
	Rollback    *domain.RollbackSpec
}

// SONRecommendation is the payload a SON-like external optimizer hands the
// orchestrator. SON's own recommendation algorithms are out of scope; this
// is only the boundary shape the composer accepts.
type SONRecommendation struct {
	ID                  string
	StationID           string
	FunctionType        string
	ActionType          string
	ActionValue         string
	Description         string
	ExpectedImprovement float64
	AutoExecutable      bool
	RollbackValue       string
}

// composeID produces monotonically distinguishable action IDs without a clock
// read (the module may not call time.Now() at composition sites that need
// determinism in tests); callers that do have a wall clock pass it through
// CreatedAt on the returned action instead.
func composeID(prefix, stationID, suffix string, seq uint64) string {
	return fmt.Sprintf("heal-%s-%s-%s-%06d", prefix, stationID, suffix, seq)
}

// FromPrediction composes a HealingAction from a predictor output. Only
// high-probability predictions (probability >= 0.5) produce an action;
// auto-execution additionally requires risk LOW and probability > 0.7
// (spec.md §4.10).
func FromPrediction(seq uint64, now time.Time, p domain.ComponentPrediction) *domain.HealingAction {
	if p.Probability < 0.5 {
		return nil
	}
	ar, ok := componentActions[p.Component]
	if !ok {
		return nil
	}
	desc := p.RecommendedAction
	if desc == "" {
		desc = fmt.Sprintf("proactive %s maintenance", p.Component)
	}
	return &domain.HealingAction{
		ID:        composeID("pred", p.StationID, string(p.Component), seq),
		StationID: p.StationID,
		Kind:      ar.kind,
		Parameters: map[string]string{
			"component":      string(p.Component),
			"probability":    fmt.Sprintf("%.4f", p.Probability),
			"health_status":  string(p.CurrentHealth),
			"prediction":     p.Prediction,
		},
		Description: desc,
		Risk:        ar.risk,
		Source:      domain.SourcePredictive,
		SourceID:    fmt.Sprintf("%s-%s", p.StationID, p.Component),
		AutoExecute: ar.risk == domain.RiskLow && p.Probability > 0.7,
		Timeout:     300 * time.Second,
		CreatedAt:   now,
	}
}

// FromRCA composes a HealingAction from an RCA result's root cause. Returns
// nil if the root cause's event type has no known remediation mapping.
// Auto-execution is allowed for LOW and MEDIUM risk (spec.md §4.10).
func FromRCA(seq uint64, now time.Time, result domain.RCAResult, analysisID string) *domain.HealingAction {
	ar, ok := rootCauseActions[result.RootCause.EventType]
	if !ok {
		return nil
	}
	desc := result.RecommendedAction
	if desc == "" {
		desc = fmt.Sprintf("remediate %s", result.RootCause.EventType)
	}
	affected := make([]string, 0, len(result.Affected))
	for _, e := range result.Affected {
		affected = append(affected, e.EventID)
	}
	return &domain.HealingAction{
		ID:        composeID("rca", result.RootCause.StationID, result.RootCause.EventType, seq),
		StationID: result.RootCause.StationID,
		Kind:      ar.kind,
		Parameters: map[string]string{
			"root_cause": result.RootCause.EventType,
			"confidence": fmt.Sprintf("%.4f", result.Confidence),
		},
		Description: desc,
		Risk:        ar.risk,
		Source:      domain.SourceRCA,
		SourceID:    analysisID,
		AutoExecute: ar.risk == domain.RiskLow || ar.risk == domain.RiskMedium,
		Timeout:     300 * time.Second,
		CreatedAt:   now,
	}
}

// FromAISolution composes a HealingAction from an external AI diagnostic
// payload. Unlike the predictor/RCA paths it trusts the payload's own risk
// and confidence rather than a table lookup; auto-execution additionally
// requires confidence >= 0.8 (spec.md §4.10).
func FromAISolution(seq uint64, now time.Time, sol AISolution) *domain.HealingAction {
	risk := sol.RiskLevel
	if risk == "" {
		risk = domain.RiskMedium
	}
	auto := (risk == domain.RiskLow || risk == domain.RiskMedium) && sol.Confidence >= 0.8
	return &domain.HealingAction{
		ID:          composeID("ai", sol.StationID, sol.SolutionID, seq),
		StationID:   sol.StationID,
		Kind:        domain.ActionParameterChange,
		Parameters:  sol.Parameters,
		Description: sol.Description,
		Risk:        risk,
		Source:      domain.SourceAI,
		SourceID:    sol.SolutionID,
		AutoExecute: auto,
		Timeout:     300 * time.Second,
		Rollback:    sol.Rollback,
		CreatedAt:   now,
	}
}

// FromSON composes a HealingAction from a SON recommendation.
func FromSON(seq uint64, now time.Time, rec SONRecommendation) *domain.HealingAction {
	ar, ok := sonFunctionActions[rec.FunctionType]
	if !ok {
		ar = defaultSONAction
	}
	desc := rec.Description
	if desc == "" {
		desc = fmt.Sprintf("SON %s action", rec.FunctionType)
	}
	var rollback *domain.RollbackSpec
	if rec.RollbackValue != "" {
		rollback = &domain.RollbackSpec{
			Kind:       domain.ActionParameterChange,
			Parameters: map[string]string{"original_value": rec.RollbackValue},
		}
	}
	return &domain.HealingAction{
		ID:        composeID("son", rec.StationID, rec.ID, seq),
		StationID: rec.StationID,
		Kind:      ar.kind,
		Parameters: map[string]string{
			"action_type":          rec.ActionType,
			"action_value":         rec.ActionValue,
			"expected_improvement": fmt.Sprintf("%.4f", rec.ExpectedImprovement),
		},
		Description: desc,
		Risk:        ar.risk,
		Source:      domain.SourceSON,
		SourceID:    rec.ID,
		AutoExecute: rec.AutoExecutable,
		Timeout:     300 * time.Second,
		Rollback:    rollback,
		CreatedAt:   now,
	}
}
