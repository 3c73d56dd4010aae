package domain

import "time"

// ActionKind enumerates the remediations the orchestrator can execute.
type ActionKind string

const (
	ActionParameterChange ActionKind = "PARAMETER_CHANGE"
	ActionServiceRestart  ActionKind = "SERVICE_RESTART"
	ActionLoadBalance     ActionKind = "LOAD_BALANCE"
	ActionPowerCycle      ActionKind = "POWER_CYCLE"
	ActionFailover        ActionKind = "FAILOVER"
	ActionTrafficRedirect ActionKind = "TRAFFIC_REDIRECT"
	ActionAlarmSuppress   ActionKind = "ALARM_SUPPRESS"
)

// RiskLevel gates whether an action may auto-execute.
type RiskLevel string

const (
	RiskLow      RiskLevel = "LOW"
	RiskMedium   RiskLevel = "MEDIUM"
	RiskHigh     RiskLevel = "HIGH"
	RiskCritical RiskLevel = "CRITICAL"
)

// ActionSource identifies which analyzer proposed an action.
type ActionSource string

const (
	SourceSON        ActionSource = "son"
	SourceRCA        ActionSource = "rca"
	SourcePredictive ActionSource = "predictive"
	SourceAI         ActionSource = "ai"
)

// RollbackSpec describes how to undo an action, if applicable.
type RollbackSpec struct {
	Kind       ActionKind
	Parameters map[string]string
}

// HealingAction is a remediation proposed to, or submitted to, the
// orchestrator.
type HealingAction struct {
	ID           string
	StationID    string
	Kind         ActionKind
	Parameters   map[string]string
	Description  string
	Risk         RiskLevel
	Source       ActionSource
	SourceID     string
	AutoExecute  bool
	Timeout      time.Duration
	Rollback     *RollbackSpec
	CreatedAt    time.Time
}

// ExecutionStatus is the lawful state of an ExecutionResult. Transitions
// are monotonic: once terminal, a status never changes (spec.md §8,
// invariant 10).
type ExecutionStatus string

const (
	StatusPending     ExecutionStatus = "PENDING"
	StatusExecuting   ExecutionStatus = "EXECUTING"
	StatusSuccess     ExecutionStatus = "SUCCESS"
	StatusFailed      ExecutionStatus = "FAILED"
	StatusRolledBack  ExecutionStatus = "ROLLED_BACK"
	StatusTimeout     ExecutionStatus = "TIMEOUT"
)

// Terminal reports whether status is one from which no further transition
// is lawful.
func (s ExecutionStatus) Terminal() bool {
	switch s {
	case StatusSuccess, StatusFailed, StatusRolledBack, StatusTimeout:
		return true
	default:
		return false
	}
}

// ExecutionResult tracks the lifecycle of a submitted HealingAction.
type ExecutionResult struct {
	ActionID         string
	Status           ExecutionStatus
	StartedAt        time.Time
	CompletedAt      *time.Time
	Output           string
	Err              string
	MetricsBefore    map[string]float64
	MetricsAfter     map[string]float64
	RollbackPerformed bool
}

// SubmitOutcome is returned to the caller of Core.SubmitAction.
type SubmitOutcome struct {
	Status            string
	ActionID          string
	AutoExecute       bool
	RequiresApproval  bool
}

// OrchestratorCounters is a read-only snapshot of orchestrator-wide
// execution counters.
type OrchestratorCounters struct {
	Total          int64
	Successful     int64
	Failed         int64
	RolledBack     int64
	AutoExecuted   int64
	ManualApproved int64
}
