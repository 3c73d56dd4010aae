// Package heal composes remediation actions from analyzer outputs and
// orchestrates their execution with per-station concurrency limits,
// risk-based auto-execute policy, and rollback on failure (spec.md
// §4.10-4.11).
package heal

import (
	"context"
	"sync"
	"time"

	"github.com/bscore/diagnostic-core/internal/config"
	"github.com/bscore/diagnostic-core/internal/domain"
	"github.com/bscore/diagnostic-core/internal/monitoring"
	"github.com/bscore/diagnostic-core/pkg/logger"
)

// CompletionCallback is invoked once per terminal ExecutionResult, after
// counters and history have been updated. Used to notify an external
// producer (e.g. a SON-like collaborator) of the outcome of an action it
// submitted, breaking what would otherwise be a cyclic dependency.
type CompletionCallback func(action domain.HealingAction, result domain.ExecutionResult)

// Orchestrator tracks pending and executing HealingActions, promotes ready
// ones under a per-station concurrency cap, dispatches them to kind-specific
// handlers, and records terminal results in a bounded FIFO history.
type Orchestrator struct {
	cfg    config.OrchestratorConfig
	logger logger.Logger

	mu         sync.Mutex
	pending    map[string]*domain.HealingAction
	executing  map[string]*domain.HealingAction
	active     map[string]int
	history    []domain.ExecutionResult
	historyCap int
	counters   domain.OrchestratorCounters

	// historyStation holds the station of each history entry, same order.
	historyStation []string

	callbacks []CompletionCallback
}

// New returns an Orchestrator configured from cfg.
func New(cfg config.OrchestratorConfig, log logger.Logger) *Orchestrator {
	historyCap := cfg.HistoryCapacity
	if historyCap <= 0 {
		historyCap = 1000
	}
	return &Orchestrator{
		cfg:        cfg,
		logger:     log,
		pending:    make(map[string]*domain.HealingAction),
		executing:  make(map[string]*domain.HealingAction),
		active:     make(map[string]int),
		historyCap: historyCap,
	}
}

// OnCompletion registers a callback invoked after every terminal result.
func (o *Orchestrator) OnCompletion(cb CompletionCallback) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.callbacks = append(o.callbacks, cb)
}

// Run drives the ready-scan loop at cfg.TickInterval (default 1s) until ctx
// is cancelled. A TickInterval of zero disables ticking (used in tests);
// callers must drive Tick manually in that mode.
func (o *Orchestrator) Run(ctx context.Context) {
	interval := o.cfg.TickInterval
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			o.Tick()
		}
	}
}

// Tick promotes ready pending actions to executing and runs timed-out
// executing actions through the timeout path. Safe to call directly in
// tests without a background loop.
func (o *Orchestrator) Tick() {
	o.mu.Lock()
	ready := make([]*domain.HealingAction, 0)
	for _, a := range o.pending {
		if a.AutoExecute && policyAllows(a.Risk) && o.active[a.StationID] < o.maxConcurrent() {
			ready = append(ready, a)
			o.active[a.StationID]++
		}
	}
	timedOut := make([]*domain.HealingAction, 0)
	now := time.Now()
	for _, a := range o.executing {
		if now.Sub(a.CreatedAt) > o.timeoutFor(a) {
			timedOut = append(timedOut, a)
		}
	}
	o.mu.Unlock()

	for _, a := range ready {
		o.execute(a)
	}
	for _, a := range timedOut {
		o.timeout(a)
	}
}

func (o *Orchestrator) maxConcurrent() int {
	if o.cfg.MaxConcurrentPerStation <= 0 {
		return 5
	}
	return o.cfg.MaxConcurrentPerStation
}

func (o *Orchestrator) timeoutFor(a *domain.HealingAction) time.Duration {
	if a.Timeout > 0 {
		return a.Timeout
	}
	if o.cfg.DefaultTimeout > 0 {
		return o.cfg.DefaultTimeout
	}
	return 300 * time.Second
}

// Submit enqueues action as PENDING and reports whether it was immediately
// eligible for auto-execution (spec.md §4.11: eligibility is decided here;
// actual promotion still waits for a free concurrency slot at the next
// tick).
func (o *Orchestrator) Submit(action domain.HealingAction) domain.SubmitOutcome {
	if action.CreatedAt.IsZero() {
		action.CreatedAt = time.Now()
	}

	o.mu.Lock()
	o.pending[action.ID] = &action
	o.counters.Total++
	canAuto := action.AutoExecute && policyAllows(action.Risk)
	if canAuto {
		o.counters.AutoExecuted++
	}
	o.mu.Unlock()

	status := "pending_approval"
	if canAuto {
		status = "queued_for_execution"
	}
	o.logger.Info("healing action submitted", "action_id", action.ID, "kind", string(action.Kind), "station", action.StationID, "status", status)

	return domain.SubmitOutcome{
		Status:           status,
		ActionID:         action.ID,
		AutoExecute:      canAuto,
		RequiresApproval: !canAuto,
	}
}

// Approve marks a PENDING action as auto-executable. No-op if the action is
// not pending.
func (o *Orchestrator) Approve(actionID, approvedBy string) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	action, ok := o.pending[actionID]
	if !ok {
		return false
	}
	action.AutoExecute = true
	o.counters.ManualApproved++
	o.logger.Info("healing action approved", "action_id", actionID, "approved_by", approvedBy)
	return true
}

// Cancel removes a PENDING action. No-op if the action is not pending.
func (o *Orchestrator) Cancel(actionID, reason string) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	if _, ok := o.pending[actionID]; !ok {
		return false
	}
	delete(o.pending, actionID)
	o.logger.Info("healing action cancelled", "action_id", actionID, "reason", reason)
	return true
}

// PendingActions returns a snapshot of pending actions, optionally filtered
// by station.
func (o *Orchestrator) PendingActions(stationID string) []domain.HealingAction {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]domain.HealingAction, 0, len(o.pending))
	for _, a := range o.pending {
		if stationID != "" && a.StationID != stationID {
			continue
		}
		out = append(out, *a)
	}
	return out
}

// ExecutionHistory returns up to limit of the most recent terminal results,
// newest first, optionally filtered by station.
func (o *Orchestrator) ExecutionHistory(stationID string, limit int) []domain.ExecutionResult {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]domain.ExecutionResult, 0, len(o.history))
	for i := len(o.history) - 1; i >= 0; i-- {
		r := o.history[i]
		if stationID != "" && o.historyStation[i] != stationID {
			continue
		}
		out = append(out, r)
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out
}

func (o *Orchestrator) findAction(actionID string) (domain.HealingAction, bool) {
	if a, ok := o.pending[actionID]; ok {
		return *a, true
	}
	if a, ok := o.executing[actionID]; ok {
		return *a, true
	}
	return domain.HealingAction{}, false
}

// Counters returns a snapshot of the orchestrator's execution counters.
func (o *Orchestrator) Counters() domain.OrchestratorCounters {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.counters
}

func (o *Orchestrator) execute(action *domain.HealingAction) {
	o.mu.Lock()
	if _, already := o.executing[action.ID]; already {
		o.mu.Unlock()
		return
	}
	delete(o.pending, action.ID)
	o.executing[action.ID] = action
	o.mu.Unlock()
	monitoring.SetOrchestratorActiveActions(action.StationID, o.activeCount(action.StationID))

	started := time.Now()
	o.logger.Info("executing healing action", "action_id", action.ID, "kind", string(action.Kind))
	outcome := dispatchHandler(*action)

	result := domain.ExecutionResult{
		ActionID:  action.ID,
		StartedAt: started,
		Output:    outcome.output,
	}
	completed := time.Now()
	result.CompletedAt = &completed

	if outcome.success {
		result.Status = domain.StatusSuccess
		o.mu.Lock()
		o.counters.Successful++
		o.mu.Unlock()
	} else {
		result.Status = domain.StatusFailed
		result.Err = outcome.output
		o.mu.Lock()
		o.counters.Failed++
		o.mu.Unlock()
		if action.Rollback != nil {
			o.rollback(action, &result)
		}
	}

	o.finish(action, result)
}

func (o *Orchestrator) timeout(action *domain.HealingAction) {
	now := time.Now()
	result := domain.ExecutionResult{
		ActionID:    action.ID,
		StartedAt:   action.CreatedAt,
		CompletedAt: &now,
		Status:      domain.StatusTimeout,
		Err:         "action execution timed out",
	}
	o.logger.Warn("healing action timed out", "action_id", action.ID)
	o.mu.Lock()
	o.counters.Failed++
	o.mu.Unlock()
	if action.Rollback != nil {
		o.rollback(action, &result)
	}
	o.finish(action, result)
}

func (o *Orchestrator) rollback(action *domain.HealingAction, result *domain.ExecutionResult) {
	o.logger.Info("performing rollback", "action_id", action.ID)
	result.RollbackPerformed = true
	result.Status = domain.StatusRolledBack
	o.mu.Lock()
	o.counters.RolledBack++
	o.mu.Unlock()
}

func (o *Orchestrator) finish(action *domain.HealingAction, result domain.ExecutionResult) {
	o.mu.Lock()
	delete(o.executing, action.ID)
	if o.active[action.StationID] > 0 {
		o.active[action.StationID]--
	}
	o.history = append(o.history, result)
	o.historyStation = append(o.historyStation, action.StationID)
	if len(o.history) > o.historyCap {
		o.history = o.history[len(o.history)-o.historyCap:]
		o.historyStation = o.historyStation[len(o.historyStation)-o.historyCap:]
	}
	callbacks := append([]CompletionCallback(nil), o.callbacks...)
	activeCount := o.active[action.StationID]
	o.mu.Unlock()

	monitoring.RecordHealingAction(statusLabel(result.Status))
	monitoring.SetOrchestratorActiveActions(action.StationID, activeCount)

	for _, cb := range callbacks {
		cb(*action, result)
	}
}

func (o *Orchestrator) activeCount(stationID string) int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.active[stationID]
}

func statusLabel(s domain.ExecutionStatus) string {
	switch s {
	case domain.StatusSuccess:
		return "success"
	case domain.StatusFailed:
		return "failed"
	case domain.StatusRolledBack:
		return "rolled_back"
	case domain.StatusTimeout:
		return "timeout"
	default:
		return "unknown"
	}
}
