package heal

import (
	"testing"
	"time"

	"github.com/bscore/diagnostic-core/internal/config"
	"github.com/bscore/diagnostic-core/internal/domain"
	"github.com/bscore/diagnostic-core/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestOrchestrator() *Orchestrator {
	cfg := config.OrchestratorConfig{
		MaxConcurrentPerStation: 5,
		DefaultTimeout:          30 * time.Second,
		TickInterval:            0,
		HistoryCapacity:         1000,
	}
	return New(cfg, logger.New("error"))
}

func lowRiskAction(id string) domain.HealingAction {
	return domain.HealingAction{
		ID:          id,
		StationID:   "S1",
		Kind:        domain.ActionServiceRestart,
		Risk:        domain.RiskLow,
		AutoExecute: true,
		Source:      domain.SourcePredictive,
	}
}

func TestSubmitLowRiskQueuesForAutoExecution(t *testing.T) {
	o := newTestOrchestrator()
	outcome := o.Submit(lowRiskAction("a1"))
	assert.Equal(t, "queued_for_execution", outcome.Status)
	assert.True(t, outcome.AutoExecute)
	assert.False(t, outcome.RequiresApproval)
}

func TestSubmitHighRiskRequiresApproval(t *testing.T) {
	o := newTestOrchestrator()
	action := lowRiskAction("a2")
	action.Risk = domain.RiskHigh
	outcome := o.Submit(action)
	assert.Equal(t, "pending_approval", outcome.Status)
	assert.True(t, outcome.RequiresApproval)
}

func TestTickExecutesReadyActionAndRecordsSuccess(t *testing.T) {
	o := newTestOrchestrator()
	o.Submit(lowRiskAction("a3"))
	o.Tick()

	counters := o.Counters()
	assert.Equal(t, int64(1), counters.Total)
	assert.Equal(t, int64(1), counters.Successful)

	history := o.ExecutionHistory("", 10)
	require.Len(t, history, 1)
	assert.Equal(t, domain.StatusSuccess, history[0].Status)
}

func TestApproveAllowsPendingActionToExecute(t *testing.T) {
	o := newTestOrchestrator()
	action := lowRiskAction("a4")
	action.AutoExecute = false
	o.Submit(action)
	assert.True(t, o.Approve("a4", "operator"))

	o.Tick()
	history := o.ExecutionHistory("", 10)
	require.Len(t, history, 1)
}

func TestCancelRemovesPendingAction(t *testing.T) {
	o := newTestOrchestrator()
	action := lowRiskAction("a5")
	action.AutoExecute = false
	o.Submit(action)
	assert.True(t, o.Cancel("a5", "no longer needed"))
	assert.False(t, o.Cancel("a5", "already gone"))

	o.Tick()
	assert.Empty(t, o.ExecutionHistory("", 10))
}

func TestConcurrencyCapLimitsPerStationExecution(t *testing.T) {
	cfg := config.OrchestratorConfig{MaxConcurrentPerStation: 1, DefaultTimeout: 30 * time.Second, HistoryCapacity: 1000}
	o := New(cfg, logger.New("error"))
	o.Submit(lowRiskAction("b1"))
	o.Submit(lowRiskAction("b2"))

	o.mu.Lock()
	o.active["S1"] = 1
	o.mu.Unlock()
	o.Tick()

	assert.Len(t, o.ExecutionHistory("", 10), 0)
}

func TestOnCompletionCallbackFires(t *testing.T) {
	o := newTestOrchestrator()
	fired := make(chan domain.ExecutionResult, 1)
	o.OnCompletion(func(_ domain.HealingAction, result domain.ExecutionResult) {
		fired <- result
	})
	o.Submit(lowRiskAction("a6"))
	o.Tick()

	select {
	case result := <-fired:
		assert.Equal(t, domain.StatusSuccess, result.Status)
	case <-time.After(time.Second):
		t.Fatal("completion callback never fired")
	}
}

func TestTimeoutWithRollbackDeclaredEndsRolledBack(t *testing.T) {
	o := newTestOrchestrator()
	action := lowRiskAction("a7")
	action.Rollback = &domain.RollbackSpec{Kind: domain.ActionParameterChange}
	action.CreatedAt = time.Now()
	o.executing[action.ID] = &action

	o.timeout(&action)

	history := o.ExecutionHistory("", 10)
	require.Len(t, history, 1)
	assert.Equal(t, domain.StatusRolledBack, history[0].Status)
	assert.True(t, history[0].RollbackPerformed)
	counters := o.Counters()
	assert.Equal(t, int64(1), counters.Failed)
	assert.Equal(t, int64(1), counters.RolledBack)
}

func TestTimeoutWithoutRollbackEndsTimeout(t *testing.T) {
	o := newTestOrchestrator()
	action := lowRiskAction("a8")
	action.CreatedAt = time.Now()
	o.executing[action.ID] = &action

	o.timeout(&action)

	history := o.ExecutionHistory("", 10)
	require.Len(t, history, 1)
	assert.Equal(t, domain.StatusTimeout, history[0].Status)
}
