// Package core wires the analytic pipeline and healing orchestrator behind
// the façade signatures of spec.md §6, called by the HTTP layer, device
// sessions, and tests alike.
package core

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/bscore/diagnostic-core/internal/anomaly"
	"github.com/bscore/diagnostic-core/internal/config"
	"github.com/bscore/diagnostic-core/internal/correlate"
	"github.com/bscore/diagnostic-core/internal/domain"
	"github.com/bscore/diagnostic-core/internal/heal"
	"github.com/bscore/diagnostic-core/internal/ingest"
	"github.com/bscore/diagnostic-core/internal/predictor"
	"github.com/bscore/diagnostic-core/internal/rca"
	"github.com/bscore/diagnostic-core/internal/stats"
	"github.com/bscore/diagnostic-core/internal/tracing"
	"github.com/bscore/diagnostic-core/pkg/cache"
	"github.com/bscore/diagnostic-core/pkg/logger"
)

// Service implements the Core API façade of spec.md §6. It owns a single
// rolling store, anomaly detector, correlator, RCA engine, predictor, and
// healing orchestrator, all shared across stations; per-station isolation
// is enforced by each component keying its own state on station ID
// (spec.md §5: parallel across stations, single-writer per station).
type Service struct {
	cfg    config.Config
	logger logger.Logger

	store      *stats.Store
	detector   *anomaly.Detector
	ingestor   *ingest.Ingestor
	correlator *correlate.Correlator
	rcaEngine  *rca.Engine
	predictor  *predictor.Predictor
	orch       *heal.Orchestrator

	actionSeq atomic.Uint64

	alarmsMu sync.Mutex
	alarms   map[string][]domain.Alarm // station -> recent uncleared alarms, bounded

	onAnomalyMu sync.RWMutex
	onAnomaly   func(domain.Anomaly)
}

const maxAlarmsPerStation = 500

// New wires every analytic and orchestration component from cfg.
func New(cfg config.Config, cch cache.ValkeyCluster, log logger.Logger) *Service {
	store := stats.NewStore(cfg.Analyzer.RollingWindowCapacity, cfg.Analyzer.RollingWindowRetention)
	detector := anomaly.NewDetector(anomaly.Config{
		ZThreshold:             cfg.Analyzer.ZThreshold,
		IsolationTrees:         cfg.Analyzer.IsolationTrees,
		IsolationSampleSize:    cfg.Analyzer.IsolationSampleSize,
		IsolationContamination: cfg.Analyzer.IsolationContamination,
	}, store)

	return &Service{
		cfg:        cfg,
		logger:     log,
		store:      store,
		detector:   detector,
		ingestor:   ingest.New(store, detector, log),
		correlator: correlate.New(cfg.Correlator, log),
		rcaEngine:  rca.New(cch, log),
		predictor:  predictor.New(store, cch, log),
		orch:       heal.New(cfg.Orchestrator, log),
		alarms:     make(map[string][]domain.Alarm),
	}
}

// Orchestrator exposes the underlying healing orchestrator for wiring the
// tick loop and completion callbacks from main.
func (s *Service) Orchestrator() *heal.Orchestrator { return s.orch }

// LatestValue returns the most recently ingested value for (station,
// metric), for the device protocol's REQUEST_METRICS reply (spec.md §4.2),
// and whether any reading exists yet.
func (s *Service) LatestValue(station string, metric domain.MetricKind) (float64, bool) {
	samples := s.store.Window(station, metric, time.Now())
	if len(samples) == 0 {
		return 0, false
	}
	return samples[len(samples)-1].Value, true
}

// IngestMetric validates and stores a metric reading, returning any
// anomaly detected on this write (spec.md §6: ingest_metric).
func (s *Service) IngestMetric(reading domain.MetricReading) (accepted bool, anomalyResult *domain.Anomaly, err error) {
	result, err := s.ingestor.Ingest(reading)
	if err != nil {
		return false, nil, err
	}
	if result != nil {
		s.fireAnomaly(*result)
	}
	return true, result, nil
}

// OnAnomaly registers a callback invoked after every anomaly detected by
// IngestMetric, regardless of whether the reading arrived over HTTP or a
// device session. Only one callback is held; a later registration replaces
// an earlier one.
func (s *Service) OnAnomaly(cb func(domain.Anomaly)) {
	s.onAnomalyMu.Lock()
	defer s.onAnomalyMu.Unlock()
	s.onAnomaly = cb
}

func (s *Service) fireAnomaly(anomaly domain.Anomaly) {
	s.onAnomalyMu.RLock()
	cb := s.onAnomaly
	s.onAnomalyMu.RUnlock()
	if cb != nil {
		cb(anomaly)
	}
}

// IngestAlarm records an alarm for later correlation. Cleared alarms are
// still recorded (clearing is tracked via the Cleared flag) but do not
// grow the bounded per-station buffer unbounded: oldest alarms are evicted
// past maxAlarmsPerStation.
func (s *Service) IngestAlarm(alarm domain.Alarm) {
	s.alarmsMu.Lock()
	defer s.alarmsMu.Unlock()
	bucket := append(s.alarms[alarm.StationID], alarm)
	if len(bucket) > maxAlarmsPerStation {
		bucket = bucket[len(bucket)-maxAlarmsPerStation:]
	}
	s.alarms[alarm.StationID] = bucket
}

// Correlate runs the alarm correlator over the supplied alarms (spec.md §6:
// correlate). Callers may pass a specific batch, or nil to correlate over
// all alarms currently buffered across stations.
func (s *Service) Correlate(alarms []domain.Alarm) domain.CorrelationResult {
	if alarms == nil {
		alarms = s.allBufferedAlarms()
	}

	var span trace.Span
	if tracer := tracing.GetGlobalTracer(); tracer != nil {
		_, span = tracer.StartCorrelateSpan(context.Background(), len(alarms))
		defer span.End()
	}

	start := time.Now()
	result := s.correlator.Correlate(alarms)
	if span != nil {
		tracing.GetGlobalTracer().RecordCorrelationOutcome(span, len(result.Clusters), len(result.Uncorrelated), result.SuppressionCount, time.Since(start))
	}
	return result
}

func (s *Service) allBufferedAlarms() []domain.Alarm {
	s.alarmsMu.Lock()
	defer s.alarmsMu.Unlock()
	var all []domain.Alarm
	for _, bucket := range s.alarms {
		all = append(all, bucket...)
	}
	return all
}

// AnalyzeRCA runs root cause analysis over the supplied causal events
// (spec.md §6: analyze_rca).
func (s *Service) AnalyzeRCA(ctx context.Context, events []domain.CausalEvent) (*domain.RCAResult, error) {
	var span trace.Span
	if tracer := tracing.GetGlobalTracer(); tracer != nil {
		ctx, span = tracer.StartAnalyzeRCASpan(ctx, len(events))
		defer span.End()
	}

	result, err := s.rcaEngine.Analyze(ctx, events)
	if span == nil {
		return result, err
	}
	tracer := tracing.GetGlobalTracer()
	if err != nil {
		tracer.RecordError(span, err)
		return result, err
	}
	if result != nil {
		tracer.RecordRCAOutcome(span, result.RootCause.EventType, result.Confidence, len(result.Chain))
	}
	return result, err
}

// PredictComponent runs the component-specific predictor (spec.md §6:
// predict_component). A zero window uses the predictor's own default.
func (s *Service) PredictComponent(ctx context.Context, station string, component domain.Component, window time.Duration) (*domain.ComponentPrediction, error) {
	return s.predictor.Predict(ctx, station, component, window)
}

// StationHealthReport runs every component predictor for station and
// summarizes overall health as the worst individual component status
// (spec.md §6: station_health_report).
func (s *Service) StationHealthReport(ctx context.Context, station string, window time.Duration) domain.HealthReport {
	components := []domain.Component{
		domain.ComponentCoolingFan,
		domain.ComponentThermalSystem,
		domain.ComponentPowerSupply,
		domain.ComponentBatterySystem,
		domain.ComponentFiberTransport,
	}
	report := domain.HealthReport{
		StationID:   station,
		GeneratedAt: time.Now(),
		Overall:     domain.HealthHealthy,
	}
	rank := map[domain.HealthStatus]int{
		domain.HealthHealthy: 0, domain.HealthDegraded: 1, domain.HealthWarning: 2,
		domain.HealthCritical: 3, domain.HealthFailed: 4,
	}
	for _, component := range components {
		prediction, err := s.predictor.Predict(ctx, station, component, window)
		if err != nil || prediction == nil {
			continue
		}
		report.Predictions = append(report.Predictions, *prediction)
		if rank[prediction.CurrentHealth] > rank[report.Overall] {
			report.Overall = prediction.CurrentHealth
		}
	}
	return report
}

// SubmitAction composes nothing itself; it forwards an already-composed
// HealingAction to the orchestrator (spec.md §6: submit_action). Action
// composition from analyzer outputs happens via the ComposeFrom* helpers
// before this call.
func (s *Service) SubmitAction(action domain.HealingAction) domain.SubmitOutcome {
	var span trace.Span
	if tracer := tracing.GetGlobalTracer(); tracer != nil {
		_, span = tracer.StartSubmitActionSpan(context.Background(), action.ID, action.StationID, string(action.Kind))
		defer span.End()
	}

	outcome := s.orch.Submit(action)
	if span != nil {
		tracing.GetGlobalTracer().RecordActionOutcome(span, outcome.Status, outcome.AutoExecute)
	}
	return outcome
}

// ApproveAction approves a pending action (spec.md §6: approve_action).
func (s *Service) ApproveAction(actionID, approvedBy string) bool {
	return s.orch.Approve(actionID, approvedBy)
}

// CancelAction cancels a pending action (spec.md §6: cancel_action).
func (s *Service) CancelAction(actionID, reason string) bool {
	return s.orch.Cancel(actionID, reason)
}

// ExecutionHistory returns recent terminal execution results (spec.md §6:
// execution_history).
func (s *Service) ExecutionHistory(station string, limit int) []domain.ExecutionResult {
	return s.orch.ExecutionHistory(station, limit)
}

// nextActionSeq returns a process-wide monotonic sequence number used to
// make composed action IDs distinguishable without a clock read.
func (s *Service) nextActionSeq() uint64 {
	return s.actionSeq.Add(1)
}

// ComposeAndSubmitFromPrediction composes a HealingAction from a component
// prediction (if the prediction warrants one) and submits it.
func (s *Service) ComposeAndSubmitFromPrediction(prediction domain.ComponentPrediction) *domain.SubmitOutcome {
	action := heal.FromPrediction(s.nextActionSeq(), time.Now(), prediction)
	if action == nil {
		return nil
	}
	outcome := s.SubmitAction(*action)
	return &outcome
}

// ComposeAndSubmitFromRCA composes a HealingAction from an RCA result (if
// its root cause warrants one) and submits it.
func (s *Service) ComposeAndSubmitFromRCA(result domain.RCAResult, analysisID string) *domain.SubmitOutcome {
	action := heal.FromRCA(s.nextActionSeq(), time.Now(), result, analysisID)
	if action == nil {
		return nil
	}
	outcome := s.SubmitAction(*action)
	return &outcome
}

// ComposeAndSubmitFromAISolution composes and submits a HealingAction from
// an external AI diagnostic payload.
func (s *Service) ComposeAndSubmitFromAISolution(solution heal.AISolution) domain.SubmitOutcome {
	action := heal.FromAISolution(s.nextActionSeq(), time.Now(), solution)
	return s.SubmitAction(*action)
}

// LearnCorrelationFeedback forwards operator feedback to the correlator so
// future clusters with the same alarm-type signature reuse the confirmed
// root cause.
func (s *Service) LearnCorrelationFeedback(alarms []domain.Alarm, rootCause, action string) {
	s.correlator.LearnFromFeedback(alarms, rootCause, action)
}

// LearnRCAFeedback forwards operator feedback to the RCA engine.
func (s *Service) LearnRCAFeedback(causeType, effectType string, confidence float64) {
	s.rcaEngine.LearnFromFeedback(causeType, effectType, confidence)
}

// Run starts the healing orchestrator's ready-scan loop; it blocks until
// ctx is cancelled and should be run in its own goroutine.
func (s *Service) Run(ctx context.Context) {
	s.orch.Run(ctx)
}
