// Package monitoring provides Prometheus metrics for the diagnostic core.
//
// Usage:
//
//  1. Setup metrics in your main function:
//     router := gin.New()
//     monitoring.SetupPrometheusMetrics(router)
//
//  2. Add HTTP metrics middleware:
//     router.Use(monitoring.HTTPMetricsMiddleware())
//
//  3. Record domain metrics from the analytic/orchestration packages:
//     monitoring.RecordFrameDecoded()
//     monitoring.RecordAnomalyDetected("CRITICAL")
//     monitoring.RecordHealingAction("success")
package monitoring

import (
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const httpClientErrorThreshold = 400

var (
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bscore_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "bscore_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)

	activeConnections = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "bscore_active_connections",
			Help: "Number of in-flight HTTP requests",
		},
	)

	errorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bscore_errors_total",
			Help: "Total number of errors by component",
		},
		[]string{"type", "component"},
	)

	cacheOperationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bscore_cache_operations_total",
			Help: "Total number of cache operations",
		},
		[]string{"operation", "result"}, // result: hit, miss, error, success, conflict
	)

	framesDecodedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "bscore_frames_decoded_total",
			Help: "Total number of device protocol frames successfully decoded",
		},
	)

	crcErrorsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "bscore_crc_errors_total",
			Help: "Total number of device protocol frames rejected for CRC mismatch or oversize length",
		},
	)

	metricsIngestedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bscore_metrics_ingested_total",
			Help: "Total number of metric readings ingested",
		},
		[]string{"status"}, // accepted, rejected
	)

	anomaliesDetectedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bscore_anomalies_detected_total",
			Help: "Total number of anomalies detected",
		},
		[]string{"severity"},
	)

	alarmClustersTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "bscore_alarm_clusters_total",
			Help: "Total number of alarm clusters produced by correlation",
		},
	)

	alarmsSuppressedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "bscore_alarms_suppressed_total",
			Help: "Total number of alarms suppressed as duplicates of a root cause",
		},
	)

	rcaAnalysesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bscore_rca_analyses_total",
			Help: "Total number of root cause analyses performed",
		},
		[]string{"confidence"},
	)

	healingActionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bscore_healing_actions_total",
			Help: "Total number of self-healing actions by terminal status",
		},
		[]string{"status"}, // success, failed, timeout, rolled_back
	)

	orchestratorActiveActions = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "bscore_orchestrator_active_actions",
			Help: "Number of currently executing healing actions per station",
		},
		[]string{"station"},
	)

	predictionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bscore_predictions_total",
			Help: "Total number of component health predictions by status",
		},
		[]string{"component", "status"},
	)
)

// SetupPrometheusMetrics registers all metrics and exposes /metrics.
func SetupPrometheusMetrics(router gin.IRoutes) {
	_ = prometheus.Register(prometheus.NewGaugeFunc(prometheus.GaugeOpts{ //nolint:errcheck
		Name: "bscore_build_info",
		Help: "Build information for the diagnostic core",
		ConstLabels: prometheus.Labels{
			"component": "diagnostic-core",
		},
	}, func() float64 { return 1 }))

	_ = prometheus.Register(httpRequestsTotal)         //nolint:errcheck
	_ = prometheus.Register(httpRequestDuration)       //nolint:errcheck
	_ = prometheus.Register(activeConnections)         //nolint:errcheck
	_ = prometheus.Register(errorsTotal)               //nolint:errcheck
	_ = prometheus.Register(cacheOperationsTotal)      //nolint:errcheck
	_ = prometheus.Register(framesDecodedTotal)        //nolint:errcheck
	_ = prometheus.Register(crcErrorsTotal)            //nolint:errcheck
	_ = prometheus.Register(metricsIngestedTotal)      //nolint:errcheck
	_ = prometheus.Register(anomaliesDetectedTotal)    //nolint:errcheck
	_ = prometheus.Register(alarmClustersTotal)        //nolint:errcheck
	_ = prometheus.Register(alarmsSuppressedTotal)     //nolint:errcheck
	_ = prometheus.Register(rcaAnalysesTotal)          //nolint:errcheck
	_ = prometheus.Register(healingActionsTotal)       //nolint:errcheck
	_ = prometheus.Register(orchestratorActiveActions) //nolint:errcheck
	_ = prometheus.Register(predictionsTotal)          //nolint:errcheck

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
}

// HTTPMetricsMiddleware collects HTTP request metrics.
func HTTPMetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		method := c.Request.Method
		endpoint := normalizeEndpoint(c.Request.URL.Path)

		activeConnections.Inc()
		defer activeConnections.Dec()

		c.Next()

		statusCode := strconv.Itoa(c.Writer.Status())
		duration := time.Since(start).Seconds()

		httpRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
		httpRequestDuration.WithLabelValues(method, endpoint).Observe(duration)

		if c.Writer.Status() >= httpClientErrorThreshold {
			errorsTotal.WithLabelValues("http", endpoint).Inc()
		}
	}
}

// RecordCacheOperation records cache operation metrics.
func RecordCacheOperation(operation, result string) {
	cacheOperationsTotal.WithLabelValues(operation, result).Inc()
	if result == "error" {
		errorsTotal.WithLabelValues("cache", operation).Inc()
	}
}

// RecordFrameDecoded records a successfully decoded device protocol frame.
func RecordFrameDecoded() {
	framesDecodedTotal.Inc()
}

// RecordCRCError records a frame rejected for CRC mismatch or for an
// oversize length field.
func RecordCRCError() {
	crcErrorsTotal.Inc()
	errorsTotal.WithLabelValues("protocol", "crc").Inc()
}

// RecordMetricIngested records the outcome of a metric ingest.
func RecordMetricIngested(accepted bool) {
	status := "accepted"
	if !accepted {
		status = "rejected"
	}
	metricsIngestedTotal.WithLabelValues(status).Inc()
}

// RecordAnomalyDetected records an anomaly by severity band.
func RecordAnomalyDetected(severity string) {
	anomaliesDetectedTotal.WithLabelValues(severity).Inc()
}

// RecordAlarmCluster records one alarm correlation cluster.
func RecordAlarmCluster() {
	alarmClustersTotal.Inc()
}

// RecordAlarmsSuppressed records suppressed alarm count from one correlation run.
func RecordAlarmsSuppressed(n int) {
	alarmsSuppressedTotal.Add(float64(n))
}

// RecordRCAAnalysis records a completed root cause analysis by confidence level.
func RecordRCAAnalysis(confidence string) {
	rcaAnalysesTotal.WithLabelValues(confidence).Inc()
}

// RecordHealingAction records a terminal execution status for a healing action.
func RecordHealingAction(status string) {
	healingActionsTotal.WithLabelValues(status).Inc()
	if status == "failed" || status == "timeout" {
		errorsTotal.WithLabelValues("healing", status).Inc()
	}
}

// SetOrchestratorActiveActions sets the current in-flight action count for a station.
func SetOrchestratorActiveActions(station string, n int) {
	orchestratorActiveActions.WithLabelValues(station).Set(float64(n))
}

// RecordPrediction records a component health prediction by resulting status.
func RecordPrediction(component, status string) {
	predictionsTotal.WithLabelValues(component, status).Inc()
}

func normalizeEndpoint(path string) string {
	if len(path) > 0 && path[len(path)-1] != '/' {
		path += "/"
	}
	parts := strings.Split(path, "/")
	for i, part := range parts {
		if isNumeric(part) && i > 0 {
			parts[i] = ":id"
		}
	}
	return strings.Join(parts, "/")
}

func isNumeric(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
