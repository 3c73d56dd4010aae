// Package tracing wraps the core's key operations in OpenTelemetry spans:
// submit_action, correlate, and analyze_rca (SPEC_FULL.md §4.14).
package tracing

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
)

// TracerProvider manages the lifecycle of the OpenTelemetry tracer.
type TracerProvider struct {
	tp *sdktrace.TracerProvider
}

// DiagnosticTracer provides spans for the core's analytic operations.
type DiagnosticTracer struct {
	tracer trace.Tracer
}

// NewTracerProvider creates an OTLP-exporting tracer provider and installs
// it as the global provider.
func NewTracerProvider(serviceName, serviceVersion, otlpEndpoint string) (*TracerProvider, error) {
	exporter, err := otlptracegrpc.New(
		context.Background(),
		otlptracegrpc.WithEndpoint(otlpEndpoint),
		otlptracegrpc.WithInsecure(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create OTLP exporter: %w", err)
	}

	res, err := resource.New(
		context.Background(),
		resource.WithAttributes(
			semconv.ServiceNameKey.String(serviceName),
			semconv.ServiceVersionKey.String(serviceVersion),
			semconv.ServiceNamespaceKey.String("diagnostic-core"),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
	)

	otel.SetTracerProvider(tp)

	return &TracerProvider{tp: tp}, nil
}

// Shutdown gracefully shuts down the tracer provider.
func (tp *TracerProvider) Shutdown(ctx context.Context) error {
	return tp.tp.Shutdown(ctx)
}

// NewDiagnosticTracer builds a tracer named serviceName.
func NewDiagnosticTracer(serviceName string) *DiagnosticTracer {
	return &DiagnosticTracer{tracer: otel.Tracer(serviceName)}
}

// StartSubmitActionSpan starts a span around Core.SubmitAction.
func (dt *DiagnosticTracer) StartSubmitActionSpan(ctx context.Context, actionID, stationID, kind string) (context.Context, trace.Span) {
	return dt.tracer.Start(ctx, "submit_action",
		trace.WithAttributes(
			attribute.String("action.id", actionID),
			attribute.String("action.station_id", stationID),
			attribute.String("action.kind", kind),
			attribute.String("component", "healing-orchestrator"),
		),
	)
}

// StartCorrelateSpan starts a span around Core.Correlate.
func (dt *DiagnosticTracer) StartCorrelateSpan(ctx context.Context, alarmCount int) (context.Context, trace.Span) {
	return dt.tracer.Start(ctx, "correlate",
		trace.WithAttributes(
			attribute.Int("correlate.alarm_count", alarmCount),
			attribute.String("component", "alarm-correlator"),
		),
	)
}

// StartAnalyzeRCASpan starts a span around Core.AnalyzeRCA.
func (dt *DiagnosticTracer) StartAnalyzeRCASpan(ctx context.Context, eventCount int) (context.Context, trace.Span) {
	return dt.tracer.Start(ctx, "analyze_rca",
		trace.WithAttributes(
			attribute.Int("rca.event_count", eventCount),
			attribute.String("component", "rca-engine"),
		),
	)
}

// RecordCorrelationOutcome annotates a correlate span with its result shape.
func (dt *DiagnosticTracer) RecordCorrelationOutcome(span trace.Span, clusterCount, uncorrelatedCount, suppressionCount int, duration time.Duration) {
	span.SetAttributes(
		attribute.Int("correlate.cluster_count", clusterCount),
		attribute.Int("correlate.uncorrelated_count", uncorrelatedCount),
		attribute.Int("correlate.suppression_count", suppressionCount),
		attribute.Int64("correlate.duration_ms", duration.Milliseconds()),
	)
}

// RecordRCAOutcome annotates an analyze_rca span with its result shape.
func (dt *DiagnosticTracer) RecordRCAOutcome(span trace.Span, rootCauseType string, confidence float64, chainLength int) {
	span.SetAttributes(
		attribute.String("rca.root_cause", rootCauseType),
		attribute.Float64("rca.confidence", confidence),
		attribute.Int("rca.chain_length", chainLength),
	)
}

// RecordActionOutcome annotates a submit_action span with its terminal status.
func (dt *DiagnosticTracer) RecordActionOutcome(span trace.Span, status string, autoExecuted bool) {
	span.SetAttributes(
		attribute.String("action.status", status),
		attribute.Bool("action.auto_executed", autoExecuted),
	)
}

// RecordError marks span as failed with err.
func (dt *DiagnosticTracer) RecordError(span trace.Span, err error) {
	span.SetStatus(codes.Error, err.Error())
	span.RecordError(err)
}

var globalTracer *DiagnosticTracer

// InitGlobalTracer initializes the package-level tracer.
func InitGlobalTracer(serviceName string) {
	globalTracer = NewDiagnosticTracer(serviceName)
}

// GetGlobalTracer returns the package-level tracer, or nil if
// InitGlobalTracer has not been called.
func GetGlobalTracer() *DiagnosticTracer {
	return globalTracer
}
