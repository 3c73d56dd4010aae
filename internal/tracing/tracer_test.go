package tracing

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.opentelemetry.io/otel/trace/noop"
)

func TestStartSubmitActionSpanSetsAttributes(t *testing.T) {
	dt := &DiagnosticTracer{tracer: noop.NewTracerProvider().Tracer("test")}
	ctx, span := dt.StartSubmitActionSpan(context.Background(), "act-1", "S1", "SERVICE_RESTART")
	defer span.End()
	assert.NotNil(t, ctx)
	assert.NotNil(t, span)
}

func TestGlobalTracerInitAndGet(t *testing.T) {
	InitGlobalTracer("diagnostic-core-test")
	assert.NotNil(t, GetGlobalTracer())
}
