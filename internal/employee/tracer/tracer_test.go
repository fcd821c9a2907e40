package tracer_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace/noop"

	"roster/internal/employee/tracer"
)

func TestNoopTracer_Start(t *testing.T) {
	tr := tracer.NewNoop()
	ctx := context.Background()

	newCtx, span := tr.Start(ctx, tracer.SpanList, tracer.Int(tracer.AttrResultCount, 3))

	assert.Equal(t, ctx, newCtx)
	require.NotNil(t, span)

	span.SetAttributes(tracer.String(tracer.AttrEmployeeID, "abc"))
	span.AddEvent(tracer.EventRetry, tracer.Int(tracer.AttrAttempt, 1))
	span.End(errors.New("upstream failed"))
}

func TestOTelTracer_WithInjectedTracer(t *testing.T) {
	tr := tracer.NewOTel(tracer.WithOTelTracer(noop.NewTracerProvider().Tracer("test")))

	ctx, span := tr.Start(context.Background(), tracer.SpanUpstreamCall,
		tracer.String(tracer.AttrHTTPMethod, "GET"),
		tracer.Bool("flag", true),
		tracer.Int64("big", 1<<40),
		tracer.Duration(tracer.AttrBackoff, 200*time.Millisecond),
		tracer.Attribute{Key: "ignored", Value: struct{}{}},
	)
	require.NotNil(t, ctx)
	require.NotNil(t, span)

	span.AddEvent(tracer.EventRetry, tracer.Int(tracer.AttrAttempt, 2))
	span.End(nil)
}

func TestOTelTracer_DefaultsToGlobalProvider(t *testing.T) {
	tr := tracer.NewOTel()
	_, span := tr.Start(context.Background(), tracer.SpanGet)
	span.End(errors.New("not found"))
}

func TestAttributeConstructors(t *testing.T) {
	assert.Equal(t, tracer.Attribute{Key: "k", Value: "v"}, tracer.String("k", "v"))
	assert.Equal(t, tracer.Attribute{Key: "k", Value: 7}, tracer.Int("k", 7))
	assert.Equal(t, int64(150), tracer.Duration("latency", 150*time.Millisecond).Value)
}
