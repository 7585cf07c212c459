package tracing

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"
)

func newRecorder(t *testing.T) (*tracetest.SpanRecorder, trace.Tracer) {
	t.Helper()
	rec := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })
	return rec, tp.Tracer("test")
}

func attr(span sdktrace.ReadOnlySpan, key string) attribute.Value {
	for _, kv := range span.Attributes() {
		if string(kv.Key) == key {
			return kv.Value
		}
	}
	return attribute.Value{}
}

func TestMiddleware_RecordsServerSpan(t *testing.T) {
	rec, tracer := newRecorder(t)
	h := Middleware(tracer, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, trace.SpanContextFromContext(r.Context()).IsValid())
		w.WriteHeader(http.StatusNotFound)
	}))

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/v1/Plugin.get", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)

	spans := rec.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "rpc Plugin.get", spans[0].Name())
	assert.Equal(t, trace.SpanKindServer, spans[0].SpanKind())
	assert.Equal(t, "Plugin.get", attr(spans[0], AttrRPCMethod).AsString())
	assert.Equal(t, int64(404), attr(spans[0], AttrHTTPStatus).AsInt64())
	assert.Equal(t, codes.Unset, spans[0].Status().Code)
}

func TestMiddleware_ServerErrorStatus(t *testing.T) {
	rec, tracer := newRecorder(t)
	h := Middleware(tracer, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/v1/Policy.list", nil))

	spans := rec.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, codes.Error, spans[0].Status().Code)
}

func TestMiddleware_ContinuesCallerTrace(t *testing.T) {
	rec, tracer := newRecorder(t)
	prop := propagation.TraceContext{}

	parent := trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    trace.TraceID{0xab},
		SpanID:     trace.SpanID{0xcd},
		TraceFlags: trace.FlagsSampled,
	})
	req := httptest.NewRequest(http.MethodPost, "/v1/Schema.get", nil)
	prop.Inject(trace.ContextWithSpanContext(context.Background(), parent), propagation.HeaderCarrier(req.Header))

	h := Middleware(tracer, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	// The global propagator is a no-op unless a provider installed one.
	withPropagator(t, prop)
	h.ServeHTTP(httptest.NewRecorder(), req)

	spans := rec.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, parent.TraceID(), spans[0].SpanContext().TraceID())
	assert.Equal(t, parent.SpanID(), spans[0].Parent().SpanID())
}

func TestMiddleware_NilTracer(t *testing.T) {
	called := false
	h := Middleware(nil, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { called = true }))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.True(t, called)
}

func TestInject(t *testing.T) {
	withPropagator(t, propagation.TraceContext{})
	sc := trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    trace.TraceID{1},
		SpanID:     trace.SpanID{2},
		TraceFlags: trace.FlagsSampled,
	})
	header := http.Header{}
	Inject(trace.ContextWithSpanContext(context.Background(), sc), header)
	assert.Equal(t, "00-01000000000000000000000000000000-0200000000000000-01", header.Get("traceparent"))
}

func TestRPCMethod(t *testing.T) {
	assert.Equal(t, "Repository.list", RPCMethod("/v1/Repository.list"))
	assert.Equal(t, "/health", RPCMethod("/health"))
	assert.Equal(t, "/v1/", RPCMethod("/v1/"))
}
