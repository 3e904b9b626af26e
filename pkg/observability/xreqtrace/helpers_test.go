package xreqtrace

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/omeyang/xreqtrace/pkg/observability/xapptags"
	"github.com/omeyang/xreqtrace/pkg/observability/xlog"
	"github.com/omeyang/xreqtrace/pkg/observability/xregistry"
	"github.com/omeyang/xreqtrace/pkg/observability/xreporter"
	"github.com/omeyang/xreqtrace/pkg/observability/xtracer"
)

type harness struct {
	m        *Middleware
	reg      *xregistry.Registry
	spans    *tracetest.InMemoryExporter
	tp       *sdktrace.TracerProvider
	reporter *xreporter.Reporter
	reader   *sdkmetric.ManualReader
}

func newReporter(t *testing.T) (*xreporter.Reporter, *sdkmetric.ManualReader) {
	t.Helper()
	reader := sdkmetric.NewManualReader(sdkmetric.WithTemporalitySelector(xreporter.Temporality))
	rep, err := xreporter.New(context.Background(), xreporter.Config{Source: "test-host"}, xreporter.WithReader(reader))
	require.NoError(t, err)
	t.Cleanup(func() { _ = rep.Shutdown(context.Background()) })
	return rep, reader
}

func newHarness(t *testing.T, tags xapptags.ApplicationTags, opts ...Option) *harness {
	t.Helper()
	exp := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exp))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

	rep, reader := newReporter(t)
	base := []Option{
		WithTracer(xtracer.New(xtracer.WithTracerProvider(tp))),
		WithHeartbeat(false),
		WithLogger(xlog.Discard()),
	}
	m, err := New(rep, tags, append(base, opts...)...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = m.Close(context.Background()) })

	return &harness{m: m, reg: m.Registry(), spans: exp, tp: tp, reporter: rep, reader: reader}
}

func shopTags(t *testing.T, opts ...xapptags.Option) xapptags.ApplicationTags {
	t.Helper()
	tags, err := xapptags.New("shop", "api", opts...)
	require.NoError(t, err)
	return tags
}

// value 返回指标值，不存在时返回 -1。
func (h *harness) value(name string, tags map[string]string) float64 {
	p, ok := h.reg.Find(name, tags)
	if !ok {
		return -1
	}
	return p.Value
}

func (h *harness) has(name string) bool {
	for _, p := range h.reg.Snapshot() {
		if p.Name == name {
			return true
		}
	}
	return false
}

func (h *harness) hasPrefix(prefix, suffix string) bool {
	for _, p := range h.reg.Snapshot() {
		if strings.HasPrefix(p.Name, prefix) && strings.HasSuffix(p.Name, suffix) {
			return true
		}
	}
	return false
}

func newReq(method, endpoint, template string) *RequestContext {
	req := NewRequestContext(context.Background())
	req.Method = method
	req.Endpoint = endpoint
	req.RouteTemplate = template
	req.BaseURL = "http://example.com" + template
	return req
}

func spanAttr(s tracetest.SpanStub, key string) (string, bool) {
	for _, kv := range s.Attributes {
		if string(kv.Key) == key {
			return kv.Value.Emit(), true
		}
	}
	return "", false
}

// len 返回尚未关闭的 scope 数。
func (r *scopeRegistry) len() int {
	n := 0
	r.m.Range(func(any, any) bool {
		n++
		return true
	})
	return n
}
