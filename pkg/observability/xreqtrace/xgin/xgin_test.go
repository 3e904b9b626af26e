package xgin

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.uber.org/goleak"

	"github.com/omeyang/xreqtrace/pkg/observability/xapptags"
	"github.com/omeyang/xreqtrace/pkg/observability/xlog"
	"github.com/omeyang/xreqtrace/pkg/observability/xregistry"
	"github.com/omeyang/xreqtrace/pkg/observability/xreporter"
	"github.com/omeyang/xreqtrace/pkg/observability/xreqtrace"
	"github.com/omeyang/xreqtrace/pkg/observability/xtracer"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	goleak.VerifyTestMain(m)
}

func setup(t *testing.T, opts ...xreqtrace.Option) (*gin.Engine, *xregistry.Registry, *tracetest.InMemoryExporter) {
	t.Helper()
	exp := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exp))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

	rep, err := xreporter.New(context.Background(), xreporter.Config{Source: "test-host"},
		xreporter.WithReader(sdkmetric.NewManualReader()))
	require.NoError(t, err)
	t.Cleanup(func() { _ = rep.Shutdown(context.Background()) })

	tags, err := xapptags.New("shop", "api")
	require.NoError(t, err)
	base := []xreqtrace.Option{
		xreqtrace.WithTracer(xtracer.New(xtracer.WithTracerProvider(tp))),
		xreqtrace.WithHeartbeat(false),
		xreqtrace.WithLogger(xlog.Discard()),
	}
	m, err := xreqtrace.New(rep, tags, append(base, opts...)...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = m.Close(context.Background()) })

	r := gin.New()
	r.Use(Middleware(m))
	return r, m.Registry(), exp
}

func hasMetric(reg *xregistry.Registry, name string) bool {
	for _, p := range reg.Snapshot() {
		if p.Name == name {
			return true
		}
	}
	return false
}

func showOrder(c *gin.Context) { c.String(http.StatusOK, c.Param("id")) }

func TestTemplate(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"", ""},
		{"/", "/"},
		{"/orders/:id", "/orders/{id}"},
		{"/files/*path", "/files/{path}"},
		{"/a/:x/b/:y", "/a/{x}/b/{y}"},
		{"/static/:", "/static/:"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, Template(tt.in))
		})
	}
}

func TestMiddleware_RecordsRoute(t *testing.T) {
	r, reg, exp := setup(t, xreqtrace.WithTracedAttributes("param.id", "method"))
	r.GET("/orders/:id", showOrder)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/orders/42", nil))
	assert.Equal(t, "42", w.Body.String())

	var found bool
	for _, p := range reg.Snapshot() {
		if p.Name == "response.orders._id_.GET.200.cumulative" {
			found = true
			assert.True(t, strings.HasSuffix(p.Tags["flask.func"], ".showOrder"), p.Tags["flask.func"])
		}
	}
	assert.True(t, found)

	spans := exp.GetSpans()
	require.Len(t, spans, 1)
	attrs := map[string]string{}
	for _, kv := range spans[0].Attributes {
		attrs[string(kv.Key)] = kv.Value.Emit()
	}
	assert.Equal(t, "42", attrs["param.id"])
	assert.Equal(t, "GET", attrs["method"])
	assert.Equal(t, "200", attrs[xreqtrace.TagHTTPStatusCode])
}

func TestMiddleware_UnmatchedRoute(t *testing.T) {
	r, reg, _ := setup(t)
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/nope", nil))
	assert.True(t, hasMetric(reg, "response.UNKNOWN.GET.404.cumulative"))
	assert.True(t, hasMetric(reg, "response.errors"))
}

func TestMiddleware_GinErrorIsRecorded(t *testing.T) {
	r, reg, exp := setup(t)
	r.POST("/orders", func(c *gin.Context) {
		_ = c.Error(errors.New("invalid order"))
		c.Status(http.StatusBadRequest)
	})
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/orders", nil))

	assert.True(t, hasMetric(reg, "response.orders.POST.400.cumulative"))
	spans := exp.GetSpans()
	require.Len(t, spans, 1)
	require.NotEmpty(t, spans[0].Events)
	assert.Equal(t, "exception", spans[0].Events[0].Name)
}

func TestMiddleware_GinErrorWithSuccessStatusCountsAsError(t *testing.T) {
	r, reg, _ := setup(t)
	r.GET("/orders", func(c *gin.Context) {
		_ = c.Error(errors.New("cache refresh failed"))
	})
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/orders", nil))

	assert.True(t, hasMetric(reg, "response.orders.GET.200.cumulative"))
	assert.True(t, hasMetric(reg, "request.orders.GET"))
	assert.True(t, hasMetric(reg, "response.errors"))
}

func TestMiddleware_PanicIsReraised(t *testing.T) {
	r, reg, exp := setup(t)
	r.GET("/boom", func(*gin.Context) { panic("boom") })

	assert.PanicsWithValue(t, "boom", func() {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/boom", nil))
	})
	assert.True(t, hasMetric(reg, "request.boom.GET.cumulative"))
	assert.True(t, hasMetric(reg, "response.errors"))
	assert.Len(t, exp.GetSpans(), 1)
}

func TestMiddleware_RecoveryAfterTracing(t *testing.T) {
	r, reg, _ := setup(t)
	r.Use(gin.Recovery())
	r.GET("/boom", func(*gin.Context) { panic("boom") })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/boom", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.True(t, hasMetric(reg, "response.boom.GET.500.cumulative"))
}
