package xreqtrace

import (
	"errors"

	"go.opentelemetry.io/otel/trace"

	"github.com/omeyang/xreqtrace/pkg/observability/xlog"
	"github.com/omeyang/xreqtrace/pkg/observability/xmetricname"
	"github.com/omeyang/xreqtrace/pkg/observability/xtracer"
)

// span 标签。
const (
	TagHTTPMethod     = "http.method"
	TagHTTPURL        = "http.url"
	TagHTTPStatusCode = "http.status_code"
	SpanKindServer    = "server"
)

func (m *Middleware) startSpan(req *RequestContext, attributes []string) {
	op := operationName(req)
	tracer := m.Tracer()

	parent, err := tracer.Extract(xtracer.LowerHeaders(req.Header))
	if err != nil {
		if !errors.Is(err, xtracer.ErrInvalidCarrier) && !errors.Is(err, xtracer.ErrSpanContextCorrupted) {
			m.logger.Warn(req.ctx, "span context extraction failed", xlog.Endpoint(op), xlog.Err(err))
		} else {
			m.logger.Debug(req.ctx, "no usable parent span context, starting root span",
				xlog.Endpoint(op), xlog.Err(err))
		}
		parent = trace.SpanContext{}
	}

	scope := tracer.StartActiveSpan(req.ctx, op, parent)
	m.scopes.put(req, scope)
	if ctx := scope.Context(); ctx != nil {
		req.ctx = ctx
	}

	span := scope.Span()
	span.SetTag(xtracer.TagComponent, m.opts.component)
	span.SetTag(TagHTTPMethod, req.Method)
	span.SetTag(TagHTTPURL, req.BaseURL)
	span.SetTag(xtracer.TagSpanKind, SpanKindServer)
	span.SetTag(xmetricname.KeyFuncName, req.Endpoint)

	for _, name := range attributes {
		if v, ok := req.attr(name); ok {
			span.SetTag(name, v)
		}
	}
	m.callStartSpanCallback(span, req)
}

// callStartSpanCallback 用户回调的 panic 在此吞掉，不影响请求。
func (m *Middleware) callStartSpanCallback(span xtracer.Span, req *RequestContext) {
	if m.opts.callback == nil {
		return
	}
	defer func() {
		if p := recover(); p != nil {
			m.logger.Debug(req.ctx, "start span callback panicked", xlog.Panic(p))
		}
	}()
	m.opts.callback(span, req)
}

func (m *Middleware) closeSpan(req *RequestContext, status int, err error) {
	scope, ok := m.scopes.pop(req)
	if !ok {
		return
	}
	span := scope.Span()
	if status > 0 {
		span.SetTag(TagHTTPStatusCode, status)
	}
	if xmetricname.IsErrorStatus(status) || err != nil {
		span.SetTag(xtracer.TagError, true)
		fields := map[string]any{xtracer.FieldEvent: xtracer.EventError}
		if err != nil {
			fields[xtracer.FieldErrorObject] = err
		}
		span.LogKV(fields)
	}
	scope.Close()
}
