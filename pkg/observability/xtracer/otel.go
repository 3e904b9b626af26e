package xtracer

import (
	"context"
	"net/http"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

// DefaultInstrumentationName 默认 instrumentation scope 名称。
const DefaultInstrumentationName = "github.com/omeyang/xreqtrace"

// Propagator 默认传播器：W3C Trace Context + Baggage。
func Propagator() propagation.TextMapPropagator {
	return propagation.NewCompositeTextMapPropagator(propagation.TraceContext{}, propagation.Baggage{})
}

// Option 配置 OTelTracer。
type Option func(*OTelTracer)

// WithTracerProvider 设置 TracerProvider，未设置时在首次使用时读取全局 provider。
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(t *OTelTracer) { t.provider = tp }
}

// WithPropagator 设置传播器。
func WithPropagator(p propagation.TextMapPropagator) Option {
	return func(t *OTelTracer) {
		if p != nil {
			t.propagator = p
		}
	}
}

// WithInstrumentationName 设置 instrumentation scope 名称。
func WithInstrumentationName(name string) Option {
	return func(t *OTelTracer) {
		if name != "" {
			t.name = name
		}
	}
}

// WithLegacyHeaders 是否识别并注入 X-Trace-ID / X-Span-ID，默认启用。
func WithLegacyHeaders(enabled bool) Option {
	return func(t *OTelTracer) { t.legacy = enabled }
}

// OTelTracer 基于 OpenTelemetry 的 [Tracer] 实现。
type OTelTracer struct {
	provider   trace.TracerProvider
	propagator propagation.TextMapPropagator
	name       string
	legacy     bool
}

var _ Tracer = (*OTelTracer)(nil)

// New 创建 OTelTracer。
func New(opts ...Option) *OTelTracer {
	t := &OTelTracer{
		propagator: Propagator(),
		name:       DefaultInstrumentationName,
		legacy:     true,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(t)
		}
	}
	return t
}

func (t *OTelTracer) tracer() trace.Tracer {
	tp := t.provider
	if tp == nil {
		tp = otel.GetTracerProvider()
	}
	return tp.Tracer(t.name)
}

// Extract 实现 [Tracer]。W3C traceparent 优先，其次自定义 header。
func (t *OTelTracer) Extract(carrier map[string]string) (trace.SpanContext, error) {
	if len(carrier) == 0 {
		return trace.SpanContext{}, ErrInvalidCarrier
	}
	ctx := t.propagator.Extract(context.Background(), propagation.MapCarrier(carrier))
	if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
		return sc, nil
	}
	if t.legacy {
		if sc, ok := legacySpanContext(carrier); ok {
			return sc, nil
		}
	}
	if hasPropagationHeader(carrier) {
		return trace.SpanContext{}, ErrSpanContextCorrupted
	}
	return trace.SpanContext{}, ErrInvalidCarrier
}

// StartActiveSpan 实现 [Tracer]。span kind 固定为 server。
func (t *OTelTracer) StartActiveSpan(ctx context.Context, operation string, parent trace.SpanContext) Scope {
	if ctx == nil {
		ctx = context.Background()
	}
	opts := []trace.SpanStartOption{trace.WithSpanKind(trace.SpanKindServer)}
	if parent.IsValid() {
		ctx = trace.ContextWithRemoteSpanContext(ctx, parent)
	} else {
		opts = append(opts, trace.WithNewRoot())
	}
	ctx, span := t.tracer().Start(ctx, operation, opts...)
	return &otelScope{span: &otelSpan{span: span}, ctx: ctx}
}

// Inject 将 ctx 中的 span context 写入 carrier（header 名小写）。
func (t *OTelTracer) Inject(ctx context.Context, carrier map[string]string) {
	if carrier == nil {
		return
	}
	t.propagator.Inject(ctx, propagation.MapCarrier(carrier))
	if t.legacy {
		if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
			carrier[HeaderTraceID] = sc.TraceID().String()
			carrier[HeaderSpanID] = sc.SpanID().String()
		}
	}
}

// InjectHeaders 将 ctx 中的 span context 注入出站请求 header。
func (t *OTelTracer) InjectHeaders(ctx context.Context, h http.Header) {
	if h == nil {
		return
	}
	carrier := make(map[string]string, 4)
	t.Inject(ctx, carrier)
	for k, v := range carrier {
		h.Set(k, v)
	}
}

// InjectHeaders 使用默认配置将 ctx 中的 span context 注入 header，
// 用于在处理请求时向下游发起调用。
func InjectHeaders(ctx context.Context, h http.Header) {
	defaultTracer.InjectHeaders(ctx, h)
}

var defaultTracer = New()

// LowerHeaders 将 header 展平为小写 key 的 map，同名多值只保留第一个。
func LowerHeaders(h http.Header) map[string]string {
	m := make(map[string]string, len(h))
	for k, vs := range h {
		if len(vs) == 0 {
			continue
		}
		m[strings.ToLower(k)] = vs[0]
	}
	return m
}
