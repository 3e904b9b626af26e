package xtracer

import (
	"context"

	"go.opentelemetry.io/otel/trace"
)

// Tracer 请求追踪使用的 tracing 契约。
type Tracer interface {
	// Extract 从 header 名已小写的 carrier 中解析上游 span context。
	Extract(carrier map[string]string) (trace.SpanContext, error)

	// StartActiveSpan 启动 span。parent 无效时启动根 span。
	StartActiveSpan(ctx context.Context, operation string, parent trace.SpanContext) Scope
}

// Scope 活动 span 的生命周期句柄。
type Scope interface {
	Span() Span
	// Context 返回携带该 span 的 context。
	Context() context.Context
	// Close 结束 span，多次调用只生效一次。
	Close()
}

// Span span 的标签与事件接口。
type Span interface {
	SetTag(key string, value any)
	LogKV(fields map[string]any)
	SpanContext() trace.SpanContext
}
