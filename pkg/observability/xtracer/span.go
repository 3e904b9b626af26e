package xtracer

import (
	"context"
	"fmt"
	"sync"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// 常用 tag 与事件字段。
const (
	TagError     = "error"
	TagComponent = "component"
	TagSpanKind  = "span.kind"

	FieldEvent       = "event"
	FieldErrorObject = "error.object"
	FieldMessage     = "message"

	// EventError LogKV 中表示错误事件的 event 值。
	EventError = "error"
)

type otelSpan struct {
	span trace.Span
}

// SetTag 设置 span 属性。error=true 同时把 span 状态置为 Error。
func (s *otelSpan) SetTag(key string, value any) {
	s.span.SetAttributes(toAttribute(key, value))
	if key == TagError {
		if b, ok := value.(bool); ok && b {
			s.span.SetStatus(codes.Error, "")
		}
	}
}

// LogKV 记录 span 事件。fields["event"] 作为事件名（默认 "log"），
// error.object 为 error 时额外通过 RecordError 记录异常。
func (s *otelSpan) LogKV(fields map[string]any) {
	name := "log"
	if v, ok := fields[FieldEvent].(string); ok && v != "" {
		name = v
	}
	attrs := make([]attribute.KeyValue, 0, len(fields))
	for k, v := range fields {
		if k == FieldEvent {
			continue
		}
		attrs = append(attrs, toAttribute(k, v))
	}
	if err, ok := fields[FieldErrorObject].(error); ok && err != nil {
		s.span.RecordError(err, trace.WithAttributes(attrs...))
		return
	}
	s.span.AddEvent(name, trace.WithAttributes(attrs...))
}

func (s *otelSpan) SpanContext() trace.SpanContext { return s.span.SpanContext() }

func toAttribute(key string, value any) attribute.KeyValue {
	switch v := value.(type) {
	case string:
		return attribute.String(key, v)
	case bool:
		return attribute.Bool(key, v)
	case int:
		return attribute.Int(key, v)
	case int64:
		return attribute.Int64(key, v)
	case float64:
		return attribute.Float64(key, v)
	case error:
		return attribute.String(key, v.Error())
	case fmt.Stringer:
		return attribute.String(key, v.String())
	default:
		return attribute.String(key, fmt.Sprint(v))
	}
}

type otelScope struct {
	span *otelSpan
	ctx  context.Context
	once sync.Once
}

func (s *otelScope) Span() Span               { return s.span }
func (s *otelScope) Context() context.Context { return s.ctx }

func (s *otelScope) Close() {
	s.once.Do(func() { s.span.span.End() })
}

// SpanFromContext 返回 ctx 中的活动 span。ctx 中没有 span 时返回的 Span 为空操作。
func SpanFromContext(ctx context.Context) Span {
	return &otelSpan{span: trace.SpanFromContext(ctx)}
}
