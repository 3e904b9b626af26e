package xtracer

import (
	"strings"

	"go.opentelemetry.io/otel/trace"
)

// 传播 header 名（小写，与 carrier 的 key 一致）。
const (
	HeaderTraceparent = "traceparent"
	HeaderTracestate  = "tracestate"
	HeaderBaggage     = "baggage"

	// 自定义 header，兼容不支持 W3C 的上游。
	HeaderTraceID = "x-trace-id"
	HeaderSpanID  = "x-span-id"
)

// hasPropagationHeader 判断 carrier 是否携带任何传播 header。
func hasPropagationHeader(carrier map[string]string) bool {
	for _, k := range []string{HeaderTraceparent, HeaderTraceID, HeaderSpanID} {
		if strings.TrimSpace(carrier[k]) != "" {
			return true
		}
	}
	return false
}

// legacySpanContext 从 X-Trace-ID / X-Span-ID 构造远端 span context。
// 自定义 header 不携带采样标志，按已采样处理。
func legacySpanContext(carrier map[string]string) (trace.SpanContext, bool) {
	traceID, err := trace.TraceIDFromHex(strings.ToLower(strings.TrimSpace(carrier[HeaderTraceID])))
	if err != nil {
		return trace.SpanContext{}, false
	}
	spanID, err := trace.SpanIDFromHex(strings.ToLower(strings.TrimSpace(carrier[HeaderSpanID])))
	if err != nil {
		return trace.SpanContext{}, false
	}
	sc := trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    traceID,
		SpanID:     spanID,
		TraceFlags: trace.FlagsSampled,
		Remote:     true,
	})
	return sc, sc.IsValid()
}
