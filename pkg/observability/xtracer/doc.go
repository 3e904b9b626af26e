// Package xtracer 定义请求追踪所需的最小 tracing 契约，并提供基于 OpenTelemetry 的实现。
//
// 契约：
//
//   - [Tracer.Extract] 从小写 header map 中解析上游 span context。
//     没有任何传播 header 时返回 [ErrInvalidCarrier]，header 存在但无法解析时返回
//     [ErrSpanContextCorrupted]。调用方据此回退为根 span。
//   - [Tracer.StartActiveSpan] 启动 server span，parent 无效时启动根 span。
//   - [Scope] 持有 span 与携带 span 的 context，Close 幂等。
//   - [Span] 提供 SetTag / LogKV。
//
// 传播格式为 W3C Trace Context + Baggage，兼容 X-Trace-ID / X-Span-ID 自定义 header。
//
// [NewProvider] 按配置构建 TracerProvider（otlp / stdout / none）。
package xtracer
