// Package observability 提供请求追踪与指标相关的子包。
//
// 子包列表：
//   - xreqtrace: HTTP 请求追踪中间件（span、in-flight、完成指标、心跳），含 gin 适配 xgin
//   - xtracer: 基于 OpenTelemetry 的 Tracer 抽象与 W3C / 自定义 header 传播
//   - xregistry: 带标签的指标注册表，桥接到 OpenTelemetry 并可导出给 Prometheus
//   - xreporter: 按周期把注册表导出到 OTLP 的 Reporter
//   - xmetricname: 实体名、指标名与标签组合规则
//   - xapptags: 应用身份（application / cluster / service / shard）
//   - xheartbeat: 组件心跳，支持指标与 Redis 两种存储
//   - xlog: 结构化日志，基于 log/slog 扩展
//
// 设计原则：
//   - 遵循 OpenTelemetry 语义规范
//   - 自动从 context 中提取追踪信息注入日志
//   - 上报失败只记录日志，不影响请求处理
package observability
