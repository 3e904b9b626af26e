// Package xlog 基于 log/slog 的结构化日志。
//
// # 创建 Logger
//
//	logger, cleanup, err := xlog.New().
//		SetLevelString("debug").
//		SetFormat("json").
//		SetRotation("/var/log/app.log", xlog.Rotation{MaxSizeMB: 100}).
//		Build()
//	defer cleanup()
//
// Builder 遵循 first-error-wins，错误在 Build 时返回。
//
// # 链路关联
//
// 默认启用 [EnrichHandler]：ctx 中存在有效的 OTel span 时，
// 日志自动携带 trace_id、span_id、trace_flags。
//
// # 全局 Logger
//
// [Default]、[SetDefault]、[ResetDefault] 以及 [Debug]、[Info]、[Warn]、[Error]
// 面向 demo 和小工具；组件内部通过 Option 注入 Logger，未注入时使用 [Discard]。
//
// # 级别
//
// [Level] 实现 encoding.TextUnmarshaler，可直接从配置文件解析。
// 派生 logger（With/WithGroup）共享父级 LevelVar，动态调整同步生效。
package xlog
