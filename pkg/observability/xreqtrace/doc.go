// Package xreqtrace 为 HTTP 请求创建分布式追踪 span，并按 shard / service / cluster / application
// 聚合请求量、延迟、CPU 时间与错误率指标。
//
// # 请求生命周期
//
// 每个请求依次经历：
//
//	span start -> inflight gauge +1 -> handler -> inflight gauge -1 -> span close -> 完成指标
//
// [Middleware.Start] 与 [Middleware.Finish] 是生命周期的两端。同一请求多次 Finish 只生效一次，
// in-flight gauge 在成功、失败、panic 时都对称增减。
//
// # 接入方式
//
//   - 自动模式：[Middleware.Handler] 包装整个 net/http 路由（配合 [MuxResolver]、[ChiResolver]、
//     [GorillaResolver] 在分发前解析路由模板），gin 使用 xgin.Middleware；
//     也可通过 [WithApp] 把钩子注册到 [App]（例如 [HookRegistry]），由应用自行驱动。
//   - 手动模式：[Middleware.Trace] / [Middleware.TraceFunc] 装饰单个 handler。
//     handler 的 panic 与返回的错误会被记录，然后原样向上传递。
//     请求已被自动模式追踪时装饰器直接透传。
//
// # 指标
//
// 名称形如 request.<entity>.<METHOD>.inflight、response.<entity>.<METHOD>.<status>.cumulative，
// 实体名由路由模板清洗得到（见 xmetricname）。完整列表见 fanout.go。
//
// handler 内可通过 [Middleware.SpanFromRequest] 或 xtracer.SpanFromContext 取得当前 span。
package xreqtrace
