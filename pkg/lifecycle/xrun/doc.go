// Package xrun 管理进程内多个长期运行任务的启动与协调关闭。
//
// [Group] 基于 errgroup：任一任务返回错误或收到取消时，其余任务的 ctx 同时取消。
// [Run] 额外监听系统信号，收到信号后以 [*SignalError] 作为退出原因。
//
// 任务构造器：
//
//   - [Ticker]：周期执行（心跳上报）
//   - [HTTPServer]：带优雅关闭的 HTTP 服务
package xrun
