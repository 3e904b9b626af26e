// Package xheartbeat 周期性宣告组件存活。
//
// [Heartbeater] 每隔 Interval（默认 10s）为每个组件构造一个 [Beat]，
// 依次交给所有 [Sender]。单个 Sender 失败只记录 warn 日志，不影响其他 Sender
// 和下一次心跳。
//
// 内置 Sender：
//
//   - [MetricSender]：以 OTel gauge "~component.heartbeat" 上报，
//     标签为 application / cluster / service / shard / component
//   - [RedisSender]：写入带 TTL 的 Redis hash，可用于服务发现或存活巡检
//   - [ResilientSender]：为任意 Sender 增加重试（retry-go）与熔断（gobreaker）
package xheartbeat
