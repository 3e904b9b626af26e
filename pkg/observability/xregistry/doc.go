// Package xregistry 提供带标签的指标注册表（counter / delta counter / gauge / histogram）。
//
// # 设计理念
//
// 请求指标的名称是动态的（随路由模板变化），而 OpenTelemetry 的 instrument 需要预先创建。
// Registry 以"名称 + 标签"为键维护本地指标句柄，首次出现某个名称时惰性创建对应的
// OTel instrument：
//
//   - Counter：本地累计值，经 Float64ObservableCounter 回调导出（累积语义）
//   - DeltaCounter：名称带 [DeltaPrefix]，经同步 Float64Counter 导出；
//     Reporter 对同步 Counter 选择 Delta temporality，跨进程汇总时不会重复计数
//   - Gauge：本地当前值（初始为 NaN），经 Float64ObservableGauge 回调导出
//   - Histogram：经同步 Float64Histogram 导出，本地只保留 count/sum 供快照使用
//
// 未配置 Meter 时 Registry 仅在本地聚合，适用于测试和 Prometheus 拉取场景（见 [Collector]）。
//
// # 并发安全
//
// 所有方法并发安全。句柄更新使用原子操作；创建句柄时按名称加锁。
// 标签集合的身份由 xxhash 计算，哈希冲突时比较完整标签。
package xregistry
