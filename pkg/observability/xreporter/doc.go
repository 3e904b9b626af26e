// Package xreporter 负责把 [xregistry.Registry] 中的请求指标周期性推送出去。
//
// Reporter 持有一个 OpenTelemetry MeterProvider：
//
//   - 配置了 Endpoint 时，使用 otlpmetrichttp exporter + PeriodicReader 按 Interval 推送
//   - 未配置 Endpoint 时不推送，指标仍在本地聚合，可由 [xregistry.Collector] 暴露给 Prometheus
//   - 测试中可通过 [WithReader] 注入 ManualReader
//
// 同步 Counter（即 delta counter）使用 Delta temporality，其余 instrument 使用 Cumulative，
// 见 [Temporality]。
//
// 所有导出的指标名称带 Prefix（默认 "flask."），resource 上带 source 属性（默认主机名）。
package xreporter
