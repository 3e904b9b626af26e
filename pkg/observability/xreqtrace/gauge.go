package xreqtrace

import "github.com/omeyang/xreqtrace/pkg/observability/xmetricname"

// adjustInflight 调整端点级与全局 in-flight gauge。
func (m *Middleware) adjustInflight(req *RequestContext, entity string, delta float64) {
	key := xmetricname.MetricName(entity, req.Method, 0) + xmetricname.SuffixInflight
	m.registry.AdjustGauge(key, m.builder.Func(req.Endpoint), delta)
	m.registry.AdjustGauge(xmetricname.TotalRequestsInflight, m.builder.Overall(), delta)
}
