package xregistry

import (
	"maps"
	"math"
	"slices"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
)

const promHelp = "exported from xregistry"

// Collector 将 Registry 快照暴露为 Prometheus 指标。
//
// 名称与标签 key 中 Prometheus 不接受的字符替换为 '_'；
// 增量计数器以累计值暴露（Prometheus 端自行计算 rate）；
// histogram 暴露为不带分位数的 summary（count/sum）。
type Collector struct {
	reg *Registry
}

// NewCollector 创建 Collector。
func NewCollector(reg *Registry) *Collector {
	return &Collector{reg: reg}
}

// Describe 不发送描述，Collector 作为 unchecked collector 注册。
func (c *Collector) Describe(chan<- *prometheus.Desc) {}

// Collect 实现 prometheus.Collector。
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	for _, p := range c.reg.Snapshot() {
		if m := c.toMetric(p); m != nil {
			ch <- m
		}
	}
}

func (c *Collector) toMetric(p Point) prometheus.Metric {
	keys := slices.Sorted(maps.Keys(p.Tags))
	labels := make([]string, len(keys))
	values := make([]string, len(keys))
	for i, k := range keys {
		labels[i] = PromName(k)
		values[i] = p.Tags[k]
	}
	desc := prometheus.NewDesc(PromName(c.reg.Prefix()+p.Name), promHelp, labels, nil)

	var (
		m   prometheus.Metric
		err error
	)
	switch p.Kind {
	case KindCounter, KindDeltaCounter:
		m, err = prometheus.NewConstMetric(desc, prometheus.CounterValue, p.Value, values...)
	case KindGauge:
		if math.IsNaN(p.Value) {
			return nil
		}
		m, err = prometheus.NewConstMetric(desc, prometheus.GaugeValue, p.Value, values...)
	case KindHistogram:
		m, err = prometheus.NewConstSummary(desc, p.Count, p.Value, nil, values...)
	}
	if err != nil {
		c.reg.onError(err)
		return nil
	}
	return m
}

// PromName 将任意名称转换为合法的 Prometheus 名称。
func PromName(name string) string {
	var b strings.Builder
	b.Grow(len(name))
	for i, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r == '_', r == ':':
			b.WriteRune(r)
		case r >= '0' && r <= '9':
			if i == 0 {
				b.WriteByte('_')
			}
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	return b.String()
}
