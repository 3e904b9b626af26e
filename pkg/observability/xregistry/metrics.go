package xregistry

import (
	"context"
	"math"
	"sync/atomic"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// atomicFloat 基于 CAS 的 float64 原子值。
type atomicFloat struct {
	bits atomic.Uint64
}

func newAtomicFloat(v float64) *atomicFloat {
	f := &atomicFloat{}
	f.bits.Store(math.Float64bits(v))
	return f
}

func (f *atomicFloat) load() float64 { return math.Float64frombits(f.bits.Load()) }

func (f *atomicFloat) store(v float64) { f.bits.Store(math.Float64bits(v)) }

// update 以 CAS 循环应用 fn，返回新值。
func (f *atomicFloat) update(fn func(cur float64) float64) float64 {
	for {
		old := f.bits.Load()
		next := fn(math.Float64frombits(old))
		if f.bits.CompareAndSwap(old, math.Float64bits(next)) {
			return next
		}
	}
}

func (f *atomicFloat) add(delta float64) float64 {
	return f.update(func(cur float64) float64 { return cur + delta })
}

// Counter 累积计数器。
type Counter struct {
	value atomicFloat
}

// Inc 增加计数，负数会被忽略（计数器单调递增）。
func (c *Counter) Inc(n float64) {
	if c == nil || n < 0 || math.IsNaN(n) {
		return
	}
	c.value.add(n)
}

// Count 返回当前累计值。
func (c *Counter) Count() float64 {
	if c == nil {
		return 0
	}
	return c.value.load()
}

// DeltaCounter 增量计数器。本地保留累计值用于快照，导出时按增量上报。
type DeltaCounter struct {
	value  atomicFloat
	inst   metric.Float64Counter
	attrs  attribute.Set
	report bool
}

// Inc 增加计数，负数会被忽略。
func (c *DeltaCounter) Inc(n float64) {
	if c == nil || n < 0 || math.IsNaN(n) {
		return
	}
	c.value.add(n)
	if c.report {
		c.inst.Add(context.Background(), n, metric.WithAttributeSet(c.attrs))
	}
}

// Count 返回进程内累计值。
func (c *DeltaCounter) Count() float64 {
	if c == nil {
		return 0
	}
	return c.value.load()
}

// Gauge 瞬时值，未设置时为 NaN。
type Gauge struct {
	value *atomicFloat
}

func newGauge() *Gauge {
	return &Gauge{value: newAtomicFloat(math.NaN())}
}

// Value 返回当前值，未设置时为 NaN。
func (g *Gauge) Value() float64 {
	if g == nil {
		return math.NaN()
	}
	return g.value.load()
}

// SetValue 设置当前值。
func (g *Gauge) SetValue(v float64) {
	if g == nil {
		return
	}
	g.value.store(v)
}

// Add 原子地在当前值上加 delta，NaN（未初始化）视为 0，返回新值。
func (g *Gauge) Add(delta float64) float64 {
	if g == nil {
		return math.NaN()
	}
	return g.value.update(func(cur float64) float64 {
		if math.IsNaN(cur) {
			cur = 0
		}
		return cur + delta
	})
}

// Histogram 分布指标。分布计算交给 OTel SDK，本地只保留 count/sum。
type Histogram struct {
	count  atomic.Uint64
	sum    atomicFloat
	inst   metric.Float64Histogram
	attrs  attribute.Set
	report bool
}

// Add 记录一个样本，NaN 会被忽略。
func (h *Histogram) Add(v float64) {
	if h == nil || math.IsNaN(v) {
		return
	}
	h.count.Add(1)
	h.sum.add(v)
	if h.report {
		h.inst.Record(context.Background(), v, metric.WithAttributeSet(h.attrs))
	}
}

// Count 返回样本数。
func (h *Histogram) Count() uint64 {
	if h == nil {
		return 0
	}
	return h.count.Load()
}

// Sum 返回样本和。
func (h *Histogram) Sum() float64 {
	if h == nil {
		return 0
	}
	return h.sum.load()
}
