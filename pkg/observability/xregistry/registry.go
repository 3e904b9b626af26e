package xregistry

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"math"
	"slices"
	"sort"
	"sync"

	"github.com/cespare/xxhash/v2"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

// Option 配置 Registry。
type Option func(*Registry)

// WithMeter 设置导出用的 Meter。未设置时只在本地聚合。
func WithMeter(m metric.Meter) Option {
	return func(r *Registry) { r.meter = m }
}

// WithPrefix 设置导出名称前缀（例如 "flask."）。本地查询仍使用原始名称。
func WithPrefix(prefix string) Option {
	return func(r *Registry) { r.prefix = prefix }
}

// WithErrorHandler 设置错误回调。指标路径不返回错误，
// 类型冲突、instrument 创建失败等通过该回调报告。
func WithErrorHandler(fn func(error)) Option {
	return func(r *Registry) {
		if fn != nil {
			r.onError = fn
		}
	}
}

// Registry 带标签的指标注册表。
type Registry struct {
	meter   metric.Meter
	prefix  string
	onError func(error)

	mu       sync.RWMutex
	families map[string]*family
}

// New 创建 Registry。
func New(opts ...Option) *Registry {
	r := &Registry{
		onError:  func(error) {},
		families: make(map[string]*family),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	return r
}

// Prefix 返回导出名称前缀。
func (r *Registry) Prefix() string { return r.prefix }

// ExportName 返回名称在导出端使用的完整形式。增量计数器额外带 [DeltaPrefix]。
func (r *Registry) ExportName(name string, kind Kind) string {
	if kind == KindDeltaCounter {
		return DeltaPrefix + r.prefix + name
	}
	return r.prefix + name
}

// Counter 返回（必要时创建）累积计数器。名称已注册为其他类型时返回 nil，
// nil 句柄的方法是空操作。
func (r *Registry) Counter(name string, tags map[string]string) *Counter {
	s := r.lookup(name, KindCounter, tags)
	if s == nil {
		return nil
	}
	return s.counter
}

// DeltaCounter 返回（必要时创建）增量计数器。
func (r *Registry) DeltaCounter(name string, tags map[string]string) *DeltaCounter {
	s := r.lookup(name, KindDeltaCounter, tags)
	if s == nil {
		return nil
	}
	return s.delta
}

// Gauge 返回（必要时创建）瞬时值。
func (r *Registry) Gauge(name string, tags map[string]string) *Gauge {
	s := r.lookup(name, KindGauge, tags)
	if s == nil {
		return nil
	}
	return s.gauge
}

// Histogram 返回（必要时创建）分布指标。
func (r *Registry) Histogram(name string, tags map[string]string) *Histogram {
	s := r.lookup(name, KindHistogram, tags)
	if s == nil {
		return nil
	}
	return s.histogram
}

// AdjustGauge 在 gauge 当前值上加 delta（未初始化视为 0），返回新值。
func (r *Registry) AdjustGauge(name string, tags map[string]string, delta float64) float64 {
	return r.Gauge(name, tags).Add(delta)
}

func (r *Registry) lookup(name string, kind Kind, tags map[string]string) *series {
	f, err := r.family(name, kind)
	if err != nil {
		r.onError(err)
		return nil
	}
	return f.get(tags)
}

func (r *Registry) family(name string, kind Kind) (*family, error) {
	r.mu.RLock()
	f, ok := r.families[name]
	r.mu.RUnlock()
	if !ok {
		r.mu.Lock()
		if f, ok = r.families[name]; !ok {
			f = r.newFamily(name, kind)
			r.families[name] = f
		}
		r.mu.Unlock()
	}
	if f.kind != kind {
		return nil, fmt.Errorf("%w: %q is %s, requested %s", ErrKindConflict, name, f.kind, kind)
	}
	return f, nil
}

func (r *Registry) newFamily(name string, kind Kind) *family {
	f := &family{
		name:   name,
		kind:   kind,
		series: make(map[uint64][]*series),
	}
	if r.meter == nil {
		return f
	}

	exportName := r.ExportName(name, kind)
	var err error
	switch kind {
	case KindCounter:
		_, err = r.meter.Float64ObservableCounter(exportName, metric.WithFloat64Callback(f.observe))
	case KindGauge:
		_, err = r.meter.Float64ObservableGauge(exportName, metric.WithFloat64Callback(f.observe))
	case KindDeltaCounter:
		f.counter, err = r.meter.Float64Counter(exportName)
		f.report = f.counter != nil
	case KindHistogram:
		f.histogram, err = r.meter.Float64Histogram(exportName)
		f.report = f.histogram != nil
	}
	// SDK 对 "∆"、"~" 开头的名称返回 ErrInstrumentName，但 instrument 仍可用。
	if err != nil && !errors.Is(err, sdkmetric.ErrInstrumentName) {
		r.onError(fmt.Errorf("xregistry: create instrument %q: %w", exportName, err))
	}
	return f
}

// family 同名、同类型指标的全部标签组合。
type family struct {
	name string
	kind Kind

	counter   metric.Float64Counter
	histogram metric.Float64Histogram
	report    bool

	mu     sync.RWMutex
	series map[uint64][]*series
}

// series 一个标签组合对应的句柄。
type series struct {
	tags  map[string]string
	attrs attribute.Set

	counter   *Counter
	delta     *DeltaCounter
	gauge     *Gauge
	histogram *Histogram
}

func (f *family) get(tags map[string]string) *series {
	h := hashTags(tags)

	f.mu.RLock()
	s := findSeries(f.series[h], tags)
	f.mu.RUnlock()
	if s != nil {
		return s
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if s = findSeries(f.series[h], tags); s != nil {
		return s
	}
	s = f.newSeries(tags)
	f.series[h] = append(f.series[h], s)
	return s
}

func (f *family) newSeries(tags map[string]string) *series {
	s := &series{
		tags:  maps.Clone(tags),
		attrs: toAttributeSet(tags),
	}
	switch f.kind {
	case KindCounter:
		s.counter = &Counter{}
	case KindDeltaCounter:
		s.delta = &DeltaCounter{inst: f.counter, attrs: s.attrs, report: f.report}
	case KindGauge:
		s.gauge = newGauge()
	case KindHistogram:
		s.histogram = &Histogram{inst: f.histogram, attrs: s.attrs, report: f.report}
	}
	return s
}

// observe 在采集周期内上报异步 instrument 的当前值。未设置的 gauge 不上报。
func (f *family) observe(_ context.Context, o metric.Float64Observer) error {
	f.mu.RLock()
	defer f.mu.RUnlock()
	for _, bucket := range f.series {
		for _, s := range bucket {
			var v float64
			switch f.kind {
			case KindCounter:
				v = s.counter.Count()
			case KindGauge:
				v = s.gauge.Value()
			default:
				continue
			}
			if math.IsNaN(v) {
				continue
			}
			o.Observe(v, metric.WithAttributeSet(s.attrs))
		}
	}
	return nil
}

func findSeries(bucket []*series, tags map[string]string) *series {
	for _, s := range bucket {
		if maps.Equal(s.tags, tags) {
			return s
		}
	}
	return nil
}

// hashTags 计算与遍历顺序无关的标签哈希。
func hashTags(tags map[string]string) uint64 {
	keys := slices.Sorted(maps.Keys(tags))
	d := xxhash.New()
	for _, k := range keys {
		_, _ = d.WriteString(k)
		_, _ = d.WriteString("\x00")
		_, _ = d.WriteString(tags[k])
		_, _ = d.WriteString("\x01")
	}
	return d.Sum64()
}

func toAttributeSet(tags map[string]string) attribute.Set {
	kvs := make([]attribute.KeyValue, 0, len(tags))
	for k, v := range tags {
		kvs = append(kvs, attribute.String(k, v))
	}
	return attribute.NewSet(kvs...)
}

// Point 快照中的一个数据点。
type Point struct {
	Name  string
	Kind  Kind
	Tags  map[string]string
	Value float64 // counter/delta counter 为累计值，gauge 为当前值，histogram 为 sum
	Count uint64  // 仅 histogram
}

// Snapshot 返回全部数据点，按名称排序，同名按标签哈希排序。
func (r *Registry) Snapshot() []Point {
	r.mu.RLock()
	fams := make([]*family, 0, len(r.families))
	for _, f := range r.families {
		fams = append(fams, f)
	}
	r.mu.RUnlock()

	var points []Point
	for _, f := range fams {
		points = append(points, f.points()...)
	}
	sort.SliceStable(points, func(i, j int) bool {
		if points[i].Name != points[j].Name {
			return points[i].Name < points[j].Name
		}
		return hashTags(points[i].Tags) < hashTags(points[j].Tags)
	})
	return points
}

// Find 返回名称与标签完全匹配的数据点。
func (r *Registry) Find(name string, tags map[string]string) (Point, bool) {
	r.mu.RLock()
	f, ok := r.families[name]
	r.mu.RUnlock()
	if !ok {
		return Point{}, false
	}
	f.mu.RLock()
	s := findSeries(f.series[hashTags(tags)], tags)
	f.mu.RUnlock()
	if s == nil {
		return Point{}, false
	}
	return f.point(s), true
}

func (f *family) points() []Point {
	f.mu.RLock()
	defer f.mu.RUnlock()
	out := make([]Point, 0, len(f.series))
	for _, bucket := range f.series {
		for _, s := range bucket {
			out = append(out, f.point(s))
		}
	}
	return out
}

func (f *family) point(s *series) Point {
	p := Point{Name: f.name, Kind: f.kind, Tags: maps.Clone(s.tags)}
	switch f.kind {
	case KindCounter:
		p.Value = s.counter.Count()
	case KindDeltaCounter:
		p.Value = s.delta.Count()
	case KindGauge:
		p.Value = s.gauge.Value()
	case KindHistogram:
		p.Value = s.histogram.Sum()
		p.Count = s.histogram.Count()
	}
	return p
}
