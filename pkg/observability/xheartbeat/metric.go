package xheartbeat

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

const instrumentationName = "github.com/omeyang/xreqtrace/xheartbeat"

// MetricSender 以 gauge 上报心跳，每次心跳记录值 1。
type MetricSender struct {
	gauge metric.Float64Gauge
}

// NewMetricSender 在 mp 上创建 [MetricName] gauge。
func NewMetricSender(mp metric.MeterProvider) (*MetricSender, error) {
	g, err := mp.Meter(instrumentationName).Float64Gauge(MetricName,
		metric.WithDescription("component heartbeat"))
	// "~" 不是 OTel 推荐的名称字符，SDK 仍返回可用的 instrument。
	if err != nil && !errors.Is(err, sdkmetric.ErrInstrumentName) {
		return nil, fmt.Errorf("xheartbeat: create gauge: %w", err)
	}
	return &MetricSender{gauge: g}, nil
}

// Send 实现 Sender。
func (s *MetricSender) Send(ctx context.Context, beat Beat) error {
	keys := make([]string, 0, len(beat.Tags))
	for k := range beat.Tags {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	kvs := make([]attribute.KeyValue, 0, len(keys))
	for _, k := range keys {
		kvs = append(kvs, attribute.String(k, beat.Tags[k]))
	}
	s.gauge.Record(ctx, 1, metric.WithAttributes(kvs...))
	return nil
}
