package xreporter

import (
	"context"
	"fmt"
	"os"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	"go.opentelemetry.io/otel/sdk/resource"

	"github.com/omeyang/xreqtrace/pkg/observability/xlog"
	"github.com/omeyang/xreqtrace/pkg/observability/xregistry"
)

// 默认值。
const (
	DefaultPrefix   = "flask."
	DefaultInterval = time.Minute

	instrumentationName = "github.com/omeyang/xreqtrace/xreporter"

	// 指数直方图参数，与 OTel SDK 默认值一致。
	histogramMaxSize  = 160
	histogramMaxScale = 20
)

// Config Reporter 配置。
type Config struct {
	// Prefix 所有导出指标名称的前缀，空值使用 DefaultPrefix。
	Prefix string
	// Source 写入 resource 的 source 属性，空值使用主机名。
	Source string
	// ServiceName 写入 resource 的 service.name。
	ServiceName string
	// Interval 推送间隔，0 使用 DefaultInterval。
	Interval time.Duration
	// Endpoint OTLP HTTP endpoint（host:port）。空值表示不推送。
	Endpoint string
	Insecure bool
	Headers  map[string]string
}

// Option Reporter 选项。
type Option func(*options)

type options struct {
	reader sdkmetric.Reader
	logger xlog.Logger
}

// WithReader 使用指定 Reader 替代 OTLP exporter，用于测试或自定义导出。
func WithReader(r sdkmetric.Reader) Option {
	return func(o *options) { o.reader = r }
}

// WithLogger 设置日志。registry 中的指标错误以 warn 级别记录。
func WithLogger(l xlog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// Reporter 指标上报器。
type Reporter struct {
	cfg      Config
	provider *sdkmetric.MeterProvider
	registry *xregistry.Registry
	logger   xlog.Logger
}

// Temporality 同步 Counter 选择 Delta，其余选择 Cumulative。
func Temporality(kind sdkmetric.InstrumentKind) metricdata.Temporality {
	if kind == sdkmetric.InstrumentKindCounter {
		return metricdata.DeltaTemporality
	}
	return metricdata.CumulativeTemporality
}

// histogramView 所有直方图使用 base-2 指数桶。延迟（秒）与 CPU 时间（纳秒）量级相差很大，
// 固定边界的默认桶无法同时覆盖。
func histogramView() sdkmetric.View {
	return sdkmetric.NewView(
		sdkmetric.Instrument{Kind: sdkmetric.InstrumentKindHistogram},
		sdkmetric.Stream{Aggregation: sdkmetric.AggregationBase2ExponentialHistogram{
			MaxSize:  histogramMaxSize,
			MaxScale: histogramMaxScale,
		}},
	)
}

// New 创建 Reporter。返回的 Reporter 需要调用 Shutdown 释放资源。
func New(ctx context.Context, cfg Config, opts ...Option) (*Reporter, error) {
	if cfg.Interval < 0 {
		return nil, ErrInvalidInterval
	}
	if cfg.Interval == 0 {
		cfg.Interval = DefaultInterval
	}
	if cfg.Prefix == "" {
		cfg.Prefix = DefaultPrefix
	}
	if cfg.Source == "" {
		cfg.Source = hostname()
	}

	o := options{logger: xlog.Discard()}
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}

	res, err := resource.Merge(resource.Default(), resource.NewSchemaless(
		attribute.String("service.name", cfg.ServiceName),
		attribute.String("source", cfg.Source),
	))
	if err != nil {
		return nil, fmt.Errorf("xreporter: build resource: %w", err)
	}
	mpOpts := []sdkmetric.Option{
		sdkmetric.WithResource(res),
		sdkmetric.WithView(histogramView()),
	}

	reader := o.reader
	if reader == nil && cfg.Endpoint != "" {
		eopts := []otlpmetrichttp.Option{
			otlpmetrichttp.WithEndpoint(cfg.Endpoint),
			otlpmetrichttp.WithTemporalitySelector(Temporality),
		}
		if cfg.Insecure {
			eopts = append(eopts, otlpmetrichttp.WithInsecure())
		}
		if len(cfg.Headers) > 0 {
			eopts = append(eopts, otlpmetrichttp.WithHeaders(cfg.Headers))
		}
		exp, err := otlpmetrichttp.New(ctx, eopts...)
		if err != nil {
			return nil, fmt.Errorf("xreporter: create otlp exporter: %w", err)
		}
		reader = sdkmetric.NewPeriodicReader(exp, sdkmetric.WithInterval(cfg.Interval))
	}
	if reader != nil {
		mpOpts = append(mpOpts, sdkmetric.WithReader(reader))
	}

	r := &Reporter{
		cfg:      cfg,
		provider: sdkmetric.NewMeterProvider(mpOpts...),
		logger:   o.logger,
	}
	r.registry = xregistry.New(
		xregistry.WithMeter(r.provider.Meter(instrumentationName)),
		xregistry.WithPrefix(cfg.Prefix),
		xregistry.WithErrorHandler(r.onRegistryError),
	)
	return r, nil
}

func (r *Reporter) onRegistryError(err error) {
	r.logger.Warn(context.Background(), "metric registry error", xlog.Err(err))
}

// Registry 返回绑定到本 Reporter 的指标注册表。
func (r *Reporter) Registry() *xregistry.Registry { return r.registry }

// Source 返回 source 标识。
func (r *Reporter) Source() string { return r.cfg.Source }

// Prefix 返回导出名称前缀。
func (r *Reporter) Prefix() string { return r.cfg.Prefix }

// MeterProvider 返回底层 MeterProvider，心跳等组件可在其上创建额外 instrument。
func (r *Reporter) MeterProvider() metric.MeterProvider { return r.provider }

// ForceFlush 立即推送一次。
func (r *Reporter) ForceFlush(ctx context.Context) error {
	return r.provider.ForceFlush(ctx)
}

// Shutdown 推送剩余数据并关闭。
func (r *Reporter) Shutdown(ctx context.Context) error {
	return r.provider.Shutdown(ctx)
}

func hostname() string {
	host, err := os.Hostname()
	if err != nil || host == "" {
		return "localhost"
	}
	return host
}
