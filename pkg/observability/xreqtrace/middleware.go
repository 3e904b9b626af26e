package xreqtrace

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel/metric"

	"github.com/omeyang/xreqtrace/pkg/observability/xapptags"
	"github.com/omeyang/xreqtrace/pkg/observability/xheartbeat"
	"github.com/omeyang/xreqtrace/pkg/observability/xlog"
	"github.com/omeyang/xreqtrace/pkg/observability/xmetricname"
	"github.com/omeyang/xreqtrace/pkg/observability/xregistry"
	"github.com/omeyang/xreqtrace/pkg/observability/xtracer"
	"github.com/omeyang/xreqtrace/pkg/util/xsys"
)

// Reporter 指标上报方。*xreporter.Reporter 满足此接口。
type Reporter interface {
	Registry() *xregistry.Registry
	Source() string
	MeterProvider() metric.MeterProvider
}

// Middleware 请求追踪中间件。
type Middleware struct {
	opts     options
	traceAll bool
	logger   xlog.Logger

	registry *xregistry.Registry
	appTags  xapptags.ApplicationTags
	builder  xmetricname.Builder
	namer    *xmetricname.Namer

	tracerOnce sync.Once
	tracer     xtracer.Tracer

	scopes    scopeRegistry
	heartbeat *xheartbeat.Heartbeater
}

// New 创建 Middleware 并启动心跳。配置错误在此返回。
//
// 提供 App 且开启 trace all requests 时，会在 App 上注册 before / after / teardown 三个钩子。
func New(reporter Reporter, appTags xapptags.ApplicationTags, opts ...Option) (*Middleware, error) {
	if reporter == nil {
		return nil, ErrNilReporter
	}
	o := defaultOptions()
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	if o.tracer != nil && o.tracerFunc != nil {
		return nil, ErrTracerConflict
	}
	if o.callbackSet && o.callback == nil {
		return nil, ErrNilCallback
	}
	traceAll := o.app != nil
	if o.traceAll != nil {
		if *o.traceAll && o.app == nil {
			return nil, ErrTraceAllRequiresApp
		}
		traceAll = *o.traceAll
	}
	if o.logger == nil {
		o.logger = xlog.Default()
	}

	namer, err := xmetricname.NewNamer(0)
	if err != nil {
		return nil, err
	}
	m := &Middleware{
		opts:     o,
		traceAll: traceAll,
		logger:   o.logger,
		registry: reporter.Registry(),
		appTags:  appTags,
		builder:  xmetricname.NewBuilder(appTags),
		namer:    namer,
	}

	if o.heartbeat {
		if err := m.startHeartbeat(reporter); err != nil {
			return nil, err
		}
	}
	if traceAll {
		m.register(o.app)
	}
	return m, nil
}

func (m *Middleware) startHeartbeat(reporter Reporter) error {
	senders := m.opts.heartbeatSenders
	if !m.opts.heartbeatCustom {
		s, err := xheartbeat.NewMetricSender(reporter.MeterProvider())
		if err != nil {
			return err
		}
		senders = []xheartbeat.Sender{s}
	}
	hb, err := xheartbeat.New(xheartbeat.Config{
		ApplicationTags: m.appTags,
		Components:      []string{m.opts.component},
		Source:          reporter.Source(),
		Interval:        m.opts.heartbeatInterval,
		Logger:          m.logger,
	}, senders...)
	if err != nil {
		return err
	}
	if err := hb.Start(); err != nil {
		return err
	}
	m.heartbeat = hb
	return nil
}

func (m *Middleware) register(app App) {
	app.BeforeRequest(m.Start)
	app.AfterRequest(func(req *RequestContext, status int) {
		m.Finish(req, status, nil)
	})
	app.TeardownRequest(func(req *RequestContext, err error) {
		if err != nil {
			m.Finish(req, 0, err)
		}
	})
}

// TraceAllRequests 报告是否处于自动模式。
func (m *Middleware) TraceAllRequests() bool { return m.traceAll }

// Tracer 返回使用的 Tracer。WithTracerFunc 在首次调用时求值，都未设置时使用全局 OTel tracer。
func (m *Middleware) Tracer() xtracer.Tracer {
	m.tracerOnce.Do(func() {
		switch {
		case m.opts.tracer != nil:
			m.tracer = m.opts.tracer
		case m.opts.tracerFunc != nil:
			m.tracer = m.opts.tracerFunc()
		}
		if m.tracer == nil {
			m.tracer = xtracer.New()
		}
	})
	return m.tracer
}

// Registry 返回指标注册表。
func (m *Middleware) Registry() *xregistry.Registry { return m.registry }

// Start 开始追踪请求：记录起始时间与 CPU 时间、启动 span、in-flight +1。
// 使用 WithTracedAttributes 配置的属性。
func (m *Middleware) Start(req *RequestContext) {
	m.start(req, m.opts.attributes)
}

func (m *Middleware) start(req *RequestContext, attributes []string) {
	if req == nil || req.started {
		return
	}
	req.started = true
	if req.ctx == nil {
		req.ctx = context.WithValue(context.Background(), requestKey{}, req)
	}
	req.Set(markerStartTimestamp, time.Now())
	if cpu, err := xsys.ProcessCPUTime(); err == nil {
		req.Set(markerCPUNanos, cpu.Nanoseconds())
	}

	entity := m.entityName(req)
	m.startSpan(req, attributes)
	m.adjustInflight(req, entity, 1)
}

// Finish 结束请求。status > 0 表示已产生响应；err 为未处理的错误。
// 每个请求只生效一次。未 Start 的请求（如 Start 之前的 before hook panic）仍计数，
// 但没有 span、in-flight 和耗时指标。
func (m *Middleware) Finish(req *RequestContext, status int, err error) {
	if req == nil || req.finished {
		return
	}
	req.finished = true

	entity := m.entityName(req)
	if req.started {
		m.adjustInflight(req, entity, -1)
	}
	m.closeSpan(req, status, err)
	m.fanOut(req, entity, status, err)
}

// SpanFromRequest 返回请求当前的活动 span，请求未被追踪或已结束时返回 nil。
func (m *Middleware) SpanFromRequest(req *RequestContext) xtracer.Span {
	if req == nil {
		return nil
	}
	s, ok := m.scopes.get(req)
	if !ok {
		return nil
	}
	return s.Span()
}

// Close 停止心跳。Reporter 与 Tracer 由调用方负责关闭。
func (m *Middleware) Close(ctx context.Context) error {
	if m.heartbeat == nil {
		return nil
	}
	return m.heartbeat.Stop(ctx)
}

func (m *Middleware) entityName(req *RequestContext) string {
	return m.namer.EntityName(req.RouteTemplate, req.Endpoint)
}

// operationName span 操作名：端点名，其次路由模板。
func operationName(req *RequestContext) string {
	switch {
	case req.Endpoint != "":
		return req.Endpoint
	case req.RouteTemplate != "":
		return req.RouteTemplate
	default:
		return xmetricname.UnknownEntity
	}
}
