package xreqtrace

import (
	"time"

	"github.com/omeyang/xreqtrace/pkg/observability/xheartbeat"
	"github.com/omeyang/xreqtrace/pkg/observability/xlog"
	"github.com/omeyang/xreqtrace/pkg/observability/xtracer"
)

// DefaultComponent span component 标签与心跳组件名的默认值。
const DefaultComponent = "flask"

// StartSpanCallback span 启动后调用，可补充自定义标签。panic 会被吞掉。
type StartSpanCallback func(span xtracer.Span, req *RequestContext)

// Option 配置 Middleware。
type Option func(*options)

type options struct {
	tracer     xtracer.Tracer
	tracerFunc func() xtracer.Tracer

	traceAll    *bool
	app         App
	attributes  []string
	callback    StartSpanCallback
	callbackSet bool
	component   string
	logger      xlog.Logger

	heartbeat         bool
	heartbeatSenders  []xheartbeat.Sender
	heartbeatCustom   bool
	heartbeatInterval time.Duration
}

func defaultOptions() options {
	return options{
		component: DefaultComponent,
		heartbeat: true,
	}
}

// WithTracer 使用指定 Tracer。
func WithTracer(t xtracer.Tracer) Option {
	return func(o *options) { o.tracer = t }
}

// WithTracerFunc 首次使用时才通过 fn 获取 Tracer，适用于 tracer 晚于中间件初始化的场景。
func WithTracerFunc(fn func() xtracer.Tracer) Option {
	return func(o *options) { o.tracerFunc = fn }
}

// WithTraceAllRequests 是否追踪所有请求。未设置时，提供了 App 即为 true。
// 显式设置为 true 必须同时提供 App。
func WithTraceAllRequests(enabled bool) Option {
	return func(o *options) { o.traceAll = &enabled }
}

// WithApp 注册生命周期钩子的应用。
func WithApp(app App) Option {
	return func(o *options) { o.app = app }
}

// WithTracedAttributes 自动模式下要写入 span 标签的请求属性名，见 [RequestContext.Attr]。
func WithTracedAttributes(names ...string) Option {
	return func(o *options) { o.attributes = append(o.attributes, names...) }
}

// WithStartSpanCallback 设置 span 启动回调。
func WithStartSpanCallback(fn StartSpanCallback) Option {
	return func(o *options) {
		o.callback = fn
		o.callbackSet = true
	}
}

// WithComponent 设置 component 名称，默认 "flask"。
func WithComponent(name string) Option {
	return func(o *options) {
		if name != "" {
			o.component = name
		}
	}
}

// WithLogger 设置日志，默认使用 xlog.Default()。
func WithLogger(l xlog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithHeartbeat 是否启动心跳，默认启动。
func WithHeartbeat(enabled bool) Option {
	return func(o *options) { o.heartbeat = enabled }
}

// WithHeartbeatSenders 替换默认的心跳发送方（默认以指标形式经 Reporter 上报）。
func WithHeartbeatSenders(senders ...xheartbeat.Sender) Option {
	return func(o *options) {
		o.heartbeatSenders = append(o.heartbeatSenders, senders...)
		o.heartbeatCustom = true
	}
}

// WithHeartbeatInterval 设置心跳间隔，默认 10s。
func WithHeartbeatInterval(d time.Duration) Option {
	return func(o *options) { o.heartbeatInterval = d }
}
