package xreqtrace

import (
	"context"
	"net/http"
)

// 请求级标记在 Env 中的 key。
const (
	markerStartTimestamp = "_wf_start_timestamp"
	markerCPUNanos       = "_wf_cpu_nanos"
)

// AttrFunc 按名称探测请求属性。属性不存在或为空时返回 false。
type AttrFunc func(name string) (string, bool)

// RequestContext 单个请求在中间件内的表示，由框架适配层构建。
//
// RequestContext 只在处理该请求的 goroutine 内使用，不需要加锁。
type RequestContext struct {
	Method string
	// BaseURL scheme + host + path，不含 query。
	BaseURL string
	// Endpoint 逻辑 handler 名，作为 span 操作名与 flask.func 标签。
	Endpoint string
	// RouteTemplate 路由模板，可为空。
	RouteTemplate string
	Header        http.Header
	Attr          AttrFunc

	ctx      context.Context
	env      map[string]any
	started  bool
	finished bool
}

// NewRequestContext 创建 RequestContext。ctx 为 nil 时使用 context.Background()。
func NewRequestContext(ctx context.Context) *RequestContext {
	if ctx == nil {
		ctx = context.Background()
	}
	req := &RequestContext{}
	req.ctx = context.WithValue(ctx, requestKey{}, req)
	return req
}

// Context 返回请求 context。span 启动后携带该 span。
func (r *RequestContext) Context() context.Context { return r.ctx }

// Set 写入请求级临时数据。
func (r *RequestContext) Set(key string, v any) {
	if r.env == nil {
		r.env = make(map[string]any, 4)
	}
	r.env[key] = v
}

// Get 读取请求级临时数据。
func (r *RequestContext) Get(key string) (any, bool) {
	v, ok := r.env[key]
	return v, ok
}

func (r *RequestContext) attr(name string) (string, bool) {
	if r.Attr == nil {
		return "", false
	}
	v, ok := r.Attr(name)
	return v, ok && v != ""
}

type requestKey struct{}

// RequestFromContext 返回 ctx 所属的 RequestContext。
func RequestFromContext(ctx context.Context) (*RequestContext, bool) {
	if ctx == nil {
		return nil, false
	}
	req, ok := ctx.Value(requestKey{}).(*RequestContext)
	return req, ok
}
