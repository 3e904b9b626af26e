package xreqtrace

import (
	"net/http"
	"sync"
)

// 生命周期钩子。
type (
	BeforeFunc   func(req *RequestContext)
	AfterFunc    func(req *RequestContext, status int)
	TeardownFunc func(req *RequestContext, err error)
)

// App 可注册请求生命周期钩子的应用。
//
//   - BeforeRequest 在 handler 之前调用
//   - AfterRequest 在 handler 正常产生响应后调用
//   - TeardownRequest 在请求结束时调用，err 为未处理的错误（可能为 nil）
type App interface {
	BeforeRequest(fn BeforeFunc)
	AfterRequest(fn AfterFunc)
	TeardownRequest(fn TeardownFunc)
}

// HookRegistry [App] 的 net/http 实现。通过 [HookRegistry.Handler] 驱动已注册的钩子。
type HookRegistry struct {
	mu       sync.RWMutex
	before   []BeforeFunc
	after    []AfterFunc
	teardown []TeardownFunc
}

var _ App = (*HookRegistry)(nil)

// NewHookRegistry 创建 HookRegistry。
func NewHookRegistry() *HookRegistry { return &HookRegistry{} }

func (h *HookRegistry) BeforeRequest(fn BeforeFunc) {
	if fn == nil {
		return
	}
	h.mu.Lock()
	h.before = append(h.before, fn)
	h.mu.Unlock()
}

func (h *HookRegistry) AfterRequest(fn AfterFunc) {
	if fn == nil {
		return
	}
	h.mu.Lock()
	h.after = append(h.after, fn)
	h.mu.Unlock()
}

func (h *HookRegistry) TeardownRequest(fn TeardownFunc) {
	if fn == nil {
		return
	}
	h.mu.Lock()
	h.teardown = append(h.teardown, fn)
	h.mu.Unlock()
}

// RunBefore 依次调用 before 钩子。
func (h *HookRegistry) RunBefore(req *RequestContext) {
	h.mu.RLock()
	fns := h.before
	h.mu.RUnlock()
	for _, fn := range fns {
		fn(req)
	}
}

// RunAfter 依次调用 after 钩子。
func (h *HookRegistry) RunAfter(req *RequestContext, status int) {
	h.mu.RLock()
	fns := h.after
	h.mu.RUnlock()
	for _, fn := range fns {
		fn(req, status)
	}
}

// RunTeardown 依次调用 teardown 钩子。
func (h *HookRegistry) RunTeardown(req *RequestContext, err error) {
	h.mu.RLock()
	fns := h.teardown
	h.mu.RUnlock()
	for _, fn := range fns {
		fn(req, err)
	}
}

// Handler 用已注册的钩子包装 next。
// 正常返回时依次执行 after(status) 与 teardown(nil)；panic 时执行 teardown(err) 后重新 panic。
// 外层已追踪的请求直接透传。
func (h *HookRegistry) Handler(next http.Handler, resolve RouteResolver) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, traced := RequestFromContext(r.Context()); traced {
			next.ServeHTTP(w, r)
			return
		}
		serveTraced(w, r, next, resolve, lifecycle{
			start: h.RunBefore,
			done: func(req *RequestContext, status int) {
				h.RunAfter(req, status)
				h.RunTeardown(req, nil)
			},
			fail: h.RunTeardown,
		})
	})
}
