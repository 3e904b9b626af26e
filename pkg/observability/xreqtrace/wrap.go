package xreqtrace

import (
	"net/http"
	"slices"
)

// ErrorHandlerFunc 返回错误的 handler。
type ErrorHandlerFunc func(w http.ResponseWriter, r *http.Request) error

// Trace 返回手动模式的装饰器，只追踪被装饰的 handler。attrs 为要写入 span 标签的请求属性。
//
// 端点名取 handler 函数名，路由模板取 [RouteTemplate]。handler panic 时记录错误后重新 panic。
// 自动模式下或请求已被追踪时直接透传。
func (m *Middleware) Trace(attrs ...string) func(http.Handler) http.Handler {
	attributes := slices.Clip(append([]string{}, attrs...))
	return func(next http.Handler) http.Handler {
		endpoint := handlerName(next)
		resolve := func(r *http.Request) (string, string) { return endpoint, RouteTemplate(r) }
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if m.passThrough(r) {
				next.ServeHTTP(w, r)
				return
			}
			serveTraced(w, r, next, resolve, m.lifecycle(attributes))
		})
	}
}

// TraceFunc 与 Trace 相同，用于返回错误的 handler。返回的错误会被记录并原样返回；
// 此时若 handler 已写出状态码，指标按该状态码归类，否则按无响应处理。
func (m *Middleware) TraceFunc(attrs ...string) func(ErrorHandlerFunc) ErrorHandlerFunc {
	attributes := slices.Clip(append([]string{}, attrs...))
	return func(fn ErrorHandlerFunc) ErrorHandlerFunc {
		endpoint := handlerName(fn)
		return func(w http.ResponseWriter, r *http.Request) error {
			if m.passThrough(r) {
				return fn(w, r)
			}
			req := NewHTTPRequest(r, endpoint, RouteTemplate(r))
			m.start(req, attributes)

			rec := &statusRecorder{}
			defer func() {
				if p := recover(); p != nil {
					m.Finish(req, 0, NewPanicError(p))
					panic(p)
				}
			}()
			if err := fn(rec.wrap(w), r.WithContext(req.Context())); err != nil {
				m.Finish(req, rec.status, err)
				return err
			}
			m.Finish(req, rec.statusOr(http.StatusOK), nil)
			return nil
		}
	}
}

func (m *Middleware) passThrough(r *http.Request) bool {
	if m.traceAll {
		return true
	}
	_, traced := RequestFromContext(r.Context())
	return traced
}
