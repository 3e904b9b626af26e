package xreqtrace

import (
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/felixge/httpsnoop"
)

// RouteResolver 在分发前解析请求的端点名与路由模板，未匹配时返回空串。
type RouteResolver func(r *http.Request) (endpoint, template string)

// NewHTTPRequest 由 *http.Request 构建 RequestContext。Attr 使用 [HTTPAttr]。
func NewHTTPRequest(r *http.Request, endpoint, template string) *RequestContext {
	req := NewRequestContext(r.Context())
	req.Method = r.Method
	req.BaseURL = BaseURL(r)
	req.Endpoint = endpoint
	req.RouteTemplate = template
	req.Header = r.Header
	req.Attr = HTTPAttr(r)
	return req
}

// BaseURL 返回 scheme://host/path，不含 query。
func BaseURL(r *http.Request) string {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if p := r.Header.Get("X-Forwarded-Proto"); p != "" {
		scheme = p
	}
	host := r.Host
	if host == "" && r.URL != nil {
		host = r.URL.Host
	}
	path := ""
	if r.URL != nil {
		path = r.URL.Path
	}
	return scheme + "://" + host + path
}

// HTTPAttr 返回 *http.Request 的属性探测函数。支持的名称：
//
//	method path full_path url base_url host scheme query_string remote_addr
//	user_agent referrer content_type content_length proto
//	header.<Name>  query.<name>
func HTTPAttr(r *http.Request) AttrFunc {
	return func(name string) (string, bool) {
		if h, ok := strings.CutPrefix(name, "header."); ok {
			v := r.Header.Get(h)
			return v, v != ""
		}
		if q, ok := strings.CutPrefix(name, "query."); ok {
			v := r.URL.Query().Get(q)
			return v, v != ""
		}
		var v string
		switch name {
		case "method":
			v = r.Method
		case "path":
			v = r.URL.Path
		case "full_path":
			v = r.URL.Path + "?" + r.URL.RawQuery
		case "url":
			v = BaseURL(r)
			if r.URL.RawQuery != "" {
				v += "?" + r.URL.RawQuery
			}
		case "base_url":
			v = BaseURL(r)
		case "host":
			v = r.Host
		case "scheme":
			v, _, _ = strings.Cut(BaseURL(r), "://")
		case "query_string":
			v = r.URL.RawQuery
		case "remote_addr":
			v = r.RemoteAddr
		case "user_agent":
			v = r.UserAgent()
		case "referrer":
			v = r.Referer()
		case "content_type":
			v = r.Header.Get("Content-Type")
		case "content_length":
			if r.ContentLength >= 0 {
				v = strconv.FormatInt(r.ContentLength, 10)
			}
		case "proto":
			v = r.Proto
		}
		return v, v != ""
	}
}

// lifecycle 适配层驱动的三个阶段。
type lifecycle struct {
	start func(req *RequestContext)
	done  func(req *RequestContext, status int)
	fail  func(req *RequestContext, err error)
}

// serveTraced 在 lifecycle 中执行 next。handler panic 时记录后重新 panic。
func serveTraced(w http.ResponseWriter, r *http.Request, next http.Handler, resolve RouteResolver, lc lifecycle) {
	var endpoint, template string
	if resolve != nil {
		endpoint, template = resolve(r)
	}
	req := NewHTTPRequest(r, endpoint, template)

	rec := &statusRecorder{}
	defer func() {
		if p := recover(); p != nil {
			lc.fail(req, NewPanicError(p))
			panic(p)
		}
	}()
	lc.start(req)
	next.ServeHTTP(rec.wrap(w), r.WithContext(req.Context()))
	lc.done(req, rec.statusOr(http.StatusOK))
}

// Handler 以自动模式包装 net/http handler：每个请求都会被追踪。
// 不要与 Trace 装饰器叠加在同一路由上；叠加时装饰器会透传。
func (m *Middleware) Handler(next http.Handler, resolve RouteResolver) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, traced := RequestFromContext(r.Context()); traced {
			next.ServeHTTP(w, r)
			return
		}
		serveTraced(w, r, next, resolve, m.lifecycle(nil))
	})
}

func (m *Middleware) lifecycle(attributes []string) lifecycle {
	start := m.Start
	if attributes != nil {
		start = func(req *RequestContext) { m.start(req, attributes) }
	}
	return lifecycle{
		start: start,
		done:  func(req *RequestContext, status int) { m.Finish(req, status, nil) },
		fail:  func(req *RequestContext, err error) { m.Finish(req, 0, err) },
	}
}

// statusRecorder 记录首个最终状态码。
type statusRecorder struct {
	status int
}

func (s *statusRecorder) record(code int) {
	if s.status == 0 && code >= 200 {
		s.status = code
	}
}

func (s *statusRecorder) statusOr(def int) int {
	if s.status == 0 {
		return def
	}
	return s.status
}

func (s *statusRecorder) wrap(w http.ResponseWriter) http.ResponseWriter {
	return httpsnoop.Wrap(w, httpsnoop.Hooks{
		WriteHeader: func(next httpsnoop.WriteHeaderFunc) httpsnoop.WriteHeaderFunc {
			return func(code int) {
				s.record(code)
				next(code)
			}
		},
		Write: func(next httpsnoop.WriteFunc) httpsnoop.WriteFunc {
			return func(b []byte) (int, error) {
				s.record(http.StatusOK)
				return next(b)
			}
		},
		ReadFrom: func(next httpsnoop.ReadFromFunc) httpsnoop.ReadFromFunc {
			return func(src io.Reader) (int64, error) {
				s.record(http.StatusOK)
				return next(src)
			}
		},
	})
}
