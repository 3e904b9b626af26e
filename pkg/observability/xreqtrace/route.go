package xreqtrace

import (
	"fmt"
	"net/http"
	"reflect"
	"runtime"
	"strings"
)

// MuxResolver 使用 ServeMux 的匹配结果：模板取 pattern 去掉 method 与 host 部分，
// 端点取注册 handler 的函数名。
func MuxResolver(mux *http.ServeMux) RouteResolver {
	return func(r *http.Request) (string, string) {
		h, pattern := mux.Handler(r)
		if pattern == "" {
			return "", ""
		}
		return handlerName(h), muxPath(pattern)
	}
}

// RouteTemplate 返回路由器分发后写入请求的路由模板，依次识别 ServeMux（r.Pattern）、chi、gorilla/mux。
// 手动模式的装饰器运行在路由器之后，使用它获取模板。
func RouteTemplate(r *http.Request) string {
	if r.Pattern != "" {
		return muxPath(r.Pattern)
	}
	if t := chiTemplate(r); t != "" {
		return t
	}
	return gorillaTemplate(r)
}

// muxPath 去掉 "GET example.com/path" 形式中的 method 与 host。
func muxPath(pattern string) string {
	if _, rest, ok := strings.Cut(pattern, " "); ok {
		pattern = strings.TrimSpace(rest)
	}
	if i := strings.IndexByte(pattern, '/'); i > 0 {
		pattern = pattern[i:]
	}
	return pattern
}

// handlerName 函数类型返回函数全名，其他类型返回类型名。
func handlerName(h any) string {
	if h == nil {
		return ""
	}
	v := reflect.ValueOf(h)
	if v.Kind() == reflect.Func {
		if fn := runtime.FuncForPC(v.Pointer()); fn != nil {
			return fn.Name()
		}
	}
	return fmt.Sprintf("%T", h)
}
