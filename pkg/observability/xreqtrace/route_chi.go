package xreqtrace

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// ChiResolver 在分发前用 routes 匹配请求，模板同时作为端点名。
func ChiResolver(routes chi.Routes) RouteResolver {
	return func(r *http.Request) (string, string) {
		rctx := chi.NewRouteContext()
		if !routes.Match(rctx, r.Method, r.URL.Path) {
			return "", ""
		}
		t := rctx.RoutePattern()
		return t, t
	}
}

func chiTemplate(r *http.Request) string {
	rctx := chi.RouteContext(r.Context())
	if rctx == nil {
		return ""
	}
	return rctx.RoutePattern()
}
