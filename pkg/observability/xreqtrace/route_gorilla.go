package xreqtrace

import (
	"net/http"

	"github.com/gorilla/mux"
)

// GorillaResolver 在分发前用 router 匹配请求。端点名优先取路由名，其次 handler 函数名。
func GorillaResolver(router *mux.Router) RouteResolver {
	return func(r *http.Request) (string, string) {
		var match mux.RouteMatch
		if !router.Match(r, &match) || match.Route == nil {
			return "", ""
		}
		tmpl, _ := match.Route.GetPathTemplate()
		name := match.Route.GetName()
		if name == "" {
			name = handlerName(match.Handler)
		}
		return name, tmpl
	}
}

func gorillaTemplate(r *http.Request) string {
	route := mux.CurrentRoute(r)
	if route == nil {
		return ""
	}
	tmpl, _ := route.GetPathTemplate()
	return tmpl
}
