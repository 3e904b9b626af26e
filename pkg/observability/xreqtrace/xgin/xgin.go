// Package xgin 把 xreqtrace 中间件接入 gin。
package xgin

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/omeyang/xreqtrace/pkg/observability/xreqtrace"
)

// Middleware 返回追踪每个请求的 gin 中间件。
//
// 端点名取 c.HandlerName()（未匹配路由时为空），路由模板取 c.FullPath()（":id" / "*path" 转为 "{id}" / "{path}"）。
// 属性探测在 [xreqtrace.HTTPAttr] 基础上支持 "param.<name>"。
// handler 通过 c.Error 附加的最后一个错误会记录到 span 上。
func Middleware(m *xreqtrace.Middleware) gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, traced := xreqtrace.RequestFromContext(c.Request.Context()); traced {
			c.Next()
			return
		}
		var endpoint string
		fullPath := c.FullPath()
		if fullPath != "" {
			endpoint = c.HandlerName()
		}
		req := xreqtrace.NewHTTPRequest(c.Request, endpoint, Template(fullPath))
		base := req.Attr
		req.Attr = func(name string) (string, bool) {
			if p, ok := strings.CutPrefix(name, "param."); ok {
				v := c.Param(p)
				return v, v != ""
			}
			return base(name)
		}

		m.Start(req)
		c.Request = c.Request.WithContext(req.Context())
		defer func() {
			if p := recover(); p != nil {
				m.Finish(req, 0, xreqtrace.NewPanicError(p))
				panic(p)
			}
		}()
		c.Next()

		var err error
		if e := c.Errors.Last(); e != nil {
			err = e.Err
		}
		m.Finish(req, c.Writer.Status(), err)
	}
}

// Template 将 gin 路由语法转为花括号参数形式。
func Template(fullPath string) string {
	if fullPath == "" {
		return ""
	}
	segs := strings.Split(fullPath, "/")
	for i, s := range segs {
		if len(s) > 1 && (s[0] == ':' || s[0] == '*') {
			segs[i] = "{" + s[1:] + "}"
		}
	}
	return strings.Join(segs, "/")
}
