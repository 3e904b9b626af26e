package xreqtrace

import (
	"sync"

	"github.com/omeyang/xreqtrace/pkg/observability/xtracer"
)

// scopeRegistry 活动 scope 表，以请求为 key。并发请求的 key 互不相交。
type scopeRegistry struct {
	m sync.Map
}

func (r *scopeRegistry) put(req *RequestContext, s xtracer.Scope) {
	r.m.Store(req, s)
}

// pop 取出并删除，不存在时返回 false。
func (r *scopeRegistry) pop(req *RequestContext) (xtracer.Scope, bool) {
	v, ok := r.m.LoadAndDelete(req)
	if !ok {
		return nil, false
	}
	return v.(xtracer.Scope), true
}

func (r *scopeRegistry) get(req *RequestContext) (xtracer.Scope, bool) {
	v, ok := r.m.Load(req)
	if !ok {
		return nil, false
	}
	return v.(xtracer.Scope), true
}
