package xmetricname

import "github.com/omeyang/xreqtrace/pkg/observability/xapptags"

// 标签 key。
const (
	KeyApplication = xapptags.KeyApplication
	KeyCluster     = xapptags.KeyCluster
	KeyService     = xapptags.KeyService
	KeyShard       = xapptags.KeyShard
	KeyFuncName    = "flask.func"
	KeySource      = "source"

	// WavefrontProvidedSource 聚合指标使用的 source 标签值。
	WavefrontProvidedSource = "wavefront-provided"
)

// TagOptions 描述某一聚合维度需要携带的标签，空字段不输出。
type TagOptions struct {
	Cluster  string
	Service  string
	Shard    string
	FuncName string
	Source   string
}

// Builder 基于应用身份构造标签 map。
type Builder struct {
	tags xapptags.ApplicationTags
}

// NewBuilder 创建 Builder，身份会被归一化。
func NewBuilder(tags xapptags.ApplicationTags) Builder {
	return Builder{tags: tags.Normalize()}
}

// Identity 返回归一化后的身份。
func (b Builder) Identity() xapptags.ApplicationTags { return b.tags }

// Tags 返回标签 map，始终包含 application。
func (b Builder) Tags(opts TagOptions) map[string]string {
	m := make(map[string]string, 6)
	m[KeyApplication] = b.tags.Application
	if opts.Cluster != "" {
		m[KeyCluster] = opts.Cluster
	}
	if opts.Service != "" {
		m[KeyService] = opts.Service
	}
	if opts.Shard != "" {
		m[KeyShard] = opts.Shard
	}
	if opts.FuncName != "" {
		m[KeyFuncName] = opts.FuncName
	}
	if opts.Source != "" {
		m[KeySource] = opts.Source
	}
	return m
}

// 常用维度的快捷方法。

// Complete 返回 {application, cluster, service, shard, flask.func}。
func (b Builder) Complete(funcName string) map[string]string {
	return b.Tags(TagOptions{Cluster: b.tags.Cluster, Service: b.tags.Service, Shard: b.tags.Shard, FuncName: funcName})
}

// Func 返回 {application, flask.func}。
func (b Builder) Func(funcName string) map[string]string {
	return b.Tags(TagOptions{FuncName: funcName})
}

// Overall 返回 {application, cluster, service, shard}。
func (b Builder) Overall() map[string]string {
	return b.Tags(TagOptions{Cluster: b.tags.Cluster, Service: b.tags.Service, Shard: b.tags.Shard})
}
