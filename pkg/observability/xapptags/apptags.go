package xapptags

import (
	"fmt"
	"maps"
	"strings"
)

// NullTagValue 未配置字段的哨兵值。
const NullTagValue = "none"

// 标签 key 常量，下游仪表盘依赖这些字面值。
const (
	KeyApplication = "application"
	KeyCluster     = "cluster"
	KeyService     = "service"
	KeyShard       = "shard"
)

// ApplicationTags 应用身份标识。
//
// 零值可用：所有字段视为未配置。通过 [New] 构造的实例会校验 application 非空。
type ApplicationTags struct {
	Application string
	Cluster     string
	Service     string
	Shard       string

	// Custom 附加的自定义标签，仅用于心跳等身份上报，不参与请求指标。
	Custom map[string]string
}

// Option 配置 ApplicationTags 的可选项。
type Option func(*ApplicationTags)

// WithCluster 设置 cluster。
func WithCluster(cluster string) Option {
	return func(t *ApplicationTags) { t.Cluster = strings.TrimSpace(cluster) }
}

// WithShard 设置 shard。
func WithShard(shard string) Option {
	return func(t *ApplicationTags) { t.Shard = strings.TrimSpace(shard) }
}

// WithCustomTag 添加一个自定义标签，空 key 会被忽略。
func WithCustomTag(key, value string) Option {
	return func(t *ApplicationTags) {
		if key == "" {
			return
		}
		if t.Custom == nil {
			t.Custom = make(map[string]string)
		}
		t.Custom[key] = value
	}
}

// New 创建 ApplicationTags。application 与 service 为必填语义：
// application 为空返回 [ErrEmptyApplication]，service 为空时使用哨兵值。
func New(application, service string, opts ...Option) (ApplicationTags, error) {
	t := ApplicationTags{
		Application: strings.TrimSpace(application),
		Service:     strings.TrimSpace(service),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&t)
		}
	}
	if err := t.Validate(); err != nil {
		return ApplicationTags{}, err
	}
	return t, nil
}

// Validate 校验身份配置。
func (t ApplicationTags) Validate() error {
	if strings.TrimSpace(t.Application) == "" {
		return ErrEmptyApplication
	}
	for k := range t.Custom {
		if isReserved(k) {
			return fmt.Errorf("%w: %q", ErrReservedTagKey, k)
		}
	}
	return nil
}

// Normalize 返回将空字段替换为 [NullTagValue] 后的副本。
// Custom 被深拷贝，调用方可安全修改原始 map。
func (t ApplicationTags) Normalize() ApplicationTags {
	return ApplicationTags{
		Application: orNull(t.Application),
		Cluster:     orNull(t.Cluster),
		Service:     orNull(t.Service),
		Shard:       orNull(t.Shard),
		Custom:      maps.Clone(t.Custom),
	}
}

// HasShard 报告 shard 是否被显式配置。
func (t ApplicationTags) HasShard() bool { return isSet(t.Shard) }

// HasCluster 报告 cluster 是否被显式配置。
func (t ApplicationTags) HasCluster() bool { return isSet(t.Cluster) }

// Map 返回身份标签 map（归一化后的四个字段 + 自定义标签）。
func (t ApplicationTags) Map() map[string]string {
	n := t.Normalize()
	m := make(map[string]string, 4+len(n.Custom))
	maps.Copy(m, n.Custom)
	m[KeyApplication] = n.Application
	m[KeyCluster] = n.Cluster
	m[KeyService] = n.Service
	m[KeyShard] = n.Shard
	return m
}

// String 返回便于日志输出的表示。
func (t ApplicationTags) String() string {
	n := t.Normalize()
	return "application=" + n.Application + " cluster=" + n.Cluster +
		" service=" + n.Service + " shard=" + n.Shard
}

func orNull(v string) string {
	if v = strings.TrimSpace(v); v == "" {
		return NullTagValue
	}
	return v
}

// isSet 以值比较判断字段是否已配置，哨兵值本身视为未配置。
func isSet(v string) bool {
	v = strings.TrimSpace(v)
	return v != "" && v != NullTagValue
}

func isReserved(key string) bool {
	switch key {
	case KeyApplication, KeyCluster, KeyService, KeyShard:
		return true
	default:
		return false
	}
}
