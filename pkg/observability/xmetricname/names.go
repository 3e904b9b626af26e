package xmetricname

import (
	"strconv"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
)

// 名称前缀与后缀常量。
const (
	RequestPrefix  = "request"
	ResponsePrefix = "response"

	// UnknownEntity 既没有路由模板也没有端点名时使用的实体名。
	UnknownEntity = "UNKNOWN"

	SuffixInflight             = ".inflight"
	SuffixCumulative           = ".cumulative"
	SuffixAggregatedPerSource  = ".aggregated_per_source"
	SuffixAggregatedPerShard   = ".aggregated_per_shard"
	SuffixAggregatedPerService = ".aggregated_per_service"
	SuffixAggregatedPerCluster = ".aggregated_per_cluster"
	SuffixAggregatedPerApp     = ".aggregated_per_application"
	SuffixLatency              = ".latency"
	SuffixCPUNanos             = ".cpu_ns"
	SuffixTotalTime            = ".total_time"

	TotalRequestsInflight = "total_requests.inflight"
	ResponseErrors        = "response.errors"
	ResponseCompleted     = "response.completed"
)

// defaultEntityCacheSize 默认缓存容量，路由模板数量通常远小于此值。
const defaultEntityCacheSize = 1024

var replacer = strings.NewReplacer(
	"-", "_",
	"/", ".",
	"{", "_",
	"}", "_",
	"<", "",
	">", "",
)

// Sanitize 对路由模板或端点名执行清洗规则。
func Sanitize(name string) string {
	return strings.Trim(replacer.Replace(name), ".")
}

// Namer 带缓存的实体名推导器，并发安全。
type Namer struct {
	cache *lru.Cache[string, string]
}

// NewNamer 创建 Namer。size <= 0 时使用默认容量。
func NewNamer(size int) (*Namer, error) {
	if size <= 0 {
		size = defaultEntityCacheSize
	}
	c, err := lru.New[string, string](size)
	if err != nil {
		return nil, err
	}
	return &Namer{cache: c}, nil
}

// EntityName 推导实体名：优先路由模板，其次端点名，两者清洗后都为空时返回 [UnknownEntity]。
func (n *Namer) EntityName(routeTemplate, endpoint string) string {
	if n == nil || n.cache == nil {
		return entityName(routeTemplate, endpoint)
	}
	key := routeTemplate + "\x00" + endpoint
	if v, ok := n.cache.Get(key); ok {
		return v
	}
	v := entityName(routeTemplate, endpoint)
	n.cache.Add(key, v)
	return v
}

func entityName(routeTemplate, endpoint string) string {
	// 模板清洗后可能为空（例如根路径 "/"），此时退回端点名
	for _, raw := range [...]string{routeTemplate, endpoint} {
		if s := Sanitize(raw); s != "" {
			return s
		}
	}
	return UnknownEntity
}

// defaultNamer 包级默认 Namer。
var defaultNamer, _ = NewNamer(defaultEntityCacheSize)

// EntityName 使用包级默认 Namer 推导实体名。
func EntityName(routeTemplate, endpoint string) string {
	return defaultNamer.EntityName(routeTemplate, endpoint)
}

// MetricName 返回指标名。status > 0 表示已知响应，使用 response 前缀并追加状态码；
// 否则使用 request 前缀且不带状态码。
func MetricName(entity, method string, status int) string {
	if status <= 0 {
		return MetricNameWithoutStatus(entity, method)
	}
	return ResponsePrefix + "." + entity + "." + method + "." + strconv.Itoa(status)
}

// MetricNameWithoutStatus 返回不带状态码的请求指标名。
func MetricNameWithoutStatus(entity, method string) string {
	return RequestPrefix + "." + entity + "." + method
}

// IsErrorStatus 判断状态码是否属于 4xx/5xx。
func IsErrorStatus(status int) bool {
	return status >= 400 && status <= 599
}
