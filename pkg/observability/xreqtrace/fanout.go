package xreqtrace

import (
	"time"

	"github.com/omeyang/xreqtrace/pkg/observability/xmetricname"
	"github.com/omeyang/xreqtrace/pkg/util/xsys"
)

// 完成指标一览（key = response.<entity>.<METHOD>.<status>，无响应时为 request.<entity>.<METHOD>）：
//
//	<key>.cumulative                                   counter  application,cluster,service,shard,flask.func
//	<key>.aggregated_per_shard                         delta    仅配置 shard 时
//	<key>.aggregated_per_service                       delta
//	<key>.aggregated_per_cluster                       delta    仅配置 cluster 时
//	<key>.aggregated_per_application                   delta
//	request.<entity>.<METHOD>                          counter  错误时
//	response.errors                                    counter  错误时
//	response.errors.aggregated_per_source              counter  错误时
//	response.errors.aggregated_per_{shard,service,cluster,application}  delta  错误时，shard/cluster 同上
//	response.completed.aggregated_per_source           counter
//	response.completed.aggregated_per_shard            delta    仅配置 shard 时
//	response.completed.aggregated_per_service          counter  仅配置 shard 时
//	response.completed.aggregated_per_cluster          delta    仅配置 cluster 时
//	response.completed.aggregated_per_application      counter  仅配置 cluster 时
//	<key>.latency                                      histogram 秒
//	<key>.total_time                                   counter  秒
//	<key>.cpu_ns                                       histogram 纳秒
//
// 带 aggregated_per_* 后缀的聚合指标额外带 source=wavefront-provided。
// "错误"指 status >= 500，或 handler 返回了错误（状态码已写出也算）。

// tagSet 一次请求完成时用到的各维度标签。
type tagSet struct {
	complete map[string]string

	perShard, perService, perCluster, perApp map[string]string

	overallPerSource, overallPerShard, overallPerService map[string]string
	overallPerCluster, overallPerApp                     map[string]string
}

func (m *Middleware) tagSet(funcName string) tagSet {
	id := m.builder.Identity()
	src := xmetricname.WavefrontProvidedSource
	tags := func(o xmetricname.TagOptions) map[string]string { return m.builder.Tags(o) }
	return tagSet{
		complete: m.builder.Complete(funcName),

		perShard:   tags(xmetricname.TagOptions{Cluster: id.Cluster, Service: id.Service, Shard: id.Shard, FuncName: funcName, Source: src}),
		perService: tags(xmetricname.TagOptions{Cluster: id.Cluster, Service: id.Service, FuncName: funcName, Source: src}),
		perCluster: tags(xmetricname.TagOptions{Cluster: id.Cluster, FuncName: funcName, Source: src}),
		perApp:     tags(xmetricname.TagOptions{FuncName: funcName, Source: src}),

		overallPerSource:  m.builder.Overall(),
		overallPerShard:   tags(xmetricname.TagOptions{Cluster: id.Cluster, Service: id.Service, Shard: id.Shard, Source: src}),
		overallPerService: tags(xmetricname.TagOptions{Cluster: id.Cluster, Service: id.Service, Source: src}),
		overallPerCluster: tags(xmetricname.TagOptions{Cluster: id.Cluster, Source: src}),
		overallPerApp:     tags(xmetricname.TagOptions{Source: src}),
	}
}

func (m *Middleware) fanOut(req *RequestContext, entity string, status int, err error) {
	reg := m.registry
	key := xmetricname.MetricName(entity, req.Method, status)
	ts := m.tagSet(req.Endpoint)
	hasShard, hasCluster := m.appTags.HasShard(), m.appTags.HasCluster()

	reg.Counter(key+xmetricname.SuffixCumulative, ts.complete).Inc(1)
	if hasShard {
		reg.DeltaCounter(key+xmetricname.SuffixAggregatedPerShard, ts.perShard).Inc(1)
	}
	reg.DeltaCounter(key+xmetricname.SuffixAggregatedPerService, ts.perService).Inc(1)
	if hasCluster {
		reg.DeltaCounter(key+xmetricname.SuffixAggregatedPerCluster, ts.perCluster).Inc(1)
	}
	reg.DeltaCounter(key+xmetricname.SuffixAggregatedPerApp, ts.perApp).Inc(1)

	if xmetricname.IsErrorStatus(status) || err != nil {
		errs := xmetricname.ResponseErrors
		reg.Counter(xmetricname.MetricNameWithoutStatus(entity, req.Method), ts.complete).Inc(1)
		reg.Counter(errs, ts.complete).Inc(1)
		reg.Counter(errs+xmetricname.SuffixAggregatedPerSource, ts.overallPerSource).Inc(1)
		if hasShard {
			reg.DeltaCounter(errs+xmetricname.SuffixAggregatedPerShard, ts.overallPerShard).Inc(1)
		}
		reg.DeltaCounter(errs+xmetricname.SuffixAggregatedPerService, ts.overallPerService).Inc(1)
		if hasCluster {
			reg.DeltaCounter(errs+xmetricname.SuffixAggregatedPerCluster, ts.overallPerCluster).Inc(1)
		}
		reg.DeltaCounter(errs+xmetricname.SuffixAggregatedPerApp, ts.overallPerApp).Inc(1)
	}

	done := xmetricname.ResponseCompleted
	reg.Counter(done+xmetricname.SuffixAggregatedPerSource, ts.overallPerSource).Inc(1)
	if hasShard {
		reg.DeltaCounter(done+xmetricname.SuffixAggregatedPerShard, ts.overallPerShard).Inc(1)
		reg.Counter(done+xmetricname.SuffixAggregatedPerService, ts.overallPerService).Inc(1)
	}
	if hasCluster {
		reg.DeltaCounter(done+xmetricname.SuffixAggregatedPerCluster, ts.overallPerCluster).Inc(1)
		reg.Counter(done+xmetricname.SuffixAggregatedPerApp, ts.overallPerApp).Inc(1)
	}

	if v, ok := req.Get(markerStartTimestamp); ok {
		if start, ok := v.(time.Time); ok {
			elapsed := time.Since(start).Seconds()
			reg.Histogram(key+xmetricname.SuffixLatency, ts.complete).Add(elapsed)
			reg.Counter(key+xmetricname.SuffixTotalTime, ts.complete).Inc(elapsed)
		}
	}
	if v, ok := req.Get(markerCPUNanos); ok {
		if start, ok := v.(int64); ok {
			if now, err := xsys.ProcessCPUTime(); err == nil {
				reg.Histogram(key+xmetricname.SuffixCPUNanos, ts.complete).Add(float64(now.Nanoseconds() - start))
			}
		}
	}
}
