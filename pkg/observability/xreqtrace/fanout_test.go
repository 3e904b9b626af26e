package xreqtrace

import (
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/omeyang/xreqtrace/pkg/observability/xapptags"
	"github.com/omeyang/xreqtrace/pkg/observability/xmetricname"
	"github.com/omeyang/xreqtrace/pkg/observability/xregistry"
)

var errorCounters = []string{
	"response.errors",
	"response.errors.aggregated_per_source",
	"response.errors.aggregated_per_shard",
	"response.errors.aggregated_per_service",
	"response.errors.aggregated_per_cluster",
	"response.errors.aggregated_per_application",
}

func run(h *harness, method, endpoint, template string, status int, err error) {
	req := newReq(method, endpoint, template)
	h.m.Start(req)
	h.m.Finish(req, status, err)
}

func TestScenario_GetOrder200(t *testing.T) {
	h := newHarness(t, shopTags(t))
	req := newReq(http.MethodGet, "get_order", "/orders/<id>")
	funcTags := map[string]string{"application": "shop", "flask.func": "get_order"}
	complete := map[string]string{
		"application": "shop", "cluster": "none", "service": "api", "shard": "none", "flask.func": "get_order",
	}

	h.m.Start(req)
	assert.InDelta(t, 1, h.value("request.orders.id.GET.inflight", funcTags), 0)
	time.Sleep(50 * time.Millisecond)
	h.m.Finish(req, 200, nil)

	assert.InDelta(t, 0, h.value("request.orders.id.GET.inflight", funcTags), 0)
	assert.InDelta(t, 1, h.value("response.orders.id.GET.200.cumulative", complete), 0)

	lat, ok := h.reg.Find("response.orders.id.GET.200.latency", complete)
	require.True(t, ok)
	assert.Equal(t, xregistry.KindHistogram, lat.Kind)
	assert.Equal(t, uint64(1), lat.Count)
	assert.GreaterOrEqual(t, lat.Value, 0.05)
	assert.Less(t, lat.Value, 1.0)

	total := h.value("response.orders.id.GET.200.total_time", complete)
	assert.InDelta(t, lat.Value, total, 1e-9)

	for _, name := range errorCounters {
		assert.False(t, h.has(name), name)
	}
	assert.False(t, h.has("request.orders.id.GET"))
}

func TestFanOut_AggregatedTags(t *testing.T) {
	h := newHarness(t, shopTags(t, xapptags.WithCluster("us-west"), xapptags.WithShard("s1")))
	run(h, http.MethodGet, "get_order", "/orders/<id>", 200, nil)

	key := "response.orders.id.GET.200"
	src := xmetricname.WavefrontProvidedSource
	assert.InDelta(t, 1, h.value(key+".aggregated_per_shard", map[string]string{
		"application": "shop", "cluster": "us-west", "service": "api", "shard": "s1", "flask.func": "get_order", "source": src,
	}), 0)
	assert.InDelta(t, 1, h.value(key+".aggregated_per_service", map[string]string{
		"application": "shop", "cluster": "us-west", "service": "api", "flask.func": "get_order", "source": src,
	}), 0)
	assert.InDelta(t, 1, h.value(key+".aggregated_per_cluster", map[string]string{
		"application": "shop", "cluster": "us-west", "flask.func": "get_order", "source": src,
	}), 0)
	assert.InDelta(t, 1, h.value(key+".aggregated_per_application", map[string]string{
		"application": "shop", "flask.func": "get_order", "source": src,
	}), 0)

	overall := map[string]string{"application": "shop", "cluster": "us-west", "service": "api", "shard": "s1"}
	assert.InDelta(t, 1, h.value("response.completed.aggregated_per_source", overall), 0)
	assert.InDelta(t, 1, h.value("response.completed.aggregated_per_shard", map[string]string{
		"application": "shop", "cluster": "us-west", "service": "api", "shard": "s1", "source": src,
	}), 0)
	assert.InDelta(t, 1, h.value("response.completed.aggregated_per_service", map[string]string{
		"application": "shop", "cluster": "us-west", "service": "api", "source": src,
	}), 0)
	assert.InDelta(t, 1, h.value("response.completed.aggregated_per_cluster", map[string]string{
		"application": "shop", "cluster": "us-west", "source": src,
	}), 0)
	assert.InDelta(t, 1, h.value("response.completed.aggregated_per_application", map[string]string{
		"application": "shop", "source": src,
	}), 0)

	p, ok := h.reg.Find(key+".aggregated_per_service", map[string]string{
		"application": "shop", "cluster": "us-west", "service": "api", "flask.func": "get_order", "source": src,
	})
	require.True(t, ok)
	assert.Equal(t, xregistry.KindDeltaCounter, p.Kind)
}

func TestFanOut_404IncrementsErrorCounters(t *testing.T) {
	h := newHarness(t, shopTags(t, xapptags.WithCluster("us-west"), xapptags.WithShard("s1")))
	run(h, http.MethodGet, "get_order", "/orders/<id>", 404, nil)

	complete := h.m.builder.Complete("get_order")
	assert.InDelta(t, 1, h.value("response.errors", complete), 0)
	assert.InDelta(t, 1, h.value("request.orders.id.GET", complete), 0)
	assert.InDelta(t, 1, h.value("response.errors.aggregated_per_source", h.m.builder.Overall()), 0)
	for _, name := range errorCounters {
		assert.True(t, h.has(name), name)
	}
	assert.True(t, h.has("response.orders.id.GET.404.cumulative"))
}

func TestFanOut_200HasNoErrorCounters(t *testing.T) {
	h := newHarness(t, shopTags(t, xapptags.WithCluster("us-west"), xapptags.WithShard("s1")))
	run(h, http.MethodGet, "get_order", "/orders/<id>", 200, nil)
	run(h, http.MethodGet, "get_order", "/orders/<id>", 399, nil)
	for _, name := range errorCounters {
		assert.False(t, h.has(name), name)
	}
}

func TestFanOut_ErrorWithoutResponseUsesRequestPrefix(t *testing.T) {
	h := newHarness(t, shopTags(t))
	run(h, http.MethodPost, "create_order", "/orders", 0, errors.New("db down"))

	assert.True(t, h.has("request.orders.POST.cumulative"))
	assert.True(t, h.has("request.orders.POST.latency"))
	assert.InDelta(t, 1, h.value("request.orders.POST", h.m.builder.Complete("create_order")), 0)
	assert.True(t, h.has("response.errors"))
}

func TestFanOut_ShardAndClusterGating(t *testing.T) {
	gated := []string{
		"response.orders.GET.500.aggregated_per_shard",
		"response.errors.aggregated_per_shard",
		"response.completed.aggregated_per_shard",
		"response.completed.aggregated_per_service",
	}
	clusterGated := []string{
		"response.orders.GET.500.aggregated_per_cluster",
		"response.errors.aggregated_per_cluster",
		"response.completed.aggregated_per_cluster",
		"response.completed.aggregated_per_application",
	}
	always := []string{
		"response.orders.GET.500.aggregated_per_service",
		"response.orders.GET.500.aggregated_per_application",
		"response.errors.aggregated_per_service",
		"response.errors.aggregated_per_application",
		"response.completed.aggregated_per_source",
	}

	t.Run("unset", func(t *testing.T) {
		h := newHarness(t, shopTags(t))
		run(h, http.MethodGet, "list", "/orders", 500, nil)
		for _, n := range append(gated, clusterGated...) {
			assert.False(t, h.has(n), n)
		}
		for _, n := range always {
			assert.True(t, h.has(n), n)
		}
	})

	t.Run("sentinel counts as unset", func(t *testing.T) {
		h := newHarness(t, xapptags.ApplicationTags{Application: "shop", Shard: xapptags.NullTagValue, Cluster: "none"})
		run(h, http.MethodGet, "list", "/orders", 500, nil)
		for _, n := range append(gated, clusterGated...) {
			assert.False(t, h.has(n), n)
		}
	})

	t.Run("shard only", func(t *testing.T) {
		h := newHarness(t, shopTags(t, xapptags.WithShard("s1")))
		run(h, http.MethodGet, "list", "/orders", 500, nil)
		for _, n := range gated {
			assert.True(t, h.has(n), n)
		}
		for _, n := range clusterGated {
			assert.False(t, h.has(n), n)
		}
	})

	t.Run("cluster only", func(t *testing.T) {
		h := newHarness(t, shopTags(t, xapptags.WithCluster("us-west")))
		run(h, http.MethodGet, "list", "/orders", 500, nil)
		for _, n := range gated {
			assert.False(t, h.has(n), n)
		}
		for _, n := range clusterGated {
			assert.True(t, h.has(n), n)
		}
	})
}

func TestFanOut_EmptyApplicationIsSentineled(t *testing.T) {
	h := newHarness(t, xapptags.ApplicationTags{})
	run(h, http.MethodGet, "", "", 200, nil)
	assert.InDelta(t, 1, h.value("response.UNKNOWN.GET.200.cumulative", map[string]string{
		"application": "none", "cluster": "none", "service": "none", "shard": "none",
	}), 0)
}

func TestFanOut_CPUTimeRecorded(t *testing.T) {
	h := newHarness(t, shopTags(t))
	req := newReq(http.MethodGet, "list", "/orders")
	h.m.Start(req)
	if _, ok := req.Get(markerCPUNanos); !ok {
		t.Skip("process CPU time not available on this platform")
	}
	h.m.Finish(req, 200, nil)
	p, ok := h.reg.Find("response.orders.GET.200.cpu_ns", h.m.builder.Complete("list"))
	require.True(t, ok)
	assert.Equal(t, uint64(1), p.Count)
	assert.GreaterOrEqual(t, p.Value, 0.0)
}

func TestFanOut_MissingMarkersSkipTimings(t *testing.T) {
	h := newHarness(t, shopTags(t))
	req := newReq(http.MethodGet, "list", "/orders")
	h.m.Start(req)
	delete(req.env, markerStartTimestamp)
	delete(req.env, markerCPUNanos)
	h.m.Finish(req, 200, nil)

	assert.True(t, h.has("response.orders.GET.200.cumulative"))
	assert.False(t, h.has("response.orders.GET.200.latency"))
	assert.False(t, h.has("response.orders.GET.200.total_time"))
	assert.False(t, h.has("response.orders.GET.200.cpu_ns"))
}

func TestExport_PrefixedNames(t *testing.T) {
	h := newHarness(t, shopTags(t))
	run(h, http.MethodGet, "list", "/orders", 200, nil)
	assert.Equal(t, "flask.response.orders.GET.200.cumulative",
		h.reg.ExportName("response.orders.GET.200.cumulative", xregistry.KindCounter))
	assert.Equal(t, "∆flask.response.orders.GET.200.aggregated_per_service",
		h.reg.ExportName("response.orders.GET.200.aggregated_per_service", xregistry.KindDeltaCounter))
}
