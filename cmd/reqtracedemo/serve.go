package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/sony/gobreaker/v2"
	clientv3 "go.etcd.io/etcd/client/v3"
	"go.opentelemetry.io/otel"

	"github.com/omeyang/xreqtrace/pkg/config/xconf"
	"github.com/omeyang/xreqtrace/pkg/lifecycle/xrun"
	"github.com/omeyang/xreqtrace/pkg/observability/xheartbeat"
	"github.com/omeyang/xreqtrace/pkg/observability/xlog"
	"github.com/omeyang/xreqtrace/pkg/observability/xregistry"
	"github.com/omeyang/xreqtrace/pkg/observability/xreporter"
	"github.com/omeyang/xreqtrace/pkg/observability/xreqtrace"
	"github.com/omeyang/xreqtrace/pkg/observability/xtracer"
)

// serve 加载配置、组装依赖并运行 HTTP 服务，直到收到信号。
func serve(ctx context.Context, path, addr string) (err error) {
	cfg, err := xconf.New(path)
	if err != nil {
		return err
	}
	settings, err := xconf.LoadSettings(cfg)
	if err != nil {
		return err
	}
	if addr != "" {
		settings.Server.Addr = addr
	}
	tags, err := settings.Application.Tags()
	if err != nil {
		return err
	}

	logger, closeLog, err := newLogger(settings.Log)
	if err != nil {
		return err
	}
	defer func() { err = errors.Join(err, closeLog()) }()

	rep, err := xreporter.New(ctx, xreporter.Config{
		Prefix:      settings.Reporter.Prefix,
		Source:      settings.Reporter.Source,
		ServiceName: settings.Application.Service,
		Interval:    settings.Reporter.Interval,
		Endpoint:    settings.Reporter.Endpoint,
		Insecure:    settings.Reporter.Insecure,
	}, xreporter.WithLogger(logger))
	if err != nil {
		return err
	}
	defer func() { err = errors.Join(err, shutdown(rep.Shutdown)) }()

	tp, err := xtracer.NewProvider(ctx, xtracer.ProviderConfig{
		Exporter:    settings.Tracing.Exporter,
		Endpoint:    settings.Tracing.Endpoint,
		Insecure:    settings.Tracing.Insecure,
		ServiceName: settings.Application.Service,
	})
	if err != nil {
		return err
	}
	otel.SetTracerProvider(tp)
	defer func() { err = errors.Join(err, shutdown(tp.Shutdown)) }()

	senders, closeSenders, err := heartbeatSenders(settings.Heartbeat, rep, logger)
	if err != nil {
		return err
	}
	defer func() { err = errors.Join(err, closeSenders()) }()

	m, err := xreqtrace.New(rep, tags,
		xreqtrace.WithComponent(settings.Component),
		xreqtrace.WithTracedAttributes(settings.TracedAttributes...),
		xreqtrace.WithLogger(logger),
		xreqtrace.WithHeartbeatInterval(settings.Heartbeat.Interval),
		xreqtrace.WithHeartbeatSenders(senders...),
	)
	if err != nil {
		return err
	}
	defer func() { err = errors.Join(err, shutdown(m.Close)) }()

	server := &http.Server{
		Addr:              settings.Server.Addr,
		Handler:           newHandler(m, rep.Registry(), logger),
		ReadHeaderTimeout: 5 * time.Second,
	}
	logger.Info(ctx, "reqtracedemo listening",
		xlog.Component(settings.Component), slog.String("addr", settings.Server.Addr))

	return xrun.Run(ctx,
		[]xrun.Option{
			xrun.WithLogger(logger),
			xrun.WithName("reqtracedemo"),
			xrun.WithSignals(syscall.SIGINT, syscall.SIGTERM),
		},
		map[string]func(context.Context) error{
			"http":   xrun.HTTPServer(server, settings.Server.ShutdownTimeout),
			"config": watchConfig(cfg, logger),
		},
	)
}

func shutdown(fn func(context.Context) error) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return fn(ctx)
}

func newLogger(s xconf.LogSettings) (xlog.LoggerWithLevel, func() error, error) {
	b := xlog.New().SetOutput(os.Stderr).SetLevelString(s.Level).SetFormat(s.Format)
	if s.File != "" {
		b = b.SetRotation(s.File, s.Rotation)
	}
	return b.Build()
}

// heartbeatSenders 心跳总是写入指标；配置了 Redis 或 etcd 时额外写入对应存储，并各自包一层重试与熔断。
func heartbeatSenders(s xconf.HeartbeatSettings, rep *xreporter.Reporter, logger xlog.Logger) (senders []xheartbeat.Sender, closeFn func() error, err error) {
	var closers []func() error
	closeAll := func() error {
		var errs []error
		for i := len(closers) - 1; i >= 0; i-- {
			errs = append(errs, closers[i]())
		}
		return errors.Join(errs...)
	}
	defer func() {
		if err != nil {
			err = errors.Join(err, closeAll())
			senders, closeFn = nil, func() error { return nil }
		}
	}()

	ms, err := xheartbeat.NewMetricSender(rep.MeterProvider())
	if err != nil {
		return nil, nil, err
	}
	senders = append(senders, ms)

	onStateChange := xheartbeat.WithStateChange(func(name string, from, to gobreaker.State) {
		logger.Warn(context.Background(), "heartbeat breaker state changed",
			xlog.Component(name), slog.String("from", from.String()), slog.String("to", to.String()))
	})

	if s.Redis.Addr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     s.Redis.Addr,
			Password: s.Redis.Password,
			DB:       s.Redis.DB,
		})
		closers = append(closers, client.Close)
		rs, err := xheartbeat.NewRedisSender(client,
			xheartbeat.WithKeyPrefix(s.Redis.KeyPrefix),
			xheartbeat.WithTTL(s.Redis.TTL),
		)
		if err != nil {
			return nil, nil, err
		}
		resilient, err := xheartbeat.NewResilientSender("heartbeat-redis", rs, onStateChange)
		if err != nil {
			return nil, nil, err
		}
		senders = append(senders, resilient)
	}

	if len(s.Etcd.Endpoints) > 0 {
		client, err := clientv3.New(clientv3.Config{
			Endpoints:   s.Etcd.Endpoints,
			DialTimeout: s.Etcd.DialTimeout,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("heartbeat etcd client: %w", err)
		}
		closers = append(closers, client.Close)
		es, err := xheartbeat.NewEtcdSender(client,
			xheartbeat.WithEtcdKeyPrefix(s.Etcd.KeyPrefix),
			xheartbeat.WithEtcdTTL(s.Etcd.TTL),
		)
		if err != nil {
			return nil, nil, err
		}
		resilient, err := xheartbeat.NewResilientSender("heartbeat-etcd", es, onStateChange)
		if err != nil {
			return nil, nil, err
		}
		senders = append(senders, resilient)
	}
	return senders, closeAll, nil
}

// watchConfig 配置文件变更时热更新日志级别，其余配置需重启生效。
func watchConfig(cfg xconf.Config, logger xlog.LoggerWithLevel) func(context.Context) error {
	return func(ctx context.Context) error {
		err := xconf.Watch(ctx, cfg, func(c xconf.Config, err error) {
			if err != nil {
				logger.Warn(ctx, "config reload failed, keeping previous config", xlog.Err(err))
				return
			}
			settings, err := xconf.LoadSettings(c)
			if err != nil {
				logger.Warn(ctx, "reloaded config is invalid", xlog.Err(err))
				return
			}
			level, _ := xlog.ParseLevel(settings.Log.Level)
			logger.SetLevel(level)
			logger.Info(ctx, "config reloaded", slog.String("level", level.String()))
		})
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	}
}

// newHandler /metrics 直接暴露注册表，其余路由经过追踪中间件。
func newHandler(m *xreqtrace.Middleware, reg *xregistry.Registry, logger xlog.Logger) http.Handler {
	api := chi.NewRouter()
	api.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	api.Get("/orders/{id}", getOrder)
	api.Post("/orders", createOrder)
	api.Get("/panic", func(http.ResponseWriter, *http.Request) {
		panic("demo panic")
	})

	promReg := prometheus.NewRegistry()
	promReg.MustRegister(xregistry.NewCollector(reg))

	root := http.NewServeMux()
	root.Handle("/metrics", promhttp.HandlerFor(promReg, promhttp.HandlerOpts{}))
	root.Handle("/", recoverer(m.Handler(api, xreqtrace.ChiResolver(api)), logger))
	return root
}

// recoverer 位于追踪中间件外层：中间件记录 panic 后重新抛出，由这里转成 500。
func recoverer(next http.Handler, logger xlog.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if p := recover(); p != nil {
				logger.Error(r.Context(), "handler panicked", xlog.Panic(p), xlog.Path(r.URL.Path))
				http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			}
		}()
		next.ServeHTTP(w, r)
	})
}

type order struct {
	ID      string            `json:"id"`
	Item    string            `json:"item,omitempty"`
	TraceID string            `json:"trace_id,omitempty"`
	Headers map[string]string `json:"propagated_headers,omitempty"`
}

func getOrder(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "missing" {
		http.NotFound(w, r)
		return
	}
	// 演示向下游传播：把当前 span 注入出站 header。
	out := http.Header{}
	xtracer.InjectHeaders(r.Context(), out)
	headers := make(map[string]string, len(out))
	for k := range out {
		headers[k] = out.Get(k)
	}
	writeJSON(w, http.StatusOK, order{
		ID:      id,
		TraceID: xtracer.SpanFromContext(r.Context()).SpanContext().TraceID().String(),
		Headers: headers,
	})
}

func createOrder(w http.ResponseWriter, r *http.Request) {
	var o order
	if err := json.NewDecoder(r.Body).Decode(&o); err != nil || o.Item == "" {
		http.Error(w, "invalid order", http.StatusBadRequest)
		return
	}
	o.ID = uuid.NewString()
	writeJSON(w, http.StatusCreated, o)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
