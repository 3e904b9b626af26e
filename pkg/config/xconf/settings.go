package xconf

import (
	"fmt"
	"os"
	"time"

	"github.com/omeyang/xreqtrace/pkg/observability/xapptags"
	"github.com/omeyang/xreqtrace/pkg/observability/xheartbeat"
	"github.com/omeyang/xreqtrace/pkg/observability/xlog"
)

// 默认值。
const (
	DefaultComponent         = "flask"
	DefaultHeartbeatInterval = xheartbeat.DefaultInterval
	DefaultReporterPrefix    = "flask."
	DefaultReporterInterval  = time.Minute
	DefaultServerAddr        = ":8080"
	DefaultShutdownTimeout   = 10 * time.Second
	DefaultHeartbeatTTL      = xheartbeat.DefaultTTL
	DefaultEtcdDialTimeout   = 5 * time.Second
)

// Settings 请求追踪中间件及其宿主进程的完整配置。
type Settings struct {
	Application      ApplicationSettings `koanf:"application"`
	Component        string              `koanf:"component"`
	TracedAttributes []string            `koanf:"traced_attributes"`
	Heartbeat        HeartbeatSettings   `koanf:"heartbeat"`
	Reporter         ReporterSettings    `koanf:"reporter"`
	Tracing          TracingSettings     `koanf:"tracing"`
	Log              LogSettings         `koanf:"log"`
	Server           ServerSettings      `koanf:"server"`
}

// ApplicationSettings 应用身份。
type ApplicationSettings struct {
	Application string            `koanf:"application"`
	Service     string            `koanf:"service"`
	Cluster     string            `koanf:"cluster"`
	Shard       string            `koanf:"shard"`
	Custom      map[string]string `koanf:"custom"`
}

// HeartbeatSettings 心跳配置。Redis.Addr 为空时不启用 Redis 心跳，
// Etcd.Endpoints 为空时不启用 etcd 心跳。
type HeartbeatSettings struct {
	Interval time.Duration `koanf:"interval"`
	Redis    RedisSettings `koanf:"redis"`
	Etcd     EtcdSettings  `koanf:"etcd"`
}

// RedisSettings Redis 心跳存储。
type RedisSettings struct {
	Addr      string        `koanf:"addr"`
	Password  string        `koanf:"password"`
	DB        int           `koanf:"db"`
	KeyPrefix string        `koanf:"key_prefix"`
	TTL       time.Duration `koanf:"ttl"`
}

// EtcdSettings etcd 心跳存储，key 绑定 TTL 租约。
type EtcdSettings struct {
	Endpoints   []string      `koanf:"endpoints"`
	KeyPrefix   string        `koanf:"key_prefix"`
	TTL         time.Duration `koanf:"ttl"`
	DialTimeout time.Duration `koanf:"dial_timeout"`
}

// ReporterSettings 指标上报。Endpoint 为空时只在本地聚合（可经 /metrics 拉取）。
type ReporterSettings struct {
	Prefix   string        `koanf:"prefix"`
	Source   string        `koanf:"source"`
	Interval time.Duration `koanf:"interval"`
	Endpoint string        `koanf:"endpoint"`
	Insecure bool          `koanf:"insecure"`
}

// TracingSettings 链路导出。
type TracingSettings struct {
	Exporter string `koanf:"exporter"`
	Endpoint string `koanf:"endpoint"`
	Insecure bool   `koanf:"insecure"`
}

// LogSettings 日志。File 非空时按 Rotation 轮转。
type LogSettings struct {
	Level    string        `koanf:"level"`
	Format   string        `koanf:"format"`
	File     string        `koanf:"file"`
	Rotation xlog.Rotation `koanf:"rotation"`
}

// ServerSettings demo 服务。
type ServerSettings struct {
	Addr            string        `koanf:"addr"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

// LoadSettings 反序列化整个配置并校验、填充默认值。
func LoadSettings(cfg Config) (Settings, error) {
	var s Settings
	if err := cfg.Unmarshal("", &s); err != nil {
		return Settings{}, err
	}
	if err := s.Validate(); err != nil {
		return Settings{}, err
	}
	return s, nil
}

// Validate 校验必填项并填充默认值。
func (s *Settings) Validate() error {
	if _, err := s.Application.Tags(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidSettings, err)
	}
	if _, err := xlog.ParseLevel(s.Log.Level); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidSettings, err)
	}
	if s.Heartbeat.Interval < 0 || s.Reporter.Interval < 0 {
		return fmt.Errorf("%w: negative interval", ErrInvalidSettings)
	}

	if s.Component == "" {
		s.Component = DefaultComponent
	}
	if s.Heartbeat.Interval == 0 {
		s.Heartbeat.Interval = DefaultHeartbeatInterval
	}
	if s.Heartbeat.Redis.TTL == 0 {
		s.Heartbeat.Redis.TTL = 3 * s.Heartbeat.Interval
	}
	if s.Heartbeat.Etcd.TTL == 0 {
		s.Heartbeat.Etcd.TTL = 3 * s.Heartbeat.Interval
	}
	if s.Heartbeat.Etcd.DialTimeout == 0 {
		s.Heartbeat.Etcd.DialTimeout = DefaultEtcdDialTimeout
	}
	if s.Reporter.Prefix == "" {
		s.Reporter.Prefix = DefaultReporterPrefix
	}
	if s.Reporter.Interval == 0 {
		s.Reporter.Interval = DefaultReporterInterval
	}
	if s.Reporter.Source == "" {
		if host, err := os.Hostname(); err == nil {
			s.Reporter.Source = host
		}
	}
	if s.Server.Addr == "" {
		s.Server.Addr = DefaultServerAddr
	}
	if s.Server.ShutdownTimeout == 0 {
		s.Server.ShutdownTimeout = DefaultShutdownTimeout
	}
	return nil
}

// Tags 转换为应用身份。
func (a ApplicationSettings) Tags() (xapptags.ApplicationTags, error) {
	opts := []xapptags.Option{xapptags.WithCluster(a.Cluster), xapptags.WithShard(a.Shard)}
	for k, v := range a.Custom {
		opts = append(opts, xapptags.WithCustomTag(k, v))
	}
	return xapptags.New(a.Application, a.Service, opts...)
}
