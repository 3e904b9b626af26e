package xconf

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/omeyang/xreqtrace/pkg/observability/xapptags"
	"github.com/omeyang/xreqtrace/pkg/observability/xheartbeat"
)

const sampleYAML = `application:
  application: shop
  service: api
  cluster: us-west
  custom:
    team: payments
component: flask
traced_attributes: [user_id, tenant]
heartbeat:
  interval: 5s
  etcd:
    endpoints: [etcd-0:2379, etcd-1:2379]
    key_prefix: /shop/heartbeat
reporter:
  prefix: "web."
  source: host-1
log:
  level: debug
  rotation:
    max_size_mb: 50
server:
  addr: ":9090"
`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(p, []byte(content), 0o600))
	return p
}

func TestNew_YAML(t *testing.T) {
	cfg, err := New(writeFile(t, "app.yaml", sampleYAML))
	require.NoError(t, err)
	assert.Equal(t, FormatYAML, cfg.Format())
	assert.Equal(t, "shop", cfg.Client().String("application.application"))
	assert.Equal(t, []string{"user_id", "tenant"}, cfg.Client().Strings("traced_attributes"))
}

func TestNew_JSON(t *testing.T) {
	cfg, err := New(writeFile(t, "app.json", `{"component":"worker"}`))
	require.NoError(t, err)
	assert.Equal(t, FormatJSON, cfg.Format())
	assert.Equal(t, "worker", cfg.Client().String("component"))
}

func TestNew_Errors(t *testing.T) {
	_, err := New("")
	require.ErrorIs(t, err, ErrEmptyPath)

	_, err = New("app.toml")
	require.ErrorIs(t, err, ErrUnsupportedFormat)

	_, err = New(filepath.Join(t.TempDir(), "missing.yaml"))
	require.ErrorIs(t, err, ErrLoadFailed)

	_, err = New(writeFile(t, "bad.json", `{"a":`))
	require.ErrorIs(t, err, ErrParseFailed)
}

func TestNewFromBytes(t *testing.T) {
	cfg, err := NewFromBytes([]byte(sampleYAML), FormatYAML)
	require.NoError(t, err)
	assert.Empty(t, cfg.Path())
	require.ErrorIs(t, cfg.Reload(), ErrNotReloadable)

	empty, err := NewFromBytes(nil, FormatJSON)
	require.NoError(t, err)
	assert.Empty(t, empty.Client().Keys())

	_, err = NewFromBytes(nil, Format("ini"))
	require.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestUnmarshal_SubPath(t *testing.T) {
	cfg, err := NewFromBytes([]byte(sampleYAML), FormatYAML)
	require.NoError(t, err)

	var hb HeartbeatSettings
	require.NoError(t, cfg.Unmarshal("heartbeat", &hb))
	assert.Equal(t, 5*time.Second, hb.Interval)
}

func TestReload(t *testing.T) {
	p := writeFile(t, "app.yaml", "component: a\n")
	cfg, err := New(p)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(p, []byte("component: b\n"), 0o600))
	require.NoError(t, cfg.Reload())
	assert.Equal(t, "b", cfg.Client().String("component"))

	// 解析失败时保留旧配置。
	require.NoError(t, os.WriteFile(p, []byte("component: [\n"), 0o600))
	require.ErrorIs(t, cfg.Reload(), ErrParseFailed)
	assert.Equal(t, "b", cfg.Client().String("component"))
}

func TestLoadSettings(t *testing.T) {
	cfg, err := NewFromBytes([]byte(sampleYAML), FormatYAML)
	require.NoError(t, err)

	s, err := LoadSettings(cfg)
	require.NoError(t, err)

	assert.Equal(t, "shop", s.Application.Application)
	assert.Equal(t, "payments", s.Application.Custom["team"])
	assert.Equal(t, []string{"user_id", "tenant"}, s.TracedAttributes)
	assert.Equal(t, 5*time.Second, s.Heartbeat.Interval)
	assert.Equal(t, 15*time.Second, s.Heartbeat.Redis.TTL)
	assert.Equal(t, []string{"etcd-0:2379", "etcd-1:2379"}, s.Heartbeat.Etcd.Endpoints)
	assert.Equal(t, "/shop/heartbeat", s.Heartbeat.Etcd.KeyPrefix)
	assert.Equal(t, 15*time.Second, s.Heartbeat.Etcd.TTL)
	assert.Equal(t, DefaultEtcdDialTimeout, s.Heartbeat.Etcd.DialTimeout)
	assert.Equal(t, "web.", s.Reporter.Prefix)
	assert.Equal(t, "host-1", s.Reporter.Source)
	assert.Equal(t, DefaultReporterInterval, s.Reporter.Interval)
	assert.Equal(t, "debug", s.Log.Level)
	assert.Equal(t, 50, s.Log.Rotation.MaxSizeMB)
	assert.Equal(t, ":9090", s.Server.Addr)
	assert.Equal(t, DefaultShutdownTimeout, s.Server.ShutdownTimeout)

	tags, err := s.Application.Tags()
	require.NoError(t, err)
	assert.Equal(t, "us-west", tags.Cluster)
	assert.False(t, tags.HasShard())
}

func TestLoadSettings_Defaults(t *testing.T) {
	cfg, err := NewFromBytes([]byte("application:\n  application: shop\n"), FormatYAML)
	require.NoError(t, err)

	s, err := LoadSettings(cfg)
	require.NoError(t, err)
	assert.Equal(t, DefaultComponent, s.Component)
	assert.Equal(t, DefaultHeartbeatInterval, s.Heartbeat.Interval)
	assert.Equal(t, DefaultHeartbeatTTL, s.Heartbeat.Redis.TTL)
	assert.Equal(t, xheartbeat.DefaultTTL, DefaultHeartbeatTTL)
	assert.Equal(t, xheartbeat.DefaultInterval, DefaultHeartbeatInterval)
	assert.Equal(t, DefaultHeartbeatTTL, s.Heartbeat.Etcd.TTL)
	assert.Empty(t, s.Heartbeat.Etcd.Endpoints)
	assert.Equal(t, DefaultReporterPrefix, s.Reporter.Prefix)
	assert.Equal(t, DefaultServerAddr, s.Server.Addr)
}

func TestLoadSettings_Invalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want error
	}{
		{"missing application", "component: flask\n", xapptags.ErrEmptyApplication},
		{"bad level", "application:\n  application: a\nlog:\n  level: loud\n", ErrInvalidSettings},
		{"negative interval", "application:\n  application: a\nheartbeat:\n  interval: -1s\n", ErrInvalidSettings},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := NewFromBytes([]byte(tt.yaml), FormatYAML)
			require.NoError(t, err)
			_, err = LoadSettings(cfg)
			require.ErrorIs(t, err, tt.want)
			require.ErrorIs(t, err, ErrInvalidSettings)
		})
	}
}
