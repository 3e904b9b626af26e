package xheartbeat

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/omeyang/xreqtrace/pkg/observability/xapptags"
)

// Redis 心跳默认值。
const (
	DefaultKeyPrefix = "xreqtrace:heartbeat"
	DefaultTTL       = 3 * DefaultInterval
)

// RedisOption RedisSender 选项。
type RedisOption func(*RedisSender)

// WithKeyPrefix 设置 key 前缀。
func WithKeyPrefix(prefix string) RedisOption {
	return func(s *RedisSender) {
		if prefix != "" {
			s.prefix = prefix
		}
	}
}

// WithTTL 设置 key 过期时间，应大于心跳间隔。
func WithTTL(ttl time.Duration) RedisOption {
	return func(s *RedisSender) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

// RedisSender 把心跳写入 Redis hash：
//
//	<prefix>:<application>:<service>:<component>:<instance>
//
// 字段为全部标签以及 source、instance、ts（Unix 毫秒）。key 在 TTL 后过期，
// 实例下线后自然消失。
type RedisSender struct {
	client redis.UniversalClient
	prefix string
	ttl    time.Duration
}

// NewRedisSender 创建 RedisSender。
func NewRedisSender(client redis.UniversalClient, opts ...RedisOption) (*RedisSender, error) {
	if client == nil {
		return nil, ErrNilClient
	}
	s := &RedisSender{client: client, prefix: DefaultKeyPrefix, ttl: DefaultTTL}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s, nil
}

// Key 返回 beat 对应的 Redis key。
func (s *RedisSender) Key(beat Beat) string {
	return strings.Join([]string{
		s.prefix,
		beat.Tags[xapptags.KeyApplication],
		beat.Tags[xapptags.KeyService],
		beat.Component,
		beat.InstanceID,
	}, ":")
}

// Send 实现 Sender。
func (s *RedisSender) Send(ctx context.Context, beat Beat) error {
	fields := make(map[string]any, len(beat.Tags)+3)
	for k, v := range beat.Tags {
		fields[k] = v
	}
	fields["source"] = beat.Source
	fields["instance"] = beat.InstanceID
	fields["ts"] = beat.Time.UnixMilli()

	key := s.Key(beat)
	pipe := s.client.TxPipeline()
	pipe.HSet(ctx, key, fields)
	pipe.Expire(ctx, key, s.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("xheartbeat: redis %s: %w", key, err)
	}
	return nil
}
