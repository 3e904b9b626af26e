package xheartbeat

//go:generate mockgen -source=etcd.go -destination=etcd_mock_test.go -package=xheartbeat

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"sync"
	"time"

	clientv3 "go.etcd.io/etcd/client/v3"

	"github.com/omeyang/xreqtrace/pkg/observability/xapptags"
)

// DefaultEtcdKeyPrefix etcd 心跳默认 key 前缀。
const DefaultEtcdKeyPrefix = "/xreqtrace/heartbeat"

// EtcdClient EtcdSender 需要的 etcd 操作，方法与 clientv3.KV / clientv3.Lease 一致。
// *clientv3.Client 实现了此接口。
type EtcdClient interface {
	Put(ctx context.Context, key, val string, opts ...clientv3.OpOption) (*clientv3.PutResponse, error)
	Grant(ctx context.Context, ttl int64) (*clientv3.LeaseGrantResponse, error)
	KeepAliveOnce(ctx context.Context, id clientv3.LeaseID) (*clientv3.LeaseKeepAliveResponse, error)
}

var _ EtcdClient = (*clientv3.Client)(nil)

// EtcdOption EtcdSender 选项。
type EtcdOption func(*EtcdSender)

// WithEtcdKeyPrefix 设置 key 前缀。
func WithEtcdKeyPrefix(prefix string) EtcdOption {
	return func(s *EtcdSender) {
		if prefix != "" {
			s.prefix = strings.TrimSuffix(prefix, "/")
		}
	}
}

// WithEtcdTTL 设置租约 TTL，向上取整到秒，应大于心跳间隔。
func WithEtcdTTL(ttl time.Duration) EtcdOption {
	return func(s *EtcdSender) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

// EtcdSender 把心跳写入绑定租约的 etcd key：
//
//	<prefix>/<application>/<service>/<component>/<instance>
//
// 值为 JSON。每个 key 复用一个租约，每次心跳续约一次；续约失败（租约已过期）时重新申请。
// 实例下线后租约到期，key 随之删除。
type EtcdSender struct {
	client EtcdClient
	prefix string
	ttl    time.Duration

	mu     sync.Mutex
	leases map[string]clientv3.LeaseID
}

// NewEtcdSender 创建 EtcdSender。
func NewEtcdSender(client EtcdClient, opts ...EtcdOption) (*EtcdSender, error) {
	if client == nil {
		return nil, ErrNilClient
	}
	s := &EtcdSender{
		client: client,
		prefix: DefaultEtcdKeyPrefix,
		ttl:    DefaultTTL,
		leases: make(map[string]clientv3.LeaseID),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s, nil
}

// Key 返回 beat 对应的 etcd key。
func (s *EtcdSender) Key(beat Beat) string {
	return strings.Join([]string{
		s.prefix,
		beat.Tags[xapptags.KeyApplication],
		beat.Tags[xapptags.KeyService],
		beat.Component,
		beat.InstanceID,
	}, "/")
}

type etcdBeat struct {
	Component string            `json:"component"`
	Source    string            `json:"source"`
	Instance  string            `json:"instance"`
	TS        int64             `json:"ts"`
	Tags      map[string]string `json:"tags"`
}

// Send 实现 Sender。
func (s *EtcdSender) Send(ctx context.Context, beat Beat) error {
	val, err := json.Marshal(etcdBeat{
		Component: beat.Component,
		Source:    beat.Source,
		Instance:  beat.InstanceID,
		TS:        beat.Time.UnixMilli(),
		Tags:      beat.Tags,
	})
	if err != nil {
		return fmt.Errorf("xheartbeat: encode beat: %w", err)
	}

	key := s.Key(beat)
	id, err := s.lease(ctx, key)
	if err != nil {
		return err
	}
	if _, err := s.client.Put(ctx, key, string(val), clientv3.WithLease(id)); err != nil {
		s.forget(key)
		return fmt.Errorf("xheartbeat: etcd put %s: %w", key, err)
	}
	return nil
}

// lease 返回 key 的租约：已有租约先续约，续约失败或没有租约时重新申请。
func (s *EtcdSender) lease(ctx context.Context, key string) (clientv3.LeaseID, error) {
	s.mu.Lock()
	id, ok := s.leases[key]
	s.mu.Unlock()
	if ok {
		if _, err := s.client.KeepAliveOnce(ctx, id); err == nil {
			return id, nil
		}
		s.forget(key)
	}

	resp, err := s.client.Grant(ctx, int64(math.Ceil(s.ttl.Seconds())))
	if err != nil {
		return clientv3.NoLease, fmt.Errorf("xheartbeat: etcd grant lease: %w", err)
	}
	s.mu.Lock()
	s.leases[key] = resp.ID
	s.mu.Unlock()
	return resp.ID, nil
}

func (s *EtcdSender) forget(key string) {
	s.mu.Lock()
	delete(s.leases, key)
	s.mu.Unlock()
}
