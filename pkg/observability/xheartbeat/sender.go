package xheartbeat

//go:generate mockgen -source=sender.go -destination=sender_mock_test.go -package=xheartbeat

import (
	"context"
	"maps"
	"time"
)

// 心跳指标与标签。
const (
	MetricName   = "~component.heartbeat"
	KeyComponent = "component"
)

// Beat 一次心跳。
type Beat struct {
	Component  string
	Source     string
	InstanceID string
	Time       time.Time
	// Tags application / cluster / service / shard / component 及自定义标签。
	Tags map[string]string
}

// Sender 发送心跳。实现需要并发安全。
type Sender interface {
	Send(ctx context.Context, beat Beat) error
}

// SenderFunc 函数适配器。
type SenderFunc func(ctx context.Context, beat Beat) error

// Send 实现 Sender。
func (f SenderFunc) Send(ctx context.Context, beat Beat) error { return f(ctx, beat) }

func (b Beat) clone() Beat {
	b.Tags = maps.Clone(b.Tags)
	return b
}
