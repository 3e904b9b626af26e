package xheartbeat

import (
	"context"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/omeyang/xreqtrace/pkg/lifecycle/xrun"
	"github.com/omeyang/xreqtrace/pkg/observability/xapptags"
	"github.com/omeyang/xreqtrace/pkg/observability/xlog"
)

// DefaultInterval 默认心跳间隔。
const DefaultInterval = 10 * time.Second

// Config 心跳配置。
type Config struct {
	ApplicationTags xapptags.ApplicationTags
	Components      []string
	Source          string
	// Interval 心跳间隔，<= 0 使用 DefaultInterval。
	Interval time.Duration
	// InstanceID 进程实例标识，空值时生成 UUID。
	InstanceID string
	Logger     xlog.Logger
}

// Heartbeater 心跳服务。
type Heartbeater struct {
	cfg     Config
	senders []Sender
	beats   []Beat

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// New 创建 Heartbeater。nil Sender 会被忽略；没有 Sender 时心跳只是空转。
func New(cfg Config, senders ...Sender) (*Heartbeater, error) {
	components := slices.DeleteFunc(slices.Clone(cfg.Components), func(c string) bool { return c == "" })
	if len(components) == 0 {
		return nil, ErrNoComponents
	}
	cfg.Components = components
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}
	if cfg.InstanceID == "" {
		cfg.InstanceID = uuid.NewString()
	}
	if cfg.Logger == nil {
		cfg.Logger = xlog.Discard()
	}

	h := &Heartbeater{cfg: cfg}
	for _, s := range senders {
		if s != nil {
			h.senders = append(h.senders, s)
		}
	}

	base := cfg.ApplicationTags.Map()
	for _, c := range components {
		tags := maps.Clone(base)
		tags[KeyComponent] = c
		h.beats = append(h.beats, Beat{
			Component:  c,
			Source:     cfg.Source,
			InstanceID: cfg.InstanceID,
			Tags:       tags,
		})
	}
	return h, nil
}

// InstanceID 返回实例标识。
func (h *Heartbeater) InstanceID() string { return h.cfg.InstanceID }

// Interval 返回心跳间隔。
func (h *Heartbeater) Interval() time.Duration { return h.cfg.Interval }

// Beat 立即为每个组件发送一次心跳。发送错误只记录日志。
func (h *Heartbeater) Beat(ctx context.Context) {
	now := time.Now()
	for _, tmpl := range h.beats {
		b := tmpl.clone()
		b.Time = now
		for _, s := range h.senders {
			if err := s.Send(ctx, b); err != nil {
				h.cfg.Logger.Warn(ctx, "heartbeat send failed",
					xlog.Component(b.Component), xlog.Err(err))
			}
		}
	}
}

// Run 阻塞发送心跳直到 ctx 取消，可作为 xrun 任务使用。
func (h *Heartbeater) Run(ctx context.Context) error {
	return xrun.Ticker(h.cfg.Interval, true, func(ctx context.Context) error {
		h.Beat(ctx)
		return nil
	})(ctx)
}

// Start 在后台 goroutine 中运行心跳，直到 Stop。
func (h *Heartbeater) Start() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.done != nil {
		return ErrAlreadyStarted
	}
	ctx, cancel := context.WithCancel(context.Background())
	h.cancel = cancel
	h.done = make(chan struct{})
	go func(done chan struct{}) {
		defer close(done)
		_ = h.Run(ctx)
	}(h.done)
	return nil
}

// Stop 停止心跳并等待后台 goroutine 退出，ctx 限定等待时间。未启动或重复调用时直接返回。
func (h *Heartbeater) Stop(ctx context.Context) error {
	h.mu.Lock()
	cancel, done := h.cancel, h.done
	h.cancel = nil
	h.mu.Unlock()
	if cancel == nil {
		return nil
	}
	cancel()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
