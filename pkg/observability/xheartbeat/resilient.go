package xheartbeat

import (
	"context"
	"time"

	retry "github.com/avast/retry-go/v5"
	"github.com/sony/gobreaker/v2"
)

// ResilientOption ResilientSender 选项。
type ResilientOption func(*resilientOptions)

type resilientOptions struct {
	attempts      uint
	delay         time.Duration
	failures      uint32
	openTimeout   time.Duration
	onStateChange func(name string, from, to gobreaker.State)
}

// WithRetry 设置每次发送的总尝试次数与固定重试间隔。默认 2 次、100ms。
func WithRetry(attempts uint, delay time.Duration) ResilientOption {
	return func(o *resilientOptions) {
		if attempts > 0 {
			o.attempts = attempts
		}
		if delay >= 0 {
			o.delay = delay
		}
	}
}

// WithBreaker 设置连续失败多少次后熔断，以及熔断持续时间。默认 3 次、30s。
func WithBreaker(failures uint32, openTimeout time.Duration) ResilientOption {
	return func(o *resilientOptions) {
		if failures > 0 {
			o.failures = failures
		}
		if openTimeout > 0 {
			o.openTimeout = openTimeout
		}
	}
}

// WithStateChange 熔断器状态变化回调。
func WithStateChange(fn func(name string, from, to gobreaker.State)) ResilientOption {
	return func(o *resilientOptions) { o.onStateChange = fn }
}

// ResilientSender 为 Sender 增加重试与熔断。
//
// 一次 Send 内部按 WithRetry 重试，重试耗尽算作熔断器的一次失败。
// 熔断打开期间直接返回 gobreaker.ErrOpenState，不再访问下游。
type ResilientSender struct {
	next Sender
	cb   *gobreaker.CircuitBreaker[any]
	opts resilientOptions
}

// NewResilientSender 包装 next。name 用于熔断器名称。
func NewResilientSender(name string, next Sender, opts ...ResilientOption) (*ResilientSender, error) {
	if next == nil {
		return nil, ErrNilSender
	}
	o := resilientOptions{
		attempts:    2,
		delay:       100 * time.Millisecond,
		failures:    3,
		openTimeout: 30 * time.Second,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	st := gobreaker.Settings{
		Name:    name,
		Timeout: o.openTimeout,
		ReadyToTrip: func(c gobreaker.Counts) bool {
			return c.ConsecutiveFailures >= o.failures
		},
		OnStateChange: o.onStateChange,
	}
	return &ResilientSender{
		next: next,
		cb:   gobreaker.NewCircuitBreaker[any](st),
		opts: o,
	}, nil
}

// State 返回熔断器当前状态。
func (s *ResilientSender) State() gobreaker.State { return s.cb.State() }

// Send 实现 Sender。
func (s *ResilientSender) Send(ctx context.Context, beat Beat) error {
	_, err := s.cb.Execute(func() (any, error) {
		return nil, retry.New(
			retry.Context(ctx),
			retry.Attempts(s.opts.attempts),
			retry.Delay(s.opts.delay),
			retry.DelayType(retry.FixedDelay),
			retry.LastErrorOnly(true),
		).Do(func() error {
			return s.next.Send(ctx, beat)
		})
	})
	return err
}
