package xrun

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"

	"golang.org/x/sync/errgroup"

	"github.com/omeyang/xreqtrace/pkg/observability/xlog"
)

// Group 并发运行多个任务并协调关闭。Go 可并发调用，Wait 只应调用一次。
type Group struct {
	eg       *errgroup.Group
	ctx      context.Context
	causeCtx context.Context
	cancel   context.CancelCauseFunc
	opts     *groupOptions
}

// NewGroup 创建 Group，返回的 ctx 在任一任务出错或 Cancel 时取消。
func NewGroup(ctx context.Context, opts ...Option) (*Group, context.Context) {
	if ctx == nil {
		ctx = context.Background()
	}
	o := defaultOptions()
	for _, opt := range opts {
		if opt != nil {
			opt(o)
		}
	}
	causeCtx, cancel := context.WithCancelCause(ctx)
	eg, egCtx := errgroup.WithContext(causeCtx)
	return &Group{eg: eg, ctx: egCtx, causeCtx: causeCtx, cancel: cancel, opts: o}, egCtx
}

// Go 启动一个任务。
func (g *Group) Go(name string, fn func(ctx context.Context) error) {
	g.eg.Go(func() error {
		if fn == nil {
			return ErrNilFunc
		}
		g.opts.logger.Debug(g.ctx, "task starting", slog.String("group", g.opts.name), slog.String("task", name))
		err := fn(g.ctx)
		if err != nil && !errors.Is(err, context.Canceled) {
			g.opts.logger.Warn(g.ctx, "task exited with error",
				slog.String("group", g.opts.name), slog.String("task", name), xlog.Err(err))
		}
		return err
	})
}

// Cancel 以 cause 为原因取消全部任务。
func (g *Group) Cancel(cause error) { g.cancel(cause) }

// Wait 等待全部任务结束。任务因取消返回 context.Canceled 时，
// 返回显式的取消原因（例如 *SignalError），没有原因时返回 nil。
func (g *Group) Wait() error {
	defer g.cancel(nil)
	err := g.eg.Wait()

	cause := context.Cause(g.causeCtx)
	explicit := g.causeCtx.Err() != nil && cause != nil && !errors.Is(cause, context.Canceled)
	switch {
	case errors.Is(err, context.Canceled) && g.causeCtx.Err() != nil:
		if explicit {
			return cause
		}
		return nil
	case err == nil && explicit:
		return cause
	default:
		return err
	}
}

// Run 运行任务并监听信号，直到全部任务结束。
func Run(ctx context.Context, opts []Option, tasks map[string]func(ctx context.Context) error) error {
	g, _ := NewGroup(ctx, opts...)
	if len(g.opts.signals) > 0 {
		g.Go("signal", func(ctx context.Context) error {
			ch := make(chan os.Signal, 1)
			signal.Notify(ch, g.opts.signals...)
			defer signal.Stop(ch)
			select {
			case sig := <-ch:
				g.opts.logger.Info(ctx, "received signal", slog.String("signal", sig.String()))
				g.cancel(&SignalError{Signal: sig})
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		})
	}
	for name, fn := range tasks {
		g.Go(name, fn)
	}
	return g.Wait()
}
