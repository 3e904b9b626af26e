package xconf

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// WatchOption Watch 选项。
type WatchOption func(*watchOptions)

type watchOptions struct {
	debounce time.Duration
}

// WithDebounce 设置防抖时间，默认 100ms。
func WithDebounce(d time.Duration) WatchOption {
	return func(o *watchOptions) {
		if d > 0 {
			o.debounce = d
		}
	}
}

// Watch 监听配置文件变更：防抖后 Reload，并以 Reload 结果调用 onChange。
// 监听的是文件所在目录，编辑器"写临时文件再 rename"的保存方式同样生效。
// 阻塞直到 ctx 取消，返回 ctx.Err()。
func Watch(ctx context.Context, cfg Config, onChange func(Config, error), opts ...WatchOption) error {
	if cfg == nil || cfg.Path() == "" {
		return ErrNotReloadable
	}
	o := watchOptions{debounce: 100 * time.Millisecond}
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("xconf: create watcher: %w", err)
	}
	defer w.Close()

	dir, name := filepath.Split(filepath.Clean(cfg.Path()))
	if dir == "" {
		dir = "."
	}
	if err := w.Add(dir); err != nil {
		return fmt.Errorf("xconf: watch %s: %w", dir, err)
	}

	timer := time.NewTimer(o.debounce)
	timer.Stop()
	defer timer.Stop()

	notify := func(err error) {
		if onChange != nil {
			onChange(cfg, err)
		}
	}
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Base(ev.Name) != name || !ev.Has(fsnotify.Write|fsnotify.Create|fsnotify.Rename) {
				continue
			}
			timer.Reset(o.debounce)
		case <-timer.C:
			notify(cfg.Reload())
		case werr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			notify(fmt.Errorf("xconf: watch error: %w", werr))
		}
	}
}
