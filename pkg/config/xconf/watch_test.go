package xconf

import (
	"context"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatch_ReloadsOnWrite(t *testing.T) {
	p := writeFile(t, "app.yaml", "component: a\n")
	cfg, err := New(p)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	var calls atomic.Int32
	done := make(chan error, 1)
	go func() {
		done <- Watch(ctx, cfg, func(_ Config, err error) {
			if err == nil {
				calls.Add(1)
			}
		}, WithDebounce(20*time.Millisecond))
	}()

	// 等待 watcher 就绪后连续写入，防抖后只触发少量回调。
	time.Sleep(100 * time.Millisecond)
	for _, v := range []string{"b", "c", "d"} {
		require.NoError(t, os.WriteFile(p, []byte("component: "+v+"\n"), 0o600))
	}

	assert.Eventually(t, func() bool {
		return calls.Load() > 0 && cfg.Client().String("component") == "d"
	}, 2*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		require.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("Watch did not return after cancel")
	}
}

func TestWatch_IgnoresOtherFiles(t *testing.T) {
	p := writeFile(t, "app.yaml", "component: a\n")
	cfg, err := New(p)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()

	var calls atomic.Int32
	go func() {
		time.Sleep(50 * time.Millisecond)
		_ = os.WriteFile(p+".bak", []byte("x"), 0o600)
	}()
	err = Watch(ctx, cfg, func(Config, error) { calls.Add(1) }, WithDebounce(10*time.Millisecond))
	require.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Zero(t, calls.Load())
}

func TestWatch_NotReloadable(t *testing.T) {
	cfg, err := NewFromBytes(nil, FormatYAML)
	require.NoError(t, err)
	require.ErrorIs(t, Watch(context.Background(), cfg, nil), ErrNotReloadable)
	require.ErrorIs(t, Watch(context.Background(), nil, nil), ErrNotReloadable)
}
