//go:build linux || darwin || freebsd || openbsd || dragonfly

package xsys

import (
	"fmt"
	"time"

	"golang.org/x/sys/unix"
)

// ProcessCPUTime 返回进程累计 CPU 时间。
func ProcessCPUTime() (time.Duration, error) {
	var ts unix.Timespec
	if err := unix.ClockGettime(unix.CLOCK_PROCESS_CPUTIME_ID, &ts); err != nil {
		return 0, fmt.Errorf("xsys: clock_gettime: %w", err)
	}
	return time.Duration(ts.Nano()), nil
}
