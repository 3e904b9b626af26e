//go:build !(linux || darwin || freebsd || openbsd || dragonfly)

package xsys

import "time"

// ProcessCPUTime 当前平台不支持。
func ProcessCPUTime() (time.Duration, error) {
	return 0, ErrUnsupportedPlatform
}
