package xreporter

import "errors"

var (
	// ErrInvalidInterval 推送间隔为负数。
	ErrInvalidInterval = errors.New("xreporter: interval must not be negative")
)
