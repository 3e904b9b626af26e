package xregistry

import "errors"

var (
	// ErrKindConflict 表示同一名称已注册为另一种指标类型。
	ErrKindConflict = errors.New("xregistry: metric name registered with a different kind")
)
