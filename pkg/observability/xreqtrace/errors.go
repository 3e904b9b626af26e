package xreqtrace

import (
	"errors"
	"fmt"
)

var (
	// ErrNilReporter 未提供 Reporter。
	ErrNilReporter = errors.New("xreqtrace: nil reporter")

	// ErrTracerConflict 同时设置了 WithTracer 与 WithTracerFunc。
	ErrTracerConflict = errors.New("xreqtrace: WithTracer and WithTracerFunc are mutually exclusive")

	// ErrTraceAllRequiresApp 显式开启 trace all requests 但没有提供 App。
	ErrTraceAllRequiresApp = errors.New("xreqtrace: trace all requests requires an app")

	// ErrNilCallback WithStartSpanCallback 传入 nil。
	ErrNilCallback = errors.New("xreqtrace: start span callback is nil")
)

// PanicError handler panic 时记录到 span 与指标上的错误。原始 panic 值会被重新抛出。
type PanicError struct {
	Value any
}

// NewPanicError 包装 recover() 得到的值。
func NewPanicError(v any) *PanicError { return &PanicError{Value: v} }

func (e *PanicError) Error() string { return fmt.Sprintf("panic: %v", e.Value) }

// Unwrap panic 值本身是 error 时返回它。
func (e *PanicError) Unwrap() error {
	err, _ := e.Value.(error)
	return err
}
