package xtracer

import "errors"

var (
	// ErrInvalidCarrier carrier 中没有可用的传播 header。
	ErrInvalidCarrier = errors.New("xtracer: invalid carrier")

	// ErrSpanContextCorrupted 传播 header 存在但无法解析出有效 span context。
	ErrSpanContextCorrupted = errors.New("xtracer: span context corrupted")

	// ErrUnknownExporter 未知的 exporter 类型。
	ErrUnknownExporter = errors.New("xtracer: unknown exporter")
)
