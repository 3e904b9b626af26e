package xlog

import (
	"log/slog"
	"time"
)

// 常用属性 key。
const (
	KeyError      = "error"
	KeyStack      = "stack"
	KeyDuration   = "duration"
	KeyMethod     = "method"
	KeyPath       = "path"
	KeyStatusCode = "status_code"
	KeyComponent  = "component"
	KeyEndpoint   = "endpoint"
	KeyMetric     = "metric"
	KeyPanic      = "panic"
)

// Err 创建错误属性，err 为 nil 时返回空属性（会被 slog 忽略）。
func Err(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.String(KeyError, err.Error())
}

// Duration 创建耗时属性（人类可读格式）。
func Duration(d time.Duration) slog.Attr {
	return slog.String(KeyDuration, d.String())
}

// Component 创建组件名属性。
func Component(name string) slog.Attr {
	return slog.String(KeyComponent, name)
}

// Method 创建 HTTP 方法属性。
func Method(m string) slog.Attr {
	return slog.String(KeyMethod, m)
}

// Path 创建请求路径属性。
func Path(p string) slog.Attr {
	return slog.String(KeyPath, p)
}

// StatusCode 创建 HTTP 状态码属性。
func StatusCode(code int) slog.Attr {
	return slog.Int(KeyStatusCode, code)
}

// Endpoint 创建端点名属性。
func Endpoint(name string) slog.Attr {
	return slog.String(KeyEndpoint, name)
}

// Metric 创建指标名属性。
func Metric(name string) slog.Attr {
	return slog.String(KeyMetric, name)
}

// Panic 创建 panic 值属性。
func Panic(v any) slog.Attr {
	return slog.Any(KeyPanic, v)
}
