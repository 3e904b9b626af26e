package xapptags

import "errors"

var (
	// ErrEmptyApplication 表示 application 未配置。
	ErrEmptyApplication = errors.New("xapptags: application must not be empty")

	// ErrReservedTagKey 表示自定义标签使用了保留的 key。
	ErrReservedTagKey = errors.New("xapptags: custom tag key is reserved")
)
