package xheartbeat

import "errors"

var (
	// ErrNoComponents 没有配置任何组件。
	ErrNoComponents = errors.New("xheartbeat: at least one component is required")

	// ErrNilSender Sender 为 nil。
	ErrNilSender = errors.New("xheartbeat: nil sender")

	// ErrNilClient 存储客户端为 nil。
	ErrNilClient = errors.New("xheartbeat: nil client")

	// ErrAlreadyStarted Start 被重复调用。
	ErrAlreadyStarted = errors.New("xheartbeat: already started")
)
