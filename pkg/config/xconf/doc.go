// Package xconf 基于 koanf 加载 YAML / JSON 配置。
//
// [New] 从文件加载（按扩展名识别格式），[NewFromBytes] 从字节加载（例如 ConfigMap）。
// [Config.Unmarshal] 使用 koanf 标签反序列化；[LoadSettings] 读取中间件的完整配置并填充默认值。
//
// [Watch] 监听配置文件变更并自动 Reload，阻塞直到 ctx 取消，可直接作为 xrun 任务运行。
package xconf
