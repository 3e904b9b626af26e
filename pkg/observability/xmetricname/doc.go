// Package xmetricname 提供请求指标名称与标签的推导规则。
//
// 指标名称是下游仪表盘依赖的事实协议，这里的所有规则都是纯函数：
//
//	request.<entity>.<METHOD>            请求阶段（无响应）
//	response.<entity>.<METHOD>.<status>  响应阶段
//
// entity 优先取路由模板，其次是逻辑端点名，都缺失时为 "UNKNOWN"。
// 清洗规则依次为："-"→"_"、"/"→"."、"{"→"_"、"}"→"_"、去掉 "<" 和 ">"，
// 最后去掉首尾的 "."。清洗是确定且幂等的，结果使用 LRU 缓存。
package xmetricname
