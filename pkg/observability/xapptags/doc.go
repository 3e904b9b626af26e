// Package xapptags 定义应用身份标识（application / cluster / service / shard）。
//
// 身份在中间件构造时提供一次，之后只读。未配置的字段统一替换为哨兵值
// [NullTagValue]（"none"），保证任何指标标签都不会出现空字符串。
//
// 是否"已配置"以原始值判断（[ApplicationTags.HasShard]、[ApplicationTags.HasCluster]），
// 而不是比较归一化后的哨兵值，二者语义等价。
package xapptags
