package xregistry

import "strconv"

// Kind 指标类型。
type Kind int

const (
	// KindCounter 累积计数器。
	KindCounter Kind = iota
	// KindDeltaCounter 增量计数器。
	KindDeltaCounter
	// KindGauge 瞬时值。
	KindGauge
	// KindHistogram 分布。
	KindHistogram
)

// String 返回可读名称。
func (k Kind) String() string {
	switch k {
	case KindCounter:
		return "counter"
	case KindDeltaCounter:
		return "delta_counter"
	case KindGauge:
		return "gauge"
	case KindHistogram:
		return "histogram"
	default:
		return "Kind(" + strconv.Itoa(int(k)) + ")"
	}
}

// DeltaPrefix 增量计数器名称前缀，下游据此识别 delta 语义。
const DeltaPrefix = "∆"
