package models

import (
	"time"
)

// 价格侧（报价的买/卖方向）
const (
	PriceSideBid = "bid"
	PriceSideAsk = "ask"
)

// 触发条件
const (
	ConditionAtOrAbove = "at_or_above"
	ConditionAtOrBelow = "at_or_below"
)

// Alarm 价格报警（对应 alarms 表）
// 生命周期：创建后 active/未触发；由评估器单向迁移到已触发；删除为物理删除
type Alarm struct {
	AlarmID     string     `json:"alarm_id" db:"alarm_id"`
	DeviceID    string     `json:"device_id" db:"device_id"`
	ProductCode string     `json:"product_code" db:"product_code"`
	ProductName string     `json:"product_name" db:"product_name"` // 创建时固化的展示名称
	PriceSide   string     `json:"price_side" db:"price_side"`     // bid / ask
	Condition   string     `json:"condition" db:"condition"`       // at_or_above / at_or_below
	TargetPrice float64    `json:"target_price" db:"target_price"`
	IsActive    bool       `json:"is_active" db:"is_active"`
	IsTriggered bool       `json:"is_triggered" db:"is_triggered"`
	TriggeredAt *time.Time `json:"triggered_at,omitempty" db:"triggered_at"` // 仅在首次触发时写入一次
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
}

// ValidPriceSide 检查价格侧取值
func ValidPriceSide(side string) bool {
	return side == PriceSideBid || side == PriceSideAsk
}

// ValidCondition 检查触发条件取值
func ValidCondition(condition string) bool {
	return condition == ConditionAtOrAbove || condition == ConditionAtOrBelow
}
