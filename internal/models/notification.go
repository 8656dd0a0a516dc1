package models

// 系统通知权限状态（每个设备查询一次，denied 后不再请求）
const (
	PermissionUndetermined = "undetermined"
	PermissionGranted      = "granted"
	PermissionDenied       = "denied"
)

// TriggerNotification 触发通知（MQTT 与页内缓存共用的载荷）
type TriggerNotification struct {
	AlarmID     string  `json:"alarm_id"`
	DeviceID    string  `json:"device_id"`
	ProductCode string  `json:"product_code"`
	ProductName string  `json:"product_name"`
	PriceSide   string  `json:"price_side"`
	Condition   string  `json:"condition"`
	TargetPrice float64 `json:"target_price"`
	TriggeredAt int64   `json:"triggered_at"` // Unix 时间戳
}

// ValidPermissionState 检查权限状态取值（undetermined 不可由客户端写入）
func ValidPermissionState(state string) bool {
	return state == PermissionGranted || state == PermissionDenied
}
