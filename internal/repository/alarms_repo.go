package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"goldwatch-alarm/internal/models"
)

// ErrAlarmNotFound 报警不存在（删除竞争时 MarkTriggered 以此作为 no-op 信号）
var ErrAlarmNotFound = errors.New("alarm not found")

// ErrInvalidAlarm 创建参数非法
var ErrInvalidAlarm = errors.New("invalid alarm")

// AlarmsRepo 价格报警仓库接口
// 仓库是持久化状态的唯一写入方；评估器只通过 MarkTriggered 请求触发迁移
type AlarmsRepo interface {
	// ListByDevice 查询某设备的全部报警，按创建时间倒序；未知设备返回空列表
	ListByDevice(ctx context.Context, deviceID string) ([]models.Alarm, error)

	// ListActive 查询所有 active 且未触发的报警（评估输入）
	ListActive(ctx context.Context) ([]models.Alarm, error)

	// ListTriggered 查询所有已触发的报警（管理后台导出）
	ListTriggered(ctx context.Context) ([]models.Alarm, error)

	// Create 创建报警：校验字段、分配 ID，置 is_active=true / is_triggered=false
	Create(ctx context.Context, alarm *models.Alarm) error

	// Delete 删除报警；id 不存在返回 ErrAlarmNotFound
	Delete(ctx context.Context, alarmID string) error

	// MarkTriggered 单向幂等触发迁移：
	// 未触发 → 写入 is_triggered=true 和 triggered_at=at；
	// 已触发 → 原样返回（triggered_at 不变）；
	// 不存在 → ErrAlarmNotFound（delete wins）
	MarkTriggered(ctx context.Context, alarmID string, at time.Time) (*models.Alarm, error)
}

// validateNewAlarm 创建前校验（两种实现共用）
func validateNewAlarm(alarm *models.Alarm) error {
	if alarm.DeviceID == "" {
		return fmt.Errorf("%w: device_id is required", ErrInvalidAlarm)
	}
	if alarm.ProductCode == "" {
		return fmt.Errorf("%w: product_code is required", ErrInvalidAlarm)
	}
	if alarm.ProductName == "" {
		return fmt.Errorf("%w: product_name is required", ErrInvalidAlarm)
	}
	if !models.ValidPriceSide(alarm.PriceSide) {
		return fmt.Errorf("%w: price_side must be bid or ask", ErrInvalidAlarm)
	}
	if !models.ValidCondition(alarm.Condition) {
		return fmt.Errorf("%w: condition must be at_or_above or at_or_below", ErrInvalidAlarm)
	}
	if alarm.TargetPrice <= 0 {
		return fmt.Errorf("%w: target_price must be positive", ErrInvalidAlarm)
	}
	return nil
}
