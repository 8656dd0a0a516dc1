package evaluator

import (
	"context"
	"errors"
	"time"

	"goldwatch-alarm/internal/models"
	"goldwatch-alarm/internal/repository"

	"go.uber.org/zap"
)

// Evaluator 价格报警评估器（实现 consumer.Evaluator 接口）
// 每个报警独立评估，无跨报警顺序依赖；已触发的报警在查询阶段即被排除
type Evaluator struct {
	alarmsRepo repository.AlarmsRepo
	logger     *zap.Logger
}

// NewEvaluator 创建评估器
func NewEvaluator(alarmsRepo repository.AlarmsRepo, logger *zap.Logger) *Evaluator {
	return &Evaluator{
		alarmsRepo: alarmsRepo,
		logger:     logger,
	}
}

// Evaluate 用一批最新报价评估所有 active 且未触发的报警，返回本轮触发的报警
// 同一批输入重复评估无副作用（触发迁移幂等）
func (e *Evaluator) Evaluate(ctx context.Context, ticks []models.PriceTick) ([]models.Alarm, error) {
	if len(ticks) == 0 {
		return nil, nil
	}

	alarms, err := e.alarmsRepo.ListActive(ctx)
	if err != nil {
		return nil, err
	}
	if len(alarms) == 0 {
		return nil, nil
	}

	byCode := make(map[string]models.PriceTick, len(ticks))
	for _, tick := range ticks {
		byCode[tick.ProductCode] = tick
	}

	var triggered []models.Alarm
	for _, alarm := range alarms {
		tick, ok := byCode[alarm.ProductCode]
		if !ok {
			// 本批行情不覆盖该产品：跳过，下一轮继续评估
			continue
		}

		value := tick.SideValue(alarm.PriceSide)
		if !conditionMatched(alarm.Condition, value, alarm.TargetPrice) {
			continue
		}

		at := time.Unix(tick.Timestamp, 0)
		if tick.Timestamp <= 0 {
			at = time.Now()
		}

		updated, err := e.alarmsRepo.MarkTriggered(ctx, alarm.AlarmID, at)
		if err != nil {
			if errors.Is(err, repository.ErrAlarmNotFound) {
				// delete wins：报警已被客户端删除
				e.logger.Debug("Alarm deleted before trigger",
					zap.String("alarm_id", alarm.AlarmID),
				)
				continue
			}
			e.logger.Error("Failed to mark alarm triggered",
				zap.String("alarm_id", alarm.AlarmID),
				zap.String("product_code", alarm.ProductCode),
				zap.Error(err),
			)
			// 写入失败不中断本轮；迁移幂等，下一轮会重新命中
			continue
		}

		e.logger.Info("Alarm condition matched",
			zap.String("alarm_id", updated.AlarmID),
			zap.String("device_id", updated.DeviceID),
			zap.String("product_code", updated.ProductCode),
			zap.String("price_side", updated.PriceSide),
			zap.String("condition", updated.Condition),
			zap.Float64("target_price", updated.TargetPrice),
			zap.Float64("value", value),
		)

		triggered = append(triggered, *updated)
	}

	return triggered, nil
}

// conditionMatched 阈值比较规则（边界值包含在内）
func conditionMatched(condition string, value, target float64) bool {
	switch condition {
	case models.ConditionAtOrAbove:
		return value >= target
	case models.ConditionAtOrBelow:
		return value <= target
	default:
		return false
	}
}
