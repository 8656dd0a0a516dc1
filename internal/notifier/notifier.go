package notifier

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"goldwatch-alarm/internal/config"
	"goldwatch-alarm/internal/models"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// Publisher 系统通知发布接口（生产实现为 common/mqtt.Client）
type Publisher interface {
	Publish(topic string, qos byte, retained bool, payload []byte) error
}

// Notifier 触发通知分发器
// 页内通道：把触发记录写入每设备的 Redis 缓存（展示端从 HTTP 拉取，展示状态
// 本身由 is_triggered/triggered_at 推导，缓存只是增量提示）；
// 系统通道：经授权后通过 MQTT 发布到设备主题，授权缺失/拒绝时静默跳过
type Notifier struct {
	config      *config.Config
	perms       *PermissionManager
	publisher   Publisher // 可为 nil（MQTT 未配置时系统通道关闭）
	redisClient *redis.Client
	logger      *zap.Logger
}

// NewNotifier 创建通知分发器
func NewNotifier(
	cfg *config.Config,
	perms *PermissionManager,
	publisher Publisher,
	redisClient *redis.Client,
	logger *zap.Logger,
) *Notifier {
	return &Notifier{
		config:      cfg,
		perms:       perms,
		publisher:   publisher,
		redisClient: redisClient,
		logger:      logger,
	}
}

func (n *Notifier) triggeredKey(deviceID string) string {
	return fmt.Sprintf("%s%s%s",
		n.config.Alarm.TriggeredCache.KeyPrefix,
		deviceID,
		n.config.Alarm.TriggeredCache.Suffix,
	)
}

// NotifyTriggered 投递本轮触发的报警（按设备分组）
func (n *Notifier) NotifyTriggered(ctx context.Context, alarms []models.Alarm) {
	byDevice := make(map[string][]models.Alarm)
	for _, alarm := range alarms {
		byDevice[alarm.DeviceID] = append(byDevice[alarm.DeviceID], alarm)
	}

	for deviceID, deviceAlarms := range byDevice {
		notifications := make([]models.TriggerNotification, 0, len(deviceAlarms))
		for _, alarm := range deviceAlarms {
			notifications = append(notifications, toNotification(alarm))
		}

		// 页内通道：保证送达路径，失败仅记录（展示端仍可从报警列表推导触发状态）
		if err := n.appendTriggeredCache(ctx, deviceID, notifications); err != nil {
			n.logger.Error("Failed to update triggered cache",
				zap.String("device_id", deviceID),
				zap.Error(err),
			)
		}

		// 系统通道：权限门控
		n.publishSystemNotification(ctx, deviceID, notifications)
	}
}

// GetTriggered 读取某设备的待展示触发记录（页内通知拉取接口）
func (n *Notifier) GetTriggered(ctx context.Context, deviceID string) ([]models.TriggerNotification, error) {
	val, err := n.redisClient.Get(ctx, n.triggeredKey(deviceID)).Result()
	if err != nil {
		if err == redis.Nil {
			return []models.TriggerNotification{}, nil
		}
		return nil, fmt.Errorf("failed to get triggered cache: %w", err)
	}

	var notifications []models.TriggerNotification
	if err := json.Unmarshal([]byte(val), &notifications); err != nil {
		return nil, fmt.Errorf("failed to unmarshal triggered cache: %w", err)
	}
	return notifications, nil
}

// appendTriggeredCache 追加触发记录到每设备缓存（带 TTL）
func (n *Notifier) appendTriggeredCache(ctx context.Context, deviceID string, notifications []models.TriggerNotification) error {
	existing, err := n.GetTriggered(ctx, deviceID)
	if err != nil {
		// 缓存损坏时直接覆盖
		n.logger.Warn("Resetting triggered cache",
			zap.String("device_id", deviceID),
			zap.Error(err),
		)
		existing = nil
	}

	merged := append(existing, notifications...)
	jsonData, err := json.Marshal(merged)
	if err != nil {
		return fmt.Errorf("failed to marshal triggered cache: %w", err)
	}

	ttl := time.Duration(n.config.Alarm.TriggeredCache.TTL) * time.Second
	if err := n.redisClient.Set(ctx, n.triggeredKey(deviceID), jsonData, ttl).Err(); err != nil {
		return fmt.Errorf("failed to set triggered cache: %w", err)
	}
	return nil
}

// publishSystemNotification 系统通道投递
// granted → 发布通知；undetermined → 最多请求一次授权；denied → 静默跳过
func (n *Notifier) publishSystemNotification(ctx context.Context, deviceID string, notifications []models.TriggerNotification) {
	if n.publisher == nil {
		return
	}

	state, err := n.perms.GetState(ctx, deviceID)
	if err != nil {
		n.logger.Error("Failed to get notification permission",
			zap.String("device_id", deviceID),
			zap.Error(err),
		)
		return
	}

	switch state {
	case models.PermissionGranted:
		payload, err := json.Marshal(notifications)
		if err != nil {
			n.logger.Error("Failed to marshal notification payload",
				zap.String("device_id", deviceID),
				zap.Error(err),
			)
			return
		}
		topic := n.config.Notify.TopicPrefix + deviceID
		if err := n.publisher.Publish(topic, n.config.MQTT.QoS, false, payload); err != nil {
			// 系统通道失败静默降级，页内通道兜底
			n.logger.Warn("Failed to publish system notification",
				zap.String("device_id", deviceID),
				zap.String("topic", topic),
				zap.Error(err),
			)
		}

	case models.PermissionUndetermined:
		first, err := n.perms.MarkRequested(ctx, deviceID)
		if err != nil {
			n.logger.Error("Failed to mark permission requested",
				zap.String("device_id", deviceID),
				zap.Error(err),
			)
			return
		}
		if !first {
			return
		}
		topic := n.config.Notify.TopicPrefix + deviceID + "/permission-request"
		if err := n.publisher.Publish(topic, n.config.MQTT.QoS, false, []byte(`{"type":"permission_request"}`)); err != nil {
			n.logger.Warn("Failed to publish permission request",
				zap.String("device_id", deviceID),
				zap.Error(err),
			)
		}

	case models.PermissionDenied:
		// 永不再请求
	}
}

// toNotification 由报警记录构造通知载荷
func toNotification(alarm models.Alarm) models.TriggerNotification {
	notification := models.TriggerNotification{
		AlarmID:     alarm.AlarmID,
		DeviceID:    alarm.DeviceID,
		ProductCode: alarm.ProductCode,
		ProductName: alarm.ProductName,
		PriceSide:   alarm.PriceSide,
		Condition:   alarm.Condition,
		TargetPrice: alarm.TargetPrice,
	}
	if alarm.TriggeredAt != nil {
		notification.TriggeredAt = alarm.TriggeredAt.Unix()
	}
	return notification
}
