package notifier

import (
	"context"
	"fmt"

	"goldwatch-alarm/internal/config"
	"goldwatch-alarm/internal/models"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// PermissionManager 系统通知权限管理器
// 每个设备一个权限状态 {undetermined, granted, denied}；
// undetermined 时最多请求一次授权，denied 后永不再请求
type PermissionManager struct {
	config      *config.Config
	redisClient *redis.Client
	logger      *zap.Logger
}

// NewPermissionManager 创建权限管理器
func NewPermissionManager(cfg *config.Config, redisClient *redis.Client, logger *zap.Logger) *PermissionManager {
	return &PermissionManager{
		config:      cfg,
		redisClient: redisClient,
		logger:      logger,
	}
}

func (m *PermissionManager) stateKey(deviceID string) string {
	return m.config.Notify.PermKeyPrefix + deviceID
}

func (m *PermissionManager) requestedKey(deviceID string) string {
	return m.config.Notify.PermKeyPrefix + deviceID + ":requested"
}

// GetState 查询设备的权限状态（无记录视为 undetermined）
func (m *PermissionManager) GetState(ctx context.Context, deviceID string) (string, error) {
	val, err := m.redisClient.Get(ctx, m.stateKey(deviceID)).Result()
	if err != nil {
		if err == redis.Nil {
			return models.PermissionUndetermined, nil
		}
		return "", fmt.Errorf("failed to get permission state: %w", err)
	}
	return val, nil
}

// SetState 写入设备的权限决定（仅 granted/denied）
func (m *PermissionManager) SetState(ctx context.Context, deviceID, state string) error {
	if !models.ValidPermissionState(state) {
		return fmt.Errorf("invalid permission state: %s", state)
	}

	if err := m.redisClient.Set(ctx, m.stateKey(deviceID), state, 0).Err(); err != nil {
		return fmt.Errorf("failed to set permission state: %w", err)
	}

	m.logger.Info("Notification permission updated",
		zap.String("device_id", deviceID),
		zap.String("state", state),
	)

	return nil
}

// MarkRequested 记录已经向设备请求过授权（SETNX，返回是否为首次）
func (m *PermissionManager) MarkRequested(ctx context.Context, deviceID string) (bool, error) {
	first, err := m.redisClient.SetNX(ctx, m.requestedKey(deviceID), "1", 0).Result()
	if err != nil {
		return false, fmt.Errorf("failed to mark permission requested: %w", err)
	}
	return first, nil
}
