package httpapi

import (
	"context"
	"net/http"

	"goldwatch-alarm/internal/models"

	"go.uber.org/zap"
)

// TriggeredReader 页内触发记录读取接口（由 notifier 实现）
type TriggeredReader interface {
	GetTriggered(ctx context.Context, deviceID string) ([]models.TriggerNotification, error)
}

// PermissionStore 系统通知权限读写接口（由 notifier.PermissionManager 实现）
type PermissionStore interface {
	GetState(ctx context.Context, deviceID string) (string, error)
	SetState(ctx context.Context, deviceID, state string) error
}

// NotificationHandler 通知相关 Handler（页内触发拉取 + 权限管理）
type NotificationHandler struct {
	triggered TriggeredReader
	perms     PermissionStore
	logger    *zap.Logger
}

// NewNotificationHandler 创建通知 Handler
func NewNotificationHandler(triggered TriggeredReader, perms PermissionStore, logger *zap.Logger) *NotificationHandler {
	return &NotificationHandler{
		triggered: triggered,
		perms:     perms,
		logger:    logger,
	}
}

// GetTriggered 处理 GET /data/api/v1/alarms/triggered
// 展示端轮询该接口获取页内触发提示
func (h *NotificationHandler) GetTriggered(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	deviceID, ok := deviceIDFromReq(w, r)
	if !ok {
		return
	}

	notifications, err := h.triggered.GetTriggered(r.Context(), deviceID)
	if err != nil {
		h.logger.Error("Failed to get triggered notifications",
			zap.Error(err),
			zap.String("device_id", deviceID),
		)
		writeJSON(w, http.StatusOK, Fail(err.Error()))
		return
	}

	writeJSON(w, http.StatusOK, Ok(map[string]any{
		"items": notifications,
		"total": len(notifications),
	}))
}

// Permission 处理 GET/PUT /data/api/v1/notifications/permission
func (h *NotificationHandler) Permission(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.getPermission(w, r)
	case http.MethodPut:
		h.setPermission(w, r)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (h *NotificationHandler) getPermission(w http.ResponseWriter, r *http.Request) {
	deviceID, ok := deviceIDFromReq(w, r)
	if !ok {
		return
	}

	state, err := h.perms.GetState(r.Context(), deviceID)
	if err != nil {
		h.logger.Error("Failed to get notification permission",
			zap.Error(err),
			zap.String("device_id", deviceID),
		)
		writeJSON(w, http.StatusOK, Fail(err.Error()))
		return
	}

	writeJSON(w, http.StatusOK, Ok(map[string]any{
		"state": state,
	}))
}

func (h *NotificationHandler) setPermission(w http.ResponseWriter, r *http.Request) {
	deviceID, ok := deviceIDFromReq(w, r)
	if !ok {
		return
	}

	var req struct {
		State string `json:"state"`
	}
	if err := readBodyJSON(r, 1<<16, &req); err != nil {
		writeJSON(w, http.StatusOK, Fail("invalid request body"))
		return
	}

	if err := h.perms.SetState(r.Context(), deviceID, req.State); err != nil {
		writeJSON(w, http.StatusOK, Fail(err.Error()))
		return
	}

	writeJSON(w, http.StatusOK, Ok(map[string]any{
		"state": req.State,
	}))
}
