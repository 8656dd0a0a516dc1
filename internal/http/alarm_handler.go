package httpapi

import (
	"errors"
	"net/http"
	"strings"

	"goldwatch-alarm/internal/models"
	"goldwatch-alarm/internal/repository"

	"go.uber.org/zap"
)

// AlarmHandler 报警管理 Handler
type AlarmHandler struct {
	alarmsRepo repository.AlarmsRepo
	logger     *zap.Logger
}

// NewAlarmHandler 创建报警 Handler
func NewAlarmHandler(alarmsRepo repository.AlarmsRepo, logger *zap.Logger) *AlarmHandler {
	return &AlarmHandler{
		alarmsRepo: alarmsRepo,
		logger:     logger,
	}
}

// createAlarmRequest 创建报警请求体
type createAlarmRequest struct {
	ProductCode string  `json:"product_code"`
	ProductName string  `json:"product_name"`
	PriceSide   string  `json:"price_side"`
	Condition   string  `json:"condition"`
	TargetPrice float64 `json:"target_price"`
}

// Collection 处理 GET/POST /data/api/v1/alarms
func (h *AlarmHandler) Collection(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.ListAlarms(w, r)
	case http.MethodPost:
		h.CreateAlarm(w, r)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

// ByID 处理 DELETE /data/api/v1/alarms/{id}
func (h *AlarmHandler) ByID(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/data/api/v1/alarms/")
	if id == "" || strings.Contains(id, "/") {
		w.WriteHeader(http.StatusNotFound)
		return
	}

	if r.Method != http.MethodDelete {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	h.DeleteAlarm(w, r, id)
}

// ListAlarms 查询设备的全部报警（按创建时间倒序）
func (h *AlarmHandler) ListAlarms(w http.ResponseWriter, r *http.Request) {
	deviceID, ok := deviceIDFromReq(w, r)
	if !ok {
		return
	}

	alarms, err := h.alarmsRepo.ListByDevice(r.Context(), deviceID)
	if err != nil {
		h.logger.Error("Failed to list alarms",
			zap.Error(err),
			zap.String("device_id", deviceID),
		)
		writeJSON(w, http.StatusOK, Fail(err.Error()))
		return
	}

	writeJSON(w, http.StatusOK, Ok(map[string]any{
		"items": alarms,
		"total": len(alarms),
	}))
}

// CreateAlarm 创建报警
func (h *AlarmHandler) CreateAlarm(w http.ResponseWriter, r *http.Request) {
	deviceID, ok := deviceIDFromReq(w, r)
	if !ok {
		return
	}

	var req createAlarmRequest
	if err := readBodyJSON(r, 1<<20, &req); err != nil {
		writeJSON(w, http.StatusOK, Fail("invalid request body"))
		return
	}

	alarm := &models.Alarm{
		DeviceID:    deviceID,
		ProductCode: req.ProductCode,
		ProductName: req.ProductName,
		PriceSide:   req.PriceSide,
		Condition:   req.Condition,
		TargetPrice: req.TargetPrice,
	}

	if err := h.alarmsRepo.Create(r.Context(), alarm); err != nil {
		if errors.Is(err, repository.ErrInvalidAlarm) {
			writeJSON(w, http.StatusOK, Fail(err.Error()))
			return
		}
		h.logger.Error("Failed to create alarm",
			zap.Error(err),
			zap.String("device_id", deviceID),
		)
		writeJSON(w, http.StatusOK, Fail(err.Error()))
		return
	}

	h.logger.Info("Alarm created",
		zap.String("alarm_id", alarm.AlarmID),
		zap.String("device_id", deviceID),
		zap.String("product_code", alarm.ProductCode),
	)

	writeJSON(w, http.StatusOK, Ok(alarm))
}

// DeleteAlarm 删除报警
// 报警已不存在时同样按成功返回（删除是幂等操作）
func (h *AlarmHandler) DeleteAlarm(w http.ResponseWriter, r *http.Request, alarmID string) {
	if _, ok := deviceIDFromReq(w, r); !ok {
		return
	}

	if err := h.alarmsRepo.Delete(r.Context(), alarmID); err != nil {
		if !errors.Is(err, repository.ErrAlarmNotFound) {
			h.logger.Error("Failed to delete alarm",
				zap.Error(err),
				zap.String("alarm_id", alarmID),
			)
			writeJSON(w, http.StatusOK, Fail(err.Error()))
			return
		}
	}

	writeJSON(w, http.StatusOK, Ok(map[string]any{
		"alarm_id": alarmID,
	}))
}
