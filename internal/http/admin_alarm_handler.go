package httpapi

import (
	"fmt"
	"net/http"
	"time"

	"goldwatch-alarm/internal/repository"

	"go.uber.org/zap"
)

// AdminAlarmHandler 管理后台报警 Handler
type AdminAlarmHandler struct {
	alarmsRepo repository.AlarmsRepo
	logger     *zap.Logger
}

// NewAdminAlarmHandler 创建管理后台报警 Handler
func NewAdminAlarmHandler(alarmsRepo repository.AlarmsRepo, logger *zap.Logger) *AdminAlarmHandler {
	return &AdminAlarmHandler{
		alarmsRepo: alarmsRepo,
		logger:     logger,
	}
}

// Export 处理 GET /admin/api/v1/alarms/export
// 导出全部已触发报警为 Excel 文件
func (h *AdminAlarmHandler) Export(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	alarms, err := h.alarmsRepo.ListTriggered(r.Context())
	if err != nil {
		h.logger.Error("Failed to list triggered alarms for export",
			zap.Error(err),
		)
		writeJSON(w, http.StatusOK, Fail(err.Error()))
		return
	}

	data, err := GenerateAlarmExport(alarms)
	if err != nil {
		h.logger.Error("Failed to generate alarm export",
			zap.Error(err),
		)
		writeJSON(w, http.StatusOK, Fail(err.Error()))
		return
	}

	filename := fmt.Sprintf("triggered-alarms-%s.xlsx", time.Now().Format("20060102-150405"))
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}
