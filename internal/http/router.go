package httpapi

import (
	"net/http"

	"go.uber.org/zap"
)

// Router 使用标准库 http.ServeMux（避免引入第三方路由依赖）
type Router struct {
	mux    *http.ServeMux
	logger *zap.Logger
}

func NewRouter(logger *zap.Logger) *Router {
	return &Router{
		mux:    http.NewServeMux(),
		logger: logger,
	}
}

func (r *Router) Handle(pattern string, h http.HandlerFunc) {
	r.mux.HandleFunc(pattern, h)
}

// HandleHandler 支持 http.Handler 接口（用于 pprof 等）
func (r *Router) HandleHandler(pattern string, h http.Handler) {
	r.mux.Handle(pattern, h)
}

func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.mux.ServeHTTP(w, req)
}

// RegisterAlarmRoutes 注册报警管理路由
func (r *Router) RegisterAlarmRoutes(h *AlarmHandler) {
	r.Handle("/data/api/v1/alarms", h.Collection)
	// DELETE /data/api/v1/alarms/{id}
	// 注意 /data/api/v1/alarms/triggered 由通知路由接管（ServeMux 最长前缀优先）
	r.Handle("/data/api/v1/alarms/", h.ByID)
}

// RegisterPriceRoutes 注册最新报价路由
func (r *Router) RegisterPriceRoutes(h *PriceHandler) {
	r.Handle("/data/api/v1/prices", h.Collection)
	r.Handle("/data/api/v1/prices/", h.ByCode)
}

// RegisterNotificationRoutes 注册通知路由（页内触发拉取 + 权限）
func (r *Router) RegisterNotificationRoutes(h *NotificationHandler) {
	r.Handle("/data/api/v1/alarms/triggered", h.GetTriggered)
	r.Handle("/data/api/v1/notifications/permission", h.Permission)
}

// RegisterAdminAlarmRoutes 注册管理后台路由
func (r *Router) RegisterAdminAlarmRoutes(h *AdminAlarmHandler) {
	r.Handle("/admin/api/v1/alarms/export", h.Export)
}
