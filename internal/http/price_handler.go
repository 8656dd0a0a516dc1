package httpapi

import (
	"net/http"
	"strings"

	"goldwatch-alarm/internal/feed"

	"go.uber.org/zap"
)

// PriceHandler 最新报价 Handler（展示端价格表数据源）
type PriceHandler struct {
	cache  *feed.PriceCache
	logger *zap.Logger
}

// NewPriceHandler 创建报价 Handler
func NewPriceHandler(cache *feed.PriceCache, logger *zap.Logger) *PriceHandler {
	return &PriceHandler{
		cache:  cache,
		logger: logger,
	}
}

// Collection 处理 GET /data/api/v1/prices
func (h *PriceHandler) Collection(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ticks, err := h.cache.GetLatestBatch(r.Context())
	if err != nil {
		h.logger.Error("Failed to get latest prices",
			zap.Error(err),
		)
		writeJSON(w, http.StatusOK, Fail(err.Error()))
		return
	}

	writeJSON(w, http.StatusOK, Ok(map[string]any{
		"items": ticks,
		"total": len(ticks),
	}))
}

// ByCode 处理 GET /data/api/v1/prices/{code}
func (h *PriceHandler) ByCode(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	code := strings.TrimPrefix(r.URL.Path, "/data/api/v1/prices/")
	if code == "" || strings.Contains(code, "/") {
		w.WriteHeader(http.StatusNotFound)
		return
	}

	tick, err := h.cache.GetTick(r.Context(), code)
	if err != nil {
		writeJSON(w, http.StatusOK, Fail(err.Error()))
		return
	}

	writeJSON(w, http.StatusOK, Ok(tick))
}
