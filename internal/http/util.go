package httpapi

import (
	"encoding/json"
	"io"
	"net/http"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func readBodyJSON(r *http.Request, maxBytes int64, out any) error {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBytes))
	if err != nil {
		return err
	}
	if len(body) == 0 {
		return nil
	}
	return json.Unmarshal(body, out)
}

// deviceIDFromReq 提取设备 ID（展示端匿名身份，见 X-Device-Id 约定）
func deviceIDFromReq(w http.ResponseWriter, r *http.Request) (string, bool) {
	if did := r.Header.Get("X-Device-Id"); did != "" && did != "null" {
		return did, true
	}
	if did := r.URL.Query().Get("device_id"); did != "" && did != "null" {
		return did, true
	}
	writeJSON(w, http.StatusOK, Fail("device_id is required"))
	return "", false
}
