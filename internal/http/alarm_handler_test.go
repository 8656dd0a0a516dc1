package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"goldwatch-alarm/internal/models"
	"goldwatch-alarm/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func setupAlarmRouter(t *testing.T) (*Router, *repository.MemoryAlarmsRepo) {
	t.Helper()
	repo := repository.NewMemoryAlarmsRepo()
	router := NewRouter(zap.NewNop())
	router.RegisterAlarmRoutes(NewAlarmHandler(repo, zap.NewNop()))
	return router, repo
}

func doJSON(t *testing.T, router *Router, method, path, deviceID string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reqBody *bytes.Buffer
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reqBody = bytes.NewBuffer(data)
	} else {
		reqBody = bytes.NewBuffer(nil)
	}

	req := httptest.NewRequest(method, path, reqBody)
	if deviceID != "" {
		req.Header.Set("X-Device-Id", deviceID)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decodeResult(t *testing.T, rec *httptest.ResponseRecorder) Result[json.RawMessage] {
	t.Helper()
	var result Result[json.RawMessage]
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	return result
}

func TestAlarmHandler_CreateAndList(t *testing.T) {
	router, _ := setupAlarmRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/data/api/v1/alarms", "device-1", map[string]any{
		"product_code": "XAUUSD",
		"product_name": "Gold Spot",
		"price_side":   "bid",
		"condition":    "at_or_above",
		"target_price": 2500.0,
	})

	require.Equal(t, http.StatusOK, rec.Code)
	result := decodeResult(t, rec)
	require.Equal(t, ResultSuccess, result.Code)

	var created models.Alarm
	require.NoError(t, json.Unmarshal(result.Result, &created))
	assert.NotEmpty(t, created.AlarmID)
	assert.Equal(t, "device-1", created.DeviceID)
	assert.True(t, created.IsActive)
	assert.False(t, created.IsTriggered)

	rec = doJSON(t, router, http.MethodGet, "/data/api/v1/alarms", "device-1", nil)
	result = decodeResult(t, rec)
	require.Equal(t, ResultSuccess, result.Code)

	var list struct {
		Items []models.Alarm `json:"items"`
		Total int            `json:"total"`
	}
	require.NoError(t, json.Unmarshal(result.Result, &list))
	assert.Equal(t, 1, list.Total)
	assert.Equal(t, created.AlarmID, list.Items[0].AlarmID)
}

func TestAlarmHandler_ListNewestFirst(t *testing.T) {
	router, repo := setupAlarmRouter(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		alarm := &models.Alarm{
			DeviceID:    "device-1",
			ProductCode: fmt.Sprintf("CODE%d", i),
			ProductName: "Product",
			PriceSide:   models.PriceSideBid,
			Condition:   models.ConditionAtOrAbove,
			TargetPrice: 100,
		}
		require.NoError(t, repo.Create(ctx, alarm))
		time.Sleep(time.Millisecond)
	}

	rec := doJSON(t, router, http.MethodGet, "/data/api/v1/alarms", "device-1", nil)
	result := decodeResult(t, rec)

	var list struct {
		Items []models.Alarm `json:"items"`
	}
	require.NoError(t, json.Unmarshal(result.Result, &list))
	require.Len(t, list.Items, 3)
	// 按创建时间倒序
	assert.Equal(t, "CODE2", list.Items[0].ProductCode)
	assert.Equal(t, "CODE0", list.Items[2].ProductCode)
}

func TestAlarmHandler_DeviceIsolation(t *testing.T) {
	router, _ := setupAlarmRouter(t)

	doJSON(t, router, http.MethodPost, "/data/api/v1/alarms", "device-1", map[string]any{
		"product_code": "XAUUSD",
		"product_name": "Gold Spot",
		"price_side":   "bid",
		"condition":    "at_or_above",
		"target_price": 2500.0,
	})

	rec := doJSON(t, router, http.MethodGet, "/data/api/v1/alarms", "device-2", nil)
	result := decodeResult(t, rec)
	require.Equal(t, ResultSuccess, result.Code)

	var list struct {
		Items []models.Alarm `json:"items"`
		Total int            `json:"total"`
	}
	require.NoError(t, json.Unmarshal(result.Result, &list))
	assert.Equal(t, 0, list.Total)
}

func TestAlarmHandler_CreateValidation(t *testing.T) {
	router, _ := setupAlarmRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/data/api/v1/alarms", "device-1", map[string]any{
		"product_code": "XAUUSD",
		"product_name": "Gold Spot",
		"price_side":   "mid", // 非法
		"condition":    "at_or_above",
		"target_price": 2500.0,
	})

	result := decodeResult(t, rec)
	assert.Equal(t, ResultError, result.Code)
	assert.Contains(t, result.Message, "price_side")
}

func TestAlarmHandler_MissingDeviceID(t *testing.T) {
	router, _ := setupAlarmRouter(t)

	rec := doJSON(t, router, http.MethodGet, "/data/api/v1/alarms", "", nil)

	result := decodeResult(t, rec)
	assert.Equal(t, ResultError, result.Code)
	assert.Contains(t, result.Message, "device_id")
}

func TestAlarmHandler_Delete(t *testing.T) {
	router, repo := setupAlarmRouter(t)
	ctx := context.Background()

	alarm := &models.Alarm{
		DeviceID:    "device-1",
		ProductCode: "XAUUSD",
		ProductName: "Gold Spot",
		PriceSide:   models.PriceSideBid,
		Condition:   models.ConditionAtOrAbove,
		TargetPrice: 2500,
	}
	require.NoError(t, repo.Create(ctx, alarm))

	rec := doJSON(t, router, http.MethodDelete, "/data/api/v1/alarms/"+alarm.AlarmID, "device-1", nil)
	result := decodeResult(t, rec)
	assert.Equal(t, ResultSuccess, result.Code)

	alarms, err := repo.ListByDevice(ctx, "device-1")
	require.NoError(t, err)
	assert.Empty(t, alarms)
}

func TestAlarmHandler_DeleteMissingIsSuccess(t *testing.T) {
	router, _ := setupAlarmRouter(t)

	// 删除不存在的报警也按成功返回（幂等）
	rec := doJSON(t, router, http.MethodDelete, "/data/api/v1/alarms/no-such-alarm", "device-1", nil)

	result := decodeResult(t, rec)
	assert.Equal(t, ResultSuccess, result.Code)
}

func TestAlarmHandler_MethodNotAllowed(t *testing.T) {
	router, _ := setupAlarmRouter(t)

	rec := doJSON(t, router, http.MethodPut, "/data/api/v1/alarms", "device-1", nil)

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
