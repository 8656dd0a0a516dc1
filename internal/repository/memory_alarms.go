package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"goldwatch-alarm/internal/models"

	"github.com/google/uuid"
)

// MemoryAlarmsRepo 报警仓库的内存实现
// DB 未就绪时的联调退路，同时用于单元测试（重启后数据丢失）
type MemoryAlarmsRepo struct {
	mu     sync.RWMutex
	alarms map[string]models.Alarm // alarm_id -> Alarm
}

// NewMemoryAlarmsRepo 创建内存报警仓库
func NewMemoryAlarmsRepo() *MemoryAlarmsRepo {
	return &MemoryAlarmsRepo{
		alarms: make(map[string]models.Alarm),
	}
}

// ListByDevice 查询某设备的全部报警（按创建时间倒序）
func (r *MemoryAlarmsRepo) ListByDevice(ctx context.Context, deviceID string) ([]models.Alarm, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]models.Alarm, 0)
	for _, alarm := range r.alarms {
		if alarm.DeviceID == deviceID {
			out = append(out, alarm)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

// ListActive 查询所有 active 且未触发的报警
func (r *MemoryAlarmsRepo) ListActive(ctx context.Context) ([]models.Alarm, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]models.Alarm, 0)
	for _, alarm := range r.alarms {
		if alarm.IsActive && !alarm.IsTriggered {
			out = append(out, alarm)
		}
	}
	return out, nil
}

// ListTriggered 查询所有已触发的报警（按触发时间倒序）
func (r *MemoryAlarmsRepo) ListTriggered(ctx context.Context) ([]models.Alarm, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]models.Alarm, 0)
	for _, alarm := range r.alarms {
		if alarm.IsTriggered {
			out = append(out, alarm)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		ti, tj := out[i].TriggeredAt, out[j].TriggeredAt
		if ti == nil || tj == nil {
			return tj == nil
		}
		return ti.After(*tj)
	})
	return out, nil
}

// Create 创建报警
func (r *MemoryAlarmsRepo) Create(ctx context.Context, alarm *models.Alarm) error {
	if err := validateNewAlarm(alarm); err != nil {
		return err
	}

	alarm.AlarmID = uuid.New().String()
	alarm.IsActive = true
	alarm.IsTriggered = false
	alarm.TriggeredAt = nil
	alarm.CreatedAt = time.Now()

	r.mu.Lock()
	defer r.mu.Unlock()
	r.alarms[alarm.AlarmID] = *alarm
	return nil
}

// Delete 删除报警
func (r *MemoryAlarmsRepo) Delete(ctx context.Context, alarmID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.alarms[alarmID]; !ok {
		return ErrAlarmNotFound
	}
	delete(r.alarms, alarmID)
	return nil
}

// MarkTriggered 单向幂等触发迁移（已触发时原样返回，已删除时 ErrAlarmNotFound）
func (r *MemoryAlarmsRepo) MarkTriggered(ctx context.Context, alarmID string, at time.Time) (*models.Alarm, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	alarm, ok := r.alarms[alarmID]
	if !ok {
		return nil, ErrAlarmNotFound
	}

	if !alarm.IsTriggered {
		triggeredAt := at
		alarm.IsTriggered = true
		alarm.TriggeredAt = &triggeredAt
		r.alarms[alarmID] = alarm
	}

	out := alarm
	return &out, nil
}
