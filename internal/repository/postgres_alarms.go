package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"goldwatch-alarm/internal/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// PostgresAlarmsRepo 报警仓库的 PostgreSQL 实现
type PostgresAlarmsRepo struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewPostgresAlarmsRepo 创建报警仓库
func NewPostgresAlarmsRepo(db *sql.DB, logger *zap.Logger) *PostgresAlarmsRepo {
	return &PostgresAlarmsRepo{
		db:     db,
		logger: logger,
	}
}

const alarmColumns = `
	alarm_id,
	device_id,
	product_code,
	product_name,
	price_side,
	condition,
	target_price,
	is_active,
	is_triggered,
	triggered_at,
	created_at
`

// scanAlarm 扫描单行报警记录
func scanAlarm(row interface{ Scan(...any) error }) (*models.Alarm, error) {
	var alarm models.Alarm
	var triggeredAt sql.NullTime

	err := row.Scan(
		&alarm.AlarmID,
		&alarm.DeviceID,
		&alarm.ProductCode,
		&alarm.ProductName,
		&alarm.PriceSide,
		&alarm.Condition,
		&alarm.TargetPrice,
		&alarm.IsActive,
		&alarm.IsTriggered,
		&triggeredAt,
		&alarm.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if triggeredAt.Valid {
		alarm.TriggeredAt = &triggeredAt.Time
	}

	return &alarm, nil
}

// queryAlarms 执行查询并扫描多行
func (r *PostgresAlarmsRepo) queryAlarms(ctx context.Context, query string, args ...any) ([]models.Alarm, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query alarms: %w", err)
	}
	defer rows.Close()

	alarms := make([]models.Alarm, 0)
	for rows.Next() {
		alarm, err := scanAlarm(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan alarm: %w", err)
		}
		alarms = append(alarms, *alarm)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate alarms: %w", err)
	}

	return alarms, nil
}

// ListByDevice 查询某设备的全部报警（按创建时间倒序）
func (r *PostgresAlarmsRepo) ListByDevice(ctx context.Context, deviceID string) ([]models.Alarm, error) {
	if deviceID == "" {
		return nil, fmt.Errorf("device_id is required")
	}

	query := `
		SELECT ` + alarmColumns + `
		FROM alarms
		WHERE device_id = $1
		ORDER BY created_at DESC
	`
	return r.queryAlarms(ctx, query, deviceID)
}

// ListActive 查询所有 active 且未触发的报警
func (r *PostgresAlarmsRepo) ListActive(ctx context.Context) ([]models.Alarm, error) {
	query := `
		SELECT ` + alarmColumns + `
		FROM alarms
		WHERE is_active = TRUE
		  AND is_triggered = FALSE
	`
	return r.queryAlarms(ctx, query)
}

// ListTriggered 查询所有已触发的报警（按触发时间倒序）
func (r *PostgresAlarmsRepo) ListTriggered(ctx context.Context) ([]models.Alarm, error) {
	query := `
		SELECT ` + alarmColumns + `
		FROM alarms
		WHERE is_triggered = TRUE
		ORDER BY triggered_at DESC
	`
	return r.queryAlarms(ctx, query)
}

// Create 创建报警
func (r *PostgresAlarmsRepo) Create(ctx context.Context, alarm *models.Alarm) error {
	if err := validateNewAlarm(alarm); err != nil {
		return err
	}

	alarm.AlarmID = uuid.New().String()
	alarm.IsActive = true
	alarm.IsTriggered = false
	alarm.TriggeredAt = nil
	alarm.CreatedAt = time.Now()

	query := `
		INSERT INTO alarms (
			alarm_id, device_id, product_code, product_name,
			price_side, condition, target_price,
			is_active, is_triggered, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err := r.db.ExecContext(ctx, query,
		alarm.AlarmID,
		alarm.DeviceID,
		alarm.ProductCode,
		alarm.ProductName,
		alarm.PriceSide,
		alarm.Condition,
		alarm.TargetPrice,
		alarm.IsActive,
		alarm.IsTriggered,
		alarm.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create alarm: %w", err)
	}

	r.logger.Info("Alarm created",
		zap.String("alarm_id", alarm.AlarmID),
		zap.String("device_id", alarm.DeviceID),
		zap.String("product_code", alarm.ProductCode),
		zap.Float64("target_price", alarm.TargetPrice),
	)

	return nil
}

// Delete 删除报警（物理删除）
func (r *PostgresAlarmsRepo) Delete(ctx context.Context, alarmID string) error {
	if alarmID == "" {
		return fmt.Errorf("alarm_id is required")
	}

	result, err := r.db.ExecContext(ctx, `DELETE FROM alarms WHERE alarm_id = $1`, alarmID)
	if err != nil {
		return fmt.Errorf("failed to delete alarm: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return ErrAlarmNotFound
	}

	r.logger.Info("Alarm deleted",
		zap.String("alarm_id", alarmID),
	)

	return nil
}

// MarkTriggered 单向幂等触发迁移
// 条件更新保证并发调用只有一次能写入 triggered_at；
// 与并发 Delete 竞争时删除获胜（返回 ErrAlarmNotFound）
func (r *PostgresAlarmsRepo) MarkTriggered(ctx context.Context, alarmID string, at time.Time) (*models.Alarm, error) {
	if alarmID == "" {
		return nil, fmt.Errorf("alarm_id is required")
	}

	query := `
		UPDATE alarms
		SET is_triggered = TRUE,
		    triggered_at = $2
		WHERE alarm_id = $1
		  AND is_triggered = FALSE
	`

	result, err := r.db.ExecContext(ctx, query, alarmID, at)
	if err != nil {
		return nil, fmt.Errorf("failed to mark alarm triggered: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to get rows affected: %w", err)
	}

	// 统一回读当前状态：0 行说明已触发（幂等返回现状）或已被删除
	alarm, getErr := r.getAlarm(ctx, alarmID)
	if getErr != nil {
		if getErr == sql.ErrNoRows {
			return nil, ErrAlarmNotFound
		}
		return nil, getErr
	}

	if affected > 0 {
		r.logger.Info("Alarm triggered",
			zap.String("alarm_id", alarmID),
			zap.String("product_code", alarm.ProductCode),
			zap.Time("triggered_at", at),
		)
	}

	return alarm, nil
}

// getAlarm 读取单条报警
func (r *PostgresAlarmsRepo) getAlarm(ctx context.Context, alarmID string) (*models.Alarm, error) {
	query := `
		SELECT ` + alarmColumns + `
		FROM alarms
		WHERE alarm_id = $1
	`
	alarm, err := scanAlarm(r.db.QueryRowContext(ctx, query, alarmID))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, sql.ErrNoRows
		}
		return nil, fmt.Errorf("failed to get alarm: %w", err)
	}
	return alarm, nil
}
