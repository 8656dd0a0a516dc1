package repository

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"goldwatch-alarm/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func setupMockAlarmsDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock, *PostgresAlarmsRepo) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	logger := zap.NewNop()
	repo := NewPostgresAlarmsRepo(db, logger)

	return db, mock, repo
}

func alarmRowColumns() []string {
	return []string{
		"alarm_id", "device_id", "product_code", "product_name",
		"price_side", "condition", "target_price",
		"is_active", "is_triggered", "triggered_at", "created_at",
	}
}

func TestPostgresCreate_Success(t *testing.T) {
	db, mock, repo := setupMockAlarmsDB(t)
	defer db.Close()

	ctx := context.Background()

	mock.ExpectExec(`INSERT INTO alarms`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	alarm := &models.Alarm{
		DeviceID:    uuid.New().String(),
		ProductCode: "XAUUSD",
		ProductName: "Gold Spot",
		PriceSide:   models.PriceSideAsk,
		Condition:   models.ConditionAtOrBelow,
		TargetPrice: 2300.5,
	}

	err := repo.Create(ctx, alarm)

	require.NoError(t, err)
	assert.NotEmpty(t, alarm.AlarmID)
	assert.True(t, alarm.IsActive)
	assert.False(t, alarm.IsTriggered)
	assert.Nil(t, alarm.TriggeredAt)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresCreate_ValidationSkipsDB(t *testing.T) {
	db, mock, repo := setupMockAlarmsDB(t)
	defer db.Close()

	ctx := context.Background()

	alarm := &models.Alarm{
		DeviceID:    uuid.New().String(),
		ProductCode: "XAUUSD",
		ProductName: "Gold Spot",
		PriceSide:   models.PriceSideBid,
		Condition:   models.ConditionAtOrAbove,
		TargetPrice: -10,
	}

	err := repo.Create(ctx, alarm)

	// 校验失败不应触达数据库
	assert.ErrorIs(t, err, ErrInvalidAlarm)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresListByDevice_OrderedNewestFirst(t *testing.T) {
	db, mock, repo := setupMockAlarmsDB(t)
	defer db.Close()

	ctx := context.Background()
	deviceID := uuid.New().String()
	now := time.Now()

	rows := sqlmock.NewRows(alarmRowColumns()).
		AddRow(uuid.New().String(), deviceID, "XAUUSD", "Gold Spot",
			"bid", "at_or_above", 2400.0, true, false, nil, now).
		AddRow(uuid.New().String(), deviceID, "USDTRY", "US Dollar / Lira",
			"ask", "at_or_below", 32.5, true, false, nil, now.Add(-time.Hour))

	mock.ExpectQuery(`SELECT`).
		WithArgs(deviceID).
		WillReturnRows(rows)

	alarms, err := repo.ListByDevice(ctx, deviceID)

	require.NoError(t, err)
	require.Len(t, alarms, 2)
	assert.Equal(t, "XAUUSD", alarms[0].ProductCode)
	assert.Equal(t, "USDTRY", alarms[1].ProductCode)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresListByDevice_Empty(t *testing.T) {
	db, mock, repo := setupMockAlarmsDB(t)
	defer db.Close()

	ctx := context.Background()
	deviceID := uuid.New().String()

	mock.ExpectQuery(`SELECT`).
		WithArgs(deviceID).
		WillReturnRows(sqlmock.NewRows(alarmRowColumns()))

	alarms, err := repo.ListByDevice(ctx, deviceID)

	require.NoError(t, err)
	assert.Empty(t, alarms)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresDelete_Success(t *testing.T) {
	db, mock, repo := setupMockAlarmsDB(t)
	defer db.Close()

	ctx := context.Background()
	alarmID := uuid.New().String()

	mock.ExpectExec(`DELETE FROM alarms`).
		WithArgs(alarmID).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.Delete(ctx, alarmID)

	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresDelete_NotFound(t *testing.T) {
	db, mock, repo := setupMockAlarmsDB(t)
	defer db.Close()

	ctx := context.Background()
	alarmID := uuid.New().String()

	mock.ExpectExec(`DELETE FROM alarms`).
		WithArgs(alarmID).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Delete(ctx, alarmID)

	assert.ErrorIs(t, err, ErrAlarmNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresMarkTriggered_FirstTransition(t *testing.T) {
	db, mock, repo := setupMockAlarmsDB(t)
	defer db.Close()

	ctx := context.Background()
	alarmID := uuid.New().String()
	deviceID := uuid.New().String()
	at := time.Now()

	mock.ExpectExec(`UPDATE alarms`).
		WithArgs(alarmID, at).
		WillReturnResult(sqlmock.NewResult(0, 1))

	rows := sqlmock.NewRows(alarmRowColumns()).
		AddRow(alarmID, deviceID, "XAUUSD", "Gold Spot",
			"bid", "at_or_above", 2400.0, true, true, at, at.Add(-time.Hour))

	mock.ExpectQuery(`SELECT`).
		WithArgs(alarmID).
		WillReturnRows(rows)

	alarm, err := repo.MarkTriggered(ctx, alarmID, at)

	require.NoError(t, err)
	assert.True(t, alarm.IsTriggered)
	require.NotNil(t, alarm.TriggeredAt)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresMarkTriggered_AlreadyTriggered(t *testing.T) {
	db, mock, repo := setupMockAlarmsDB(t)
	defer db.Close()

	ctx := context.Background()
	alarmID := uuid.New().String()
	deviceID := uuid.New().String()
	firstAt := time.Now().Add(-time.Minute)

	// 条件更新不命中（已触发）
	mock.ExpectExec(`UPDATE alarms`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	rows := sqlmock.NewRows(alarmRowColumns()).
		AddRow(alarmID, deviceID, "XAUUSD", "Gold Spot",
			"bid", "at_or_above", 2400.0, true, true, firstAt, firstAt.Add(-time.Hour))

	mock.ExpectQuery(`SELECT`).
		WithArgs(alarmID).
		WillReturnRows(rows)

	alarm, err := repo.MarkTriggered(ctx, alarmID, time.Now())

	// 幂等：返回首次触发的时间
	require.NoError(t, err)
	assert.True(t, alarm.IsTriggered)
	require.NotNil(t, alarm.TriggeredAt)
	assert.WithinDuration(t, firstAt, *alarm.TriggeredAt, time.Second)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresMarkTriggered_DeletedAlarm(t *testing.T) {
	db, mock, repo := setupMockAlarmsDB(t)
	defer db.Close()

	ctx := context.Background()
	alarmID := uuid.New().String()

	mock.ExpectExec(`UPDATE alarms`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	mock.ExpectQuery(`SELECT`).
		WithArgs(alarmID).
		WillReturnError(sql.ErrNoRows)

	alarm, err := repo.MarkTriggered(ctx, alarmID, time.Now())

	// delete wins：并发删除后触发请求是 no-op
	assert.ErrorIs(t, err, ErrAlarmNotFound)
	assert.Nil(t, alarm)

	require.NoError(t, mock.ExpectationsWereMet())
}
