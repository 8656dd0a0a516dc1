package main

import (
	"fmt"
	"log"

	"goldwatch-alarm/common/database"
	"goldwatch-alarm/internal/config"

	_ "github.com/lib/pq"
)

// alarms 表结构：
// - is_triggered/triggered_at 记录单向触发迁移，展示状态由此推导
// - device_id 匿名设备标识，无用户表外键
const createAlarmsTableSQL = `
CREATE TABLE IF NOT EXISTS alarms (
    alarm_id     UUID PRIMARY KEY,
    device_id    VARCHAR(64)      NOT NULL,
    product_code VARCHAR(32)      NOT NULL,
    product_name VARCHAR(128)     NOT NULL,
    price_side   VARCHAR(8)       NOT NULL CHECK (price_side IN ('bid', 'ask')),
    condition    VARCHAR(16)      NOT NULL CHECK (condition IN ('at_or_above', 'at_or_below')),
    target_price DOUBLE PRECISION NOT NULL CHECK (target_price > 0),
    is_active    BOOLEAN          NOT NULL DEFAULT TRUE,
    is_triggered BOOLEAN          NOT NULL DEFAULT FALSE,
    triggered_at TIMESTAMPTZ,
    created_at   TIMESTAMPTZ      NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_alarms_device_id ON alarms (device_id, created_at DESC);
CREATE INDEX IF NOT EXISTS idx_alarms_active ON alarms (product_code) WHERE is_active = TRUE AND is_triggered = FALSE;
CREATE INDEX IF NOT EXISTS idx_alarms_triggered ON alarms (triggered_at DESC) WHERE is_triggered = TRUE;
`

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	db, err := database.NewPostgresDB(&cfg.Database)
	if err != nil {
		log.Fatalf("Cannot connect to database: %v", err)
	}
	defer db.Close()

	fmt.Printf("Connected to database: %s\n", cfg.Database.Database)

	if _, err := db.Exec(createAlarmsTableSQL); err != nil {
		log.Fatalf("Failed to create alarms table: %v", err)
	}

	fmt.Println("✅ alarms table created successfully!")
}
