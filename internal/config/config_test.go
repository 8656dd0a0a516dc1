package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_DefaultValues(t *testing.T) {
	os.Clearenv()

	cfg, err := Load()
	require.NoError(t, err)
	assert.NotNil(t, cfg)

	// 验证默认值
	assert.Equal(t, "localhost", cfg.Database.Host)
	assert.Equal(t, 5432, cfg.Database.Port)
	assert.Equal(t, "goldwatch", cfg.Database.Database)
	assert.Equal(t, "disable", cfg.Database.SSLMode)
	assert.True(t, cfg.DBEnabled)

	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
	assert.Equal(t, "", cfg.Redis.Password)

	assert.Equal(t, ":8090", cfg.HTTP.Addr)

	assert.Equal(t, "http://localhost:9000", cfg.Feed.BaseURL)
	assert.Equal(t, "/api/prices", cfg.Feed.PricesPath)
	assert.Equal(t, 5, cfg.Feed.PollInterval)
	assert.Equal(t, "gold:price:", cfg.Feed.Cache.KeyPrefix)
	assert.Equal(t, ":latest", cfg.Feed.Cache.Suffix)
	assert.Equal(t, 60, cfg.Feed.Cache.TTL)
	assert.Equal(t, "price:ticks", cfg.Feed.Stream)

	assert.Equal(t, "events", cfg.Alarm.TriggerMode)
	assert.Equal(t, 5, cfg.Alarm.PollInterval)
	assert.Equal(t, "goldwatch-alarm-group", cfg.Alarm.ConsumerGroup)
	assert.Equal(t, 10, cfg.Alarm.BatchSize)
	assert.Equal(t, "gold:device:", cfg.Alarm.TriggeredCache.KeyPrefix)
	assert.Equal(t, ":triggered", cfg.Alarm.TriggeredCache.Suffix)

	assert.Equal(t, "goldwatch/notify/", cfg.Notify.TopicPrefix)
	assert.Equal(t, "gold:notify:perm:", cfg.Notify.PermKeyPrefix)

	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoad_EnvironmentVariables(t *testing.T) {
	os.Setenv("DB_HOST", "test-host")
	os.Setenv("DB_NAME", "test-db")
	os.Setenv("DB_ENABLED", "false")
	os.Setenv("REDIS_ADDR", "test-redis:6380")
	os.Setenv("FEED_BASE_URL", "https://feed.example.com")
	os.Setenv("FEED_POLL_INTERVAL", "30")
	os.Setenv("ALARM_TRIGGER_MODE", "polling")
	os.Setenv("MQTT_BROKER", "tcp://broker:1883")
	os.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load()
	require.NoError(t, err)
	assert.NotNil(t, cfg)

	// 验证环境变量覆盖
	assert.Equal(t, "test-host", cfg.Database.Host)
	assert.Equal(t, "test-db", cfg.Database.Database)
	assert.False(t, cfg.DBEnabled)
	assert.Equal(t, "test-redis:6380", cfg.Redis.Addr)
	assert.Equal(t, "https://feed.example.com", cfg.Feed.BaseURL)
	assert.Equal(t, 30, cfg.Feed.PollInterval)
	assert.Equal(t, "polling", cfg.Alarm.TriggerMode)
	assert.Equal(t, "tcp://broker:1883", cfg.MQTT.Broker)
	assert.Equal(t, "debug", cfg.Log.Level)

	os.Clearenv()
}

func TestGetEnvInt(t *testing.T) {
	os.Clearenv()
	assert.Equal(t, 5, getEnvInt("TEST_INT", 5))

	os.Setenv("TEST_INT", "42")
	assert.Equal(t, 42, getEnvInt("TEST_INT", 5))

	// 非法值回退默认值
	os.Setenv("TEST_INT", "not-a-number")
	assert.Equal(t, 5, getEnvInt("TEST_INT", 5))

	os.Unsetenv("TEST_INT")
}
