package config

import (
	"os"
	"strconv"

	"goldwatch-alarm/common/config"
)

// Config 价格报警服务配置
type Config struct {
	Database config.DatabaseConfig
	Redis    config.RedisConfig
	MQTT     config.MQTTConfig

	// 是否启用 PostgreSQL（false 时退化为内存仓库，仅用于联调）
	DBEnabled bool

	HTTP struct {
		Addr string
	}

	// 上游行情接口配置
	Feed struct {
		BaseURL      string // 上游行情 API 基地址
		PricesPath   string // 行情批量接口路径
		PollInterval int    // 行情拉取间隔（秒），默认 5秒

		// 最新报价缓存
		Cache struct {
			KeyPrefix string // 如 "gold:price:"
			Suffix    string // 如 ":latest"
			TTL       int    // 报价缓存 TTL（秒），默认 60秒
		}

		Stream string // 行情事件流名称，如 "price:ticks"
	}

	// 报警评估配置
	Alarm struct {
		// 触发方式：events（Redis Streams 消费）或 polling（轮询最新报价缓存）
		TriggerMode   string
		PollInterval  int    // polling 模式的轮询间隔（秒），默认 5秒
		ConsumerGroup string // events 模式的消费者组
		ConsumerName  string // events 模式的消费者名称
		BatchSize     int    // 每次读取的消息数量，默认 10

		// 已触发报警缓存（页内通知通道）
		TriggeredCache struct {
			KeyPrefix string // 如 "gold:device:"
			Suffix    string // 如 ":triggered"
			TTL       int    // TTL（秒），默认 300秒
		}
	}

	// 通知配置
	Notify struct {
		TopicPrefix   string // MQTT 通知主题前缀，如 "goldwatch/notify/"
		PermKeyPrefix string // 权限状态键前缀，如 "gold:notify:perm:"
	}

	Log struct {
		Level  string
		Format string
	}
}

// Load 加载配置
func Load() (*Config, error) {
	cfg := &Config{}

	// 从环境变量加载（默认值）
	cfg.Database.Host = getEnv("DB_HOST", "localhost")
	cfg.Database.Port = getEnvInt("DB_PORT", 5432)
	cfg.Database.User = getEnv("DB_USER", "postgres")
	cfg.Database.Password = getEnv("DB_PASSWORD", "postgres")
	cfg.Database.Database = getEnv("DB_NAME", "goldwatch")
	cfg.Database.SSLMode = getEnv("DB_SSLMODE", "disable")
	cfg.DBEnabled = getEnv("DB_ENABLED", "true") == "true"

	cfg.Redis.Addr = getEnv("REDIS_ADDR", "localhost:6379")
	cfg.Redis.Password = getEnv("REDIS_PASSWORD", "")
	cfg.Redis.DB = 0

	// MQTT 为可选依赖：Broker 为空时系统通知通道关闭，页内通道仍然可用
	cfg.MQTT.Broker = getEnv("MQTT_BROKER", "")
	cfg.MQTT.ClientID = getEnv("MQTT_CLIENT_ID", "goldwatch-alarm")
	cfg.MQTT.Username = getEnv("MQTT_USERNAME", "")
	cfg.MQTT.Password = getEnv("MQTT_PASSWORD", "")
	cfg.MQTT.QoS = 1

	cfg.HTTP.Addr = getEnv("HTTP_ADDR", ":8090")

	// 行情配置
	cfg.Feed.BaseURL = getEnv("FEED_BASE_URL", "http://localhost:9000")
	cfg.Feed.PricesPath = getEnv("FEED_PRICES_PATH", "/api/prices")
	cfg.Feed.PollInterval = getEnvInt("FEED_POLL_INTERVAL", 5)
	cfg.Feed.Cache.KeyPrefix = getEnv("FEED_CACHE_PREFIX", "gold:price:")
	cfg.Feed.Cache.Suffix = ":latest"
	cfg.Feed.Cache.TTL = getEnvInt("FEED_CACHE_TTL", 60)
	cfg.Feed.Stream = getEnv("FEED_STREAM", "price:ticks")

	// 报警评估配置
	cfg.Alarm.TriggerMode = getEnv("ALARM_TRIGGER_MODE", "events")
	cfg.Alarm.PollInterval = getEnvInt("ALARM_POLL_INTERVAL", 5)
	cfg.Alarm.ConsumerGroup = getEnv("ALARM_CONSUMER_GROUP", "goldwatch-alarm-group")
	cfg.Alarm.ConsumerName = getEnv("ALARM_CONSUMER_NAME", "goldwatch-alarm-1")
	cfg.Alarm.BatchSize = 10
	cfg.Alarm.TriggeredCache.KeyPrefix = getEnv("ALARM_TRIGGERED_PREFIX", "gold:device:")
	cfg.Alarm.TriggeredCache.Suffix = ":triggered"
	cfg.Alarm.TriggeredCache.TTL = getEnvInt("ALARM_TRIGGERED_TTL", 300)

	// 通知配置
	cfg.Notify.TopicPrefix = getEnv("NOTIFY_TOPIC_PREFIX", "goldwatch/notify/")
	cfg.Notify.PermKeyPrefix = getEnv("NOTIFY_PERM_PREFIX", "gold:notify:perm:")

	cfg.Log.Level = getEnv("LOG_LEVEL", "info")
	cfg.Log.Format = getEnv("LOG_FORMAT", "json")

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if v, err := strconv.Atoi(value); err == nil && v > 0 {
			return v
		}
	}
	return defaultValue
}
