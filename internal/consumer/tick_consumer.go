package consumer

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"goldwatch-alarm/internal/config"
	"goldwatch-alarm/internal/feed"
	"goldwatch-alarm/internal/models"

	commonredis "goldwatch-alarm/common/redis"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// Evaluator 报警评估器接口
type Evaluator interface {
	// Evaluate 用一批报价评估报警，返回本轮触发的报警
	Evaluate(ctx context.Context, ticks []models.PriceTick) ([]models.Alarm, error)
}

// Notifier 触发通知接口
type Notifier interface {
	// NotifyTriggered 投递本轮触发的报警
	NotifyTriggered(ctx context.Context, alarms []models.Alarm)
}

// TickConsumer 行情消费者
// events 模式：消费行情事件流（Redis Streams 消费者组）
// polling 模式：按固定间隔轮询最新报价缓存
type TickConsumer struct {
	config      *config.Config
	cache       *feed.PriceCache
	redisClient *redis.Client
	logger      *zap.Logger
}

// NewTickConsumer 创建行情消费者
func NewTickConsumer(
	cfg *config.Config,
	cache *feed.PriceCache,
	redisClient *redis.Client,
	logger *zap.Logger,
) *TickConsumer {
	return &TickConsumer{
		config:      cfg,
		cache:       cache,
		redisClient: redisClient,
		logger:      logger,
	}
}

// Start 启动消费者（阻塞直到 ctx 取消）
func (c *TickConsumer) Start(ctx context.Context, evaluator Evaluator, notifier Notifier) error {
	c.logger.Info("Tick consumer started",
		zap.String("trigger_mode", c.config.Alarm.TriggerMode),
	)

	if c.config.Alarm.TriggerMode == "events" {
		return c.consumeEvents(ctx, evaluator, notifier)
	}
	return c.pollCache(ctx, evaluator, notifier)
}

// consumeEvents events 模式：逐条消费行情事件
func (c *TickConsumer) consumeEvents(ctx context.Context, evaluator Evaluator, notifier Notifier) error {
	stream := c.config.Feed.Stream
	group := c.config.Alarm.ConsumerGroup

	if err := commonredis.CreateConsumerGroup(ctx, c.redisClient, stream, group); err != nil {
		return fmt.Errorf("failed to create consumer group: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			c.logger.Info("Tick consumer stopped")
			return nil
		default:
		}

		messages, err := commonredis.ReadFromStream(
			ctx,
			c.redisClient,
			stream,
			group,
			c.config.Alarm.ConsumerName,
			int64(c.config.Alarm.BatchSize),
		)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			c.logger.Error("Failed to read tick stream",
				zap.Error(err),
			)
			time.Sleep(time.Second)
			continue
		}

		for _, msg := range messages {
			ticks, err := decodeTickBatch(msg.Values)
			if err != nil {
				c.logger.Warn("Skipping malformed tick message",
					zap.String("message_id", msg.ID),
					zap.Error(err),
				)
			} else {
				c.handleBatch(ctx, ticks, evaluator, notifier)
			}

			if err := commonredis.AckMessage(ctx, c.redisClient, stream, group, msg.ID); err != nil {
				c.logger.Error("Failed to ack tick message",
					zap.String("message_id", msg.ID),
					zap.Error(err),
				)
			}
		}
	}
}

// pollCache polling 模式：轮询最新报价缓存
func (c *TickConsumer) pollCache(ctx context.Context, evaluator Evaluator, notifier Notifier) error {
	ticker := time.NewTicker(time.Duration(c.config.Alarm.PollInterval) * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			c.logger.Info("Tick consumer stopped")
			return nil
		case <-ticker.C:
			ticks, err := c.cache.GetLatestBatch(ctx)
			if err != nil {
				c.logger.Error("Failed to read price cache, skipping cycle",
					zap.Error(err),
				)
				continue
			}
			c.handleBatch(ctx, ticks, evaluator, notifier)
		}
	}
}

// handleBatch 评估一批报价并投递触发通知
func (c *TickConsumer) handleBatch(ctx context.Context, ticks []models.PriceTick, evaluator Evaluator, notifier Notifier) {
	if len(ticks) == 0 {
		return
	}

	triggered, err := evaluator.Evaluate(ctx, ticks)
	if err != nil {
		c.logger.Error("Failed to evaluate tick batch",
			zap.Error(err),
		)
		return
	}

	if len(triggered) > 0 {
		notifier.NotifyTriggered(ctx, triggered)
	}
}

// decodeTickBatch 解析事件流消息中的报价批次
func decodeTickBatch(values map[string]interface{}) ([]models.PriceTick, error) {
	raw, ok := values["data"].(string)
	if !ok {
		return nil, fmt.Errorf("missing data field")
	}

	var ticks []models.PriceTick
	if err := json.Unmarshal([]byte(raw), &ticks); err != nil {
		return nil, fmt.Errorf("failed to unmarshal tick batch: %w", err)
	}
	return ticks, nil
}
