package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"goldwatch-alarm/internal/config"
	"goldwatch-alarm/internal/models"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// PriceCache 最新报价的 Redis 缓存
// 键格式：<prefix><product_code><suffix>，如 "gold:price:XAUUSD:latest"
type PriceCache struct {
	config      *config.Config
	redisClient *redis.Client
	logger      *zap.Logger
}

// NewPriceCache 创建报价缓存
func NewPriceCache(cfg *config.Config, redisClient *redis.Client, logger *zap.Logger) *PriceCache {
	return &PriceCache{
		config:      cfg,
		redisClient: redisClient,
		logger:      logger,
	}
}

func (c *PriceCache) key(productCode string) string {
	return fmt.Sprintf("%s%s%s",
		c.config.Feed.Cache.KeyPrefix,
		productCode,
		c.config.Feed.Cache.Suffix,
	)
}

// SetTick 写入某产品的最新报价（带 TTL）
func (c *PriceCache) SetTick(ctx context.Context, tick models.PriceTick) error {
	jsonData, err := json.Marshal(tick)
	if err != nil {
		return fmt.Errorf("failed to marshal tick: %w", err)
	}

	ttl := time.Duration(c.config.Feed.Cache.TTL) * time.Second
	if err := c.redisClient.Set(ctx, c.key(tick.ProductCode), jsonData, ttl).Err(); err != nil {
		return fmt.Errorf("failed to set price cache: %w", err)
	}

	return nil
}

// GetTick 读取某产品的最新报价
func (c *PriceCache) GetTick(ctx context.Context, productCode string) (*models.PriceTick, error) {
	val, err := c.redisClient.Get(ctx, c.key(productCode)).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, fmt.Errorf("price not found for product: %s", productCode)
		}
		return nil, fmt.Errorf("failed to get price cache: %w", err)
	}

	var tick models.PriceTick
	if err := json.Unmarshal([]byte(val), &tick); err != nil {
		return nil, fmt.Errorf("failed to unmarshal tick: %w", err)
	}

	return &tick, nil
}

// GetLatestBatch 读取当前缓存中的全部最新报价（SCAN + GET）
func (c *PriceCache) GetLatestBatch(ctx context.Context) ([]models.PriceTick, error) {
	pattern := fmt.Sprintf("%s*%s",
		c.config.Feed.Cache.KeyPrefix,
		c.config.Feed.Cache.Suffix,
	)

	var keys []string
	iter := c.redisClient.Scan(ctx, 0, pattern, 0).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("failed to scan price keys: %w", err)
	}

	ticks := make([]models.PriceTick, 0, len(keys))
	for _, key := range keys {
		val, err := c.redisClient.Get(ctx, key).Result()
		if err != nil {
			if err == redis.Nil {
				// 键在 SCAN 与 GET 之间过期：跳过
				continue
			}
			return nil, fmt.Errorf("failed to get price cache: %w", err)
		}

		var tick models.PriceTick
		if err := json.Unmarshal([]byte(val), &tick); err != nil {
			c.logger.Warn("Skipping malformed cached tick",
				zap.String("key", key),
				zap.Error(err),
			)
			continue
		}
		ticks = append(ticks, tick)
	}

	return ticks, nil
}
