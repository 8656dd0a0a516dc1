package feed

import (
	"context"
	"time"

	"goldwatch-alarm/internal/config"
	"goldwatch-alarm/internal/models"

	commonredis "goldwatch-alarm/common/redis"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// PriceSource 行情来源接口（生产实现为 Client）
type PriceSource interface {
	FetchPrices() ([]models.PriceTick, error)
}

// Poller 行情轮询器
// 每个周期：拉取报价 → 刷新最新报价缓存 → 将整批发布到行情事件流
// 拉取失败只是跳过本轮（行情展示与报警评估都等下一轮）
type Poller struct {
	config      *config.Config
	source      PriceSource
	cache       *PriceCache
	redisClient *redis.Client
	logger      *zap.Logger
}

// NewPoller 创建行情轮询器
func NewPoller(
	cfg *config.Config,
	source PriceSource,
	cache *PriceCache,
	redisClient *redis.Client,
	logger *zap.Logger,
) *Poller {
	return &Poller{
		config:      cfg,
		source:      source,
		cache:       cache,
		redisClient: redisClient,
		logger:      logger,
	}
}

// Start 启动轮询（阻塞直到 ctx 取消）
func (p *Poller) Start(ctx context.Context) error {
	p.logger.Info("Price poller started",
		zap.String("base_url", p.config.Feed.BaseURL),
		zap.Int("poll_interval", p.config.Feed.PollInterval),
	)

	ticker := time.NewTicker(time.Duration(p.config.Feed.PollInterval) * time.Second)
	defer ticker.Stop()

	// 立即执行一次
	p.pollOnce(ctx)

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("Price poller stopped")
			return nil
		case <-ticker.C:
			p.pollOnce(ctx)
		}
	}
}

// pollOnce 执行一个轮询周期
func (p *Poller) pollOnce(ctx context.Context) {
	ticks, err := p.source.FetchPrices()
	if err != nil {
		p.logger.Error("Failed to fetch prices, skipping cycle",
			zap.Error(err),
		)
		return
	}
	if len(ticks) == 0 {
		return
	}

	// 1. 刷新最新报价缓存
	for _, tick := range ticks {
		if err := p.cache.SetTick(ctx, tick); err != nil {
			p.logger.Error("Failed to cache tick",
				zap.String("product_code", tick.ProductCode),
				zap.Error(err),
			)
			// 继续处理其他产品，不中断
		}
	}

	// 2. 发布行情事件（events 模式的评估触发源）
	if _, err := commonredis.PublishJSONToStream(ctx, p.redisClient, p.config.Feed.Stream, ticks); err != nil {
		p.logger.Error("Failed to publish tick batch to stream",
			zap.String("stream", p.config.Feed.Stream),
			zap.Error(err),
		)
	}

	p.logger.Debug("Price cycle completed",
		zap.Int("tick_count", len(ticks)),
	)
}
