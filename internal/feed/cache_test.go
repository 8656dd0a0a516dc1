package feed

import (
	"context"
	"testing"
	"time"

	"goldwatch-alarm/internal/config"
	"goldwatch-alarm/internal/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func setupTestCache(t *testing.T) (*miniredis.Miniredis, *PriceCache) {
	mr := miniredis.RunT(t)
	redisClient := redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})

	cfg := &config.Config{}
	cfg.Feed.Cache.KeyPrefix = "gold:price:"
	cfg.Feed.Cache.Suffix = ":latest"
	cfg.Feed.Cache.TTL = 60

	cache := NewPriceCache(cfg, redisClient, zap.NewNop())
	return mr, cache
}

func TestPriceCache_SetGetTick(t *testing.T) {
	_, cache := setupTestCache(t)
	ctx := context.Background()

	tick := models.PriceTick{
		ProductCode: "XAUUSD",
		ProductName: "Gold Spot",
		Bid:         2400.15,
		Ask:         2400.85,
		Timestamp:   time.Now().Unix(),
	}

	require.NoError(t, cache.SetTick(ctx, tick))

	got, err := cache.GetTick(ctx, "XAUUSD")
	require.NoError(t, err)
	assert.Equal(t, tick.ProductCode, got.ProductCode)
	assert.Equal(t, tick.Bid, got.Bid)
	assert.Equal(t, tick.Ask, got.Ask)
}

func TestPriceCache_GetTick_NotFound(t *testing.T) {
	_, cache := setupTestCache(t)

	_, err := cache.GetTick(context.Background(), "XAGUSD")

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "price not found")
}

func TestPriceCache_GetLatestBatch(t *testing.T) {
	_, cache := setupTestCache(t)
	ctx := context.Background()

	ticks := []models.PriceTick{
		{ProductCode: "XAUUSD", ProductName: "Gold Spot", Bid: 2400, Ask: 2401, Timestamp: 1},
		{ProductCode: "XAGUSD", ProductName: "Silver Spot", Bid: 28.5, Ask: 28.7, Timestamp: 1},
		{ProductCode: "USDTRY", ProductName: "US Dollar / Lira", Bid: 32.1, Ask: 32.3, Timestamp: 1},
	}
	for _, tick := range ticks {
		require.NoError(t, cache.SetTick(ctx, tick))
	}

	batch, err := cache.GetLatestBatch(ctx)
	require.NoError(t, err)
	require.Len(t, batch, 3)

	byCode := make(map[string]models.PriceTick)
	for _, tick := range batch {
		byCode[tick.ProductCode] = tick
	}
	assert.Equal(t, 2400.0, byCode["XAUUSD"].Bid)
	assert.Equal(t, 28.7, byCode["XAGUSD"].Ask)
}

func TestPriceCache_GetLatestBatch_Empty(t *testing.T) {
	_, cache := setupTestCache(t)

	batch, err := cache.GetLatestBatch(context.Background())

	require.NoError(t, err)
	assert.Empty(t, batch)
}

func TestPriceCache_TickExpires(t *testing.T) {
	mr, cache := setupTestCache(t)
	ctx := context.Background()

	tick := models.PriceTick{ProductCode: "XAUUSD", ProductName: "Gold Spot", Bid: 2400, Ask: 2401, Timestamp: 1}
	require.NoError(t, cache.SetTick(ctx, tick))

	// TTL 到期后报价从缓存消失
	mr.FastForward(61 * time.Second)

	_, err := cache.GetTick(ctx, "XAUUSD")
	assert.Error(t, err)
}
