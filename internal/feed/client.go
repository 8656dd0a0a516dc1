package feed

import (
	"fmt"
	"time"

	"goldwatch-alarm/internal/models"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// feedResponse 上游行情接口响应
type feedResponse struct {
	Status int                `json:"status"`
	Msg    string             `json:"msg"`
	Data   []models.PriceTick `json:"data"`
}

// Client 上游行情 API 客户端
type Client struct {
	httpClient *resty.Client
	pricesPath string
	logger     *zap.Logger
}

// NewClient 创建行情客户端
func NewClient(baseURL, pricesPath string, logger *zap.Logger) *Client {
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(10 * time.Second).
		SetRetryCount(2).
		SetRetryWaitTime(500 * time.Millisecond).
		SetRetryMaxWaitTime(2 * time.Second).
		SetHeader("Accept", "application/json")

	return &Client{
		httpClient: client,
		pricesPath: pricesPath,
		logger:     logger,
	}
}

// FetchPrices 拉取一批最新报价
func (c *Client) FetchPrices() ([]models.PriceTick, error) {
	var response feedResponse
	resp, err := c.httpClient.R().
		SetResult(&response).
		Get(c.pricesPath)

	if err != nil {
		return nil, fmt.Errorf("failed to fetch prices: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("price feed returned status %d", resp.StatusCode())
	}
	if response.Status != 0 && response.Status != 200 {
		return nil, fmt.Errorf("price feed error: status=%d msg=%s", response.Status, response.Msg)
	}

	// 上游未带时间戳时补当前时间
	now := time.Now().Unix()
	for i := range response.Data {
		if response.Data[i].Timestamp == 0 {
			response.Data[i].Timestamp = now
		}
	}

	c.logger.Debug("Fetched price batch",
		zap.Int("tick_count", len(response.Data)),
	)

	return response.Data, nil
}
