package models

// PriceTick 一次行情刷新中某个产品的最新报价（从上游行情接口获取，缓存于 Redis）
type PriceTick struct {
	ProductCode string  `json:"product_code"`
	ProductName string  `json:"product_name"`
	Bid         float64 `json:"bid"`
	Ask         float64 `json:"ask"`
	Timestamp   int64   `json:"timestamp"` // Unix 时间戳（上游报价时间）
}

// SideValue 按价格侧取报价值
func (t *PriceTick) SideValue(side string) float64 {
	if side == PriceSideAsk {
		return t.Ask
	}
	return t.Bid
}
