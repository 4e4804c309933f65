package models

import "time"

// MarketIndicators holds the technical indicators computed for a snapshot.
type MarketIndicators struct {
	RSI            float64 `json:"rsi"`
	ATR            float64 `json:"atr"`
	VolumeRatio    float64 `json:"volume_ratio"`
	PriceChangePct float64 `json:"price_change_pct"`
}

// MarketData is a point-in-time snapshot of a symbol.
type MarketData struct {
	Symbol         string           `json:"symbol"`
	CurrentPrice   float64          `json:"current_price"`
	PreviousPrice  float64          `json:"previous_price"`
	ChangePct      float64          `json:"change_pct"`
	Indicators     MarketIndicators `json:"indicators"`
	IsSpike        bool             `json:"is_spike"`
	SpikeDirection string           `json:"spike_direction,omitempty"` // "up" or "down"
	Timestamp      time.Time        `json:"timestamp"`
}

// MarketResponse pairs a snapshot with its AI-generated explanation.
type MarketResponse struct {
	MarketData      MarketData `json:"market_data"`
	Explanation     string     `json:"explanation"`
	CoachingMessage string     `json:"coaching_message,omitempty"`
}

// ChartPoint is one entry in a chart series.
type ChartPoint struct {
	Time   string  `json:"time"`
	Price  float64 `json:"price"`
	Volume int64   `json:"volume"`
}

// ChartResponse is an ordered chart series for a symbol.
type ChartResponse struct {
	Symbol string       `json:"symbol"`
	Data   []ChartPoint `json:"data"`
}

// Candle is one OHLCV bar used by the market intelligence service.
type Candle struct {
	Time   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume int64
}
