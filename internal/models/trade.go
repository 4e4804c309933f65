package models

import "time"

// OrderSide is the direction of a trade.
type OrderSide string

const (
	SideBuy  OrderSide = "buy"
	SideSell OrderSide = "sell"
)

// Trade represents one open or closed position. ExitPrice and PnL are both
// nil for an open position and both set for a closed one. Ingestion
// preserves file order; the pattern engine sorts its own working copy.
type Trade struct {
	ID         string     `json:"id"`
	Symbol     string     `json:"symbol"`
	Side       OrderSide  `json:"side"`
	Size       float64    `json:"size"`
	EntryPrice float64    `json:"entry_price"`
	ExitPrice  *float64   `json:"exit_price"`
	PnL        *float64   `json:"pnl"`
	OpenedAt   time.Time  `json:"timestamp"`
	ClosedAt   *time.Time `json:"closed_at"`
}

// Closed reports whether the position has been exited.
func (t *Trade) Closed() bool {
	return t.PnL != nil
}

// Losing reports whether the trade closed with a negative P&L.
func (t *Trade) Losing() bool {
	return t.PnL != nil && *t.PnL < 0
}

// Winning reports whether the trade closed with a positive P&L.
func (t *Trade) Winning() bool {
	return t.PnL != nil && *t.PnL > 0
}
