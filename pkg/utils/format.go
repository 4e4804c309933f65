// Package utils provides shared helpers for retries and display formatting.
package utils

import "fmt"

// FormatPrice renders a quote with FX precision. Pairs quoted below 10
// get five decimals, everything else two.
func FormatPrice(price float64) string {
	if price < 10 && price > -10 {
		return fmt.Sprintf("%.5f", price)
	}
	return fmt.Sprintf("%.2f", price)
}

// FormatPercent formats a percentage change with an explicit sign.
func FormatPercent(value float64) string {
	return fmt.Sprintf("%+.2f%%", value)
}

// FormatPnL formats a profit or loss figure with an explicit sign.
func FormatPnL(pnl float64) string {
	return fmt.Sprintf("%+.2f", pnl)
}

// FormatVolume renders volume in compact form (K/M).
func FormatVolume(v int64) string {
	abs := v
	if abs < 0 {
		abs = -abs
	}
	switch {
	case abs >= 1_000_000:
		return fmt.Sprintf("%.1fM", float64(v)/1_000_000)
	case abs >= 1_000:
		return fmt.Sprintf("%.1fK", float64(v)/1_000)
	}
	return fmt.Sprintf("%d", v)
}
