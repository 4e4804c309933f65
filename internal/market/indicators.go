package market

import (
	"math"

	"marketmind/internal/models"
)

const (
	rsiPeriod    = 14
	atrPeriod    = 14
	volumeWindow = 20
)

// calculateRSI computes a rolling-mean RSI over the final period of the
// series. Returns the neutral 50 when data is insufficient.
func calculateRSI(closes []float64, period int) float64 {
	if len(closes) < period+1 {
		return 50.0
	}

	var gain, loss float64
	start := len(closes) - period
	for i := start; i < len(closes); i++ {
		change := closes[i] - closes[i-1]
		if change > 0 {
			gain += change
		} else {
			loss -= change
		}
	}
	gain /= float64(period)
	loss /= float64(period)

	if loss == 0 {
		return 100.0
	}
	rs := gain / loss
	return 100.0 - 100.0/(1.0+rs)
}

// calculateATR computes the average true range over the final period.
func calculateATR(candles []models.Candle, period int) float64 {
	if len(candles) < period+1 {
		return 0.001
	}

	var sum float64
	start := len(candles) - period
	for i := start; i < len(candles); i++ {
		prevClose := candles[i-1].Close
		tr := candles[i].High - candles[i].Low
		tr = math.Max(tr, math.Abs(candles[i].High-prevClose))
		tr = math.Max(tr, math.Abs(candles[i].Low-prevClose))
		sum += tr
	}
	return sum / float64(period)
}

// calculateVolumeRatio compares the last candle's volume against the
// trailing window average.
func calculateVolumeRatio(candles []models.Candle, window int) float64 {
	if len(candles) == 0 {
		return 1.0
	}
	start := len(candles) - window
	if start < 0 {
		start = 0
	}
	var sum float64
	for i := start; i < len(candles); i++ {
		sum += float64(candles[i].Volume)
	}
	avg := sum / float64(len(candles)-start)
	if avg <= 0 {
		return 1.0
	}
	return float64(candles[len(candles)-1].Volume) / avg
}

// indicators computes the snapshot indicator set from a candle series.
func indicators(candles []models.Candle) models.MarketIndicators {
	if len(candles) < volumeWindow {
		return models.MarketIndicators{RSI: 50.0, ATR: 0.001, VolumeRatio: 1.0}
	}

	closes := make([]float64, len(candles))
	for i, c := range candles {
		closes[i] = c.Close
	}

	current := closes[len(closes)-1]
	prev := closes[len(closes)-2]
	changePct := 0.0
	if prev > 0 {
		changePct = (current - prev) / prev * 100
	}

	return models.MarketIndicators{
		RSI:            round2(calculateRSI(closes, rsiPeriod)),
		ATR:            round5(calculateATR(candles, atrPeriod)),
		VolumeRatio:    round2(calculateVolumeRatio(candles, volumeWindow)),
		PriceChangePct: round2(changePct),
	}
}

func round2(v float64) float64 { return math.Round(v*100) / 100 }

func round5(v float64) float64 { return math.Round(v*100000) / 100000 }
