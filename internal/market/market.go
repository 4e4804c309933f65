package market

import (
	"math"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"marketmind/internal/models"
)

const (
	spikeThresholdPct = 1.5
	seriesLength      = 100
	candleInterval    = 5 * time.Minute
	cacheTTL          = time.Minute

	dropFactor   = 0.97
	riseFactor   = 1.03
	volumeFactor = 2.5
)

// basePrices seeds the synthetic series for known symbols. Unknown
// symbols fall back to a flat 100.
var basePrices = map[string]float64{
	"EURUSD":  1.0850,
	"GBPUSD":  1.2700,
	"USDJPY":  148.50,
	"AUDUSD":  0.6580,
	"BTC-USD": 43250.0,
	"ETH-USD": 2280.0,
}

type cachedSeries struct {
	candles []models.Candle
	at      time.Time
}

// Service produces candle series and indicator snapshots per symbol.
// Series are synthetic but deterministic for a given symbol, cached
// briefly so repeated snapshot and chart calls line up.
type Service struct {
	logger zerolog.Logger
	now    func() time.Time

	mu    sync.Mutex
	cache map[string]cachedSeries
}

func NewService(logger zerolog.Logger) *Service {
	return &Service{
		logger: logger.With().Str("component", "market").Logger(),
		now:    time.Now,
		cache:  map[string]cachedSeries{},
	}
}

// Snapshot computes the indicator snapshot for a symbol. simulateDrop
// and simulateRise force an artificial move on the final candle for
// demo and testing flows; drop wins when both are set.
func (s *Service) Snapshot(symbol string, simulateDrop, simulateRise bool) models.MarketData {
	candles := s.series(symbol, simulateDrop, simulateRise)

	last := candles[len(candles)-1]
	prev := candles[len(candles)-2]
	changePct := 0.0
	if prev.Close > 0 {
		changePct = (last.Close - prev.Close) / prev.Close * 100
	}
	changePct = round2(changePct)

	data := models.MarketData{
		Symbol:        strings.ToUpper(symbol),
		CurrentPrice:  round5(last.Close),
		PreviousPrice: round5(prev.Close),
		ChangePct:     changePct,
		Indicators:    indicators(candles),
		Timestamp:     s.now().UTC(),
	}
	if math.Abs(changePct) >= spikeThresholdPct {
		data.IsSpike = true
		if changePct < 0 {
			data.SpikeDirection = "down"
		} else {
			data.SpikeDirection = "up"
		}
		s.logger.Info().
			Str("symbol", data.Symbol).
			Float64("change_pct", changePct).
			Str("direction", data.SpikeDirection).
			Msg("price spike detected")
	}
	return data
}

// Chart returns the last n points of the symbol's series.
func (s *Service) Chart(symbol string, simulateDrop, simulateRise bool, n int) models.ChartResponse {
	candles := s.series(symbol, simulateDrop, simulateRise)
	if n <= 0 || n > len(candles) {
		n = len(candles)
	}

	points := make([]models.ChartPoint, 0, n)
	for _, c := range candles[len(candles)-n:] {
		points = append(points, models.ChartPoint{
			Time:   c.Time.UTC().Format("15:04"),
			Price:  round5(c.Close),
			Volume: c.Volume,
		})
	}
	return models.ChartResponse{Symbol: strings.ToUpper(symbol), Data: points}
}

// series returns the cached base series for a symbol, regenerating it
// when stale, then applies any simulated move to a copy.
func (s *Service) series(symbol string, simulateDrop, simulateRise bool) []models.Candle {
	key := strings.ToUpper(symbol)

	s.mu.Lock()
	entry, ok := s.cache[key]
	if !ok || s.now().Sub(entry.at) > cacheTTL {
		entry = cachedSeries{candles: s.generate(key), at: s.now()}
		s.cache[key] = entry
	}
	s.mu.Unlock()

	candles := make([]models.Candle, len(entry.candles))
	copy(candles, entry.candles)

	last := len(candles) - 1
	switch {
	case simulateDrop:
		candles[last].Close *= dropFactor
		candles[last].Low *= dropFactor
		candles[last].Volume = int64(float64(candles[last].Volume) * volumeFactor)
	case simulateRise:
		candles[last].Close *= riseFactor
		candles[last].High *= riseFactor
		candles[last].Volume = int64(float64(candles[last].Volume) * volumeFactor)
	}
	return candles
}

// generate builds a deterministic 5-minute synthetic series ending at
// the current time.
func (s *Service) generate(symbol string) []models.Candle {
	base, ok := basePrices[symbol]
	if !ok {
		base = 100.0
	}

	end := s.now().UTC().Truncate(candleInterval)
	candles := make([]models.Candle, 0, seriesLength)
	for i := 0; i < seriesLength; i++ {
		// Gentle deterministic drift so indicators have structure
		// without pulling in a randomness dependency.
		wave := math.Sin(float64(i)/7.0) * 0.002 * base
		drift := float64(i%20-10) * 0.0001 * base
		open := base + wave
		closeP := base + wave + drift
		high := math.Max(open, closeP) + 0.0005*base
		low := math.Min(open, closeP) - 0.0005*base

		candles = append(candles, models.Candle{
			Time:   end.Add(-time.Duration(seriesLength-1-i) * candleInterval),
			Open:   open,
			High:   high,
			Low:    low,
			Close:  closeP,
			Volume: 1_000_000 + int64(i)*10_000,
		})
	}
	return candles
}
