package market

import (
	"math"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"marketmind/internal/models"
)

func newTestService() *Service {
	s := NewService(zerolog.Nop())
	fixed := time.Date(2026, 8, 29, 10, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return fixed }
	return s
}

func TestSnapshotBaseline(t *testing.T) {
	s := newTestService()
	data := s.Snapshot("eurusd", false, false)

	if data.Symbol != "EURUSD" {
		t.Errorf("expected uppercased symbol, got %s", data.Symbol)
	}
	if data.CurrentPrice <= 0 || data.PreviousPrice <= 0 {
		t.Errorf("expected positive prices, got %f / %f", data.CurrentPrice, data.PreviousPrice)
	}
	if data.IsSpike {
		t.Errorf("baseline series should not spike, change %f%%", data.ChangePct)
	}
	if data.Indicators.RSI < 0 || data.Indicators.RSI > 100 {
		t.Errorf("RSI out of range: %f", data.Indicators.RSI)
	}
	if data.Indicators.VolumeRatio <= 0 {
		t.Errorf("expected positive volume ratio, got %f", data.Indicators.VolumeRatio)
	}
}

func TestSnapshotSimulatedDrop(t *testing.T) {
	s := newTestService()
	base := s.Snapshot("EURUSD", false, false)
	dropped := s.Snapshot("EURUSD", true, false)

	if !dropped.IsSpike {
		t.Fatalf("simulated drop should register as spike, change %f%%", dropped.ChangePct)
	}
	if dropped.SpikeDirection != "down" {
		t.Errorf("expected down spike, got %q", dropped.SpikeDirection)
	}
	if dropped.CurrentPrice >= base.CurrentPrice {
		t.Errorf("dropped price %f should be below base %f", dropped.CurrentPrice, base.CurrentPrice)
	}
	if dropped.Indicators.VolumeRatio <= base.Indicators.VolumeRatio {
		t.Errorf("drop should inflate volume ratio: %f vs %f",
			dropped.Indicators.VolumeRatio, base.Indicators.VolumeRatio)
	}
}

func TestSnapshotSimulatedRise(t *testing.T) {
	s := newTestService()
	risen := s.Snapshot("GBPUSD", false, true)

	if !risen.IsSpike || risen.SpikeDirection != "up" {
		t.Errorf("expected up spike, got spike=%v direction=%q", risen.IsSpike, risen.SpikeDirection)
	}
	if risen.ChangePct < spikeThresholdPct {
		t.Errorf("rise change %f%% below threshold", risen.ChangePct)
	}
}

func TestSnapshotDropWinsOverRise(t *testing.T) {
	s := newTestService()
	data := s.Snapshot("EURUSD", true, true)
	if data.SpikeDirection != "down" {
		t.Errorf("drop takes precedence, got %q", data.SpikeDirection)
	}
}

func TestChartSeries(t *testing.T) {
	s := newTestService()
	chart := s.Chart("EURUSD", false, false, 50)

	if len(chart.Data) != 50 {
		t.Fatalf("expected 50 points, got %d", len(chart.Data))
	}
	for i, p := range chart.Data {
		if p.Price <= 0 {
			t.Errorf("point %d has non-positive price", i)
		}
		if p.Time == "" {
			t.Errorf("point %d missing time label", i)
		}
	}

	snap := s.Snapshot("EURUSD", false, false)
	lastPrice := chart.Data[len(chart.Data)-1].Price
	if math.Abs(lastPrice-snap.CurrentPrice) > 1e-9 {
		t.Errorf("chart tail %f should match snapshot price %f", lastPrice, snap.CurrentPrice)
	}
}

func TestChartClampsRequestedPoints(t *testing.T) {
	s := newTestService()
	if got := len(s.Chart("EURUSD", false, false, 10_000).Data); got != seriesLength {
		t.Errorf("oversized request should clamp to %d, got %d", seriesLength, got)
	}
	if got := len(s.Chart("EURUSD", false, false, 0).Data); got != seriesLength {
		t.Errorf("zero request should default to full series, got %d", got)
	}
}

func TestSeriesDeterministicAndCached(t *testing.T) {
	s := newTestService()
	a := s.Chart("EURUSD", false, false, 100)
	b := s.Chart("EURUSD", false, false, 100)

	for i := range a.Data {
		if a.Data[i] != b.Data[i] {
			t.Fatalf("point %d differs between calls: %v vs %v", i, a.Data[i], b.Data[i])
		}
	}
}

func TestCalculateRSIBounds(t *testing.T) {
	rising := make([]float64, 30)
	for i := range rising {
		rising[i] = 100 + float64(i)
	}
	if got := calculateRSI(rising, rsiPeriod); got != 100.0 {
		t.Errorf("monotonic rise should give RSI 100, got %f", got)
	}

	falling := make([]float64, 30)
	for i := range falling {
		falling[i] = 130 - float64(i)
	}
	if got := calculateRSI(falling, rsiPeriod); got != 0.0 {
		t.Errorf("monotonic fall should give RSI 0, got %f", got)
	}

	if got := calculateRSI([]float64{1, 2, 3}, rsiPeriod); got != 50.0 {
		t.Errorf("insufficient data should give neutral RSI, got %f", got)
	}
}

func TestIndicatorsInsufficientData(t *testing.T) {
	short := []models.Candle{{Close: 1.0, Volume: 100}}
	ind := indicators(short)
	if ind.RSI != 50.0 || ind.VolumeRatio != 1.0 {
		t.Errorf("expected neutral defaults, got %+v", ind)
	}
}
