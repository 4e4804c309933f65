package behavior

import (
	"reflect"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"marketmind/internal/models"
)

// Property: the aggregate risk level equals the maximum severity among
// non-positive patterns, and low when that set is empty, for arbitrary
// pattern-list combinations.
func TestProperty_AggregateRiskIsMaxNegativeSeverity(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	parameters.Rng.Seed(time.Now().UnixNano())

	properties := gopter.NewProperties(parameters)

	severities := []models.RiskLevel{models.RiskLow, models.RiskMedium, models.RiskHigh}

	patternGen := gen.Struct(reflect.TypeOf(models.BehaviorPattern{}), map[string]gopter.Gen{
		"Severity":   gen.OneConstOf(severities[0], severities[1], severities[2]),
		"IsPositive": gen.Bool(),
	})

	properties.Property("risk level is max severity of risk flags", prop.ForAll(
		func(patterns []models.BehaviorPattern) bool {
			got := AggregateRisk(patterns)

			want := models.RiskLow
			for _, p := range patterns {
				if !p.IsPositive && p.Severity.AtLeast(want) {
					want = p.Severity
				}
			}
			return got == want
		},
		gen.SliceOf(patternGen),
	))

	properties.Property("positive-only lists always aggregate to low", prop.ForAll(
		func(patterns []models.BehaviorPattern) bool {
			for i := range patterns {
				patterns[i].IsPositive = true
			}
			return AggregateRisk(patterns) == models.RiskLow
		},
		gen.SliceOf(patternGen),
	))

	properties.TestingRun(t)
}

// Property: trade lists with fewer than three consecutive closed losses at
// the tail never report a loss streak, and five or more always report high.
func TestProperty_LossStreakThresholds(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	parameters.Rng.Seed(time.Now().UnixNano())

	properties := gopter.NewProperties(parameters)
	engine := NewEngine(DefaultConfig())

	makeTrades := func(lossTail int, winsBefore int) []models.Trade {
		var trades []models.Trade
		at := time.Date(2024, 1, 15, 9, 0, 0, 0, time.UTC)
		add := func(pnl float64) {
			closed := at.Add(time.Hour)
			trades = append(trades, models.Trade{
				ID: "t", Symbol: "EURUSD", Side: models.SideBuy,
				Size: 1, EntryPrice: 1,
				PnL: &pnl, OpenedAt: at, ClosedAt: &closed,
			})
			at = at.Add(3 * time.Hour)
		}
		for i := 0; i < winsBefore; i++ {
			add(10)
		}
		for i := 0; i < lossTail; i++ {
			add(-10)
		}
		return trades
	}

	properties.Property("short loss tails are never flagged", prop.ForAll(
		func(lossTail, winsBefore int) bool {
			result := engine.Analyze(makeTrades(lossTail, winsBefore))
			for _, p := range result.Patterns {
				if p.PatternType == models.PatternLossStreak {
					return false
				}
			}
			return true
		},
		gen.IntRange(0, 2),
		gen.IntRange(0, 5),
	))

	properties.Property("long loss tails are always high severity", prop.ForAll(
		func(lossTail, winsBefore int) bool {
			result := engine.Analyze(makeTrades(lossTail, winsBefore))
			for _, p := range result.Patterns {
				if p.PatternType == models.PatternLossStreak {
					return p.Severity == models.RiskHigh
				}
			}
			return false
		},
		gen.IntRange(5, 12),
		gen.IntRange(0, 5),
	))

	properties.TestingRun(t)
}
