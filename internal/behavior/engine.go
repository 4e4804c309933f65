// Package behavior evaluates a trader's history against fixed heuristics and
// produces detected patterns, an aggregate risk level, and a summary.
package behavior

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"marketmind/internal/models"
)

// Config holds the detection thresholds. Zero values are replaced with the
// defaults from DefaultConfig.
type Config struct {
	// LossStreakMin is the consecutive-loss count at which a streak is
	// flagged; LossStreakHigh escalates it to high severity.
	LossStreakMin  int
	LossStreakHigh int
	// RevengeWindow is how soon after a loss a larger same-symbol trade
	// counts as revenge trading.
	RevengeWindow time.Duration
	// RapidReentryWindow is how soon after a close a same-symbol re-entry
	// counts as rapid re-entry.
	RapidReentryWindow time.Duration
	// OversizeMultiple flags trades above this multiple of the trailing
	// average size; OversizeHighMultiple escalates to high severity.
	OversizeMultiple     float64
	OversizeHighMultiple float64
	// SizingVarianceBand is the relative size deviation under which sizing
	// counts as consistent.
	SizingVarianceBand float64
	// ImprovingWindow is the number of closed trades per half when comparing
	// recent win rate against the preceding stretch.
	ImprovingWindow int
}

// DefaultConfig returns the standard detection thresholds.
func DefaultConfig() Config {
	return Config{
		LossStreakMin:        3,
		LossStreakHigh:       5,
		RevengeWindow:        15 * time.Minute,
		RapidReentryWindow:   5 * time.Minute,
		OversizeMultiple:     2.0,
		OversizeHighMultiple: 3.0,
		SizingVarianceBand:   0.25,
		ImprovingWindow:      5,
	}
}

func (c Config) normalized() Config {
	d := DefaultConfig()
	if c.LossStreakMin <= 0 {
		c.LossStreakMin = d.LossStreakMin
	}
	if c.LossStreakHigh <= 0 {
		c.LossStreakHigh = d.LossStreakHigh
	}
	if c.RevengeWindow <= 0 {
		c.RevengeWindow = d.RevengeWindow
	}
	if c.RapidReentryWindow <= 0 {
		c.RapidReentryWindow = d.RapidReentryWindow
	}
	if c.OversizeMultiple <= 1 {
		c.OversizeMultiple = d.OversizeMultiple
	}
	if c.OversizeHighMultiple <= c.OversizeMultiple {
		c.OversizeHighMultiple = d.OversizeHighMultiple
	}
	if c.SizingVarianceBand <= 0 {
		c.SizingVarianceBand = d.SizingVarianceBand
	}
	if c.ImprovingWindow <= 0 {
		c.ImprovingWindow = d.ImprovingWindow
	}
	return c
}

// Engine detects behavior patterns in a trade list. It is stateless: Analyze
// is a pure function of its input and the configured thresholds.
type Engine struct {
	cfg Config
}

// NewEngine creates an engine with the given thresholds.
func NewEngine(cfg Config) *Engine {
	return &Engine{cfg: cfg.normalized()}
}

// symbolState is the per-symbol rolling window kept during a detection pass.
type symbolState struct {
	lastLossAt time.Time
	lastLossSz float64
	hasLoss    bool
}

// Analyze evaluates a trade history and returns the detected patterns,
// aggregate risk level, summary, and coaching message. Detection runs
// over a working copy sorted ascending by open time; the caller's slice
// is left untouched.
func (e *Engine) Analyze(trades []models.Trade) models.BehaviorResult {
	if len(trades) == 0 {
		return models.BehaviorResult{
			Patterns:        []models.BehaviorPattern{},
			RiskLevel:       models.RiskLow,
			Summary:         "No trades to analyze.",
			CoachingMessage: "No trading history to analyze. Trade mindfully.",
		}
	}

	sorted := make([]models.Trade, len(trades))
	copy(sorted, trades)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].OpenedAt.Before(sorted[j].OpenedAt)
	})
	trades = sorted

	var patterns []models.BehaviorPattern

	oversize := e.detectOversizing(trades)
	if p := e.detectLossStreak(trades); p != nil {
		patterns = append(patterns, *p)
	}
	revenge := e.detectRevengeTrade(trades)
	if revenge != nil {
		patterns = append(patterns, *revenge)
	}
	if oversize != nil {
		patterns = append(patterns, *oversize)
	}
	if p := e.detectRapidReentry(trades); p != nil {
		patterns = append(patterns, *p)
	}

	if oversize == nil {
		if p := e.detectConsistentSizing(trades); p != nil {
			patterns = append(patterns, *p)
		}
	}
	if revenge == nil && len(trades) > 1 {
		patterns = append(patterns, models.BehaviorPattern{
			PatternType: models.PatternNoRevengeTrades,
			Description: "No revenge trading detected across your trade history",
			Severity:    models.RiskLow,
			Details:     map[string]float64{"trades_checked": float64(len(trades))},
			IsPositive:  true,
		})
	}
	if p := e.detectImprovingStreak(trades); p != nil {
		patterns = append(patterns, *p)
	}

	if patterns == nil {
		patterns = []models.BehaviorPattern{}
	}

	result := models.BehaviorResult{
		Patterns:  patterns,
		RiskLevel: AggregateRisk(patterns),
	}
	result.Summary = summarize(&result)
	result.CoachingMessage = coach(&result)
	return result
}

// AggregateRisk returns the maximum severity among non-positive patterns,
// or low when there are none.
func AggregateRisk(patterns []models.BehaviorPattern) models.RiskLevel {
	level := models.RiskLow
	for _, p := range patterns {
		if p.IsPositive {
			continue
		}
		level = level.Max(p.Severity)
	}
	return level
}

// detectLossStreak flags three or more consecutive losing closed trades at
// the tail of the history. Open trades are skipped, not streak breakers.
func (e *Engine) detectLossStreak(trades []models.Trade) *models.BehaviorPattern {
	streak := 0
	for i := len(trades) - 1; i >= 0; i-- {
		t := &trades[i]
		if !t.Closed() {
			continue
		}
		if !t.Losing() {
			break
		}
		streak++
	}

	if streak < e.cfg.LossStreakMin {
		return nil
	}

	severity := models.RiskMedium
	if streak >= e.cfg.LossStreakHigh {
		severity = models.RiskHigh
	}

	return &models.BehaviorPattern{
		PatternType: models.PatternLossStreak,
		Description: fmt.Sprintf("You have %d consecutive losing trades", streak),
		Severity:    severity,
		Details:     map[string]float64{"streak_length": float64(streak)},
	}
}

// detectRevengeTrade flags a losing trade followed quickly by a larger trade
// on the same symbol.
func (e *Engine) detectRevengeTrade(trades []models.Trade) *models.BehaviorPattern {
	state := map[string]*symbolState{}

	for i := range trades {
		t := &trades[i]
		s := state[t.Symbol]
		if s != nil && s.hasLoss {
			gap := t.OpenedAt.Sub(s.lastLossAt)
			if gap >= 0 && gap < e.cfg.RevengeWindow && t.Size > s.lastLossSz {
				return &models.BehaviorPattern{
					PatternType: models.PatternRevengeTrade,
					Description: "Detected revenge trading: quick re-entry with larger size after a loss",
					Severity:    models.RiskHigh,
					Details: map[string]float64{
						"minutes_after_loss": round1(gap.Minutes()),
						"size_increase_pct":  round1((t.Size/s.lastLossSz - 1) * 100),
					},
				}
			}
		}

		if t.Losing() {
			if s == nil {
				s = &symbolState{}
				state[t.Symbol] = s
			}
			s.hasLoss = true
			s.lastLossSz = t.Size
			s.lastLossAt = t.OpenedAt
			if t.ClosedAt != nil {
				s.lastLossAt = *t.ClosedAt
			}
		}
	}

	return nil
}

// detectOversizing flags trades whose size exceeds a multiple of the
// trailing average size of the trades before them.
func (e *Engine) detectOversizing(trades []models.Trade) *models.BehaviorPattern {
	var sum float64
	count := 0
	instances := 0
	severity := models.RiskMedium
	var worstRatio float64

	for i := range trades {
		t := &trades[i]
		if count > 0 && sum > 0 {
			avg := sum / float64(count)
			ratio := t.Size / avg
			if ratio > e.cfg.OversizeMultiple {
				instances++
				if ratio > worstRatio {
					worstRatio = ratio
				}
				if ratio > e.cfg.OversizeHighMultiple {
					severity = models.RiskHigh
				}
			}
		}
		sum += t.Size
		count++
	}

	if instances == 0 {
		return nil
	}

	return &models.BehaviorPattern{
		PatternType: models.PatternOversizing,
		Description: fmt.Sprintf("Position sized %.1fx your trailing average", worstRatio),
		Severity:    severity,
		Details: map[string]float64{
			"instances":  float64(instances),
			"peak_ratio": round1(worstRatio),
		},
	}
}

// detectRapidReentry flags a position opened on the same symbol shortly
// after closing the previous one, regardless of outcome.
func (e *Engine) detectRapidReentry(trades []models.Trade) *models.BehaviorPattern {
	lastClose := map[string]time.Time{}
	instances := 0

	for i := range trades {
		t := &trades[i]
		if prev, ok := lastClose[t.Symbol]; ok {
			gap := t.OpenedAt.Sub(prev)
			if gap >= 0 && gap < e.cfg.RapidReentryWindow {
				instances++
			}
		}
		if t.ClosedAt != nil {
			lastClose[t.Symbol] = *t.ClosedAt
		}
	}

	if instances == 0 {
		return nil
	}

	return &models.BehaviorPattern{
		PatternType: models.PatternRapidReentry,
		Description: fmt.Sprintf("You're re-entering positions very quickly (%d rapid re-entries)", instances),
		Severity:    models.RiskMedium,
		Details:     map[string]float64{"rapid_entries": float64(instances)},
	}
}

// detectConsistentSizing affirms disciplined sizing when no oversizing was
// found and relative size deviation stays inside the configured band.
func (e *Engine) detectConsistentSizing(trades []models.Trade) *models.BehaviorPattern {
	if len(trades) < 2 {
		return nil
	}

	var sum float64
	for i := range trades {
		sum += trades[i].Size
	}
	mean := sum / float64(len(trades))
	if mean <= 0 {
		return nil
	}

	var variance float64
	for i := range trades {
		d := trades[i].Size - mean
		variance += d * d
	}
	variance /= float64(len(trades))
	relDev := math.Sqrt(variance) / mean

	if relDev > e.cfg.SizingVarianceBand {
		return nil
	}

	return &models.BehaviorPattern{
		PatternType: models.PatternConsistentSizing,
		Description: "Your position sizing stays consistent across trades",
		Severity:    models.RiskLow,
		Details:     map[string]float64{"relative_deviation": round1(relDev * 100)},
		IsPositive:  true,
	}
}

// detectImprovingStreak affirms a higher win rate over the most recent N
// closed trades than over the N before them.
func (e *Engine) detectImprovingStreak(trades []models.Trade) *models.BehaviorPattern {
	n := e.cfg.ImprovingWindow

	var closed []*models.Trade
	for i := range trades {
		if trades[i].Closed() {
			closed = append(closed, &trades[i])
		}
	}
	if len(closed) < 2*n {
		return nil
	}

	recent := closed[len(closed)-n:]
	prior := closed[len(closed)-2*n : len(closed)-n]

	recentRate := winRate(recent)
	priorRate := winRate(prior)
	if recentRate <= priorRate {
		return nil
	}

	return &models.BehaviorPattern{
		PatternType: models.PatternImprovingStreak,
		Description: fmt.Sprintf("Your recent win rate improved from %.0f%% to %.0f%%", priorRate*100, recentRate*100),
		Severity:    models.RiskLow,
		Details: map[string]float64{
			"recent_win_rate": round1(recentRate * 100),
			"prior_win_rate":  round1(priorRate * 100),
		},
		IsPositive: true,
	}
}

func winRate(trades []*models.Trade) float64 {
	if len(trades) == 0 {
		return 0
	}
	wins := 0
	for _, t := range trades {
		if t.Winning() {
			wins++
		}
	}
	return float64(wins) / float64(len(trades))
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

// summarize renders the deterministic one-line summary enumerating negative
// and positive pattern counts.
func summarize(r *models.BehaviorResult) string {
	neg := r.NegativeCount()
	pos := r.PositiveCount()
	if neg == 0 && pos == 0 {
		return "No notable patterns detected in your recent trading."
	}

	var parts []string
	if neg > 0 {
		parts = append(parts, fmt.Sprintf("%d risk %s (%s)", neg, plural(neg, "pattern"), names(r.Patterns, false)))
	}
	if pos > 0 {
		parts = append(parts, fmt.Sprintf("%d healthy %s (%s)", pos, plural(pos, "habit"), names(r.Patterns, true)))
	}
	return "Detected " + strings.Join(parts, " and ") + "."
}

func names(patterns []models.BehaviorPattern, positive bool) string {
	var out []string
	for _, p := range patterns {
		if p.IsPositive == positive {
			out = append(out, strings.ReplaceAll(string(p.PatternType), "_", " "))
		}
	}
	return strings.Join(out, ", ")
}

func plural(n int, word string) string {
	if n == 1 {
		return word
	}
	return word + "s"
}

var coachingLines = map[models.PatternType]string{
	models.PatternLossStreak:   "After consecutive losses, taking a short break can help reset your mindset.",
	models.PatternRevengeTrade: "Quick re-entries after losses often lead to emotional decisions. Consider stepping away briefly.",
	models.PatternOversizing:   "Increasing position size during volatility increases risk. Stick to your normal sizing.",
	models.PatternRapidReentry: "Fast-paced trading can cloud judgment. Slow down and review each setup carefully.",
}

// coach assembles the persona-free coaching paragraph from the detected
// risk flags, capped at two lines.
func coach(r *models.BehaviorResult) string {
	if r.NegativeCount() == 0 {
		return "Your trading patterns look balanced. Keep up the mindful approach."
	}

	var lines []string
	for _, p := range r.Patterns {
		if p.IsPositive {
			continue
		}
		if line, ok := coachingLines[p.PatternType]; ok && len(lines) < 2 {
			lines = append(lines, line)
		}
	}

	prefix := ""
	if r.RiskLevel == models.RiskHigh && r.NegativeCount() > 1 {
		prefix = "Multiple risk signals detected. "
	}
	return prefix + strings.Join(lines, " ")
}
