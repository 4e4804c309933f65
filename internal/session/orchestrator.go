package session

import (
	"context"
	"fmt"
	"math"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"

	"marketmind/internal/chat"
	"marketmind/internal/errors"
	"marketmind/internal/logging"
	"marketmind/internal/models"
)

const defaultChartPoints = 50

// Direction selects the simulated market move for an invocation.
type Direction string

const (
	DirectionDrop Direction = "drop"
	DirectionRise Direction = "rise"
)

// Backend is the service surface the orchestrator drives. The API
// client satisfies it; tests substitute fakes.
type Backend interface {
	MarketData(ctx context.Context, symbol string, simulateDrop, simulateRise bool) (models.MarketResponse, error)
	ChartData(ctx context.Context, symbol string, simulateDrop, simulateRise bool, points int) (models.ChartResponse, error)
	BehaviorAnalysis(ctx context.Context, trades []models.Trade) (models.BehaviorResult, error)
	CoachingInsight(ctx context.Context, marketContext, behaviorContext string) (models.InsightResponse, error)
	GenerateContent(ctx context.Context, req models.ContentRequest) (models.ContentResponse, error)
}

// SuggestionSink receives chat topic suggestions after a successful run.
type SuggestionSink interface {
	AddSuggestions(suggestions []string)
}

// State is a snapshot of the session pipeline.
type State struct {
	Symbol   string
	Platform models.Platform
	Trades   []models.Trade

	Market   *models.MarketResponse
	Behavior *models.BehaviorResult
	Chart    *models.ChartResponse
	Insight  *models.InsightResponse
	Content  models.ContentSet

	MarketLoading  bool
	InsightLoading bool
	ContentLoading bool

	LastError string
}

// Orchestrator runs the simulate pipeline: fetch barrier, insight,
// content fan-out, chat suggestions. Each invocation gets a generation
// number; results arriving for an older generation are discarded
// instead of overwriting fresher state.
type Orchestrator struct {
	backend Backend
	store   Store
	sink    SuggestionSink
	logger  zerolog.Logger

	chartPoints int
	generation  uint64

	mu    sync.Mutex
	state State
}

func NewOrchestrator(backend Backend, store Store, sink SuggestionSink, logger zerolog.Logger) *Orchestrator {
	o := &Orchestrator{
		backend:     backend,
		store:       store,
		sink:        sink,
		logger:      logger.With().Str("component", "session").Logger(),
		chartPoints: defaultChartPoints,
		state: State{
			Symbol:   "EURUSD",
			Platform: models.PlatformLinkedIn,
		},
	}
	o.restore()
	return o
}

// restore pulls persisted selections back into memory. Corrupt or
// absent values keep the defaults.
func (o *Orchestrator) restore() {
	var symbol string
	if o.store.Get(KeySymbol, &symbol) && symbol != "" {
		o.state.Symbol = symbol
	}
	var platform models.Platform
	if o.store.Get(KeyPlatform, &platform) && platform.Valid() {
		o.state.Platform = platform
	}
	var trades []models.Trade
	if o.store.Get(KeyTrades, &trades) {
		o.state.Trades = trades
	}
}

// Snapshot returns a copy of the current state.
func (o *Orchestrator) Snapshot() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

// SetSymbol changes the instrument for the next invocation.
func (o *Orchestrator) SetSymbol(symbol string) {
	o.mu.Lock()
	o.state.Symbol = symbol
	o.mu.Unlock()
	o.store.Set(KeySymbol, symbol)
}

// SetTrades installs uploaded trades for behavior analysis. A nil
// slice reverts to the server-default sample.
func (o *Orchestrator) SetTrades(trades []models.Trade) {
	o.mu.Lock()
	o.state.Trades = trades
	o.mu.Unlock()
	if trades == nil {
		o.store.Set(KeyTrades, nil)
		return
	}
	o.store.Set(KeyTrades, trades)
}

// SetPlatform switches the displayed platform. Content for both
// platforms is generated up front, so this is a pure local change and
// never triggers a network call.
func (o *Orchestrator) SetPlatform(platform models.Platform) {
	if !platform.Valid() {
		return
	}
	o.mu.Lock()
	o.state.Platform = platform
	o.mu.Unlock()
	o.store.Set(KeyPlatform, platform)
}

// stale reports whether gen has been superseded.
func (o *Orchestrator) stale(gen uint64) bool {
	return atomic.LoadUint64(&o.generation) != gen
}

// commit applies a state mutation unless the generation is stale.
// Store writes belong inside apply: under the mutex a superseding
// invocation cannot slip in between the stale check and the persist.
func (o *Orchestrator) commit(gen uint64, apply func(*State)) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.stale(gen) {
		return errors.ErrStaleInvocation
	}
	apply(&o.state)
	return nil
}

// fail resolves a generation's run: loading flags off, user-facing
// message recorded. Stale generations leave state alone since a newer
// run owns the flags.
func (o *Orchestrator) fail(gen uint64, err error) error {
	o.logger.Error().Err(err).Msg("pipeline aborted")
	commitErr := o.commit(gen, func(s *State) {
		s.MarketLoading = false
		s.InsightLoading = false
		s.ContentLoading = false
		s.LastError = errors.UserMessage(err)
	})
	if commitErr != nil {
		return commitErr
	}
	return errors.Wrap(err, "pipeline aborted")
}

// Simulate runs the full pipeline for the current symbol and the given
// direction. A newer invocation supersedes this one at the next phase
// boundary; superseded runs return ErrStaleInvocation without touching
// state.
func (o *Orchestrator) Simulate(ctx context.Context, direction Direction) error {
	gen := atomic.AddUint64(&o.generation, 1)
	simulateDrop := direction == DirectionDrop
	simulateRise := direction == DirectionRise

	o.mu.Lock()
	symbol := o.state.Symbol
	trades := o.state.Trades
	o.state.Insight = nil
	o.state.Content = nil
	o.state.LastError = ""
	o.state.MarketLoading = true
	o.state.InsightLoading = true
	o.state.ContentLoading = true
	o.mu.Unlock()
	o.store.Set(KeyInsight, nil)
	o.store.Set(KeyContent, nil)

	logger := logging.WithSymbol(o.logger, symbol)
	logger.Info().
		Str("direction", string(direction)).
		Uint64("generation", gen).
		Msg("pipeline started")

	fetchLog := logging.WithStage(logger, "fetch")
	fetchLog.Debug().Msg("requesting market, behavior and chart")
	market, behavior, chartData, err := o.fetchPhase(ctx, symbol, trades, simulateDrop, simulateRise)
	if err != nil {
		return o.fail(gen, err)
	}
	if err := o.commit(gen, func(s *State) {
		s.Market = &market
		s.Behavior = &behavior
		s.Chart = &chartData
		s.MarketLoading = false
		o.store.Set(KeyMarket, market)
		o.store.Set(KeyBehavior, behavior)
		o.store.Set(KeyChart, chartData)
	}); err != nil {
		return err
	}

	marketContext := MarketContext(market)
	behaviorContext := BehaviorContext(behavior)

	insightLog := logging.WithStage(logger, "insight")
	insightLog.Debug().Msg("requesting coaching insight")
	insight, err := o.backend.CoachingInsight(ctx, marketContext, behaviorContext)
	if err != nil {
		return o.fail(gen, err)
	}
	if err := o.commit(gen, func(s *State) {
		s.Insight = &insight
		s.InsightLoading = false
		o.store.Set(KeyInsight, insight)
	}); err != nil {
		return err
	}

	contentLog := logging.WithStage(logger, "content")
	contentLog.Debug().Msg("generating content for all platforms")
	content, err := o.contentPhase(ctx, marketContext, behaviorContext, insight.CoachingInsight)
	if err != nil {
		return o.fail(gen, err)
	}
	if err := o.commit(gen, func(s *State) {
		s.Content = content
		s.ContentLoading = false
		o.store.Set(KeyContent, content)
	}); err != nil {
		return err
	}

	if o.sink != nil {
		o.sink.AddSuggestions(chat.DeriveSuggestions(marketContext, behaviorContext))
	}

	logger.Info().Uint64("generation", gen).Msg("pipeline complete")
	return nil
}

// fetchPhase issues the market, behavior and chart requests in
// parallel and waits for all three. Any failure fails the phase.
func (o *Orchestrator) fetchPhase(ctx context.Context, symbol string, trades []models.Trade, simulateDrop, simulateRise bool) (models.MarketResponse, models.BehaviorResult, models.ChartResponse, error) {
	var (
		market    models.MarketResponse
		behavior  models.BehaviorResult
		chartData models.ChartResponse

		marketErr, behaviorErr, chartErr error
	)

	var wg sync.WaitGroup
	wg.Add(3)
	go func() {
		defer wg.Done()
		market, marketErr = o.backend.MarketData(ctx, symbol, simulateDrop, simulateRise)
	}()
	go func() {
		defer wg.Done()
		behavior, behaviorErr = o.backend.BehaviorAnalysis(ctx, trades)
	}()
	go func() {
		defer wg.Done()
		chartData, chartErr = o.backend.ChartData(ctx, symbol, simulateDrop, simulateRise, o.chartPoints)
	}()
	wg.Wait()

	for _, err := range []error{marketErr, behaviorErr, chartErr} {
		if err != nil {
			return models.MarketResponse{}, models.BehaviorResult{}, models.ChartResponse{}, err
		}
	}
	return market, behavior, chartData, nil
}

// contentPhase generates content for both platforms in parallel, three
// personas each. Both platforms must complete for the phase to succeed.
func (o *Orchestrator) contentPhase(ctx context.Context, marketContext, behaviorContext, coachingInsight string) (models.ContentSet, error) {
	platforms := models.AllPlatforms()
	results := make([]map[models.Persona]models.ContentResponse, len(platforms))
	errs := make([]error, len(platforms))

	var wg sync.WaitGroup
	for i, platform := range platforms {
		wg.Add(1)
		go func(i int, platform models.Platform) {
			defer wg.Done()
			byPersona := make(map[models.Persona]models.ContentResponse, len(models.AllPersonas()))
			for _, persona := range models.AllPersonas() {
				resp, err := o.backend.GenerateContent(ctx, models.ContentRequest{
					MarketContext:   marketContext,
					BehaviorContext: behaviorContext,
					CoachingInsight: coachingInsight,
					Persona:         persona,
					Platform:        platform,
				})
				if err != nil {
					errs[i] = err
					return
				}
				byPersona[persona] = resp
			}
			results[i] = byPersona
		}(i, platform)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}

	content := make(models.ContentSet, len(platforms))
	for i, platform := range platforms {
		content[platform] = results[i]
	}
	return content, nil
}

// MarketContext renders the market-context string fed to the insight
// and content services: symbol, absolute move to one decimal, and the
// snapshot explanation.
func MarketContext(market models.MarketResponse) string {
	verb := "rose"
	if market.MarketData.ChangePct < 0 {
		verb = "dropped"
	}
	return fmt.Sprintf("%s %s %.1f%%. %s",
		market.MarketData.Symbol, verb,
		math.Abs(market.MarketData.ChangePct),
		market.Explanation)
}

// BehaviorContext renders the behavior-context string, empty when no
// patterns were detected.
func BehaviorContext(behavior models.BehaviorResult) string {
	if len(behavior.Patterns) == 0 {
		return ""
	}
	return behavior.Summary
}
