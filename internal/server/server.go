// Package server exposes the MarketMind backend API over HTTP.
package server

import (
	"bytes"
	"context"
	"embed"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"

	"marketmind/internal/behavior"
	"marketmind/internal/content"
	"marketmind/internal/engine"
	"marketmind/internal/ingest"
	"marketmind/internal/market"
	"marketmind/internal/models"
	"marketmind/internal/store"
)

//go:embed data/trades.csv
var sampleData embed.FS

// Config holds server configuration.
type Config struct {
	Addr string
	// Token, when set, is required as a bearer token on /api/v1 routes.
	Token string
	// DefaultSymbol backs requests that omit a symbol.
	DefaultSymbol string
}

// Server wires the market, behavior, engine, content and history
// components behind the HTTP API.
type Server struct {
	echo    *echo.Echo
	cfg     Config
	logger  zerolog.Logger
	market  *market.Service
	engine  *engine.Engine
	builder *content.Generator
	planner *behavior.Engine
	history store.HistoryStore
	sample  []models.Trade
}

func New(cfg Config, marketSvc *market.Service, aiEngine *engine.Engine, builder *content.Generator, planner *behavior.Engine, history store.HistoryStore, logger zerolog.Logger) *Server {
	if cfg.DefaultSymbol == "" {
		cfg.DefaultSymbol = "EURUSD"
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	s := &Server{
		echo:    e,
		cfg:     cfg,
		logger:  logger.With().Str("component", "server").Logger(),
		market:  marketSvc,
		engine:  aiEngine,
		builder: builder,
		planner: planner,
		history: history,
	}
	s.sample = loadSampleTrades(s.logger)

	e.HTTPErrorHandler = s.errorHandler
	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(s.requestLogger)

	s.registerRoutes()
	return s
}

// loadSampleTrades parses the embedded demo trade file through the
// same CSV path uploads take.
func loadSampleTrades(logger zerolog.Logger) []models.Trade {
	raw, err := sampleData.ReadFile("data/trades.csv")
	if err != nil {
		logger.Warn().Err(err).Msg("sample trades unavailable")
		return nil
	}
	trades, err := ingest.ParseTrades(bytes.NewReader(raw))
	if err != nil {
		logger.Warn().Err(err).Msg("sample trades unreadable")
		return nil
	}
	return trades
}

func (s *Server) requestLogger(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		start := time.Now()
		err := next(c)
		s.logger.Info().
			Str("method", c.Request().Method).
			Str("uri", c.Request().RequestURI).
			Int("status", c.Response().Status).
			Dur("elapsed", time.Since(start)).
			Str("request_id", c.Response().Header().Get(echo.HeaderXRequestID)).
			Msg("http request")
		return err
	}
}

// errorHandler renders every error as {"detail": ...}.
func (s *Server) errorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	status := http.StatusInternalServerError
	detail := "internal server error"
	if he, ok := err.(*echo.HTTPError); ok {
		status = he.Code
		if msg, ok := he.Message.(string); ok {
			detail = msg
		} else {
			detail = http.StatusText(status)
		}
	}
	if status >= 500 {
		s.logger.Error().Err(err).Str("uri", c.Request().RequestURI).Msg("request failed")
	}
	_ = c.JSON(status, map[string]string{"detail": detail})
}

// auth enforces the configured bearer token. With no token configured
// every request passes.
func (s *Server) auth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if s.cfg.Token == "" {
			return next(c)
		}
		header := c.Request().Header.Get(echo.HeaderAuthorization)
		token := strings.TrimPrefix(header, "Bearer ")
		if header == "" || token != s.cfg.Token {
			return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
		}
		return next(c)
	}
}

func (s *Server) registerRoutes() {
	s.echo.GET("/health", s.handleHealth)

	v1 := s.echo.Group("/api/v1", s.auth)
	v1.GET("/market", s.handleMarket)
	v1.GET("/market/chart", s.handleChart)
	v1.POST("/behavior", s.handleBehavior)
	v1.POST("/insight", s.handleInsight)
	v1.POST("/content", s.handleContent)
	v1.POST("/chat", s.handleChat)
	v1.GET("/history/content", s.handleContentHistory)
	v1.GET("/history/chat", s.handleChatHistory)
	v1.DELETE("/history/chat", s.handleClearChatHistory)
	v1.GET("/history/trades", s.handleTrades)
	v1.POST("/history/trades", s.handleSaveTrades)
}

// Start runs the server until the listener fails or Shutdown is called.
func (s *Server) Start() error {
	s.logger.Info().Str("addr", s.cfg.Addr).Msg("server listening")
	return s.echo.Start(s.cfg.Addr)
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

func boolQuery(c echo.Context, name string) bool {
	return c.QueryParam(name) == "true"
}

func (s *Server) handleMarket(c echo.Context) error {
	symbol := c.QueryParam("symbol")
	if symbol == "" {
		symbol = s.cfg.DefaultSymbol
	}
	simulateDrop := boolQuery(c, "simulate_drop")
	simulateRise := boolQuery(c, "simulate_rise")

	data := s.market.Snapshot(symbol, simulateDrop, simulateRise)
	resp := models.MarketResponse{
		MarketData:  data,
		Explanation: s.engine.ExplainMove(c.Request().Context(), data),
	}
	if boolQuery(c, "include_coaching") {
		verb := "rose"
		if data.ChangePct < 0 {
			verb = "dropped"
		}
		resp.CoachingMessage = s.engine.CoachingInsight(c.Request().Context(),
			data.Symbol+" "+verb+" "+strconv.FormatFloat(data.ChangePct, 'f', 2, 64)+"%", "")
	}
	return c.JSON(http.StatusOK, resp)
}

func (s *Server) handleChart(c echo.Context) error {
	symbol := c.QueryParam("symbol")
	if symbol == "" {
		symbol = s.cfg.DefaultSymbol
	}
	points := 50
	if raw := c.QueryParam("points"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return echo.NewHTTPError(http.StatusBadRequest, "points must be a non-negative integer")
		}
		points = n
	}
	resp := s.market.Chart(symbol, boolQuery(c, "simulate_drop"), boolQuery(c, "simulate_rise"), points)
	return c.JSON(http.StatusOK, resp)
}

type behaviorRequest struct {
	Trades []models.Trade `json:"trades"`
}

// handleBehavior analyzes the posted trades; an empty body runs the
// demo sample set.
func (s *Server) handleBehavior(c echo.Context) error {
	trades := s.sample
	if c.Request().ContentLength > 0 {
		var req behaviorRequest
		if err := c.Bind(&req); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
		}
		if len(req.Trades) > 0 {
			trades = req.Trades
		}
	}
	return c.JSON(http.StatusOK, s.planner.Analyze(trades))
}

func (s *Server) handleInsight(c echo.Context) error {
	var req models.InsightRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.MarketContext == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "market_context is required")
	}
	insight := s.engine.CoachingInsight(c.Request().Context(), req.MarketContext, req.BehaviorContext)
	return c.JSON(http.StatusOK, models.InsightResponse{
		CoachingInsight: insight,
		MarketContext:   req.MarketContext,
		BehaviorContext: req.BehaviorContext,
	})
}

func (s *Server) handleContent(c echo.Context) error {
	var req models.ContentRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if !req.Persona.Valid() {
		return echo.NewHTTPError(http.StatusBadRequest, "unknown persona")
	}
	if !req.Platform.Valid() {
		return echo.NewHTTPError(http.StatusBadRequest, "unknown platform")
	}

	resp, err := s.builder.Generate(c.Request().Context(), req)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "content generation failed")
	}
	if s.history != nil {
		if _, err := s.history.SaveContent(c.Request().Context(), resp, req.MarketContext); err != nil {
			s.logger.Warn().Err(err).Msg("failed to record content history")
		}
	}
	return c.JSON(http.StatusOK, resp)
}

func (s *Server) handleChat(c echo.Context) error {
	var req models.ChatRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if len(req.Messages) == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "messages are required")
	}

	resp := s.engine.Chat(c.Request().Context(), req)

	if s.history != nil {
		ctx := c.Request().Context()
		if last := req.Messages[len(req.Messages)-1]; last.Role == models.RoleUser {
			if _, err := s.history.SaveChatMessage(ctx, last.Role, last.Content); err != nil {
				s.logger.Warn().Err(err).Msg("failed to record chat history")
			}
		}
		if _, err := s.history.SaveChatMessage(ctx, resp.Message.Role, resp.Message.Content); err != nil {
			s.logger.Warn().Err(err).Msg("failed to record chat history")
		}
	}
	return c.JSON(http.StatusOK, resp)
}

func (s *Server) handleContentHistory(c echo.Context) error {
	items, err := s.history.ContentHistory(c.Request().Context(), 0)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to load content history")
	}
	return c.JSON(http.StatusOK, items)
}

func (s *Server) handleChatHistory(c echo.Context) error {
	items, err := s.history.ChatHistory(c.Request().Context(), 0)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to load chat history")
	}
	return c.JSON(http.StatusOK, items)
}

func (s *Server) handleClearChatHistory(c echo.Context) error {
	if err := s.history.ClearChatHistory(c.Request().Context()); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to clear chat history")
	}
	return c.JSON(http.StatusOK, map[string]string{"message": "Chat history cleared"})
}

func (s *Server) handleTrades(c echo.Context) error {
	trades, err := s.history.Trades(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to load trades")
	}
	return c.JSON(http.StatusOK, trades)
}

func (s *Server) handleSaveTrades(c echo.Context) error {
	var trades []models.Trade
	if err := c.Bind(&trades); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := s.history.SaveTrades(c.Request().Context(), trades); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to save trades")
	}
	return c.JSON(http.StatusOK, map[string]string{"message": "Saved " + strconv.Itoa(len(trades)) + " trades"})
}
