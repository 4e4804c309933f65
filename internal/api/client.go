// Package api provides the typed HTTP client for the MarketMind
// backend service endpoints.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"marketmind/internal/errors"
	"marketmind/internal/models"
	"marketmind/pkg/utils"
)

// TokenSource supplies the bearer token for authenticated calls and
// drops it when the server rejects it.
type TokenSource interface {
	Token() string
	Clear()
}

// StaticToken is a TokenSource over a fixed token string.
type StaticToken struct {
	token string
}

func NewStaticToken(token string) *StaticToken { return &StaticToken{token: token} }

func (s *StaticToken) Token() string { return s.token }
func (s *StaticToken) Clear()        { s.token = "" }

// Client talks to the backend API. All methods translate transport and
// HTTP-level failures into a ServiceError, except 401 which maps to
// ErrUnauthorized after clearing the cached token.
type Client struct {
	baseURL string
	http    *http.Client
	tokens  TokenSource
	retry   utils.RetryConfig
	logger  zerolog.Logger
}

func NewClient(baseURL string, tokens TokenSource, logger zerolog.Logger) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 30 * time.Second},
		tokens:  tokens,
		retry:   utils.DefaultRetryConfig(),
		logger:  logger.With().Str("component", "api").Logger(),
	}
}

// detailBody is the error payload shape the backend returns.
type detailBody struct {
	Detail string `json:"detail"`
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out interface{}) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return errors.Wrap(err, "encode request")
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return errors.Wrap(err, "build request")
	}
	req.Header.Set("Content-Type", "application/json")
	if c.tokens != nil {
		if token := c.tokens.Token(); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return &errors.ServiceError{Service: "api", Message: errors.GenericServiceMessage, Err: err}
	}
	defer resp.Body.Close()

	c.logger.Debug().
		Str("method", method).
		Str("path", path).
		Int("status", resp.StatusCode).
		Dur("elapsed", time.Since(start)).
		Msg("api call")

	if resp.StatusCode == http.StatusUnauthorized {
		if c.tokens != nil {
			c.tokens.Clear()
		}
		return errors.ErrUnauthorized
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var detail detailBody
		_ = json.NewDecoder(resp.Body).Decode(&detail)
		msg := detail.Detail
		if msg == "" {
			msg = fmt.Sprintf("API error: %d", resp.StatusCode)
		}
		return &errors.ServiceError{Service: "api", StatusCode: resp.StatusCode, Message: msg}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &errors.ServiceError{Service: "api", Message: "malformed response", Err: err}
	}
	return nil
}

// getRetry runs an idempotent GET with backoff. A 401 is terminal, not
// retried: the token is already cleared and a retry cannot succeed.
func (c *Client) getRetry(ctx context.Context, path string, query url.Values, out interface{}) error {
	var unauthorized bool
	err := utils.Retry(ctx, c.retry, func() error {
		err := c.do(ctx, http.MethodGet, path, query, nil, out)
		if errors.Is(err, errors.ErrUnauthorized) {
			unauthorized = true
			return nil
		}
		return err
	})
	if unauthorized {
		return errors.ErrUnauthorized
	}
	return err
}

// MarketData fetches the market snapshot with explanation and coaching.
func (c *Client) MarketData(ctx context.Context, symbol string, simulateDrop, simulateRise bool) (models.MarketResponse, error) {
	q := url.Values{
		"symbol":           {symbol},
		"simulate_drop":    {strconv.FormatBool(simulateDrop)},
		"simulate_rise":    {strconv.FormatBool(simulateRise)},
		"include_coaching": {"true"},
	}
	var out models.MarketResponse
	err := c.getRetry(ctx, "/market", q, &out)
	return out, err
}

// ChartData fetches the chart series for a symbol.
func (c *Client) ChartData(ctx context.Context, symbol string, simulateDrop, simulateRise bool, points int) (models.ChartResponse, error) {
	q := url.Values{
		"symbol":        {symbol},
		"simulate_drop": {strconv.FormatBool(simulateDrop)},
		"simulate_rise": {strconv.FormatBool(simulateRise)},
		"points":        {strconv.Itoa(points)},
	}
	var out models.ChartResponse
	err := c.getRetry(ctx, "/market/chart", q, &out)
	return out, err
}

type behaviorRequest struct {
	Trades []models.Trade `json:"trades"`
}

// BehaviorAnalysis submits trades for pattern analysis. A nil slice
// asks the server to analyze its sample trades.
func (c *Client) BehaviorAnalysis(ctx context.Context, trades []models.Trade) (models.BehaviorResult, error) {
	var body interface{}
	if trades != nil {
		body = behaviorRequest{Trades: trades}
	}
	var out models.BehaviorResult
	err := c.do(ctx, http.MethodPost, "/behavior", nil, body, &out)
	return out, err
}

// CoachingInsight requests a coaching insight for the given contexts.
func (c *Client) CoachingInsight(ctx context.Context, marketContext, behaviorContext string) (models.InsightResponse, error) {
	req := models.InsightRequest{MarketContext: marketContext, BehaviorContext: behaviorContext}
	var out models.InsightResponse
	err := c.do(ctx, http.MethodPost, "/insight", nil, req, &out)
	return out, err
}

// GenerateContent requests one persona/platform content piece.
func (c *Client) GenerateContent(ctx context.Context, req models.ContentRequest) (models.ContentResponse, error) {
	var out models.ContentResponse
	err := c.do(ctx, http.MethodPost, "/content", nil, req, &out)
	return out, err
}

// Chat sends a transcript to the chat endpoint.
func (c *Client) Chat(ctx context.Context, req models.ChatRequest) (models.ChatResponse, error) {
	var out models.ChatResponse
	err := c.do(ctx, http.MethodPost, "/chat", nil, req, &out)
	return out, err
}

// ContentHistory fetches stored content generations.
func (c *Client) ContentHistory(ctx context.Context) ([]models.ContentHistoryItem, error) {
	var out []models.ContentHistoryItem
	err := c.getRetry(ctx, "/history/content", nil, &out)
	return out, err
}

// ChatHistory fetches stored chat exchanges.
func (c *Client) ChatHistory(ctx context.Context) ([]models.ChatHistoryItem, error) {
	var out []models.ChatHistoryItem
	err := c.getRetry(ctx, "/history/chat", nil, &out)
	return out, err
}

// ClearChatHistory deletes all stored chat exchanges.
func (c *Client) ClearChatHistory(ctx context.Context) error {
	return c.do(ctx, http.MethodDelete, "/history/chat", nil, nil, nil)
}
