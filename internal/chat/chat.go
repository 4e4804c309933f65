// Package chat manages the coaching chat transcript and its
// context-derived suggestions.
package chat

import (
	"context"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"marketmind/internal/models"
)

const coachSystemPrompt = `You are a supportive, experienced trading coach. You help traders understand their emotions, patterns, and decisions. You never give financial advice, predictions, or signals. You focus on:
- Emotional awareness and mindset
- Pattern recognition in trading behavior
- Discipline and risk management principles
- Celebrating healthy habits and growth
Keep responses concise (2-4 sentences). Be warm, direct, and empowering.`

const connectFailureReply = "Sorry, I couldn't connect to the coaching service. Please try again."

const suggestionIntro = "Here are some topics we can discuss based on your current market and trading analysis:"

const defaultMaxTokens = 300

// Sender runs a transcript through the chat backend.
type Sender interface {
	Chat(ctx context.Context, req models.ChatRequest) (models.ChatResponse, error)
}

// Manager holds the chat transcript. Sends prepend the coaching system
// prompt; the stored transcript never contains system messages.
type Manager struct {
	sender Sender
	logger zerolog.Logger

	mu       sync.Mutex
	messages []models.ChatMessage
	busy     bool
}

func NewManager(sender Sender, logger zerolog.Logger) *Manager {
	return &Manager{
		sender: sender,
		logger: logger.With().Str("component", "chat").Logger(),
	}
}

// Send appends the user message and the assistant reply to the
// transcript. Blank messages and sends while a reply is pending are
// dropped. A backend failure appends an apology instead of an error.
func (m *Manager) Send(ctx context.Context, content string) {
	trimmed := strings.TrimSpace(content)
	if trimmed == "" {
		return
	}

	m.mu.Lock()
	if m.busy {
		m.mu.Unlock()
		return
	}
	m.busy = true
	m.messages = append(m.messages, models.ChatMessage{Role: models.RoleUser, Content: trimmed})
	transcript := make([]models.ChatMessage, 0, len(m.messages)+1)
	transcript = append(transcript, models.ChatMessage{Role: models.RoleSystem, Content: coachSystemPrompt})
	transcript = append(transcript, m.messages...)
	m.mu.Unlock()

	reply, err := m.sender.Chat(ctx, models.ChatRequest{
		Messages:  transcript,
		MaxTokens: defaultMaxTokens,
	})

	m.mu.Lock()
	defer m.mu.Unlock()
	m.busy = false
	if err != nil {
		m.logger.Warn().Err(err).Msg("chat send failed")
		m.messages = append(m.messages, models.ChatMessage{
			Role:    models.RoleAssistant,
			Content: connectFailureReply,
		})
		return
	}
	m.messages = append(m.messages, reply.Message)
}

// Clear empties the transcript.
func (m *Manager) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = nil
}

// Messages returns a copy of the transcript.
func (m *Manager) Messages() []models.ChatMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.ChatMessage, len(m.messages))
	copy(out, m.messages)
	return out
}

// AddSuggestions appends an assistant message carrying follow-up
// topics derived from the current analysis contexts.
func (m *Manager) AddSuggestions(suggestions []string) {
	if len(suggestions) == 0 {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = append(m.messages, models.ChatMessage{
		Role:        models.RoleAssistant,
		Content:     suggestionIntro,
		Suggestions: suggestions,
	})
}

// DeriveSuggestions produces 2-3 topic suggestions from the market and
// behavior context strings. First match wins per category; the result
// is capped at three.
func DeriveSuggestions(marketContext, behaviorContext string) []string {
	var suggestions []string

	market := strings.ToLower(marketContext)
	switch {
	case strings.Contains(market, "drop"):
		suggestions = append(suggestions, "How do I handle losses emotionally?")
	case strings.Contains(market, "rise"), strings.Contains(market, "rose"), strings.Contains(market, "rising"):
		suggestions = append(suggestions, "How do I manage greed when markets are rising?")
	default:
		suggestions = append(suggestions, "What should I focus on now?")
	}

	if behaviorContext != "" {
		behavior := strings.ToLower(behaviorContext)
		switch {
		case strings.Contains(behavior, "revenge"):
			suggestions = append(suggestions, "How can I avoid revenge trading?")
		case strings.Contains(behavior, "streak"):
			suggestions = append(suggestions, "How do I stay disciplined after a winning streak?")
		default:
			suggestions = append(suggestions, "What patterns should I be aware of?")
		}
	} else {
		suggestions = append(suggestions, "Can you analyze my trading patterns?")
	}

	suggestions = append(suggestions, "What's the best way to improve my trading mindset?")

	if len(suggestions) > 3 {
		suggestions = suggestions[:3]
	}
	return suggestions
}
