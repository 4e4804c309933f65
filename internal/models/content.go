package models

import "time"

// InsightRequest asks for a coaching insight fusing market and behavior context.
type InsightRequest struct {
	MarketContext   string `json:"market_context"`
	BehaviorContext string `json:"behavior_context,omitempty"`
}

// InsightResponse carries the generated coaching insight.
type InsightResponse struct {
	CoachingInsight string `json:"coaching_insight"`
	MarketContext   string `json:"market_context"`
	BehaviorContext string `json:"behavior_context,omitempty"`
}

// ContentRequest asks for one persona/platform content piece.
type ContentRequest struct {
	MarketContext   string   `json:"market_context"`
	BehaviorContext string   `json:"behavior_context,omitempty"`
	CoachingInsight string   `json:"coaching_insight,omitempty"`
	Persona         Persona  `json:"persona"`
	Platform        Platform `json:"platform"`
}

// ContentResponse is one generated content piece.
type ContentResponse struct {
	Persona   Persona  `json:"persona"`
	Platform  Platform `json:"platform"`
	Content   string   `json:"content"`
	Hashtags  []string `json:"hashtags"`
	CharCount int      `json:"char_count"`
}

// ContentSet maps platform -> persona -> generated content.
type ContentSet map[Platform]map[Persona]ContentResponse

// ChatRole identifies the author of a chat message.
type ChatRole string

const (
	RoleSystem    ChatRole = "system"
	RoleUser      ChatRole = "user"
	RoleAssistant ChatRole = "assistant"
)

// ChatMessage is one entry in a chat transcript. Suggestions is only set on
// locally generated assistant messages that offer follow-up topics.
type ChatMessage struct {
	Role        ChatRole   `json:"role"`
	Content     string     `json:"content"`
	Timestamp   *time.Time `json:"timestamp,omitempty"`
	Suggestions []string   `json:"suggestions,omitempty"`
}

// ChatRequest sends a transcript to the chat service.
type ChatRequest struct {
	Messages  []ChatMessage `json:"messages"`
	Model     string        `json:"model,omitempty"`
	MaxTokens int           `json:"max_tokens,omitempty"`
}

// ChatResponse is the chat service reply.
type ChatResponse struct {
	Message ChatMessage    `json:"message"`
	Usage   map[string]int `json:"usage,omitempty"`
}

// ContentHistoryItem is one stored content generation.
type ContentHistoryItem struct {
	ID            string    `json:"id"`
	Persona       Persona   `json:"persona"`
	Platform      Platform  `json:"platform"`
	Content       string    `json:"content"`
	Hashtags      []string  `json:"hashtags,omitempty"`
	MarketContext string    `json:"market_context,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

// ChatHistoryItem is one stored chat exchange.
type ChatHistoryItem struct {
	ID        string    `json:"id"`
	Role      ChatRole  `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}
