// Package store provides history persistence for generated content,
// chat exchanges and uploaded trades.
package store

import (
	"context"
	"time"

	"marketmind/internal/models"
)

// HistoryStore persists generation and chat history.
type HistoryStore interface {
	SaveContent(ctx context.Context, item models.ContentResponse, marketContext string) (models.ContentHistoryItem, error)
	ContentHistory(ctx context.Context, limit int) ([]models.ContentHistoryItem, error)

	SaveChatMessage(ctx context.Context, role models.ChatRole, content string) (models.ChatHistoryItem, error)
	ChatHistory(ctx context.Context, limit int) ([]models.ChatHistoryItem, error)
	ClearChatHistory(ctx context.Context) error

	SaveTrades(ctx context.Context, trades []models.Trade) error
	Trades(ctx context.Context) ([]models.Trade, error)

	Close() error
}

// nowUTC is stubbed in tests.
var nowUTC = func() time.Time { return time.Now().UTC() }
