package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/oklog/ulid/v2"

	"marketmind/internal/models"
)

// SQLiteStore implements HistoryStore using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) the history database.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Hour)

	s := &SQLiteStore{db: db}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return s, nil
}

func (s *SQLiteStore) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS content_history (
		id TEXT PRIMARY KEY,
		persona TEXT NOT NULL,
		platform TEXT NOT NULL,
		content TEXT NOT NULL,
		hashtags TEXT,
		market_context TEXT,
		created_at DATETIME NOT NULL
	);
	CREATE TABLE IF NOT EXISTS chat_history (
		id TEXT PRIMARY KEY,
		role TEXT NOT NULL,
		content TEXT NOT NULL,
		created_at DATETIME NOT NULL
	);
	CREATE TABLE IF NOT EXISTS user_trades (
		id TEXT PRIMARY KEY,
		symbol TEXT NOT NULL,
		side TEXT NOT NULL,
		size REAL NOT NULL,
		entry_price REAL NOT NULL,
		exit_price REAL,
		pnl REAL,
		opened_at DATETIME NOT NULL,
		closed_at DATETIME
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// newID returns a ULID. IDs are time-sortable with monotonic entropy,
// so history queries order by primary key.
func newID() string {
	return ulid.Make().String()
}

// SaveContent stores one generated content piece.
func (s *SQLiteStore) SaveContent(ctx context.Context, item models.ContentResponse, marketContext string) (models.ContentHistoryItem, error) {
	hashtags, err := json.Marshal(item.Hashtags)
	if err != nil {
		return models.ContentHistoryItem{}, fmt.Errorf("failed to encode hashtags: %w", err)
	}

	saved := models.ContentHistoryItem{
		ID:            newID(),
		Persona:       item.Persona,
		Platform:      item.Platform,
		Content:       item.Content,
		Hashtags:      item.Hashtags,
		MarketContext: marketContext,
		CreatedAt:     nowUTC(),
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO content_history (id, persona, platform, content, hashtags, market_context, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		saved.ID, string(saved.Persona), string(saved.Platform), saved.Content,
		string(hashtags), saved.MarketContext, saved.CreatedAt)
	if err != nil {
		return models.ContentHistoryItem{}, fmt.Errorf("failed to save content: %w", err)
	}
	return saved, nil
}

// ContentHistory returns stored content, newest first.
func (s *SQLiteStore) ContentHistory(ctx context.Context, limit int) ([]models.ContentHistoryItem, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, persona, platform, content, hashtags, market_context, created_at
		FROM content_history ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query content history: %w", err)
	}
	defer rows.Close()

	items := []models.ContentHistoryItem{}
	for rows.Next() {
		var item models.ContentHistoryItem
		var hashtags sql.NullString
		var marketContext sql.NullString
		if err := rows.Scan(&item.ID, &item.Persona, &item.Platform, &item.Content,
			&hashtags, &marketContext, &item.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan content row: %w", err)
		}
		if hashtags.Valid && hashtags.String != "" {
			if err := json.Unmarshal([]byte(hashtags.String), &item.Hashtags); err != nil {
				item.Hashtags = nil
			}
		}
		item.MarketContext = marketContext.String
		items = append(items, item)
	}
	return items, rows.Err()
}

// SaveChatMessage stores one chat exchange entry.
func (s *SQLiteStore) SaveChatMessage(ctx context.Context, role models.ChatRole, content string) (models.ChatHistoryItem, error) {
	saved := models.ChatHistoryItem{
		ID:        newID(),
		Role:      role,
		Content:   content,
		CreatedAt: nowUTC(),
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO chat_history (id, role, content, created_at) VALUES (?, ?, ?, ?)`,
		saved.ID, string(saved.Role), saved.Content, saved.CreatedAt)
	if err != nil {
		return models.ChatHistoryItem{}, fmt.Errorf("failed to save chat message: %w", err)
	}
	return saved, nil
}

// ChatHistory returns stored chat messages, oldest first.
func (s *SQLiteStore) ChatHistory(ctx context.Context, limit int) ([]models.ChatHistoryItem, error) {
	if limit <= 0 {
		limit = 200
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, role, content, created_at
		FROM chat_history ORDER BY id ASC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query chat history: %w", err)
	}
	defer rows.Close()

	items := []models.ChatHistoryItem{}
	for rows.Next() {
		var item models.ChatHistoryItem
		if err := rows.Scan(&item.ID, &item.Role, &item.Content, &item.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan chat row: %w", err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// ClearChatHistory removes every stored chat message.
func (s *SQLiteStore) ClearChatHistory(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM chat_history`); err != nil {
		return fmt.Errorf("failed to clear chat history: %w", err)
	}
	return nil
}

// SaveTrades replaces the stored trade list with the uploaded one.
func (s *SQLiteStore) SaveTrades(ctx context.Context, trades []models.Trade) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM user_trades`); err != nil {
		return fmt.Errorf("failed to clear trades: %w", err)
	}
	for _, t := range trades {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO user_trades (id, symbol, side, size, entry_price, exit_price, pnl, opened_at, closed_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			t.ID, t.Symbol, string(t.Side), t.Size, t.EntryPrice,
			t.ExitPrice, t.PnL, t.OpenedAt, t.ClosedAt)
		if err != nil {
			return fmt.Errorf("failed to save trade %s: %w", t.ID, err)
		}
	}
	return tx.Commit()
}

// Trades returns the stored trade list in upload order.
func (s *SQLiteStore) Trades(ctx context.Context) ([]models.Trade, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, symbol, side, size, entry_price, exit_price, pnl, opened_at, closed_at
		FROM user_trades ORDER BY opened_at ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query trades: %w", err)
	}
	defer rows.Close()

	trades := []models.Trade{}
	for rows.Next() {
		var t models.Trade
		if err := rows.Scan(&t.ID, &t.Symbol, &t.Side, &t.Size, &t.EntryPrice,
			&t.ExitPrice, &t.PnL, &t.OpenedAt, &t.ClosedAt); err != nil {
			return nil, fmt.Errorf("failed to scan trade row: %w", err)
		}
		trades = append(trades, t)
	}
	return trades, rows.Err()
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
