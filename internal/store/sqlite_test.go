package store

import (
	"context"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"marketmind/internal/models"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSaveAndListContent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	base := time.Date(2026, 8, 29, 10, 0, 0, 0, time.UTC)
	stamp := base
	nowUTC = func() time.Time {
		stamp = stamp.Add(time.Second)
		return stamp
	}
	defer func() { nowUTC = func() time.Time { return time.Now().UTC() } }()

	first, err := s.SaveContent(ctx, models.ContentResponse{
		Persona:  models.PersonaCalmAnalyst,
		Platform: models.PlatformLinkedIn,
		Content:  "Stay calm. #Trading",
		Hashtags: []string{"#Trading"},
	}, "EURUSD dropped 3.0%.")
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}
	if first.ID == "" {
		t.Fatal("saved item should get an id")
	}

	second, err := s.SaveContent(ctx, models.ContentResponse{
		Persona:  models.PersonaDataNerd,
		Platform: models.PlatformTwitter,
		Content:  "Numbers don't lie.",
	}, "")
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}

	items, err := s.ContentHistory(ctx, 10)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(items))
	}
	// Newest first.
	if items[0].ID != second.ID || items[1].ID != first.ID {
		t.Errorf("expected newest-first ordering, got %s then %s", items[0].ID, items[1].ID)
	}
	if !reflect.DeepEqual(items[1].Hashtags, []string{"#Trading"}) {
		t.Errorf("hashtags not round-tripped: %v", items[1].Hashtags)
	}
	if items[1].MarketContext != "EURUSD dropped 3.0%." {
		t.Errorf("market context not stored: %q", items[1].MarketContext)
	}
}

func TestContentHistoryLimit(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		if _, err := s.SaveContent(ctx, models.ContentResponse{
			Persona:  models.PersonaTradingCoach,
			Platform: models.PlatformTwitter,
			Content:  "post",
		}, ""); err != nil {
			t.Fatalf("save failed: %v", err)
		}
	}

	items, err := s.ContentHistory(ctx, 3)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(items) != 3 {
		t.Errorf("limit not applied, got %d items", len(items))
	}
}

func TestChatHistoryLifecycle(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if _, err := s.SaveChatMessage(ctx, models.RoleUser, "am I overtrading?"); err != nil {
		t.Fatalf("save failed: %v", err)
	}
	if _, err := s.SaveChatMessage(ctx, models.RoleAssistant, "Let's look at your patterns."); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	items, err := s.ChatHistory(ctx, 0)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(items))
	}
	// Oldest first, transcript order.
	if items[0].Role != models.RoleUser || items[1].Role != models.RoleAssistant {
		t.Errorf("unexpected order: %s then %s", items[0].Role, items[1].Role)
	}

	if err := s.ClearChatHistory(ctx); err != nil {
		t.Fatalf("clear failed: %v", err)
	}
	items, err = s.ChatHistory(ctx, 0)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(items) != 0 {
		t.Errorf("history should be empty after clear, got %d", len(items))
	}
}

func TestSaveTradesReplaces(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	pnl := -120.0
	exit := 1.0801
	closed := time.Date(2026, 8, 28, 15, 30, 0, 0, time.UTC)
	first := []models.Trade{
		{ID: "t1", Symbol: "EURUSD", Side: models.SideSell, Size: 1.5, EntryPrice: 1.0850,
			ExitPrice: &exit, PnL: &pnl,
			OpenedAt: time.Date(2026, 8, 28, 14, 0, 0, 0, time.UTC), ClosedAt: &closed},
		{ID: "t2", Symbol: "GBPUSD", Side: models.SideBuy, Size: 1.0, EntryPrice: 1.2700,
			OpenedAt: time.Date(2026, 8, 28, 16, 0, 0, 0, time.UTC)},
	}
	if err := s.SaveTrades(ctx, first); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	got, err := s.Trades(ctx)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 trades, got %d", len(got))
	}
	if got[0].ID != "t1" || got[1].ID != "t2" {
		t.Errorf("expected open-time ordering, got %s then %s", got[0].ID, got[1].ID)
	}
	if got[0].PnL == nil || *got[0].PnL != -120.0 {
		t.Errorf("pnl not round-tripped: %v", got[0].PnL)
	}
	if got[1].PnL != nil || got[1].ClosedAt != nil {
		t.Errorf("open trade should keep nil exit fields: %+v", got[1])
	}

	// A second upload replaces the first.
	if err := s.SaveTrades(ctx, first[:1]); err != nil {
		t.Fatalf("save failed: %v", err)
	}
	got, err = s.Trades(ctx)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(got) != 1 {
		t.Errorf("upload should replace prior trades, got %d", len(got))
	}
}
