package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"marketmind/internal/errors"
	"marketmind/internal/models"
	"marketmind/pkg/utils"
)

func newTestClient(url string, token string) *Client {
	c := NewClient(url, NewStaticToken(token), zerolog.Nop())
	c.retry = utils.RetryConfig{MaxAttempts: 2, InitialDelay: time.Millisecond, MaxDelay: time.Millisecond, BackoffFactor: 1}
	return c
}

func TestMarketDataRequestShape(t *testing.T) {
	var gotPath, gotAuth string
	var gotQuery map[string][]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.Query()
		gotAuth = r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"market_data":{"symbol":"EURUSD","change_pct":-3.0},"explanation":"Sharp drop.","coaching_message":"Breathe."}`))
	}))
	defer srv.Close()

	c := newTestClient(srv.URL, "tok-123")
	resp, err := c.MarketData(context.Background(), "EURUSD", true, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if gotPath != "/market" {
		t.Errorf("path = %q", gotPath)
	}
	if gotAuth != "Bearer tok-123" {
		t.Errorf("auth header = %q", gotAuth)
	}
	for key, want := range map[string]string{
		"symbol": "EURUSD", "simulate_drop": "true", "simulate_rise": "false", "include_coaching": "true",
	} {
		if len(gotQuery[key]) == 0 || gotQuery[key][0] != want {
			t.Errorf("query %s = %v, want %s", key, gotQuery[key], want)
		}
	}
	if resp.MarketData.Symbol != "EURUSD" || resp.Explanation != "Sharp drop." {
		t.Errorf("unexpected response: %+v", resp)
	}
}

func TestUnauthorizedClearsToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	tokens := NewStaticToken("stale")
	c := NewClient(srv.URL, tokens, zerolog.Nop())
	c.retry = utils.RetryConfig{MaxAttempts: 3, InitialDelay: time.Millisecond, BackoffFactor: 1, MaxDelay: time.Millisecond}

	_, err := c.MarketData(context.Background(), "EURUSD", false, false)
	if !errors.Is(err, errors.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
	if tokens.Token() != "" {
		t.Error("token should be cleared after 401")
	}
}

func TestUnauthorizedNotRetried(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	c := newTestClient(srv.URL, "tok")
	_, _ = c.ChartData(context.Background(), "EURUSD", false, false, 50)
	if calls != 1 {
		t.Errorf("401 should not be retried, saw %d calls", calls)
	}
}

func TestServerErrorDetailSurfaced(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"detail":"unknown persona"}`))
	}))
	defer srv.Close()

	c := newTestClient(srv.URL, "")
	_, err := c.GenerateContent(context.Background(), models.ContentRequest{Persona: "x", Platform: models.PlatformTwitter})
	var se *errors.ServiceError
	if !errors.As(err, &se) {
		t.Fatalf("expected ServiceError, got %v", err)
	}
	if se.StatusCode != http.StatusBadRequest || se.Message != "unknown persona" {
		t.Errorf("unexpected service error: %+v", se)
	}
	if se.UserMessage() != "unknown persona" {
		t.Errorf("user message = %q", se.UserMessage())
	}
}

func TestServerErrorWithoutDetail(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := newTestClient(srv.URL, "")
	_, err := c.CoachingInsight(context.Background(), "ctx", "")
	var se *errors.ServiceError
	if !errors.As(err, &se) {
		t.Fatalf("expected ServiceError, got %v", err)
	}
	if se.Message != "API error: 500" {
		t.Errorf("message = %q", se.Message)
	}
	if se.UserMessage() != "API error: 500" {
		t.Errorf("user message = %q", se.UserMessage())
	}
}

func TestConnectionFailureIsGeneric(t *testing.T) {
	c := newTestClient("http://127.0.0.1:1", "")
	c.http.Timeout = 200 * time.Millisecond

	_, err := c.BehaviorAnalysis(context.Background(), nil)
	var se *errors.ServiceError
	if !errors.As(err, &se) {
		t.Fatalf("expected ServiceError, got %v", err)
	}
	if se.UserMessage() != errors.GenericServiceMessage {
		t.Errorf("user message = %q", se.UserMessage())
	}
}

func TestBehaviorAnalysisBody(t *testing.T) {
	var gotBody string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		buf := make([]byte, r.ContentLength)
		r.Body.Read(buf)
		gotBody = string(buf)
		w.Write([]byte(`{"patterns":[],"risk_level":"low","coaching_message":"","summary":"No trades to analyze."}`))
	}))
	defer srv.Close()

	c := newTestClient(srv.URL, "")

	// Nil trades means no body: the server falls back to sample data.
	if _, err := c.BehaviorAnalysis(context.Background(), nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotBody != "" {
		t.Errorf("nil trades should send empty body, got %q", gotBody)
	}

	trades := []models.Trade{{ID: "t1", Symbol: "EURUSD", Side: "buy", Size: 1, EntryPrice: 1.08}}
	if _, err := c.BehaviorAnalysis(context.Background(), trades); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotBody == "" || !strings.Contains(gotBody, `"trades"`) || !strings.Contains(gotBody, `"t1"`) {
		t.Errorf("trade body not sent: %q", gotBody)
	}
}

func TestGetRetriesTransientFailures(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte(`{"symbol":"EURUSD","data":[]}`))
	}))
	defer srv.Close()

	c := newTestClient(srv.URL, "")
	resp, err := c.ChartData(context.Background(), "EURUSD", false, false, 50)
	if err != nil {
		t.Fatalf("expected retry to recover, got %v", err)
	}
	if calls != 2 {
		t.Errorf("expected 2 calls, got %d", calls)
	}
	if resp.Symbol != "EURUSD" {
		t.Errorf("unexpected response: %+v", resp)
	}
}
