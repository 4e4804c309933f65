package store

import (
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestState(t *testing.T, session string) *StateStore {
	t.Helper()
	path := filepath.Join(t.TempDir(), "state.db")
	s, err := OpenState(path, session, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestStateRoundTrip(t *testing.T) {
	s := openTestState(t, "default")

	s.Set("dash_symbol", "GBPUSD")

	var symbol string
	require.True(t, s.Get("dash_symbol", &symbol))
	assert.Equal(t, "GBPUSD", symbol)

	s.Set("dash_symbol", "EURUSD")
	require.True(t, s.Get("dash_symbol", &symbol))
	assert.Equal(t, "EURUSD", symbol)
}

func TestStateMissingKeyKeepsDefault(t *testing.T) {
	s := openTestState(t, "default")

	symbol := "EURUSD"
	assert.False(t, s.Get("dash_symbol", &symbol))
	assert.Equal(t, "EURUSD", symbol)
}

func TestStateNilRemoves(t *testing.T) {
	s := openTestState(t, "default")

	s.Set("dash_platform", "twitter")
	s.Set("dash_platform", nil)

	var platform string
	assert.False(t, s.Get("dash_platform", &platform))
}

func TestStateClear(t *testing.T) {
	s := openTestState(t, "default")

	s.Set("dash_insight", map[string]string{"coaching_insight": "breathe"})
	s.Clear("dash_insight")

	var out map[string]string
	assert.False(t, s.Get("dash_insight", &out))
}

func TestStateScopedBySession(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.db")
	a, err := OpenState(path, "alpha", zerolog.Nop())
	require.NoError(t, err)
	defer a.Close()
	b, err := OpenState(path, "beta", zerolog.Nop())
	require.NoError(t, err)
	defer b.Close()

	a.Set("dash_symbol", "EURUSD")

	var symbol string
	assert.False(t, b.Get("dash_symbol", &symbol))
	require.True(t, a.Get("dash_symbol", &symbol))
	assert.Equal(t, "EURUSD", symbol)
}

func TestStateCorruptValueKeepsDefault(t *testing.T) {
	s := openTestState(t, "default")

	_, err := s.db.Exec(
		`INSERT INTO ui_state (session_id, key, value, updated_at) VALUES (?, ?, ?, CURRENT_TIMESTAMP)`,
		"default", "dash_market", "{not json",
	)
	require.NoError(t, err)

	var out map[string]any
	assert.False(t, s.Get("dash_market", &out))
}
