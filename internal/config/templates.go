package config

import (
	"fmt"
	"os"
	"path/filepath"
)

const configTemplate = `# MarketMind Configuration

[server]
# HTTP listen address for the API server
addr = ":8000"
# SQLite database path for history and session state
db_path = ""
# Model passed to the AI engine when a request does not name one
default_model = "gpt-4o-mini"

[client]
# Base URL of the MarketMind API
base_url = "http://localhost:8000/api/v1"
# Symbol used when none is selected
default_symbol = "EURUSD"
# Number of points requested for the price chart
chart_points = 50
# SQLite path for persisted dashboard state (empty for in-memory only)
state_path = ""

[behavior]
# Consecutive closed losses before a loss streak is flagged (high at loss_streak_high)
loss_streak_min = 3
loss_streak_high = 5
# Window after a loss in which a larger same-symbol trade counts as revenge trading
revenge_window = "15m"
# Window after a close in which a same-symbol re-entry counts as rapid re-entry
rapid_reentry_window = "5m"
# Trade size as a multiple of the trailing average that counts as oversizing
oversize_multiple = 2.0
oversize_high_multiple = 3.0
# Relative size variance below which sizing counts as consistent
sizing_variance_band = 0.25
# Trades per half when comparing recent vs prior win rate
improving_window = 5

[ui]
color_enabled = true
date_format = "02-Jan-2006"
time_format = "15:04:05"
`

const credentialsTemplate = `# MarketMind Credentials
# Keep this file private. Values can also be supplied via environment
# variables: OPENAI_API_KEY, OPENAI_BASE_URL, MARKETMIND_TOKEN.

[openai]
api_key = ""
# Optional custom endpoint for OpenAI-compatible providers
base_url = ""
model = "gpt-4o-mini"

[auth]
# Cached bearer token for the MarketMind API
token = ""
`

func createTemplateConfig(configDir string) error {
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	path := filepath.Join(configDir, "config.toml")
	if _, err := os.Stat(path); err == nil {
		return nil
	}

	return os.WriteFile(path, []byte(configTemplate), 0644)
}

func createTemplateCredentials(configDir string) error {
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	path := filepath.Join(configDir, "credentials.toml")
	if _, err := os.Stat(path); err == nil {
		return nil
	}

	// Credentials are restricted to the owner.
	return os.WriteFile(path, []byte(credentialsTemplate), 0600)
}
