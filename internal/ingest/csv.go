// Package ingest parses uploaded trade records into normalized trades.
package ingest

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"marketmind/internal/errors"
	"marketmind/internal/models"
)

// RequiredFields are the header columns every trade import must carry.
var RequiredFields = []string{"id", "symbol", "side", "size", "entry_price", "timestamp"}

var timeLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// ParseTrades reads delimited trade records from r. The first row must be a
// header naming at least the RequiredFields. Data rows whose field count
// does not match the header are skipped; unparseable numeric fields default
// to zero (size, entry_price) or nil (exit_price, pnl). An empty id gets a
// positional placeholder unique within this import only.
func ParseTrades(r io.Reader) ([]models.Trade, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	rows, err := cr.ReadAll()
	if err != nil {
		return nil, errors.NewFormatError(fmt.Sprintf("reading rows: %v", err))
	}
	if len(rows) < 2 {
		return nil, errors.NewFormatError("import needs a header row and at least one data row")
	}

	header := make([]string, len(rows[0]))
	for i, h := range rows[0] {
		header[i] = strings.ToLower(strings.TrimSpace(h))
	}

	for _, field := range RequiredFields {
		if !contains(header, field) {
			return nil, errors.MissingField(field)
		}
	}

	trades := make([]models.Trade, 0, len(rows)-1)
	for i := 1; i < len(rows); i++ {
		values := rows[i]
		if len(values) != len(header) {
			continue
		}

		row := make(map[string]string, len(header))
		for j, h := range header {
			row[h] = strings.TrimSpace(values[j])
		}

		openedAt, ok := parseTime(row["timestamp"])
		if !ok {
			continue
		}

		id := row["id"]
		if id == "" {
			id = fmt.Sprintf("t%d", i)
		}

		trades = append(trades, models.Trade{
			ID:         id,
			Symbol:     row["symbol"],
			Side:       models.OrderSide(strings.ToLower(row["side"])),
			Size:       parseFloat(row["size"]),
			EntryPrice: parseFloat(row["entry_price"]),
			ExitPrice:  parseOptionalFloat(row["exit_price"]),
			PnL:        parseOptionalFloat(row["pnl"]),
			OpenedAt:   openedAt,
			ClosedAt:   parseOptionalTime(row["closed_at"]),
		})
	}

	return trades, nil
}

func contains(fields []string, name string) bool {
	for _, f := range fields {
		if f == name {
			return true
		}
	}
	return false
}

func parseFloat(s string) float64 {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}

func parseOptionalFloat(s string) *float64 {
	if s == "" {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &v
}

func parseTime(s string) (time.Time, bool) {
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func parseOptionalTime(s string) *time.Time {
	if s == "" {
		return nil
	}
	if t, ok := parseTime(s); ok {
		return &t
	}
	return nil
}
