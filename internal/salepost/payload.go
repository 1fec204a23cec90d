package salepost

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// CreatePayload is the body of a create request. Numeric fields stay raw so
// each can be reported with its own validation message.
type CreatePayload struct {
	Category    json.RawMessage `json:"category"`
	Region      json.RawMessage `json:"region"`
	Title       string          `json:"post_title"`
	Description string          `json:"description"`
	Price       json.RawMessage `json:"product_price"`
	Latitude    json.RawMessage `json:"latitude"`
	Longitude   json.RawMessage `json:"longitude"`
	MinUsage    json.RawMessage `json:"min_usage"`
	MaxUsage    json.RawMessage `json:"max_usage"`
	Attributes  map[string]any  `json:"attributes"`
}

// UpdatePayload is the body of an update request. Absent fields are kept.
type UpdatePayload struct {
	Title       *string         `json:"post_title"`
	Description *string         `json:"description"`
	Price       json.RawMessage `json:"product_price"`
	Attributes  map[string]any  `json:"attributes"`
}

func absent(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) == 0 || string(trimmed) == "null" || string(trimmed) == `""`
}

// unquote returns the raw text of a JSON number or the contents of a JSON string.
func unquote(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strings.TrimSpace(s)
	}
	return strings.TrimSpace(string(raw))
}

// parseID reads an id sent as a JSON number or numeric string.
func parseID(raw json.RawMessage) (int64, bool) {
	id, err := strconv.ParseInt(unquote(raw), 10, 64)
	return id, err == nil
}

// parsePrice accepts only a JSON number.
func parsePrice(raw json.RawMessage) (decimal.Decimal, bool) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] == '"' {
		return decimal.Decimal{}, false
	}
	d, err := decimal.NewFromString(string(trimmed))
	return d, err == nil
}

func parseFloat(raw json.RawMessage) (float64, bool) {
	f, err := strconv.ParseFloat(unquote(raw), 64)
	return f, err == nil
}
