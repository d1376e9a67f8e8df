package game

import (
	"encoding/json"
	"strconv"
	"strings"
)

// MsgGameStateUpdate is the upstream message type the engine consumes.
const MsgGameStateUpdate = "gameStateUpdate"

// stateUpdate mirrors the upstream gameStateUpdate payload. Price and
// tick are kept raw so one unparseable field never rejects the rest of
// the update.
type stateUpdate struct {
	GameID            string          `json:"gameId"`
	TickCount         json.RawMessage `json:"tickCount"`
	Price             json.RawMessage `json:"price"`
	Active            *bool           `json:"active"`
	AllowPreRoundBuys *bool           `json:"allowPreRoundBuys"`
	Rugged            *bool           `json:"rugged"`
	CooldownTimer     json.RawMessage `json:"cooldownTimer"`
}

// parseFloat accepts a JSON number or a numeric string.
func parseFloat(raw json.RawMessage) (float64, bool) {
	if len(raw) == 0 {
		return 0, false
	}

	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return f, true
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err == nil {
			return f, true
		}
	}

	return 0, false
}

// parseInt accepts a JSON integer or a numeric string.
func parseInt(raw json.RawMessage) (int64, bool) {
	if len(raw) == 0 {
		return 0, false
	}

	var n int64
	if err := json.Unmarshal(raw, &n); err == nil {
		return n, true
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
		if err == nil {
			return n, true
		}
	}

	return 0, false
}
