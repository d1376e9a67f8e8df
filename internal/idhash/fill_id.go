package idhash

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// ComputeFillID computes a deterministic fill id using SHA256.
// Formula: SHA256(player_id|strategy_id|round_id|seq)
// Returns hex-encoded hash (64 characters).
func ComputeFillID(playerID, strategyID, roundID string, seq int64) string {
	data := fmt.Sprintf("%s|%s|%s|%d",
		playerID,
		strategyID,
		roundID,
		seq,
	)

	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:])
}

// ComputeRoundKey computes a deterministic persistence key for one traded
// round. Formula: SHA256(game_id|started_at_ms). The same upstream game
// id seen in two sessions maps to distinct keys.
func ComputeRoundKey(gameID string, startedAtMs int64) string {
	data := fmt.Sprintf("%s|%d", gameID, startedAtMs)
	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:])
}
