// Package wallet validates player wallet addresses. Player ids on the
// trade surface are Solana addresses: base58-encoded 32-byte ed25519
// public keys.
package wallet

import (
	"errors"
	"fmt"

	"filippo.io/edwards25519"
	"github.com/mr-tron/base58"
)

// Validation errors.
var (
	ErrEmptyAddress = errors.New("empty address")
	ErrNotOnCurve   = errors.New("public key not on ed25519 curve")
)

// Validate checks that addr is a plausible wallet address: base58,
// 32 bytes, and a valid curve point.
func Validate(addr string) error {
	if addr == "" {
		return ErrEmptyAddress
	}

	decoded, err := base58.Decode(addr)
	if err != nil {
		return fmt.Errorf("decode address: %w", err)
	}
	if len(decoded) != 32 {
		return fmt.Errorf("address must decode to 32 bytes, got %d", len(decoded))
	}

	if _, err := new(edwards25519.Point).SetBytes(decoded); err != nil {
		return ErrNotOnCurve
	}
	return nil
}
