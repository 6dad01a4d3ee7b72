// Package chain validates token contract addresses per blockchain.
// Malformed addresses in persisted records are logged and skipped by
// callers rather than failing a whole batch.
package chain

import (
	"fmt"
	"regexp"
	"strings"

	"filippo.io/edwards25519"
	"github.com/mr-tron/base58"
)

// Supported blockchains.
const (
	Ethereum = "ethereum"
	Solana   = "solana"
)

var ethAddressRe = regexp.MustCompile(`^0x[0-9a-fA-F]{40}$`)

// ValidateAddress checks that address is well-formed for the given
// blockchain. Ethereum addresses are 20-byte hex with an 0x prefix.
// Solana addresses are base58-encoded 32-byte ed25519 points; off-curve
// values are program-derived addresses and still accepted as mints are
// occasionally PDAs.
func ValidateAddress(address, blockchain string) error {
	switch strings.ToLower(blockchain) {
	case Ethereum:
		if !ethAddressRe.MatchString(address) {
			return fmt.Errorf("malformed ethereum address: %q", address)
		}
		return nil

	case Solana:
		decoded, err := base58.Decode(address)
		if err != nil {
			return fmt.Errorf("malformed solana address %q: %w", address, err)
		}
		if len(decoded) != 32 {
			return fmt.Errorf("solana address %q: decoded to %d bytes, want 32", address, len(decoded))
		}
		return nil

	default:
		return fmt.Errorf("unsupported blockchain: %q", blockchain)
	}
}

// IsOnCurve reports whether a base58 solana address decodes to a valid
// ed25519 curve point. Wallet addresses are on-curve; program-derived
// addresses are not.
func IsOnCurve(address string) bool {
	decoded, err := base58.Decode(address)
	if err != nil || len(decoded) != 32 {
		return false
	}
	_, err = new(edwards25519.Point).SetBytes(decoded)
	return err == nil
}
