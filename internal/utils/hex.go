package utils

import (
	"encoding/hex"
	"strings"

	"github.com/ethereum/go-ethereum/common"

	"ghost-backend/internal/types"
)

// ParseHash parses a 0x-prefixed (or bare) 32-byte hex string into a
// protocol hash. Truncated or malformed input is ErrInvalidInput; the
// value is not silently left-padded.
func ParseHash(s string) (types.Hash, error) {
	raw, err := decodeHex(s)
	if err != nil || len(raw) != common.HashLength {
		return types.Hash{}, types.ErrInvalidInput
	}
	return common.BytesToHash(raw), nil
}

// ParseAddress parses a 20-byte hex principal address.
func ParseAddress(s string) (types.Address, error) {
	raw, err := decodeHex(s)
	if err != nil || len(raw) != common.AddressLength {
		return types.Address{}, types.ErrInvalidInput
	}
	return common.BytesToAddress(raw), nil
}

// ParseHashes parses a slice of hashes, failing on the first bad entry.
func ParseHashes(in []string) ([]types.Hash, error) {
	out := make([]types.Hash, 0, len(in))
	for _, s := range in {
		h, err := ParseHash(s)
		if err != nil {
			return nil, err
		}
		out = append(out, h)
	}
	return out, nil
}

// ParseProof decodes a hex-encoded proof blob. Empty proofs are
// rejected before they ever reach the verifier.
func ParseProof(s string) ([]byte, error) {
	raw, err := decodeHex(s)
	if err != nil || len(raw) == 0 {
		return nil, types.ErrInvalidInput
	}
	return raw, nil
}

func decodeHex(s string) ([]byte, error) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "0x")
	return hex.DecodeString(s)
}
