package core

import (
	"ghost-backend/internal/merkle"
	"ghost-backend/internal/types"
)

// NullifierSet tracks spent nullifiers. A nullifier is an opaque
// single-use token: marked exactly once, never unmarked. The set keeps
// no mapping back to commitments or amounts — storing one would link
// deposits to redemptions and defeat the privacy goal.
type NullifierSet struct {
	spent map[types.Hash]struct{}
	count uint64
}

// NewNullifierSet returns an empty registry.
func NewNullifierSet() *NullifierSet {
	return &NullifierSet{spent: make(map[types.Hash]struct{})}
}

// IsSpent reports whether n has been marked.
func (s *NullifierSet) IsSpent(n types.Hash) bool {
	_, ok := s.spent[n]
	return ok
}

// BatchIsSpent returns the spent flag for each input, in order.
func (s *NullifierSet) BatchIsSpent(ns []types.Hash) []bool {
	out := make([]bool, len(ns))
	for i, n := range ns {
		out[i] = s.IsSpent(n)
	}
	return out
}

// MarkSpent marks n as spent. The reserved zero value is forbidden;
// marking twice fails with ErrAlreadySpent and is never recoverable.
func (s *NullifierSet) MarkSpent(n types.Hash) error {
	if n == types.ZeroHash || !merkle.ValidElement(n) {
		return types.ErrInvalidInput
	}
	if _, ok := s.spent[n]; ok {
		return types.ErrAlreadySpent
	}
	s.spent[n] = struct{}{}
	s.count++
	return nil
}

// SpentCount returns the monotone count of marked nullifiers.
func (s *NullifierSet) SpentCount() uint64 {
	return s.count
}

func (s *NullifierSet) restore(ns []types.Hash) {
	for _, n := range ns {
		if _, ok := s.spent[n]; !ok {
			s.spent[n] = struct{}{}
			s.count++
		}
	}
}
