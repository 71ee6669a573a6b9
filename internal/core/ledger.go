// Package core implements the protocol state machine: the append-only
// commitment ledger with its root history, the nullifier registry, the
// vault balances and the ghost/redeem coordinator that ties them
// together. Everything here is in-memory and synchronous; persistence,
// eventing and transport live in the service layer on top.
package core

import (
	"ghost-backend/internal/merkle"
	"ghost-backend/internal/types"
)

// MaxRangeRead bounds a single Commitments range read. External parties
// replaying the full ledger page through it.
const MaxRangeRead = 4096

// Ledger is the append-only commitment list plus its root history.
// Insertion order is identity: a commitment's leaf index never changes.
//
// Root history is deliberately two structures (not one): an unbounded
// known-root set whose membership is permanent, and a small fixed ring
// buffer that only serves indexed recency lookups. Eviction from the
// buffer never invalidates membership in the set.
type Ledger struct {
	commitments []types.Hash
	activeRoot  types.Hash
	known       map[types.Hash]struct{}
	recent      [types.RootHistorySize]types.Hash
	cursor      int
}

// NewLedger returns an empty ledger whose active root is the
// empty-tree root, already a member of the known-root set.
func NewLedger() *Ledger {
	l := &Ledger{
		known: make(map[types.Hash]struct{}),
	}
	l.setRoot(merkle.EmptyRoot())
	return l
}

func (l *Ledger) setRoot(root types.Hash) {
	l.activeRoot = root
	l.recent[l.cursor] = root
	l.cursor = (l.cursor + 1) % types.RootHistorySize
	l.known[root] = struct{}{}
}

// Insert appends a commitment and returns its leaf index.
func (l *Ledger) Insert(commitment types.Hash) (uint64, error) {
	if len(l.commitments) >= types.Capacity {
		return 0, types.ErrCapacityExceeded
	}
	if !merkle.ValidElement(commitment) {
		return 0, types.ErrInvalidInput
	}
	l.commitments = append(l.commitments, commitment)
	return uint64(len(l.commitments) - 1), nil
}

// SubmitRoot activates a root computed off-ledger. leafCount pins the
// ledger length the root was computed for; a mismatch means the
// submitter replayed a different snapshot and the root is rejected.
func (l *Ledger) SubmitRoot(newRoot types.Hash, leafCount uint64) error {
	if !merkle.ValidElement(newRoot) {
		return types.ErrInvalidInput
	}
	if leafCount != uint64(len(l.commitments)) {
		return types.ErrStaleState
	}
	if newRoot == l.activeRoot {
		return types.ErrDuplicateSubmission
	}
	l.setRoot(newRoot)
	return nil
}

// InsertAndUpdateRoot appends a commitment and activates the matching
// root in one step. Fast path for a trusted relayer that computes the
// post-insert root itself; both halves validate before either applies.
func (l *Ledger) InsertAndUpdateRoot(commitment, newRoot types.Hash) (uint64, error) {
	if len(l.commitments) >= types.Capacity {
		return 0, types.ErrCapacityExceeded
	}
	if !merkle.ValidElement(commitment) || !merkle.ValidElement(newRoot) {
		return 0, types.ErrInvalidInput
	}
	if newRoot == l.activeRoot {
		return 0, types.ErrDuplicateSubmission
	}
	l.commitments = append(l.commitments, commitment)
	l.setRoot(newRoot)
	return uint64(len(l.commitments) - 1), nil
}

// Root returns the currently active root.
func (l *Ledger) Root() types.Hash {
	return l.activeRoot
}

// IsKnownRoot reports permanent membership in the known-root set.
func (l *Ledger) IsKnownRoot(root types.Hash) bool {
	_, ok := l.known[root]
	return ok
}

// HistoricalRoot reads the bounded recency buffer; the index wraps
// modulo the buffer size. Slots never written hold the zero value.
func (l *Ledger) HistoricalRoot(i uint64) types.Hash {
	return l.recent[i%types.RootHistorySize]
}

// LeafCount returns the number of commitments.
func (l *Ledger) LeafCount() uint64 {
	return uint64(len(l.commitments))
}

// NextLeafIndex returns the index the next insert will take.
func (l *Ledger) NextLeafIndex() uint64 {
	return uint64(len(l.commitments))
}

// Commitment reads a single commitment by leaf index.
func (l *Ledger) Commitment(i uint64) (types.Hash, error) {
	if i >= uint64(len(l.commitments)) {
		return types.Hash{}, types.ErrOutOfRange
	}
	return l.commitments[i], nil
}

// Commitments reads a bounded range [start, start+count). count is
// clamped to MaxRangeRead and to the ledger length; the returned slice
// is a copy.
func (l *Ledger) Commitments(start, count uint64) ([]types.Hash, error) {
	n := uint64(len(l.commitments))
	if start > n {
		return nil, types.ErrOutOfRange
	}
	if count > MaxRangeRead {
		count = MaxRangeRead
	}
	end := start + count
	if end > n {
		end = n
	}
	out := make([]types.Hash, end-start)
	copy(out, l.commitments[start:end])
	return out, nil
}

// VerifyProof always fails. Merkle path verification belongs to the
// proof circuit; the ledger does not duplicate that computation.
func (l *Ledger) VerifyProof(root types.Hash, path []types.Hash, indices []uint32) error {
	return types.ErrNotSupported
}

// restore rebuilds ledger state from persisted records: the full
// commitment sequence and the root history in submission order.
func (l *Ledger) restore(commitments []types.Hash, roots []types.Hash) {
	l.commitments = append(l.commitments[:0], commitments...)
	for _, r := range roots {
		l.setRoot(r)
	}
}
