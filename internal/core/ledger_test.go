package core

import (
	"fmt"
	"testing"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	"github.com/stretchr/testify/require"

	"ghost-backend/internal/merkle"
	"ghost-backend/internal/types"
)

func hashNum(i uint64) types.Hash {
	var e fr.Element
	e.SetUint64(i)
	return merkle.ToHash(e)
}

func TestNewLedgerStartsAtEmptyRoot(t *testing.T) {
	l := NewLedger()
	require.Equal(t, merkle.EmptyRoot(), l.Root())
	require.True(t, l.IsKnownRoot(merkle.EmptyRoot()))
	require.EqualValues(t, 0, l.LeafCount())
}

func TestInsertAssignsSequentialIndices(t *testing.T) {
	l := NewLedger()
	for i := uint64(0); i < 5; i++ {
		idx, err := l.Insert(hashNum(i + 100))
		require.NoError(t, err)
		require.Equal(t, i, idx)
	}
	require.EqualValues(t, 5, l.LeafCount())
	require.EqualValues(t, 5, l.NextLeafIndex())

	got, err := l.Commitment(3)
	require.NoError(t, err)
	require.Equal(t, hashNum(103), got)
}

func TestInsertRejectsNonCanonical(t *testing.T) {
	l := NewLedger()
	var bad types.Hash
	for i := range bad {
		bad[i] = 0xff
	}
	_, err := l.Insert(bad)
	require.ErrorIs(t, err, types.ErrInvalidInput)
	require.EqualValues(t, 0, l.LeafCount())
}

func TestInsertAtCapacity(t *testing.T) {
	l := NewLedger()
	l.restore(make([]types.Hash, types.Capacity), nil)

	_, err := l.Insert(hashNum(1))
	require.ErrorIs(t, err, types.ErrCapacityExceeded)

	_, err = l.InsertAndUpdateRoot(hashNum(1), hashNum(2))
	require.ErrorIs(t, err, types.ErrCapacityExceeded)
}

func TestSubmitRootLeafCountGuard(t *testing.T) {
	l := NewLedger()
	_, err := l.Insert(hashNum(1))
	require.NoError(t, err)

	// A root built before the insert carries the wrong leaf count.
	require.ErrorIs(t, l.SubmitRoot(hashNum(50), 0), types.ErrStaleState)
	require.Equal(t, merkle.EmptyRoot(), l.Root())

	require.NoError(t, l.SubmitRoot(hashNum(50), 1))
	require.Equal(t, hashNum(50), l.Root())
}

func TestSubmitRootDuplicate(t *testing.T) {
	l := NewLedger()
	require.NoError(t, l.SubmitRoot(hashNum(50), 0))
	require.ErrorIs(t, l.SubmitRoot(hashNum(50), 0), types.ErrDuplicateSubmission)

	// Resubmitting an older, non-active root is allowed; only the
	// active root is duplicate-guarded.
	require.NoError(t, l.SubmitRoot(hashNum(60), 0))
	require.NoError(t, l.SubmitRoot(hashNum(50), 0))
}

func TestKnownRootPermanence(t *testing.T) {
	l := NewLedger()

	const rounds = 150
	for i := uint64(0); i < rounds; i++ {
		_, err := l.Insert(hashNum(1000 + i))
		require.NoError(t, err)
		require.NoError(t, l.SubmitRoot(hashNum(1), i+1), "round %d", i)

		// Rotate back to a distinct root per round.
		require.NoError(t, l.SubmitRoot(hashNum(2000+i), i+1))
	}

	// Far more roots were activated than the recency buffer holds, yet
	// every one of them remains a member of the known-root set.
	for i := uint64(0); i < rounds; i++ {
		require.True(t, l.IsKnownRoot(hashNum(2000+i)), "root of round %d", i)
	}
	require.True(t, l.IsKnownRoot(merkle.EmptyRoot()))
}

func TestHistoricalRootRingBuffer(t *testing.T) {
	l := NewLedger()

	// Slot 0 was taken by the empty root at construction.
	require.Equal(t, merkle.EmptyRoot(), l.HistoricalRoot(0))

	for i := uint64(0); i < types.RootHistorySize; i++ {
		require.NoError(t, l.SubmitRoot(hashNum(3000+i), 0))
	}

	// The buffer wrapped: slot 0 now holds the last submitted root and
	// the index argument wraps modulo the buffer size.
	last := hashNum(3000 + types.RootHistorySize - 1)
	require.Equal(t, last, l.HistoricalRoot(0))
	require.Equal(t, last, l.HistoricalRoot(types.RootHistorySize))
	require.Equal(t, hashNum(3000), l.HistoricalRoot(1))

	// Eviction from the buffer never touches the known set.
	require.True(t, l.IsKnownRoot(merkle.EmptyRoot()))
}

func TestCommitmentsRange(t *testing.T) {
	l := NewLedger()
	for i := uint64(0); i < 10; i++ {
		_, err := l.Insert(hashNum(i))
		require.NoError(t, err)
	}

	got, err := l.Commitments(2, 3)
	require.NoError(t, err)
	require.Equal(t, []types.Hash{hashNum(2), hashNum(3), hashNum(4)}, got)

	// Reads past the end are clamped, not failed.
	got, err = l.Commitments(8, 100)
	require.NoError(t, err)
	require.Len(t, got, 2)

	got, err = l.Commitments(10, 5)
	require.NoError(t, err)
	require.Empty(t, got)

	_, err = l.Commitments(11, 1)
	require.ErrorIs(t, err, types.ErrOutOfRange)

	_, err = l.Commitment(10)
	require.ErrorIs(t, err, types.ErrOutOfRange)
}

func TestCommitmentsRangeClamp(t *testing.T) {
	l := NewLedger()
	n := uint64(MaxRangeRead + 10)
	leaves := make([]types.Hash, n)
	for i := range leaves {
		leaves[i] = hashNum(uint64(i))
	}
	l.restore(leaves, nil)

	got, err := l.Commitments(0, n)
	require.NoError(t, err)
	require.Len(t, got, MaxRangeRead)
}

func TestVerifyProofNotSupported(t *testing.T) {
	l := NewLedger()
	err := l.VerifyProof(hashNum(1), []types.Hash{hashNum(2)}, []uint32{0})
	require.ErrorIs(t, err, types.ErrNotSupported)
}

func TestRestoreRebuildsRootHistory(t *testing.T) {
	l := NewLedger()
	leaves := []types.Hash{hashNum(1), hashNum(2)}
	roots := make([]types.Hash, 0, 40)
	for i := uint64(0); i < 40; i++ {
		roots = append(roots, hashNum(5000+i))
	}

	l.restore(leaves, roots)

	require.EqualValues(t, 2, l.LeafCount())
	require.Equal(t, roots[len(roots)-1], l.Root())
	for i, r := range roots {
		require.True(t, l.IsKnownRoot(r), fmt.Sprintf("root %d", i))
	}
}
