package services

import (
	"context"
	"math/big"
	"sort"
	"testing"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"

	"ghost-backend/internal/core"
	"ghost-backend/internal/merkle"
	"ghost-backend/internal/models"
	"ghost-backend/internal/types"
)

var (
	owner     = common.HexToAddress("0x1000000000000000000000000000000000000001")
	alice     = common.HexToAddress("0x2000000000000000000000000000000000000002")
	bob       = common.HexToAddress("0x3000000000000000000000000000000000000003")
	testAsset = hashNum(777)
)

func hashNum(i uint64) types.Hash {
	var e fr.Element
	e.SetUint64(i)
	return merkle.ToHash(e)
}

// ---- in-memory fakes for the repository interfaces ----

type memLedgerRepo struct {
	commitments []*models.LedgerCommitment
	roots       []*models.LedgerRoot
}

func (m *memLedgerRepo) AppendCommitment(_ context.Context, rec *models.LedgerCommitment) error {
	m.commitments = append(m.commitments, rec)
	return nil
}

func (m *memLedgerRepo) ListCommitments(_ context.Context) ([]*models.LedgerCommitment, error) {
	out := append([]*models.LedgerCommitment(nil), m.commitments...)
	sort.Slice(out, func(i, j int) bool { return out[i].LeafIndex < out[j].LeafIndex })
	return out, nil
}

func (m *memLedgerRepo) CommitmentCount(_ context.Context) (int64, error) {
	return int64(len(m.commitments)), nil
}

func (m *memLedgerRepo) AppendRoot(_ context.Context, rec *models.LedgerRoot) error {
	rec.Seq = uint64(len(m.roots) + 1)
	m.roots = append(m.roots, rec)
	return nil
}

func (m *memLedgerRepo) ListRoots(_ context.Context) ([]*models.LedgerRoot, error) {
	return append([]*models.LedgerRoot(nil), m.roots...), nil
}

type memNullifierRepo struct {
	marked []*models.SpentNullifier
}

func (m *memNullifierRepo) Mark(_ context.Context, rec *models.SpentNullifier) error {
	m.marked = append(m.marked, rec)
	return nil
}

func (m *memNullifierRepo) List(_ context.Context) ([]*models.SpentNullifier, error) {
	return append([]*models.SpentNullifier(nil), m.marked...), nil
}

func (m *memNullifierRepo) Count(_ context.Context) (int64, error) {
	return int64(len(m.marked)), nil
}

type memVaultRepo struct {
	balances map[string]string // principal|asset -> balance
	counters *models.ProtocolCounters
}

func (m *memVaultRepo) UpsertBalance(_ context.Context, principal, assetID, balance string) error {
	if m.balances == nil {
		m.balances = make(map[string]string)
	}
	m.balances[principal+"|"+assetID] = balance
	return nil
}

func (m *memVaultRepo) ListBalances(_ context.Context) ([]*models.VaultBalance, error) {
	var out []*models.VaultBalance
	for k, v := range m.balances {
		var principal, asset string
		for i := 0; i < len(k); i++ {
			if k[i] == '|' {
				principal, asset = k[:i], k[i+1:]
				break
			}
		}
		out = append(out, &models.VaultBalance{Principal: principal, AssetID: asset, Balance: v})
	}
	return out, nil
}

func (m *memVaultRepo) SaveCounters(_ context.Context, totalGhosted, totalRedeemed string) error {
	m.counters = &models.ProtocolCounters{ID: 1, TotalGhosted: totalGhosted, TotalRedeemed: totalRedeemed}
	return nil
}

func (m *memVaultRepo) GetCounters(_ context.Context) (*models.ProtocolCounters, error) {
	return m.counters, nil
}

type memPrincipalRepo struct {
	rows map[string]string // address|role -> role
}

func (m *memPrincipalRepo) Upsert(_ context.Context, address, role string) error {
	if m.rows == nil {
		m.rows = make(map[string]string)
	}
	m.rows[address+"|"+role] = role
	return nil
}

func (m *memPrincipalRepo) Delete(_ context.Context, address, role string) error {
	delete(m.rows, address+"|"+role)
	return nil
}

func (m *memPrincipalRepo) DeleteRole(_ context.Context, role string) error {
	for k, r := range m.rows {
		if r == role {
			delete(m.rows, k)
		}
	}
	return nil
}

func (m *memPrincipalRepo) List(_ context.Context) ([]*models.Principal, error) {
	var out []*models.Principal
	for k, role := range m.rows {
		for i := 0; i < len(k); i++ {
			if k[i] == '|' {
				out = append(out, &models.Principal{Address: k[:i], Role: role})
				break
			}
		}
	}
	return out, nil
}

type memEventRepo struct {
	events []*models.RedemptionEvent
}

func (m *memEventRepo) Append(_ context.Context, rec *models.RedemptionEvent) error {
	m.events = append(m.events, rec)
	return nil
}

func (m *memEventRepo) ListRecent(_ context.Context, limit int) ([]*models.RedemptionEvent, error) {
	if limit > len(m.events) {
		limit = len(m.events)
	}
	return m.events[len(m.events)-limit:], nil
}

type okVerifier struct{}

func (okVerifier) VerifyRedemption(context.Context, []byte, types.RedemptionInputs) (bool, error) {
	return true, nil
}

func (okVerifier) VerifyPartialRedemption(context.Context, []byte, types.PartialRedemptionInputs) (bool, error) {
	return true, nil
}

// ---- tests ----

func TestLedgerServiceJournalsWriteThrough(t *testing.T) {
	engine := core.NewEngine(owner, okVerifier{})
	repo := &memLedgerRepo{}
	svc := NewLedgerService(engine, repo, nil, nil)
	ctx := context.Background()

	idx, err := svc.Insert(ctx, owner, hashNum(11))
	require.NoError(t, err)
	require.EqualValues(t, 0, idx)

	require.Len(t, repo.commitments, 1)
	require.Equal(t, hashNum(11).Hex(), repo.commitments[0].Commitment)
	require.Equal(t, "insert", repo.commitments[0].Origin)

	require.NoError(t, svc.SubmitRoot(ctx, owner, hashNum(500), 1))
	require.Len(t, repo.roots, 1)
	require.Equal(t, hashNum(500).Hex(), repo.roots[0].Root)
	require.EqualValues(t, 1, repo.roots[0].LeafCount)

	// A rejected operation must leave no journal row behind.
	require.ErrorIs(t, svc.SubmitRoot(ctx, owner, hashNum(500), 1), types.ErrDuplicateSubmission)
	require.Len(t, repo.roots, 1)
	_, err = svc.Insert(ctx, alice, hashNum(12))
	require.ErrorIs(t, err, types.ErrUnauthorized)
	require.Len(t, repo.commitments, 1)
}

func TestLedgerServiceProofPath(t *testing.T) {
	engine := core.NewEngine(owner, okVerifier{})
	svc := NewLedgerService(engine, nil, nil, nil)
	ctx := context.Background()

	leaves := []types.Hash{hashNum(1), hashNum(2), hashNum(3)}
	for _, l := range leaves {
		_, err := svc.Insert(ctx, owner, l)
		require.NoError(t, err)
	}

	path, bits, err := svc.ProofPath(1)
	require.NoError(t, err)
	require.Len(t, path, types.TreeDepth)

	want, err := merkle.BuildRoot(leaves)
	require.NoError(t, err)

	node := merkle.LeafHash(merkle.ToElement(leaves[1]))
	for h := range path {
		sibling := merkle.ToElement(path[h])
		if bits[h] == 0 {
			node = merkle.NodeHash(node, sibling)
		} else {
			node = merkle.NodeHash(sibling, node)
		}
	}
	require.Equal(t, want, merkle.ToHash(node))
}

func TestLedgerServiceProofPathPastRangeReadClamp(t *testing.T) {
	// A ledger larger than one bounded range read: the replay must page.
	n := uint64(core.MaxRangeRead + 1)
	leaves := make([]types.Hash, n)
	for i := range leaves {
		leaves[i] = hashNum(uint64(i) + 1)
	}

	engine := core.NewEngine(owner, okVerifier{})
	engine.Restore(core.Snapshot{Commitments: leaves})
	svc := NewLedgerService(engine, nil, nil, nil)

	want, err := merkle.BuildRoot(leaves)
	require.NoError(t, err)

	for _, index := range []uint64{0, core.MaxRangeRead - 1, core.MaxRangeRead} {
		path, bits, err := svc.ProofPath(index)
		require.NoError(t, err)
		require.Len(t, path, types.TreeDepth)

		node := merkle.LeafHash(merkle.ToElement(leaves[index]))
		for h := range path {
			sibling := merkle.ToElement(path[h])
			if bits[h] == 0 {
				node = merkle.NodeHash(node, sibling)
			} else {
				node = merkle.NodeHash(sibling, node)
			}
		}
		require.Equal(t, want, merkle.ToHash(node), "leaf %d", index)
	}

	_, _, err = svc.ProofPath(n)
	require.ErrorIs(t, err, types.ErrOutOfRange)
}

func TestRedemptionServiceJournalsGhostAndRedeem(t *testing.T) {
	engine := core.NewEngine(owner, okVerifier{})
	ledgerRepo := &memLedgerRepo{}
	nullRepo := &memNullifierRepo{}
	vaultRepo := &memVaultRepo{}
	eventRepo := &memEventRepo{}
	svc := NewRedemptionService(engine, ledgerRepo, nullRepo, vaultRepo, eventRepo, nil, nil)
	ctx := context.Background()

	require.NoError(t, svc.Deposit(ctx, owner, testAsset, alice, big.NewInt(1000)))
	require.Equal(t, "1000", vaultRepo.balances[alice.Hex()+"|"+testAsset.Hex()])

	res, err := svc.Ghost(ctx, alice, testAsset, big.NewInt(1000), hashNum(11))
	require.NoError(t, err)
	require.EqualValues(t, 0, res.LeafIndex)

	require.Len(t, ledgerRepo.commitments, 1)
	require.Equal(t, "ghost", ledgerRepo.commitments[0].Origin)
	require.Equal(t, "0", vaultRepo.balances[alice.Hex()+"|"+testAsset.Hex()])
	require.Equal(t, "1000", vaultRepo.counters.TotalGhosted)
	require.Len(t, eventRepo.events, 1)
	require.Equal(t, "ghost", eventRepo.events[0].Kind)

	// Activate a root, then partially redeem.
	ledgerSvc := NewLedgerService(engine, ledgerRepo, nil, nil)
	require.NoError(t, ledgerSvc.SubmitRoot(ctx, owner, hashNum(500), 1))

	rres, err := svc.RedeemPartial(ctx, alice, types.RedeemPartialRequest{
		AssetID:        testAsset,
		RedeemAmount:   big.NewInt(600),
		OriginalAmount: big.NewInt(1000),
		Recipient:      bob,
		OldNullifier:   hashNum(21),
		NewCommitment:  hashNum(31),
		Root:           hashNum(500),
		Proof:          []byte{0x01},
	})
	require.NoError(t, err)
	require.NotNil(t, rres.NewLeafIndex)

	// Nullifier row is the crash barrier and must be journaled.
	require.Len(t, nullRepo.marked, 1)
	require.Equal(t, hashNum(21).Hex(), nullRepo.marked[0].Nullifier)

	// Change commitment row with origin "change".
	require.Len(t, ledgerRepo.commitments, 2)
	require.Equal(t, "change", ledgerRepo.commitments[1].Origin)
	require.EqualValues(t, 1, ledgerRepo.commitments[1].LeafIndex)

	require.Equal(t, "600", vaultRepo.balances[bob.Hex()+"|"+testAsset.Hex()])
	require.Equal(t, "600", vaultRepo.counters.TotalRedeemed)

	require.Len(t, eventRepo.events, 2)
	require.Equal(t, "redeem_partial", eventRepo.events[1].Kind)
}

func TestBuilderRoundTrip(t *testing.T) {
	engine := core.NewEngine(owner, okVerifier{})
	ledgerRepo := &memLedgerRepo{}
	svc := NewLedgerService(engine, ledgerRepo, nil, nil)
	builder := NewBuilderService(svc, owner, 0, nil)
	ctx := context.Background()

	leaves := []types.Hash{hashNum(1), hashNum(2), hashNum(3)}
	for _, l := range leaves {
		_, err := svc.Insert(ctx, owner, l)
		require.NoError(t, err)
	}

	require.NoError(t, builder.RunOnce(ctx))

	want, err := merkle.BuildRoot(leaves)
	require.NoError(t, err)
	require.Equal(t, want, engine.Root())
	require.True(t, engine.IsKnownRoot(want))
	require.Len(t, ledgerRepo.roots, 1)

	// Unchanged ledger: the next round is a no-op.
	require.NoError(t, builder.RunOnce(ctx))
	require.Len(t, ledgerRepo.roots, 1)

	// One more leaf, one more root.
	_, err = svc.Insert(ctx, owner, hashNum(4))
	require.NoError(t, err)
	require.NoError(t, builder.RunOnce(ctx))

	want, err = merkle.BuildRoot(append(leaves, hashNum(4)))
	require.NoError(t, err)
	require.Equal(t, want, engine.Root())
	require.Len(t, ledgerRepo.roots, 2)
}

func TestAuthServicePersistsGrants(t *testing.T) {
	engine := core.NewEngine(owner, okVerifier{})
	repo := &memPrincipalRepo{}
	svc := NewAuthService(engine, repo, nil)
	ctx := context.Background()

	require.NoError(t, svc.Grant(ctx, owner, core.RoleInserter, alice))
	require.NoError(t, svc.Grant(ctx, owner, core.RoleSubmitter, bob))
	require.Contains(t, repo.rows, alice.Hex()+"|inserter")
	require.Contains(t, repo.rows, bob.Hex()+"|submitter")

	// Seating a new submitter replaces the persisted row.
	require.NoError(t, svc.Grant(ctx, owner, core.RoleSubmitter, alice))
	require.NotContains(t, repo.rows, bob.Hex()+"|submitter")
	require.Contains(t, repo.rows, alice.Hex()+"|submitter")

	require.NoError(t, svc.Revoke(ctx, owner, core.RoleInserter, alice))
	require.NotContains(t, repo.rows, alice.Hex()+"|inserter")

	require.ErrorIs(t, svc.Grant(ctx, alice, core.RoleInserter, bob), types.ErrUnauthorized)
}

func TestReloadRestoresEngine(t *testing.T) {
	ledgerRepo := &memLedgerRepo{
		commitments: []*models.LedgerCommitment{
			{LeafIndex: 0, Commitment: hashNum(11).Hex(), Origin: "ghost"},
			{LeafIndex: 1, Commitment: hashNum(12).Hex(), Origin: "change"},
		},
		roots: []*models.LedgerRoot{
			{Seq: 1, Root: hashNum(500).Hex(), LeafCount: 1},
			{Seq: 2, Root: hashNum(501).Hex(), LeafCount: 2},
		},
	}
	nullRepo := &memNullifierRepo{marked: []*models.SpentNullifier{{Nullifier: hashNum(21).Hex()}}}
	vaultRepo := &memVaultRepo{
		balances: map[string]string{bob.Hex() + "|" + testAsset.Hex(): "600"},
		counters: &models.ProtocolCounters{ID: 1, TotalGhosted: "1000", TotalRedeemed: "600"},
	}
	principalRepo := &memPrincipalRepo{rows: map[string]string{
		owner.Hex() + "|owner":    "owner",
		alice.Hex() + "|inserter": "inserter",
		bob.Hex() + "|submitter":  "submitter",
	}}

	engine := core.NewEngine(owner, okVerifier{})
	require.NoError(t, Reload(context.Background(), engine, ledgerRepo, nullRepo, vaultRepo, principalRepo, nil))

	require.EqualValues(t, 2, engine.LeafCount())
	require.Equal(t, hashNum(501), engine.Root())
	require.True(t, engine.IsKnownRoot(hashNum(500)))
	require.True(t, engine.IsSpent(hashNum(21)))
	require.EqualValues(t, 600, engine.Balance(testAsset, bob).Int64())

	g, r, o := engine.Totals()
	require.EqualValues(t, 1000, g.Int64())
	require.EqualValues(t, 600, r.Int64())
	require.EqualValues(t, 400, o.Int64())

	// Restored grants are live.
	_, err := engine.InsertCommitment(alice, hashNum(13))
	require.NoError(t, err)
	_, err = engine.SubmitRoot(bob, hashNum(502), 3)
	require.NoError(t, err)
}

func TestReloadRejectsGappedJournal(t *testing.T) {
	ledgerRepo := &memLedgerRepo{
		commitments: []*models.LedgerCommitment{
			{LeafIndex: 0, Commitment: hashNum(11).Hex()},
			{LeafIndex: 2, Commitment: hashNum(12).Hex()},
		},
	}
	engine := core.NewEngine(owner, okVerifier{})
	err := Reload(context.Background(), engine, ledgerRepo, &memNullifierRepo{}, &memVaultRepo{}, &memPrincipalRepo{}, nil)
	require.Error(t, err)
}

func TestReloadRejectsInvalidCounters(t *testing.T) {
	vaultRepo := &memVaultRepo{
		counters: &models.ProtocolCounters{ID: 1, TotalGhosted: "100", TotalRedeemed: "200"},
	}
	engine := core.NewEngine(owner, okVerifier{})
	err := Reload(context.Background(), engine, &memLedgerRepo{}, &memNullifierRepo{}, vaultRepo, &memPrincipalRepo{}, nil)
	require.Error(t, err)
}
