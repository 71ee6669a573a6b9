package core

import (
	"context"
	"fmt"
	"math/big"
	"sync"

	"ghost-backend/internal/interfaces"
	"ghost-backend/internal/merkle"
	"ghost-backend/internal/types"
)

// Engine is the redemption coordinator. It owns the ledger, the
// nullifier registry, the vault and the access list, and serializes
// every state-mutating operation under one mutex: an operation either
// fully commits or fully aborts, and no operation ever observes a
// partially applied effect of another.
//
// Proof verification is the one step that leaves the lock: the gate
// runs check (locked) -> verify (unlocked) -> re-check and commit
// (locked). Two redemptions racing on one nullifier are resolved by
// the second arrival observing the first's mark and failing with
// ErrAlreadySpent.
type Engine struct {
	mu         sync.Mutex
	ledger     *Ledger
	nullifiers *NullifierSet
	vault      *Vault
	access     *AccessList
	verifier   interfaces.ProofVerifier
}

// NewEngine returns an engine with an empty ledger and registry, the
// given owner and the injected proof verifier.
func NewEngine(owner types.Address, verifier interfaces.ProofVerifier) *Engine {
	return &Engine{
		ledger:     NewLedger(),
		nullifiers: NewNullifierSet(),
		vault:      NewVault(),
		access:     NewAccessList(owner),
		verifier:   verifier,
	}
}

// GhostResult is the public announcement of a ghost operation.
type GhostResult struct {
	Caller     types.Address
	AssetID    types.Hash
	Amount     *big.Int
	Commitment types.Hash
	LeafIndex  uint64
}

// RedeemResult describes a completed redemption.
type RedeemResult struct {
	Kind          string // "redeem" or "redeem_partial"
	Caller        types.Address
	Recipient     types.Address
	AssetID       types.Hash
	Amount        *big.Int
	Nullifier     types.Hash
	NewCommitment *types.Hash // set when a change commitment was inserted
	NewLeafIndex  *uint64
}

// InsertCommitment appends a commitment on behalf of an allow-listed
// inserter and returns its leaf index.
func (e *Engine) InsertCommitment(caller types.Address, commitment types.Hash) (uint64, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.access.Allows(caller, RoleInserter) {
		return 0, types.ErrUnauthorized
	}
	return e.ledger.Insert(commitment)
}

// SubmitRoot activates a root computed by the off-chain builder and
// returns the root it replaced. Restricted to the designated submitter
// or the owner.
func (e *Engine) SubmitRoot(caller types.Address, newRoot types.Hash, leafCount uint64) (types.Hash, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.access.Allows(caller, RoleSubmitter) {
		return types.Hash{}, types.ErrUnauthorized
	}
	oldRoot := e.ledger.Root()
	if err := e.ledger.SubmitRoot(newRoot, leafCount); err != nil {
		return types.Hash{}, err
	}
	return oldRoot, nil
}

// InsertAndUpdateRoot is the trusted relayer fast path: insert plus
// root activation in one atomic step. Returns the leaf index and the
// replaced root.
func (e *Engine) InsertAndUpdateRoot(caller types.Address, commitment, newRoot types.Hash) (uint64, types.Hash, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.access.Allows(caller, RoleSubmitter) {
		return 0, types.Hash{}, types.ErrUnauthorized
	}
	oldRoot := e.ledger.Root()
	leafIndex, err := e.ledger.InsertAndUpdateRoot(commitment, newRoot)
	if err != nil {
		return 0, types.Hash{}, err
	}
	return leafIndex, oldRoot, nil
}

// MarkSpent marks a nullifier on behalf of an allow-listed spender.
func (e *Engine) MarkSpent(caller types.Address, n types.Hash) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.access.Allows(caller, RoleSpender) {
		return types.ErrUnauthorized
	}
	return e.nullifiers.MarkSpent(n)
}

// Deposit credits transferable balance. This is the bridge/asset
// boundary feeding the vault; owner only.
func (e *Engine) Deposit(caller types.Address, asset types.Hash, principal types.Address, amount *big.Int) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.access.Allows(caller, RoleOwner) {
		return types.ErrUnauthorized
	}
	if amount == nil || amount.Sign() <= 0 || principal == (types.Address{}) {
		return types.ErrInvalidInput
	}
	e.vault.Credit(asset, principal, amount)
	return nil
}

// Ghost converts transferable balance into a hidden claim: debit the
// caller, append the commitment, bump totalGhosted. The step is
// deliberately public; privacy comes entirely from the unlinkability
// of the later redemption.
func (e *Engine) Ghost(caller types.Address, asset types.Hash, amount *big.Int, commitment types.Hash) (*GhostResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if amount == nil || amount.Sign() <= 0 {
		return nil, types.ErrInvalidInput
	}
	if !merkle.ValidElement(commitment) {
		return nil, types.ErrInvalidInput
	}
	if e.ledger.LeafCount() >= types.Capacity {
		return nil, types.ErrCapacityExceeded
	}
	if e.vault.Balance(asset, caller).Cmp(amount) < 0 {
		return nil, types.ErrInsufficientBalance
	}

	if err := e.vault.Debit(asset, caller, amount); err != nil {
		return nil, err
	}
	leafIndex, err := e.ledger.Insert(commitment)
	if err != nil {
		// Unreachable after the checks above; fail loudly if it is not.
		panic(fmt.Sprintf("core: ghost insert failed after preflight: %v", err))
	}
	e.vault.AddGhosted(amount)

	return &GhostResult{
		Caller:     caller,
		AssetID:    asset,
		Amount:     new(big.Int).Set(amount),
		Commitment: commitment,
		LeafIndex:  leafIndex,
	}, nil
}

// Redeem runs the ordered redemption gate. The order of the checks is
// a security invariant: the nullifier is marked before any value is
// credited, closing the double-mint window.
func (e *Engine) Redeem(ctx context.Context, caller types.Address, req types.RedeemRequest) (*RedeemResult, error) {
	if err := validateRedeemArgs(req.Amount, req.Recipient, req.Nullifier, req.Root, req.Proof); err != nil {
		return nil, err
	}

	// Gate steps 2-3: nullifier freshness, root membership.
	e.mu.Lock()
	if e.nullifiers.IsSpent(req.Nullifier) {
		e.mu.Unlock()
		return nil, types.ErrAlreadySpent
	}
	if !e.ledger.IsKnownRoot(req.Root) {
		e.mu.Unlock()
		return nil, types.ErrUnknownRoot
	}
	e.mu.Unlock()

	// Gate step 4: the proof oracle, outside the lock.
	ok, err := e.verifier.VerifyRedemption(ctx, req.Proof, types.RedemptionInputs{
		Root:      req.Root,
		Nullifier: req.Nullifier,
		Amount:    req.Amount,
		AssetID:   req.AssetID,
		Recipient: req.Recipient,
	})
	if err != nil {
		return nil, fmt.Errorf("verify redemption: %w", err)
	}
	if !ok {
		return nil, types.ErrProofRejected
	}

	// Gate steps 5-7: mark, credit, count — one atomic unit. The
	// freshness check reruns because the lock was released; a racing
	// redemption that marked first wins here.
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.nullifiers.MarkSpent(req.Nullifier); err != nil {
		return nil, err
	}
	if err := e.vault.AddRedeemed(req.Amount); err != nil {
		// Roll nothing back: AddRedeemed validates before mutating, and
		// an invariant breach must not mint. The nullifier stays spent.
		return nil, err
	}
	e.vault.Credit(req.AssetID, req.Recipient, req.Amount)

	return &RedeemResult{
		Kind:      "redeem",
		Caller:    caller,
		Recipient: req.Recipient,
		AssetID:   req.AssetID,
		Amount:    new(big.Int).Set(req.Amount),
		Nullifier: req.Nullifier,
	}, nil
}

// RedeemPartial runs the redemption gate with the amount invariant
// redeemAmount <= originalAmount. A positive remainder is carried
// forward as a fresh change commitment — the only path by which a
// redemption grows the ledger.
func (e *Engine) RedeemPartial(ctx context.Context, caller types.Address, req types.RedeemPartialRequest) (*RedeemResult, error) {
	if err := validateRedeemArgs(req.RedeemAmount, req.Recipient, req.OldNullifier, req.Root, req.Proof); err != nil {
		return nil, err
	}
	if req.OriginalAmount == nil || req.OriginalAmount.Sign() <= 0 {
		return nil, types.ErrInvalidInput
	}
	if req.RedeemAmount.Cmp(req.OriginalAmount) > 0 {
		return nil, types.ErrAmountInvariant
	}
	remainder := new(big.Int).Sub(req.OriginalAmount, req.RedeemAmount)
	if remainder.Sign() > 0 && !merkle.ValidElement(req.NewCommitment) {
		return nil, types.ErrInvalidInput
	}

	e.mu.Lock()
	if e.nullifiers.IsSpent(req.OldNullifier) {
		e.mu.Unlock()
		return nil, types.ErrAlreadySpent
	}
	if !e.ledger.IsKnownRoot(req.Root) {
		e.mu.Unlock()
		return nil, types.ErrUnknownRoot
	}
	if remainder.Sign() > 0 && e.ledger.LeafCount() >= types.Capacity {
		e.mu.Unlock()
		return nil, types.ErrCapacityExceeded
	}
	e.mu.Unlock()

	ok, err := e.verifier.VerifyPartialRedemption(ctx, req.Proof, types.PartialRedemptionInputs{
		Root:           req.Root,
		OldNullifier:   req.OldNullifier,
		RedeemAmount:   req.RedeemAmount,
		AssetID:        req.AssetID,
		Recipient:      req.Recipient,
		OriginalAmount: req.OriginalAmount,
		NewCommitment:  req.NewCommitment,
	})
	if err != nil {
		return nil, fmt.Errorf("verify partial redemption: %w", err)
	}
	if !ok {
		return nil, types.ErrProofRejected
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	// Re-validate everything that can have changed while unlocked, so
	// the commit below cannot fail halfway.
	if remainder.Sign() > 0 && e.ledger.LeafCount() >= types.Capacity {
		return nil, types.ErrCapacityExceeded
	}
	if err := e.nullifiers.MarkSpent(req.OldNullifier); err != nil {
		return nil, err
	}
	if err := e.vault.AddRedeemed(req.RedeemAmount); err != nil {
		return nil, err
	}
	e.vault.Credit(req.AssetID, req.Recipient, req.RedeemAmount)

	res := &RedeemResult{
		Kind:      "redeem_partial",
		Caller:    caller,
		Recipient: req.Recipient,
		AssetID:   req.AssetID,
		Amount:    new(big.Int).Set(req.RedeemAmount),
		Nullifier: req.OldNullifier,
	}
	if remainder.Sign() > 0 {
		leafIndex, err := e.ledger.Insert(req.NewCommitment)
		if err != nil {
			panic(fmt.Sprintf("core: change insert failed after preflight: %v", err))
		}
		nc := req.NewCommitment
		res.NewCommitment = &nc
		res.NewLeafIndex = &leafIndex
	}
	return res, nil
}

func validateRedeemArgs(amount *big.Int, recipient types.Address, nullifier, root types.Hash, proof []byte) error {
	if amount == nil || amount.Sign() <= 0 {
		return types.ErrInvalidInput
	}
	if recipient == (types.Address{}) {
		return types.ErrInvalidInput
	}
	if nullifier == types.ZeroHash || !merkle.ValidElement(nullifier) {
		return types.ErrInvalidInput
	}
	if !merkle.ValidElement(root) {
		return types.ErrInvalidInput
	}
	if len(proof) == 0 {
		return types.ErrInvalidInput
	}
	return nil
}

// read-side accessors; each takes the lock briefly so readers see
// fully committed state only.

func (e *Engine) Root() types.Hash {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.ledger.Root()
}

func (e *Engine) IsKnownRoot(root types.Hash) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.ledger.IsKnownRoot(root)
}

func (e *Engine) HistoricalRoot(i uint64) types.Hash {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.ledger.HistoricalRoot(i)
}

func (e *Engine) LeafCount() uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.ledger.LeafCount()
}

func (e *Engine) NextLeafIndex() uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.ledger.NextLeafIndex()
}

func (e *Engine) Commitment(i uint64) (types.Hash, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.ledger.Commitment(i)
}

func (e *Engine) Commitments(start, count uint64) ([]types.Hash, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.ledger.Commitments(start, count)
}

func (e *Engine) IsSpent(n types.Hash) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.nullifiers.IsSpent(n)
}

func (e *Engine) BatchIsSpent(ns []types.Hash) []bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.nullifiers.BatchIsSpent(ns)
}

func (e *Engine) SpentCount() uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.nullifiers.SpentCount()
}

func (e *Engine) Balance(asset types.Hash, principal types.Address) *big.Int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.vault.Balance(asset, principal)
}

func (e *Engine) Totals() (ghosted, redeemed, outstanding *big.Int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	g, r := e.vault.Totals()
	return g, r, e.vault.Outstanding()
}

// Authorization management; all owner-gated inside AccessList.

func (e *Engine) Grant(caller types.Address, role Role, principal types.Address) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.access.Grant(caller, role, principal)
}

func (e *Engine) Revoke(caller types.Address, role Role, principal types.Address) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.access.Revoke(caller, role, principal)
}

func (e *Engine) TransferOwnership(caller, newOwner types.Address) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.access.TransferOwnership(caller, newOwner)
}

func (e *Engine) Owner() types.Address {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.access.Owner()
}

func (e *Engine) Members(role Role) []types.Address {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.access.Members(role)
}

// VerifyProof mirrors the ledger's refusal to check Merkle paths.
func (e *Engine) VerifyProof(root types.Hash, path []types.Hash, indices []uint32) error {
	return e.ledger.VerifyProof(root, path, indices)
}
