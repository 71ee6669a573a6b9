package dto

// ==================== Redemption DTOs ====================

// GhostRequest converts caller balance into a shielded commitment.
// Amount is a decimal string because values are full 256-bit integers.
type GhostRequest struct {
	AssetID    string `json:"asset_id" binding:"required"`
	Amount     string `json:"amount" binding:"required"`
	Commitment string `json:"commitment" binding:"required"`
}

// GhostResponse reports the accepted commitment's position.
type GhostResponse struct {
	Success    bool   `json:"success"`
	LeafIndex  uint64 `json:"leaf_index"`
	Commitment string `json:"commitment"`
}

// RedeemRequest is a full redemption: the entire voucher value is
// credited to the recipient. MerklePath and PathIndices are witness
// hints forwarded to the proof system only.
type RedeemRequest struct {
	AssetID     string   `json:"asset_id" binding:"required"`
	Amount      string   `json:"amount" binding:"required"`
	Recipient   string   `json:"recipient" binding:"required"`
	Nullifier   string   `json:"nullifier" binding:"required"`
	Root        string   `json:"root" binding:"required"`
	MerklePath  []string `json:"merkle_path"`
	PathIndices []uint32 `json:"path_indices"`
	Proof       string   `json:"proof" binding:"required"` // hex-encoded proof blob
}

// RedeemPartialRequest redeems part of a voucher; the remainder is
// carried forward as NewCommitment.
type RedeemPartialRequest struct {
	AssetID        string   `json:"asset_id" binding:"required"`
	RedeemAmount   string   `json:"redeem_amount" binding:"required"`
	OriginalAmount string   `json:"original_amount" binding:"required"`
	Recipient      string   `json:"recipient" binding:"required"`
	OldNullifier   string   `json:"old_nullifier" binding:"required"`
	NewCommitment  string   `json:"new_commitment" binding:"required"`
	Root           string   `json:"root" binding:"required"`
	MerklePath     []string `json:"merkle_path"`
	PathIndices    []uint32 `json:"path_indices"`
	Proof          string   `json:"proof" binding:"required"`
}

// RedeemResponse reports the outcome of a redemption. NewCommitment
// and NewLeafIndex are set only when a partial redemption produced a
// change voucher.
type RedeemResponse struct {
	Success       bool    `json:"success"`
	Kind          string  `json:"kind"`
	Recipient     string  `json:"recipient"`
	Amount        string  `json:"amount"`
	Nullifier     string  `json:"nullifier"`
	NewCommitment *string `json:"new_commitment,omitempty"`
	NewLeafIndex  *uint64 `json:"new_leaf_index,omitempty"`
}

// StatsResponse is the conservation snapshot: outstanding is always
// total_ghosted - total_redeemed and never negative.
type StatsResponse struct {
	Success       bool   `json:"success"`
	TotalGhosted  string `json:"total_ghosted"`
	TotalRedeemed string `json:"total_redeemed"`
	Outstanding   string `json:"outstanding"`
	LeafCount     uint64 `json:"leaf_count"`
	SpentCount    uint64 `json:"spent_count"`
}

// DepositRequest credits transparent balance to a principal. Owner
// only; this is the faucet path for environments without a bridge.
type DepositRequest struct {
	AssetID   string `json:"asset_id" binding:"required"`
	Principal string `json:"principal" binding:"required"`
	Amount    string `json:"amount" binding:"required"`
}

// BalanceResponse reports one principal's transparent balance.
type BalanceResponse struct {
	Success   bool   `json:"success"`
	AssetID   string `json:"asset_id"`
	Principal string `json:"principal"`
	Balance   string `json:"balance"`
}
