package dto

// ==================== Ledger DTOs ====================

// InsertCommitmentRequest appends one commitment without touching the
// active root.
type InsertCommitmentRequest struct {
	Commitment string `json:"commitment" binding:"required"` // 0x-prefixed 32-byte hex
}

// SubmitRootRequest publishes a freshly built root. LeafCount is the
// builder's view of the ledger size and guards against stale builds.
type SubmitRootRequest struct {
	Root      string `json:"root" binding:"required"`
	LeafCount uint64 `json:"leaf_count"`
}

// InsertAndUpdateRequest appends a commitment and rotates the active
// root in one atomic step.
type InsertAndUpdateRequest struct {
	Commitment string `json:"commitment" binding:"required"`
	Root       string `json:"root" binding:"required"`
}

// LeafResponse reports where an inserted commitment landed.
type LeafResponse struct {
	Success   bool   `json:"success"`
	LeafIndex uint64 `json:"leaf_index"`
}

// RootResponse reports the active root and ledger size.
type RootResponse struct {
	Success   bool   `json:"success"`
	Root      string `json:"root"`
	LeafCount uint64 `json:"leaf_count"`
}

// ProofPathResponse is the sibling path for one leaf, ordered from the
// leaf level upward, with direction bits (0 = current node is a left
// child).
type ProofPathResponse struct {
	Success     bool     `json:"success"`
	LeafIndex   uint64   `json:"leaf_index"`
	Commitment  string   `json:"commitment"`
	Root        string   `json:"root"`
	MerklePath  []string `json:"merkle_path"`
	PathIndices []uint32 `json:"path_indices"`
}
