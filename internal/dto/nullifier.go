package dto

// ==================== Nullifier DTOs ====================

// BatchSpentRequest queries spent status for several nullifiers at
// once, preserving order in the response.
type BatchSpentRequest struct {
	Nullifiers []string `json:"nullifiers" binding:"required"`
}

// BatchSpentResponse mirrors the request order.
type BatchSpentResponse struct {
	Success bool   `json:"success"`
	Spent   []bool `json:"spent"`
}

// SpendRequest marks one nullifier as spent. Allow-listed spenders
// only; the redemption flow does this internally.
type SpendRequest struct {
	Nullifier string `json:"nullifier" binding:"required"`
}
