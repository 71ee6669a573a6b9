package dto

// ==================== Admin DTOs ====================

// PrincipalRequest adds or removes an allow-list member. TOTPCode is
// required on every admin mutation.
type PrincipalRequest struct {
	Address  string `json:"address" binding:"required"`
	Action   string `json:"action" binding:"required"` // "add" or "remove"
	TOTPCode string `json:"totp_code" binding:"required"`
}

// OwnershipRequest transfers protocol ownership to a new principal.
type OwnershipRequest struct {
	NewOwner string `json:"new_owner" binding:"required"`
	TOTPCode string `json:"totp_code" binding:"required"`
}

// PrincipalsResponse dumps the full authorization state.
type PrincipalsResponse struct {
	Success   bool     `json:"success"`
	Owner     string   `json:"owner"`
	Submitter []string `json:"submitter"`
	Inserters []string `json:"inserters"`
	Spenders  []string `json:"spenders"`
}
