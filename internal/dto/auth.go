package dto

import "github.com/golang-jwt/jwt/v5"

// ==================== Auth DTOs ====================

// AuthRequest is a wallet-signature login request. The message must be
// the exact challenge previously issued by the nonce endpoint.
type AuthRequest struct {
	Address   string `json:"address" binding:"required"`   // caller wallet address
	Message   string `json:"message" binding:"required"`   // signed challenge message
	Signature string `json:"signature" binding:"required"` // personal_sign signature, hex
}

// AuthResponse carries the issued bearer token.
type AuthResponse struct {
	Success bool   `json:"success"`
	Token   string `json:"token,omitempty"`
	Message string `json:"message"`
}

// JWTClaims is the bearer token payload. Address is the authenticated
// principal every protocol operation authorizes against.
type JWTClaims struct {
	Address string `json:"address"`
	jwt.RegisteredClaims
}

// NonceResponse is the login challenge handed to wallets.
type NonceResponse struct {
	Success   bool   `json:"success"`
	Nonce     string `json:"nonce"`
	Message   string `json:"message"`
	Timestamp int64  `json:"timestamp"`
}
