package handlers

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/sirupsen/logrus"

	"ghost-backend/internal/dto"
)

// JWT signing state, configured once at startup via InitJWT.
var (
	jwtSecret []byte
	jwtTTL    = 24 * time.Hour
)

const challengePrefix = "Ghost Ledger Authentication"

// InitJWT installs the token signing secret and lifetime.
func InitJWT(secret string, ttl time.Duration) {
	jwtSecret = []byte(secret)
	if ttl > 0 {
		jwtTTL = ttl
	}
}

// AuthHandler issues login challenges and bearer tokens.
type AuthHandler struct {
	logger *logrus.Logger
}

type JWTClaims = dto.JWTClaims

// NewAuthHandler creates the auth handler.
func NewAuthHandler(logger *logrus.Logger) *AuthHandler {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &AuthHandler{logger: logger}
}

// GenerateNonceHandler hands out a fresh signing challenge.
func (h *AuthHandler) GenerateNonceHandler(c *gin.Context) {
	nonce := make([]byte, 16)
	if _, err := rand.Read(nonce); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"message": "Failed to generate nonce",
		})
		return
	}

	nonceStr := hex.EncodeToString(nonce)
	timestamp := time.Now().Unix()
	message := fmt.Sprintf("%s\nNonce: %s\nTimestamp: %d", challengePrefix, nonceStr, timestamp)

	c.JSON(http.StatusOK, dto.NonceResponse{
		Success:   true,
		Nonce:     nonceStr,
		Message:   message,
		Timestamp: timestamp,
	})
}

// AuthenticateHandler verifies a wallet signature over the challenge
// and issues a bearer token for the recovered address.
func (h *AuthHandler) AuthenticateHandler(c *gin.Context) {
	var req dto.AuthRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.AuthResponse{
			Success: false,
			Message: fmt.Sprintf("Invalid request: %v", err),
		})
		return
	}

	if !strings.HasPrefix(req.Message, challengePrefix) {
		c.JSON(http.StatusUnauthorized, dto.AuthResponse{
			Success: false,
			Message: "Message is not a login challenge",
		})
		return
	}

	recovered, err := recoverSigner(req.Message, req.Signature)
	if err != nil || !strings.EqualFold(recovered, req.Address) {
		h.logger.WithFields(logrus.Fields{
			"claimed":   req.Address,
			"recovered": recovered,
		}).Warn("Wallet signature verification failed")
		c.JSON(http.StatusUnauthorized, dto.AuthResponse{
			Success: false,
			Message: "Signature verification failed",
		})
		return
	}

	token, err := generateJWTToken(recovered)
	if err != nil {
		h.logger.WithField("error", err.Error()).Error("Failed to sign JWT")
		c.JSON(http.StatusInternalServerError, dto.AuthResponse{
			Success: false,
			Message: "Failed to issue token",
		})
		return
	}

	h.logger.WithField("principal", recovered).Info("Principal authenticated")
	c.JSON(http.StatusOK, dto.AuthResponse{
		Success: true,
		Token:   token,
		Message: "Authenticated",
	})
}

// recoverSigner recovers the address behind an eth_personalSign
// signature over message.
func recoverSigner(message, signature string) (string, error) {
	sig, err := hex.DecodeString(strings.TrimPrefix(signature, "0x"))
	if err != nil || len(sig) != crypto.SignatureLength {
		return "", fmt.Errorf("malformed signature")
	}
	// Wallets emit V as 27/28; go-ethereum expects 0/1.
	if sig[crypto.RecoveryIDOffset] >= 27 {
		sig[crypto.RecoveryIDOffset] -= 27
	}

	digest := crypto.Keccak256(
		[]byte(fmt.Sprintf("\x19Ethereum Signed Message:\n%d%s", len(message), message)),
	)
	pub, err := crypto.SigToPub(digest, sig)
	if err != nil {
		return "", fmt.Errorf("signature recovery failed: %w", err)
	}
	return crypto.PubkeyToAddress(*pub).Hex(), nil
}

func generateJWTToken(address string) (string, error) {
	now := time.Now()
	claims := dto.JWTClaims{
		Address: address,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(jwtTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    "ghost-backend",
			Subject:   address,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(jwtSecret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return tokenString, nil
}

// ValidateJWTToken parses and validates a bearer token, returning its
// claims. Used by the auth middleware and the websocket handler.
func ValidateJWTToken(tokenString string) (*JWTClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &dto.JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return jwtSecret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("token validation failed: %w", err)
	}

	if claims, ok := token.Claims.(*dto.JWTClaims); ok && token.Valid {
		return claims, nil
	}
	return nil, fmt.Errorf("invalid token claims")
}
