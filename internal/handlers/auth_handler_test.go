package handlers

import (
	"bytes"
	"crypto/ecdsa"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"ghost-backend/internal/dto"
)

func newAuthRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	InitJWT("test-jwt-secret", 0)

	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)

	h := NewAuthHandler(logger)
	r := gin.New()
	r.GET("/api/auth/nonce", h.GenerateNonceHandler)
	r.POST("/api/auth/login", h.AuthenticateHandler)
	return r
}

// personalSign signs message the way eth_personalSign does, with the
// 27/28 recovery id wallets emit.
func personalSign(t *testing.T, message string, key *ecdsa.PrivateKey) string {
	t.Helper()
	digest := crypto.Keccak256(
		[]byte(fmt.Sprintf("\x19Ethereum Signed Message:\n%d%s", len(message), message)),
	)
	sig, err := crypto.Sign(digest, key)
	require.NoError(t, err)
	sig[crypto.RecoveryIDOffset] += 27
	return hexutil.Encode(sig)
}

func TestLoginRoundTrip(t *testing.T) {
	r := newAuthRouter(t)

	priv, err := crypto.GenerateKey()
	require.NoError(t, err)
	address := crypto.PubkeyToAddress(priv.PublicKey).Hex()

	// Fetch a challenge.
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/auth/nonce", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var nonceRes dto.NonceResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &nonceRes))
	require.True(t, nonceRes.Success)
	require.Contains(t, nonceRes.Message, nonceRes.Nonce)

	// Sign it and log in.
	body, _ := json.Marshal(dto.AuthRequest{
		Address:   address,
		Message:   nonceRes.Message,
		Signature: personalSign(t, nonceRes.Message, priv),
	})
	w = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var authRes dto.AuthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &authRes))
	require.True(t, authRes.Success)
	require.NotEmpty(t, authRes.Token)

	claims, err := ValidateJWTToken(authRes.Token)
	require.NoError(t, err)
	require.Equal(t, address, claims.Address)
	require.Equal(t, "ghost-backend", claims.Issuer)
}

func TestLoginRejectsWrongSigner(t *testing.T) {
	r := newAuthRouter(t)

	signer, err := crypto.GenerateKey()
	require.NoError(t, err)
	other, err := crypto.GenerateKey()
	require.NoError(t, err)

	message := challengePrefix + "\nNonce: abcd\nTimestamp: 1"
	body, _ := json.Marshal(dto.AuthRequest{
		// Claim the other key's address while signing with signer.
		Address:   crypto.PubkeyToAddress(other.PublicKey).Hex(),
		Message:   message,
		Signature: personalSign(t, message, signer),
	})
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestLoginRejectsForeignMessage(t *testing.T) {
	r := newAuthRouter(t)

	priv, err := crypto.GenerateKey()
	require.NoError(t, err)
	message := "Transfer all funds to 0x00"
	body, _ := json.Marshal(dto.AuthRequest{
		Address:   crypto.PubkeyToAddress(priv.PublicKey).Hex(),
		Message:   message,
		Signature: personalSign(t, message, priv),
	})
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestValidateJWTTokenRejectsTampering(t *testing.T) {
	InitJWT("test-jwt-secret", 0)
	token, err := generateJWTToken("0x1000000000000000000000000000000000000001")
	require.NoError(t, err)

	_, err = ValidateJWTToken(token + "x")
	require.Error(t, err)

	InitJWT("a-different-secret", 0)
	_, err = ValidateJWTToken(token)
	require.Error(t, err)
}
