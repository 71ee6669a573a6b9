package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"time"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/sirupsen/logrus"

	"ghost-backend/internal/config"
	"ghost-backend/internal/metrics"
	"ghost-backend/internal/types"
)

// VerifierClient talks to the external proof verification service. It
// implements interfaces.ProofVerifier; the backend never inspects proof
// internals, it only forwards the proof and the ordered public inputs
// and trusts the boolean answer.
type VerifierClient struct {
	BaseURL string
	Client  *http.Client
}

// NewVerifierClient creates a verifier client with the configured
// timeout.
func NewVerifierClient(baseURL string) *VerifierClient {
	timeout := 60 * time.Second
	if config.AppConfig != nil && config.AppConfig.Verifier.Timeout > 0 {
		timeout = time.Duration(config.AppConfig.Verifier.Timeout) * time.Second
	}
	return &VerifierClient{
		BaseURL: baseURL,
		Client:  &http.Client{Timeout: timeout},
	}
}

// verifyRequest is the wire request. PublicInputs is an ordered array
// of 32-byte hex values; the order is contractual with the circuit and
// is produced by EncodeRedemptionInputs / EncodePartialInputs only.
type verifyRequest struct {
	Proof        string   `json:"proof"`
	PublicInputs []string `json:"public_inputs"`
}

type verifyResponse struct {
	Valid        bool    `json:"valid"`
	ErrorMessage *string `json:"error_message"`
}

// EncodeRedemptionInputs serializes the public inputs of a full
// redemption in contract order: root, nullifier, amount, assetId,
// recipient.
func EncodeRedemptionInputs(in types.RedemptionInputs) []string {
	return []string{
		in.Root.Hex(),
		in.Nullifier.Hex(),
		encodeAmount(in.Amount),
		in.AssetID.Hex(),
		encodeAddress(in.Recipient),
	}
}

// EncodePartialInputs serializes the public inputs of a partial
// redemption in contract order: root, oldNullifier, redeemAmount,
// assetId, recipient, originalAmount, redeemAmount, newCommitment.
// RedeemAmount appears twice; the duplication is part of the contract.
func EncodePartialInputs(in types.PartialRedemptionInputs) []string {
	return []string{
		in.Root.Hex(),
		in.OldNullifier.Hex(),
		encodeAmount(in.RedeemAmount),
		in.AssetID.Hex(),
		encodeAddress(in.Recipient),
		encodeAmount(in.OriginalAmount),
		encodeAmount(in.RedeemAmount),
		in.NewCommitment.Hex(),
	}
}

func encodeAmount(v *big.Int) string {
	var buf [32]byte
	v.FillBytes(buf[:])
	return hexutil.Encode(buf[:])
}

// encodeAddress left-pads the 20-byte address to a 32-byte word.
func encodeAddress(a types.Address) string {
	var buf [32]byte
	copy(buf[12:], a[:])
	return hexutil.Encode(buf[:])
}

// VerifyRedemption asks the service to verify a full redemption proof.
func (c *VerifierClient) VerifyRedemption(ctx context.Context, proof []byte, inputs types.RedemptionInputs) (bool, error) {
	return c.verify(ctx, "redemption", proof, EncodeRedemptionInputs(inputs))
}

// VerifyPartialRedemption asks the service to verify a partial
// redemption proof.
func (c *VerifierClient) VerifyPartialRedemption(ctx context.Context, proof []byte, inputs types.PartialRedemptionInputs) (bool, error) {
	return c.verify(ctx, "partial_redemption", proof, EncodePartialInputs(inputs))
}

func (c *VerifierClient) verify(ctx context.Context, kind string, proof []byte, publicInputs []string) (bool, error) {
	start := time.Now()

	body, err := json.Marshal(verifyRequest{
		Proof:        hexutil.Encode(proof),
		PublicInputs: publicInputs,
	})
	if err != nil {
		return false, fmt.Errorf("marshal verify request: %w", err)
	}

	url := fmt.Sprintf("%s/verify/%s", c.BaseURL, kind)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return false, fmt.Errorf("build verify request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.Client.Do(req)
	if err != nil {
		metrics.VerifierRequests.WithLabelValues(kind, "error").Inc()
		return false, fmt.Errorf("verifier request failed: %w", err)
	}
	defer resp.Body.Close()

	metrics.VerifierDuration.WithLabelValues(kind).Observe(time.Since(start).Seconds())

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		metrics.VerifierRequests.WithLabelValues(kind, "error").Inc()
		return false, fmt.Errorf("read verifier response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		metrics.VerifierRequests.WithLabelValues(kind, "error").Inc()
		return false, fmt.Errorf("verifier returned status %d: %s", resp.StatusCode, string(raw))
	}

	var out verifyResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		metrics.VerifierRequests.WithLabelValues(kind, "error").Inc()
		return false, fmt.Errorf("decode verifier response: %w", err)
	}

	if out.Valid {
		metrics.VerifierRequests.WithLabelValues(kind, "valid").Inc()
	} else {
		metrics.VerifierRequests.WithLabelValues(kind, "invalid").Inc()
		if out.ErrorMessage != nil {
			logrus.WithFields(logrus.Fields{
				"kind":   kind,
				"reason": *out.ErrorMessage,
			}).Debug("verifier rejected proof")
		}
	}
	return out.Valid, nil
}
