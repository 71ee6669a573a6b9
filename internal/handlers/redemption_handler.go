package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"ghost-backend/internal/core"
	"ghost-backend/internal/dto"
	"ghost-backend/internal/services"
	"ghost-backend/internal/types"
	"ghost-backend/internal/utils"
)

// RedemptionHandler exposes the ghost/redeem/redeem-partial flow and
// the conservation stats.
type RedemptionHandler struct {
	redemption *services.RedemptionService
	ledger     *services.LedgerService
	nullifiers *services.NullifierService
	logger     *logrus.Logger
}

// NewRedemptionHandler creates the redemption handler.
func NewRedemptionHandler(
	redemption *services.RedemptionService,
	ledger *services.LedgerService,
	nullifiers *services.NullifierService,
	logger *logrus.Logger,
) *RedemptionHandler {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &RedemptionHandler{
		redemption: redemption,
		ledger:     ledger,
		nullifiers: nullifiers,
		logger:     logger,
	}
}

// Ghost converts caller balance into a shielded commitment.
func (h *RedemptionHandler) Ghost(c *gin.Context) {
	caller, ok := callerAddress(c)
	if !ok {
		respondUnauthenticated(c)
		return
	}

	var req dto.GhostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err.Error())
		return
	}
	asset, err := utils.ParseHash(req.AssetID)
	if err != nil {
		respondBadRequest(c, "asset_id must be 32-byte hex")
		return
	}
	amount, err := types.ParseAmount(req.Amount)
	if err != nil {
		respondBadRequest(c, "amount must be a 256-bit decimal string")
		return
	}
	commitment, err := utils.ParseHash(req.Commitment)
	if err != nil {
		respondBadRequest(c, "commitment must be 32-byte hex")
		return
	}

	res, err := h.redemption.Ghost(c.Request.Context(), caller, asset, amount, commitment)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.GhostResponse{
		Success:    true,
		LeafIndex:  res.LeafIndex,
		Commitment: res.Commitment.Hex(),
	})
}

// Redeem settles a full redemption against a proof.
func (h *RedemptionHandler) Redeem(c *gin.Context) {
	caller, ok := callerAddress(c)
	if !ok {
		respondUnauthenticated(c)
		return
	}

	var req dto.RedeemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err.Error())
		return
	}
	parsed, err := parseRedeemRequest(&req)
	if err != nil {
		respondError(c, err)
		return
	}

	res, err := h.redemption.Redeem(c.Request.Context(), caller, *parsed)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, redeemResponse(res))
}

// RedeemPartial settles a partial redemption; the remainder becomes a
// fresh change commitment.
func (h *RedemptionHandler) RedeemPartial(c *gin.Context) {
	caller, ok := callerAddress(c)
	if !ok {
		respondUnauthenticated(c)
		return
	}

	var req dto.RedeemPartialRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err.Error())
		return
	}
	parsed, err := parseRedeemPartialRequest(&req)
	if err != nil {
		respondError(c, err)
		return
	}

	res, err := h.redemption.RedeemPartial(c.Request.Context(), caller, *parsed)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, redeemResponse(res))
}

// Stats reports the conservation totals.
func (h *RedemptionHandler) Stats(c *gin.Context) {
	ghosted, redeemed, outstanding := h.redemption.Stats()
	c.JSON(http.StatusOK, dto.StatsResponse{
		Success:       true,
		TotalGhosted:  ghosted.String(),
		TotalRedeemed: redeemed.String(),
		Outstanding:   outstanding.String(),
		LeafCount:     h.ledger.LeafCount(),
		SpentCount:    h.nullifiers.SpentCount(),
	})
}

func parseRedeemRequest(req *dto.RedeemRequest) (*types.RedeemRequest, error) {
	asset, err := utils.ParseHash(req.AssetID)
	if err != nil {
		return nil, types.ErrInvalidInput
	}
	amount, err := types.ParseAmount(req.Amount)
	if err != nil {
		return nil, err
	}
	recipient, err := utils.ParseAddress(req.Recipient)
	if err != nil {
		return nil, err
	}
	nullifier, err := utils.ParseHash(req.Nullifier)
	if err != nil {
		return nil, err
	}
	root, err := utils.ParseHash(req.Root)
	if err != nil {
		return nil, err
	}
	path, err := utils.ParseHashes(req.MerklePath)
	if err != nil {
		return nil, err
	}
	proof, err := utils.ParseProof(req.Proof)
	if err != nil {
		return nil, err
	}
	return &types.RedeemRequest{
		AssetID:     asset,
		Amount:      amount,
		Recipient:   recipient,
		Nullifier:   nullifier,
		Root:        root,
		MerklePath:  path,
		PathIndices: req.PathIndices,
		Proof:       proof,
	}, nil
}

func parseRedeemPartialRequest(req *dto.RedeemPartialRequest) (*types.RedeemPartialRequest, error) {
	asset, err := utils.ParseHash(req.AssetID)
	if err != nil {
		return nil, types.ErrInvalidInput
	}
	redeemAmount, err := types.ParseAmount(req.RedeemAmount)
	if err != nil {
		return nil, err
	}
	originalAmount, err := types.ParseAmount(req.OriginalAmount)
	if err != nil {
		return nil, err
	}
	recipient, err := utils.ParseAddress(req.Recipient)
	if err != nil {
		return nil, err
	}
	oldNullifier, err := utils.ParseHash(req.OldNullifier)
	if err != nil {
		return nil, err
	}
	newCommitment, err := utils.ParseHash(req.NewCommitment)
	if err != nil {
		return nil, err
	}
	root, err := utils.ParseHash(req.Root)
	if err != nil {
		return nil, err
	}
	path, err := utils.ParseHashes(req.MerklePath)
	if err != nil {
		return nil, err
	}
	proof, err := utils.ParseProof(req.Proof)
	if err != nil {
		return nil, err
	}
	return &types.RedeemPartialRequest{
		AssetID:        asset,
		RedeemAmount:   redeemAmount,
		OriginalAmount: originalAmount,
		Recipient:      recipient,
		OldNullifier:   oldNullifier,
		NewCommitment:  newCommitment,
		Root:           root,
		MerklePath:     path,
		PathIndices:    req.PathIndices,
		Proof:          proof,
	}, nil
}

func redeemResponse(res *core.RedeemResult) dto.RedeemResponse {
	out := dto.RedeemResponse{
		Success:   true,
		Kind:      res.Kind,
		Recipient: res.Recipient.Hex(),
		Amount:    res.Amount.String(),
		Nullifier: res.Nullifier.Hex(),
	}
	if res.NewCommitment != nil {
		hex := res.NewCommitment.Hex()
		out.NewCommitment = &hex
	}
	out.NewLeafIndex = res.NewLeafIndex
	return out
}
