package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"ghost-backend/internal/dto"
	"ghost-backend/internal/services"
	"ghost-backend/internal/types"
	"ghost-backend/internal/utils"
)

// VaultHandler exposes transparent balances and the owner-only
// deposit path used when no bridge feeds the vault.
type VaultHandler struct {
	redemption *services.RedemptionService
	logger     *logrus.Logger
}

// NewVaultHandler creates the vault handler.
func NewVaultHandler(redemption *services.RedemptionService, logger *logrus.Logger) *VaultHandler {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &VaultHandler{redemption: redemption, logger: logger}
}

// Balance reports the caller's transparent balance for one asset.
func (h *VaultHandler) Balance(c *gin.Context) {
	caller, ok := callerAddress(c)
	if !ok {
		respondUnauthenticated(c)
		return
	}
	asset, err := utils.ParseHash(c.Param("asset"))
	if err != nil {
		respondBadRequest(c, "asset must be 32-byte hex")
		return
	}

	balance := h.redemption.Balance(asset, caller)
	c.JSON(http.StatusOK, dto.BalanceResponse{
		Success:   true,
		AssetID:   asset.Hex(),
		Principal: caller.Hex(),
		Balance:   balance.String(),
	})
}

// Deposit credits balance to a principal. Owner only.
func (h *VaultHandler) Deposit(c *gin.Context) {
	caller, ok := callerAddress(c)
	if !ok {
		respondUnauthenticated(c)
		return
	}

	var req dto.DepositRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err.Error())
		return
	}
	asset, err := utils.ParseHash(req.AssetID)
	if err != nil {
		respondBadRequest(c, "asset_id must be 32-byte hex")
		return
	}
	principal, err := utils.ParseAddress(req.Principal)
	if err != nil {
		respondBadRequest(c, "principal must be a 20-byte address")
		return
	}
	amount, err := types.ParseAmount(req.Amount)
	if err != nil {
		respondBadRequest(c, "amount must be a 256-bit decimal string")
		return
	}

	if err := h.redemption.Deposit(c.Request.Context(), caller, asset, principal, amount); err != nil {
		respondError(c, err)
		return
	}

	h.logger.WithFields(logrus.Fields{
		"principal": principal.Hex(),
		"asset":     asset.Hex(),
		"amount":    amount.String(),
	}).Info("Vault deposit credited")

	c.JSON(http.StatusOK, gin.H{"success": true})
}
