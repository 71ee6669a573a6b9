package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"ghost-backend/internal/dto"
	"ghost-backend/internal/services"
	"ghost-backend/internal/utils"
)

// NullifierHandler exposes the spent-nullifier registry.
type NullifierHandler struct {
	nullifiers *services.NullifierService
	logger     *logrus.Logger
}

// NewNullifierHandler creates the nullifier handler.
func NewNullifierHandler(nullifiers *services.NullifierService, logger *logrus.Logger) *NullifierHandler {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &NullifierHandler{nullifiers: nullifiers, logger: logger}
}

// IsSpent checks one nullifier.
func (h *NullifierHandler) IsSpent(c *gin.Context) {
	n, err := utils.ParseHash(c.Param("nullifier"))
	if err != nil {
		respondBadRequest(c, "nullifier must be 32-byte hex")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"nullifier": n.Hex(),
		"spent":     h.nullifiers.IsSpent(n),
	})
}

// BatchIsSpent checks several nullifiers, preserving request order.
func (h *NullifierHandler) BatchIsSpent(c *gin.Context) {
	var req dto.BatchSpentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err.Error())
		return
	}
	ns, err := utils.ParseHashes(req.Nullifiers)
	if err != nil {
		respondBadRequest(c, "nullifiers must be 32-byte hex")
		return
	}
	c.JSON(http.StatusOK, dto.BatchSpentResponse{
		Success: true,
		Spent:   h.nullifiers.BatchIsSpent(ns),
	})
}

// Spend marks a nullifier as spent. Allow-listed spenders only; the
// redemption flow performs this internally.
func (h *NullifierHandler) Spend(c *gin.Context) {
	caller, ok := callerAddress(c)
	if !ok {
		respondUnauthenticated(c)
		return
	}

	var req dto.SpendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err.Error())
		return
	}
	n, err := utils.ParseHash(req.Nullifier)
	if err != nil {
		respondBadRequest(c, "nullifier must be 32-byte hex")
		return
	}

	if err := h.nullifiers.MarkSpent(c.Request.Context(), caller, n); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "nullifier": n.Hex()})
}

// Count reports the total number of spent nullifiers.
func (h *NullifierHandler) Count(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"success":     true,
		"spent_count": h.nullifiers.SpentCount(),
	})
}
