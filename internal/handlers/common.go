package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"ghost-backend/internal/types"
	"ghost-backend/internal/utils"
)

// callerAddress resolves the authenticated principal stored by the
// auth middleware. Routes behind RequireAuth always have it set.
func callerAddress(c *gin.Context) (types.Address, bool) {
	v := c.GetString("principal")
	if v == "" {
		return types.Address{}, false
	}
	addr, err := utils.ParseAddress(v)
	if err != nil {
		return types.Address{}, false
	}
	return addr, true
}

// respondError maps the protocol error taxonomy onto HTTP statuses and
// emits the standard failure envelope.
func respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, types.ErrInvalidInput):
		status = http.StatusBadRequest
	case errors.Is(err, types.ErrUnauthorized):
		status = http.StatusForbidden
	case errors.Is(err, types.ErrAlreadySpent),
		errors.Is(err, types.ErrDuplicateSubmission),
		errors.Is(err, types.ErrStaleState),
		errors.Is(err, types.ErrCapacityExceeded):
		status = http.StatusConflict
	case errors.Is(err, types.ErrUnknownRoot),
		errors.Is(err, types.ErrProofRejected),
		errors.Is(err, types.ErrAmountInvariant),
		errors.Is(err, types.ErrInsufficientBalance):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, types.ErrOutOfRange):
		status = http.StatusNotFound
	case errors.Is(err, types.ErrNotSupported):
		status = http.StatusNotImplemented
	}

	c.JSON(status, gin.H{
		"success": false,
		"code":    types.ErrorCode(err),
		"error":   err.Error(),
	})
}

func respondBadRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, gin.H{
		"success": false,
		"code":    types.ErrorCode(types.ErrInvalidInput),
		"error":   message,
	})
}

func respondUnauthenticated(c *gin.Context) {
	c.JSON(http.StatusUnauthorized, gin.H{
		"success": false,
		"code":    "MISSING_PRINCIPAL",
		"error":   "Authenticated principal not found in request context",
	})
}
