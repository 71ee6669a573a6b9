package handlers

import (
	"net/http"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/pquerna/otp/totp"
	"github.com/sirupsen/logrus"

	"ghost-backend/internal/core"
	"ghost-backend/internal/dto"
	"ghost-backend/internal/services"
	"ghost-backend/internal/utils"
)

// AdminHandler manages the protocol allow-lists. Every mutation is
// owner-gated at the engine level and additionally requires a TOTP
// code when a secret is configured.
type AdminHandler struct {
	auth       *services.AuthService
	totpSecret string
	logger     *logrus.Logger
}

// NewAdminHandler creates the admin handler. The TOTP secret comes
// from ADMIN_TOTP_SECRET; when unset, TOTP enforcement is disabled and
// a warning is logged.
func NewAdminHandler(auth *services.AuthService, logger *logrus.Logger) *AdminHandler {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	secret := os.Getenv("ADMIN_TOTP_SECRET")
	if secret == "" {
		logger.Warn("ADMIN_TOTP_SECRET not set, admin TOTP enforcement disabled")
	}
	return &AdminHandler{auth: auth, totpSecret: secret, logger: logger}
}

func (h *AdminHandler) checkTOTP(c *gin.Context, code string) bool {
	if h.totpSecret == "" {
		return true
	}
	if !totp.Validate(code, h.totpSecret) {
		c.JSON(http.StatusUnauthorized, gin.H{
			"success": false,
			"code":    "INVALID_TOTP",
			"error":   "TOTP verification failed",
		})
		return false
	}
	return true
}

// ManageInserters adds or removes an inserter.
func (h *AdminHandler) ManageInserters(c *gin.Context) {
	h.managePrincipal(c, core.RoleInserter)
}

// ManageSpenders adds or removes a spender.
func (h *AdminHandler) ManageSpenders(c *gin.Context) {
	h.managePrincipal(c, core.RoleSpender)
}

// ManageSubmitter sets or clears the root submitter.
func (h *AdminHandler) ManageSubmitter(c *gin.Context) {
	h.managePrincipal(c, core.RoleSubmitter)
}

func (h *AdminHandler) managePrincipal(c *gin.Context, role core.Role) {
	caller, ok := callerAddress(c)
	if !ok {
		respondUnauthenticated(c)
		return
	}

	var req dto.PrincipalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err.Error())
		return
	}
	if !h.checkTOTP(c, req.TOTPCode) {
		return
	}
	principal, err := utils.ParseAddress(req.Address)
	if err != nil {
		respondBadRequest(c, "address must be a 20-byte address")
		return
	}

	switch req.Action {
	case "add":
		err = h.auth.Grant(c.Request.Context(), caller, role, principal)
	case "remove":
		err = h.auth.Revoke(c.Request.Context(), caller, role, principal)
	default:
		respondBadRequest(c, "action must be \"add\" or \"remove\"")
		return
	}
	if err != nil {
		respondError(c, err)
		return
	}

	h.logger.WithFields(logrus.Fields{
		"caller":    caller.Hex(),
		"role":      string(role),
		"principal": principal.Hex(),
		"action":    req.Action,
	}).Info("Allow-list updated")

	c.JSON(http.StatusOK, gin.H{"success": true})
}

// TransferOwnership hands the protocol to a new owner.
func (h *AdminHandler) TransferOwnership(c *gin.Context) {
	caller, ok := callerAddress(c)
	if !ok {
		respondUnauthenticated(c)
		return
	}

	var req dto.OwnershipRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err.Error())
		return
	}
	if !h.checkTOTP(c, req.TOTPCode) {
		return
	}
	newOwner, err := utils.ParseAddress(req.NewOwner)
	if err != nil {
		respondBadRequest(c, "new_owner must be a 20-byte address")
		return
	}

	if err := h.auth.TransferOwnership(c.Request.Context(), caller, newOwner); err != nil {
		respondError(c, err)
		return
	}

	h.logger.WithFields(logrus.Fields{
		"old_owner": caller.Hex(),
		"new_owner": newOwner.Hex(),
	}).Warn("Protocol ownership transferred")

	c.JSON(http.StatusOK, gin.H{"success": true, "owner": newOwner.Hex()})
}

// ListPrincipals dumps the authorization state.
func (h *AdminHandler) ListPrincipals(c *gin.Context) {
	submitter := []string{}
	for _, a := range h.auth.Members(core.RoleSubmitter) {
		submitter = append(submitter, a.Hex())
	}
	inserters := []string{}
	for _, a := range h.auth.Members(core.RoleInserter) {
		inserters = append(inserters, a.Hex())
	}
	spenders := []string{}
	for _, a := range h.auth.Members(core.RoleSpender) {
		spenders = append(spenders, a.Hex())
	}

	c.JSON(http.StatusOK, dto.PrincipalsResponse{
		Success:   true,
		Owner:     h.auth.Owner().Hex(),
		Submitter: submitter,
		Inserters: inserters,
		Spenders:  spenders,
	})
}
