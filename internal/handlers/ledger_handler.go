package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"ghost-backend/internal/dto"
	"ghost-backend/internal/services"
	"ghost-backend/internal/utils"
)

// LedgerHandler exposes the commitment ledger: inserts, root
// submission and the read surface wallets use to build proofs.
type LedgerHandler struct {
	ledger *services.LedgerService
	logger *logrus.Logger
}

// NewLedgerHandler creates the ledger handler.
func NewLedgerHandler(ledger *services.LedgerService, logger *logrus.Logger) *LedgerHandler {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &LedgerHandler{ledger: ledger, logger: logger}
}

// InsertCommitment appends one commitment. Allow-listed inserters only.
func (h *LedgerHandler) InsertCommitment(c *gin.Context) {
	caller, ok := callerAddress(c)
	if !ok {
		respondUnauthenticated(c)
		return
	}

	var req dto.InsertCommitmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err.Error())
		return
	}
	commitment, err := utils.ParseHash(req.Commitment)
	if err != nil {
		respondBadRequest(c, "commitment must be 32-byte hex")
		return
	}

	leafIndex, err := h.ledger.Insert(c.Request.Context(), caller, commitment)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.LeafResponse{Success: true, LeafIndex: leafIndex})
}

// SubmitRoot publishes a freshly built root. Submitter only.
func (h *LedgerHandler) SubmitRoot(c *gin.Context) {
	caller, ok := callerAddress(c)
	if !ok {
		respondUnauthenticated(c)
		return
	}

	var req dto.SubmitRootRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err.Error())
		return
	}
	root, err := utils.ParseHash(req.Root)
	if err != nil {
		respondBadRequest(c, "root must be 32-byte hex")
		return
	}

	if err := h.ledger.SubmitRoot(c.Request.Context(), caller, root, req.LeafCount); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "root": root.Hex()})
}

// InsertAndUpdateRoot appends a commitment and rotates the root in one
// atomic step. Submitter only.
func (h *LedgerHandler) InsertAndUpdateRoot(c *gin.Context) {
	caller, ok := callerAddress(c)
	if !ok {
		respondUnauthenticated(c)
		return
	}

	var req dto.InsertAndUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err.Error())
		return
	}
	commitment, err := utils.ParseHash(req.Commitment)
	if err != nil {
		respondBadRequest(c, "commitment must be 32-byte hex")
		return
	}
	root, err := utils.ParseHash(req.Root)
	if err != nil {
		respondBadRequest(c, "root must be 32-byte hex")
		return
	}

	leafIndex, err := h.ledger.InsertAndUpdateRoot(c.Request.Context(), caller, commitment, root)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.LeafResponse{Success: true, LeafIndex: leafIndex})
}

// GetRoot reports the active root and ledger size.
func (h *LedgerHandler) GetRoot(c *gin.Context) {
	c.JSON(http.StatusOK, dto.RootResponse{
		Success:   true,
		Root:      h.ledger.Root().Hex(),
		LeafCount: h.ledger.LeafCount(),
	})
}

// GetHistoricalRoot reads the root recency buffer at position i mod
// buffer size.
func (h *LedgerHandler) GetHistoricalRoot(c *gin.Context) {
	i, err := strconv.ParseUint(c.Param("i"), 10, 64)
	if err != nil {
		respondBadRequest(c, "index must be a non-negative integer")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"index":   i,
		"root":    h.ledger.HistoricalRoot(i).Hex(),
	})
}

// IsKnownRoot checks permanent membership in the known-root set.
func (h *LedgerHandler) IsKnownRoot(c *gin.Context) {
	root, err := utils.ParseHash(c.Param("root"))
	if err != nil {
		respondBadRequest(c, "root must be 32-byte hex")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"root":    root.Hex(),
		"known":   h.ledger.IsKnownRoot(root),
	})
}

// GetCommitment reads one commitment by leaf index.
func (h *LedgerHandler) GetCommitment(c *gin.Context) {
	index, err := strconv.ParseUint(c.Param("index"), 10, 64)
	if err != nil {
		respondBadRequest(c, "index must be a non-negative integer")
		return
	}
	commitment, err := h.ledger.Commitment(index)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"leaf_index": index,
		"commitment": commitment.Hex(),
	})
}

// ListCommitments pages through the ledger in insertion order.
func (h *LedgerHandler) ListCommitments(c *gin.Context) {
	start, err := strconv.ParseUint(c.DefaultQuery("start", "0"), 10, 64)
	if err != nil {
		respondBadRequest(c, "start must be a non-negative integer")
		return
	}
	count, err := strconv.ParseUint(c.DefaultQuery("count", "100"), 10, 64)
	if err != nil {
		respondBadRequest(c, "count must be a non-negative integer")
		return
	}

	commitments, err := h.ledger.Commitments(start, count)
	if err != nil {
		respondError(c, err)
		return
	}

	out := make([]string, len(commitments))
	for i, cm := range commitments {
		out[i] = cm.Hex()
	}
	c.JSON(http.StatusOK, gin.H{
		"success":     true,
		"start":       start,
		"commitments": out,
		"total":       h.ledger.LeafCount(),
	})
}

// GetCount reports the ledger size and the next free leaf index.
func (h *LedgerHandler) GetCount(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"success":         true,
		"leaf_count":      h.ledger.LeafCount(),
		"next_leaf_index": h.ledger.NextLeafIndex(),
	})
}

// GetProofPath computes the sibling path for one leaf against the
// current ledger contents. Wallets feed this to the proof system.
func (h *LedgerHandler) GetProofPath(c *gin.Context) {
	index, err := strconv.ParseUint(c.Param("index"), 10, 64)
	if err != nil {
		respondBadRequest(c, "index must be a non-negative integer")
		return
	}

	commitment, err := h.ledger.Commitment(index)
	if err != nil {
		respondError(c, err)
		return
	}
	path, bits, err := h.ledger.ProofPath(index)
	if err != nil {
		respondError(c, err)
		return
	}

	hexPath := make([]string, len(path))
	for i, p := range path {
		hexPath[i] = p.Hex()
	}
	c.JSON(http.StatusOK, dto.ProofPathResponse{
		Success:     true,
		LeafIndex:   index,
		Commitment:  commitment.Hex(),
		Root:        h.ledger.Root().Hex(),
		MerklePath:  hexPath,
		PathIndices: bits,
	})
}
