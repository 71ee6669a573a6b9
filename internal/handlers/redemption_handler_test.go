package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	"github.com/ethereum/go-ethereum/common"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"ghost-backend/internal/core"
	"ghost-backend/internal/merkle"
	"ghost-backend/internal/services"
	"ghost-backend/internal/types"
)

var (
	testOwner = common.HexToAddress("0x1000000000000000000000000000000000000001")
	testAlice = common.HexToAddress("0x2000000000000000000000000000000000000002")
	testBob   = common.HexToAddress("0x3000000000000000000000000000000000000003")
)

func hashNum(i uint64) types.Hash {
	var e fr.Element
	e.SetUint64(i)
	return merkle.ToHash(e)
}

func bigAmount(i uint64) *big.Int {
	return new(big.Int).SetUint64(i)
}

// httpStubVerifier is a scriptable proof oracle for routing tests.
type httpStubVerifier struct {
	ok    bool
	calls int
}

func (v *httpStubVerifier) VerifyRedemption(context.Context, []byte, types.RedemptionInputs) (bool, error) {
	v.calls++
	return v.ok, nil
}

func (v *httpStubVerifier) VerifyPartialRedemption(context.Context, []byte, types.PartialRedemptionInputs) (bool, error) {
	v.calls++
	return v.ok, nil
}

type redemptionFixture struct {
	engine   *core.Engine
	verifier *httpStubVerifier
	router   *gin.Engine
}

// asPrincipal seats the caller the way the auth middleware would.
func asPrincipal(addr types.Address) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("principal", addr.Hex())
		c.Next()
	}
}

func newRedemptionFixture(t *testing.T, caller types.Address) *redemptionFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)

	verifier := &httpStubVerifier{ok: true}
	engine := core.NewEngine(testOwner, verifier)

	ledgerSvc := services.NewLedgerService(engine, nil, nil, logger)
	nullSvc := services.NewNullifierService(engine, nil, nil, logger)
	redemptionSvc := services.NewRedemptionService(engine, nil, nil, nil, nil, nil, logger)

	h := NewRedemptionHandler(redemptionSvc, ledgerSvc, nullSvc, logger)

	r := gin.New()
	r.GET("/api/redemption/stats", h.Stats)
	authed := r.Group("/api/redemption", asPrincipal(caller))
	authed.POST("/ghost", h.Ghost)
	authed.POST("/redeem", h.Redeem)
	authed.POST("/redeem-partial", h.RedeemPartial)

	return &redemptionFixture{engine: engine, verifier: verifier, router: r}
}

func (f *redemptionFixture) post(t *testing.T, path string, body any) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)

	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return w, out
}

// ghostLeaf funds the caller and shields one commitment, then activates
// a root covering it so redemptions can reference a known root.
func (f *redemptionFixture) ghostLeaf(t *testing.T, caller types.Address, amount uint64, commitment types.Hash) types.Hash {
	t.Helper()
	asset := hashNum(777)
	require.NoError(t, f.engine.Deposit(testOwner, asset, caller, bigAmount(amount)))

	w, _ := f.post(t, "/api/redemption/ghost", gin.H{
		"asset_id":   asset.Hex(),
		"amount":     bigAmount(amount).String(),
		"commitment": commitment.Hex(),
	})
	require.Equal(t, http.StatusOK, w.Code)

	leaves, err := f.engine.Commitments(0, f.engine.LeafCount())
	require.NoError(t, err)
	root, err := merkle.BuildRoot(leaves)
	require.NoError(t, err)

	require.NoError(t, f.engine.Grant(testOwner, core.RoleSubmitter, testOwner))
	_, err = f.engine.SubmitRoot(testOwner, root, f.engine.LeafCount())
	require.NoError(t, err)
	return root
}

func redeemBody(root, nullifier types.Hash, amount uint64) gin.H {
	return gin.H{
		"asset_id":  hashNum(777).Hex(),
		"amount":    bigAmount(amount).String(),
		"recipient": testBob.Hex(),
		"nullifier": nullifier.Hex(),
		"root":      root.Hex(),
		"proof":     "0xdeadbeef",
	}
}

func TestGhostEndpoint(t *testing.T) {
	f := newRedemptionFixture(t, testAlice)
	asset := hashNum(777)
	require.NoError(t, f.engine.Deposit(testOwner, asset, testAlice, bigAmount(1000)))

	w, out := f.post(t, "/api/redemption/ghost", gin.H{
		"asset_id":   asset.Hex(),
		"amount":     "1000",
		"commitment": hashNum(11).Hex(),
	})
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, true, out["success"])
	require.Equal(t, float64(0), out["leaf_index"])

	// Balance is gone; a second ghost must fail.
	w, out = f.post(t, "/api/redemption/ghost", gin.H{
		"asset_id":   asset.Hex(),
		"amount":     "1",
		"commitment": hashNum(12).Hex(),
	})
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	require.Equal(t, "INSUFFICIENT_BALANCE", out["code"])

	w, out = f.post(t, "/api/redemption/ghost", gin.H{
		"asset_id":   asset.Hex(),
		"amount":     "1000",
		"commitment": "not-hex",
	})
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Equal(t, false, out["success"])
}

func TestRedeemEndpointHappyPath(t *testing.T) {
	f := newRedemptionFixture(t, testAlice)
	root := f.ghostLeaf(t, testAlice, 1000, hashNum(11))

	w, out := f.post(t, "/api/redemption/redeem", redeemBody(root, hashNum(21), 1000))
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, true, out["success"])
	require.Equal(t, "redeem", out["kind"])
	require.Equal(t, testBob.Hex(), out["recipient"])
	require.Equal(t, 1, f.verifier.calls)
	require.Equal(t, "1000", f.engine.Balance(hashNum(777), testBob).String())
}

func TestRedeemEndpointGateShortCircuits(t *testing.T) {
	f := newRedemptionFixture(t, testAlice)
	root := f.ghostLeaf(t, testAlice, 1000, hashNum(11))

	// Unknown root is rejected without consulting the verifier.
	w, out := f.post(t, "/api/redemption/redeem", redeemBody(hashNum(9999), hashNum(21), 1000))
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	require.Equal(t, "UNKNOWN_ROOT", out["code"])
	require.Equal(t, 0, f.verifier.calls)

	// Spend, then replay: the nullifier check fires before the verifier.
	w, _ = f.post(t, "/api/redemption/redeem", redeemBody(root, hashNum(21), 1000))
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, 1, f.verifier.calls)

	w, out = f.post(t, "/api/redemption/redeem", redeemBody(root, hashNum(21), 1000))
	require.Equal(t, http.StatusConflict, w.Code)
	require.Equal(t, "ALREADY_SPENT", out["code"])
	require.Equal(t, 1, f.verifier.calls)
}

func TestRedeemEndpointProofRejected(t *testing.T) {
	f := newRedemptionFixture(t, testAlice)
	root := f.ghostLeaf(t, testAlice, 1000, hashNum(11))
	f.verifier.ok = false

	w, out := f.post(t, "/api/redemption/redeem", redeemBody(root, hashNum(21), 1000))
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	require.Equal(t, "PROOF_REJECTED", out["code"])

	// A rejected proof leaves the nullifier unspent.
	require.False(t, f.engine.IsSpent(hashNum(21)))
}

func TestRedeemPartialEndpoint(t *testing.T) {
	f := newRedemptionFixture(t, testAlice)
	root := f.ghostLeaf(t, testAlice, 1000, hashNum(11))

	w, out := f.post(t, "/api/redemption/redeem-partial", gin.H{
		"asset_id":        hashNum(777).Hex(),
		"redeem_amount":   "600",
		"original_amount": "1000",
		"recipient":       testBob.Hex(),
		"old_nullifier":   hashNum(21).Hex(),
		"new_commitment":  hashNum(12).Hex(),
		"root":            root.Hex(),
		"proof":           "0xdeadbeef",
	})
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "redeem_partial", out["kind"])
	require.Equal(t, hashNum(12).Hex(), out["new_commitment"])
	require.Equal(t, float64(1), out["new_leaf_index"])
	require.Equal(t, "600", f.engine.Balance(hashNum(777), testBob).String())

	// Redeem amounts above the original never reach the verifier.
	before := f.verifier.calls
	w, out = f.post(t, "/api/redemption/redeem-partial", gin.H{
		"asset_id":        hashNum(777).Hex(),
		"redeem_amount":   "500",
		"original_amount": "400",
		"recipient":       testBob.Hex(),
		"old_nullifier":   hashNum(22).Hex(),
		"new_commitment":  hashNum(13).Hex(),
		"root":            root.Hex(),
		"proof":           "0xdeadbeef",
	})
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	require.Equal(t, "AMOUNT_INVARIANT_VIOLATED", out["code"])
	require.Equal(t, before, f.verifier.calls)
}

func TestStatsEndpoint(t *testing.T) {
	f := newRedemptionFixture(t, testAlice)
	root := f.ghostLeaf(t, testAlice, 1000, hashNum(11))
	_, _ = f.post(t, "/api/redemption/redeem", redeemBody(root, hashNum(21), 400))

	req := httptest.NewRequest(http.MethodGet, "/api/redemption/stats", nil)
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	require.Equal(t, "1000", out["total_ghosted"])
	require.Equal(t, "400", out["total_redeemed"])
	require.Equal(t, "600", out["outstanding"])
	require.Equal(t, float64(1), out["leaf_count"])
	require.Equal(t, float64(1), out["spent_count"])
}

func TestRedeemRequiresPrincipal(t *testing.T) {
	gin.SetMode(gin.TestMode)
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)

	verifier := &httpStubVerifier{ok: true}
	engine := core.NewEngine(testOwner, verifier)
	h := NewRedemptionHandler(
		services.NewRedemptionService(engine, nil, nil, nil, nil, nil, logger),
		services.NewLedgerService(engine, nil, nil, logger),
		services.NewNullifierService(engine, nil, nil, logger),
		logger,
	)

	r := gin.New()
	r.POST("/api/redemption/redeem", h.Redeem)

	req := httptest.NewRequest(http.MethodPost, "/api/redemption/redeem", bytes.NewReader([]byte(`{}`)))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusUnauthorized, w.Code)
}
