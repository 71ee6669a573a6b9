package router

import (
	"net/http"
	"os"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"ghost-backend/internal/config"
	"ghost-backend/internal/handlers"
	"ghost-backend/internal/middleware"
)

// corsMiddleware applies CORS headers.
// Priority: environment variable > YAML config > default allow-all.
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")

		allowedOrigins := []string{"*"}
		allowCredentials := true
		maxAge := 3600

		if envOrigins := os.Getenv("CORS_ALLOWED_ORIGINS"); envOrigins != "" {
			allowedOrigins = allowedOrigins[:0]
			for _, o := range strings.Split(envOrigins, ",") {
				if trimmed := strings.TrimSpace(o); trimmed != "" {
					allowedOrigins = append(allowedOrigins, trimmed)
				}
			}
		} else if config.AppConfig != nil && len(config.AppConfig.CORS.AllowedOrigins) > 0 {
			allowedOrigins = config.AppConfig.CORS.AllowedOrigins
			allowCredentials = config.AppConfig.CORS.AllowCredentials
			if config.AppConfig.CORS.MaxAge > 0 {
				maxAge = config.AppConfig.CORS.MaxAge
			}
		}

		if len(allowedOrigins) == 1 && allowedOrigins[0] == "*" {
			c.Header("Access-Control-Allow-Origin", "*")
		} else if origin != "" {
			for _, allowed := range allowedOrigins {
				if strings.TrimSpace(allowed) == origin {
					c.Header("Access-Control-Allow-Origin", origin)
					break
				}
			}
		}

		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Content-Length, Accept-Encoding, Authorization, Cache-Control, Accept")
		if allowCredentials {
			c.Header("Access-Control-Allow-Credentials", "true")
		}
		c.Header("Access-Control-Max-Age", strconv.Itoa(maxAge))

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

// Handlers bundles everything the router mounts.
type Handlers struct {
	Auth       *handlers.AuthHandler
	Ledger     *handlers.LedgerHandler
	Nullifier  *handlers.NullifierHandler
	Redemption *handlers.RedemptionHandler
	Vault      *handlers.VaultHandler
	Admin      *handlers.AdminHandler
	WebSocket  *handlers.WebSocketHandler
}

// SetupRouter wires all routes. Protocol mutations sit behind JWT
// auth; the admin surface additionally sits behind the IP allowlist.
func SetupRouter(h Handlers, logger *logrus.Logger) *gin.Engine {
	r := gin.Default()
	r.Use(corsMiddleware())

	var allowedIPs []string
	if config.AppConfig != nil {
		allowedIPs = config.AppConfig.Admin.AllowedIPs
	}
	localhostOnly := middleware.NewLocalhostOnly(logger, allowedIPs)
	requireAuth := middleware.NewAuthMiddleware(logger).RequireAuth()

	// ============ Health ============
	r.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"service": "ghost-backend",
		})
	})

	// ============ Prometheus Metrics ============
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api")

	// ============ Auth ============
	auth := api.Group("/auth")
	{
		auth.GET("/nonce", h.Auth.GenerateNonceHandler)
		auth.POST("/login", h.Auth.AuthenticateHandler)
	}

	// ============ Ledger ============
	ledger := api.Group("/ledger")
	{
		ledger.GET("/root", h.Ledger.GetRoot)
		ledger.GET("/roots/history/:i", h.Ledger.GetHistoricalRoot)
		ledger.GET("/roots/:root/known", h.Ledger.IsKnownRoot)
		ledger.GET("/commitments", h.Ledger.ListCommitments)
		ledger.GET("/commitments/:index", h.Ledger.GetCommitment)
		ledger.GET("/count", h.Ledger.GetCount)
		ledger.GET("/proof-path/:index", h.Ledger.GetProofPath)

		ledger.POST("/commitments", requireAuth, h.Ledger.InsertCommitment)
		ledger.POST("/roots", requireAuth, h.Ledger.SubmitRoot)
		ledger.POST("/insert-and-update", requireAuth, h.Ledger.InsertAndUpdateRoot)
	}

	// ============ Nullifiers ============
	nullifiers := api.Group("/nullifiers")
	{
		nullifiers.GET("/count", h.Nullifier.Count)
		nullifiers.GET("/:nullifier/spent", h.Nullifier.IsSpent)
		nullifiers.POST("/batch-spent", h.Nullifier.BatchIsSpent)
		nullifiers.POST("/spend", requireAuth, h.Nullifier.Spend)
	}

	// ============ Redemption ============
	redemption := api.Group("/redemption")
	{
		redemption.GET("/stats", h.Redemption.Stats)
		redemption.POST("/ghost", requireAuth, h.Redemption.Ghost)
		redemption.POST("/redeem", requireAuth, h.Redemption.Redeem)
		redemption.POST("/redeem-partial", requireAuth, h.Redemption.RedeemPartial)
	}

	// ============ Vault ============
	vault := api.Group("/vault")
	{
		vault.GET("/balance/:asset", requireAuth, h.Vault.Balance)
		vault.POST("/deposit", requireAuth, h.Vault.Deposit)
	}

	// ============ WebSocket event stream ============
	api.GET("/ws", h.WebSocket.Serve)

	// ============ Admin (IP allowlist + JWT + TOTP) ============
	admin := api.Group("/admin", localhostOnly.Restrict(), requireAuth)
	{
		admin.GET("/principals", h.Admin.ListPrincipals)
		admin.POST("/inserters", h.Admin.ManageInserters)
		admin.POST("/spenders", h.Admin.ManageSpenders)
		admin.POST("/submitter", h.Admin.ManageSubmitter)
		admin.POST("/ownership", h.Admin.TransferOwnership)
	}

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{
			"message": "Endpoint not found",
			"path":    c.Request.URL.Path,
		})
	})

	return r
}
