package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"ghost-backend/internal/app"
	"ghost-backend/internal/config"
	"ghost-backend/internal/db"
	"ghost-backend/internal/handlers"
	"ghost-backend/internal/router"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to the YAML config file")
	flag.Parse()

	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	if err := config.LoadConfig(*configPath); err != nil {
		logger.WithField("error", err.Error()).Fatal("Failed to load config")
	}
	cfg := config.AppConfig

	if cfg.JWT.Secret == "" {
		logger.Fatal("JWT secret not configured, set JWT_SECRET")
	}
	handlers.InitJWT(cfg.JWT.Secret, time.Duration(cfg.JWT.TTLHours)*time.Hour)

	if err := db.InitDB(); err != nil {
		logger.WithField("error", err.Error()).Fatal("Failed to initialize database")
	}

	container, err := app.InitializeContainer(logger)
	if err != nil {
		logger.WithField("error", err.Error()).Fatal("Failed to initialize services")
	}
	defer container.Close()

	r := router.SetupRouter(router.Handlers{
		Auth:       handlers.NewAuthHandler(logger),
		Ledger:     handlers.NewLedgerHandler(container.LedgerService, logger),
		Nullifier:  handlers.NewNullifierHandler(container.NullifierService, logger),
		Redemption: handlers.NewRedemptionHandler(container.RedemptionService, container.LedgerService, container.NullifierService, logger),
		Vault:      handlers.NewVaultHandler(container.RedemptionService, logger),
		Admin:      handlers.NewAdminHandler(container.AuthService, logger),
		WebSocket:  handlers.NewWebSocketHandler(container.WebSocketHub, logger),
	}, logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if container.BuilderService != nil {
		go container.BuilderService.Run(ctx)
		logger.Info("Tree builder started")
	}

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: r,
	}

	go func() {
		logger.WithField("addr", addr).Info("HTTP server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithField("error", err.Error()).Fatal("HTTP server failed")
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.WithField("error", err.Error()).Error("Graceful shutdown failed")
	}
}
