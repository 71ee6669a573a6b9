package app

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"ghost-backend/internal/clients"
	"ghost-backend/internal/config"
	"ghost-backend/internal/core"
	"ghost-backend/internal/db"
	"ghost-backend/internal/events"
	"ghost-backend/internal/repository"
	"ghost-backend/internal/services"
	"ghost-backend/internal/utils"
)

// ServiceContainer wires repositories, clients and services once at
// boot and hands them to the router.
type ServiceContainer struct {
	DB     *gorm.DB
	Logger *logrus.Logger

	// Repositories
	LedgerRepo    repository.LedgerRepository
	NullifierRepo repository.NullifierRepository
	VaultRepo     repository.VaultRepository
	PrincipalRepo repository.PrincipalRepository
	EventRepo     repository.EventRepository

	// Clients
	NATSClient     *clients.NATSClient
	VerifierClient *clients.VerifierClient

	// Eventing
	WebSocketHub *services.WebSocketHub
	Publisher    *events.Publisher

	// Protocol core
	Engine *core.Engine

	// Services
	LedgerService     *services.LedgerService
	NullifierService  *services.NullifierService
	RedemptionService *services.RedemptionService
	AuthService       *services.AuthService
	BuilderService    *services.BuilderService
}

// Container is the global service container instance.
var Container *ServiceContainer
var containerOnce sync.Once

// InitializeContainer builds the container. Config and the database
// must already be initialized.
func InitializeContainer(logger *logrus.Logger) (*ServiceContainer, error) {
	var initErr error

	containerOnce.Do(func() {
		if logger == nil {
			logger = logrus.StandardLogger()
		}
		c := &ServiceContainer{DB: db.DB, Logger: logger}

		if err := c.initRepositories(); err != nil {
			initErr = fmt.Errorf("failed to initialize repositories: %w", err)
			return
		}
		if err := c.initClients(); err != nil {
			initErr = fmt.Errorf("failed to initialize clients: %w", err)
			return
		}
		if err := c.initProtocol(); err != nil {
			initErr = fmt.Errorf("failed to initialize protocol services: %w", err)
			return
		}

		Container = c
		logger.Info("Service container initialized")
	})

	return Container, initErr
}

func (c *ServiceContainer) initRepositories() error {
	c.LedgerRepo = repository.NewLedgerRepository(c.DB)
	c.NullifierRepo = repository.NewNullifierRepository(c.DB)
	c.VaultRepo = repository.NewVaultRepository(c.DB)
	c.PrincipalRepo = repository.NewPrincipalRepository(c.DB)
	c.EventRepo = repository.NewEventRepository(c.DB)
	return nil
}

func (c *ServiceContainer) initClients() error {
	cfg := config.AppConfig

	// The event bus is optional; the service runs without it.
	if cfg.NATS.URL != "" {
		nc, err := clients.NewNATSClient(cfg.NATS.URL)
		if err != nil {
			c.Logger.WithField("error", err.Error()).Warn("NATS unavailable, continuing without event bus")
		} else {
			c.NATSClient = nc
		}
	}

	if cfg.Verifier.BaseURL == "" {
		return fmt.Errorf("verifier.base_url is required")
	}
	c.VerifierClient = clients.NewVerifierClient(cfg.Verifier.BaseURL)
	return nil
}

func (c *ServiceContainer) initProtocol() error {
	cfg := config.AppConfig

	owner, err := utils.ParseAddress(cfg.Ledger.Owner)
	if err != nil {
		return fmt.Errorf("ledger.owner must be a 20-byte address")
	}

	c.WebSocketHub = services.NewWebSocketHub(c.Logger)
	c.Publisher = events.NewPublisher(c.NATSClient, c.WebSocketHub)

	c.Engine = core.NewEngine(owner, c.VerifierClient)

	if err := services.Reload(
		context.Background(),
		c.Engine,
		c.LedgerRepo,
		c.NullifierRepo,
		c.VaultRepo,
		c.PrincipalRepo,
		c.Logger,
	); err != nil {
		return fmt.Errorf("state reload failed: %w", err)
	}

	c.LedgerService = services.NewLedgerService(c.Engine, c.LedgerRepo, c.Publisher, c.Logger)
	c.NullifierService = services.NewNullifierService(c.Engine, c.NullifierRepo, c.Publisher, c.Logger)
	c.RedemptionService = services.NewRedemptionService(
		c.Engine, c.LedgerRepo, c.NullifierRepo, c.VaultRepo, c.EventRepo, c.Publisher, c.Logger,
	)
	c.AuthService = services.NewAuthService(c.Engine, c.PrincipalRepo, c.Logger)

	if cfg.Builder.Enabled {
		builderAddr := owner
		if cfg.Builder.Address != "" {
			builderAddr, err = utils.ParseAddress(cfg.Builder.Address)
			if err != nil {
				return fmt.Errorf("builder.address must be a 20-byte address")
			}
		}
		// The in-process builder is the privileged root submitter.
		if err := c.AuthService.Grant(context.Background(), owner, core.RoleSubmitter, builderAddr); err != nil {
			return fmt.Errorf("failed to seat builder as submitter: %w", err)
		}
		interval := time.Duration(cfg.Builder.Interval) * time.Second
		c.BuilderService = services.NewBuilderService(c.LedgerService, builderAddr, interval, c.Logger)
	}

	return nil
}

// Close releases external connections.
func (c *ServiceContainer) Close() {
	if c.NATSClient != nil {
		c.NATSClient.Close()
	}
}
