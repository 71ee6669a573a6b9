package db

import (
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"ghost-backend/internal/config"
	"ghost-backend/internal/models"
)

// DB is the shared database handle.
var DB *gorm.DB

// InitDB connects to postgres and migrates the protocol schema.
func InitDB() error {
	if config.AppConfig == nil || config.AppConfig.Database.DSN == "" {
		return fmt.Errorf("database DSN is required")
	}

	var err error
	DB, err = gorm.Open(postgres.Open(config.AppConfig.Database.DSN), &gorm.Config{
		SkipDefaultTransaction: true,
		PrepareStmt:            true,
		CreateBatchSize:        1000,
		Logger:                 logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return fmt.Errorf("failed to connect database: %w", err)
	}

	if err := DB.AutoMigrate(
		&models.LedgerCommitment{},
		&models.LedgerRoot{},
		&models.SpentNullifier{},
		&models.VaultBalance{},
		&models.ProtocolCounters{},
		&models.Principal{},
		&models.RedemptionEvent{},
	); err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}

	return nil
}
