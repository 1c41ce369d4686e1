package db

import (
	"errors"

	"gorm.io/gorm"

	"github.com/storefront-ops/giftcard-ledger/internal/models"
)

// Migrate creates or updates the schema for all ledger tables.
func Migrate(conn *gorm.DB) error {
	if conn == nil {
		return errors.New("db: nil connection")
	}
	return conn.AutoMigrate(
		&models.GiftCard{},
		&models.Transaction{},
		&models.AuditLog{},
		&models.Admin{},
	)
}
