package models

import (
	"time"

	"github.com/google/uuid"
)

// TransactionType enumerates value-changing event kinds.
type TransactionType string

// Transaction types. PURCHASE is written exactly once per card, at
// issuance, with Amount equal to the card's initial value. REDEMPTION is
// written once per successful spend.
const (
	TransactionTypePurchase   TransactionType = "PURCHASE"
	TransactionTypeRedemption TransactionType = "REDEMPTION"
)

// Transaction is one immutable row of a card's value ledger. Rows are only
// ever appended; the card's balance is derived from them.
type Transaction struct {
	ID         uuid.UUID       `gorm:"type:text;primaryKey"`                                     // Primary key.
	GiftCardID uint64          `gorm:"not null;index;uniqueIndex:idx_txn_card_order,priority:1"` // Owning card.
	Type       TransactionType `gorm:"type:text;not null"`                                       // PURCHASE or REDEMPTION.
	Amount     float64         `gorm:"type:decimal(20,2);not null"`                              // Applied amount, always positive.
	OrderID    *string         `gorm:"type:text;uniqueIndex:idx_txn_card_order,priority:2"`      // Consuming order for redemptions.
	CreatedAt  time.Time       `gorm:"not null"`                                                 // Append time.

	GiftCard *GiftCard `gorm:"foreignKey:GiftCardID"` // Owning card record.
}
