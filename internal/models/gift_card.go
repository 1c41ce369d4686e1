package models

import "time"

// CardStatus enumerates gift card lifecycle states.
type CardStatus string

// Gift card lifecycle states. ACTIVE is the only state that accepts
// redemptions; the other three are terminal under normal operation.
const (
	CardStatusActive    CardStatus = "ACTIVE"
	CardStatusUsed      CardStatus = "USED"
	CardStatusExpired   CardStatus = "EXPIRED"
	CardStatusCancelled CardStatus = "CANCELLED"
)

// Valid reports whether s is one of the four known statuses.
func (s CardStatus) Valid() bool {
	switch s {
	case CardStatusActive, CardStatusUsed, CardStatusExpired, CardStatusCancelled:
		return true
	}
	return false
}

// GiftCard represents a stored-value card. CurrentBalance is a cached
// projection of the card's transaction log and is only ever written in the
// same database transaction that appends a Transaction row.
type GiftCard struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"` // Primary key.

	Code           string     `gorm:"type:text;not null;uniqueIndex"`         // Human-shareable code, "GC-" prefixed.
	InitialAmount  float64    `gorm:"type:decimal(20,2);not null"`            // Original card value, fixed at issuance.
	CurrentBalance float64    `gorm:"type:decimal(20,2);not null"`            // Remaining balance.
	Status         CardStatus `gorm:"type:text;not null;default:'ACTIVE'"`    // Persisted lifecycle state.
	IssuedAt       time.Time  `gorm:"not null"`                               // Issuance time.
	ExpiresAt      time.Time  `gorm:"not null;index"`                         // IssuedAt + validity window, fixed at issuance.

	RecipientEmail string  `gorm:"type:text;not null"` // Delivery address for the code.
	RecipientName  *string `gorm:"type:text"`          // Optional recipient display name.
	SenderName     *string `gorm:"type:text"`          // Optional sender display name.
	Message        *string `gorm:"type:text"`          // Optional gift message.

	OwnerUserID *uint64 `gorm:"index"` // Purchasing user, nil for anonymous purchases.

	CreatedAt time.Time `gorm:"not null;autoCreateTime"` // Creation timestamp.
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime"` // Last update timestamp.
}
