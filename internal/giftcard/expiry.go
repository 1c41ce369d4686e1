package giftcard

import (
	"time"

	"github.com/storefront-ops/giftcard-ledger/internal/models"
)

// ValidityDays is the fixed card validity window applied at issuance.
const ValidityDays = 365

// IsExpired reports whether an ACTIVE card's natural expiry has passed.
// Pure predicate: it is consulted on every read and every redemption, so
// correctness never depends on a background sweep having run.
func IsExpired(card *models.GiftCard, now time.Time) bool {
	if card == nil {
		return false
	}
	return card.Status == models.CardStatusActive && now.After(card.ExpiresAt)
}

// LiveStatus derives the card's effective status at the given instant
// without writing anything. A stale ACTIVE card reads as EXPIRED.
func LiveStatus(card *models.GiftCard, now time.Time) models.CardStatus {
	if IsExpired(card, now) {
		return models.CardStatusExpired
	}
	return card.Status
}
