package giftcard

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/storefront-ops/giftcard-ledger/internal/models"
)

// Redeemer validates and applies spends against single cards on behalf of
// the checkout collaborator. It enforces per-card invariants only: whether
// the applied amounts across several cards on one order exceed the order
// total is the checkout system's invariant, reconciled there from the
// returned applied amounts.
type Redeemer struct {
	db     *gorm.DB
	ledger *Ledger
}

// NewRedeemer constructs a Redeemer over the shared ledger.
func NewRedeemer(db *gorm.DB, ledger *Ledger) *Redeemer {
	return &Redeemer{db: db, ledger: ledger}
}

// Redeem resolves code to a card and applies the spend through the ledger.
// The returned amount is capped at the card's balance so the caller can
// compute any remainder due via other payment instruments.
func (r *Redeemer) Redeem(ctx context.Context, code string, requestedAmount float64, orderID string) (float64, error) {
	code = NormalizeCode(code)
	if !ValidCodeFormat(code) {
		return 0, ErrCardNotFound
	}

	var card struct{ ID uint64 }
	if errFind := r.db.WithContext(ctx).
		Model(&models.GiftCard{}).
		Select("id").
		Where("code = ?", code).
		Take(&card).Error; errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			return 0, ErrCardNotFound
		}
		return 0, errFind
	}

	return r.ledger.AppendRedemption(ctx, card.ID, requestedAmount, orderID)
}
