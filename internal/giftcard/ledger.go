package giftcard

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/storefront-ops/giftcard-ledger/internal/cache"
	dbutil "github.com/storefront-ops/giftcard-ledger/internal/db"
	"github.com/storefront-ops/giftcard-ledger/internal/models"
)

// redemptionRetryLimit bounds attempts when the guarded balance update
// loses a race, before surfacing ErrConflict to the caller.
const redemptionRetryLimit = 3

// errStaleBalance signals that the compare-and-swap balance update matched
// zero rows and the whole unit should be retried.
var errStaleBalance = errors.New("stale balance read")

// BalanceView is the public projection of a card. Status is derived lazily,
// so an ACTIVE card past its expiry reads as EXPIRED even before any write
// has recorded that transition.
type BalanceView struct {
	Code           string            `json:"code"`
	CurrentBalance float64           `json:"current_balance"`
	InitialAmount  float64           `json:"initial_amount"`
	Status         models.CardStatus `json:"status"`
	ExpiresAt      time.Time         `json:"expires_at"`
}

// Ledger owns the append-only transaction log and the balance arithmetic
// derived from it. The card's current_balance column is a cached projection
// and is only ever written together with a new Transaction row.
type Ledger struct {
	db    *gorm.DB
	cache *cache.Cache
	now   func() time.Time
}

// NewLedger constructs a Ledger. cache may be nil.
func NewLedger(db *gorm.DB, viewCache *cache.Cache) *Ledger {
	return &Ledger{db: db, cache: viewCache, now: func() time.Time { return time.Now().UTC() }}
}

// WithNow overrides the clock, for tests.
func (l *Ledger) WithNow(now func() time.Time) *Ledger {
	l.now = now
	return l
}

// AppendRedemption validates and applies a spend against one card as a
// single serializable unit scoped to that card's row.
//
// The applied amount is capped at the current balance. The call is
// idempotent on (giftCardID, orderID): a replay returns the originally
// applied amount without a second deduction. Exhausting the conflict retry
// budget returns ErrConflict.
func (l *Ledger) AppendRedemption(ctx context.Context, giftCardID uint64, amount float64, orderID string) (float64, error) {
	orderID = strings.TrimSpace(orderID)
	if orderID == "" {
		return 0, fmt.Errorf("%w: order id is required", ErrValidation)
	}
	if amount <= 0 {
		return 0, fmt.Errorf("%w: amount must be positive", ErrValidation)
	}
	if amount != roundAmount(amount) {
		return 0, fmt.Errorf("%w: amount must have at most two decimal places", ErrValidation)
	}

	var applied float64
	var cardCode string
	for attempt := 0; attempt < redemptionRetryLimit; attempt++ {
		applied = 0
		errTx := l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			// Replays of an already-recorded order return the prior amount.
			var prior models.Transaction
			errPrior := tx.Where("gift_card_id = ? AND order_id = ? AND type = ?",
				giftCardID, orderID, models.TransactionTypeRedemption).
				Take(&prior).Error
			if errPrior == nil {
				applied = prior.Amount
				return nil
			}
			if !errors.Is(errPrior, gorm.ErrRecordNotFound) {
				return errPrior
			}

			// Row-level lock on dialects that support it. SQLite serializes
			// writers at the database level, and the compare-and-swap below
			// guards the balance either way.
			q := tx
			if !dbutil.IsSQLite(tx) {
				q = tx.Clauses(clause.Locking{Strength: "UPDATE"})
			}
			var card models.GiftCard
			if errFind := q.First(&card, giftCardID).Error; errFind != nil {
				if errors.Is(errFind, gorm.ErrRecordNotFound) {
					return ErrCardNotFound
				}
				return errFind
			}

			now := l.now()
			if LiveStatus(&card, now) != models.CardStatusActive {
				return ErrCardNotRedeemable
			}
			if card.CurrentBalance <= 0 {
				return ErrInsufficientBalance
			}

			applied = roundAmount(math.Min(amount, card.CurrentBalance))
			newBalance := roundAmount(card.CurrentBalance - applied)
			// Rounding must never carry the applied amount past the stored
			// balance, even for legacy rows holding sub-cent balances.
			if applied >= card.CurrentBalance {
				applied = card.CurrentBalance
				newBalance = 0
			}
			newStatus := card.Status
			if newBalance == 0 {
				newStatus = models.CardStatusUsed
			}

			txn := models.Transaction{
				ID:         uuid.New(),
				GiftCardID: card.ID,
				Type:       models.TransactionTypeRedemption,
				Amount:     applied,
				OrderID:    &orderID,
				CreatedAt:  now,
			}
			if errCreate := tx.Create(&txn).Error; errCreate != nil {
				return errCreate
			}

			// Compare-and-swap on the balance read under the row lock. A zero
			// row count means another writer slipped in; retry the whole unit.
			res := tx.Model(&models.GiftCard{}).
				Where("id = ? AND current_balance = ?", card.ID, card.CurrentBalance).
				Updates(map[string]any{
					"current_balance": newBalance,
					"status":          newStatus,
					"updated_at":      now,
				})
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				return errStaleBalance
			}
			cardCode = card.Code
			return nil
		})

		switch {
		case errTx == nil:
			if cardCode != "" {
				l.cache.Del(ctx, cardCode)
			}
			return applied, nil
		case isDuplicateOrderErr(errTx):
			// A concurrent call with the same orderID won the race; report
			// the amount it recorded.
			return l.recordedAmount(ctx, giftCardID, orderID)
		case errors.Is(errTx, errStaleBalance), isBusyErr(errTx):
			time.Sleep(time.Duration(attempt+1) * 10 * time.Millisecond)
			continue
		default:
			return 0, errTx
		}
	}
	return 0, ErrConflict
}

// GetBalance resolves a card code to its public balance view with lazily
// derived status.
func (l *Ledger) GetBalance(ctx context.Context, code string) (*BalanceView, error) {
	code = NormalizeCode(code)
	var card models.GiftCard
	if errFind := l.db.WithContext(ctx).
		Where("code = ?", code).
		First(&card).Error; errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			return nil, ErrCardNotFound
		}
		return nil, errFind
	}
	return &BalanceView{
		Code:           card.Code,
		CurrentBalance: card.CurrentBalance,
		InitialAmount:  card.InitialAmount,
		Status:         LiveStatus(&card, l.now()),
		ExpiresAt:      card.ExpiresAt,
	}, nil
}

// History returns all transactions for a card, newest first.
func (l *Ledger) History(ctx context.Context, giftCardID uint64) ([]models.Transaction, error) {
	var rows []models.Transaction
	if errFind := l.db.WithContext(ctx).
		Where("gift_card_id = ?", giftCardID).
		Order("created_at DESC").
		Find(&rows).Error; errFind != nil {
		return nil, errFind
	}
	return rows, nil
}

// recordedAmount fetches the amount a concurrent idempotent call applied.
func (l *Ledger) recordedAmount(ctx context.Context, giftCardID uint64, orderID string) (float64, error) {
	var prior models.Transaction
	if errFind := l.db.WithContext(ctx).
		Where("gift_card_id = ? AND order_id = ? AND type = ?",
			giftCardID, orderID, models.TransactionTypeRedemption).
		Take(&prior).Error; errFind != nil {
		return 0, errFind
	}
	return prior.Amount, nil
}

// roundAmount normalizes balances to two decimal places so repeated
// arithmetic never accumulates float drift.
func roundAmount(v float64) float64 {
	return math.Round(v*100) / 100
}

// isDuplicateOrderErr detects a unique-index violation on
// (gift_card_id, order_id) across both supported dialects.
func isDuplicateOrderErr(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") ||
		strings.Contains(msg, "duplicate key") ||
		strings.Contains(msg, "constraint failed")
}

// isBusyErr detects transient lock contention worth retrying.
func isBusyErr(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "database is locked") ||
		strings.Contains(msg, "busy") ||
		strings.Contains(msg, "deadlock")
}
