package giftcard

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/storefront-ops/giftcard-ledger/internal/cache"
	"github.com/storefront-ops/giftcard-ledger/internal/models"
	"github.com/storefront-ops/giftcard-ledger/internal/util"
)

// AdminService performs privileged card operations. The caller identity is
// passed explicitly rather than read from any ambient session state.
type AdminService struct {
	db    *gorm.DB
	cache *cache.Cache
}

// NewAdminService constructs an AdminService. cache may be nil.
func NewAdminService(db *gorm.DB, viewCache *cache.Cache) *AdminService {
	return &AdminService{db: db, cache: viewCache}
}

// OverrideStatus sets a card's status directly, bypassing the normal
// transition rules. This is a deliberate, audited escape hatch: it can move
// a terminal card back to ACTIVE. It never modifies the balance, so a card
// reactivated at zero balance remains unspendable. Every call writes an
// audit row naming the acting admin.
func (s *AdminService) OverrideStatus(ctx context.Context, actor, code string, newStatus models.CardStatus) (*models.GiftCard, error) {
	if !newStatus.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", ErrValidation, newStatus)
	}
	code = NormalizeCode(code)

	var card models.GiftCard
	errTx := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if errFind := tx.Where("code = ?", code).First(&card).Error; errFind != nil {
			if errors.Is(errFind, gorm.ErrRecordNotFound) {
				return ErrCardNotFound
			}
			return errFind
		}

		previous := card.Status
		now := time.Now().UTC()
		if errUpdate := tx.Model(&card).Updates(map[string]any{
			"status":     newStatus,
			"updated_at": now,
		}).Error; errUpdate != nil {
			return errUpdate
		}
		card.Status = newStatus

		detail, _ := json.Marshal(map[string]any{
			"from": previous,
			"to":   newStatus,
		})
		audit := models.AuditLog{
			Actor:    actor,
			Action:   models.AuditActionStatusOverride,
			CardCode: card.Code,
			Detail:   datatypes.JSON(detail),
		}
		return tx.Create(&audit).Error
	})
	if errTx != nil {
		return nil, errTx
	}

	s.cache.Del(ctx, card.Code)
	log.WithField("card", util.MaskCode(card.Code)).
		WithField("actor", actor).
		WithField("status", newStatus).
		Info("gift card status overridden")
	return &card, nil
}
