package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	dbutil "github.com/storefront-ops/giftcard-ledger/internal/db"
	"github.com/storefront-ops/giftcard-ledger/internal/giftcard"
	"github.com/storefront-ops/giftcard-ledger/internal/models"
)

// GiftCardAdminHandler handles back-office card operations.
type GiftCardAdminHandler struct {
	db       *gorm.DB
	ledger   *giftcard.Ledger
	adminSvc *giftcard.AdminService
}

// NewGiftCardAdminHandler constructs a GiftCardAdminHandler.
func NewGiftCardAdminHandler(db *gorm.DB, ledger *giftcard.Ledger, adminSvc *giftcard.AdminService) *GiftCardAdminHandler {
	return &GiftCardAdminHandler{db: db, ledger: ledger, adminSvc: adminSvc}
}

// List returns gift cards filtered by query parameters.
func (h *GiftCardAdminHandler) List(c *gin.Context) {
	var (
		codeQ      = strings.TrimSpace(c.Query("code"))
		statusQ    = strings.TrimSpace(c.Query("status"))
		recipientQ = strings.TrimSpace(c.Query("recipient"))
	)

	q := h.db.WithContext(c.Request.Context()).Model(&models.GiftCard{})
	if codeQ != "" {
		pattern := dbutil.NormalizeLikePattern(h.db, "%"+codeQ+"%")
		q = q.Where(dbutil.CaseInsensitiveLikeExpr(h.db, "code"), pattern)
	}
	if statusQ != "" {
		q = q.Where("status = ?", strings.ToUpper(statusQ))
	}
	if recipientQ != "" {
		pattern := dbutil.NormalizeLikePattern(h.db, "%"+recipientQ+"%")
		q = q.Where(dbutil.CaseInsensitiveLikeExpr(h.db, "recipient_email"), pattern)
	}

	var rows []models.GiftCard
	if errFind := q.Order("created_at DESC").Find(&rows).Error; errFind != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list gift cards failed"})
		return
	}

	out := make([]gin.H, 0, len(rows))
	for _, row := range rows {
		out = append(out, h.formatCard(&row))
	}
	c.JSON(http.StatusOK, gin.H{"gift_cards": out})
}

// Get fetches a single card by code, including its transaction history.
func (h *GiftCardAdminHandler) Get(c *gin.Context) {
	code := giftcard.NormalizeCode(c.Param("code"))

	var card models.GiftCard
	if errFind := h.db.WithContext(c.Request.Context()).
		Where("code = ?", code).
		First(&card).Error; errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "card not found", "reason": "card_not_found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}

	history, errHistory := h.ledger.History(c.Request.Context(), card.ID)
	if errHistory != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query transactions failed"})
		return
	}

	txns := make([]gin.H, 0, len(history))
	for _, txn := range history {
		item := gin.H{
			"id":         txn.ID,
			"type":       txn.Type,
			"amount":     txn.Amount,
			"created_at": txn.CreatedAt,
		}
		if txn.OrderID != nil {
			item["order_id"] = *txn.OrderID
		}
		txns = append(txns, item)
	}

	resp := h.formatCard(&card)
	resp["transactions"] = txns
	c.JSON(http.StatusOK, resp)
}

// overrideStatusRequest defines the status override request body.
type overrideStatusRequest struct {
	Status string `json:"status"`
}

// OverrideStatus applies an administrative status override to a card.
func (h *GiftCardAdminHandler) OverrideStatus(c *gin.Context) {
	actor, _ := c.Get("adminUsername")
	actorName, _ := actor.(string)

	var body overrideStatusRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json", "reason": "validation_error"})
		return
	}

	newStatus := models.CardStatus(strings.ToUpper(strings.TrimSpace(body.Status)))
	card, errOverride := h.adminSvc.OverrideStatus(c.Request.Context(), actorName, c.Param("code"), newStatus)
	if errOverride != nil {
		switch {
		case errors.Is(errOverride, giftcard.ErrValidation):
			c.JSON(http.StatusBadRequest, gin.H{"error": errOverride.Error(), "reason": "validation_error"})
		case errors.Is(errOverride, giftcard.ErrCardNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "card not found", "reason": "card_not_found"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "status override failed"})
		}
		return
	}

	c.JSON(http.StatusOK, h.formatCard(card))
}

// formatCard maps a card into the back-office response payload. Unlike the
// public view, operators see the gifting metadata. Status is derived, so an
// expired card reads EXPIRED here even before the sweeper has persisted it.
func (h *GiftCardAdminHandler) formatCard(card *models.GiftCard) gin.H {
	return gin.H{
		"id":              card.ID,
		"code":            card.Code,
		"initial_amount":  card.InitialAmount,
		"current_balance": card.CurrentBalance,
		"status":          giftcard.LiveStatus(card, time.Now().UTC()),
		"issued_at":       card.IssuedAt,
		"expires_at":      card.ExpiresAt,
		"recipient_email": card.RecipientEmail,
		"recipient_name":  card.RecipientName,
		"sender_name":     card.SenderName,
		"message":         card.Message,
		"owner_user_id":   card.OwnerUserID,
		"created_at":      card.CreatedAt,
		"updated_at":      card.UpdatedAt,
	}
}
