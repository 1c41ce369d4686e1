package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/storefront-ops/giftcard-ledger/internal/giftcard"
	"github.com/storefront-ops/giftcard-ledger/internal/models"
)

// GiftCardFrontHandler handles the public gift card endpoints.
type GiftCardFrontHandler struct {
	issuer *giftcard.Issuer
	lookup *giftcard.LookupService
}

// NewGiftCardFrontHandler constructs a GiftCardFrontHandler.
func NewGiftCardFrontHandler(issuer *giftcard.Issuer, lookup *giftcard.LookupService) *GiftCardFrontHandler {
	return &GiftCardFrontHandler{issuer: issuer, lookup: lookup}
}

// issueGiftCardRequest defines the request body for issuing a card.
type issueGiftCardRequest struct {
	Amount         float64 `json:"amount"`
	RecipientEmail string  `json:"recipient_email"`
	RecipientName  *string `json:"recipient_name"`
	SenderName     *string `json:"sender_name"`
	Message        *string `json:"message"`
}

// publicCardView is the only card shape ever returned to anonymous
// callers. Gifting metadata stays private.
type publicCardView struct {
	Code           string            `json:"code"`
	CurrentBalance float64           `json:"current_balance"`
	InitialAmount  float64           `json:"initial_amount"`
	Status         models.CardStatus `json:"status"`
	ExpiresAt      time.Time         `json:"expires_at"`
}

// Issue validates input and creates a new gift card.
func (h *GiftCardFrontHandler) Issue(c *gin.Context) {
	var body issueGiftCardRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json", "reason": "validation_error"})
		return
	}

	card, errIssue := h.issuer.Issue(c.Request.Context(), giftcard.IssueParams{
		Amount:         body.Amount,
		RecipientEmail: body.RecipientEmail,
		RecipientName:  body.RecipientName,
		SenderName:     body.SenderName,
		Message:        body.Message,
	})
	if errIssue != nil {
		if errors.Is(errIssue, giftcard.ErrValidation) {
			c.JSON(http.StatusBadRequest, gin.H{"error": errIssue.Error(), "reason": "validation_error"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "issue gift card failed"})
		return
	}

	c.JSON(http.StatusCreated, publicCardView{
		Code:           card.Code,
		CurrentBalance: card.CurrentBalance,
		InitialAmount:  card.InitialAmount,
		Status:         card.Status,
		ExpiresAt:      card.ExpiresAt,
	})
}

// CheckBalance returns the public balance view for a card code.
func (h *GiftCardFrontHandler) CheckBalance(c *gin.Context) {
	view, errLookup := h.lookup.CheckBalance(c.Request.Context(), c.Param("code"))
	if errLookup != nil {
		if errors.Is(errLookup, giftcard.ErrCardNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "card not found", "reason": "card_not_found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "balance lookup failed"})
		return
	}

	c.JSON(http.StatusOK, publicCardView{
		Code:           view.Code,
		CurrentBalance: view.CurrentBalance,
		InitialAmount:  view.InitialAmount,
		Status:         view.Status,
		ExpiresAt:      view.ExpiresAt,
	})
}
