package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/storefront-ops/giftcard-ledger/internal/giftcard"
)

// RedemptionHandler applies spends on behalf of the checkout system.
type RedemptionHandler struct {
	redeemer *giftcard.Redeemer
}

// NewRedemptionHandler constructs a RedemptionHandler.
func NewRedemptionHandler(redeemer *giftcard.Redeemer) *RedemptionHandler {
	return &RedemptionHandler{redeemer: redeemer}
}

// redeemRequest defines the request body for a redemption.
type redeemRequest struct {
	Code            string  `json:"code"`
	RequestedAmount float64 `json:"requested_amount"`
	OrderID         string  `json:"order_id"`
}

// Redeem applies a spend against one card. The response carries the
// applied amount, capped at the card's balance, so the caller can settle
// any remainder through other payment instruments.
func (h *RedemptionHandler) Redeem(c *gin.Context) {
	var body redeemRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json", "reason": "validation_error"})
		return
	}
	if strings.TrimSpace(body.Code) == "" || strings.TrimSpace(body.OrderID) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "code and order_id are required", "reason": "validation_error"})
		return
	}

	applied, errRedeem := h.redeemer.Redeem(c.Request.Context(), body.Code, body.RequestedAmount, body.OrderID)
	if errRedeem != nil {
		switch {
		case errors.Is(errRedeem, giftcard.ErrValidation):
			c.JSON(http.StatusBadRequest, gin.H{"error": errRedeem.Error(), "reason": "validation_error"})
		case errors.Is(errRedeem, giftcard.ErrCardNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "card not found", "reason": "card_not_found"})
		case errors.Is(errRedeem, giftcard.ErrCardNotRedeemable):
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "card not redeemable", "reason": "card_not_redeemable"})
		case errors.Is(errRedeem, giftcard.ErrInsufficientBalance):
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "insufficient balance", "reason": "insufficient_balance"})
		case errors.Is(errRedeem, giftcard.ErrConflict):
			c.JSON(http.StatusConflict, gin.H{"error": "concurrent update conflict, retry", "reason": "conflict"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "redemption failed"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"applied_amount": applied})
}
