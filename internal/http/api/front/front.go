// Package front exposes the public storefront surface: gift card issuance
// and the anonymous balance-check widget. No caller identity is required by
// design.
package front

import (
	"github.com/gin-gonic/gin"

	"github.com/storefront-ops/giftcard-ledger/internal/giftcard"
	"github.com/storefront-ops/giftcard-ledger/internal/http/api/front/handlers"
)

// RegisterFrontRoutes registers the public routes.
func RegisterFrontRoutes(r *gin.Engine, issuer *giftcard.Issuer, lookup *giftcard.LookupService) {
	if r == nil {
		return
	}

	front := r.Group("/v0/front")

	giftCardHandler := handlers.NewGiftCardFrontHandler(issuer, lookup)
	front.POST("/gift-cards", giftCardHandler.Issue)
	front.GET("/gift-cards/:code", giftCardHandler.CheckBalance)
}
