// Package checkout exposes the redemption surface consumed by the trusted
// order/checkout collaborator. Calls are authenticated with a shared
// service token; the cross-card order-total invariant stays with checkout.
package checkout

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/storefront-ops/giftcard-ledger/internal/giftcard"
	"github.com/storefront-ops/giftcard-ledger/internal/http/api/checkout/handlers"
	"github.com/storefront-ops/giftcard-ledger/internal/security"
)

// RegisterCheckoutRoutes registers the internal redemption routes.
func RegisterCheckoutRoutes(r *gin.Engine, redeemer *giftcard.Redeemer, serviceToken string) {
	if r == nil {
		return
	}

	group := r.Group("/v0/checkout")
	group.Use(serviceTokenMiddleware(serviceToken))

	redemptionHandler := handlers.NewRedemptionHandler(redeemer)
	group.POST("/redemptions", redemptionHandler.Redeem)
}

// serviceTokenMiddleware authenticates the checkout collaborator with a
// shared bearer token.
func serviceTokenMiddleware(serviceToken string) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing authorization header"})
			return
		}
		token := strings.TrimPrefix(authHeader, "Bearer ")
		if token == authHeader {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid authorization format"})
			return
		}
		if !security.SecureCompare(strings.TrimSpace(token), serviceToken) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid service token"})
			return
		}
		c.Next()
	}
}
