// Package admin exposes the back-office surface: operator login, card
// search, transaction history, audit logs, and the status override escape
// hatch.
package admin

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/storefront-ops/giftcard-ledger/internal/config"
	"github.com/storefront-ops/giftcard-ledger/internal/giftcard"
	"github.com/storefront-ops/giftcard-ledger/internal/http/api/admin/handlers"
	"github.com/storefront-ops/giftcard-ledger/internal/security"
)

// RegisterAdminRoutes registers the operator routes.
func RegisterAdminRoutes(r *gin.Engine, db *gorm.DB, jwtCfg config.JWTConfig, ledger *giftcard.Ledger, adminSvc *giftcard.AdminService) {
	if r == nil || db == nil {
		return
	}

	group := r.Group("/v0/admin")

	authHandler := handlers.NewAuthHandler(db, jwtCfg)
	group.POST("/login", authHandler.Login)

	authed := group.Group("")
	authed.Use(adminAuthMiddleware(jwtCfg.Secret))

	giftCardHandler := handlers.NewGiftCardAdminHandler(db, ledger, adminSvc)
	authed.GET("/gift-cards", giftCardHandler.List)
	authed.GET("/gift-cards/:code", giftCardHandler.Get)
	authed.PUT("/gift-cards/:code/status", giftCardHandler.OverrideStatus)

	auditHandler := handlers.NewAuditLogHandler(db)
	authed.GET("/audit-logs", auditHandler.List)
}

// adminAuthMiddleware validates admin JWTs and loads the operator identity
// into the request context.
func adminAuthMiddleware(secret string) gin.HandlerFunc {
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

		claims, errJWT := security.ParseAdminToken(secret, strings.TrimSpace(token))
		if errJWT != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		c.Set("adminID", claims.AdminID)
		c.Set("adminUsername", claims.Username)
		c.Next()
	}
}
