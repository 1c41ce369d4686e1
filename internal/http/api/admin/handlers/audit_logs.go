package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/storefront-ops/giftcard-ledger/internal/giftcard"
	"github.com/storefront-ops/giftcard-ledger/internal/models"
)

// AuditLogHandler serves the privileged-action audit trail.
type AuditLogHandler struct {
	db *gorm.DB
}

// NewAuditLogHandler constructs an AuditLogHandler.
func NewAuditLogHandler(db *gorm.DB) *AuditLogHandler {
	return &AuditLogHandler{db: db}
}

// List returns audit entries, optionally filtered by card code.
func (h *AuditLogHandler) List(c *gin.Context) {
	q := h.db.WithContext(c.Request.Context()).Model(&models.AuditLog{})
	if codeQ := strings.TrimSpace(c.Query("code")); codeQ != "" {
		q = q.Where("card_code = ?", giftcard.NormalizeCode(codeQ))
	}

	var rows []models.AuditLog
	if errFind := q.Order("created_at DESC").Limit(200).Find(&rows).Error; errFind != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list audit logs failed"})
		return
	}

	out := make([]gin.H, 0, len(rows))
	for _, row := range rows {
		out = append(out, gin.H{
			"id":         row.ID,
			"actor":      row.Actor,
			"action":     row.Action,
			"card_code":  row.CardCode,
			"detail":     row.Detail,
			"created_at": row.CreatedAt,
		})
	}
	c.JSON(http.StatusOK, gin.H{"audit_logs": out})
}
