package admin

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"gorm.io/gorm"

	"github.com/storefront-ops/giftcard-ledger/internal/config"
	"github.com/storefront-ops/giftcard-ledger/internal/giftcard"
	"github.com/storefront-ops/giftcard-ledger/internal/models"
	"github.com/storefront-ops/giftcard-ledger/internal/security"
)

var testJWTCfg = config.JWTConfig{Secret: "test-admin-secret", ExpiryMinutes: 60}

func setupAdminRouter(t *testing.T) (*gin.Engine, *gorm.DB) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dsn := fmt.Sprintf("file:admin_%s_%d?mode=memory&cache=shared", t.Name(), time.Now().UnixNano())
	conn, errOpen := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if errOpen != nil {
		t.Fatalf("open db: %v", errOpen)
	}
	if errMigrate := conn.AutoMigrate(&models.GiftCard{}, &models.Transaction{}, &models.AuditLog{}, &models.Admin{}); errMigrate != nil {
		t.Fatalf("migrate: %v", errMigrate)
	}

	hash, errHash := security.HashPassword("op-password")
	if errHash != nil {
		t.Fatalf("hash: %v", errHash)
	}
	if errCreate := conn.Create(&models.Admin{Username: "operator", PasswordHash: hash}).Error; errCreate != nil {
		t.Fatalf("seed admin: %v", errCreate)
	}

	ledger := giftcard.NewLedger(conn, nil)
	r := gin.New()
	RegisterAdminRoutes(r, conn, testJWTCfg, ledger, giftcard.NewAdminService(conn, nil))
	return r, conn
}

func adminLogin(t *testing.T, r *gin.Engine, username, password string) (string, int) {
	t.Helper()
	payload, _ := json.Marshal(gin.H{"username": username, "password": password})
	req := httptest.NewRequest(http.MethodPost, "/v0/admin/login", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		return "", w.Code
	}
	var resp struct {
		Token string `json:"token"`
	}
	if errUnmarshal := json.Unmarshal(w.Body.Bytes(), &resp); errUnmarshal != nil {
		t.Fatalf("unmarshal login: %v", errUnmarshal)
	}
	return resp.Token, w.Code
}

func issueAdminCard(t *testing.T, conn *gorm.DB, amount float64) *models.GiftCard {
	t.Helper()
	card, errIssue := giftcard.NewIssuer(conn, nil).Issue(context.Background(), giftcard.IssueParams{
		Amount:         amount,
		RecipientEmail: "holder@example.com",
	})
	if errIssue != nil {
		t.Fatalf("issue: %v", errIssue)
	}
	return card
}

func TestAdminLogin(t *testing.T) {
	r, _ := setupAdminRouter(t)

	token, code := adminLogin(t, r, "operator", "op-password")
	if code != http.StatusOK || token == "" {
		t.Fatalf("login: code = %d, token = %q", code, token)
	}

	claims, errParse := security.ParseAdminToken(testJWTCfg.Secret, token)
	if errParse != nil {
		t.Fatalf("parse token: %v", errParse)
	}
	if claims.Username != "operator" {
		t.Fatalf("claims username = %q", claims.Username)
	}

	if _, code := adminLogin(t, r, "operator", "wrong"); code != http.StatusUnauthorized {
		t.Fatalf("bad password: code = %d, want 401", code)
	}
	if _, code := adminLogin(t, r, "nobody", "op-password"); code != http.StatusUnauthorized {
		t.Fatalf("unknown user: code = %d, want 401", code)
	}
}

func TestAdminRoutesRequireToken(t *testing.T) {
	r, _ := setupAdminRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/v0/admin/gift-cards", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("no token: status = %d, want 401", w.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/v0/admin/gift-cards", nil)
	req.Header.Set("Authorization", "Bearer not-a-jwt")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("garbage token: status = %d, want 401", w.Code)
	}
}

func TestAdminGetCardWithHistory(t *testing.T) {
	r, conn := setupAdminRouter(t)
	card := issueAdminCard(t, conn, 400)

	ledger := giftcard.NewLedger(conn, nil)
	if _, errRedeem := ledger.AppendRedemption(context.Background(), card.ID, 150, "order-1"); errRedeem != nil {
		t.Fatalf("redeem: %v", errRedeem)
	}

	token, _ := adminLogin(t, r, "operator", "op-password")
	req := httptest.NewRequest(http.MethodGet, "/v0/admin/gift-cards/"+card.Code, nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}

	body := w.Body.String()
	// Operators see the full card including gifting metadata and the log.
	if !strings.Contains(body, "holder@example.com") {
		t.Fatalf("admin view missing recipient email: %s", body)
	}
	if !strings.Contains(body, string(models.TransactionTypePurchase)) ||
		!strings.Contains(body, string(models.TransactionTypeRedemption)) {
		t.Fatalf("admin view missing transaction history: %s", body)
	}
}

func TestAdminGetDerivesExpiredStatus(t *testing.T) {
	r, conn := setupAdminRouter(t)
	card := issueAdminCard(t, conn, 400)

	if errUpdate := conn.Model(&models.GiftCard{}).
		Where("id = ?", card.ID).
		Update("expires_at", time.Now().UTC().Add(-time.Hour)).Error; errUpdate != nil {
		t.Fatalf("backdate: %v", errUpdate)
	}

	token, _ := adminLogin(t, r, "operator", "op-password")
	req := httptest.NewRequest(http.MethodGet, "/v0/admin/gift-cards/"+card.Code, nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}

	var resp struct {
		Status string `json:"status"`
	}
	if errUnmarshal := json.Unmarshal(w.Body.Bytes(), &resp); errUnmarshal != nil {
		t.Fatalf("unmarshal: %v", errUnmarshal)
	}
	// The stored row still says ACTIVE; the response must not.
	if resp.Status != string(models.CardStatusExpired) {
		t.Fatalf("status = %q, want EXPIRED before any sweep", resp.Status)
	}

	var stored models.GiftCard
	if errFind := conn.First(&stored, card.ID).Error; errFind != nil {
		t.Fatalf("reload: %v", errFind)
	}
	if stored.Status != models.CardStatusActive {
		t.Fatalf("stored status = %s, want ACTIVE", stored.Status)
	}
}

func TestAdminOverrideStatusAndAuditTrail(t *testing.T) {
	r, conn := setupAdminRouter(t)
	card := issueAdminCard(t, conn, 400)
	token, _ := adminLogin(t, r, "operator", "op-password")

	payload, _ := json.Marshal(gin.H{"status": "CANCELLED"})
	req := httptest.NewRequest(http.MethodPut, "/v0/admin/gift-cards/"+card.Code+"/status", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("override: status = %d, body = %s", w.Code, w.Body.String())
	}

	var card2 models.GiftCard
	if errFind := conn.First(&card2, card.ID).Error; errFind != nil {
		t.Fatalf("reload: %v", errFind)
	}
	if card2.Status != models.CardStatusCancelled {
		t.Fatalf("status = %s, want CANCELLED", card2.Status)
	}

	req = httptest.NewRequest(http.MethodGet, "/v0/admin/audit-logs?code="+card.Code, nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("audit logs: status = %d", w.Code)
	}
	body := w.Body.String()
	if !strings.Contains(body, "operator") || !strings.Contains(body, card.Code) {
		t.Fatalf("audit log missing actor or code: %s", body)
	}
}

func TestAdminOverrideRejectsUnknownStatus(t *testing.T) {
	r, conn := setupAdminRouter(t)
	card := issueAdminCard(t, conn, 400)
	token, _ := adminLogin(t, r, "operator", "op-password")

	payload, _ := json.Marshal(gin.H{"status": "FROZEN"})
	req := httptest.NewRequest(http.MethodPut, "/v0/admin/gift-cards/"+card.Code+"/status", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400 (body %s)", w.Code, w.Body.String())
	}
}

func TestAdminListFiltersByStatus(t *testing.T) {
	r, conn := setupAdminRouter(t)
	issueAdminCard(t, conn, 400)
	cancelled := issueAdminCard(t, conn, 400)
	if errUpdate := conn.Model(&models.GiftCard{}).
		Where("id = ?", cancelled.ID).
		Update("status", models.CardStatusCancelled).Error; errUpdate != nil {
		t.Fatalf("cancel: %v", errUpdate)
	}

	token, _ := adminLogin(t, r, "operator", "op-password")
	req := httptest.NewRequest(http.MethodGet, "/v0/admin/gift-cards?status=CANCELLED", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	body := w.Body.String()
	if !strings.Contains(body, cancelled.Code) {
		t.Fatalf("filtered list missing cancelled card: %s", body)
	}
	if strings.Contains(body, string(models.CardStatusActive)) {
		t.Fatalf("filtered list leaked active cards: %s", body)
	}
}
