package giftcard

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/storefront-ops/giftcard-ledger/internal/models"
)

func TestRedeemByCode(t *testing.T) {
	conn := setupLedgerTestDB(t)
	ledger := NewLedger(conn, nil)
	redeemer := NewRedeemer(conn, ledger)
	card := issueTestCard(t, conn, 400)

	applied, errRedeem := redeemer.Redeem(context.Background(), card.Code, 150, "order-1")
	if errRedeem != nil {
		t.Fatalf("redeem: %v", errRedeem)
	}
	if applied != 150 {
		t.Fatalf("applied = %v, want 150", applied)
	}

	balance, _ := cardBalance(t, conn, card.ID)
	if balance != 250 {
		t.Fatalf("balance = %v, want 250", balance)
	}
}

func TestRedeemNormalizesCode(t *testing.T) {
	conn := setupLedgerTestDB(t)
	ledger := NewLedger(conn, nil)
	redeemer := NewRedeemer(conn, ledger)
	card := issueTestCard(t, conn, 400)

	messy := "  " + strings.ToLower(card.Code) + "  "
	applied, errRedeem := redeemer.Redeem(context.Background(), messy, 100, "order-1")
	if errRedeem != nil {
		t.Fatalf("redeem with lowercased code: %v", errRedeem)
	}
	if applied != 100 {
		t.Fatalf("applied = %v, want 100", applied)
	}
}

func TestRedeemUnknownOrMalformedCode(t *testing.T) {
	conn := setupLedgerTestDB(t)
	ledger := NewLedger(conn, nil)
	redeemer := NewRedeemer(conn, ledger)
	ctx := context.Background()

	for _, code := range []string{"GC-AAAABBBBCCCC", "totally-wrong", "GC-SHORT", ""} {
		if _, errRedeem := redeemer.Redeem(ctx, code, 50, "order-1"); !errors.Is(errRedeem, ErrCardNotFound) {
			t.Fatalf("code %q: %v, want ErrCardNotFound", code, errRedeem)
		}
	}
}

func TestRedeemPropagatesLedgerErrors(t *testing.T) {
	conn := setupLedgerTestDB(t)
	ledger := NewLedger(conn, nil)
	redeemer := NewRedeemer(conn, ledger)
	card := issueTestCard(t, conn, 400)

	if errUpdate := conn.Model(&models.GiftCard{}).
		Where("id = ?", card.ID).
		Update("status", models.CardStatusCancelled).Error; errUpdate != nil {
		t.Fatalf("cancel card: %v", errUpdate)
	}

	if _, errRedeem := redeemer.Redeem(context.Background(), card.Code, 50, "order-1"); !errors.Is(errRedeem, ErrCardNotRedeemable) {
		t.Fatalf("redeem cancelled card: %v, want ErrCardNotRedeemable", errRedeem)
	}
}
