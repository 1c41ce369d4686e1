package giftcard

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/storefront-ops/giftcard-ledger/internal/mail"
	"github.com/storefront-ops/giftcard-ledger/internal/models"
	"github.com/storefront-ops/giftcard-ledger/internal/util"
)

// Issuance bounds in currency units.
const (
	MinCardAmount = 100
	MaxCardAmount = 50000
)

// codeRetryLimit bounds code regeneration attempts on unique collisions.
const codeRetryLimit = 5

// mailDeliveryTimeout bounds the detached post-commit delivery call.
const mailDeliveryTimeout = 15 * time.Second

// IssueParams carries the inputs for issuing a new card.
type IssueParams struct {
	Amount         float64 `validate:"gte=100,lte=50000"`
	RecipientEmail string  `validate:"required,email"`
	RecipientName  *string
	SenderName     *string
	Message        *string
	OwnerUserID    *uint64
}

// Issuer creates cards together with their opening PURCHASE transaction.
type Issuer struct {
	db       *gorm.DB
	mailer   mail.Mailer
	validate *validator.Validate
	now      func() time.Time
}

// NewIssuer constructs an Issuer.
func NewIssuer(db *gorm.DB, mailer mail.Mailer) *Issuer {
	if mailer == nil {
		mailer = mail.NopMailer{}
	}
	return &Issuer{
		db:       db,
		mailer:   mailer,
		validate: validator.New(),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// WithNow overrides the clock, for tests.
func (i *Issuer) WithNow(now func() time.Time) *Issuer {
	i.now = now
	return i
}

// Issue validates the request, persists the card and its opening PURCHASE
// transaction as one atomic unit, then triggers an asynchronous best-effort
// delivery of the code. Delivery failure never fails the issuance.
func (i *Issuer) Issue(ctx context.Context, params IssueParams) (*models.GiftCard, error) {
	if errValidate := i.validate.Struct(params); errValidate != nil {
		return nil, fmt.Errorf("%w: %s", ErrValidation, validationReason(errValidate))
	}
	if params.Amount != roundAmount(params.Amount) {
		return nil, fmt.Errorf("%w: amount must have at most two decimal places", ErrValidation)
	}

	now := i.now()
	var card models.GiftCard
	var lastErr error
	for attempt := 0; attempt < codeRetryLimit; attempt++ {
		code, errCode := GenerateCode()
		if errCode != nil {
			return nil, errCode
		}

		card = models.GiftCard{
			Code:           code,
			InitialAmount:  params.Amount,
			CurrentBalance: params.Amount,
			Status:         models.CardStatusActive,
			IssuedAt:       now,
			ExpiresAt:      now.AddDate(0, 0, ValidityDays),
			RecipientEmail: params.RecipientEmail,
			RecipientName:  params.RecipientName,
			SenderName:     params.SenderName,
			Message:        params.Message,
			OwnerUserID:    params.OwnerUserID,
		}

		lastErr = i.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if errCreate := tx.Create(&card).Error; errCreate != nil {
				return errCreate
			}
			opening := models.Transaction{
				ID:         uuid.New(),
				GiftCardID: card.ID,
				Type:       models.TransactionTypePurchase,
				Amount:     params.Amount,
				CreatedAt:  now,
			}
			return tx.Create(&opening).Error
		})
		if lastErr == nil {
			i.deliverAsync(card)
			return &card, nil
		}
		if !isDuplicateOrderErr(lastErr) {
			return nil, lastErr
		}
		// Code collision: regenerate and try again.
	}
	return nil, fmt.Errorf("issue gift card: %w", lastErr)
}

// deliverAsync sends the code to the recipient without holding the caller.
func (i *Issuer) deliverAsync(card models.GiftCard) {
	d := mail.Delivery{
		RecipientEmail: card.RecipientEmail,
		Code:           card.Code,
		Amount:         card.InitialAmount,
		ExpiresAt:      card.ExpiresAt,
	}
	if card.RecipientName != nil {
		d.RecipientName = *card.RecipientName
	}
	if card.SenderName != nil {
		d.SenderName = *card.SenderName
	}
	if card.Message != nil {
		d.Message = *card.Message
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), mailDeliveryTimeout)
		defer cancel()
		if errDeliver := i.mailer.Deliver(ctx, d); errDeliver != nil {
			log.WithError(errDeliver).
				WithField("card", util.MaskCode(card.Code)).
				Warn("gift card email delivery failed")
		}
	}()
}

// validationReason renders the first validator failure as a stable,
// machine-readable reason string.
func validationReason(err error) string {
	var fieldErrs validator.ValidationErrors
	if ok := errors.As(err, &fieldErrs); ok && len(fieldErrs) > 0 {
		fe := fieldErrs[0]
		switch fe.Field() {
		case "Amount":
			return fmt.Sprintf("amount must be between %d and %d", MinCardAmount, MaxCardAmount)
		case "RecipientEmail":
			return "recipient email is invalid"
		}
		return fmt.Sprintf("%s is invalid", fe.Field())
	}
	return "invalid request"
}
