package giftcard

import (
	"context"
	"encoding/json"
	"time"

	"github.com/storefront-ops/giftcard-ledger/internal/cache"
	"github.com/storefront-ops/giftcard-ledger/internal/models"
)

// LookupService serves the public, unauthenticated balance check. It only
// ever returns the BalanceView projection; gifting metadata (recipient,
// sender, message) is never exposed to anonymous callers.
type LookupService struct {
	ledger *Ledger
	cache  *cache.Cache
	now    func() time.Time
}

// NewLookupService constructs a LookupService. cache may be nil.
func NewLookupService(ledger *Ledger, viewCache *cache.Cache) *LookupService {
	return &LookupService{
		ledger: ledger,
		cache:  viewCache,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// WithNow overrides the clock, for tests.
func (s *LookupService) WithNow(now func() time.Time) *LookupService {
	s.now = now
	return s
}

// CheckBalance returns the public view for a card code. Cached entries are
// re-checked against the expiry clock so a card never reads ACTIVE past its
// expires_at, no matter when the entry was stored.
func (s *LookupService) CheckBalance(ctx context.Context, code string) (*BalanceView, error) {
	code = NormalizeCode(code)
	if !ValidCodeFormat(code) {
		return nil, ErrCardNotFound
	}

	if payload, ok := s.cache.Get(ctx, code); ok {
		var view BalanceView
		if errUnmarshal := json.Unmarshal(payload, &view); errUnmarshal == nil {
			if view.Status == models.CardStatusActive && s.now().After(view.ExpiresAt) {
				view.Status = models.CardStatusExpired
			}
			return &view, nil
		}
	}

	view, err := s.ledger.GetBalance(ctx, code)
	if err != nil {
		return nil, err
	}
	if payload, errMarshal := json.Marshal(view); errMarshal == nil {
		s.cache.Set(ctx, code, payload)
	}
	return view, nil
}
