package giftcard

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/storefront-ops/giftcard-ledger/internal/cache"
	"github.com/storefront-ops/giftcard-ledger/internal/models"
)

const (
	defaultSweepInterval  = time.Hour
	defaultSweepBatchSize = 500
)

// ExpirySweeper periodically persists EXPIRED on stale ACTIVE cards. This
// is a reporting convenience only: every read and redemption derives expiry
// through LiveStatus, so correctness never depends on this job running.
type ExpirySweeper struct {
	db        *gorm.DB
	cache     *cache.Cache
	interval  time.Duration
	batchSize int
	now       func() time.Time
}

// NewExpirySweeper constructs a sweeper. cache may be nil.
func NewExpirySweeper(db *gorm.DB, viewCache *cache.Cache, interval time.Duration) *ExpirySweeper {
	if db == nil {
		return nil
	}
	if interval <= 0 {
		interval = defaultSweepInterval
	}
	return &ExpirySweeper{
		db:        db,
		cache:     viewCache,
		interval:  interval,
		batchSize: defaultSweepBatchSize,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Start launches the sweep loop in a background goroutine.
func (s *ExpirySweeper) Start(ctx context.Context) {
	if s == nil {
		return
	}
	if ctx == nil {
		ctx = context.Background()
	}
	go s.run(ctx)
	log.Infof("expiry sweeper started (interval=%s)", s.interval)
}

func (s *ExpirySweeper) run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := s.SweepOnce(ctx); err != nil {
				log.WithError(err).Warn("expiry sweep failed")
			}
		}
	}
}

// SweepOnce marks one pass of stale ACTIVE cards as EXPIRED and returns
// how many rows were updated.
func (s *ExpirySweeper) SweepOnce(ctx context.Context) (int64, error) {
	now := s.now()
	var total int64
	for {
		var codes []string
		if errFind := s.db.WithContext(ctx).
			Model(&models.GiftCard{}).
			Where("status = ? AND expires_at < ?", models.CardStatusActive, now).
			Limit(s.batchSize).
			Pluck("code", &codes).Error; errFind != nil {
			return total, errFind
		}
		if len(codes) == 0 {
			break
		}

		res := s.db.WithContext(ctx).
			Model(&models.GiftCard{}).
			Where("code IN ? AND status = ?", codes, models.CardStatusActive).
			Updates(map[string]any{
				"status":     models.CardStatusExpired,
				"updated_at": now,
			})
		if res.Error != nil {
			return total, res.Error
		}
		total += res.RowsAffected
		for _, code := range codes {
			s.cache.Del(ctx, code)
		}
		if len(codes) < s.batchSize {
			break
		}
	}
	if total > 0 {
		log.Infof("expiry sweep marked %d cards expired", total)
	}
	return total, nil
}
