package jobs

import (
	"context"
	"fmt"
	"time"

	orderapp "github.com/storefront/backend/internal/application/order"
	reportapp "github.com/storefront/backend/internal/application/report"
	"github.com/storefront/backend/internal/infrastructure/scheduler"
	"go.uber.org/zap"
)

// CartCleaner deletes abandoned checkout orders
type CartCleaner interface {
	DeleteAbandonedCarts(ctx context.Context, now time.Time, anonymous, authenticated time.Duration) (orderapp.CartCleanupResult, error)
}

// SummaryArchiver uploads a day's sales summary to object storage
type SummaryArchiver interface {
	ArchiveEnabled() bool
	ArchiveSummary(ctx context.Context, day time.Time) (*reportapp.ArchiveResponse, error)
}

// CartDurations are the ages after which checkout orders count as abandoned
type CartDurations struct {
	Anonymous     time.Duration
	Authenticated time.Duration
}

// StoreJobExecutor runs the daily store jobs
type StoreJobExecutor struct {
	carts    CartCleaner
	archiver SummaryArchiver
	cart     CartDurations
	logger   *zap.Logger
	now      func() time.Time
}

// NewStoreJobExecutor creates a new executor
func NewStoreJobExecutor(carts CartCleaner, archiver SummaryArchiver, cart CartDurations, logger *zap.Logger) *StoreJobExecutor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StoreJobExecutor{
		carts:    carts,
		archiver: archiver,
		cart:     cart,
		logger:   logger,
		now:      time.Now,
	}
}

// Execute implements scheduler.JobExecutor
func (e *StoreJobExecutor) Execute(ctx context.Context, job *scheduler.Job) error {
	switch job.Type {
	case scheduler.JobTypeCartCleanup:
		result, err := e.carts.DeleteAbandonedCarts(ctx, e.now(), e.cart.Anonymous, e.cart.Authenticated)
		if err != nil {
			return fmt.Errorf("cart cleanup: %w", err)
		}
		e.logger.Info("Cart cleanup finished",
			zap.Int("anonymous", result.Anonymous),
			zap.Int("authenticated", result.Authenticated),
		)
		return nil
	case scheduler.JobTypeReportArchive:
		if e.archiver == nil || !e.archiver.ArchiveEnabled() {
			e.logger.Debug("Report archive skipped, storage disabled")
			return nil
		}
		archived, err := e.archiver.ArchiveSummary(ctx, job.PeriodStart)
		if err != nil {
			return fmt.Errorf("report archive: %w", err)
		}
		e.logger.Info("Report archive finished", zap.String("key", archived.Key))
		return nil
	default:
		return scheduler.ErrInvalidJobType
	}
}

var _ scheduler.JobExecutor = (*StoreJobExecutor)(nil)
