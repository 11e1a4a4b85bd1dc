package event

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var errOutboxEntryNotFound = shared.NewDomainError("NOT_FOUND", "Outbox entry not found")

// GormOutboxRepository keeps outbox entries in the outbox_events table.
type GormOutboxRepository struct {
	db *gorm.DB
}

func NewGormOutboxRepository(db *gorm.DB) *GormOutboxRepository {
	return &GormOutboxRepository{db: db}
}

// WithTx binds the repository to tx so entries commit with the aggregate.
func (r *GormOutboxRepository) WithTx(tx *gorm.DB) *GormOutboxRepository {
	return &GormOutboxRepository{db: tx}
}

func withStatus(statuses ...shared.OutboxStatus) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if len(statuses) == 1 {
			return db.Where("status = ?", statuses[0])
		}
		return db.Where("status IN ?", statuses)
	}
}

func (r *GormOutboxRepository) table(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Model(&models.OutboxEntryModel{})
}

func (r *GormOutboxRepository) find(q *gorm.DB) ([]*shared.OutboxEntry, error) {
	var rows []*models.OutboxEntryModel
	if err := q.Find(&rows).Error; err != nil {
		return nil, err
	}
	entries := make([]*shared.OutboxEntry, len(rows))
	for i, row := range rows {
		entries[i] = row.ToDomain()
	}
	return entries, nil
}

func (r *GormOutboxRepository) Save(ctx context.Context, entries ...*shared.OutboxEntry) error {
	if len(entries) == 0 {
		return nil
	}
	rows := make([]*models.OutboxEntryModel, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, models.OutboxEntryModelFromDomain(e))
	}
	return r.db.WithContext(ctx).Create(rows).Error
}

// FindPending returns never-attempted entries in creation order.
func (r *GormOutboxRepository) FindPending(ctx context.Context, limit int) ([]*shared.OutboxEntry, error) {
	return r.find(r.table(ctx).Scopes(withStatus(shared.OutboxStatusPending)).
		Order("created_at").Limit(limit))
}

func (r *GormOutboxRepository) FindRetryable(ctx context.Context, before time.Time, limit int) ([]*shared.OutboxEntry, error) {
	return r.find(r.table(ctx).Scopes(withStatus(shared.OutboxStatusFailed)).
		Where("next_retry_at <= ?", before).
		Order("next_retry_at").Limit(limit))
}

// MarkProcessing claims the pending or failed entries among ids. On
// PostgreSQL rows another relay holds are skipped, so each entry is
// claimed by one caller.
func (r *GormOutboxRepository) MarkProcessing(ctx context.Context, ids []uuid.UUID) ([]*shared.OutboxEntry, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var claimed []*shared.OutboxEntry
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		q := tx.Model(&models.OutboxEntryModel{}).
			Clauses(clause.Locking{Strength: clause.LockingStrengthUpdate, Options: clause.LockingOptionsSkipLocked}).
			Scopes(withStatus(shared.OutboxStatusPending, shared.OutboxStatusFailed)).
			Where("id IN ?", ids)
		entries, err := r.find(q)
		if err != nil || len(entries) == 0 {
			return err
		}

		won := make([]uuid.UUID, len(entries))
		for i, e := range entries {
			if err := e.MarkProcessing(); err != nil {
				return err
			}
			won[i] = e.ID
		}
		now := entries[0].UpdatedAt
		if err := tx.Model(&models.OutboxEntryModel{}).Where("id IN ?", won).
			Updates(map[string]any{"status": shared.OutboxStatusProcessing, "updated_at": now}).Error; err != nil {
			return err
		}
		claimed = entries
		return nil
	})
	return claimed, err
}

// Update stores the entry as the domain left it after a delivery attempt.
func (r *GormOutboxRepository) Update(ctx context.Context, entry *shared.OutboxEntry) error {
	return r.db.WithContext(ctx).Save(models.OutboxEntryModelFromDomain(entry)).Error
}

func (r *GormOutboxRepository) DeleteOlderThan(ctx context.Context, before time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Scopes(withStatus(shared.OutboxStatusSent)).
		Where("processed_at < ?", before).
		Delete(&models.OutboxEntryModel{})
	return res.RowsAffected, res.Error
}

// FindDead pages through dead letters, most recently failed first.
func (r *GormOutboxRepository) FindDead(ctx context.Context, page, pageSize int) ([]*shared.OutboxEntry, int64, error) {
	var total int64
	if err := r.table(ctx).Scopes(withStatus(shared.OutboxStatusDead)).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	page = max(page, 1)
	entries, err := r.find(r.table(ctx).Scopes(withStatus(shared.OutboxStatusDead)).
		Order("updated_at DESC").Offset((page - 1) * pageSize).Limit(pageSize))
	if err != nil {
		return nil, 0, err
	}
	return entries, total, nil
}

func (r *GormOutboxRepository) FindByID(ctx context.Context, id uuid.UUID) (*shared.OutboxEntry, error) {
	var row models.OutboxEntryModel
	switch err := r.db.WithContext(ctx).First(&row, "id = ?", id).Error; {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return nil, errOutboxEntryNotFound
	case err != nil:
		return nil, err
	}
	return row.ToDomain(), nil
}

func (r *GormOutboxRepository) CountByStatus(ctx context.Context) (map[shared.OutboxStatus]int64, error) {
	var rows []struct {
		Status shared.OutboxStatus
		N      int64
	}
	if err := r.table(ctx).Select("status, count(*) AS n").Group("status").Scan(&rows).Error; err != nil {
		return nil, err
	}
	counts := make(map[shared.OutboxStatus]int64, len(rows))
	for _, row := range rows {
		counts[row.Status] = row.N
	}
	return counts, nil
}

var _ shared.OutboxRepository = (*GormOutboxRepository)(nil)
