package event

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/storefront/backend/internal/domain/order"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/infrastructure/persistence/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupOutboxDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(&models.OutboxEntryModel{}))
	return db
}

func newOutboxEntry(t *testing.T, eventType string, createdAt time.Time) *shared.OutboxEntry {
	t.Helper()
	entry := shared.NewOutboxEntry(newTestEvent(eventType), []byte(`{"data":"test data"}`))
	entry.CreatedAt = createdAt
	entry.UpdatedAt = createdAt
	return entry
}

func TestGormOutboxRepository_SaveAndFindPending(t *testing.T) {
	repo := NewGormOutboxRepository(setupOutboxDB(t))
	ctx := context.Background()
	base := time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC)

	require.NoError(t, repo.Save(ctx))

	later := newOutboxEntry(t, order.EventTypeOrderDeleted, base.Add(time.Minute))
	earlier := newOutboxEntry(t, order.EventTypeCheckoutCompleted, base)
	require.NoError(t, repo.Save(ctx, later, earlier))

	pending, err := repo.FindPending(ctx, 10)
	require.NoError(t, err)
	require.Len(t, pending, 2)
	assert.Equal(t, earlier.ID, pending[0].ID)
	assert.Equal(t, order.EventTypeCheckoutCompleted, pending[0].EventType)
	assert.Equal(t, earlier.Payload, pending[0].Payload)

	limited, err := repo.FindPending(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)

	found, err := repo.FindByID(ctx, later.ID)
	require.NoError(t, err)
	assert.Equal(t, later.EventID, found.EventID)

	_, err = repo.FindByID(ctx, uuid.New())
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestGormOutboxRepository_MarkProcessing(t *testing.T) {
	repo := NewGormOutboxRepository(setupOutboxDB(t))
	ctx := context.Background()

	pending := newOutboxEntry(t, order.EventTypeOrderCreated, time.Now())
	sent := newOutboxEntry(t, order.EventTypeOrderCreated, time.Now())
	sent.MarkSent()
	require.NoError(t, repo.Save(ctx, pending, sent))

	claimed, err := repo.MarkProcessing(ctx, []uuid.UUID{pending.ID, sent.ID})
	require.NoError(t, err)
	require.Len(t, claimed, 1)
	assert.Equal(t, pending.ID, claimed[0].ID)
	assert.Equal(t, shared.OutboxStatusProcessing, claimed[0].Status)

	again, err := repo.MarkProcessing(ctx, []uuid.UUID{pending.ID})
	require.NoError(t, err)
	assert.Empty(t, again)

	none, err := repo.MarkProcessing(ctx, nil)
	require.NoError(t, err)
	assert.Nil(t, none)
}

func TestGormOutboxRepository_RetryableAndDead(t *testing.T) {
	repo := NewGormOutboxRepository(setupOutboxDB(t))
	ctx := context.Background()

	failed := newOutboxEntry(t, order.EventTypeCheckoutCompleted, time.Now())
	failed.MarkFailed("connection reset")
	dead := newOutboxEntry(t, order.EventTypeOrderDeleted, time.Now())
	dead.MaxRetries = 1
	dead.MarkFailed("exchange not found")
	require.NoError(t, repo.Save(ctx, failed, dead))

	due, err := repo.FindRetryable(ctx, time.Now(), 10)
	require.NoError(t, err)
	assert.Empty(t, due)

	due, err = repo.FindRetryable(ctx, time.Now().Add(time.Minute), 10)
	require.NoError(t, err)
	require.Len(t, due, 1)
	assert.Equal(t, failed.ID, due[0].ID)
	assert.Equal(t, "connection reset", due[0].LastError)

	deadEntries, total, err := repo.FindDead(ctx, 1, 20)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, deadEntries, 1)
	assert.Equal(t, dead.ID, deadEntries[0].ID)

	counts, err := repo.CountByStatus(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), counts[shared.OutboxStatusFailed])
	assert.Equal(t, int64(1), counts[shared.OutboxStatusDead])
}

func TestGormOutboxRepository_UpdateAndDeleteOlderThan(t *testing.T) {
	repo := NewGormOutboxRepository(setupOutboxDB(t))
	ctx := context.Background()

	entry := newOutboxEntry(t, order.EventTypeOrderCreated, time.Now())
	require.NoError(t, repo.Save(ctx, entry))

	entry.MarkSent()
	old := time.Now().Add(-8 * 24 * time.Hour)
	entry.ProcessedAt = &old
	require.NoError(t, repo.Update(ctx, entry))

	fresh := newOutboxEntry(t, order.EventTypeOrderCreated, time.Now())
	fresh.MarkSent()
	require.NoError(t, repo.Save(ctx, fresh))

	deleted, err := repo.DeleteOlderThan(ctx, time.Now().Add(-7*24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	_, err = repo.FindByID(ctx, entry.ID)
	assert.ErrorIs(t, err, shared.ErrNotFound)
	_, err = repo.FindByID(ctx, fresh.ID)
	assert.NoError(t, err)
}
