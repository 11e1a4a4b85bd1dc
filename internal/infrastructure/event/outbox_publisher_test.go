package event

import (
	"context"
	"testing"

	"github.com/storefront/backend/internal/domain/order"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"gorm.io/gorm"
)

func TestOutboxPublisher_RecordsBusEvents(t *testing.T) {
	repo := NewGormOutboxRepository(setupOutboxDB(t))
	serializer := NewEventSerializer()
	RegisterStoreEvents(serializer)

	bus := NewInMemoryEventBus(zaptest.NewLogger(t))
	publisher := NewOutboxPublisher(serializer, repo)
	bus.Subscribe(publisher)
	assert.Empty(t, publisher.EventTypes())

	event := newCheckoutCompleted()
	require.NoError(t, bus.Publish(context.Background(), event, newTestEvent(order.EventTypeOrderDeleted)))

	pending, err := repo.FindPending(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, pending, 2)

	var recorded *shared.OutboxEntry
	for _, p := range pending {
		if p.EventType == order.EventTypeCheckoutCompleted {
			recorded = p
		}
	}
	require.NotNil(t, recorded)
	assert.Equal(t, event.EventID(), recorded.EventID)
	assert.Equal(t, order.AggregateTypeOrder, recorded.AggregateType)

	decoded, err := serializer.Deserialize(recorded.EventType, recorded.Payload)
	require.NoError(t, err)
	assert.Equal(t, "1042", decoded.(*order.CheckoutCompletedEvent).OrderNumber)
}

func TestOutboxPublisher_PublishWithTx(t *testing.T) {
	db := setupOutboxDB(t)
	repo := NewGormOutboxRepository(db)
	publisher := NewOutboxPublisher(NewEventSerializer(), repo)
	ctx := context.Background()

	err := db.Transaction(func(tx *gorm.DB) error {
		return publisher.PublishWithTx(ctx, tx, newCheckoutCompleted(), newCheckoutCompleted())
	})
	require.NoError(t, err)

	counts, err := repo.CountByStatus(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), counts[shared.OutboxStatusPending])

	require.NoError(t, db.Transaction(func(tx *gorm.DB) error {
		return publisher.PublishWithTx(ctx, tx)
	}))
}
