package order

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/storefront/backend/internal/domain/order"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type recordingNotifier struct {
	sent []OrderNotification
	err  error
}

func (n *recordingNotifier) Notify(_ context.Context, msg OrderNotification) error {
	n.sent = append(n.sent, msg)
	return n.err
}

func TestOrderNotificationHandler(t *testing.T) {
	ctx := context.Background()
	catalog := order.DefaultStatusCatalog()

	newEvent := func(email string) *order.OrderStatusEmailRequestedEvent {
		o, err := order.NewOrder("ORD-2026-00007", uuid.New(), "USD", catalog)
		require.NoError(t, err)
		o.PrimaryEmail = email
		require.NoError(t, o.UpdateStatus(catalog, order.StatusPending, uuid.Nil, "On its way", true))
		for _, e := range o.GetDomainEvents() {
			if ev, ok := e.(*order.OrderStatusEmailRequestedEvent); ok {
				return ev
			}
		}
		t.Fatal("no notification event raised")
		return nil
	}

	t.Run("sends notification with store subject", func(t *testing.T) {
		notifier := &recordingNotifier{}
		h := NewOrderNotificationHandler(notifier, "Acme", "shop@acme.test", zaptest.NewLogger(t))

		require.NoError(t, h.Handle(ctx, newEvent("buyer@example.com")))
		require.Len(t, notifier.sent, 1)
		assert.Equal(t, "buyer@example.com", notifier.sent[0].To)
		assert.Equal(t, "Acme: Order #ORD-2026-00007 Update", notifier.sent[0].Subject)
		assert.Equal(t, "On its way", notifier.sent[0].Message)
		assert.Equal(t, order.StatusPending, notifier.sent[0].StatusID)
	})

	t.Run("skips orders without e-mail", func(t *testing.T) {
		notifier := &recordingNotifier{}
		h := NewOrderNotificationHandler(notifier, "", "", zaptest.NewLogger(t))

		require.NoError(t, h.Handle(ctx, newEvent("")))
		assert.Empty(t, notifier.sent)
	})

	t.Run("notifier failure is swallowed", func(t *testing.T) {
		notifier := &recordingNotifier{err: errors.New("smtp down")}
		h := NewOrderNotificationHandler(notifier, "", "", zaptest.NewLogger(t))

		assert.NoError(t, h.Handle(ctx, newEvent("buyer@example.com")))
	})

	t.Run("rejects other events", func(t *testing.T) {
		h := NewOrderNotificationHandler(&recordingNotifier{}, "", "", zaptest.NewLogger(t))
		o, err := order.NewOrder("ORD-2026-00008", uuid.Nil, "USD", catalog)
		require.NoError(t, err)

		err = h.Handle(ctx, order.NewOrderDeletedEvent(o))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unexpected event type")
	})

	assert.Equal(t, []string{order.EventTypeOrderStatusEmailRequested},
		NewOrderNotificationHandler(nil, "", "", zaptest.NewLogger(t)).EventTypes())
}
