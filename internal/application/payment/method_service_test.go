package payment

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/storefront/backend/internal/domain/payment"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/tests/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMethodService_CRUD(t *testing.T) {
	ctx := context.Background()
	repo := testutil.NewStubMethodRepository()
	svc := NewMethodService(repo)

	created, err := svc.Create(ctx, CreateMethodRequest{ID: "check", Plugin: "check", Label: "Check", Weight: 2})
	require.NoError(t, err)
	assert.True(t, created.Enabled)
	assert.Contains(t, string(created.Settings), "10 business days")

	_, err = svc.Create(ctx, CreateMethodRequest{ID: "check", Plugin: "check", Label: "Check"})
	assert.True(t, errors.Is(err, shared.ErrAlreadyExists))

	_, err = svc.Create(ctx, CreateMethodRequest{ID: "Bad ID", Plugin: "check", Label: "Check"})
	assert.Error(t, err)

	label, weight := "Money order", 5
	updated, err := svc.Update(ctx, "check", UpdateMethodRequest{Label: &label, Weight: &weight})
	require.NoError(t, err)
	assert.Equal(t, "Money order", updated.Label)
	assert.Equal(t, 5, updated.Weight)

	disabled, err := svc.Disable(ctx, "check")
	require.NoError(t, err)
	assert.False(t, disabled.Enabled)
	enabled, err := svc.Enable(ctx, "check")
	require.NoError(t, err)
	assert.True(t, enabled.Enabled)

	list, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	msg, err := svc.Delete(ctx, "check")
	require.NoError(t, err)
	assert.Equal(t, "Payment method Money order has been deleted.", msg)
	_, err = svc.Get(ctx, "check")
	assert.True(t, errors.Is(err, shared.ErrNotFound))
}

func TestMethodService_PayPalSecretMasked(t *testing.T) {
	ctx := context.Background()
	svc := NewMethodService(testutil.NewStubMethodRepository())

	settings := payment.DefaultPayPalSettings()
	settings.Client = "client"
	settings.Secret = "s3cret"
	raw, err := json.Marshal(settings)
	require.NoError(t, err)

	created, err := svc.Create(ctx, CreateMethodRequest{ID: "paypal", Plugin: "paypal_checkout", Label: "PayPal", Settings: raw})
	require.NoError(t, err)
	assert.NotContains(t, string(created.Settings), "s3cret")

	// Round-tripping the masked settings keeps the stored secret.
	_, err = svc.Update(ctx, "paypal", UpdateMethodRequest{Settings: created.Settings})
	require.NoError(t, err)

	m, err := svc.methodRepo.FindByID(ctx, "paypal")
	require.NoError(t, err)
	assert.Equal(t, "s3cret", m.PayPalSettings().Secret)
}
