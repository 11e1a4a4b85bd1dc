package payment

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMethod(t *testing.T) {
	t.Run("check method gets default policy", func(t *testing.T) {
		m, err := NewMethod("check", PluginCheck, "Check")
		require.NoError(t, err)
		assert.True(t, m.Enabled)
		assert.Equal(t, DefaultCheckPolicy, m.CheckSettings().Policy)
	})

	t.Run("paypal method gets defaults", func(t *testing.T) {
		m, err := NewMethod("paypal", PluginPayPalCheckout, "PayPal")
		require.NoError(t, err)
		s := m.PayPalSettings()
		assert.Equal(t, PayPalEnvSandbox, s.Env)
		assert.Len(t, s.AllowedFunding, 12)
	})

	t.Run("validation", func(t *testing.T) {
		_, err := NewMethod("Bad Id", PluginCheck, "Check")
		assert.Error(t, err)
		_, err = NewMethod("ok", Plugin("bitcoin"), "Coins")
		assert.Error(t, err)
		_, err = NewMethod("ok", PluginCOD, "")
		assert.Error(t, err)
	})
}

func TestMethod_EnableDisable(t *testing.T) {
	m, err := NewMethod("cod", PluginCOD, "Cash on delivery")
	require.NoError(t, err)
	m.Disable()
	assert.False(t, m.Enabled)
	m.Enable()
	assert.True(t, m.Enabled)

	require.NoError(t, m.Update("COD", 3))
	assert.Equal(t, 3, m.Weight)
	assert.Error(t, m.Update("", 0))
}

func TestPayPalSettings_Validate(t *testing.T) {
	valid := func() PayPalSettings {
		s := DefaultPayPalSettings()
		s.Client = "client"
		s.Secret = "secret"
		return s
	}

	tests := []struct {
		name    string
		mutate  func(*PayPalSettings)
		wantErr bool
	}{
		{"valid", func(*PayPalSettings) {}, false},
		{"bad env", func(s *PayPalSettings) { s.Env = "live" }, true},
		{"missing client", func(s *PayPalSettings) { s.Client = "" }, true},
		{"missing secret", func(s *PayPalSettings) { s.Secret = " " }, true},
		{"unknown funding", func(s *PayPalSettings) { s.AllowedFunding = []string{"CARD", "BITCOIN"} }, true},
		{"invalid button style", func(s *PayPalSettings) { s.ButtonStyle = "{layout" }, true},
		{"array override", func(s *PayPalSettings) { s.OverrideConfig = "[1,2]" }, true},
		{"empty json fields", func(s *PayPalSettings) { s.ButtonStyle = ""; s.OverrideConfig = "" }, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := valid()
			tt.mutate(&s)
			err := s.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestMethod_SetSettings(t *testing.T) {
	m, err := NewMethod("paypal", PluginPayPalCheckout, "PayPal")
	require.NoError(t, err)

	err = m.SetSettings(json.RawMessage(`{"env":"production","client":"c","secret":"s"}`))
	require.NoError(t, err)
	s := m.PayPalSettings()
	assert.Equal(t, PayPalEnvProduction, s.Env)
	assert.Equal(t, "en_US", s.ButtonLocale)

	assert.Error(t, m.SetSettings(json.RawMessage(`{"env":"production"}`)))
	assert.Error(t, m.SetCheckSettings(DefaultCheckSettings()))

	other, err := NewMethod("other", PluginOther, "Other")
	require.NoError(t, err)
	assert.Error(t, other.SetSettings(json.RawMessage(`"text"`)))
	require.NoError(t, other.SetSettings(nil))
	assert.JSONEq(t, `{}`, string(other.Settings))
}

func TestTransactionType(t *testing.T) {
	tests := []struct {
		txn       TransactionType
		needsAuth bool
		needsRef  bool
		sign      int
	}{
		{TxnAuthCapture, false, false, 1},
		{TxnAuthOnly, false, false, 0},
		{TxnReferenceSet, false, false, 0},
		{TxnCredit, false, false, -1},
		{TxnPriorAuthCapture, true, false, 1},
		{TxnVoid, true, false, 0},
		{TxnReferenceTxn, false, true, 1},
		{TxnReferenceRemove, false, true, 0},
		{TxnReferenceCredit, false, true, -1},
	}
	for _, tt := range tests {
		t.Run(tt.txn.String(), func(t *testing.T) {
			assert.True(t, tt.txn.IsValid())
			assert.Equal(t, tt.needsAuth, tt.txn.RequiresAuthorization())
			assert.Equal(t, tt.needsRef, tt.txn.RequiresReference())
			assert.Equal(t, tt.sign, tt.txn.ReceiptSign())
		})
	}
	assert.False(t, TransactionType("refund").IsValid())
}

func TestCardData_Validate(t *testing.T) {
	now := time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC)
	valid := CardData{Number: "4111 1111 1111 1111", ExpMonth: 12, ExpYear: 2030, CVV: "123"}
	assert.NoError(t, valid.Validate(now))
	assert.Equal(t, "1111", valid.Last4())

	tests := []struct {
		name string
		card CardData
	}{
		{"short number", CardData{Number: "4111", ExpMonth: 1, ExpYear: 2030}},
		{"letters", CardData{Number: "4111abcd11111111", ExpMonth: 1, ExpYear: 2030}},
		{"bad month", CardData{Number: "4111111111111111", ExpMonth: 13, ExpYear: 2030}},
		{"expired", CardData{Number: "4111111111111111", ExpMonth: 5, ExpYear: 2024}},
		{"bad cvv", CardData{Number: "4111111111111111", ExpMonth: 1, ExpYear: 2030, CVV: "12"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Error(t, tt.card.Validate(now))
		})
	}
}

func TestReceiptAndBalance(t *testing.T) {
	orderID := uuid.New()
	r1, err := NewReceipt(orderID, "check", decimal.NewFromInt(30), "USD", uuid.Nil, " first ")
	require.NoError(t, err)
	assert.Equal(t, "first", r1.Comment)

	r2, err := NewReceipt(orderID, "credit", decimal.NewFromInt(-5), "USD", uuid.Nil, "")
	require.NoError(t, err)

	balance := Balance(decimal.NewFromInt(100), []Receipt{*r1, *r2})
	assert.True(t, balance.Equal(decimal.NewFromInt(75)))

	_, err = NewReceipt(orderID, "check", decimal.Zero, "USD", uuid.Nil, "")
	assert.Error(t, err)
	_, err = NewReceipt(uuid.Nil, "check", decimal.NewFromInt(1), "USD", uuid.Nil, "")
	assert.Error(t, err)

	_, ok := r1.ClearDate()
	assert.False(t, ok)
	r1.SetClearDate(time.Date(2024, 3, 9, 15, 0, 0, 0, time.UTC))
	d, ok := r1.ClearDate()
	require.True(t, ok)
	assert.Equal(t, "2024-03-09", d.Format(time.DateOnly))
}
