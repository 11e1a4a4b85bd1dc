package valueobject

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMoney(t *testing.T) {
	t.Run("creates money with valid amount and currency", func(t *testing.T) {
		m, err := NewMoney(decimal.NewFromFloat(100.50), USD)
		require.NoError(t, err)
		assert.Equal(t, USD, m.Currency())
		assert.True(t, m.Amount().Equal(decimal.NewFromFloat(100.50)))
	})

	t.Run("returns error for empty currency", func(t *testing.T) {
		_, err := NewMoney(decimal.NewFromFloat(100), "")
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "currency cannot be empty")
	})
}

func TestNewMoneyFromString(t *testing.T) {
	t.Run("valid string", func(t *testing.T) {
		m, err := NewMoneyFromString("123.45", EUR)
		require.NoError(t, err)
		assert.True(t, m.Amount().Equal(decimal.RequireFromString("123.45")))
	})

	t.Run("invalid string", func(t *testing.T) {
		_, err := NewMoneyFromString("not-a-number", EUR)
		assert.Error(t, err)
	})
}

func TestParseCurrency(t *testing.T) {
	c, err := ParseCurrency("usd")
	require.NoError(t, err)
	assert.Equal(t, USD, c)

	_, err = ParseCurrency("XX")
	assert.Error(t, err)
}

func TestCurrencyScale(t *testing.T) {
	assert.Equal(t, int32(2), USD.Scale())
	assert.Equal(t, int32(0), JPY.Scale())
}

func TestMoneyArithmetic(t *testing.T) {
	a := MustMoney(decimal.RequireFromString("10.25"), USD)
	b := MustMoney(decimal.RequireFromString("2.75"), USD)

	sum, err := a.Add(b)
	require.NoError(t, err)
	assert.True(t, sum.Amount().Equal(decimal.NewFromInt(13)))

	diff, err := a.Subtract(b)
	require.NoError(t, err)
	assert.True(t, diff.Amount().Equal(decimal.RequireFromString("7.5")))

	_, err = a.Add(MustMoney(decimal.NewFromInt(1), EUR))
	assert.Error(t, err)

	assert.True(t, a.Multiply(decimal.NewFromInt(2)).Amount().Equal(decimal.RequireFromString("20.5")))
	assert.True(t, a.Negate().IsNegative())
}

func TestMoneyRound(t *testing.T) {
	m := MustMoney(decimal.RequireFromString("10.125"), USD)
	assert.Equal(t, "10.13", m.Round().Amount().StringFixed(2))

	y := MustMoney(decimal.RequireFromString("150.6"), JPY)
	assert.True(t, y.Round().Amount().Equal(decimal.NewFromInt(151)))
}

func TestMoneyFormat(t *testing.T) {
	m := MustMoney(decimal.RequireFromString("12.5"), USD)
	assert.Equal(t, "12.50 USD", m.Format())
	assert.Equal(t, "1000 JPY", MustMoney(decimal.NewFromInt(1000), JPY).Format())
}

func TestMoneyJSON(t *testing.T) {
	m := MustMoney(decimal.RequireFromString("9.9"), USD)
	data, err := json.Marshal(m)
	require.NoError(t, err)
	assert.JSONEq(t, `{"amount":"9.90","currency":"USD"}`, string(data))

	var parsed Money
	require.NoError(t, json.Unmarshal(data, &parsed))
	assert.True(t, parsed.Equals(m))
}

func TestMoneyScan(t *testing.T) {
	var m Money
	require.NoError(t, m.Scan(`{"amount":"3.00","currency":"EUR"}`))
	assert.Equal(t, EUR, m.Currency())

	require.NoError(t, m.Scan(nil))
	assert.True(t, m.IsZero())

	assert.Error(t, m.Scan(42))
}
