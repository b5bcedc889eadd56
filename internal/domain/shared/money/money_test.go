package money

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewValidatesCurrency(t *testing.T) {
	m, err := New(500, "eur")
	require.NoError(t, err)
	assert.Equal(t, "EUR", m.Currency)
	assert.Equal(t, int64(500), m.Amount)

	_, err = New(500, "euro")
	assert.ErrorIs(t, err, ErrInvalidCurrency)

	_, err = NewPositive(-1, "EUR")
	assert.ErrorIs(t, err, ErrNegativeAmount)
}

func TestArithmeticRequiresSameCurrency(t *testing.T) {
	a := Must(200, "EUR")
	b := Must(50, "EUR")

	sum, err := a.Add(b)
	require.NoError(t, err)
	assert.Equal(t, int64(250), sum.Amount)

	diff, err := a.Sub(b)
	require.NoError(t, err)
	assert.Equal(t, int64(150), diff.Amount)

	_, err = a.Add(Must(50, "USD"))
	assert.ErrorIs(t, err, ErrCurrencyMismatch)

	_, err = a.Sub(Money{Amount: 50})
	assert.ErrorIs(t, err, ErrInvalidCurrency)
}

func TestMultiplyAndPredicates(t *testing.T) {
	m := Must(100, "EUR").Multiply(3)
	assert.Equal(t, int64(300), m.Amount)
	assert.True(t, m.IsPositive())
	assert.False(t, m.IsZero())

	zero := Must(0, "EUR")
	assert.True(t, zero.IsZero())
	assert.False(t, zero.IsPositive())

	assert.Equal(t, "300 EUR", m.String())
}
