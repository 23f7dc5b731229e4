package models

import (
	"errors"
	"math"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "stockbank/internal/errors"
)

func TestNewStockOrder(t *testing.T) {
	amount := decimal.RequireFromString("120.456")

	t.Run("valid order is pending and quantized", func(t *testing.T) {
		order, err := NewStockOrder(amount, OrderTypeSell, "owner", "stock", "account")
		require.NoError(t, err)
		assert.Equal(t, int64(12046), order.Amount)
		assert.Equal(t, OrderStatusPending, order.Status)
		assert.True(t, order.IsPending())
		assert.Nil(t, order.PurchasePrice)
	})

	tests := []struct {
		name      string
		amount    decimal.Decimal
		orderType OrderType
		owner     string
		stock     string
		account   string
		want      *apperrors.AppError
	}{
		{"negative amount", decimal.RequireFromString("-1"), OrderTypeBuy, "o", "s", "a", apperrors.ErrInvalidAmount},
		{"amount overflows cents", decimal.RequireFromString("100000000000000000"), OrderTypeBuy, "o", "s", "a", apperrors.ErrInvalidAmount},
		{"missing stock", amount, OrderTypeBuy, "o", "", "a", apperrors.ErrInvalidStock},
		{"missing owner", amount, OrderTypeBuy, "", "s", "a", apperrors.ErrInvalidOwner},
		{"missing account", amount, OrderTypeBuy, "o", "s", "", apperrors.ErrInvalidAccount},
		{"unknown type", amount, OrderType("HOLD"), "o", "s", "a", apperrors.ErrInvalidOrderType},
		{"negative amount wins over missing ids", decimal.RequireFromString("-0.01"), OrderType(""), "", "", "", apperrors.ErrInvalidAmount},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			order, err := NewStockOrder(tt.amount, tt.orderType, tt.owner, tt.stock, tt.account)
			assert.Nil(t, order)
			assert.True(t, errors.Is(err, tt.want), "got %v, want %s", err, tt.want.Code)
		})
	}

	t.Run("largest representable amount is allowed", func(t *testing.T) {
		order, err := NewStockOrder(decimal.RequireFromString("92233720368547758.07"), OrderTypeSell, "o", "s", "a")
		require.NoError(t, err)
		assert.Equal(t, int64(math.MaxInt64), order.Amount)
	})

	t.Run("zero amount is allowed", func(t *testing.T) {
		order, err := NewStockOrder(decimal.Zero, OrderTypeBuy, "o", "s", "a")
		require.NoError(t, err)
		assert.Equal(t, int64(0), order.Amount)
	})
}

func TestOrderType_Opposite(t *testing.T) {
	opp, ok := OrderTypeBuy.Opposite()
	assert.True(t, ok)
	assert.Equal(t, OrderTypeSell, opp)

	opp, ok = OrderTypeSell.Opposite()
	assert.True(t, ok)
	assert.Equal(t, OrderTypeBuy, opp)

	_, ok = OrderType("SHORT").Opposite()
	assert.False(t, ok)
}

func TestNewFinancialSecurity(t *testing.T) {
	sec, err := NewFinancialSecurity(10000, "owner", "stock")
	require.NoError(t, err)
	assert.Equal(t, int64(10000), sec.PurchasePrice)

	_, err = NewFinancialSecurity(-1, "owner", "stock")
	assert.True(t, errors.Is(err, apperrors.ErrInvalidAmount))
	_, err = NewFinancialSecurity(1, "", "stock")
	assert.True(t, errors.Is(err, apperrors.ErrInvalidOwner))
	_, err = NewFinancialSecurity(1, "owner", "")
	assert.True(t, errors.Is(err, apperrors.ErrInvalidStock))
}
