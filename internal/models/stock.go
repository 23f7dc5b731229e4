package models

import (
	"strings"

	"github.com/shopspring/decimal"

	apperrors "stockbank/internal/errors"
	"stockbank/internal/money"
)

// Stock is a tradable instrument issued on the primary market at BasePrice
// until BaseQuantity units are held by users.
type Stock struct {
	Base
	Name         string `gorm:"not null;index" json:"name"`
	BaseQuantity int64  `gorm:"not null;default:0" json:"base_quantity"`
	BasePrice    int64  `gorm:"type:bigint;not null;default:0" json:"base_price"`
	Disabled     bool   `gorm:"not null;default:false" json:"disabled"`

	// Derived on read, never persisted.
	MarketPrice       int64 `gorm:"-" json:"market_price"`
	RemainingQuantity int64 `gorm:"-" json:"remaining_quantity"`
}

// NewStock validates and builds a Stock. The base price is quantized to cents.
func NewStock(name string, baseQuantity int64, basePrice decimal.Decimal) (*Stock, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "stock name is required")
	}
	if baseQuantity < 0 {
		return nil, apperrors.ErrInvalidQuantity
	}
	if basePrice.IsNegative() || !money.InRange(basePrice) {
		return nil, apperrors.ErrInvalidAmount
	}

	return &Stock{
		Name:         name,
		BaseQuantity: baseQuantity,
		BasePrice:    money.ToCents(basePrice),
	}, nil
}

// Refill increases the primary-market inventory. Inventory never shrinks.
func (s *Stock) Refill(quantity int64) error {
	if quantity <= 0 {
		return apperrors.WithMessage(apperrors.ErrInvalidQuantity, "refill quantity must be positive")
	}
	s.BaseQuantity += quantity
	return nil
}

// Tradable reports whether new orders and purchases may reference the stock.
func (s *Stock) Tradable() error {
	if s.Disabled {
		return apperrors.ErrDisabledStock
	}
	return nil
}
