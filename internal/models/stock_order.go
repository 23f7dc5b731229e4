package models

import (
	"time"

	"github.com/shopspring/decimal"

	apperrors "stockbank/internal/errors"
	"stockbank/internal/money"
)

// OrderType is the side of a stock order.
type OrderType string

const (
	OrderTypeBuy  OrderType = "BUY"
	OrderTypeSell OrderType = "SELL"
)

// Valid reports whether t is BUY or SELL.
func (t OrderType) Valid() bool {
	return t == OrderTypeBuy || t == OrderTypeSell
}

// Opposite returns the counterpart side. ok is false for unknown types.
func (t OrderType) Opposite() (opposite OrderType, ok bool) {
	switch t {
	case OrderTypeBuy:
		return OrderTypeSell, true
	case OrderTypeSell:
		return OrderTypeBuy, true
	}
	return "", false
}

// OrderStatus is the lifecycle state of a stock order.
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "PENDING"
	OrderStatusCompleted OrderStatus = "COMPLETED"
)

// StockOrder is a standing intent by one user to buy or sell one unit of a
// stock at Amount, settled through AccountID. Status only moves from PENDING
// to COMPLETED; completed orders are immutable.
type StockOrder struct {
	Base
	Amount        int64       `gorm:"type:bigint;not null" json:"amount"`
	Type          OrderType   `gorm:"not null;index:idx_stock_orders_match,priority:2" json:"type"`
	Status        OrderStatus `gorm:"not null;default:'PENDING';index:idx_stock_orders_match,priority:3" json:"status"`
	OwnerID       string      `gorm:"type:uuid;not null;index" json:"owner_id"`
	StockID       string      `gorm:"type:uuid;not null;index:idx_stock_orders_match,priority:1" json:"stock_id"`
	AccountID     string      `gorm:"type:uuid;not null" json:"account_id"`
	PurchasePrice *int64      `gorm:"type:bigint" json:"purchase_price,omitempty"`
	CompletedAt   *time.Time  `json:"completed_at,omitempty"`
}

// NewStockOrder validates and builds a PENDING order. The amount is quantized
// to cents.
func NewStockOrder(amount decimal.Decimal, orderType OrderType, ownerID, stockID, accountID string) (*StockOrder, error) {
	if amount.IsNegative() || !money.InRange(amount) {
		return nil, apperrors.ErrInvalidAmount
	}
	if stockID == "" {
		return nil, apperrors.ErrInvalidStock
	}
	if ownerID == "" {
		return nil, apperrors.ErrInvalidOwner
	}
	if accountID == "" {
		return nil, apperrors.ErrInvalidAccount
	}
	if !orderType.Valid() {
		return nil, apperrors.ErrInvalidOrderType
	}

	return &StockOrder{
		Amount:    money.ToCents(amount),
		Type:      orderType,
		Status:    OrderStatusPending,
		OwnerID:   ownerID,
		StockID:   stockID,
		AccountID: accountID,
	}, nil
}

// IsPending reports whether the order can still be deleted, matched or settled.
func (o *StockOrder) IsPending() bool {
	return o.Status == OrderStatusPending
}
