package models

import (
	apperrors "stockbank/internal/errors"
)

// FinancialSecurity is one owned unit of a stock. Holdings of several units
// are several rows. Rows are created and deleted, never updated.
type FinancialSecurity struct {
	Base
	PurchasePrice int64  `gorm:"type:bigint;not null" json:"purchase_price"`
	OwnerID       string `gorm:"type:uuid;not null;index:idx_financial_securities_holder,priority:2" json:"owner_id"`
	StockID       string `gorm:"type:uuid;not null;index:idx_financial_securities_holder,priority:1" json:"stock_id"`
	Stock         *Stock `gorm:"foreignKey:StockID" json:"stock,omitempty"`
}

// NewFinancialSecurity builds a unit owned by ownerID bought at purchasePrice cents.
func NewFinancialSecurity(purchasePrice int64, ownerID, stockID string) (*FinancialSecurity, error) {
	if purchasePrice < 0 {
		return nil, apperrors.ErrInvalidAmount
	}
	if ownerID == "" {
		return nil, apperrors.ErrInvalidOwner
	}
	if stockID == "" {
		return nil, apperrors.ErrInvalidStock
	}
	return &FinancialSecurity{
		PurchasePrice: purchasePrice,
		OwnerID:       ownerID,
		StockID:       stockID,
	}, nil
}
