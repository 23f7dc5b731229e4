package models

import "time"

// TransactionType represents the type of ledger entry
type TransactionType string

const (
	TransactionTypeDeposit       TransactionType = "deposit"
	TransactionTypeStockPurchase TransactionType = "stock_purchase"
	TransactionTypeTradeDebit    TransactionType = "trade_debit"
	TransactionTypeTradeCredit   TransactionType = "trade_credit"
	TransactionTypeFee           TransactionType = "fee"
)

// IsCredit reports whether entries of this type add to the account balance.
func (t TransactionType) IsCredit() bool {
	return t == TransactionTypeDeposit || t == TransactionTypeTradeCredit
}

// Transaction is an immutable ledger entry recording one balance movement.
// Amount is always positive; the type decides the direction.
type Transaction struct {
	Base
	UserID      string          `gorm:"type:uuid;not null;index" json:"user_id"`
	AccountID   string          `gorm:"type:uuid;not null;index" json:"account_id"`
	Type        TransactionType `gorm:"not null" json:"type"`
	Amount      int64           `gorm:"type:bigint;not null" json:"amount"`
	Description string          `json:"description"`
	Date        time.Time       `gorm:"not null" json:"date"`

	// Stock order or financial security that caused the movement, if any.
	ReferenceID string `gorm:"index" json:"reference_id,omitempty"`
}
