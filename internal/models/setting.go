package models

import "time"

// Setting keys for fee configuration.
const (
	SettingPurchaseFeeBps     = "purchase_fee_bps"
	SettingPurchaseFeeFlat    = "purchase_fee_flat"
	SettingTransactionFeeBps  = "transaction_fee_bps"
	SettingTransactionFeeFlat = "transaction_fee_flat"
)

// Setting is an admin-editable integer setting keyed by name.
type Setting struct {
	Name      string    `gorm:"primaryKey" json:"name"`
	Value     int64     `gorm:"type:bigint;not null" json:"value"`
	UpdatedAt time.Time `json:"updated_at"`
}
