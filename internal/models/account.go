package models

// Account is a cash account used to pay for and receive the proceeds of
// stock trades. Balance is in cents and never goes negative.
type Account struct {
	Base
	UserID      string `gorm:"type:uuid;not null;index" json:"user_id"`
	Name        string `gorm:"not null" json:"name"`
	Description string `json:"description"`
	Balance     int64  `gorm:"type:bigint;not null;default:0" json:"balance"`
	Currency    string `gorm:"not null;default:'USD'" json:"currency"`
	IsActive    bool   `gorm:"default:true" json:"is_active"`

	// Relationships
	Transactions []Transaction `gorm:"foreignKey:AccountID" json:"transactions,omitempty"`
}
