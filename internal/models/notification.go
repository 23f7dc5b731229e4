package models

import "time"

// NotificationKind classifies in-app notifications.
type NotificationKind string

const (
	NotificationKindPurchase   NotificationKind = "stock_purchase"
	NotificationKindSettlement NotificationKind = "stock_settlement"
)

// Notification is an in-app message delivered to a user.
type Notification struct {
	Base
	UserID string           `gorm:"type:uuid;not null;index" json:"user_id"`
	Kind   NotificationKind `gorm:"not null" json:"kind"`
	Title  string           `gorm:"not null" json:"title"`
	Body   string           `json:"body"`
	ReadAt *time.Time       `json:"read_at,omitempty"`
}
