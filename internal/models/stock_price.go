package models

import (
	"time"

	"stockbank/internal/uuid"

	"gorm.io/gorm"
)

// StockPrice is a point-in-time snapshot of a stock's derived market price.
// This is immutable time-series data: no Base embed, no soft deletes.
type StockPrice struct {
	ID         string    `gorm:"type:uuid;primaryKey" json:"id"`
	StockID    string    `gorm:"type:uuid;not null;index:idx_stock_prices_stock_time,priority:1" json:"stock_id"`
	Price      int64     `gorm:"type:bigint;not null" json:"price"`
	Remaining  int64     `gorm:"not null;default:0" json:"remaining_quantity"`
	RecordedAt time.Time `gorm:"not null;index:idx_stock_prices_stock_time,priority:2" json:"recorded_at"`
}

// BeforeCreate hook generates a UUIDv7 for new records
func (p *StockPrice) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.New()
	}
	return nil
}
