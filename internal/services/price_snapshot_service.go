package services

import (
	"time"

	"gorm.io/gorm"

	apperrors "stockbank/internal/errors"
	"stockbank/internal/metrics"
	"stockbank/internal/models"
	"stockbank/internal/pagination"
)

// priceSnapshotService records and serves stock price history.
type priceSnapshotService struct {
	db *gorm.DB
}

// NewPriceSnapshotService creates a new PriceSnapshotServicer.
func NewPriceSnapshotService(db *gorm.DB) PriceSnapshotServicer {
	return &priceSnapshotService{db: db}
}

// RecordSnapshots stores the current market price and remaining quantity of
// every enabled stock at recordedAt. Re-running for the same instant updates
// the existing rows.
func (s *priceSnapshotService) RecordSnapshots(recordedAt time.Time) (int, error) {
	var stocks []models.Stock
	if err := s.db.Where("disabled = ?", false).Find(&stocks).Error; err != nil {
		return 0, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	ptrs := make([]*models.Stock, len(stocks))
	for i := range stocks {
		ptrs[i] = &stocks[i]
	}
	if err := valueStocks(s.db, ptrs); err != nil {
		return 0, err
	}

	count := 0
	for _, st := range stocks {
		var existing models.StockPrice
		result := s.db.Where("stock_id = ? AND recorded_at = ?", st.ID, recordedAt).Limit(1).Find(&existing)
		if result.Error != nil {
			return count, apperrors.Wrap(apperrors.ErrInternalServer, result.Error)
		}
		if result.RowsAffected > 0 {
			if err := s.db.Model(&existing).Updates(map[string]interface{}{
				"price":     st.MarketPrice,
				"remaining": st.RemainingQuantity,
			}).Error; err != nil {
				return count, apperrors.Wrap(apperrors.ErrInternalServer, err)
			}
		} else {
			snapshot := &models.StockPrice{
				StockID:    st.ID,
				Price:      st.MarketPrice,
				Remaining:  st.RemainingQuantity,
				RecordedAt: recordedAt,
			}
			if err := s.db.Create(snapshot).Error; err != nil {
				return count, apperrors.Wrap(apperrors.ErrInternalServer, err)
			}
		}
		count++
	}

	metrics.RecordSnapshots(count)
	return count, nil
}

// GetPriceHistory returns paginated price history for a stock within a time range.
func (s *priceSnapshotService) GetPriceHistory(
	stockID string,
	from, to time.Time,
	page pagination.PageRequest,
) (*pagination.PageResponse[models.StockPrice], error) {
	if _, err := findStock(s.db, stockID); err != nil {
		return nil, err
	}

	base := s.db.Model(&models.StockPrice{}).
		Where("stock_id = ? AND recorded_at >= ? AND recorded_at <= ?", stockID, from, to)
	result, err := pagination.Fetch[models.StockPrice](base, page, "recorded_at DESC")
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return result, nil
}
