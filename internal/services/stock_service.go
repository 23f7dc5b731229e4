package services

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	apperrors "stockbank/internal/errors"
	"stockbank/internal/models"
	"stockbank/internal/pagination"
	"stockbank/internal/valuation"
)

// stockService handles stock administration and lookups.
type stockService struct {
	db *gorm.DB
}

// NewStockService creates a new StockServicer.
func NewStockService(db *gorm.DB) StockServicer {
	return &stockService{db: db}
}

// CreateStock issues a new stock.
func (s *stockService) CreateStock(name string, baseQuantity int64, basePrice decimal.Decimal) (*models.Stock, error) {
	stock, err := models.NewStock(name, baseQuantity, basePrice)
	if err != nil {
		return nil, err
	}

	if err := s.db.Create(stock).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	valuation.Apply(stock, nil, 0)
	return stock, nil
}

// GetStockByID returns a stock with its derived market price and remaining quantity.
func (s *stockService) GetStockByID(id string) (*models.Stock, error) {
	stock, err := findStock(s.db, id)
	if err != nil {
		return nil, err
	}
	if err := valueStocks(s.db, []*models.Stock{stock}); err != nil {
		return nil, err
	}
	return stock, nil
}

// SearchStocks lists stocks whose name contains query, case-insensitively.
// Disabled stocks are hidden unless includeDisabled is set.
func (s *stockService) SearchStocks(query string, includeDisabled bool, page pagination.PageRequest) (*pagination.PageResponse[models.Stock], error) {
	base := s.db.Model(&models.Stock{})
	if q := strings.TrimSpace(query); q != "" {
		base = base.Where("LOWER(name) LIKE ?", "%"+strings.ToLower(q)+"%")
	}
	if !includeDisabled {
		base = base.Where("disabled = ?", false)
	}

	result, err := pagination.Fetch[models.Stock](base, page, "name ASC")
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	ptrs := make([]*models.Stock, len(result.Data))
	for i := range result.Data {
		ptrs[i] = &result.Data[i]
	}
	if err := valueStocks(s.db, ptrs); err != nil {
		return nil, err
	}
	return result, nil
}

// RefillStock increases the primary-market inventory of a stock.
func (s *stockService) RefillStock(id string, quantity int64) (*models.Stock, error) {
	err := s.db.Transaction(func(tx *gorm.DB) error {
		stock, err := lockStock(tx, id)
		if err != nil {
			return err
		}
		if err := stock.Refill(quantity); err != nil {
			return err
		}
		if err := tx.Model(stock).Update("base_quantity", stock.BaseQuantity).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.GetStockByID(id)
}

// SetStockDisabled enables or disables trading of a stock.
func (s *stockService) SetStockDisabled(id string, disabled bool) (*models.Stock, error) {
	stock, err := findStock(s.db, id)
	if err != nil {
		return nil, err
	}
	if err := s.db.Model(stock).Update("disabled", disabled).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return s.GetStockByID(id)
}

// findStock loads a stock by id, mapping a missing row to ErrStockNotFound.
func findStock(db *gorm.DB, id string) (*models.Stock, error) {
	var stock models.Stock
	if err := db.Where("id = ?", id).First(&stock).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrStockNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &stock, nil
}

// lockStock loads a stock with a row lock held until tx ends.
func lockStock(tx *gorm.DB, id string) (*models.Stock, error) {
	return findStock(tx.Clauses(forUpdate()), id)
}

// countHeld returns the number of outstanding securities of a stock.
func countHeld(db *gorm.DB, stockID string) (int64, error) {
	var held int64
	if err := db.Model(&models.FinancialSecurity{}).Where("stock_id = ?", stockID).Count(&held).Error; err != nil {
		return 0, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return held, nil
}

// valueStocks fills MarketPrice and RemainingQuantity on each stock using two
// batched queries: completed orders and outstanding security counts.
func valueStocks(db *gorm.DB, stocks []*models.Stock) error {
	if len(stocks) == 0 {
		return nil
	}

	ids := make([]string, len(stocks))
	for i, st := range stocks {
		ids[i] = st.ID
	}

	var orders []models.StockOrder
	if err := db.Select("stock_id", "amount", "status").
		Where("stock_id IN ? AND status = ?", ids, models.OrderStatusCompleted).
		Find(&orders).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	byStock := make(map[string][]models.StockOrder, len(stocks))
	for _, o := range orders {
		byStock[o.StockID] = append(byStock[o.StockID], o)
	}

	type heldRow struct {
		StockID string
		Held    int64
	}
	var heldRows []heldRow
	if err := db.Model(&models.FinancialSecurity{}).
		Select("stock_id, COUNT(*) AS held").
		Where("stock_id IN ?", ids).
		Group("stock_id").
		Scan(&heldRows).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	held := make(map[string]int64, len(heldRows))
	for _, r := range heldRows {
		held[r.StockID] = r.Held
	}

	for _, st := range stocks {
		valuation.Apply(st, byStock[st.ID], held[st.ID])
	}
	return nil
}
