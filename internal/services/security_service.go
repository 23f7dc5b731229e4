package services

import (
	"errors"
	"fmt"
	"sort"

	"gorm.io/gorm"

	apperrors "stockbank/internal/errors"
	"stockbank/internal/metrics"
	"stockbank/internal/models"
	"stockbank/internal/money"
	"stockbank/internal/pagination"
	"stockbank/internal/valuation"
)

// securityService handles primary purchases and the holdings they create.
type securityService struct {
	db                  *gorm.DB
	transactionService  TransactionServicer
	settingService      SettingServicer
	notificationService NotificationServicer
}

// NewSecurityService creates a new SecurityServicer.
func NewSecurityService(
	db *gorm.DB,
	transactionService TransactionServicer,
	settingService SettingServicer,
	notificationService NotificationServicer,
) SecurityServicer {
	return &securityService{
		db:                  db,
		transactionService:  transactionService,
		settingService:      settingService,
		notificationService: notificationService,
	}
}

// PurchaseStock issues one new unit of a stock to the user at its base price.
// The account is charged the price plus the purchase fee.
func (s *securityService) PurchaseStock(userID, stockID, accountID string) (*models.FinancialSecurity, error) {
	fees, err := s.settingService.GetFeeSettings()
	if err != nil {
		metrics.RecordPurchase(err)
		return nil, err
	}

	var security *models.FinancialSecurity
	var stockName string
	var fee int64
	err = s.db.Transaction(func(tx *gorm.DB) error {
		stock, err := lockStock(tx, stockID)
		if err != nil {
			return err
		}
		if err := stock.Tradable(); err != nil {
			return err
		}

		held, err := countHeld(tx, stock.ID)
		if err != nil {
			return err
		}
		if valuation.Remaining(stock.BaseQuantity, held) == 0 {
			return apperrors.ErrStockSoldOut
		}

		account, err := findOwnedAccount(tx, userID, accountID)
		if err != nil {
			return err
		}

		security, err = models.NewFinancialSecurity(stock.BasePrice, userID, stock.ID)
		if err != nil {
			return err
		}
		if err := tx.Create(security).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}

		desc := fmt.Sprintf("Purchase of %s at %s", stock.Name, money.Format(stock.BasePrice))
		if _, err := s.transactionService.Debit(tx, account, models.TransactionTypeStockPurchase, stock.BasePrice, desc, security.ID); err != nil {
			return err
		}
		fee = fees.PurchaseFee(stock.BasePrice)
		if _, err := s.transactionService.Debit(tx, account, models.TransactionTypeFee, fee, "Purchase fee: "+desc, security.ID); err != nil {
			return err
		}

		stockName = stock.Name
		return nil
	})
	metrics.RecordPurchase(err)
	if err != nil {
		return nil, err
	}

	body := fmt.Sprintf("You bought one unit of %s at %s", stockName, money.Format(security.PurchasePrice))
	if fee > 0 {
		body += fmt.Sprintf(" plus a %s fee", money.Format(fee))
	}
	s.notificationService.Notify(userID, models.NotificationKindPurchase, "Stock purchased", body+".")

	return security, nil
}

// GetUserSecurities lists the user's units, newest first, optionally for one stock.
func (s *securityService) GetUserSecurities(userID string, stockID *string, page pagination.PageRequest) (*pagination.PageResponse[models.FinancialSecurity], error) {
	page.Defaults()

	base := s.db.Model(&models.FinancialSecurity{}).Where("owner_id = ?", userID)
	if stockID != nil {
		base = base.Where("stock_id = ?", *stockID)
	}

	var totalItems int64
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var securities []models.FinancialSecurity
	if err := base.Preload("Stock").Order("created_at DESC").Scopes(pagination.Paginate(page)).Find(&securities).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(securities, page.Page, page.PageSize, totalItems)
	return &result, nil
}

// GetSecurityByID returns a unit owned by the user.
func (s *securityService) GetSecurityByID(userID, securityID string) (*models.FinancialSecurity, error) {
	var security models.FinancialSecurity
	if err := s.db.Preload("Stock").Where("id = ? AND owner_id = ?", securityID, userID).First(&security).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrFinancialSecurityNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &security, nil
}

// GetPortfolio groups the user's units by stock and values each group at the
// stock's current market price.
func (s *securityService) GetPortfolio(userID string) (*PortfolioSummary, error) {
	type holdingRow struct {
		StockID   string
		Quantity  int64
		CostBasis int64
	}
	var rows []holdingRow
	if err := s.db.Model(&models.FinancialSecurity{}).
		Select("stock_id, COUNT(*) AS quantity, COALESCE(SUM(purchase_price), 0) AS cost_basis").
		Where("owner_id = ?", userID).
		Group("stock_id").
		Scan(&rows).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	summary := &PortfolioSummary{Holdings: []Holding{}}
	if len(rows) == 0 {
		return summary, nil
	}

	ids := make([]string, len(rows))
	for i, r := range rows {
		ids[i] = r.StockID
	}
	var stocks []models.Stock
	if err := s.db.Unscoped().Where("id IN ?", ids).Find(&stocks).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	ptrs := make([]*models.Stock, len(stocks))
	byID := make(map[string]*models.Stock, len(stocks))
	for i := range stocks {
		ptrs[i] = &stocks[i]
		byID[stocks[i].ID] = &stocks[i]
	}
	if err := valueStocks(s.db, ptrs); err != nil {
		return nil, err
	}

	for _, r := range rows {
		h := Holding{StockID: r.StockID, Quantity: r.Quantity, CostBasis: r.CostBasis}
		if st, ok := byID[r.StockID]; ok {
			h.StockName = st.Name
			h.MarketPrice = st.MarketPrice
		}
		h.MarketValue = h.MarketPrice * h.Quantity
		h.GainLoss = h.MarketValue - h.CostBasis

		summary.TotalValue += h.MarketValue
		summary.TotalCostBasis += h.CostBasis
		summary.Holdings = append(summary.Holdings, h)
	}
	summary.TotalGainLoss = summary.TotalValue - summary.TotalCostBasis

	sort.Slice(summary.Holdings, func(i, j int) bool {
		return summary.Holdings[i].StockName < summary.Holdings[j].StockName
	})
	return summary, nil
}

// lowestSecurity returns the owner's cheapest unit of a stock, the one a sale
// gives up first.
func lowestSecurity(db *gorm.DB, ownerID, stockID string) (*models.FinancialSecurity, error) {
	var security models.FinancialSecurity
	if err := db.Where("owner_id = ? AND stock_id = ?", ownerID, stockID).
		Order("purchase_price ASC, created_at ASC").
		First(&security).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrFinancialSecurityNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &security, nil
}
