package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	apperrors "stockbank/internal/errors"
	"stockbank/internal/logger"
	"stockbank/internal/metrics"
	"stockbank/internal/models"
	"stockbank/internal/money"
	"stockbank/internal/pagination"
)

// stockOrderService handles order intake, matching and settlement.
type stockOrderService struct {
	db                  *gorm.DB
	transactionService  TransactionServicer
	settingService      SettingServicer
	notificationService NotificationServicer
}

// NewStockOrderService creates a new StockOrderServicer.
func NewStockOrderService(
	db *gorm.DB,
	transactionService TransactionServicer,
	settingService SettingServicer,
	notificationService NotificationServicer,
) StockOrderServicer {
	return &stockOrderService{
		db:                  db,
		transactionService:  transactionService,
		settingService:      settingService,
		notificationService: notificationService,
	}
}

// CreateStockOrder places a PENDING order. Only current holders of the stock
// may place orders on it.
func (s *stockOrderService) CreateStockOrder(
	userID, stockID, accountID string,
	amount decimal.Decimal,
	orderType models.OrderType,
) (*models.StockOrder, error) {
	order, err := models.NewStockOrder(amount, orderType, userID, stockID, accountID)
	if err != nil {
		return nil, err
	}

	stock, err := findStock(s.db, stockID)
	if err != nil {
		return nil, err
	}
	if err := stock.Tradable(); err != nil {
		return nil, err
	}

	var owners int64
	if err := s.db.Model(&models.User{}).Where("id = ? AND is_active = ?", userID, true).Count(&owners).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if owners == 0 {
		return nil, apperrors.ErrInvalidOwner
	}

	if _, err := findOwnedAccount(s.db, userID, accountID); err != nil {
		return nil, err
	}

	if _, err := lowestSecurity(s.db, userID, stockID); err != nil {
		return nil, err
	}

	if err := s.db.Create(order).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	metrics.RecordOrderCreated(string(order.Type))
	return order, nil
}

// DeleteStockOrder withdraws a PENDING order. Orders owned by someone else are
// reported as not found.
func (s *stockOrderService) DeleteStockOrder(userID, orderID string) error {
	order, err := s.GetStockOrderByID(userID, orderID)
	if err != nil {
		return err
	}
	if !order.IsPending() {
		return errOnlyPendingDeletable()
	}

	// The status guard lets a concurrent settlement win cleanly.
	result := s.db.Unscoped().
		Where("id = ? AND status = ?", order.ID, models.OrderStatusPending).
		Delete(&models.StockOrder{})
	if result.Error != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, result.Error)
	}
	if result.RowsAffected == 0 {
		return errOnlyPendingDeletable()
	}

	metrics.RecordOrderDeleted()
	return nil
}

func errOnlyPendingDeletable() error {
	return apperrors.WithMessage(apperrors.ErrInvalidStatus, "only pending stock orders can be deleted")
}

// MatchStockOrder lists the PENDING orders of the opposite side on the same
// stock. It is advisory: anything that prevents matching yields an empty list.
func (s *stockOrderService) MatchStockOrder(userID, orderID string) ([]models.StockOrder, error) {
	matches := []models.StockOrder{}

	order, err := s.GetStockOrderByID(userID, orderID)
	if err != nil {
		if errors.Is(err, apperrors.ErrStockOrderNotFound) {
			return matches, nil
		}
		return nil, err
	}
	if !order.IsPending() {
		return matches, nil
	}

	stock, err := findStock(s.db, order.StockID)
	if err != nil {
		if errors.Is(err, apperrors.ErrStockNotFound) {
			return matches, nil
		}
		return nil, err
	}
	if stock.Disabled {
		return matches, nil
	}

	matchingType, ok := order.Type.Opposite()
	if !ok {
		return matches, nil
	}

	if err := s.db.
		Where("stock_id = ? AND type = ? AND status = ?", stock.ID, matchingType, models.OrderStatusPending).
		Order("created_at ASC").
		Find(&matches).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return matches, nil
}

// AcceptStockOrder settles the caller's order orderID against the counterpart
// withID at the counterpart's price. Order status, ownership transfer and both
// cash movements commit or roll back together.
func (s *stockOrderService) AcceptStockOrder(userID, withID, orderID string) (*Settlement, error) {
	start := time.Now()

	fees, err := s.settingService.GetFeeSettings()
	if err != nil {
		metrics.RecordSettlement(err, time.Since(start))
		return nil, err
	}

	var settlement *Settlement
	err = s.db.Transaction(func(tx *gorm.DB) error {
		var txErr error
		settlement, txErr = s.settle(tx, userID, withID, orderID, fees)
		return txErr
	})
	metrics.RecordSettlement(err, time.Since(start))
	if err != nil {
		return nil, err
	}

	s.notifySettlement(settlement)
	return settlement, nil
}

func (s *stockOrderService) settle(tx *gorm.DB, userID, withID, orderID string, fees *FeeSettings) (*Settlement, error) {
	// Lock both rows in id order so opposing accepts cannot deadlock.
	var locked []models.StockOrder
	if err := tx.Clauses(forUpdate()).
		Where("id IN ?", []string{orderID, withID}).
		Order("id").
		Find(&locked).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var own, counter *models.StockOrder
	for i := range locked {
		if locked[i].ID == orderID {
			own = &locked[i]
		}
		if locked[i].ID == withID {
			counter = &locked[i]
		}
	}
	if own == nil || own.OwnerID != userID || counter == nil {
		return nil, apperrors.ErrStockOrderNotFound
	}
	if counter.OwnerID == userID {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidOwner, "cannot accept your own stock order")
	}
	if !own.IsPending() || !counter.IsPending() {
		return nil, apperrors.ErrInvalidStatus
	}
	if own.StockID != counter.StockID {
		return nil, apperrors.ErrStockMismatch
	}
	if opposite, ok := own.Type.Opposite(); !ok || counter.Type != opposite {
		return nil, apperrors.ErrOrderTypeMismatch
	}

	stock, err := findStock(tx, own.StockID)
	if err != nil {
		return nil, err
	}
	if err := stock.Tradable(); err != nil {
		return nil, err
	}

	price := counter.Amount
	now := time.Now()

	result := tx.Model(&models.StockOrder{}).
		Where("id IN ? AND status = ?", []string{own.ID, counter.ID}, models.OrderStatusPending).
		Updates(map[string]interface{}{
			"status":         models.OrderStatusCompleted,
			"purchase_price": price,
			"completed_at":   now,
		})
	if result.Error != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, result.Error)
	}
	if result.RowsAffected != 2 {
		return nil, apperrors.ErrInvalidStatus
	}
	for _, o := range []*models.StockOrder{own, counter} {
		o.Status = models.OrderStatusCompleted
		o.PurchasePrice = &price
		o.CompletedAt = &now
	}

	buy, sell := own, counter
	if own.Type == models.OrderTypeSell {
		buy, sell = counter, own
	}

	// Ownership moves as delete-from-seller then create-for-buyer.
	sold, err := lowestSecurity(tx.Clauses(forUpdate()), sell.OwnerID, stock.ID)
	if err != nil {
		return nil, err
	}
	if err := tx.Unscoped().Delete(sold).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	security, err := models.NewFinancialSecurity(price, buy.OwnerID, stock.ID)
	if err != nil {
		return nil, err
	}
	if err := tx.Create(security).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	buyerAccount, err := findOwnedAccount(tx, buy.OwnerID, buy.AccountID)
	if err != nil {
		return nil, err
	}
	sellerAccount, err := findOwnedAccount(tx, sell.OwnerID, sell.AccountID)
	if err != nil {
		return nil, err
	}

	fee := min(fees.TransactionFee(price), price)
	desc := fmt.Sprintf("%s trade at %s", stock.Name, money.Format(price))

	if _, err := s.transactionService.Debit(tx, buyerAccount, models.TransactionTypeTradeDebit, price, desc, buy.ID); err != nil {
		return nil, err
	}
	if _, err := s.transactionService.Credit(tx, sellerAccount, models.TransactionTypeTradeCredit, price, desc, sell.ID); err != nil {
		return nil, err
	}
	if _, err := s.transactionService.Debit(tx, sellerAccount, models.TransactionTypeFee, fee, "Transaction fee: "+desc, sell.ID); err != nil {
		return nil, err
	}

	return &Settlement{
		BuyOrder:  *buy,
		SellOrder: *sell,
		Price:     price,
		Fee:       fee,
		Security:  *security,
	}, nil
}

// notifySettlement tells both parties about a completed trade. Failures are
// logged by the notification service and never undo the trade.
func (s *stockOrderService) notifySettlement(st *Settlement) {
	price := money.Format(st.Price)
	s.notificationService.Notify(st.BuyOrder.OwnerID, models.NotificationKindSettlement,
		"Stock purchase settled",
		fmt.Sprintf("You bought one unit at %s (order %s).", price, st.BuyOrder.ID))
	s.notificationService.Notify(st.SellOrder.OwnerID, models.NotificationKindSettlement,
		"Stock sale settled",
		fmt.Sprintf("You sold one unit at %s, fee %s (order %s).", price, money.Format(st.Fee), st.SellOrder.ID))

	logger.Get().Infow("stock orders settled",
		"buy_order_id", st.BuyOrder.ID,
		"sell_order_id", st.SellOrder.ID,
		"stock_id", st.BuyOrder.StockID,
		"price", st.Price,
		"fee", st.Fee,
	)
}

// GetUserStockOrders retrieves a paginated, filtered list of the user's orders.
func (s *stockOrderService) GetUserStockOrders(userID string, page pagination.PageRequest, filter StockOrderFilter) (*pagination.PageResponse[models.StockOrder], error) {
	base := s.db.Model(&models.StockOrder{}).Where("owner_id = ?", userID)
	if filter.Status != nil {
		base = base.Where("status = ?", *filter.Status)
	}
	if filter.Type != nil {
		base = base.Where("type = ?", *filter.Type)
	}
	if filter.StockID != nil {
		base = base.Where("stock_id = ?", *filter.StockID)
	}

	result, err := pagination.Fetch[models.StockOrder](base, page, "created_at DESC")
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return result, nil
}

// GetStockOrderByID retrieves an order owned by the user.
func (s *stockOrderService) GetStockOrderByID(userID, orderID string) (*models.StockOrder, error) {
	var order models.StockOrder
	if err := s.db.Where("id = ? AND owner_id = ?", orderID, userID).First(&order).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrStockOrderNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &order, nil
}
