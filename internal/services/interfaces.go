package services

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"stockbank/internal/models"
	"stockbank/internal/money"
	"stockbank/internal/pagination"
)

// UserServicer defines the contract for user-related business logic.
type UserServicer interface {
	CreateUser(email, password, firstName, lastName string) (*models.User, error)
	GetUserByEmail(email string) (*models.User, error)
	GetUserByID(id string) (*models.User, error)
	VerifyPassword(user *models.User, password string) bool
	AttemptLogin(email, password string) (*models.User, error)
	StoreRefreshTokenHash(userID, tokenHash string) error
	GetRefreshTokenHash(userID string) (string, error)
}

// AccountUpdateFields holds the optional fields for an account update.
type AccountUpdateFields struct {
	Name        *string
	Description *string
	IsActive    *bool
}

// AccountServicer defines the contract for account-related business logic.
type AccountServicer interface {
	CreateAccount(userID, name, description, currency string, initialBalance int64) (*models.Account, error)
	GetUserAccounts(userID string, page pagination.PageRequest) (*pagination.PageResponse[models.Account], error)
	GetAccountByID(userID, accountID string) (*models.Account, error)
	UpdateAccount(userID, accountID string, fields AccountUpdateFields) (*models.Account, error)
	UpdateAccountBalance(tx *gorm.DB, accountID string, delta int64) error
}

// TransactionFilter holds optional filter parameters for listing ledger entries.
type TransactionFilter struct {
	FromDate *time.Time
	ToDate   *time.Time
	Type     *models.TransactionType
}

// TransactionServicer defines the contract for the cash ledger.
type TransactionServicer interface {
	Deposit(userID, accountID string, amount int64, description string) (*models.Transaction, error)
	Debit(tx *gorm.DB, account *models.Account, transactionType models.TransactionType, amount int64, description, referenceID string) (*models.Transaction, error)
	Credit(tx *gorm.DB, account *models.Account, transactionType models.TransactionType, amount int64, description, referenceID string) (*models.Transaction, error)
	GetAccountTransactions(userID, accountID string, page pagination.PageRequest, filter TransactionFilter) (*pagination.PageResponse[models.Transaction], error)
	GetTransactionByID(userID, transactionID string) (*models.Transaction, error)
}

// FeeSettings holds the fees charged on primary purchases and on settled trades.
// Bps values are basis points of the price, flat values are cents.
type FeeSettings struct {
	PurchaseFeeBps     int64 `json:"purchase_fee_bps"`
	PurchaseFeeFlat    int64 `json:"purchase_fee_flat"`
	TransactionFeeBps  int64 `json:"transaction_fee_bps"`
	TransactionFeeFlat int64 `json:"transaction_fee_flat"`
}

// PurchaseFee returns the fee charged on a primary purchase at price cents.
func (f FeeSettings) PurchaseFee(price int64) int64 {
	return money.Fee(price, f.PurchaseFeeBps, f.PurchaseFeeFlat)
}

// TransactionFee returns the fee withheld from the seller of a trade at price cents.
func (f FeeSettings) TransactionFee(price int64) int64 {
	return money.Fee(price, f.TransactionFeeBps, f.TransactionFeeFlat)
}

// FeeSettingsUpdate holds the optional fields for a fee settings update.
type FeeSettingsUpdate struct {
	PurchaseFeeBps     *int64
	PurchaseFeeFlat    *int64
	TransactionFeeBps  *int64
	TransactionFeeFlat *int64
}

// SettingServicer defines the contract for admin-editable settings.
type SettingServicer interface {
	GetFeeSettings() (*FeeSettings, error)
	UpdateFeeSettings(update FeeSettingsUpdate) (*FeeSettings, error)
}

// StockServicer defines the contract for stock administration and lookup.
// Stocks returned by it carry their derived market price and remaining quantity.
type StockServicer interface {
	CreateStock(name string, baseQuantity int64, basePrice decimal.Decimal) (*models.Stock, error)
	GetStockByID(id string) (*models.Stock, error)
	SearchStocks(query string, includeDisabled bool, page pagination.PageRequest) (*pagination.PageResponse[models.Stock], error)
	RefillStock(id string, quantity int64) (*models.Stock, error)
	SetStockDisabled(id string, disabled bool) (*models.Stock, error)
}

// StockOrderFilter holds optional filter parameters for listing stock orders.
type StockOrderFilter struct {
	Status  *models.OrderStatus
	Type    *models.OrderType
	StockID *string
}

// Settlement describes a completed trade between a buy and a sell order.
type Settlement struct {
	BuyOrder  models.StockOrder        `json:"buy_order"`
	SellOrder models.StockOrder        `json:"sell_order"`
	Price     int64                    `json:"price"`
	Fee       int64                    `json:"fee"`
	Security  models.FinancialSecurity `json:"security"`
}

// StockOrderServicer defines the contract for the order lifecycle: intake,
// matching and settlement.
type StockOrderServicer interface {
	CreateStockOrder(userID, stockID, accountID string, amount decimal.Decimal, orderType models.OrderType) (*models.StockOrder, error)
	DeleteStockOrder(userID, orderID string) error
	MatchStockOrder(userID, orderID string) ([]models.StockOrder, error)
	AcceptStockOrder(userID, withID, orderID string) (*Settlement, error)
	GetUserStockOrders(userID string, page pagination.PageRequest, filter StockOrderFilter) (*pagination.PageResponse[models.StockOrder], error)
	GetStockOrderByID(userID, orderID string) (*models.StockOrder, error)
}

// Holding aggregates a user's units of one stock.
type Holding struct {
	StockID     string `json:"stock_id"`
	StockName   string `json:"stock_name"`
	Quantity    int64  `json:"quantity"`
	CostBasis   int64  `json:"cost_basis"`
	MarketPrice int64  `json:"market_price"`
	MarketValue int64  `json:"market_value"`
	GainLoss    int64  `json:"gain_loss"`
}

// PortfolioSummary contains aggregated holdings across all stocks.
type PortfolioSummary struct {
	TotalValue     int64     `json:"total_value"`
	TotalCostBasis int64     `json:"total_cost_basis"`
	TotalGainLoss  int64     `json:"total_gain_loss"`
	Holdings       []Holding `json:"holdings"`
}

// SecurityServicer defines the contract for primary purchases and holdings.
type SecurityServicer interface {
	PurchaseStock(userID, stockID, accountID string) (*models.FinancialSecurity, error)
	GetUserSecurities(userID string, stockID *string, page pagination.PageRequest) (*pagination.PageResponse[models.FinancialSecurity], error)
	GetSecurityByID(userID, securityID string) (*models.FinancialSecurity, error)
	GetPortfolio(userID string) (*PortfolioSummary, error)
}

// NotificationServicer defines the contract for in-app notifications.
type NotificationServicer interface {
	Notify(userID string, kind models.NotificationKind, title, body string)
	GetUserNotifications(userID string, unreadOnly bool, page pagination.PageRequest) (*pagination.PageResponse[models.Notification], error)
	MarkRead(userID, notificationID string) (*models.Notification, error)
}

// PriceSnapshotServicer defines the contract for stock price history.
type PriceSnapshotServicer interface {
	RecordSnapshots(recordedAt time.Time) (int, error)
	GetPriceHistory(stockID string, from, to time.Time, page pagination.PageRequest) (*pagination.PageResponse[models.StockPrice], error)
}

// AuditServicer defines the contract for audit logging.
type AuditServicer interface {
	Log(userID, action, resourceType, resourceID, ipAddress string, changes map[string]interface{})
}
