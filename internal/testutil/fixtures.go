package testutil

import (
	"fmt"
	"sync/atomic"
	"testing"

	"stockbank/internal/models"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// counter provides unique values across fixtures within a test run.
var counter atomic.Int64

func nextID() int64 {
	return counter.Add(1)
}

// CreateTestUser creates a user with a hashed password and unique email.
func CreateTestUser(t *testing.T, db *gorm.DB) *models.User {
	t.Helper()
	email := fmt.Sprintf("user%d@test.com", nextID())
	return CreateTestUserWithEmail(t, db, email)
}

// CreateTestUserWithEmail creates a user with the given email.
func CreateTestUserWithEmail(t *testing.T, db *gorm.DB, email string) *models.User {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}

	user := &models.User{
		Email:    email,
		Password: string(hash),
		IsActive: true,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}
	return user
}

// CreateTestAccount creates a cash account with zero balance.
func CreateTestAccount(t *testing.T, db *gorm.DB, userID string) *models.Account {
	t.Helper()
	return CreateTestAccountWithBalance(t, db, userID, 0)
}

// CreateTestAccountWithBalance creates a cash account with the given balance (in cents).
func CreateTestAccountWithBalance(t *testing.T, db *gorm.DB, userID string, balance int64) *models.Account {
	t.Helper()

	account := &models.Account{
		UserID:   userID,
		Name:     fmt.Sprintf("Test Account %d", nextID()),
		Balance:  balance,
		Currency: "USD",
		IsActive: true,
	}
	if err := db.Create(account).Error; err != nil {
		t.Fatalf("failed to create test account: %v", err)
	}
	return account
}

// CreateTestStock creates an enabled stock with the given inventory and base
// price (in cents).
func CreateTestStock(t *testing.T, db *gorm.DB, baseQuantity, basePrice int64) *models.Stock {
	t.Helper()

	stock := &models.Stock{
		Name:         fmt.Sprintf("Test Stock %d", nextID()),
		BaseQuantity: baseQuantity,
		BasePrice:    basePrice,
	}
	if err := db.Create(stock).Error; err != nil {
		t.Fatalf("failed to create test stock: %v", err)
	}
	return stock
}

// CreateTestSecurity gives ownerID one unit of stockID bought at purchasePrice cents.
func CreateTestSecurity(t *testing.T, db *gorm.DB, ownerID, stockID string, purchasePrice int64) *models.FinancialSecurity {
	t.Helper()

	security := &models.FinancialSecurity{
		PurchasePrice: purchasePrice,
		OwnerID:       ownerID,
		StockID:       stockID,
	}
	if err := db.Create(security).Error; err != nil {
		t.Fatalf("failed to create test security: %v", err)
	}
	return security
}

// CreateTestStockOrder inserts a PENDING order directly, bypassing the
// holder check performed by the order service.
func CreateTestStockOrder(t *testing.T, db *gorm.DB, ownerID, stockID, accountID string, orderType models.OrderType, amount int64) *models.StockOrder {
	t.Helper()

	order := &models.StockOrder{
		Amount:    amount,
		Type:      orderType,
		Status:    models.OrderStatusPending,
		OwnerID:   ownerID,
		StockID:   stockID,
		AccountID: accountID,
	}
	if err := db.Create(order).Error; err != nil {
		t.Fatalf("failed to create test stock order: %v", err)
	}
	return order
}
