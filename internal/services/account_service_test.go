package services

import (
	"testing"

	"gorm.io/gorm"

	"stockbank/internal/models"
	"stockbank/internal/pagination"
	"stockbank/internal/testutil"
)

func TestCreateAccount(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewAccountService(db)
		user := testutil.CreateTestUser(t, db)

		account, err := svc.CreateAccount(user.ID, "Brokerage", "Trading cash", "USD", 0)
		testutil.AssertNoError(t, err)

		if account.ID == "" {
			t.Fatal("expected account ID to be set")
		}
		if account.Name != "Brokerage" {
			t.Errorf("expected name Brokerage, got %s", account.Name)
		}
		if account.Currency != "USD" {
			t.Errorf("expected currency USD, got %s", account.Currency)
		}
		if !account.IsActive {
			t.Error("expected account to be active")
		}
	})

	t.Run("with_initial_balance", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewAccountService(db)
		user := testutil.CreateTestUser(t, db)

		account, err := svc.CreateAccount(user.ID, "Checking", "", "USD", 5000)
		testutil.AssertNoError(t, err)

		if account.Balance != 5000 {
			t.Errorf("expected balance 5000, got %d", account.Balance)
		}

		// Verify initial deposit was recorded atomically
		var tx models.Transaction
		if err := db.Where("account_id = ?", account.ID).First(&tx).Error; err != nil {
			t.Fatalf("expected initial transaction: %v", err)
		}
		if tx.Type != models.TransactionTypeDeposit {
			t.Errorf("expected initial transaction type deposit, got %s", tx.Type)
		}
		if tx.Amount != 5000 {
			t.Errorf("expected initial transaction amount 5000, got %d", tx.Amount)
		}
	})

	t.Run("empty_name", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewAccountService(db)
		user := testutil.CreateTestUser(t, db)

		_, err := svc.CreateAccount(user.ID, "", "", "USD", 0)
		testutil.AssertAppError(t, err, "INVALID_INPUT")
	})

	t.Run("negative_balance", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewAccountService(db)
		user := testutil.CreateTestUser(t, db)

		_, err := svc.CreateAccount(user.ID, "Overdrawn", "", "USD", -1)
		testutil.AssertAppError(t, err, "INVALID_AMOUNT")
	})

	t.Run("default_currency", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewAccountService(db)
		user := testutil.CreateTestUser(t, db)

		account, err := svc.CreateAccount(user.ID, "Default", "", "", 0)
		testutil.AssertNoError(t, err)
		if account.Currency != "USD" {
			t.Errorf("expected default currency USD, got %s", account.Currency)
		}
	})
}

func TestGetUserAccounts(t *testing.T) {
	t.Run("only_own_active_accounts", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewAccountService(db)
		user := testutil.CreateTestUser(t, db)
		other := testutil.CreateTestUser(t, db)

		testutil.CreateTestAccount(t, db, user.ID)
		closed := testutil.CreateTestAccount(t, db, user.ID)
		db.Model(closed).Update("is_active", false)
		testutil.CreateTestAccount(t, db, other.ID)

		result, err := svc.GetUserAccounts(user.ID, pagination.PageRequest{})
		testutil.AssertNoError(t, err)

		if result.TotalItems != 1 {
			t.Errorf("expected 1 account, got %d", result.TotalItems)
		}
	})

	t.Run("paginates", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewAccountService(db)
		user := testutil.CreateTestUser(t, db)

		for i := 0; i < 3; i++ {
			testutil.CreateTestAccount(t, db, user.ID)
		}

		result, err := svc.GetUserAccounts(user.ID, pagination.PageRequest{Page: 2, PageSize: 2})
		testutil.AssertNoError(t, err)

		if len(result.Data) != 1 {
			t.Errorf("expected 1 account on page 2, got %d", len(result.Data))
		}
		if result.TotalPages != 2 {
			t.Errorf("expected 2 pages, got %d", result.TotalPages)
		}
	})
}

func TestGetAccountByID(t *testing.T) {
	t.Run("found", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewAccountService(db)
		user := testutil.CreateTestUser(t, db)
		created := testutil.CreateTestAccountWithBalance(t, db, user.ID, 1234)

		account, err := svc.GetAccountByID(user.ID, created.ID)
		testutil.AssertNoError(t, err)
		if account.Balance != 1234 {
			t.Errorf("expected balance 1234, got %d", account.Balance)
		}
	})

	t.Run("other_users_account", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewAccountService(db)
		owner := testutil.CreateTestUser(t, db)
		intruder := testutil.CreateTestUser(t, db)
		account := testutil.CreateTestAccount(t, db, owner.ID)

		_, err := svc.GetAccountByID(intruder.ID, account.ID)
		testutil.AssertAppError(t, err, "ACCOUNT_NOT_FOUND")
	})
}

func TestUpdateAccount(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc := NewAccountService(db)
	user := testutil.CreateTestUser(t, db)
	account := testutil.CreateTestAccount(t, db, user.ID)

	name := "Renamed"
	desc := "New description"
	updated, err := svc.UpdateAccount(user.ID, account.ID, AccountUpdateFields{Name: &name, Description: &desc})
	testutil.AssertNoError(t, err)

	if updated.Name != "Renamed" {
		t.Errorf("expected name Renamed, got %s", updated.Name)
	}
	if updated.Description != "New description" {
		t.Errorf("expected description to be updated, got %s", updated.Description)
	}
}

func TestUpdateAccountBalance(t *testing.T) {
	t.Run("credit", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewAccountService(db)
		user := testutil.CreateTestUser(t, db)
		account := testutil.CreateTestAccountWithBalance(t, db, user.ID, 100)

		err := db.Transaction(func(tx *gorm.DB) error {
			return svc.UpdateAccountBalance(tx, account.ID, 250)
		})
		testutil.AssertNoError(t, err)

		var reloaded models.Account
		db.First(&reloaded, "id = ?", account.ID)
		if reloaded.Balance != 350 {
			t.Errorf("expected balance 350, got %d", reloaded.Balance)
		}
	})

	t.Run("debit_exact_balance", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewAccountService(db)
		user := testutil.CreateTestUser(t, db)
		account := testutil.CreateTestAccountWithBalance(t, db, user.ID, 100)

		err := db.Transaction(func(tx *gorm.DB) error {
			return svc.UpdateAccountBalance(tx, account.ID, -100)
		})
		testutil.AssertNoError(t, err)

		var reloaded models.Account
		db.First(&reloaded, "id = ?", account.ID)
		if reloaded.Balance != 0 {
			t.Errorf("expected balance 0, got %d", reloaded.Balance)
		}
	})

	t.Run("debit_over_balance", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewAccountService(db)
		user := testutil.CreateTestUser(t, db)
		account := testutil.CreateTestAccountWithBalance(t, db, user.ID, 100)

		err := db.Transaction(func(tx *gorm.DB) error {
			return svc.UpdateAccountBalance(tx, account.ID, -101)
		})
		testutil.AssertAppError(t, err, "INSUFFICIENT_BALANCE")

		var reloaded models.Account
		db.First(&reloaded, "id = ?", account.ID)
		if reloaded.Balance != 100 {
			t.Errorf("expected balance unchanged at 100, got %d", reloaded.Balance)
		}
	})

	t.Run("missing_account", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewAccountService(db)

		err := db.Transaction(func(tx *gorm.DB) error {
			return svc.UpdateAccountBalance(tx, "00000000-0000-0000-0000-000000000000", 10)
		})
		testutil.AssertAppError(t, err, "ACCOUNT_NOT_FOUND")
	})
}
