package testutil

import (
	"errors"
	"testing"

	"gorm.io/gorm"

	apperrors "stockbank/internal/errors"
	"stockbank/internal/models"
)

// AssertAppError checks that err is an *AppError with the expected error code.
func AssertAppError(t *testing.T, err error, expectedCode string) {
	t.Helper()

	if err == nil {
		t.Fatalf("expected AppError with code %q, got nil", expectedCode)
	}

	var appErr *apperrors.AppError
	if !errors.As(err, &appErr) {
		t.Fatalf("expected *AppError, got %T: %v", err, err)
	}

	if appErr.Code != expectedCode {
		t.Errorf("expected error code %q, got %q (message: %s)", expectedCode, appErr.Code, appErr.Message)
	}
}

// AssertNoError fails the test if err is not nil.
func AssertNoError(t *testing.T, err error) {
	t.Helper()

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// Balance reloads an account and returns its balance in cents.
func Balance(t *testing.T, db *gorm.DB, accountID string) int64 {
	t.Helper()

	var account models.Account
	if err := db.First(&account, "id = ?", accountID).Error; err != nil {
		t.Fatalf("failed to reload account %s: %v", accountID, err)
	}
	return account.Balance
}

// Held counts the units of stockID currently owned by ownerID.
func Held(t *testing.T, db *gorm.DB, ownerID, stockID string) int64 {
	t.Helper()

	var count int64
	if err := db.Model(&models.FinancialSecurity{}).
		Where("owner_id = ? AND stock_id = ?", ownerID, stockID).
		Count(&count).Error; err != nil {
		t.Fatalf("failed to count holdings: %v", err)
	}
	return count
}

// AssertBalance checks an account's balance in cents.
func AssertBalance(t *testing.T, db *gorm.DB, accountID string, want int64) {
	t.Helper()

	if got := Balance(t, db, accountID); got != want {
		t.Errorf("account %s: expected balance %d, got %d", accountID, want, got)
	}
}

// AssertHeld checks how many units of stockID ownerID holds.
func AssertHeld(t *testing.T, db *gorm.DB, ownerID, stockID string, want int64) {
	t.Helper()

	if got := Held(t, db, ownerID, stockID); got != want {
		t.Errorf("owner %s: expected %d units of %s, got %d", ownerID, want, stockID, got)
	}
}
