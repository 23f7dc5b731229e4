package services

import (
	"errors"
	"time"

	"gorm.io/gorm"

	apperrors "stockbank/internal/errors"
	"stockbank/internal/models"
	"stockbank/internal/pagination"
)

// transactionService records balance movements in the cash ledger.
type transactionService struct {
	db             *gorm.DB
	accountService AccountServicer
}

// NewTransactionService creates a new TransactionServicer.
func NewTransactionService(db *gorm.DB, accountService AccountServicer) TransactionServicer {
	return &transactionService{
		db:             db,
		accountService: accountService,
	}
}

// Deposit adds funds to a user's account.
func (s *transactionService) Deposit(userID, accountID string, amount int64, description string) (*models.Transaction, error) {
	if amount <= 0 {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidAmount, "amount must be greater than zero")
	}
	if description == "" {
		description = "Deposit"
	}

	// Get the account to ensure it exists and belongs to the user
	account, err := s.accountService.GetAccountByID(userID, accountID)
	if err != nil {
		return nil, err
	}

	var result *models.Transaction
	err = s.db.Transaction(func(tx *gorm.DB) error {
		var txErr error
		result, txErr = s.Credit(tx, account, models.TransactionTypeDeposit, amount, description, "")
		return txErr
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Debit withdraws amount cents from account inside tx and records the ledger
// entry. Fails with ErrInsufficientBalance when the balance does not cover it.
func (s *transactionService) Debit(
	tx *gorm.DB,
	account *models.Account,
	transactionType models.TransactionType,
	amount int64,
	description, referenceID string,
) (*models.Transaction, error) {
	return s.record(tx, account, transactionType, -amount, description, referenceID)
}

// Credit deposits amount cents into account inside tx and records the ledger entry.
func (s *transactionService) Credit(
	tx *gorm.DB,
	account *models.Account,
	transactionType models.TransactionType,
	amount int64,
	description, referenceID string,
) (*models.Transaction, error) {
	return s.record(tx, account, transactionType, amount, description, referenceID)
}

func (s *transactionService) record(
	tx *gorm.DB,
	account *models.Account,
	transactionType models.TransactionType,
	delta int64,
	description, referenceID string,
) (*models.Transaction, error) {
	amount := delta
	if amount < 0 {
		amount = -amount
	}
	if amount == 0 {
		return nil, nil
	}

	if err := s.accountService.UpdateAccountBalance(tx, account.ID, delta); err != nil {
		return nil, err
	}

	transaction := &models.Transaction{
		UserID:      account.UserID,
		AccountID:   account.ID,
		Type:        transactionType,
		Amount:      amount,
		Description: description,
		Date:        time.Now(),
		ReferenceID: referenceID,
	}
	if err := tx.Create(transaction).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	account.Balance += delta
	return transaction, nil
}

// GetAccountTransactions retrieves a paginated, filtered list of ledger entries for an account.
func (s *transactionService) GetAccountTransactions(userID, accountID string, page pagination.PageRequest, filter TransactionFilter) (*pagination.PageResponse[models.Transaction], error) {
	// First verify the account belongs to the user
	if _, err := s.accountService.GetAccountByID(userID, accountID); err != nil {
		return nil, err
	}

	base := s.db.Model(&models.Transaction{}).Where("user_id = ? AND account_id = ?", userID, accountID)
	base = applyTransactionFilters(base, filter)

	result, err := pagination.Fetch[models.Transaction](base, page, "date DESC")
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return result, nil
}

func applyTransactionFilters(q *gorm.DB, f TransactionFilter) *gorm.DB {
	if f.FromDate != nil {
		q = q.Where("date >= ?", *f.FromDate)
	}
	if f.ToDate != nil {
		q = q.Where("date <= ?", *f.ToDate)
	}
	if f.Type != nil {
		q = q.Where("type = ?", *f.Type)
	}
	return q
}

// GetTransactionByID retrieves a ledger entry by ID for a specific user
func (s *transactionService) GetTransactionByID(userID, transactionID string) (*models.Transaction, error) {
	var transaction models.Transaction
	if err := s.db.Where("id = ? AND user_id = ?", transactionID, userID).First(&transaction).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrTransactionNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &transaction, nil
}
