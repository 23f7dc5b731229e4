// Package validator provides custom validation functions for Gin's binding engine.
package validator

import (
	"reflect"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"stockbank/internal/models"
	"stockbank/internal/money"
)

// TagDecimalGTE0 accepts a non-negative decimal whose cent value fits in int64.
const TagDecimalGTE0 = "decimal_gte0"

// Register registers all custom validators with the Gin binding engine.
// Currency codes use the validator's built-in iso4217 tag.
func Register() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		v.RegisterCustomTypeFunc(decimalValue, decimal.Decimal{})
		_ = v.RegisterValidation("order_type", validateOrderType)
		_ = v.RegisterValidation("order_status", validateOrderStatus)
		_ = v.RegisterValidation("transaction_type", validateTransactionType)
		_ = v.RegisterValidation(TagDecimalGTE0, validateDecimalGTE0)
	}
}

// decimalValue exposes decimals to tags as their string form.
func decimalValue(field reflect.Value) interface{} {
	if d, ok := field.Interface().(decimal.Decimal); ok {
		return d.String()
	}
	return nil
}

func validateDecimalGTE0(fl validator.FieldLevel) bool {
	d, err := decimal.NewFromString(fl.Field().String())
	if err != nil {
		return false
	}
	return !d.IsNegative() && money.InRange(d)
}

func validateOrderType(fl validator.FieldLevel) bool {
	return models.OrderType(fl.Field().String()).Valid()
}

func validateOrderStatus(fl validator.FieldLevel) bool {
	switch models.OrderStatus(fl.Field().String()) {
	case models.OrderStatusPending, models.OrderStatusCompleted:
		return true
	}
	return false
}

func validateTransactionType(fl validator.FieldLevel) bool {
	switch models.TransactionType(fl.Field().String()) {
	case models.TransactionTypeDeposit,
		models.TransactionTypeStockPurchase,
		models.TransactionTypeTradeDebit,
		models.TransactionTypeTradeCredit,
		models.TransactionTypeFee:
		return true
	}
	return false
}
