// Package valuation derives a stock's market price and unissued inventory from
// its order history and outstanding holdings. Everything here is pure.
package valuation

import (
	"github.com/shopspring/decimal"

	"stockbank/internal/models"
	"stockbank/internal/money"
)

// BalanceStockPrice returns the average-cost market price of stock in cents.
//
// The base issue counts as BaseQuantity trades at BasePrice; every COMPLETED
// order on the same stock adds one trade at its amount. Orders on other stocks
// or still pending are ignored. Returns 0 when there are no trades at all.
func BalanceStockPrice(stock *models.Stock, orders []models.StockOrder) int64 {
	if stock == nil {
		return 0
	}

	total := decimal.NewFromInt(stock.BasePrice).Mul(decimal.NewFromInt(stock.BaseQuantity))
	count := stock.BaseQuantity

	for i := range orders {
		o := &orders[i]
		if o.StockID != stock.ID || o.Status != models.OrderStatusCompleted {
			continue
		}
		total = total.Add(decimal.NewFromInt(o.Amount))
		count++
	}

	if count == 0 {
		return 0
	}
	return money.ToCents(total.Div(decimal.NewFromInt(count)).Shift(-money.Scale))
}

// RemainingStockQuantity returns how many units can still be issued on the
// primary market: BaseQuantity minus the outstanding securities of that stock,
// never below zero. The services count holdings in SQL and call Remaining
// instead; this form works on an in-memory slice of securities.
func RemainingStockQuantity(stock *models.Stock, securities []models.FinancialSecurity) int64 {
	if stock == nil {
		return 0
	}

	var held int64
	for i := range securities {
		if securities[i].StockID == stock.ID {
			held++
		}
	}

	return Remaining(stock.BaseQuantity, held)
}

// Remaining clamps baseQuantity-held at zero. Used directly when the holdings
// were counted in SQL.
func Remaining(baseQuantity, held int64) int64 {
	if remaining := baseQuantity - held; remaining > 0 {
		return remaining
	}
	return 0
}

// Apply fills the derived fields on stock.
func Apply(stock *models.Stock, completed []models.StockOrder, held int64) {
	stock.MarketPrice = BalanceStockPrice(stock, completed)
	stock.RemainingQuantity = Remaining(stock.BaseQuantity, held)
}
