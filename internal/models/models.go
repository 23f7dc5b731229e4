package models

// All returns every persisted model, in dependency order, for auto-migration
// in tests and local development.
func All() []interface{} {
	return []interface{}{
		&User{},
		&Account{},
		&Transaction{},
		&Stock{},
		&StockOrder{},
		&FinancialSecurity{},
		&StockPrice{},
		&Setting{},
		&Notification{},
		&AuditLog{},
	}
}
