package services

import "gorm.io/gorm/clause"

// forUpdate adds SELECT ... FOR UPDATE. Dialects without row locks (sqlite)
// drop the clause, and rely on their database-level write lock instead.
func forUpdate() clause.Expression {
	return clause.Locking{Strength: clause.LockingStrengthUpdate}
}
