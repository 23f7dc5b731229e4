package services

import (
	"encoding/json"

	"stockbank/internal/logger"
	"stockbank/internal/models"

	"gorm.io/gorm"
)

// Audit actions.
const (
	AuditCreateAccount     = "CREATE_ACCOUNT"
	AuditUpdateAccount     = "UPDATE_ACCOUNT"
	AuditDeposit           = "DEPOSIT"
	AuditCreateStockOrder  = "CREATE_STOCK_ORDER"
	AuditDeleteStockOrder  = "DELETE_STOCK_ORDER"
	AuditAcceptStockOrder  = "ACCEPT_STOCK_ORDER"
	AuditPurchaseStock     = "PURCHASE_STOCK"
	AuditCreateStock       = "CREATE_STOCK"
	AuditRefillStock       = "REFILL_STOCK"
	AuditSetStockDisabled  = "SET_STOCK_DISABLED"
	AuditUpdateFeeSettings = "UPDATE_FEE_SETTINGS"
	AuditRecordSnapshots   = "RECORD_PRICE_SNAPSHOTS"
	AuditRegister          = "REGISTER"
	AuditLogin             = "LOGIN"
)

// AdminActor is the user id recorded for actions taken with the admin API key.
const AdminActor = "admin"

// auditService handles audit log recording.
type auditService struct {
	db *gorm.DB
}

// NewAuditService creates a new AuditServicer.
func NewAuditService(db *gorm.DB) AuditServicer {
	return &auditService{db: db}
}

// Log records an audit event. Errors are logged but never propagate
// to avoid disrupting the main operation. Admin actions are recorded under AdminActor.
func (s *auditService) Log(userID, action, resourceType, resourceID, ipAddress string, changes map[string]any) {
	var changesJSON string
	if changes != nil {
		data, err := json.Marshal(changes)
		if err != nil {
			logger.Get().Errorw("failed to marshal audit log changes", "error", err, "action", action)
			changesJSON = "{}"
		} else {
			changesJSON = string(data)
		}
	}

	entry := &models.AuditLog{
		UserID:       userID,
		Action:       action,
		ResourceType: resourceType,
		ResourceID:   resourceID,
		IPAddress:    ipAddress,
		Changes:      changesJSON,
	}

	if err := s.db.Create(entry).Error; err != nil {
		logger.Get().Errorw("failed to create audit log entry",
			"error", err,
			"user_id", userID,
			"action", action,
			"resource_type", resourceType,
			"resource_id", resourceID,
		)
	}
}
