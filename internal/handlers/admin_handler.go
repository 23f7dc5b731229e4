package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"stockbank/internal/services"
)

// AdminHandler handles fee settings and maintenance jobs.
type AdminHandler struct {
	settingService  services.SettingServicer
	snapshotService services.PriceSnapshotServicer
	auditService    services.AuditServicer
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(settingService services.SettingServicer, snapshotService services.PriceSnapshotServicer, auditService services.AuditServicer) *AdminHandler {
	return &AdminHandler{settingService: settingService, snapshotService: snapshotService, auditService: auditService}
}

// UpdateFeeSettingsRequest represents a partial fee settings update.
// Bps values are basis points, flat values are cents.
type UpdateFeeSettingsRequest struct {
	PurchaseFeeBps     *int64 `json:"purchase_fee_bps" binding:"omitempty,gte=0,lte=10000"`
	PurchaseFeeFlat    *int64 `json:"purchase_fee_flat" binding:"omitempty,gte=0"`
	TransactionFeeBps  *int64 `json:"transaction_fee_bps" binding:"omitempty,gte=0,lte=10000"`
	TransactionFeeFlat *int64 `json:"transaction_fee_flat" binding:"omitempty,gte=0"`
}

// GetFeeSettings returns the effective fee settings.
// @Summary     Get fee settings
// @Tags        admin
// @Produce     json
// @Security    ApiKeyAuth
// @Success     200 {object} services.FeeSettings "Fee settings"
// @Failure     401 {object} ErrorResponse "Invalid API key"
// @Router      /admin/settings/fees [get]
func (h *AdminHandler) GetFeeSettings(c *gin.Context) {
	fees, err := h.settingService.GetFeeSettings()
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"fees": fees})
}

// UpdateFeeSettings changes one or more fee settings.
// @Summary     Update fee settings
// @Tags        admin
// @Accept      json
// @Produce     json
// @Security    ApiKeyAuth
// @Param       request body UpdateFeeSettingsRequest true "Fee changes"
// @Success     200 {object} services.FeeSettings "Updated fee settings"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Invalid API key"
// @Router      /admin/settings/fees [put]
func (h *AdminHandler) UpdateFeeSettings(c *gin.Context) {
	var req UpdateFeeSettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, invalidInput(err))
		return
	}

	fees, err := h.settingService.UpdateFeeSettings(services.FeeSettingsUpdate{
		PurchaseFeeBps:     req.PurchaseFeeBps,
		PurchaseFeeFlat:    req.PurchaseFeeFlat,
		TransactionFeeBps:  req.TransactionFeeBps,
		TransactionFeeFlat: req.TransactionFeeFlat,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(services.AdminActor, services.AuditUpdateFeeSettings, "setting", "fees", c.ClientIP(),
		map[string]interface{}{
			"purchase_fee_bps":     fees.PurchaseFeeBps,
			"purchase_fee_flat":    fees.PurchaseFeeFlat,
			"transaction_fee_bps":  fees.TransactionFeeBps,
			"transaction_fee_flat": fees.TransactionFeeFlat,
		})

	c.JSON(http.StatusOK, gin.H{"fees": fees})
}

// RecordSnapshots records a price snapshot of every enabled stock now.
// @Summary     Record price snapshots
// @Tags        admin
// @Produce     json
// @Security    ApiKeyAuth
// @Success     200 {object} map[string]int "Number of stocks recorded"
// @Failure     401 {object} ErrorResponse "Invalid API key"
// @Router      /admin/snapshots [post]
func (h *AdminHandler) RecordSnapshots(c *gin.Context) {
	count, err := h.snapshotService.RecordSnapshots(time.Now().UTC().Truncate(time.Second))
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(services.AdminActor, services.AuditRecordSnapshots, "stock_price", "", c.ClientIP(),
		map[string]interface{}{"count": count})

	c.JSON(http.StatusOK, gin.H{"recorded": count})
}
