package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "stockbank/internal/errors"
	"stockbank/internal/services"
	"stockbank/internal/uuid"
)

// SecurityHandler handles primary purchases and holdings.
type SecurityHandler struct {
	securityService services.SecurityServicer
	auditService    services.AuditServicer
}

// NewSecurityHandler creates a new SecurityHandler.
func NewSecurityHandler(securityService services.SecurityServicer, auditService services.AuditServicer) *SecurityHandler {
	return &SecurityHandler{securityService: securityService, auditService: auditService}
}

// PurchaseStockRequest represents the request payload for a primary purchase.
type PurchaseStockRequest struct {
	StockID   string `json:"stock_id" binding:"required,uuid"`
	AccountID string `json:"account_id" binding:"required,uuid"`
}

// PurchaseStock buys one unit from the primary market
// @Summary     Purchase stock
// @Description Buy one unit of a stock at its base price while inventory remains.
// @Tags        securities
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body PurchaseStockRequest true "Purchase details"
// @Success     201 {object} models.FinancialSecurity "Unit issued"
// @Failure     400 {object} ErrorResponse "Invalid input or insufficient balance"
// @Failure     404 {object} ErrorResponse "Stock or account not found"
// @Failure     409 {object} ErrorResponse "Stock disabled or sold out"
// @Failure     429 {object} ErrorResponse "Rate limited"
// @Router      /securities/purchase [post]
func (h *SecurityHandler) PurchaseStock(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req PurchaseStockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, invalidInput(err))
		return
	}

	security, err := h.securityService.PurchaseStock(userID, req.StockID, req.AccountID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, services.AuditPurchaseStock, "financial_security", security.ID, c.ClientIP(),
		map[string]interface{}{"stock_id": req.StockID, "account_id": req.AccountID, "price": security.PurchasePrice})

	c.JSON(http.StatusCreated, gin.H{"security": security})
}

// GetUserSecurities lists the caller's units
// @Summary     List securities
// @Tags        securities
// @Produce     json
// @Security    BearerAuth
// @Param       stock_id  query string false "Stock ID"
// @Param       page      query int    false "Page number (default 1)"
// @Param       page_size query int    false "Items per page (default 20, max 100)"
// @Success     200 {object} pagination.PageResponse[models.FinancialSecurity] "Paginated securities"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Router      /securities [get]
func (h *SecurityHandler) GetUserSecurities(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	page, err := bindPage(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var stockID *string
	if v := c.Query("stock_id"); v != "" {
		if !uuid.IsValid(v) {
			respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "invalid stock_id"))
			return
		}
		stockID = &v
	}

	result, err := h.securityService.GetUserSecurities(userID, stockID, page)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetSecurity returns one of the caller's units
// @Summary     Get security by ID
// @Tags        securities
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Security ID"
// @Success     200 {object} models.FinancialSecurity "Security details"
// @Failure     404 {object} ErrorResponse "Security not found"
// @Router      /securities/{id} [get]
func (h *SecurityHandler) GetSecurity(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	securityID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	security, err := h.securityService.GetSecurityByID(userID, securityID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"security": security})
}

// GetPortfolio summarizes the caller's holdings
// @Summary     Get portfolio
// @Description Holdings grouped by stock and valued at the current market price.
// @Tags        securities
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} services.PortfolioSummary "Portfolio"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Router      /portfolio [get]
func (h *SecurityHandler) GetPortfolio(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	summary, err := h.securityService.GetPortfolio(userID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"portfolio": summary})
}
