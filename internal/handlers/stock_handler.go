package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"stockbank/internal/services"
)

// StockHandler handles stock lookup, price history and stock administration.
type StockHandler struct {
	stockService    services.StockServicer
	snapshotService services.PriceSnapshotServicer
	auditService    services.AuditServicer
}

// NewStockHandler creates a new StockHandler.
func NewStockHandler(stockService services.StockServicer, snapshotService services.PriceSnapshotServicer, auditService services.AuditServicer) *StockHandler {
	return &StockHandler{stockService: stockService, snapshotService: snapshotService, auditService: auditService}
}

// CreateStockRequest represents the request payload for issuing a stock.
// BasePrice is in currency units and is rounded to cents.
type CreateStockRequest struct {
	Name         string           `json:"name" binding:"required,min=1,max=200"`
	BaseQuantity int64            `json:"base_quantity" binding:"gte=0"`
	BasePrice    *decimal.Decimal `json:"base_price" binding:"required,decimal_gte0" swaggertype:"number"`
}

// RefillStockRequest represents the request payload for adding primary inventory.
type RefillStockRequest struct {
	Quantity int64 `json:"quantity" binding:"required,gt=0"`
}

// ListStocks searches stocks by name
// @Summary     List stocks
// @Description Search enabled stocks by name. Each stock carries its market price and remaining quantity.
// @Tags        stocks
// @Produce     json
// @Security    BearerAuth
// @Param       q         query string false "Case-insensitive name filter"
// @Param       page      query int    false "Page number (default 1)"
// @Param       page_size query int    false "Items per page (default 20, max 100)"
// @Success     200 {object} pagination.PageResponse[models.Stock] "Paginated stocks"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Router      /stocks [get]
func (h *StockHandler) ListStocks(c *gin.Context) {
	h.searchStocks(c, false)
}

// AdminListStocks lists stocks including disabled ones.
// @Summary     List all stocks
// @Tags        admin
// @Produce     json
// @Security    ApiKeyAuth
// @Param       q         query string false "Case-insensitive name filter"
// @Param       page      query int    false "Page number (default 1)"
// @Param       page_size query int    false "Items per page (default 20, max 100)"
// @Success     200 {object} pagination.PageResponse[models.Stock] "Paginated stocks"
// @Failure     401 {object} ErrorResponse "Invalid API key"
// @Router      /admin/stocks [get]
func (h *StockHandler) AdminListStocks(c *gin.Context) {
	h.searchStocks(c, true)
}

func (h *StockHandler) searchStocks(c *gin.Context, includeDisabled bool) {
	page, err := bindPage(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	result, err := h.stockService.SearchStocks(c.Query("q"), includeDisabled, page)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetStock returns a single stock with its valuation
// @Summary     Get stock by ID
// @Tags        stocks
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Stock ID"
// @Success     200 {object} models.Stock "Stock details"
// @Failure     400 {object} ErrorResponse "Invalid stock ID"
// @Failure     404 {object} ErrorResponse "Stock not found"
// @Router      /stocks/{id} [get]
func (h *StockHandler) GetStock(c *gin.Context) {
	stockID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	stock, err := h.stockService.GetStockByID(stockID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"stock": stock})
}

// GetPriceHistory returns recorded market prices for a stock
// @Summary     Get stock price history
// @Description Recorded market price snapshots, newest first. Defaults to the last 30 days.
// @Tags        stocks
// @Produce     json
// @Security    BearerAuth
// @Param       id        path  string true  "Stock ID"
// @Param       from      query string false "Start (RFC3339 or YYYY-MM-DD)"
// @Param       to        query string false "End (RFC3339 or YYYY-MM-DD)"
// @Param       page      query int    false "Page number (default 1)"
// @Param       page_size query int    false "Items per page (default 20, max 100)"
// @Success     200 {object} pagination.PageResponse[models.StockPrice] "Paginated price points"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     404 {object} ErrorResponse "Stock not found"
// @Router      /stocks/{id}/prices [get]
func (h *StockHandler) GetPriceHistory(c *gin.Context) {
	stockID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	from, to, err := parseDateRange(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	page, err := bindPage(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	result, err := h.snapshotService.GetPriceHistory(stockID, from, to, page)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// CreateStock issues a new stock.
// @Summary     Create stock
// @Tags        admin
// @Accept      json
// @Produce     json
// @Security    ApiKeyAuth
// @Param       request body CreateStockRequest true "Stock details"
// @Success     201 {object} models.Stock "Stock created"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Invalid API key"
// @Failure     503 {object} ErrorResponse "Admin not configured"
// @Router      /admin/stocks [post]
func (h *StockHandler) CreateStock(c *gin.Context) {
	var req CreateStockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, invalidInput(err))
		return
	}

	stock, err := h.stockService.CreateStock(req.Name, req.BaseQuantity, *req.BasePrice)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(services.AdminActor, services.AuditCreateStock, "stock", stock.ID, c.ClientIP(),
		map[string]interface{}{"name": stock.Name, "base_quantity": stock.BaseQuantity, "base_price": stock.BasePrice})

	c.JSON(http.StatusCreated, gin.H{"stock": stock})
}

// RefillStock adds primary inventory to a stock.
// @Summary     Refill stock
// @Tags        admin
// @Accept      json
// @Produce     json
// @Security    ApiKeyAuth
// @Param       id      path string             true "Stock ID"
// @Param       request body RefillStockRequest true "Quantity to add"
// @Success     200 {object} models.Stock "Updated stock"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     404 {object} ErrorResponse "Stock not found"
// @Router      /admin/stocks/{id}/refill [post]
func (h *StockHandler) RefillStock(c *gin.Context) {
	stockID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req RefillStockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, invalidInput(err))
		return
	}

	stock, err := h.stockService.RefillStock(stockID, req.Quantity)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(services.AdminActor, services.AuditRefillStock, "stock", stockID, c.ClientIP(),
		map[string]interface{}{"quantity": req.Quantity})

	c.JSON(http.StatusOK, gin.H{"stock": stock})
}

// DisableStock halts trading and primary sales of a stock.
// @Summary     Disable stock
// @Tags        admin
// @Produce     json
// @Security    ApiKeyAuth
// @Param       id path string true "Stock ID"
// @Success     200 {object} models.Stock "Updated stock"
// @Failure     404 {object} ErrorResponse "Stock not found"
// @Router      /admin/stocks/{id}/disable [post]
func (h *StockHandler) DisableStock(c *gin.Context) {
	h.setDisabled(c, true)
}

// EnableStock resumes trading of a stock.
// @Summary     Enable stock
// @Tags        admin
// @Produce     json
// @Security    ApiKeyAuth
// @Param       id path string true "Stock ID"
// @Success     200 {object} models.Stock "Updated stock"
// @Failure     404 {object} ErrorResponse "Stock not found"
// @Router      /admin/stocks/{id}/enable [post]
func (h *StockHandler) EnableStock(c *gin.Context) {
	h.setDisabled(c, false)
}

func (h *StockHandler) setDisabled(c *gin.Context, disabled bool) {
	stockID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	stock, err := h.stockService.SetStockDisabled(stockID, disabled)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(services.AdminActor, services.AuditSetStockDisabled, "stock", stockID, c.ClientIP(),
		map[string]interface{}{"disabled": disabled})

	c.JSON(http.StatusOK, gin.H{"stock": stock})
}
