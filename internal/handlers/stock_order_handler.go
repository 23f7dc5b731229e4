package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"stockbank/internal/models"
	"stockbank/internal/services"
)

// StockOrderHandler handles the stock order lifecycle.
type StockOrderHandler struct {
	orderService services.StockOrderServicer
	auditService services.AuditServicer
}

// NewStockOrderHandler creates a new StockOrderHandler.
func NewStockOrderHandler(orderService services.StockOrderServicer, auditService services.AuditServicer) *StockOrderHandler {
	return &StockOrderHandler{orderService: orderService, auditService: auditService}
}

// CreateStockOrderRequest represents the request payload for placing an order.
// Amount is the per-unit price in currency units and is rounded to cents.
type CreateStockOrderRequest struct {
	StockID   string           `json:"stock_id" binding:"required,uuid"`
	AccountID string           `json:"account_id" binding:"required,uuid"`
	Amount    *decimal.Decimal `json:"amount" binding:"required,decimal_gte0" swaggertype:"number"`
	Type      models.OrderType `json:"type" binding:"required,order_type"`
}

// AcceptStockOrderRequest names the counterpart order to settle against.
type AcceptStockOrderRequest struct {
	WithID string `json:"with_id" binding:"required,uuid"`
}

// CreateStockOrder places a pending buy or sell order
// @Summary     Create stock order
// @Tags        stock-orders
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body CreateStockOrderRequest true "Order details"
// @Success     201 {object} models.StockOrder "Order created"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     404 {object} ErrorResponse "Stock, account or security not found"
// @Failure     409 {object} ErrorResponse "Stock disabled"
// @Failure     429 {object} ErrorResponse "Rate limited"
// @Router      /stock-orders [post]
func (h *StockOrderHandler) CreateStockOrder(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req CreateStockOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, invalidInput(err))
		return
	}

	order, err := h.orderService.CreateStockOrder(userID, req.StockID, req.AccountID, *req.Amount, req.Type)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, services.AuditCreateStockOrder, "stock_order", order.ID, c.ClientIP(),
		map[string]interface{}{"stock_id": order.StockID, "type": order.Type, "amount": order.Amount})

	c.JSON(http.StatusCreated, gin.H{"stock_order": order})
}

// GetUserStockOrders lists the caller's orders
// @Summary     List stock orders
// @Tags        stock-orders
// @Produce     json
// @Security    BearerAuth
// @Param       status    query string false "PENDING or COMPLETED"
// @Param       type      query string false "BUY or SELL"
// @Param       stock_id  query string false "Stock ID"
// @Param       page      query int    false "Page number (default 1)"
// @Param       page_size query int    false "Items per page (default 20, max 100)"
// @Success     200 {object} pagination.PageResponse[models.StockOrder] "Paginated orders"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Router      /stock-orders [get]
func (h *StockOrderHandler) GetUserStockOrders(c *gin.Context) {
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

	filter, err := parseStockOrderFilter(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	result, err := h.orderService.GetUserStockOrders(userID, page, filter)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetStockOrder returns one of the caller's orders
// @Summary     Get stock order by ID
// @Tags        stock-orders
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Stock order ID"
// @Success     200 {object} models.StockOrder "Order details"
// @Failure     404 {object} ErrorResponse "Order not found"
// @Router      /stock-orders/{id} [get]
func (h *StockOrderHandler) GetStockOrder(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	orderID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	order, err := h.orderService.GetStockOrderByID(userID, orderID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"stock_order": order})
}

// DeleteStockOrder withdraws a pending order
// @Summary     Delete stock order
// @Tags        stock-orders
// @Security    BearerAuth
// @Param       id path string true "Stock order ID"
// @Success     204 "Order deleted"
// @Failure     404 {object} ErrorResponse "Order not found"
// @Failure     409 {object} ErrorResponse "Order is not pending"
// @Router      /stock-orders/{id} [delete]
func (h *StockOrderHandler) DeleteStockOrder(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	orderID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.orderService.DeleteStockOrder(userID, orderID); err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, services.AuditDeleteStockOrder, "stock_order", orderID, c.ClientIP(), nil)

	c.Status(http.StatusNoContent)
}

// MatchStockOrder lists pending counterpart orders
// @Summary     Match stock order
// @Description Pending orders of the opposite type on the same stock, oldest first. Empty when the order is unknown, settled or its stock is disabled.
// @Tags        stock-orders
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Stock order ID"
// @Success     200 {object} map[string][]models.StockOrder "Matching orders"
// @Failure     400 {object} ErrorResponse "Invalid order ID"
// @Router      /stock-orders/{id}/matches [get]
func (h *StockOrderHandler) MatchStockOrder(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	orderID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	matches, err := h.orderService.MatchStockOrder(userID, orderID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"matches": matches})
}

// AcceptStockOrder settles the caller's order against a counterpart
// @Summary     Accept stock order
// @Description Settle the caller's pending order against the counterpart at the counterpart's price. Ownership of one unit moves from seller to buyer and cash moves between their accounts atomically.
// @Tags        stock-orders
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id      path string                  true "Caller's stock order ID"
// @Param       request body AcceptStockOrderRequest true "Counterpart order"
// @Success     200 {object} services.Settlement "Settlement"
// @Failure     400 {object} ErrorResponse "Invalid input, own counterpart or insufficient balance"
// @Failure     404 {object} ErrorResponse "Order or security not found"
// @Failure     409 {object} ErrorResponse "Order not pending, mismatched or stock disabled"
// @Router      /stock-orders/{id}/accept [post]
func (h *StockOrderHandler) AcceptStockOrder(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	orderID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req AcceptStockOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, invalidInput(err))
		return
	}

	settlement, err := h.orderService.AcceptStockOrder(userID, req.WithID, orderID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, services.AuditAcceptStockOrder, "stock_order", orderID, c.ClientIP(),
		map[string]interface{}{"with_id": req.WithID, "price": settlement.Price, "fee": settlement.Fee})

	c.JSON(http.StatusOK, gin.H{"settlement": settlement})
}

// stockOrderQuery holds the optional list filters.
type stockOrderQuery struct {
	Status  string `form:"status" binding:"omitempty,order_status"`
	Type    string `form:"type" binding:"omitempty,order_type"`
	StockID string `form:"stock_id" binding:"omitempty,uuid"`
}

func parseStockOrderFilter(c *gin.Context) (services.StockOrderFilter, error) {
	var filter services.StockOrderFilter

	var q stockOrderQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		return filter, invalidInput(err)
	}

	if q.Status != "" {
		status := models.OrderStatus(q.Status)
		filter.Status = &status
	}
	if q.Type != "" {
		orderType := models.OrderType(q.Type)
		filter.Type = &orderType
	}
	if q.StockID != "" {
		filter.StockID = &q.StockID
	}
	return filter, nil
}
