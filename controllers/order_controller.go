package controllers

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"restaurant-service/models"
	"restaurant-service/services"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const dateLayout = "2006-01-02"

// OrderController handles HTTP requests for orders and their items.
type OrderController struct {
	orderService services.OrderService
	loc          *time.Location
}

// NewOrderController creates an OrderController. Calendar dates in list
// filters are read in loc; nil means UTC.
func NewOrderController(orderService services.OrderService, loc *time.Location) *OrderController {
	if loc == nil {
		loc = time.UTC
	}
	return &OrderController{orderService: orderService, loc: loc}
}

// CreateOrder handles POST /orders.
func (oc *OrderController) CreateOrder(ctx *gin.Context) {
	var req models.CreateOrderRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "details": err.Error()})
		return
	}

	order, svcErr := oc.orderService.CreateOrder(ctx.Request.Context(), &req)
	if svcErr != nil {
		respondError(ctx, svcErr)
		return
	}
	ctx.JSON(http.StatusCreated, gin.H{"order": order})
}

// ListOrders handles GET /orders?status=&q=&date_from=&date_to=&page=&limit=.
// date_to is inclusive.
func (oc *OrderController) ListOrders(ctx *gin.Context) {
	filter := models.OrderFilter{
		Status:        models.OrderStatus(strings.ToLower(strings.TrimSpace(ctx.Query("status")))),
		CustomerQuery: strings.TrimSpace(ctx.Query("q")),
	}
	filter.Page, filter.Limit = parsePaginationParams(ctx)

	if raw := ctx.Query("date_from"); raw != "" {
		from, err := time.ParseInLocation(dateLayout, raw, oc.loc)
		if err != nil {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": "date_from must be YYYY-MM-DD"})
			return
		}
		filter.DateFrom = &from
	}
	if raw := ctx.Query("date_to"); raw != "" {
		to, err := time.ParseInLocation(dateLayout, raw, oc.loc)
		if err != nil {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": "date_to must be YYYY-MM-DD"})
			return
		}
		end := to.AddDate(0, 0, 1)
		filter.DateTo = &end
	}

	resp, svcErr := oc.orderService.ListOrders(ctx.Request.Context(), filter)
	if svcErr != nil {
		respondError(ctx, svcErr)
		return
	}
	ctx.JSON(http.StatusOK, resp)
}

// GetOrder handles GET /orders/:id.
func (oc *OrderController) GetOrder(ctx *gin.Context) {
	orderID, ok := uuidParam(ctx, "id", "Invalid order ID")
	if !ok {
		return
	}

	order, svcErr := oc.orderService.GetOrder(ctx.Request.Context(), orderID)
	if svcErr != nil {
		respondError(ctx, svcErr)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"order": order})
}

// GetSummary handles GET /orders/:id/summary.
func (oc *OrderController) GetSummary(ctx *gin.Context) {
	orderID, ok := uuidParam(ctx, "id", "Invalid order ID")
	if !ok {
		return
	}

	summary, svcErr := oc.orderService.GetSummary(ctx.Request.Context(), orderID)
	if svcErr != nil {
		respondError(ctx, svcErr)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"summary": summary})
}

// UpdateStatus handles PATCH /orders/:id/status.
func (oc *OrderController) UpdateStatus(ctx *gin.Context) {
	orderID, ok := uuidParam(ctx, "id", "Invalid order ID")
	if !ok {
		return
	}

	var req models.UpdateStatusRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "details": err.Error()})
		return
	}

	order, svcErr := oc.orderService.SetStatus(ctx.Request.Context(), orderID, strings.ToLower(strings.TrimSpace(req.Status)))
	if svcErr != nil {
		respondError(ctx, svcErr)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"order": order})
}

// UpdateOrder handles PATCH /orders/:id. Only the notes are editable.
func (oc *OrderController) UpdateOrder(ctx *gin.Context) {
	orderID, ok := uuidParam(ctx, "id", "Invalid order ID")
	if !ok {
		return
	}

	var req models.UpdateOrderRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "details": err.Error()})
		return
	}

	order, svcErr := oc.orderService.UpdateNotes(ctx.Request.Context(), orderID, *req.Notes)
	if svcErr != nil {
		respondError(ctx, svcErr)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"order": order})
}

// AddItem handles POST /orders/:id/items.
func (oc *OrderController) AddItem(ctx *gin.Context) {
	orderID, ok := uuidParam(ctx, "id", "Invalid order ID")
	if !ok {
		return
	}

	var req models.OrderItemInput
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "details": err.Error()})
		return
	}

	change, svcErr := oc.orderService.AddItem(ctx.Request.Context(), orderID, &req)
	if svcErr != nil {
		respondError(ctx, svcErr)
		return
	}
	ctx.JSON(http.StatusCreated, change)
}

// UpdateItem handles PATCH /orders/:id/items/:itemId. A quantity of zero or
// less removes the line.
func (oc *OrderController) UpdateItem(ctx *gin.Context) {
	orderID, ok := uuidParam(ctx, "id", "Invalid order ID")
	if !ok {
		return
	}
	orderItemID, ok := uuidParam(ctx, "itemId", "Invalid order item ID")
	if !ok {
		return
	}

	var req models.UpdateOrderItemRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "details": err.Error()})
		return
	}

	change, svcErr := oc.orderService.UpdateItemQuantity(ctx.Request.Context(), orderID, orderItemID, *req.Quantity)
	if svcErr != nil {
		respondError(ctx, svcErr)
		return
	}
	ctx.JSON(http.StatusOK, change)
}

// RemoveItem handles DELETE /orders/:id/items/:itemId.
func (oc *OrderController) RemoveItem(ctx *gin.Context) {
	orderID, ok := uuidParam(ctx, "id", "Invalid order ID")
	if !ok {
		return
	}
	orderItemID, ok := uuidParam(ctx, "itemId", "Invalid order item ID")
	if !ok {
		return
	}

	order, svcErr := oc.orderService.RemoveItem(ctx.Request.Context(), orderID, orderItemID)
	if svcErr != nil {
		respondError(ctx, svcErr)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"order": order})
}

// DeleteOrder handles DELETE /orders/:id (admin only).
func (oc *OrderController) DeleteOrder(ctx *gin.Context) {
	orderID, ok := uuidParam(ctx, "id", "Invalid order ID")
	if !ok {
		return
	}

	if svcErr := oc.orderService.DeleteOrder(ctx.Request.Context(), orderID); svcErr != nil {
		respondError(ctx, svcErr)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"message": "Order deleted"})
}

func respondError(ctx *gin.Context, svcErr *services.ServiceError) {
	ctx.JSON(svcErr.StatusCode, gin.H{"error": svcErr.Message})
}

func uuidParam(ctx *gin.Context, name, message string) (uuid.UUID, bool) {
	id, err := uuid.Parse(ctx.Param(name))
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": message})
		return uuid.Nil, false
	}
	return id, true
}

// parsePaginationParams reads page and limit. Missing or malformed values are
// left at zero so the service applies its defaults.
func parsePaginationParams(ctx *gin.Context) (int, int) {
	page, _ := strconv.Atoi(ctx.Query("page"))
	limit, _ := strconv.Atoi(ctx.Query("limit"))
	return page, limit
}
