package models

import (
	"time"

	"github.com/google/uuid"
)

// OrderItemInput is one requested line when creating or adding to an order.
type OrderItemInput struct {
	ItemID   uuid.UUID `json:"item_id" binding:"required"`
	Quantity int       `json:"quantity" binding:"required,min=1"`
}

// CreateOrderRequest creates an order, optionally with its first items.
type CreateOrderRequest struct {
	CustomerID uuid.UUID        `json:"customer_id" binding:"required"`
	Notes      string           `json:"notes" binding:"max=2000"`
	Items      []OrderItemInput `json:"items" binding:"omitempty,dive"`
}

// UpdateOrderItemRequest sets a line quantity. Zero or negative removes the line.
type UpdateOrderItemRequest struct {
	Quantity *int `json:"quantity" binding:"required"`
}

// UpdateOrderRequest edits the order header. The customer is fixed at creation.
type UpdateOrderRequest struct {
	Notes *string `json:"notes" binding:"required,max=2000"`
}

// UpdateStatusRequest is the payload for a status change.
type UpdateStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// OrderFilter narrows the order list.
type OrderFilter struct {
	Status        OrderStatus
	CustomerQuery string // case-insensitive match on customer name or phone
	DateFrom      *time.Time
	DateTo        *time.Time // exclusive
	Page          int
	Limit         int
}
