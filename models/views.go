package models

import (
	"time"

	"github.com/google/uuid"
)

// OrderLine is the API shape of an order item.
type OrderLine struct {
	ID        uuid.UUID `json:"id"`
	ItemID    uuid.UUID `json:"item_id"`
	ItemName  string    `json:"item_name"`
	Quantity  int       `json:"quantity"`
	UnitPrice Money     `json:"unit_price"`
	LineTotal Money     `json:"line_total"`
}

// OrderDetail is the API shape of an order with its items and totals.
type OrderDetail struct {
	ID           uuid.UUID   `json:"id"`
	CustomerID   uuid.UUID   `json:"customer_id"`
	CustomerName string      `json:"customer_name,omitempty"`
	Status       OrderStatus `json:"status"`
	Notes        string      `json:"notes"`
	Items        []OrderLine `json:"items"`
	TotalItems   int         `json:"total_items"`
	TotalPrice   Money       `json:"total_price"`
	CanAddItems  bool        `json:"can_add_items"`
	CreatedAt    time.Time   `json:"created_at"`
	UpdatedAt    time.Time   `json:"updated_at"`
}

// OrderListEntry is one row of the order list and the dashboard.
type OrderListEntry struct {
	ID           uuid.UUID   `json:"id"`
	CustomerID   uuid.UUID   `json:"customer_id"`
	CustomerName string      `json:"customer_name,omitempty"`
	Status       OrderStatus `json:"status"`
	TotalItems   int         `json:"total_items"`
	TotalPrice   Money       `json:"total_price"`
	CreatedAt    time.Time   `json:"created_at"`
}

// SummaryLine is a compact line for the order summary popup.
type SummaryLine struct {
	Name     string `json:"name"`
	Quantity int    `json:"quantity"`
	Price    Money  `json:"price"`
	Total    Money  `json:"total"`
}

// OrderSummary is the compact view used by floor staff.
type OrderSummary struct {
	OrderID    uuid.UUID     `json:"order_id"`
	Customer   string        `json:"customer"`
	Status     OrderStatus   `json:"status"`
	Items      []SummaryLine `json:"items"`
	TotalItems int           `json:"total_items"`
	TotalPrice Money         `json:"total_price"`
}

// ItemChange is the result of a quantity update. Item is nil when the line was removed.
type ItemChange struct {
	Removed bool        `json:"removed"`
	Item    *OrderLine  `json:"item,omitempty"`
	Order   OrderDetail `json:"order"`
}

func NewOrderLine(oi OrderItem) OrderLine {
	return OrderLine{
		ID:        oi.ID,
		ItemID:    oi.ItemID,
		ItemName:  oi.ItemName,
		Quantity:  oi.Quantity,
		UnitPrice: NewMoney(oi.UnitPrice),
		LineTotal: NewMoney(oi.LineTotal()),
	}
}

func NewOrderDetail(o *Order) OrderDetail {
	lines := make([]OrderLine, 0, len(o.Items))
	for _, item := range o.Items {
		lines = append(lines, NewOrderLine(item))
	}
	return OrderDetail{
		ID:           o.ID,
		CustomerID:   o.CustomerID,
		CustomerName: o.customerName(),
		Status:       o.Status,
		Notes:        o.Notes,
		Items:        lines,
		TotalItems:   o.TotalItemCount(),
		TotalPrice:   NewMoney(o.TotalPrice()),
		CanAddItems:  o.CanModifyItems(),
		CreatedAt:    o.CreatedAt,
		UpdatedAt:    o.UpdatedAt,
	}
}

func NewOrderListEntry(o *Order) OrderListEntry {
	return OrderListEntry{
		ID:           o.ID,
		CustomerID:   o.CustomerID,
		CustomerName: o.customerName(),
		Status:       o.Status,
		TotalItems:   o.TotalItemCount(),
		TotalPrice:   NewMoney(o.TotalPrice()),
		CreatedAt:    o.CreatedAt,
	}
}

func NewOrderSummary(o *Order) OrderSummary {
	lines := make([]SummaryLine, 0, len(o.Items))
	for _, item := range o.Items {
		lines = append(lines, SummaryLine{
			Name:     item.ItemName,
			Quantity: item.Quantity,
			Price:    NewMoney(item.UnitPrice),
			Total:    NewMoney(item.LineTotal()),
		})
	}
	return OrderSummary{
		OrderID:    o.ID,
		Customer:   o.customerName(),
		Status:     o.Status,
		Items:      lines,
		TotalItems: o.TotalItemCount(),
		TotalPrice: NewMoney(o.TotalPrice()),
	}
}

func (o *Order) customerName() string {
	if o.Customer == nil {
		return ""
	}
	return o.Customer.Name
}
