package models

import "time"

const (
	EventOrderCreated       = "order.created"
	EventOrderStatusChanged = "order.status_changed"
	EventOrderItemsChanged  = "order.items_changed"
	EventOrderDeleted       = "order.deleted"
	EventOrderNotesChanged  = "order.notes_changed"
)

// OrderEvent is published to the configured broker and the live board after
// an order changes.
type OrderEvent struct {
	EventType      string      `json:"event_type"`
	OrderID        string      `json:"order_id"`
	CustomerID     string      `json:"customer_id"`
	Status         OrderStatus `json:"status"`
	PreviousStatus OrderStatus `json:"previous_status,omitempty"`
	TotalPrice     Money       `json:"total_price"`
	TotalItems     int         `json:"total_items"`
	Timestamp      time.Time   `json:"timestamp"`
}

func NewOrderEvent(eventType string, o *Order, previous OrderStatus, at time.Time) OrderEvent {
	return OrderEvent{
		EventType:      eventType,
		OrderID:        o.ID.String(),
		CustomerID:     o.CustomerID.String(),
		Status:         o.Status,
		PreviousStatus: previous,
		TotalPrice:     NewMoney(o.TotalPrice()),
		TotalItems:     o.TotalItemCount(),
		Timestamp:      at,
	}
}

// KitchenStatusMessage is received from the kitchen display queue.
type KitchenStatusMessage struct {
	OrderID string `json:"order_id"`
	Status  string `json:"status"`
	Station string `json:"station,omitempty"`
}
