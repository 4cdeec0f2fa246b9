package models

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// OrderStatus is the lifecycle state of an order.
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusConfirmed OrderStatus = "confirmed"
	OrderStatusPreparing OrderStatus = "preparing"
	OrderStatusReady     OrderStatus = "ready"
	OrderStatusDelivered OrderStatus = "delivered"
	OrderStatusCancelled OrderStatus = "cancelled"
)

// AllOrderStatuses lists every status in display order.
var AllOrderStatuses = []OrderStatus{
	OrderStatusPending,
	OrderStatusConfirmed,
	OrderStatusPreparing,
	OrderStatusReady,
	OrderStatusDelivered,
	OrderStatusCancelled,
}

// IsValid reports whether s is one of the known statuses.
func (s OrderStatus) IsValid() bool {
	for _, known := range AllOrderStatuses {
		if s == known {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no workflow transition leaves s.
func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusDelivered || s == OrderStatusCancelled
}

// ParseOrderStatus converts raw input into a known status.
func ParseOrderStatus(raw string) (OrderStatus, error) {
	s := OrderStatus(raw)
	if !s.IsValid() {
		return "", ErrInvalidStatus
	}
	return s, nil
}

var (
	ErrInvalidQuantity      = errors.New("quantity must be at least 1")
	ErrInvalidStatus        = errors.New("unknown order status")
	ErrItemsLocked          = errors.New("items can only be changed while the order is pending or confirmed")
	ErrTransitionNotAllowed = errors.New("status transition not allowed")
	ErrOrderItemNotFound    = errors.New("order item not found in this order")
)

// Order is the aggregate root. Items are owned by the order and deleted with it.
type Order struct {
	ID         uuid.UUID   `gorm:"type:uuid;primaryKey" json:"id"`
	CustomerID uuid.UUID   `gorm:"type:uuid;not null;index" json:"customer_id"`
	Customer   *Customer   `gorm:"foreignKey:CustomerID;constraint:OnDelete:RESTRICT" json:"customer,omitempty"`
	Status     OrderStatus `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`
	Notes      string      `gorm:"type:text" json:"notes"`
	CreatedAt  time.Time   `gorm:"autoCreateTime;index" json:"created_at"`
	UpdatedAt  time.Time   `gorm:"autoUpdateTime" json:"updated_at"`
	Items      []OrderItem `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"items"`
}

// OrderItem is one line of an order. UnitPrice is the catalog price captured
// when the line was first created and is never recomputed.
type OrderItem struct {
	ID        uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	OrderID   uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_order_items_order_item" json:"order_id"`
	ItemID    uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_order_items_order_item" json:"item_id"`
	ItemName  string          `gorm:"type:varchar(200);not null;default:''" json:"item_name"`
	Position  int             `gorm:"not null;default:0" json:"position"`
	Quantity  int             `gorm:"not null" json:"quantity"`
	UnitPrice decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"unit_price"`
}

func (o *Order) BeforeCreate(tx *gorm.DB) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	return nil
}

func (oi *OrderItem) BeforeCreate(tx *gorm.DB) error {
	if oi.ID == uuid.Nil {
		oi.ID = uuid.New()
	}
	return nil
}

// NewOrder returns an empty pending order for the customer.
func NewOrder(customerID uuid.UUID, notes string, now time.Time) *Order {
	return &Order{
		ID:         uuid.New(),
		CustomerID: customerID,
		Status:     OrderStatusPending,
		Notes:      notes,
		CreatedAt:  now,
		UpdatedAt:  now,
		Items:      []OrderItem{},
	}
}

// LineTotal is quantity * unit price.
func (oi OrderItem) LineTotal() decimal.Decimal {
	return oi.UnitPrice.Mul(decimal.NewFromInt(int64(oi.Quantity)))
}

// TotalPrice sums the line totals of every item.
func (o *Order) TotalPrice() decimal.Decimal {
	total := decimal.Zero
	for _, item := range o.Items {
		total = total.Add(item.LineTotal())
	}
	return total
}

// TotalItemCount sums the quantities of every item.
func (o *Order) TotalItemCount() int {
	count := 0
	for _, item := range o.Items {
		count += item.Quantity
	}
	return count
}

// CanModifyItems reports whether lines may be added, changed or removed.
func (o *Order) CanModifyItems() bool {
	return o.Status == OrderStatusPending || o.Status == OrderStatusConfirmed
}

// AddItem merges quantity into the existing line for itemID, or appends a new
// line priced at unitPrice. The price of an existing line is left untouched.
func (o *Order) AddItem(itemID uuid.UUID, itemName string, unitPrice decimal.Decimal, quantity int, now time.Time) (OrderItem, error) {
	if quantity < 1 {
		return OrderItem{}, ErrInvalidQuantity
	}
	if !o.CanModifyItems() {
		return OrderItem{}, ErrItemsLocked
	}

	for i := range o.Items {
		if o.Items[i].ItemID == itemID {
			o.Items[i].Quantity += quantity
			o.UpdatedAt = now
			return o.Items[i], nil
		}
	}

	line := OrderItem{
		ID:        uuid.New(),
		OrderID:   o.ID,
		ItemID:    itemID,
		ItemName:  itemName,
		Position:  o.nextPosition(),
		Quantity:  quantity,
		UnitPrice: unitPrice.Round(2),
	}
	o.Items = append(o.Items, line)
	o.UpdatedAt = now
	return line, nil
}

// SetItemQuantity stores a new quantity for the line. A quantity of zero or
// less removes the line instead, and removed is returned as true.
func (o *Order) SetItemQuantity(orderItemID uuid.UUID, quantity int, now time.Time) (line OrderItem, removed bool, err error) {
	if !o.CanModifyItems() {
		return OrderItem{}, false, ErrItemsLocked
	}
	idx := o.indexOf(orderItemID)
	if idx < 0 {
		return OrderItem{}, false, ErrOrderItemNotFound
	}

	if quantity <= 0 {
		line = o.Items[idx]
		o.Items = append(o.Items[:idx], o.Items[idx+1:]...)
		o.UpdatedAt = now
		return line, true, nil
	}

	o.Items[idx].Quantity = quantity
	o.UpdatedAt = now
	return o.Items[idx], false, nil
}

// RemoveItem deletes the line from the order.
func (o *Order) RemoveItem(orderItemID uuid.UUID, now time.Time) error {
	if !o.CanModifyItems() {
		return ErrItemsLocked
	}
	idx := o.indexOf(orderItemID)
	if idx < 0 {
		return ErrOrderItemNotFound
	}
	o.Items = append(o.Items[:idx], o.Items[idx+1:]...)
	o.UpdatedAt = now
	return nil
}

// SetStatus moves the order to next if the policy allows it and returns the
// status it had before.
func (o *Order) SetStatus(policy StatusPolicy, next OrderStatus, now time.Time) (OrderStatus, error) {
	if !next.IsValid() {
		return o.Status, ErrInvalidStatus
	}
	previous := o.Status
	if !policy.CanTransition(previous, next) {
		return previous, ErrTransitionNotAllowed
	}
	o.Status = next
	o.UpdatedAt = now
	return previous, nil
}

// SetNotes replaces the free-text notes. Notes stay editable in every status.
func (o *Order) SetNotes(notes string, now time.Time) {
	o.Notes = notes
	o.UpdatedAt = now
}

func (o *Order) indexOf(orderItemID uuid.UUID) int {
	for i := range o.Items {
		if o.Items[i].ID == orderItemID {
			return i
		}
	}
	return -1
}

func (o *Order) nextPosition() int {
	last := 0
	for _, item := range o.Items {
		if item.Position > last {
			last = item.Position
		}
	}
	return last + 1
}
