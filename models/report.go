package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderTotal is the per-order fold the reports are built from.
type OrderTotal struct {
	OrderID      uuid.UUID
	CustomerID   uuid.UUID
	CustomerName string
	Status       OrderStatus
	CreatedAt    time.Time
	ItemCount    int
	Total        decimal.Decimal
}

// DailySales is revenue for one calendar day in the report time zone.
type DailySales struct {
	Date       string `json:"date"`
	OrderCount int    `json:"order_count"`
	Revenue    Money  `json:"revenue"`
}

// CustomerSpend ranks a customer by what they spent in a period.
type CustomerSpend struct {
	CustomerID   uuid.UUID `json:"customer_id"`
	CustomerName string    `json:"customer_name"`
	OrderCount   int       `json:"order_count"`
	TotalSpent   Money     `json:"total_spent"`
}

// StatusCounts maps every status to the number of orders in it.
type StatusCounts map[OrderStatus]int64

// OrdersReport is the period report shown to managers.
type OrdersReport struct {
	DateFrom          string          `json:"date_from"`
	DateTo            string          `json:"date_to"`
	TotalOrders       int             `json:"total_orders"`
	TotalRevenue      Money           `json:"total_revenue"`
	AverageOrderValue Money           `json:"average_order_value"`
	StatusCounts      StatusCounts    `json:"status_counts"`
	DailySales        []DailySales    `json:"daily_sales"`
	TopCustomers      []CustomerSpend `json:"top_customers"`
}

// Dashboard is the landing page summary.
type Dashboard struct {
	TodayOrders    int              `json:"today_orders"`
	TodayRevenue   Money            `json:"today_revenue"`
	TotalOrders    int64            `json:"total_orders"`
	PendingOrders  int64            `json:"pending_orders"`
	TotalCustomers int64            `json:"total_customers"`
	TotalItems     int64            `json:"total_items"`
	AvailableItems int64            `json:"available_items"`
	StatusCounts   StatusCounts     `json:"status_counts"`
	RecentOrders   []OrderListEntry `json:"recent_orders"`
}

// NewOrderTotal folds a loaded order into its report row.
func NewOrderTotal(o *Order) OrderTotal {
	return OrderTotal{
		OrderID:      o.ID,
		CustomerID:   o.CustomerID,
		CustomerName: o.customerName(),
		Status:       o.Status,
		CreatedAt:    o.CreatedAt,
		ItemCount:    o.TotalItemCount(),
		Total:        o.TotalPrice(),
	}
}
