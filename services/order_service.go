package services

import (
	"context"
	"errors"
	"time"

	"restaurant-service/events"
	"restaurant-service/logger"
	"restaurant-service/models"
	"restaurant-service/repository"

	aws_pkg "restaurant-service/pkg/aws"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	DefaultPageSize = 15
	MaxPageSize     = 100
)

// ServiceError represents a typed error with an HTTP status code.
type ServiceError struct {
	StatusCode int
	Message    string
}

func (e *ServiceError) Error() string {
	return e.Message
}

type OrderListResponse struct {
	Orders []models.OrderListEntry `json:"orders"`
	Meta   MetaData                `json:"meta"`
}

type MetaData struct {
	Page        int   `json:"page"`
	Limit       int   `json:"limit"`
	TotalOrders int64 `json:"total_orders"`
	TotalPages  int64 `json:"total_pages"`
	HasMore     bool  `json:"has_more"`
}

// OrderService defines the order aggregate operations exposed over HTTP and
// the kitchen feed.
type OrderService interface {
	CreateOrder(ctx context.Context, req *models.CreateOrderRequest) (*models.OrderDetail, *ServiceError)
	GetOrder(ctx context.Context, orderID uuid.UUID) (*models.OrderDetail, *ServiceError)
	GetSummary(ctx context.Context, orderID uuid.UUID) (*models.OrderSummary, *ServiceError)
	ListOrders(ctx context.Context, filter models.OrderFilter) (*OrderListResponse, *ServiceError)
	AddItem(ctx context.Context, orderID uuid.UUID, req *models.OrderItemInput) (*models.ItemChange, *ServiceError)
	UpdateItemQuantity(ctx context.Context, orderID, orderItemID uuid.UUID, quantity int) (*models.ItemChange, *ServiceError)
	RemoveItem(ctx context.Context, orderID, orderItemID uuid.UUID) (*models.OrderDetail, *ServiceError)
	SetStatus(ctx context.Context, orderID uuid.UUID, status string) (*models.OrderDetail, *ServiceError)
	UpdateNotes(ctx context.Context, orderID uuid.UUID, notes string) (*models.OrderDetail, *ServiceError)
	DeleteOrder(ctx context.Context, orderID uuid.UUID) *ServiceError
}

// OrderServiceOption customises an order service.
type OrderServiceOption func(*orderServiceImpl)

// WithClock replaces the wall clock used for created_at/updated_at.
func WithClock(now func() time.Time) OrderServiceOption {
	return func(s *orderServiceImpl) { s.now = now }
}

type orderServiceImpl struct {
	orders    repository.OrderRepository
	customers repository.CustomerRepository
	catalog   Catalog
	policy    models.StatusPolicy
	publisher events.Publisher
	metrics   *aws_pkg.MetricsClient
	logger    *zap.Logger
	now       func() time.Time
}

// NewOrderService creates a new OrderService. publisher and metrics may be nil.
func NewOrderService(
	orders repository.OrderRepository,
	customers repository.CustomerRepository,
	catalog Catalog,
	policy models.StatusPolicy,
	publisher events.Publisher,
	metrics *aws_pkg.MetricsClient,
	logger *zap.Logger,
	opts ...OrderServiceOption,
) OrderService {
	if policy == nil {
		policy = models.PermissiveStatusPolicy{}
	}
	if publisher == nil {
		publisher = events.NoopPublisher{}
	}
	s := &orderServiceImpl{
		orders:    orders,
		customers: customers,
		catalog:   catalog,
		policy:    policy,
		publisher: publisher,
		metrics:   metrics,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateOrder creates a pending order. Items in the request are priced from
// the catalog and saved in the same transaction as the order header.
func (s *orderServiceImpl) CreateOrder(ctx context.Context, req *models.CreateOrderRequest) (*models.OrderDetail, *ServiceError) {
	customer, err := s.customers.FindByID(ctx, req.CustomerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &ServiceError{StatusCode: 404, Message: "Customer not found"}
		}
		s.log(ctx).Error("Failed to load customer", zap.String("customer_id", req.CustomerID.String()), zap.Error(err))
		return nil, &ServiceError{StatusCode: 500, Message: "Failed to create order"}
	}

	now := s.now()
	order := models.NewOrder(customer.ID, req.Notes, now)
	order.Customer = customer

	for _, in := range req.Items {
		item, svcErr := s.orderableItem(ctx, in.ItemID)
		if svcErr != nil {
			return nil, svcErr
		}
		if _, err := order.AddItem(item.ID, item.Name, item.Price, in.Quantity, now); err != nil {
			return nil, s.mapError(ctx, err, "create order")
		}
	}

	if err := s.orders.Create(ctx, order); err != nil {
		s.log(ctx).Error("Failed to create order", zap.String("customer_id", customer.ID.String()), zap.Error(err))
		return nil, &ServiceError{StatusCode: 500, Message: "Failed to create order"}
	}

	s.log(ctx).Info("Order created",
		zap.String("order_id", order.ID.String()),
		zap.String("customer_id", customer.ID.String()),
		zap.Int("items", len(order.Items)),
	)
	s.publish(ctx, models.EventOrderCreated, order, "")
	value, _ := order.TotalPrice().Float64()
	recordValue(s.metrics, aws_pkg.MetricOrderValue, value, nil)
	recordCount(s.metrics, aws_pkg.MetricOrdersCreated, nil)

	detail := models.NewOrderDetail(order)
	return &detail, nil
}

func (s *orderServiceImpl) GetOrder(ctx context.Context, orderID uuid.UUID) (*models.OrderDetail, *ServiceError) {
	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return nil, s.mapError(ctx, err, "fetch order", zap.String("order_id", orderID.String()))
	}
	detail := models.NewOrderDetail(order)
	return &detail, nil
}

func (s *orderServiceImpl) GetSummary(ctx context.Context, orderID uuid.UUID) (*models.OrderSummary, *ServiceError) {
	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return nil, s.mapError(ctx, err, "fetch order summary", zap.String("order_id", orderID.String()))
	}
	summary := models.NewOrderSummary(order)
	return &summary, nil
}

// ListOrders returns a page of orders, newest first.
func (s *orderServiceImpl) ListOrders(ctx context.Context, filter models.OrderFilter) (*OrderListResponse, *ServiceError) {
	if filter.Status != "" && !filter.Status.IsValid() {
		return nil, &ServiceError{StatusCode: 400, Message: "Invalid status filter"}
	}
	if filter.DateFrom != nil && filter.DateTo != nil && !filter.DateFrom.Before(*filter.DateTo) {
		return nil, &ServiceError{StatusCode: 400, Message: "date_from must be before date_to"}
	}
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 {
		filter.Limit = DefaultPageSize
	}
	if filter.Limit > MaxPageSize {
		filter.Limit = MaxPageSize
	}

	orders, total, err := s.orders.FindAll(ctx, filter)
	if err != nil {
		s.log(ctx).Error("Failed to list orders", zap.Error(err))
		return nil, &ServiceError{StatusCode: 500, Message: "Failed to fetch orders"}
	}

	entries := make([]models.OrderListEntry, 0, len(orders))
	for i := range orders {
		entries = append(entries, models.NewOrderListEntry(&orders[i]))
	}

	return &OrderListResponse{
		Orders: entries,
		Meta: MetaData{
			Page:        filter.Page,
			Limit:       filter.Limit,
			TotalOrders: total,
			TotalPages:  calculateTotalPages(total, filter.Limit),
			HasMore:     total > int64(filter.Page*filter.Limit),
		},
	}, nil
}

// AddItem adds quantity of a catalog item to the order, merging into the
// existing line for that item when there is one.
func (s *orderServiceImpl) AddItem(ctx context.Context, orderID uuid.UUID, req *models.OrderItemInput) (*models.ItemChange, *ServiceError) {
	if req.Quantity < 1 {
		return nil, s.mapError(ctx, models.ErrInvalidQuantity, "add item")
	}
	if _, err := s.orders.FindByID(ctx, orderID); err != nil {
		return nil, s.mapError(ctx, err, "add item", zap.String("order_id", orderID.String()))
	}

	item, svcErr := s.orderableItem(ctx, req.ItemID)
	if svcErr != nil {
		return nil, svcErr
	}

	var line models.OrderItem
	order, err := s.orders.Mutate(ctx, orderID, func(o *models.Order) error {
		var err error
		line, err = o.AddItem(item.ID, item.Name, item.Price, req.Quantity, s.now())
		return err
	})
	if err != nil {
		return nil, s.mapError(ctx, err, "add item", zap.String("order_id", orderID.String()))
	}

	s.log(ctx).Info("Order item added",
		zap.String("order_id", orderID.String()),
		zap.String("item_id", item.ID.String()),
		zap.Int("line_quantity", line.Quantity),
	)
	s.publish(ctx, models.EventOrderItemsChanged, order, "")

	view := models.NewOrderLine(line)
	return &models.ItemChange{Item: &view, Order: models.NewOrderDetail(order)}, nil
}

// UpdateItemQuantity sets the quantity of a line. Zero or less removes it.
func (s *orderServiceImpl) UpdateItemQuantity(ctx context.Context, orderID, orderItemID uuid.UUID, quantity int) (*models.ItemChange, *ServiceError) {
	var (
		line    models.OrderItem
		removed bool
	)
	order, err := s.orders.Mutate(ctx, orderID, func(o *models.Order) error {
		var err error
		line, removed, err = o.SetItemQuantity(orderItemID, quantity, s.now())
		return err
	})
	if err != nil {
		return nil, s.mapError(ctx, err, "update item", zap.String("order_id", orderID.String()), zap.String("order_item_id", orderItemID.String()))
	}

	s.log(ctx).Info("Order item quantity set",
		zap.String("order_id", orderID.String()),
		zap.String("order_item_id", orderItemID.String()),
		zap.Int("quantity", quantity),
		zap.Bool("removed", removed),
	)
	s.publish(ctx, models.EventOrderItemsChanged, order, "")

	change := &models.ItemChange{Removed: removed, Order: models.NewOrderDetail(order)}
	if !removed {
		view := models.NewOrderLine(line)
		change.Item = &view
	}
	return change, nil
}

func (s *orderServiceImpl) RemoveItem(ctx context.Context, orderID, orderItemID uuid.UUID) (*models.OrderDetail, *ServiceError) {
	order, err := s.orders.Mutate(ctx, orderID, func(o *models.Order) error {
		return o.RemoveItem(orderItemID, s.now())
	})
	if err != nil {
		return nil, s.mapError(ctx, err, "remove item", zap.String("order_id", orderID.String()), zap.String("order_item_id", orderItemID.String()))
	}

	s.log(ctx).Info("Order item removed",
		zap.String("order_id", orderID.String()),
		zap.String("order_item_id", orderItemID.String()),
	)
	s.publish(ctx, models.EventOrderItemsChanged, order, "")

	detail := models.NewOrderDetail(order)
	return &detail, nil
}

// SetStatus moves the order to a new status under the configured policy.
func (s *orderServiceImpl) SetStatus(ctx context.Context, orderID uuid.UUID, status string) (*models.OrderDetail, *ServiceError) {
	next, err := models.ParseOrderStatus(status)
	if err != nil {
		return nil, s.mapError(ctx, err, "update status")
	}

	var previous models.OrderStatus
	order, err := s.orders.Mutate(ctx, orderID, func(o *models.Order) error {
		var err error
		previous, err = o.SetStatus(s.policy, next, s.now())
		return err
	})
	if err != nil {
		if errors.Is(err, models.ErrTransitionNotAllowed) {
			s.log(ctx).Warn("Status transition rejected",
				zap.String("order_id", orderID.String()),
				zap.String("from", string(previous)),
				zap.String("to", string(next)),
				zap.String("policy", s.policy.Name()),
			)
		}
		return nil, s.mapError(ctx, err, "update status", zap.String("order_id", orderID.String()))
	}

	s.log(ctx).Info("Order status changed",
		zap.String("order_id", orderID.String()),
		zap.String("from", string(previous)),
		zap.String("to", string(next)),
	)
	s.publish(ctx, models.EventOrderStatusChanged, order, previous)
	recordCount(s.metrics, aws_pkg.MetricOrderStatusChanges, map[string]string{"Status": string(next)})

	detail := models.NewOrderDetail(order)
	return &detail, nil
}

// UpdateNotes replaces the order notes. Unlike items, notes can be edited in
// any status.
func (s *orderServiceImpl) UpdateNotes(ctx context.Context, orderID uuid.UUID, notes string) (*models.OrderDetail, *ServiceError) {
	order, err := s.orders.Mutate(ctx, orderID, func(o *models.Order) error {
		o.SetNotes(notes, s.now())
		return nil
	})
	if err != nil {
		return nil, s.mapError(ctx, err, "update order", zap.String("order_id", orderID.String()))
	}

	s.log(ctx).Info("Order notes updated", zap.String("order_id", orderID.String()))
	s.publish(ctx, models.EventOrderNotesChanged, order, "")

	detail := models.NewOrderDetail(order)
	return &detail, nil
}

// DeleteOrder removes the order and all of its items.
func (s *orderServiceImpl) DeleteOrder(ctx context.Context, orderID uuid.UUID) *ServiceError {
	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return s.mapError(ctx, err, "delete order", zap.String("order_id", orderID.String()))
	}

	if err := s.orders.Delete(ctx, orderID); err != nil {
		return s.mapError(ctx, err, "delete order", zap.String("order_id", orderID.String()))
	}

	s.log(ctx).Info("Order deleted", zap.String("order_id", orderID.String()))
	s.publish(ctx, models.EventOrderDeleted, order, "")
	recordCount(s.metrics, aws_pkg.MetricOrdersDeleted, nil)
	return nil
}

// orderableItem resolves a catalog item and rejects items that are off the menu.
func (s *orderServiceImpl) orderableItem(ctx context.Context, itemID uuid.UUID) (*models.Item, *ServiceError) {
	item, err := s.catalog.LookupItem(ctx, itemID)
	if err != nil {
		if errors.Is(err, ErrItemNotFound) {
			return nil, &ServiceError{StatusCode: 404, Message: "Item not found"}
		}
		s.log(ctx).Error("Catalog lookup failed", zap.String("item_id", itemID.String()), zap.Error(err))
		return nil, &ServiceError{StatusCode: 500, Message: "Failed to look up item"}
	}
	if !item.IsAvailable {
		return nil, &ServiceError{StatusCode: 400, Message: "Item is not available"}
	}
	return item, nil
}

func (s *orderServiceImpl) log(ctx context.Context) *zap.Logger {
	return logger.WithRequestID(ctx, s.logger)
}

// mapError converts repository and aggregate errors to a ServiceError.
func (s *orderServiceImpl) mapError(ctx context.Context, err error, action string, fields ...zap.Field) *ServiceError {
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return &ServiceError{StatusCode: 404, Message: "Order not found"}
	case errors.Is(err, models.ErrOrderItemNotFound):
		return &ServiceError{StatusCode: 404, Message: "Order item not found"}
	case errors.Is(err, models.ErrInvalidQuantity):
		return &ServiceError{StatusCode: 400, Message: "Quantity must be at least 1"}
	case errors.Is(err, models.ErrInvalidStatus):
		return &ServiceError{StatusCode: 400, Message: "Invalid status"}
	case errors.Is(err, models.ErrItemsLocked):
		return &ServiceError{StatusCode: 409, Message: "Items can only be changed while the order is pending or confirmed"}
	case errors.Is(err, models.ErrTransitionNotAllowed):
		return &ServiceError{StatusCode: 409, Message: "Status transition not allowed"}
	}

	s.log(ctx).Error("Failed to "+action, append(fields, zap.Error(err))...)
	return &ServiceError{StatusCode: 500, Message: "Failed to " + action}
}

// publish sends the event to the configured backends. Failures are logged
// and never fail the request.
func (s *orderServiceImpl) publish(ctx context.Context, eventType string, order *models.Order, previous models.OrderStatus) {
	evt := models.NewOrderEvent(eventType, order, previous, s.now())
	if err := s.publisher.Publish(ctx, evt); err != nil {
		s.log(ctx).Error("Failed to publish order event",
			zap.String("event_type", eventType),
			zap.String("order_id", evt.OrderID),
			zap.Error(err),
		)
		recordCount(s.metrics, aws_pkg.MetricEventPublishFailure, map[string]string{"EventType": eventType})
	}
}

func calculateTotalPages(total int64, limit int) int64 {
	if limit == 0 {
		return 0
	}
	return (total + int64(limit) - 1) / int64(limit)
}
