package services_test

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"restaurant-service/models"
	"restaurant-service/repository"
	"restaurant-service/services"
)

// --- Mock Order Repository ---

type mockOrderRepo struct {
	mu        sync.Mutex
	orders    map[uuid.UUID]*models.Order
	customers map[uuid.UUID]*models.Customer
	failWith  error
}

func newMockOrderRepo(customers *mockCustomerRepo) *mockOrderRepo {
	return &mockOrderRepo{orders: make(map[uuid.UUID]*models.Order), customers: customers.customers}
}

func cloneOrder(o *models.Order) *models.Order {
	cp := *o
	cp.Items = append([]models.OrderItem{}, o.Items...)
	return &cp
}

func (m *mockOrderRepo) withCustomer(o *models.Order) *models.Order {
	if c, ok := m.customers[o.CustomerID]; ok {
		o.Customer = c
	}
	return o
}

func (m *mockOrderRepo) Create(_ context.Context, order *models.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return m.failWith
	}
	m.orders[order.ID] = cloneOrder(order)
	return nil
}

func (m *mockOrderRepo) FindByID(_ context.Context, id uuid.UUID) (*models.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return nil, m.failWith
	}
	o, ok := m.orders[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return m.withCustomer(cloneOrder(o)), nil
}

func (m *mockOrderRepo) FindAll(_ context.Context, filter models.OrderFilter) ([]models.Order, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return nil, 0, m.failWith
	}

	var matched []models.Order
	for _, o := range m.orders {
		if filter.Status != "" && o.Status != filter.Status {
			continue
		}
		matched = append(matched, *m.withCustomer(cloneOrder(o)))
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].CreatedAt.After(matched[j].CreatedAt) })

	total := int64(len(matched))
	start := (filter.Page - 1) * filter.Limit
	if start > len(matched) {
		start = len(matched)
	}
	end := start + filter.Limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[start:end], total, nil
}

func (m *mockOrderRepo) Mutate(_ context.Context, id uuid.UUID, fn repository.MutateFunc) (*models.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return nil, m.failWith
	}
	o, ok := m.orders[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	working := cloneOrder(o)
	if err := fn(working); err != nil {
		return nil, err
	}
	m.orders[id] = cloneOrder(working)
	return m.withCustomer(working), nil
}

func (m *mockOrderRepo) Delete(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.orders[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(m.orders, id)
	return nil
}

func (m *mockOrderRepo) stored(id uuid.UUID) *models.Order {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.orders[id]
}

// --- Mock Customer / Item Repositories ---

type mockCustomerRepo struct {
	customers map[uuid.UUID]*models.Customer
}

func newMockCustomerRepo() *mockCustomerRepo {
	return &mockCustomerRepo{customers: make(map[uuid.UUID]*models.Customer)}
}

func (m *mockCustomerRepo) add(name string) *models.Customer {
	c := &models.Customer{ID: uuid.New(), Name: name}
	m.customers[c.ID] = c
	return c
}

func (m *mockCustomerRepo) FindByID(_ context.Context, id uuid.UUID) (*models.Customer, error) {
	c, ok := m.customers[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return c, nil
}

func (m *mockCustomerRepo) Count(context.Context) (int64, error) {
	return int64(len(m.customers)), nil
}

type mockItemRepo struct {
	items map[uuid.UUID]*models.Item
}

func newMockItemRepo() *mockItemRepo {
	return &mockItemRepo{items: make(map[uuid.UUID]*models.Item)}
}

func (m *mockItemRepo) add(name, price string, available bool) *models.Item {
	it := &models.Item{ID: uuid.New(), Name: name, Price: decimal.RequireFromString(price), IsAvailable: available}
	m.items[it.ID] = it
	return it
}

func (m *mockItemRepo) FindByID(_ context.Context, id uuid.UUID) (*models.Item, error) {
	it, ok := m.items[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *it
	return &cp, nil
}

func (m *mockItemRepo) Count(context.Context) (int64, error) {
	return int64(len(m.items)), nil
}

func (m *mockItemRepo) CountAvailable(context.Context) (int64, error) {
	var n int64
	for _, it := range m.items {
		if it.IsAvailable {
			n++
		}
	}
	return n, nil
}

// --- Mock Publisher ---

type mockPublisher struct {
	mu     sync.Mutex
	events []models.OrderEvent
	err    error
}

func (m *mockPublisher) Publish(_ context.Context, evt models.OrderEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, evt)
	return m.err
}

func (m *mockPublisher) Close() error { return nil }

func (m *mockPublisher) types() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.events))
	for _, e := range m.events {
		out = append(out, e.EventType)
	}
	return out
}

func (m *mockPublisher) last() models.OrderEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.events[len(m.events)-1]
}

// --- Helpers ---

var errDatabaseDown = errors.New("connection refused")

// stepClock advances one minute on every call.
func stepClock() func() time.Time {
	var mu sync.Mutex
	current := time.Date(2026, 5, 4, 18, 0, 0, 0, time.UTC)
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		current = current.Add(time.Minute)
		return current
	}
}

type fixture struct {
	orders    *mockOrderRepo
	customers *mockCustomerRepo
	items     *mockItemRepo
	publisher *mockPublisher
	svc       services.OrderService
}

func newFixture(policy models.StatusPolicy) *fixture {
	logger, _ := zap.NewDevelopment()
	customers := newMockCustomerRepo()
	items := newMockItemRepo()
	orders := newMockOrderRepo(customers)
	publisher := &mockPublisher{}

	svc := services.NewOrderService(
		orders,
		customers,
		services.NewLocalCatalog(items),
		policy,
		publisher,
		nil,
		logger,
		services.WithClock(stepClock()),
	)
	return &fixture{orders: orders, customers: customers, items: items, publisher: publisher, svc: svc}
}

func (f *fixture) createOrder(customerID uuid.UUID) *models.OrderDetail {
	detail, svcErr := f.svc.CreateOrder(context.Background(), &models.CreateOrderRequest{CustomerID: customerID})
	if svcErr != nil {
		panic(svcErr)
	}
	return detail
}
