package services_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"restaurant-service/models"
	"restaurant-service/services"
)

type mockReportRepo struct {
	totals     []models.OrderTotal
	counts     models.StatusCounts
	recent     []models.Order
	totalCalls int
	lastFrom   *time.Time
	lastTo     *time.Time
}

func (m *mockReportRepo) CountByStatus(_ context.Context, _, _ *time.Time) (models.StatusCounts, error) {
	return m.counts, nil
}

func (m *mockReportRepo) OrderTotals(_ context.Context, from, to *time.Time) ([]models.OrderTotal, error) {
	m.totalCalls++
	m.lastFrom, m.lastTo = from, to

	var in []models.OrderTotal
	for _, t := range m.totals {
		if from != nil && t.CreatedAt.Before(*from) {
			continue
		}
		if to != nil && !t.CreatedAt.Before(*to) {
			continue
		}
		in = append(in, t)
	}
	return in, nil
}

func (m *mockReportRepo) RecentOrders(_ context.Context, limit int) ([]models.Order, error) {
	if len(m.recent) > limit {
		return m.recent[:limit], nil
	}
	return m.recent, nil
}

type memoryCache struct {
	data map[string][]byte
}

func (c *memoryCache) Get(_ context.Context, key string, dest interface{}) bool {
	raw, ok := c.data[key]
	if !ok {
		return false
	}
	return json.Unmarshal(raw, dest) == nil
}

func (c *memoryCache) Set(key string, value interface{}) {
	raw, _ := json.Marshal(value)
	c.data[key] = raw
}

var (
	customerA = uuid.MustParse("00000000-0000-0000-0000-00000000000a")
	customerB = uuid.MustParse("00000000-0000-0000-0000-00000000000b")
)

func total(customer uuid.UUID, name string, at time.Time, amount string) models.OrderTotal {
	return models.OrderTotal{
		OrderID:      uuid.New(),
		CustomerID:   customer,
		CustomerName: name,
		Status:       models.OrderStatusDelivered,
		CreatedAt:    at,
		ItemCount:    1,
		Total:        decimal.RequireFromString(amount),
	}
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func newReportService(repo *mockReportRepo, cache services.ReportCache, loc *time.Location, now time.Time) (services.ReportService, *mockCustomerRepo, *mockItemRepo) {
	logger, _ := zap.NewDevelopment()
	customers := newMockCustomerRepo()
	items := newMockItemRepo()
	svc := services.NewReportService(repo, customers, items, cache, loc, nil, logger, services.WithReportClock(fixedClock(now)))
	return svc, customers, items
}

func TestRevenueByDay_ZeroFillsAndBucketsInZone(t *testing.T) {
	zone := time.FixedZone("UTC-5", -5*60*60)
	totals := []models.OrderTotal{
		total(customerA, "Ada", time.Date(2026, 5, 5, 2, 0, 0, 0, time.UTC), "10.00"),
		total(customerB, "Bob", time.Date(2026, 5, 3, 12, 0, 0, 0, time.UTC), "4.25"),
		total(customerB, "Bob", time.Date(2026, 5, 3, 20, 0, 0, 0, time.UTC), "1.75"),
	}

	first := time.Date(2026, 5, 2, 0, 0, 0, 0, zone)
	last := time.Date(2026, 5, 5, 0, 0, 0, 0, zone)
	days := services.RevenueByDay(totals, zone, first, last)

	require.Len(t, days, 4)
	assert.Equal(t, "2026-05-02", days[0].Date)
	assert.Equal(t, 0, days[0].OrderCount)
	assert.Equal(t, "0.00", days[0].Revenue.String())
	assert.Equal(t, "2026-05-03", days[1].Date)
	assert.Equal(t, 2, days[1].OrderCount)
	assert.Equal(t, "6.00", days[1].Revenue.String())
	assert.Equal(t, "2026-05-04", days[2].Date)
	assert.Equal(t, 1, days[2].OrderCount)
	assert.Equal(t, "10.00", days[2].Revenue.String())
	assert.Equal(t, "2026-05-05", days[3].Date)
	assert.Equal(t, 0, days[3].OrderCount)
}

func TestTopCustomers_RanksBySpendWithStableTieBreak(t *testing.T) {
	customerC := uuid.MustParse("00000000-0000-0000-0000-00000000000c")
	at := time.Date(2026, 5, 4, 12, 0, 0, 0, time.UTC)
	totals := []models.OrderTotal{
		total(customerB, "Bob", at, "15.00"),
		total(customerC, "Cy", at, "40.00"),
		total(customerA, "Ada", at, "10.00"),
		total(customerA, "Ada", at, "5.00"),
	}

	top := services.TopCustomers(totals, 5)

	require.Len(t, top, 3)
	assert.Equal(t, customerC, top[0].CustomerID)
	assert.Equal(t, customerA, top[1].CustomerID, "ties are ordered by customer id")
	assert.Equal(t, 2, top[1].OrderCount)
	assert.Equal(t, "15.00", top[1].TotalSpent.String())
	assert.Equal(t, customerB, top[2].CustomerID)

	assert.Len(t, services.TopCustomers(totals, 2), 2)
}

func TestOrdersReport_DefaultsToLastThirtyDays(t *testing.T) {
	now := time.Date(2026, 5, 4, 15, 0, 0, 0, time.UTC)
	repo := &mockReportRepo{
		counts: models.StatusCounts{models.OrderStatusDelivered: 3},
		totals: []models.OrderTotal{
			total(customerB, "Bob", time.Date(2026, 5, 2, 9, 0, 0, 0, time.UTC), "10.00"),
			total(customerA, "Ada", time.Date(2026, 5, 2, 19, 0, 0, 0, time.UTC), "5.50"),
			total(customerA, "Ada", time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC), "20.00"),
		},
	}
	svc, _, _ := newReportService(repo, nil, time.UTC, now)

	report, svcErr := svc.OrdersReport(context.Background(), "", "")

	require.Nil(t, svcErr)
	assert.Equal(t, "2026-04-04", report.DateFrom)
	assert.Equal(t, "2026-05-04", report.DateTo)
	assert.Equal(t, time.Date(2026, 4, 4, 0, 0, 0, 0, time.UTC), *repo.lastFrom)
	assert.Equal(t, time.Date(2026, 5, 5, 0, 0, 0, 0, time.UTC), *repo.lastTo)

	assert.Equal(t, 3, report.TotalOrders)
	assert.Equal(t, "35.50", report.TotalRevenue.String())
	assert.Equal(t, "11.83", report.AverageOrderValue.String())
	assert.Equal(t, int64(3), report.StatusCounts[models.OrderStatusDelivered])

	require.Len(t, report.DailySales, 7)
	assert.Equal(t, "2026-04-28", report.DailySales[0].Date)
	assert.Equal(t, "2026-05-02", report.DailySales[4].Date)
	assert.Equal(t, 2, report.DailySales[4].OrderCount)
	assert.Equal(t, "15.50", report.DailySales[4].Revenue.String())
	assert.Equal(t, "2026-05-04", report.DailySales[6].Date)
	assert.Equal(t, "20.00", report.DailySales[6].Revenue.String())

	require.Len(t, report.TopCustomers, 2)
	assert.Equal(t, customerA, report.TopCustomers[0].CustomerID)
	assert.Equal(t, "25.50", report.TopCustomers[0].TotalSpent.String())
}

func TestOrdersReport_ShortRangeLimitsDailySales(t *testing.T) {
	now := time.Date(2026, 5, 4, 15, 0, 0, 0, time.UTC)
	svc, _, _ := newReportService(&mockReportRepo{}, nil, time.UTC, now)

	report, svcErr := svc.OrdersReport(context.Background(), "2026-05-01", "2026-05-03")

	require.Nil(t, svcErr)
	assert.Equal(t, 0, report.TotalOrders)
	assert.Equal(t, "0.00", report.AverageOrderValue.String())
	require.Len(t, report.DailySales, 3)
	assert.Equal(t, "2026-05-01", report.DailySales[0].Date)
	assert.Empty(t, report.TopCustomers)
}

func TestOrdersReport_InvalidDates(t *testing.T) {
	now := time.Date(2026, 5, 4, 15, 0, 0, 0, time.UTC)
	svc, _, _ := newReportService(&mockReportRepo{}, nil, time.UTC, now)

	tests := []struct {
		name     string
		from, to string
	}{
		{"bad from", "04/05/2026", ""},
		{"bad to", "", "tomorrow"},
		{"from after to", "2026-05-04", "2026-05-01"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, svcErr := svc.OrdersReport(context.Background(), tt.from, tt.to)
			require.NotNil(t, svcErr)
			assert.Equal(t, 400, svcErr.StatusCode)
		})
	}
}

func TestOrdersReport_ServedFromCache(t *testing.T) {
	now := time.Date(2026, 5, 4, 15, 0, 0, 0, time.UTC)
	repo := &mockReportRepo{totals: []models.OrderTotal{
		total(customerA, "Ada", time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC), "20.00"),
	}}
	cache := &memoryCache{data: make(map[string][]byte)}
	svc, _, _ := newReportService(repo, cache, time.UTC, now)

	first, svcErr := svc.OrdersReport(context.Background(), "", "")
	require.Nil(t, svcErr)
	second, svcErr := svc.OrdersReport(context.Background(), "", "")
	require.Nil(t, svcErr)

	assert.Equal(t, 1, repo.totalCalls)
	assert.Equal(t, first.TotalRevenue.String(), second.TotalRevenue.String())
	assert.Equal(t, first.TopCustomers[0].CustomerID, second.TopCustomers[0].CustomerID)
}

func TestDashboard(t *testing.T) {
	now := time.Date(2026, 5, 4, 15, 0, 0, 0, time.UTC)
	recent := []models.Order{
		{ID: uuid.New(), CustomerID: customerA, Status: models.OrderStatusPending, CreatedAt: now.Add(-time.Hour)},
	}
	repo := &mockReportRepo{
		counts: models.StatusCounts{
			models.OrderStatusPending:   2,
			models.OrderStatusDelivered: 5,
			models.OrderStatusCancelled: 1,
		},
		totals: []models.OrderTotal{
			total(customerA, "Ada", time.Date(2026, 5, 3, 23, 0, 0, 0, time.UTC), "99.00"),
			total(customerA, "Ada", time.Date(2026, 5, 4, 9, 0, 0, 0, time.UTC), "12.00"),
			total(customerB, "Bob", time.Date(2026, 5, 4, 14, 0, 0, 0, time.UTC), "8.40"),
		},
		recent: recent,
	}
	svc, customers, items := newReportService(repo, nil, time.UTC, now)
	customers.add("Ada")
	items.add("Soup", "6.00", true)
	items.add("Truffle", "40.00", false)

	dashboard, svcErr := svc.Dashboard(context.Background())

	require.Nil(t, svcErr)
	assert.Equal(t, 2, dashboard.TodayOrders)
	assert.Equal(t, "20.40", dashboard.TodayRevenue.String())
	assert.Equal(t, int64(8), dashboard.TotalOrders)
	assert.Equal(t, int64(2), dashboard.PendingOrders)
	assert.Equal(t, int64(1), dashboard.TotalCustomers)
	assert.Equal(t, int64(2), dashboard.TotalItems)
	assert.Equal(t, int64(1), dashboard.AvailableItems)
	require.Len(t, dashboard.RecentOrders, 1)
	assert.Equal(t, recent[0].ID, dashboard.RecentOrders[0].ID)
}
