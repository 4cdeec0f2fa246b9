package services

import (
	"context"
	"fmt"
	"sort"
	"time"

	"restaurant-service/logger"
	"restaurant-service/models"
	"restaurant-service/repository"

	aws_pkg "restaurant-service/pkg/aws"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const (
	dateLayout        = "2006-01-02"
	defaultReportDays = 30
	dailySalesDays    = 7
	topCustomersLimit = 5
	recentOrdersLimit = 10
)

// ReportService builds read-only aggregates over orders.
type ReportService interface {
	OrdersReport(ctx context.Context, dateFrom, dateTo string) (*models.OrdersReport, *ServiceError)
	Dashboard(ctx context.Context) (*models.Dashboard, *ServiceError)
}

type ReportServiceOption func(*reportServiceImpl)

func WithReportClock(now func() time.Time) ReportServiceOption {
	return func(s *reportServiceImpl) { s.now = now }
}

type reportServiceImpl struct {
	reports   repository.ReportRepository
	customers repository.CustomerRepository
	items     repository.ItemRepository
	cache     ReportCache
	loc       *time.Location
	metrics   *aws_pkg.MetricsClient
	logger    *zap.Logger
	now       func() time.Time
}

// NewReportService creates a ReportService. Days are bucketed in loc; a nil
// cache disables caching.
func NewReportService(
	reports repository.ReportRepository,
	customers repository.CustomerRepository,
	items repository.ItemRepository,
	cache ReportCache,
	loc *time.Location,
	metrics *aws_pkg.MetricsClient,
	logger *zap.Logger,
	opts ...ReportServiceOption,
) ReportService {
	if loc == nil {
		loc = time.UTC
	}
	s := &reportServiceImpl{
		reports:   reports,
		customers: customers,
		items:     items,
		cache:     cache,
		loc:       loc,
		metrics:   metrics,
		logger:    logger,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// OrdersReport summarises orders created between dateFrom and dateTo
// (YYYY-MM-DD, both inclusive). Empty dates default to the last 30 days.
func (s *reportServiceImpl) OrdersReport(ctx context.Context, dateFrom, dateTo string) (*models.OrdersReport, *ServiceError) {
	today := startOfDay(s.now(), s.loc)

	to := today
	if dateTo != "" {
		parsed, err := time.ParseInLocation(dateLayout, dateTo, s.loc)
		if err != nil {
			return nil, &ServiceError{StatusCode: 400, Message: "Invalid date_to, expected YYYY-MM-DD"}
		}
		to = parsed
	}
	from := today.AddDate(0, 0, -defaultReportDays)
	if dateFrom != "" {
		parsed, err := time.ParseInLocation(dateLayout, dateFrom, s.loc)
		if err != nil {
			return nil, &ServiceError{StatusCode: 400, Message: "Invalid date_from, expected YYYY-MM-DD"}
		}
		from = parsed
	}
	if from.After(to) {
		return nil, &ServiceError{StatusCode: 400, Message: "date_from must not be after date_to"}
	}

	cacheKey := fmt.Sprintf("orders:%s:%s:%s", from.Format(dateLayout), to.Format(dateLayout), s.loc.String())
	var cached models.OrdersReport
	if s.cacheGet(ctx, cacheKey, &cached) {
		return &cached, nil
	}

	rangeStart, rangeEnd := from, to.AddDate(0, 0, 1)

	counts, err := s.reports.CountByStatus(ctx, &rangeStart, &rangeEnd)
	if err != nil {
		logger.WithRequestID(ctx, s.logger).Error("Failed to count orders by status", zap.Error(err))
		return nil, &ServiceError{StatusCode: 500, Message: "Failed to build report"}
	}
	totals, err := s.reports.OrderTotals(ctx, &rangeStart, &rangeEnd)
	if err != nil {
		logger.WithRequestID(ctx, s.logger).Error("Failed to load order totals", zap.Error(err))
		return nil, &ServiceError{StatusCode: 500, Message: "Failed to build report"}
	}

	revenue := sumRevenue(totals)
	average := decimal.Zero
	if len(totals) > 0 {
		average = revenue.Div(decimal.NewFromInt(int64(len(totals))))
	}

	dailyFrom := to.AddDate(0, 0, -(dailySalesDays - 1))
	if dailyFrom.Before(from) {
		dailyFrom = from
	}

	report := &models.OrdersReport{
		DateFrom:          from.Format(dateLayout),
		DateTo:            to.Format(dateLayout),
		TotalOrders:       len(totals),
		TotalRevenue:      models.NewMoney(revenue),
		AverageOrderValue: models.NewMoney(average),
		StatusCounts:      counts,
		DailySales:        RevenueByDay(totals, s.loc, dailyFrom, to),
		TopCustomers:      TopCustomers(totals, topCustomersLimit),
	}

	s.cacheSet(cacheKey, report)
	return report, nil
}

// Dashboard returns today's figures, lifetime counts and the latest orders.
func (s *reportServiceImpl) Dashboard(ctx context.Context) (*models.Dashboard, *ServiceError) {
	today := startOfDay(s.now(), s.loc)
	tomorrow := today.AddDate(0, 0, 1)

	cacheKey := fmt.Sprintf("dashboard:%s:%s", today.Format(dateLayout), s.loc.String())
	var cached models.Dashboard
	if s.cacheGet(ctx, cacheKey, &cached) {
		return &cached, nil
	}

	fail := func(what string, err error) *ServiceError {
		logger.WithRequestID(ctx, s.logger).Error("Failed to load dashboard "+what, zap.Error(err))
		return &ServiceError{StatusCode: 500, Message: "Failed to build dashboard"}
	}

	todayTotals, err := s.reports.OrderTotals(ctx, &today, &tomorrow)
	if err != nil {
		return nil, fail("today totals", err)
	}
	counts, err := s.reports.CountByStatus(ctx, nil, nil)
	if err != nil {
		return nil, fail("status counts", err)
	}
	customers, err := s.customers.Count(ctx)
	if err != nil {
		return nil, fail("customer count", err)
	}
	items, err := s.items.Count(ctx)
	if err != nil {
		return nil, fail("item count", err)
	}
	available, err := s.items.CountAvailable(ctx)
	if err != nil {
		return nil, fail("available item count", err)
	}
	recent, err := s.reports.RecentOrders(ctx, recentOrdersLimit)
	if err != nil {
		return nil, fail("recent orders", err)
	}

	var total int64
	for _, n := range counts {
		total += n
	}

	recentEntries := make([]models.OrderListEntry, 0, len(recent))
	for i := range recent {
		recentEntries = append(recentEntries, models.NewOrderListEntry(&recent[i]))
	}

	dashboard := &models.Dashboard{
		TodayOrders:    len(todayTotals),
		TodayRevenue:   models.NewMoney(sumRevenue(todayTotals)),
		TotalOrders:    total,
		PendingOrders:  counts[models.OrderStatusPending],
		TotalCustomers: customers,
		TotalItems:     items,
		AvailableItems: available,
		StatusCounts:   counts,
		RecentOrders:   recentEntries,
	}

	s.cacheSet(cacheKey, dashboard)
	return dashboard, nil
}

func (s *reportServiceImpl) cacheGet(ctx context.Context, key string, dest interface{}) bool {
	if s.cache == nil {
		return false
	}
	if s.cache.Get(ctx, key, dest) {
		recordCount(s.metrics, aws_pkg.MetricCacheHits, map[string]string{"Cache": "reports"})
		return true
	}
	recordCount(s.metrics, aws_pkg.MetricCacheMisses, map[string]string{"Cache": "reports"})
	return false
}

func (s *reportServiceImpl) cacheSet(key string, value interface{}) {
	if s.cache != nil {
		s.cache.Set(key, value)
	}
}

// RevenueByDay buckets totals by creation date in loc for every day from
// first to last inclusive, ascending. Days without orders have zero values.
func RevenueByDay(totals []models.OrderTotal, loc *time.Location, first, last time.Time) []models.DailySales {
	type bucket struct {
		count   int
		revenue decimal.Decimal
	}
	buckets := make(map[string]*bucket)
	for _, t := range totals {
		key := t.CreatedAt.In(loc).Format(dateLayout)
		b, ok := buckets[key]
		if !ok {
			b = &bucket{revenue: decimal.Zero}
			buckets[key] = b
		}
		b.count++
		b.revenue = b.revenue.Add(t.Total)
	}

	var days []models.DailySales
	for day := startOfDay(first, loc); !day.After(startOfDay(last, loc)); day = day.AddDate(0, 0, 1) {
		key := day.Format(dateLayout)
		entry := models.DailySales{Date: key, Revenue: models.NewMoney(decimal.Zero)}
		if b, ok := buckets[key]; ok {
			entry.OrderCount = b.count
			entry.Revenue = models.NewMoney(b.revenue)
		}
		days = append(days, entry)
	}
	return days
}

// TopCustomers ranks customers by total spent, descending. Ties are broken by
// customer id so the ranking is stable.
func TopCustomers(totals []models.OrderTotal, limit int) []models.CustomerSpend {
	type spend struct {
		id     uuid.UUID
		name   string
		count  int
		amount decimal.Decimal
	}
	byCustomer := make(map[uuid.UUID]*spend)
	for _, t := range totals {
		c, ok := byCustomer[t.CustomerID]
		if !ok {
			c = &spend{id: t.CustomerID, name: t.CustomerName, amount: decimal.Zero}
			byCustomer[t.CustomerID] = c
		}
		c.count++
		c.amount = c.amount.Add(t.Total)
	}

	ranked := make([]*spend, 0, len(byCustomer))
	for _, c := range byCustomer {
		ranked = append(ranked, c)
	}
	sort.Slice(ranked, func(i, j int) bool {
		if cmp := ranked[i].amount.Cmp(ranked[j].amount); cmp != 0 {
			return cmp > 0
		}
		return ranked[i].id.String() < ranked[j].id.String()
	})

	if limit > 0 && len(ranked) > limit {
		ranked = ranked[:limit]
	}

	result := make([]models.CustomerSpend, 0, len(ranked))
	for _, c := range ranked {
		result = append(result, models.CustomerSpend{
			CustomerID:   c.id,
			CustomerName: c.name,
			OrderCount:   c.count,
			TotalSpent:   models.NewMoney(c.amount),
		})
	}
	return result
}

func sumRevenue(totals []models.OrderTotal) decimal.Decimal {
	revenue := decimal.Zero
	for _, t := range totals {
		revenue = revenue.Add(t.Total)
	}
	return revenue
}

func startOfDay(t time.Time, loc *time.Location) time.Time {
	local := t.In(loc)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
}
