package repository

import (
	"context"
	"time"

	"restaurant-service/models"

	"gorm.io/gorm"
)

// ReportRepository runs the read-only queries behind reports and the dashboard.
type ReportRepository interface {
	CountByStatus(ctx context.Context, from, to *time.Time) (models.StatusCounts, error)
	OrderTotals(ctx context.Context, from, to *time.Time) ([]models.OrderTotal, error)
	RecentOrders(ctx context.Context, limit int) ([]models.Order, error)
}

type GormReportRepository struct {
	db *gorm.DB
}

func NewGormReportRepository(db *gorm.DB) ReportRepository {
	return &GormReportRepository{db: db}
}

func withCreatedRange(db *gorm.DB, from, to *time.Time) *gorm.DB {
	if from != nil {
		db = db.Where("created_at >= ?", *from)
	}
	if to != nil {
		db = db.Where("created_at < ?", *to)
	}
	return db
}

type statusCountRow struct {
	Status models.OrderStatus
	Count  int64
}

// CountByStatus returns a count for every status, zero when no order has it.
func (r *GormReportRepository) CountByStatus(ctx context.Context, from, to *time.Time) (models.StatusCounts, error) {
	var rows []statusCountRow

	query := r.db.WithContext(ctx).Model(&models.Order{}).Select("status, COUNT(*) AS count")
	if err := withCreatedRange(query, from, to).Group("status").Scan(&rows).Error; err != nil {
		return nil, err
	}

	counts := make(models.StatusCounts, len(models.AllOrderStatuses))
	for _, s := range models.AllOrderStatuses {
		counts[s] = 0
	}
	for _, row := range rows {
		counts[row.Status] = row.Count
	}
	return counts, nil
}

// OrderTotals folds every order created in the range into its total, oldest first.
func (r *GormReportRepository) OrderTotals(ctx context.Context, from, to *time.Time) ([]models.OrderTotal, error) {
	var orders []models.Order

	query := r.db.WithContext(ctx).Model(&models.Order{})
	if err := withCreatedRange(query, from, to).
		Preload("Items").
		Preload("Customer").
		Order("created_at ASC").
		Find(&orders).Error; err != nil {
		return nil, err
	}

	totals := make([]models.OrderTotal, 0, len(orders))
	for i := range orders {
		totals = append(totals, models.NewOrderTotal(&orders[i]))
	}
	return totals, nil
}

// RecentOrders returns the newest orders with items and customer loaded.
func (r *GormReportRepository) RecentOrders(ctx context.Context, limit int) ([]models.Order, error) {
	var orders []models.Order
	err := r.db.WithContext(ctx).
		Preload("Items", itemsByPosition).
		Preload("Customer").
		Order("created_at DESC").
		Limit(limit).
		Find(&orders).Error
	return orders, err
}
