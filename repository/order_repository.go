package repository

import (
	"context"
	"strings"

	"restaurant-service/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// MutateFunc applies an in-memory change to a loaded order.
type MutateFunc func(order *models.Order) error

// OrderRepository defines the interface for order data access
type OrderRepository interface {
	Create(ctx context.Context, order *models.Order) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	FindAll(ctx context.Context, filter models.OrderFilter) ([]models.Order, int64, error)
	Mutate(ctx context.Context, id uuid.UUID, fn MutateFunc) (*models.Order, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// GormOrderRepository implements OrderRepository using GORM
type GormOrderRepository struct {
	db *gorm.DB
}

// NewGormOrderRepository creates a new instance of GormOrderRepository
func NewGormOrderRepository(db *gorm.DB) OrderRepository {
	return &GormOrderRepository{db: db}
}

func itemsByPosition(db *gorm.DB) *gorm.DB {
	return db.Order("position ASC")
}

// Create inserts the order header and any initial items in one transaction.
func (r *GormOrderRepository) Create(ctx context.Context, order *models.Order) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(order).Error; err != nil {
			return err
		}
		if len(order.Items) == 0 {
			return nil
		}
		for i := range order.Items {
			order.Items[i].OrderID = order.ID
		}
		return tx.Create(&order.Items).Error
	})
}

// FindByID loads the order with its items in insertion order and its customer.
func (r *GormOrderRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var order models.Order

	if err := r.db.WithContext(ctx).
		Preload("Items", itemsByPosition).
		Preload("Customer").
		Where("id = ?", id).
		First(&order).Error; err != nil {
		return nil, err
	}

	return &order, nil
}

// FindAll retrieves orders matching the filter, newest first, with pagination
func (r *GormOrderRepository) FindAll(ctx context.Context, filter models.OrderFilter) ([]models.Order, int64, error) {
	var orders []models.Order
	var total int64

	query := r.db.WithContext(ctx).Model(&models.Order{})

	if filter.Status != "" {
		query = query.Where("orders.status = ?", filter.Status)
	}
	if q := strings.TrimSpace(filter.CustomerQuery); q != "" {
		like := "%" + escapeLike(strings.ToLower(q)) + "%"
		query = query.
			Joins("JOIN customers ON customers.id = orders.customer_id").
			Where(`(LOWER(customers.name) LIKE ? ESCAPE '\' OR LOWER(customers.phone) LIKE ? ESCAPE '\')`, like, like)
	}
	if filter.DateFrom != nil {
		query = query.Where("orders.created_at >= ?", *filter.DateFrom)
	}
	if filter.DateTo != nil {
		query = query.Where("orders.created_at < ?", *filter.DateTo)
	}

	if err := query.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (filter.Page - 1) * filter.Limit
	if err := query.
		Select("orders.*").
		Preload("Items", itemsByPosition).
		Preload("Customer").
		Offset(offset).
		Limit(filter.Limit).
		Order("orders.created_at DESC").
		Find(&orders).Error; err != nil {
		return nil, 0, err
	}

	return orders, total, nil
}

// Mutate locks the order row, loads the aggregate, applies fn and writes back
// the difference. Concurrent mutations of one order are serialized by the
// row lock. An error from fn rolls the transaction back and is returned as is.
func (r *GormOrderRepository) Mutate(ctx context.Context, id uuid.UUID, fn MutateFunc) (*models.Order, error) {
	var result *models.Order

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var order models.Order
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ?", id).
			First(&order).Error; err != nil {
			return err
		}
		if err := tx.Where("order_id = ?", id).Order("position ASC").Find(&order.Items).Error; err != nil {
			return err
		}

		before := make(map[uuid.UUID]int, len(order.Items))
		for _, item := range order.Items {
			before[item.ID] = item.Quantity
		}

		if err := fn(&order); err != nil {
			return err
		}

		if err := reconcileItems(tx, &order, before); err != nil {
			return err
		}

		if err := tx.Model(&models.Order{}).
			Where("id = ?", id).
			Updates(map[string]interface{}{
				"status":     order.Status,
				"notes":      order.Notes,
				"updated_at": order.UpdatedAt,
			}).Error; err != nil {
			return err
		}

		var customers []models.Customer
		if err := tx.Where("id = ?", order.CustomerID).Limit(1).Find(&customers).Error; err != nil {
			return err
		}
		if len(customers) == 1 {
			order.Customer = &customers[0]
		}

		result = &order
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// reconcileItems deletes dropped lines, inserts new ones and updates changed
// quantities. unit_price of an existing line is never written.
func reconcileItems(tx *gorm.DB, order *models.Order, before map[uuid.UUID]int) error {
	kept := make(map[uuid.UUID]bool, len(order.Items))
	for _, item := range order.Items {
		kept[item.ID] = true
	}

	var dropped []uuid.UUID
	for id := range before {
		if !kept[id] {
			dropped = append(dropped, id)
		}
	}
	if len(dropped) > 0 {
		if err := tx.Where("id IN ?", dropped).Delete(&models.OrderItem{}).Error; err != nil {
			return err
		}
	}

	for i := range order.Items {
		item := &order.Items[i]
		qty, existed := before[item.ID]
		switch {
		case !existed:
			item.OrderID = order.ID
			if err := tx.Create(item).Error; err != nil {
				return err
			}
		case qty != item.Quantity:
			if err := tx.Model(&models.OrderItem{}).
				Where("id = ?", item.ID).
				Update("quantity", item.Quantity).Error; err != nil {
				return err
			}
		}
	}
	return nil
}

// Delete removes the order and every item it owns.
func (r *GormOrderRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("order_id = ?", id).Delete(&models.OrderItem{}).Error; err != nil {
			return err
		}
		res := tx.Where("id = ?", id).Delete(&models.Order{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`)

// escapeLike makes LIKE wildcards in user input match literally.
func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
