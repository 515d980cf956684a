package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/hojimahmudov/orderbot/internal/model"
)

type OrderRepository interface {
	Create(ctx context.Context, tx *gorm.DB, order *model.Order) error
	CreateOrderItems(ctx context.Context, tx *gorm.DB, items []*model.OrderItem) error
	FindByID(ctx context.Context, orderID int64) (*model.Order, error)
	FindByIDForUser(ctx context.Context, orderID, userID int64) (*model.Order, error)
	ListByUser(ctx context.Context, userID int64, offset, limit int) ([]*model.Order, int64, error)
	// UpdateStatus persists the new status inside tx and returns the
	// previous value so callers can detect real transitions.
	UpdateStatus(ctx context.Context, tx *gorm.DB, orderID int64, status string) (previous string, err error)
}

type orderRepoImpl struct {
	db *gorm.DB
}

func NewOrderRepository(db *gorm.DB) OrderRepository {
	return &orderRepoImpl{db: db}
}

func (r *orderRepoImpl) Create(ctx context.Context, tx *gorm.DB, order *model.Order) error {
	return tx.WithContext(ctx).Create(order).Error
}

func (r *orderRepoImpl) CreateOrderItems(ctx context.Context, tx *gorm.DB, items []*model.OrderItem) error {
	return tx.WithContext(ctx).Create(&items).Error
}

func (r *orderRepoImpl) FindByID(ctx context.Context, orderID int64) (*model.Order, error) {
	var order model.Order
	err := r.db.WithContext(ctx).
		Preload("Items").
		First(&order, orderID).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *orderRepoImpl) FindByIDForUser(ctx context.Context, orderID, userID int64) (*model.Order, error) {
	var order model.Order
	err := r.db.WithContext(ctx).
		Preload("Items").
		Where("id = ? AND user_id = ?", orderID, userID).
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *orderRepoImpl) ListByUser(ctx context.Context, userID int64, offset, limit int) ([]*model.Order, int64, error) {
	q := r.db.WithContext(ctx).Model(&model.Order{}).
		Where("user_id = ?", userID)

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var orders []*model.Order
	err := q.Order("created_at DESC").Offset(offset).Limit(limit).Find(&orders).Error
	if err != nil {
		return nil, 0, err
	}
	return orders, total, nil
}

func (r *orderRepoImpl) UpdateStatus(ctx context.Context, tx *gorm.DB, orderID int64, status string) (string, error) {
	var order model.Order
	if err := tx.WithContext(ctx).First(&order, orderID).Error; err != nil {
		return "", err
	}
	previous := order.Status
	if previous == status {
		return previous, nil
	}
	err := tx.WithContext(ctx).Model(&model.Order{}).
		Where("id = ?", orderID).
		Update("status", status).Error
	if err != nil {
		return "", err
	}
	return previous, nil
}
