package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/hojimahmudov/orderbot/internal/model"
)

type CartRepository interface {
	// GetByUser returns the user's cart with items and products preloaded,
	// creating an empty cart when none exists.
	GetByUser(ctx context.Context, userID int64) (*model.Cart, error)
	// AddItem merges quantity into an existing line or creates a new one.
	AddItem(ctx context.Context, cartID, productID int64, quantity int) error
	FindItem(ctx context.Context, itemID int64) (*model.CartItem, error)
	SetItemQuantity(ctx context.Context, itemID int64, quantity int) error
	DeleteItem(ctx context.Context, itemID int64) error
	// Drain removes all line items inside the given transaction. The cart
	// row itself stays.
	Drain(ctx context.Context, tx *gorm.DB, cartID int64) error
}

type cartRepoImpl struct {
	db *gorm.DB
}

func NewCartRepository(db *gorm.DB) CartRepository {
	return &cartRepoImpl{db: db}
}

func (r *cartRepoImpl) GetByUser(ctx context.Context, userID int64) (*model.Cart, error) {
	var cart model.Cart
	err := r.db.WithContext(ctx).
		Where(model.Cart{UserID: userID}).
		FirstOrCreate(&cart).Error
	if err != nil {
		return nil, err
	}

	err = r.db.WithContext(ctx).
		Preload("Product").
		Where("cart_id = ?", cart.ID).
		Order("id").
		Find(&cart.Items).Error
	if err != nil {
		return nil, err
	}
	return &cart, nil
}

func (r *cartRepoImpl) AddItem(ctx context.Context, cartID, productID int64, quantity int) error {
	item := model.CartItem{
		CartID:    cartID,
		ProductID: productID,
		Quantity:  quantity,
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "cart_id"}, {Name: "product_id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"quantity": gorm.Expr("cart_items.quantity + ?", quantity),
		}),
	}).Create(&item).Error
}

func (r *cartRepoImpl) FindItem(ctx context.Context, itemID int64) (*model.CartItem, error) {
	var item model.CartItem
	err := r.db.WithContext(ctx).
		Preload("Product").
		First(&item, itemID).Error
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *cartRepoImpl) SetItemQuantity(ctx context.Context, itemID int64, quantity int) error {
	return r.db.WithContext(ctx).Model(&model.CartItem{}).
		Where("id = ?", itemID).
		Update("quantity", quantity).Error
}

func (r *cartRepoImpl) DeleteItem(ctx context.Context, itemID int64) error {
	return r.db.WithContext(ctx).Delete(&model.CartItem{}, itemID).Error
}

func (r *cartRepoImpl) Drain(ctx context.Context, tx *gorm.DB, cartID int64) error {
	return tx.WithContext(ctx).
		Where("cart_id = ?", cartID).
		Delete(&model.CartItem{}).Error
}
