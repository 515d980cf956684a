package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/hojimahmudov/orderbot/internal/model"
)

type CatalogRepository interface {
	ListCategories(ctx context.Context) ([]*model.Category, error)
	ListProducts(ctx context.Context, categoryID *int64, search string, offset, limit int) ([]*model.Product, int64, error)
	FindProduct(ctx context.Context, productID int64) (*model.Product, error)
}

type catalogRepoImpl struct {
	db *gorm.DB
}

func NewCatalogRepository(db *gorm.DB) CatalogRepository {
	return &catalogRepoImpl{db: db}
}

func (r *catalogRepoImpl) ListCategories(ctx context.Context) ([]*model.Category, error) {
	var categories []*model.Category
	err := r.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("ordering").
		Find(&categories).Error
	if err != nil {
		return nil, err
	}
	return categories, nil
}

func (r *catalogRepoImpl) ListProducts(ctx context.Context, categoryID *int64, search string, offset, limit int) ([]*model.Product, int64, error) {
	q := r.db.WithContext(ctx).Model(&model.Product{}).
		Where("is_available = ?", true)
	if categoryID != nil {
		q = q.Where("category_id = ?", *categoryID)
	}
	if search != "" {
		like := "%" + search + "%"
		q = q.Where(
			"name_uz LIKE ? OR name_ru LIKE ? OR description_uz LIKE ? OR description_ru LIKE ?",
			like, like, like, like,
		)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var products []*model.Product
	err := q.Order("id").Offset(offset).Limit(limit).Find(&products).Error
	if err != nil {
		return nil, 0, err
	}
	return products, total, nil
}

func (r *catalogRepoImpl) FindProduct(ctx context.Context, productID int64) (*model.Product, error) {
	var product model.Product
	err := r.db.WithContext(ctx).First(&product, productID).Error
	if err != nil {
		return nil, err
	}
	return &product, nil
}
