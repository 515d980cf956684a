package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/hojimahmudov/orderbot/internal/model"
)

type BranchRepository interface {
	List(ctx context.Context) ([]*model.Branch, error)
	FindByID(ctx context.Context, branchID int64) (*model.Branch, error)
}

type branchRepoImpl struct {
	db *gorm.DB
}

func NewBranchRepository(db *gorm.DB) BranchRepository {
	return &branchRepoImpl{db: db}
}

func (r *branchRepoImpl) List(ctx context.Context) ([]*model.Branch, error) {
	var branches []*model.Branch
	err := r.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("id").
		Find(&branches).Error
	if err != nil {
		return nil, err
	}
	return branches, nil
}

func (r *branchRepoImpl) FindByID(ctx context.Context, branchID int64) (*model.Branch, error) {
	var branch model.Branch
	err := r.db.WithContext(ctx).First(&branch, branchID).Error
	if err != nil {
		return nil, err
	}
	return &branch, nil
}
