package service

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/hojimahmudov/orderbot/internal/model"
	"github.com/hojimahmudov/orderbot/internal/repository"
)

type CartService interface {
	Get(ctx context.Context, userID int64) (*model.Cart, error)
	AddItem(ctx context.Context, userID, productID int64, quantity int) (*model.Cart, error)
	SetItemQuantity(ctx context.Context, userID, itemID int64, quantity int) (*model.Cart, error)
	RemoveItem(ctx context.Context, userID, itemID int64) (*model.Cart, error)
}

type cartServiceImpl struct {
	cartRepo    repository.CartRepository
	catalogRepo repository.CatalogRepository
}

func NewCartService(cartRepo repository.CartRepository, catalogRepo repository.CatalogRepository) CartService {
	return &cartServiceImpl{
		cartRepo:    cartRepo,
		catalogRepo: catalogRepo,
	}
}

// CartTotal sums extended line prices over the cart's items.
func CartTotal(cart *model.Cart) int64 {
	var total int64
	for _, item := range cart.Items {
		total += item.Product.Price * int64(item.Quantity)
	}
	return total
}

func (s *cartServiceImpl) Get(ctx context.Context, userID int64) (*model.Cart, error) {
	return s.cartRepo.GetByUser(ctx, userID)
}

func (s *cartServiceImpl) AddItem(ctx context.Context, userID, productID int64, quantity int) (*model.Cart, error) {
	if quantity <= 0 {
		return nil, validationErrorf("quantity must be positive")
	}

	product, err := s.catalogRepo.FindProduct(ctx, productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find product: %w", err)
	}
	if !product.IsAvailable {
		return nil, validationErrorf("product %d is not available", productID)
	}

	cart, err := s.cartRepo.GetByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get cart: %w", err)
	}

	if err := s.cartRepo.AddItem(ctx, cart.ID, productID, quantity); err != nil {
		return nil, fmt.Errorf("add cart item: %w", err)
	}

	return s.cartRepo.GetByUser(ctx, userID)
}

func (s *cartServiceImpl) SetItemQuantity(ctx context.Context, userID, itemID int64, quantity int) (*model.Cart, error) {
	if quantity <= 0 {
		return nil, validationErrorf("quantity must be positive")
	}

	if err := s.ownItem(ctx, userID, itemID); err != nil {
		return nil, err
	}
	if err := s.cartRepo.SetItemQuantity(ctx, itemID, quantity); err != nil {
		return nil, fmt.Errorf("set item quantity: %w", err)
	}
	return s.cartRepo.GetByUser(ctx, userID)
}

func (s *cartServiceImpl) RemoveItem(ctx context.Context, userID, itemID int64) (*model.Cart, error) {
	if err := s.ownItem(ctx, userID, itemID); err != nil {
		return nil, err
	}
	if err := s.cartRepo.DeleteItem(ctx, itemID); err != nil {
		return nil, fmt.Errorf("delete cart item: %w", err)
	}
	return s.cartRepo.GetByUser(ctx, userID)
}

// ownItem verifies the item belongs to the acting user's cart.
func (s *cartServiceImpl) ownItem(ctx context.Context, userID, itemID int64) error {
	item, err := s.cartRepo.FindItem(ctx, itemID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("find cart item: %w", err)
	}
	cart, err := s.cartRepo.GetByUser(ctx, userID)
	if err != nil {
		return fmt.Errorf("get cart: %w", err)
	}
	if item.CartID != cart.ID {
		return ErrNotFound
	}
	return nil
}
