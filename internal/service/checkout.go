package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/hojimahmudov/orderbot/internal/model"
	"github.com/hojimahmudov/orderbot/internal/repository"
)

// CheckoutInput carries the fields accumulated by the conversation flow.
type CheckoutInput struct {
	DeliveryType   string
	Address        string
	Latitude       *float64
	Longitude      *float64
	PaymentType    string
	PickupBranchID *int64
	Notes          string
}

type CheckoutService interface {
	// Checkout atomically converts the user's cart into an order:
	// validates the input, freezes line prices, computes fulfillment
	// estimates and drains the cart. All-or-nothing.
	Checkout(ctx context.Context, userID int64, input CheckoutInput) (*model.Order, error)
}

type checkoutServiceImpl struct {
	db         *gorm.DB
	cartRepo   repository.CartRepository
	orderRepo  repository.OrderRepository
	branchRepo repository.BranchRepository

	now func() time.Time
}

func NewCheckoutService(
	db *gorm.DB,
	cartRepo repository.CartRepository,
	orderRepo repository.OrderRepository,
	branchRepo repository.BranchRepository,
) CheckoutService {
	return &checkoutServiceImpl{
		db:         db,
		cartRepo:   cartRepo,
		orderRepo:  orderRepo,
		branchRepo: branchRepo,
		now:        time.Now,
	}
}

func (s *checkoutServiceImpl) Checkout(ctx context.Context, userID int64, input CheckoutInput) (*model.Order, error) {
	if input.PaymentType != model.PaymentTypeCash && input.PaymentType != model.PaymentTypeCard {
		return nil, validationErrorf("unknown payment type %q", input.PaymentType)
	}

	var branch *model.Branch
	switch input.DeliveryType {
	case model.DeliveryTypeDelivery:
		hasCoords := input.Latitude != nil && input.Longitude != nil
		if input.Address == "" && !hasCoords {
			return nil, validationErrorf("delivery requires an address or a complete coordinate pair")
		}
		if (input.Latitude == nil) != (input.Longitude == nil) {
			return nil, validationErrorf("delivery requires an address or a complete coordinate pair")
		}
		// No source branch is resolved for delivery orders; estimates
		// stay unset.
	case model.DeliveryTypePickup:
		if input.PickupBranchID == nil {
			return nil, validationErrorf("pickup requires a branch")
		}
		b, err := s.branchRepo.FindByID(ctx, *input.PickupBranchID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, validationErrorf("branch %d does not exist", *input.PickupBranchID)
			}
			return nil, fmt.Errorf("find branch: %w", err)
		}
		// Openness was checked at selection time but time may have passed.
		if !b.IsOpenAt(s.now()) {
			return nil, validationErrorf("branch %d is closed", b.ID)
		}
		branch = b
	default:
		return nil, validationErrorf("unknown delivery type %q", input.DeliveryType)
	}

	var order *model.Order
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Re-read the cart inside the transaction so a concurrent
		// checkout observes the drained state.
		var cart model.Cart
		if err := tx.Where("user_id = ?", userID).First(&cart).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return validationErrorf("cart is empty")
			}
			return fmt.Errorf("load cart: %w", err)
		}

		var lines []model.CartItem
		if err := tx.Preload("Product").Where("cart_id = ?", cart.ID).Order("id").Find(&lines).Error; err != nil {
			return fmt.Errorf("load cart items: %w", err)
		}
		if len(lines) == 0 {
			return validationErrorf("cart is empty")
		}

		var total int64
		items := make([]*model.OrderItem, len(lines))
		for i, line := range lines {
			if !line.Product.IsAvailable {
				return validationErrorf("product %d is no longer available", line.ProductID)
			}
			lineTotal := line.Product.Price * int64(line.Quantity)
			total += lineTotal
			productID := line.ProductID
			items[i] = &model.OrderItem{
				ProductID:    &productID,
				Quantity:     line.Quantity,
				PricePerUnit: line.Product.Price,
				LineTotal:    lineTotal,
			}
		}

		order = &model.Order{
			UserID:         &userID,
			Status:         model.StatusNew,
			TotalPrice:     total,
			DeliveryType:   input.DeliveryType,
			Address:        input.Address,
			Latitude:       input.Latitude,
			Longitude:      input.Longitude,
			PaymentType:    input.PaymentType,
			PickupBranchID: input.PickupBranchID,
			Notes:          input.Notes,
		}
		if branch != nil {
			readyAt := s.now().Add(time.Duration(branch.AvgPreparationMinutes) * time.Minute)
			order.ReadyAt = &readyAt
			if input.DeliveryType == model.DeliveryTypeDelivery {
				deliveredAt := readyAt.Add(time.Duration(branch.AvgDeliveryExtraMinutes) * time.Minute)
				order.DeliveredAt = &deliveredAt
			}
		}

		if err := s.orderRepo.Create(ctx, tx, order); err != nil {
			return fmt.Errorf("store order: %w", err)
		}
		for _, item := range items {
			item.OrderID = order.ID
		}
		if err := s.orderRepo.CreateOrderItems(ctx, tx, items); err != nil {
			return fmt.Errorf("store order items: %w", err)
		}
		if err := s.cartRepo.Drain(ctx, tx, cart.ID); err != nil {
			return fmt.Errorf("drain cart: %w", err)
		}

		order.Items = make([]model.OrderItem, len(items))
		for i, item := range items {
			order.Items[i] = *item
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}
