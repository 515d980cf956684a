package service

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/hojimahmudov/orderbot/internal/model"
	"github.com/hojimahmudov/orderbot/internal/notify"
	"github.com/hojimahmudov/orderbot/internal/repository"
)

type OrderService interface {
	Get(ctx context.Context, userID, orderID int64) (*model.Order, error)
	History(ctx context.Context, userID int64, offset, limit int) ([]*model.Order, int64, error)
	// Cancel is the user-initiated cancellation; rejected on terminal
	// orders.
	Cancel(ctx context.Context, userID, orderID int64) (*model.Order, error)
	// SetStatus is the staff-driven transition. A real transition fires
	// exactly one notification after the write commits; a no-op write
	// fires none.
	SetStatus(ctx context.Context, orderID int64, status string) (*model.Order, error)
}

// Forward transitions of the order lifecycle. cancelled is reachable from
// any non-terminal status.
var allowedTransitions = map[string]string{
	model.StatusNew:       model.StatusPreparing,
	model.StatusPreparing: model.StatusOnTheWay,
	model.StatusOnTheWay:  model.StatusDelivered,
}

type orderServiceImpl struct {
	db        *gorm.DB
	orderRepo repository.OrderRepository
	userRepo  repository.UserRepository
	notifier  *notify.Notifier
}

func NewOrderService(
	db *gorm.DB,
	orderRepo repository.OrderRepository,
	userRepo repository.UserRepository,
	notifier *notify.Notifier,
) OrderService {
	return &orderServiceImpl{
		db:        db,
		orderRepo: orderRepo,
		userRepo:  userRepo,
		notifier:  notifier,
	}
}

func (s *orderServiceImpl) Get(ctx context.Context, userID, orderID int64) (*model.Order, error) {
	order, err := s.orderRepo.FindByIDForUser(ctx, orderID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find order: %w", err)
	}
	return order, nil
}

func (s *orderServiceImpl) History(ctx context.Context, userID int64, offset, limit int) ([]*model.Order, int64, error) {
	return s.orderRepo.ListByUser(ctx, userID, offset, limit)
}

func (s *orderServiceImpl) Cancel(ctx context.Context, userID, orderID int64) (*model.Order, error) {
	order, err := s.Get(ctx, userID, orderID)
	if err != nil {
		return nil, err
	}
	if order.Terminal() {
		return nil, validationErrorf("order %d can no longer be cancelled", orderID)
	}
	return s.transition(ctx, orderID, model.StatusCancelled)
}

func (s *orderServiceImpl) SetStatus(ctx context.Context, orderID int64, status string) (*model.Order, error) {
	if _, ok := statusKnown(status); !ok {
		return nil, validationErrorf("unknown status %q", status)
	}
	return s.transition(ctx, orderID, status)
}

func statusKnown(status string) (string, bool) {
	switch status {
	case model.StatusNew, model.StatusPreparing, model.StatusOnTheWay,
		model.StatusDelivered, model.StatusCancelled:
		return status, true
	}
	return "", false
}

// transition persists the status change and, strictly after the commit,
// triggers the notifier when the value actually changed. This is the
// explicit post-commit hook replacing the original's save-signal dance.
func (s *orderServiceImpl) transition(ctx context.Context, orderID int64, status string) (*model.Order, error) {
	var previous string
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var order model.Order
		if err := tx.First(&order, orderID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return fmt.Errorf("load order: %w", err)
		}
		if order.Status == status {
			previous = order.Status
			return nil
		}
		if status != model.StatusCancelled {
			if next := allowedTransitions[order.Status]; next != status {
				return validationErrorf("cannot move order from %s to %s", order.Status, status)
			}
		} else if order.Terminal() {
			return validationErrorf("order %d can no longer be cancelled", orderID)
		}

		var err error
		previous, err = s.orderRepo.UpdateStatus(ctx, tx, orderID, status)
		return err
	})
	if err != nil {
		return nil, err
	}

	order, err := s.orderRepo.FindByID(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("reload order: %w", err)
	}

	if previous != status && s.notifier != nil && order.UserID != nil {
		if user, uerr := s.userRepo.FindByID(ctx, *order.UserID); uerr == nil {
			s.notifier.OrderStatusChanged(ctx, user.ChatID, user.Locale, order.ID, order.Status)
		}
	}
	return order, nil
}
