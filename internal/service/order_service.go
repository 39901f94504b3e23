package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"shop-api/internal/domain"
	"shop-api/internal/repository"
)

// OrderService manages orders. Callers resolve ownership before invoking
// the id-based operations.
type OrderService interface {
	Place(ctx context.Context, customerID int64, lines []domain.LineRequest) (*domain.Order, error)
	Get(ctx context.Context, id int64) (*domain.Order, error)
	List(ctx context.Context, customerID int64) ([]domain.Order, error)
	OwnerOf(ctx context.Context, id int64) (int64, error)
	UpdateStatus(ctx context.Context, id int64, status domain.OrderStatus) (*domain.Order, error)
	Delete(ctx context.Context, id int64) error
}

type orderService struct {
	orders repository.OrderRepository
}

func NewOrderService(orders repository.OrderRepository) OrderService {
	return &orderService{orders: orders}
}

func (s *orderService) Place(ctx context.Context, customerID int64, lines []domain.LineRequest) (*domain.Order, error) {
	if len(lines) == 0 {
		return nil, domain.NewValidationError("items should not be empty")
	}
	var problems []string
	for i, line := range lines {
		if line.ProductID <= 0 {
			problems = append(problems, fmt.Sprintf("items.%d.productId must be a positive number", i))
		}
		if line.Quantity <= 0 {
			problems = append(problems, fmt.Sprintf("items.%d.quantity must be a positive number", i))
		} else if line.Quantity > domain.MaxLineQuantity {
			problems = append(problems, fmt.Sprintf("items.%d.quantity must not be greater than %d", i, domain.MaxLineQuantity))
		}
	}
	if len(problems) > 0 {
		return nil, domain.NewValidationError(problems...)
	}

	order := &domain.Order{
		CustomerID: customerID,
		Reference:  uuid.NewString(),
		Status:     domain.OrderStatusPending,
	}
	if _, err := s.orders.Create(ctx, order, lines); err != nil {
		return nil, err
	}
	return order, nil
}

func (s *orderService) Get(ctx context.Context, id int64) (*domain.Order, error) {
	return s.orders.Get(ctx, id)
}

func (s *orderService) List(ctx context.Context, customerID int64) ([]domain.Order, error) {
	return s.orders.ListByCustomer(ctx, customerID)
}

func (s *orderService) OwnerOf(ctx context.Context, id int64) (int64, error) {
	return s.orders.OwnerOf(ctx, id)
}

// statusAttempts bounds how often UpdateStatus re-reads an order whose
// status changed between the read and the guarded write.
const statusAttempts = 3

func (s *orderService) UpdateStatus(ctx context.Context, id int64, status domain.OrderStatus) (*domain.Order, error) {
	if !status.Valid() {
		return nil, domain.NewValidationError("status must be one of: pending, paid, shipped, cancelled")
	}

	for attempt := 0; ; attempt++ {
		order, err := s.orders.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		if order.Status == status {
			return order, nil
		}
		if !order.Status.CanTransition(status) {
			return nil, domain.NewValidationError(fmt.Sprintf("status cannot change from %s to %s", order.Status, status))
		}

		err = s.orders.UpdateStatus(ctx, id, order.Status, status)
		if err == nil {
			return s.orders.Get(ctx, id)
		}
		if !errors.Is(err, domain.ErrConflict) || attempt+1 >= statusAttempts {
			return nil, err
		}
	}
}

func (s *orderService) Delete(ctx context.Context, id int64) error {
	return s.orders.Delete(ctx, id)
}
