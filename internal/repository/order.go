package repository

import (
	"context"

	"shop-api/internal/domain"
)

// OrderRepository persists orders together with their items. Stock
// bookkeeping happens in the same transaction as the order write.
type OrderRepository interface {
	Create(ctx context.Context, order *domain.Order, lines []domain.LineRequest) (int64, error)
	Get(ctx context.Context, id int64) (*domain.Order, error)
	ListByCustomer(ctx context.Context, customerID int64) ([]domain.Order, error)
	OwnerOf(ctx context.Context, id int64) (int64, error)
	// UpdateStatus moves the order from one status to another. It fails with
	// domain.ErrConflict when the stored status is no longer from.
	UpdateStatus(ctx context.Context, id int64, from, to domain.OrderStatus) error
	Delete(ctx context.Context, id int64) error
}
