package repository

import (
	"context"

	"shop-api/internal/domain"
)

// CustomerRepository is the credential store. Email is unique.
type CustomerRepository interface {
	Create(ctx context.Context, customer *domain.Customer) (int64, error)
	GetByEmail(ctx context.Context, email string) (*domain.Customer, error)
	GetByID(ctx context.Context, id int64) (*domain.Customer, error)
	Update(ctx context.Context, customer *domain.Customer) error
	Delete(ctx context.Context, id int64) error
}
