package repository

import (
	"context"

	"shop-api/internal/domain"
)

// ProductRepository exposes persistence operations for the catalog.
type ProductRepository interface {
	Create(ctx context.Context, product *domain.Product) (int64, error)
	// Update writes only the fields set in changes and returns the stored row.
	Update(ctx context.Context, id int64, changes domain.ProductChanges) (*domain.Product, error)
	SetImage(ctx context.Context, id int64, imageKey string) error
	Delete(ctx context.Context, id int64) error
	Get(ctx context.Context, id int64) (*domain.Product, error)
	List(ctx context.Context, filter domain.ProductFilter) ([]domain.Product, error)
}
