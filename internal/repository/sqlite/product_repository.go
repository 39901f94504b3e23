package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"shop-api/internal/domain"
	"shop-api/internal/repository"
)

const productColumns = `id, name, description, price, stock, image_key, created_at, updated_at`

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

type ProductRepository struct {
	db *sql.DB
}

func NewProductRepository(db *sql.DB) repository.ProductRepository {
	return &ProductRepository{db: db}
}

func (r *ProductRepository) Create(ctx context.Context, product *domain.Product) (int64, error) {
	now := time.Now().UTC()
	product.CreatedAt = now
	product.UpdatedAt = now

	res, err := r.db.ExecContext(ctx, `
INSERT INTO products (name, description, price, stock, image_key, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?)`,
		product.Name,
		product.Description,
		product.Price,
		product.Stock,
		product.ImageKey,
		product.CreatedAt,
		product.UpdatedAt,
	)
	if err != nil {
		return 0, fmt.Errorf("insert product: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("product last insert id: %w", err)
	}
	product.ID = id
	return id, nil
}

func (r *ProductRepository) Update(ctx context.Context, id int64, changes domain.ProductChanges) (*domain.Product, error) {
	if changes.Empty() {
		return r.Get(ctx, id)
	}

	var (
		set  []string
		args []any
	)
	if changes.Name != nil {
		set = append(set, "name=?")
		args = append(args, *changes.Name)
	}
	if changes.Description != nil {
		set = append(set, "description=?")
		args = append(args, *changes.Description)
	}
	if changes.Price != nil {
		set = append(set, "price=?")
		args = append(args, *changes.Price)
	}
	// stock is only written when asked for, so reservations made by
	// concurrent orders are never overwritten by a stale read
	if changes.Stock != nil {
		set = append(set, "stock=?")
		args = append(args, *changes.Stock)
	}
	set = append(set, "updated_at=?")
	args = append(args, time.Now().UTC(), id)

	res, err := r.db.ExecContext(ctx, "UPDATE products SET "+strings.Join(set, ", ")+" WHERE id=?", args...)
	if err != nil {
		return nil, fmt.Errorf("update product: %w", err)
	}
	if err := requireAffected(res, "product"); err != nil {
		return nil, err
	}
	return r.Get(ctx, id)
}

func (r *ProductRepository) SetImage(ctx context.Context, id int64, imageKey string) error {
	res, err := r.db.ExecContext(ctx, `
UPDATE products
SET image_key=?, updated_at=?
WHERE id=?`,
		imageKey,
		time.Now().UTC(),
		id,
	)
	if err != nil {
		return fmt.Errorf("set product image: %w", err)
	}
	return requireAffected(res, "product")
}

func (r *ProductRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM products WHERE id=?`, id)
	if err != nil {
		if isForeignKeyViolation(err) {
			return fmt.Errorf("product is referenced by orders: %w", domain.ErrConflict)
		}
		return fmt.Errorf("delete product: %w", err)
	}
	return requireAffected(res, "product")
}

func (r *ProductRepository) Get(ctx context.Context, id int64) (*domain.Product, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT `+productColumns+`
FROM products
WHERE id=?`,
		id,
	)
	product, err := scanProduct(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("product: %w", domain.ErrNotFound)
		}
		return nil, err
	}
	return product, nil
}

func (r *ProductRepository) List(ctx context.Context, filter domain.ProductFilter) ([]domain.Product, error) {
	var (
		where []string
		args  []any
	)
	if q := strings.TrimSpace(filter.Query); q != "" {
		where = append(where, `name LIKE ? ESCAPE '\'`)
		args = append(args, "%"+likeEscaper.Replace(q)+"%")
	}

	query := `
SELECT ` + productColumns + `
FROM products`
	if len(where) > 0 {
		query += "\nWHERE " + strings.Join(where, " AND ")
	}
	query += "\nORDER BY id ASC\nLIMIT ? OFFSET ?"
	args = append(args, filter.Limit, filter.Offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query products: %w", err)
	}
	defer rows.Close()

	products := []domain.Product{}
	for rows.Next() {
		product, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, *product)
	}

	return products, rows.Err()
}

func scanProduct(row scanner) (*domain.Product, error) {
	var product domain.Product
	if err := row.Scan(
		&product.ID,
		&product.Name,
		&product.Description,
		&product.Price,
		&product.Stock,
		&product.ImageKey,
		&product.CreatedAt,
		&product.UpdatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan product: %w", err)
	}
	return &product, nil
}
