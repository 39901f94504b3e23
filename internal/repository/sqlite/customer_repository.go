package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"shop-api/internal/domain"
	"shop-api/internal/repository"
)

type CustomerRepository struct {
	db *sql.DB
}

func NewCustomerRepository(db *sql.DB) repository.CustomerRepository {
	return &CustomerRepository{db: db}
}

func (r *CustomerRepository) Create(ctx context.Context, customer *domain.Customer) (int64, error) {
	now := time.Now().UTC()
	customer.CreatedAt = now
	customer.UpdatedAt = now

	res, err := r.db.ExecContext(ctx, `
INSERT INTO customers (name, email, password_hash, created_at, updated_at)
VALUES (?, ?, ?, ?, ?)`,
		customer.Name,
		customer.Email,
		customer.PasswordHash,
		customer.CreatedAt,
		customer.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return 0, fmt.Errorf("customer: %w", domain.ErrConflict)
		}
		return 0, fmt.Errorf("insert customer: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("customer last insert id: %w", err)
	}
	customer.ID = id
	return id, nil
}

func (r *CustomerRepository) GetByEmail(ctx context.Context, email string) (*domain.Customer, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT id, name, email, password_hash, created_at, updated_at
FROM customers
WHERE email = ?`,
		email,
	)
	return scanCustomer(row)
}

func (r *CustomerRepository) GetByID(ctx context.Context, id int64) (*domain.Customer, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT id, name, email, password_hash, created_at, updated_at
FROM customers
WHERE id = ?`,
		id,
	)
	return scanCustomer(row)
}

func (r *CustomerRepository) Update(ctx context.Context, customer *domain.Customer) error {
	customer.UpdatedAt = time.Now().UTC()
	res, err := r.db.ExecContext(ctx, `
UPDATE customers
SET name=?, email=?, password_hash=?, updated_at=?
WHERE id=?`,
		customer.Name,
		customer.Email,
		customer.PasswordHash,
		customer.UpdatedAt,
		customer.ID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("customer: %w", domain.ErrConflict)
		}
		return fmt.Errorf("update customer: %w", err)
	}
	return requireAffected(res, "customer")
}

// Delete removes the customer. Orders cascade away with it, so stock held by
// pending orders is released in the same transaction.
func (r *CustomerRepository) Delete(ctx context.Context, id int64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	pending, err := pendingOrderIDs(ctx, tx, id)
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	for _, orderID := range pending {
		if err := restockItems(ctx, tx, orderID, now); err != nil {
			return err
		}
	}

	res, err := tx.ExecContext(ctx, `DELETE FROM customers WHERE id=?`, id)
	if err != nil {
		return fmt.Errorf("delete customer: %w", err)
	}
	if err := requireAffected(res, "customer"); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit customer delete: %w", err)
	}
	return nil
}

func pendingOrderIDs(ctx context.Context, q querier, customerID int64) ([]int64, error) {
	rows, err := q.QueryContext(ctx, `SELECT id FROM orders WHERE customer_id=? AND status=?`, customerID, string(domain.OrderStatusPending))
	if err != nil {
		return nil, fmt.Errorf("query pending orders: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan pending order: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func scanCustomer(row scanner) (*domain.Customer, error) {
	var customer domain.Customer
	if err := row.Scan(
		&customer.ID,
		&customer.Name,
		&customer.Email,
		&customer.PasswordHash,
		&customer.CreatedAt,
		&customer.UpdatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("customer: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("scan customer: %w", err)
	}
	return &customer, nil
}

func requireAffected(res sql.Result, entity string) error {
	aff, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s rows affected: %w", entity, err)
	}
	if aff == 0 {
		return fmt.Errorf("%s: %w", entity, domain.ErrNotFound)
	}
	return nil
}
