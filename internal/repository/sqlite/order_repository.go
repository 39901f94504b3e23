package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"time"

	"shop-api/internal/domain"
	"shop-api/internal/repository"
)

type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type OrderRepository struct {
	db *sql.DB
}

func NewOrderRepository(db *sql.DB) repository.OrderRepository {
	return &OrderRepository{db: db}
}

// Create reserves stock for every line, snapshots unit prices and stores the
// order with its items atomically.
func (r *OrderRepository) Create(ctx context.Context, order *domain.Order, lines []domain.LineRequest) (int64, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	items := make([]domain.OrderItem, 0, len(lines))
	var total int64
	for _, line := range lines {
		var (
			price int64
			stock int
		)
		err := tx.QueryRowContext(ctx, `SELECT price, stock FROM products WHERE id=?`, line.ProductID).Scan(&price, &stock)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return 0, fmt.Errorf("product %d: %w", line.ProductID, domain.ErrNotFound)
			}
			return 0, fmt.Errorf("load product %d: %w", line.ProductID, err)
		}
		if price > 0 && int64(line.Quantity) > (math.MaxInt64-total)/price {
			return 0, domain.NewValidationError("order total is too large")
		}
		if stock < line.Quantity {
			return 0, fmt.Errorf("product %d: %w", line.ProductID, domain.ErrInsufficientStock)
		}
		if _, err := tx.ExecContext(ctx, `UPDATE products SET stock = stock - ?, updated_at=? WHERE id=?`, line.Quantity, now, line.ProductID); err != nil {
			return 0, fmt.Errorf("reserve stock for product %d: %w", line.ProductID, err)
		}

		items = append(items, domain.OrderItem{
			ProductID: line.ProductID,
			Quantity:  line.Quantity,
			UnitPrice: price,
		})
		total += price * int64(line.Quantity)
	}

	order.Total = total
	order.CreatedAt = now
	order.UpdatedAt = now

	res, err := tx.ExecContext(ctx, `
INSERT INTO orders (customer_id, reference, status, total, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?)`,
		order.CustomerID,
		order.Reference,
		string(order.Status),
		order.Total,
		order.CreatedAt,
		order.UpdatedAt,
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return 0, fmt.Errorf("customer %d: %w", order.CustomerID, domain.ErrNotFound)
		}
		return 0, fmt.Errorf("insert order: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("order last insert id: %w", err)
	}

	for i := range items {
		items[i].OrderID = id
		res, err := tx.ExecContext(ctx, `
INSERT INTO order_items (order_id, product_id, quantity, unit_price)
VALUES (?, ?, ?, ?)`,
			id,
			items[i].ProductID,
			items[i].Quantity,
			items[i].UnitPrice,
		)
		if err != nil {
			return 0, fmt.Errorf("insert order item: %w", err)
		}
		if items[i].ID, err = res.LastInsertId(); err != nil {
			return 0, fmt.Errorf("order item last insert id: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit order: %w", err)
	}

	order.ID = id
	order.Items = items
	return id, nil
}

func (r *OrderRepository) Get(ctx context.Context, id int64) (*domain.Order, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT id, customer_id, reference, status, total, created_at, updated_at
FROM orders
WHERE id=?`,
		id,
	)
	order, err := scanOrder(row)
	if err != nil {
		return nil, err
	}

	items, err := listItems(ctx, r.db, order.ID)
	if err != nil {
		return nil, err
	}
	order.Items = items
	return order, nil
}

func (r *OrderRepository) ListByCustomer(ctx context.Context, customerID int64) ([]domain.Order, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT id, customer_id, reference, status, total, created_at, updated_at
FROM orders
WHERE customer_id=?
ORDER BY id DESC`,
		customerID,
	)
	if err != nil {
		return nil, fmt.Errorf("query orders: %w", err)
	}

	orders := []domain.Order{}
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		orders = append(orders, *order)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("iterate orders: %w", err)
	}
	rows.Close()

	for i := range orders {
		items, err := listItems(ctx, r.db, orders[i].ID)
		if err != nil {
			return nil, err
		}
		orders[i].Items = items
	}
	return orders, nil
}

func (r *OrderRepository) OwnerOf(ctx context.Context, id int64) (int64, error) {
	var owner int64
	err := r.db.QueryRowContext(ctx, `SELECT customer_id FROM orders WHERE id=?`, id).Scan(&owner)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, fmt.Errorf("order: %w", domain.ErrNotFound)
		}
		return 0, fmt.Errorf("order owner: %w", err)
	}
	return owner, nil
}

// UpdateStatus moves the order from one status to another in a single
// guarded write. Cancelling returns the reserved quantities to the products
// in the same transaction.
func (r *OrderRepository) UpdateStatus(ctx context.Context, id int64, from, to domain.OrderStatus) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	res, err := tx.ExecContext(ctx, `UPDATE orders SET status=?, updated_at=? WHERE id=? AND status=?`, string(to), now, id, string(from))
	if err != nil {
		return fmt.Errorf("update order status: %w", err)
	}
	aff, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("order rows affected: %w", err)
	}
	if aff == 0 {
		var exists int
		if err := tx.QueryRowContext(ctx, `SELECT 1 FROM orders WHERE id=?`, id).Scan(&exists); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return fmt.Errorf("order: %w", domain.ErrNotFound)
			}
			return fmt.Errorf("load order: %w", err)
		}
		return fmt.Errorf("order %d is no longer %s: %w", id, from, domain.ErrConflict)
	}

	if to == domain.OrderStatusCancelled && from == domain.OrderStatusPending {
		if err := restockItems(ctx, tx, id, now); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit order status: %w", err)
	}
	return nil
}

// Delete removes the order and its items. Stock held by a pending order is
// released first.
func (r *OrderRepository) Delete(ctx context.Context, id int64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var status string
	if err := tx.QueryRowContext(ctx, `SELECT status FROM orders WHERE id=?`, id).Scan(&status); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("order: %w", domain.ErrNotFound)
		}
		return fmt.Errorf("load order status: %w", err)
	}
	if domain.OrderStatus(status) == domain.OrderStatusPending {
		if err := restockItems(ctx, tx, id, time.Now().UTC()); err != nil {
			return err
		}
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM order_items WHERE order_id=?`, id); err != nil {
		return fmt.Errorf("delete order items: %w", err)
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM orders WHERE id=?`, id)
	if err != nil {
		return fmt.Errorf("delete order: %w", err)
	}
	if err := requireAffected(res, "order"); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit order delete: %w", err)
	}
	return nil
}

func restockItems(ctx context.Context, q querier, orderID int64, now time.Time) error {
	items, err := listItems(ctx, q, orderID)
	if err != nil {
		return err
	}
	for _, item := range items {
		if _, err := q.ExecContext(ctx, `UPDATE products SET stock = stock + ?, updated_at=? WHERE id=?`, item.Quantity, now, item.ProductID); err != nil {
			return fmt.Errorf("restock product %d: %w", item.ProductID, err)
		}
	}
	return nil
}

func listItems(ctx context.Context, q querier, orderID int64) ([]domain.OrderItem, error) {
	rows, err := q.QueryContext(ctx, `
SELECT id, order_id, product_id, quantity, unit_price
FROM order_items
WHERE order_id=?
ORDER BY id ASC`,
		orderID,
	)
	if err != nil {
		return nil, fmt.Errorf("query order items: %w", err)
	}
	defer rows.Close()

	items := []domain.OrderItem{}
	for rows.Next() {
		var item domain.OrderItem
		if err := rows.Scan(&item.ID, &item.OrderID, &item.ProductID, &item.Quantity, &item.UnitPrice); err != nil {
			return nil, fmt.Errorf("scan order item: %w", err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func scanOrder(row scanner) (*domain.Order, error) {
	var (
		order  domain.Order
		status string
	)
	if err := row.Scan(
		&order.ID,
		&order.CustomerID,
		&order.Reference,
		&status,
		&order.Total,
		&order.CreatedAt,
		&order.UpdatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("order: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("scan order: %w", err)
	}
	order.Status = domain.OrderStatus(status)
	return &order, nil
}
