package sqlite

import (
	"context"
	"database/sql"
	"math"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shop-api/internal/domain"
	"shop-api/internal/repository"
)

type orderFixture struct {
	db        *sql.DB
	orders    repository.OrderRepository
	products  repository.ProductRepository
	customers repository.CustomerRepository
	ann       *domain.Customer
	mug       *domain.Product
	teapot    *domain.Product
}

func newOrderFixture(t *testing.T) *orderFixture {
	t.Helper()
	db := newTestDB(t)
	f := &orderFixture{
		db:        db,
		orders:    NewOrderRepository(db),
		products:  NewProductRepository(db),
		customers: NewCustomerRepository(db),
		ann:       &domain.Customer{Name: "Ann", Email: "ann@example.com", PasswordHash: "h"},
		mug:       &domain.Product{Name: "Mug", Price: 1200, Stock: 5},
		teapot:    &domain.Product{Name: "Teapot", Price: 3000, Stock: 1},
	}
	_, err := f.customers.Create(context.Background(), f.ann)
	require.NoError(t, err)
	seedProducts(t, f.products, f.mug, f.teapot)
	return f
}

func (f *orderFixture) place(t *testing.T, lines ...domain.LineRequest) *domain.Order {
	t.Helper()
	order := &domain.Order{CustomerID: f.ann.ID, Reference: uuid.NewString(), Status: domain.OrderStatusPending}
	_, err := f.orders.Create(context.Background(), order, lines)
	require.NoError(t, err)
	return order
}

func (f *orderFixture) stock(t *testing.T, id int64) int {
	t.Helper()
	p, err := f.products.Get(context.Background(), id)
	require.NoError(t, err)
	return p.Stock
}

func TestOrderRepository_Create(t *testing.T) {
	f := newOrderFixture(t)

	order := f.place(t,
		domain.LineRequest{ProductID: f.mug.ID, Quantity: 2},
		domain.LineRequest{ProductID: f.teapot.ID, Quantity: 1},
	)
	assert.NotZero(t, order.ID)
	assert.Equal(t, int64(2*1200+3000), order.Total)
	require.Len(t, order.Items, 2)
	assert.Equal(t, int64(1200), order.Items[0].UnitPrice)

	assert.Equal(t, 3, f.stock(t, f.mug.ID))
	assert.Equal(t, 0, f.stock(t, f.teapot.ID))

	got, err := f.orders.Get(context.Background(), order.ID)
	require.NoError(t, err)
	assert.Equal(t, f.ann.ID, got.CustomerID)
	assert.Equal(t, domain.OrderStatusPending, got.Status)
	assert.Equal(t, order.Reference, got.Reference)
	assert.Len(t, got.Items, 2)
}

func TestOrderRepository_CreateRollsBack(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()

	order := &domain.Order{CustomerID: f.ann.ID, Reference: uuid.NewString(), Status: domain.OrderStatusPending}
	_, err := f.orders.Create(ctx, order, []domain.LineRequest{
		{ProductID: f.mug.ID, Quantity: 1},
		{ProductID: f.teapot.ID, Quantity: 2},
	})
	require.ErrorIs(t, err, domain.ErrInsufficientStock)
	assert.Equal(t, 5, f.stock(t, f.mug.ID))

	_, err = f.orders.Create(ctx, &domain.Order{CustomerID: f.ann.ID, Reference: uuid.NewString(), Status: domain.OrderStatusPending},
		[]domain.LineRequest{{ProductID: 999, Quantity: 1}})
	require.ErrorIs(t, err, domain.ErrNotFound)

	orders, err := f.orders.ListByCustomer(ctx, f.ann.ID)
	require.NoError(t, err)
	assert.Empty(t, orders)
}

func TestOrderRepository_OwnerAndList(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()

	first := f.place(t, domain.LineRequest{ProductID: f.mug.ID, Quantity: 1})
	second := f.place(t, domain.LineRequest{ProductID: f.mug.ID, Quantity: 1})

	owner, err := f.orders.OwnerOf(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, f.ann.ID, owner)

	_, err = f.orders.OwnerOf(ctx, 12345)
	require.ErrorIs(t, err, domain.ErrNotFound)

	orders, err := f.orders.ListByCustomer(ctx, f.ann.ID)
	require.NoError(t, err)
	require.Len(t, orders, 2)
	assert.Equal(t, second.ID, orders[0].ID)
	assert.Len(t, orders[1].Items, 1)

	others, err := f.orders.ListByCustomer(ctx, f.ann.ID+1)
	require.NoError(t, err)
	assert.Empty(t, others)
}

func TestOrderRepository_UpdateStatus(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()
	order := f.place(t, domain.LineRequest{ProductID: f.mug.ID, Quantity: 2})

	require.NoError(t, f.orders.UpdateStatus(ctx, order.ID, domain.OrderStatusPending, domain.OrderStatusPaid))
	assert.Equal(t, 3, f.stock(t, f.mug.ID))

	cancelled := f.place(t, domain.LineRequest{ProductID: f.mug.ID, Quantity: 3})
	assert.Equal(t, 0, f.stock(t, f.mug.ID))
	require.NoError(t, f.orders.UpdateStatus(ctx, cancelled.ID, domain.OrderStatusPending, domain.OrderStatusCancelled))
	assert.Equal(t, 3, f.stock(t, f.mug.ID))

	got, err := f.orders.Get(ctx, cancelled.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusCancelled, got.Status)

	require.ErrorIs(t, f.orders.UpdateStatus(ctx, 999, domain.OrderStatusPending, domain.OrderStatusPaid), domain.ErrNotFound)
}

func TestOrderRepository_UpdateStatusGuardsPreviousStatus(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()
	order := f.place(t, domain.LineRequest{ProductID: f.mug.ID, Quantity: 4})
	assert.Equal(t, 1, f.stock(t, f.mug.ID))

	require.NoError(t, f.orders.UpdateStatus(ctx, order.ID, domain.OrderStatusPending, domain.OrderStatusCancelled))
	assert.Equal(t, 5, f.stock(t, f.mug.ID))

	// a second cancel based on the same pending read must not restock again
	err := f.orders.UpdateStatus(ctx, order.ID, domain.OrderStatusPending, domain.OrderStatusCancelled)
	require.ErrorIs(t, err, domain.ErrConflict)
	assert.Equal(t, 5, f.stock(t, f.mug.ID))

	paid := f.place(t, domain.LineRequest{ProductID: f.mug.ID, Quantity: 2})
	require.NoError(t, f.orders.UpdateStatus(ctx, paid.ID, domain.OrderStatusPending, domain.OrderStatusPaid))
	err = f.orders.UpdateStatus(ctx, paid.ID, domain.OrderStatusPending, domain.OrderStatusCancelled)
	require.ErrorIs(t, err, domain.ErrConflict)

	got, err := f.orders.Get(ctx, paid.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusPaid, got.Status)
	assert.Equal(t, 3, f.stock(t, f.mug.ID))
}

func TestOrderRepository_CreateRejectsOverflowingTotal(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()

	pricey := &domain.Product{Name: "Yacht", Price: math.MaxInt64 / 2, Stock: 10}
	seedProducts(t, f.products, pricey)

	_, err := f.orders.Create(ctx, &domain.Order{CustomerID: f.ann.ID, Reference: uuid.NewString(), Status: domain.OrderStatusPending},
		[]domain.LineRequest{{ProductID: pricey.ID, Quantity: 3}})
	var vErr *domain.ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, 10, f.stock(t, pricey.ID))
}

func TestOrderRepository_Delete(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()

	pending := f.place(t, domain.LineRequest{ProductID: f.mug.ID, Quantity: 2})
	require.NoError(t, f.orders.Delete(ctx, pending.ID))
	assert.Equal(t, 5, f.stock(t, f.mug.ID))
	_, err := f.orders.Get(ctx, pending.ID)
	require.ErrorIs(t, err, domain.ErrNotFound)

	paid := f.place(t, domain.LineRequest{ProductID: f.mug.ID, Quantity: 2})
	require.NoError(t, f.orders.UpdateStatus(ctx, paid.ID, domain.OrderStatusPending, domain.OrderStatusPaid))
	require.NoError(t, f.orders.Delete(ctx, paid.ID))
	assert.Equal(t, 3, f.stock(t, f.mug.ID))

	require.ErrorIs(t, f.orders.Delete(ctx, paid.ID), domain.ErrNotFound)
}

func TestOrderRepository_Constraints(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()
	order := f.place(t, domain.LineRequest{ProductID: f.mug.ID, Quantity: 1})
	shipped := f.place(t, domain.LineRequest{ProductID: f.mug.ID, Quantity: 2})
	require.NoError(t, f.orders.UpdateStatus(ctx, shipped.ID, domain.OrderStatusPending, domain.OrderStatusPaid))
	assert.Equal(t, 2, f.stock(t, f.mug.ID))

	require.ErrorIs(t, f.products.Delete(ctx, f.mug.ID), domain.ErrConflict)

	require.NoError(t, f.customers.Delete(ctx, f.ann.ID))
	_, err := f.orders.Get(ctx, order.ID)
	require.ErrorIs(t, err, domain.ErrNotFound)
	// only the pending order gives its stock back
	assert.Equal(t, 3, f.stock(t, f.mug.ID))

	var items int
	require.NoError(t, f.db.QueryRow(`SELECT COUNT(*) FROM order_items WHERE order_id = ?`, order.ID).Scan(&items))
	assert.Zero(t, items)
}
