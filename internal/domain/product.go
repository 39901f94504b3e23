package domain

import "time"

// Product is a catalog entry. Price is in minor currency units.
type Product struct {
	ID          int64
	Name        string
	Description string
	Price       int64
	Stock       int
	ImageKey    string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// ProductFilter narrows a catalog listing.
type ProductFilter struct {
	Query  string
	Limit  int
	Offset int
}

// MaxPrice bounds a product price so order totals stay within int64.
const MaxPrice int64 = 1_000_000_000_00

// ProductChanges lists the columns a product update writes. Nil fields are
// left as stored.
type ProductChanges struct {
	Name        *string
	Description *string
	Price       *int64
	Stock       *int
}

// Empty reports whether no field is set.
func (c ProductChanges) Empty() bool {
	return c.Name == nil && c.Description == nil && c.Price == nil && c.Stock == nil
}
