package domain

import "time"

// Customer is a registered shopper. It doubles as the credential record.
type Customer struct {
	ID           int64
	Name         string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
