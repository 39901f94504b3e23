package service

import (
	"context"
	"strings"

	"shop-api/internal/auth"
	"shop-api/internal/domain"
	"shop-api/internal/repository"
)

// ProfileUpdate holds the optional fields of a profile change.
type ProfileUpdate struct {
	Name  *string
	Email *string
}

// CustomerService manages a customer's own account.
type CustomerService interface {
	Get(ctx context.Context, id int64) (*domain.Customer, error)
	OwnerOf(ctx context.Context, id int64) (int64, error)
	UpdateProfile(ctx context.Context, id int64, update ProfileUpdate) (*domain.Customer, error)
	ChangePassword(ctx context.Context, id int64, current, next string) error
	Delete(ctx context.Context, id int64) error
}

type customerService struct {
	customers repository.CustomerRepository
	hasher    auth.PasswordHasher
}

func NewCustomerService(customers repository.CustomerRepository, hasher auth.PasswordHasher) CustomerService {
	return &customerService{
		customers: customers,
		hasher:    hasher,
	}
}

func (s *customerService) Get(ctx context.Context, id int64) (*domain.Customer, error) {
	customer, err := s.customers.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return sanitizeCustomer(customer), nil
}

// OwnerOf returns the owner of a customer record, which is the customer itself.
func (s *customerService) OwnerOf(ctx context.Context, id int64) (int64, error) {
	customer, err := s.customers.GetByID(ctx, id)
	if err != nil {
		return 0, err
	}
	return customer.ID, nil
}

func (s *customerService) UpdateProfile(ctx context.Context, id int64, update ProfileUpdate) (*domain.Customer, error) {
	customer, err := s.customers.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if update.Name != nil {
		name := strings.TrimSpace(*update.Name)
		if name == "" {
			return nil, domain.NewValidationError("name should not be empty")
		}
		customer.Name = name
	}
	if update.Email != nil {
		email := NormalizeEmail(*update.Email)
		if email == "" {
			return nil, domain.NewValidationError("email must be an email")
		}
		customer.Email = email
	}

	if err := s.customers.Update(ctx, customer); err != nil {
		return nil, err
	}
	return sanitizeCustomer(customer), nil
}

func (s *customerService) ChangePassword(ctx context.Context, id int64, current, next string) error {
	if problems := passwordProblems("newPassword", next); len(problems) > 0 {
		return domain.NewValidationError(problems...)
	}

	customer, err := s.customers.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if !s.hasher.Verify(current, customer.PasswordHash) {
		return domain.ErrInvalidCredentials
	}

	hash, err := s.hasher.Hash(next)
	if err != nil {
		return err
	}
	customer.PasswordHash = hash
	return s.customers.Update(ctx, customer)
}

func (s *customerService) Delete(ctx context.Context, id int64) error {
	return s.customers.Delete(ctx, id)
}
