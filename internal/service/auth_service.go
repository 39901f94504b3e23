package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"shop-api/internal/auth"
	"shop-api/internal/domain"
	"shop-api/internal/repository"
)

// MinPasswordLength is the shortest password accepted at registration.
const MinPasswordLength = 6

// TokenIssuer creates and checks bearer tokens.
type TokenIssuer interface {
	Issue(subjectID int64) (string, time.Time, error)
	Verify(token string) (int64, error)
}

// Session is the result of a successful registration or login.
type Session struct {
	Customer    *domain.Customer
	AccessToken string
	ExpiresAt   time.Time
}

// RegisterInput carries the registration form.
type RegisterInput struct {
	Name     string
	Email    string
	Password string
}

// AuthService handles registration, login and bearer token resolution.
type AuthService interface {
	Register(ctx context.Context, in RegisterInput) (*Session, error)
	Login(ctx context.Context, email, password string) (*Session, error)
	Authenticate(ctx context.Context, token string) (*domain.Customer, error)
}

type authService struct {
	customers repository.CustomerRepository
	hasher    auth.PasswordHasher
	tokens    TokenIssuer
	logger    logrus.FieldLogger
	dummyHash string
}

func NewAuthService(customers repository.CustomerRepository, hasher auth.PasswordHasher, tokens TokenIssuer, logger logrus.FieldLogger) (AuthService, error) {
	// compared against on unknown emails so both login failures cost one bcrypt run
	dummy, err := hasher.Hash("timing-equalizer")
	if err != nil {
		return nil, fmt.Errorf("prepare dummy hash: %w", err)
	}
	if logger == nil {
		logger = logrus.New()
	}
	return &authService{
		customers: customers,
		hasher:    hasher,
		tokens:    tokens,
		logger:    logger,
		dummyHash: dummy,
	}, nil
}

func (s *authService) Register(ctx context.Context, in RegisterInput) (*Session, error) {
	name := strings.TrimSpace(in.Name)
	email := NormalizeEmail(in.Email)

	var problems []string
	if name == "" {
		problems = append(problems, "name should not be empty")
	}
	if email == "" {
		problems = append(problems, "email must be an email")
	}
	problems = append(problems, passwordProblems("password", in.Password)...)
	if len(problems) > 0 {
		return nil, domain.NewValidationError(problems...)
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, err
	}

	customer := &domain.Customer{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
	}
	if _, err := s.customers.Create(ctx, customer); err != nil {
		return nil, err
	}

	s.logger.WithField("customer_id", customer.ID).Info("customer registered")
	return s.newSession(customer)
}

func (s *authService) Login(ctx context.Context, email, password string) (*Session, error) {
	email = NormalizeEmail(email)
	if email == "" || password == "" {
		return nil, domain.ErrInvalidCredentials
	}

	customer, err := s.customers.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			s.hasher.Verify(password, s.dummyHash)
			return nil, domain.ErrInvalidCredentials
		}
		return nil, err
	}

	if !s.hasher.Verify(password, customer.PasswordHash) {
		s.logger.WithField("customer_id", customer.ID).Debug("login rejected")
		return nil, domain.ErrInvalidCredentials
	}

	return s.newSession(customer)
}

// Authenticate resolves a bearer token to a live customer. Every failure
// collapses to domain.ErrUnauthorized.
func (s *authService) Authenticate(ctx context.Context, token string) (*domain.Customer, error) {
	id, err := s.tokens.Verify(token)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrUnauthorized, err)
	}

	customer, err := s.customers.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("%w: customer %d no longer exists", domain.ErrUnauthorized, id)
		}
		return nil, err
	}
	return sanitizeCustomer(customer), nil
}

func (s *authService) newSession(customer *domain.Customer) (*Session, error) {
	token, expiresAt, err := s.tokens.Issue(customer.ID)
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}
	return &Session{
		Customer:    sanitizeCustomer(customer),
		AccessToken: token,
		ExpiresAt:   expiresAt,
	}, nil
}

// passwordProblems checks the length bounds of a new password. The upper
// bound is in bytes because that is what bcrypt limits.
func passwordProblems(field, password string) []string {
	switch {
	case len(password) < MinPasswordLength:
		return []string{fmt.Sprintf("%s must be longer than or equal to %d characters", field, MinPasswordLength)}
	case len(password) > auth.MaxPasswordBytes:
		return []string{fmt.Sprintf("%s must not exceed %d bytes", field, auth.MaxPasswordBytes)}
	}
	return nil
}

// NormalizeEmail trims and lower-cases an address. Anything without a local
// part and a domain normalizes to "".
func NormalizeEmail(email string) string {
	email = strings.ToLower(strings.TrimSpace(email))
	at := strings.LastIndex(email, "@")
	if at <= 0 || at == len(email)-1 {
		return ""
	}
	return email
}

func sanitizeCustomer(customer *domain.Customer) *domain.Customer {
	if customer == nil {
		return nil
	}
	return &domain.Customer{
		ID:        customer.ID,
		Name:      customer.Name,
		Email:     customer.Email,
		CreatedAt: customer.CreatedAt,
		UpdatedAt: customer.UpdatedAt,
	}
}
