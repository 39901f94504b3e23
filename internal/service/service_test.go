package service

import (
	"context"
	"io"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"shop-api/internal/auth"
	"shop-api/internal/repository"
	"shop-api/internal/repository/sqlite"
)

const testSecret = "test-signing-secret"

type testEnv struct {
	customers repository.CustomerRepository
	products  repository.ProductRepository
	orders    repository.OrderRepository
	hasher    *auth.BcryptHasher
	tokens    *auth.TokenManager
	logger    *logrus.Logger
	auth      AuthService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	db, err := sqlite.Open(filepath.Join(t.TempDir(), "shop.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, sqlite.Migrate(context.Background(), db, logger))

	tokens, err := auth.NewTokenManager(auth.TokenConfig{Secret: testSecret, TTL: time.Hour, Issuer: "shop-api"})
	require.NoError(t, err)

	env := &testEnv{
		customers: sqlite.NewCustomerRepository(db),
		products:  sqlite.NewProductRepository(db),
		orders:    sqlite.NewOrderRepository(db),
		hasher:    auth.NewBcryptHasher(bcrypt.MinCost),
		tokens:    tokens,
		logger:    logger,
	}
	env.auth, err = NewAuthService(env.customers, env.hasher, env.tokens, logger)
	require.NoError(t, err)
	return env
}

func (e *testEnv) register(t *testing.T, name, email, password string) *Session {
	t.Helper()
	session, err := e.auth.Register(context.Background(), RegisterInput{Name: name, Email: email, Password: password})
	require.NoError(t, err)
	return session
}
