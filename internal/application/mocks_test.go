package application

import (
	"context"
	"time"

	"github.com/manorfm/identity-server/internal/domain"
	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/mock"
)

// MockEntityRepository is a mock implementation of domain.EntityRepository
type MockEntityRepository struct {
	mock.Mock
}

func (m *MockEntityRepository) Create(ctx context.Context, entity *domain.Entity) error {
	args := m.Called(ctx, entity)
	return args.Error(0)
}

func (m *MockEntityRepository) FindByID(ctx context.Context, id ulid.ULID) (*domain.Entity, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Entity), args.Error(1)
}

func (m *MockEntityRepository) FindByUsername(ctx context.Context, username string) (*domain.Entity, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Entity), args.Error(1)
}

// MockClientRepository is a mock implementation of domain.ClientRepository
type MockClientRepository struct {
	mock.Mock
}

func (m *MockClientRepository) Create(ctx context.Context, client *domain.Client) error {
	args := m.Called(ctx, client)
	return args.Error(0)
}

func (m *MockClientRepository) Update(ctx context.Context, client *domain.Client) error {
	args := m.Called(ctx, client)
	return args.Error(0)
}

func (m *MockClientRepository) Delete(ctx context.Context, id ulid.ULID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockClientRepository) FindByID(ctx context.Context, id ulid.ULID) (*domain.Client, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Client), args.Error(1)
}

func (m *MockClientRepository) FindByClientID(ctx context.Context, clientID string) (*domain.Client, error) {
	args := m.Called(ctx, clientID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Client), args.Error(1)
}

func (m *MockClientRepository) List(ctx context.Context, limit, offset int) ([]*domain.Client, error) {
	args := m.Called(ctx, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Client), args.Error(1)
}

// MockTokenRepository is a mock implementation of domain.TokenRepository
type MockTokenRepository struct {
	mock.Mock
}

func (m *MockTokenRepository) Create(ctx context.Context, tokens ...*domain.AccessToken) error {
	args := m.Called(ctx, tokens)
	return args.Error(0)
}

func (m *MockTokenRepository) FindByID(ctx context.Context, id ulid.ULID) (*domain.AccessToken, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.AccessToken), args.Error(1)
}

func (m *MockTokenRepository) FindByToken(ctx context.Context, token string, tokenType domain.TokenType) (*domain.AccessToken, error) {
	args := m.Called(ctx, token, tokenType)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.AccessToken), args.Error(1)
}

func (m *MockTokenRepository) FindActiveForEntityAndClient(ctx context.Context, entityID, clientID ulid.ULID, now time.Time) (*domain.AccessToken, error) {
	args := m.Called(ctx, entityID, clientID, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.AccessToken), args.Error(1)
}

func (m *MockTokenRepository) ListByClient(ctx context.Context, clientID ulid.ULID) ([]*domain.AccessToken, error) {
	args := m.Called(ctx, clientID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.AccessToken), args.Error(1)
}

func (m *MockTokenRepository) Delete(ctx context.Context, id ulid.ULID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockTokenRepository) DeleteByClient(ctx context.Context, clientID ulid.ULID) error {
	args := m.Called(ctx, clientID)
	return args.Error(0)
}

// MockCodeStore is a mock implementation of domain.CodeStore
type MockCodeStore struct {
	mock.Mock
}

func (m *MockCodeStore) Put(ctx context.Context, key string, code *domain.AuthorizationCode) error {
	args := m.Called(ctx, key, code)
	return args.Error(0)
}

func (m *MockCodeStore) Get(ctx context.Context, key string) (*domain.AuthorizationCode, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.AuthorizationCode), args.Error(1)
}

func (m *MockCodeStore) Take(ctx context.Context, key string) (*domain.AuthorizationCode, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.AuthorizationCode), args.Error(1)
}

func (m *MockCodeStore) Delete(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}
