package handlers

import (
	"context"

	"github.com/manorfm/identity-server/internal/application"
	"github.com/manorfm/identity-server/internal/domain"
	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/mock"
)

type MockGrantService struct {
	mock.Mock
}

func bundleOrNil(args mock.Arguments) (*domain.TokenBundle, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.TokenBundle), args.Error(1)
}

func (m *MockGrantService) GrantCode(ctx context.Context, client *domain.Client, redirectURI string, entity *domain.Entity, scope string) (string, error) {
	args := m.Called(ctx, client, redirectURI, entity, scope)
	return args.String(0), args.Error(1)
}

func (m *MockGrantService) ExchangeCode(ctx context.Context, client *domain.Client, code, redirectURI string) (*domain.TokenBundle, error) {
	return bundleOrNil(m.Called(ctx, client, code, redirectURI))
}

func (m *MockGrantService) ExchangePassword(ctx context.Context, client *domain.Client, username, passwordHash, scope string) (*domain.TokenBundle, error) {
	return bundleOrNil(m.Called(ctx, client, username, passwordHash, scope))
}

func (m *MockGrantService) ExchangeClientCredentials(ctx context.Context, client *domain.Client, scope string) (*domain.TokenBundle, error) {
	return bundleOrNil(m.Called(ctx, client, scope))
}

func (m *MockGrantService) ExchangeRefreshToken(ctx context.Context, client *domain.Client, refreshToken, scope string) (*domain.TokenBundle, error) {
	return bundleOrNil(m.Called(ctx, client, refreshToken, scope))
}

func (m *MockGrantService) ImplicitGrant(ctx context.Context, client *domain.Client, entity *domain.Entity, scope string) (*domain.TokenBundle, error) {
	return bundleOrNil(m.Called(ctx, client, entity, scope))
}

type MockAuthorizationService struct {
	mock.Mock
}

func (m *MockAuthorizationService) Authorize(ctx context.Context, entity *domain.Entity, req domain.AuthorizationRequest) (*domain.AuthorizationOutcome, error) {
	args := m.Called(ctx, entity, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.AuthorizationOutcome), args.Error(1)
}

func (m *MockAuthorizationService) Decide(ctx context.Context, entity *domain.Entity, req domain.DecisionRequest) (*domain.AuthorizationOutcome, error) {
	args := m.Called(ctx, entity, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.AuthorizationOutcome), args.Error(1)
}

type MockVerifier struct {
	mock.Mock
}

func (m *MockVerifier) VerifyClient(ctx context.Context, clientID, clientSecret string) (*domain.Client, error) {
	args := m.Called(ctx, clientID, clientSecret)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Client), args.Error(1)
}

func (m *MockVerifier) VerifyEntity(ctx context.Context, username, passwordHash string) (*domain.Entity, error) {
	args := m.Called(ctx, username, passwordHash)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Entity), args.Error(1)
}

func (m *MockVerifier) ResolveBearer(ctx context.Context, token string) (*domain.Principal, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Principal), args.Error(1)
}

type MockSaltService struct {
	mock.Mock
}

func (m *MockSaltService) Salt(ctx context.Context, username string) (string, error) {
	args := m.Called(ctx, username)
	return args.String(0), args.Error(1)
}

type MockClientManager struct {
	mock.Mock
}

func (m *MockClientManager) Register(ctx context.Context, reg application.ClientRegistration) (*domain.Client, string, error) {
	args := m.Called(ctx, reg)
	if args.Get(0) == nil {
		return nil, "", args.Error(2)
	}
	return args.Get(0).(*domain.Client), args.String(1), args.Error(2)
}

func (m *MockClientManager) Update(ctx context.Context, id ulid.ULID, reg application.ClientRegistration) (*domain.Client, error) {
	args := m.Called(ctx, id, reg)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Client), args.Error(1)
}

func (m *MockClientManager) Get(ctx context.Context, id ulid.ULID) (*domain.Client, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Client), args.Error(1)
}

func (m *MockClientManager) List(ctx context.Context, limit, offset int) ([]*domain.Client, error) {
	args := m.Called(ctx, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Client), args.Error(1)
}

func (m *MockClientManager) Delete(ctx context.Context, id ulid.ULID) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockClientManager) Tokens(ctx context.Context, id ulid.ULID) ([]*domain.AccessToken, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.AccessToken), args.Error(1)
}

func (m *MockClientManager) RevokeToken(ctx context.Context, id ulid.ULID) error {
	return m.Called(ctx, id).Error(0)
}

type MockEntityManager struct {
	mock.Mock
}

func (m *MockEntityManager) Register(ctx context.Context, reg application.EntityRegistration) (*domain.Entity, error) {
	args := m.Called(ctx, reg)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Entity), args.Error(1)
}

func (m *MockEntityManager) Get(ctx context.Context, id ulid.ULID) (*domain.Entity, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Entity), args.Error(1)
}
