package application

import (
	"context"
	"testing"
	"time"

	"github.com/manorfm/identity-server/internal/domain"
	"github.com/manorfm/identity-server/internal/infrastructure/kvstore"
	"github.com/manorfm/identity-server/internal/infrastructure/password"
	"github.com/manorfm/identity-server/internal/infrastructure/repository/memory"
	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const (
	testRedirectURI = "http://localhost/cb"
	testSecret      = "s1"
	testEntityHash  = "precomputed-hash"
)

// fixture wires the grant engine and authorization service over in-memory stores
type fixture struct {
	entities *memory.EntityRepository
	clients  *memory.ClientRepository
	tokens   *memory.TokenRepository
	codes    *kvstore.Store[domain.AuthorizationCode]
	txns     *kvstore.Store[domain.AuthorizationTransaction]
	creds    *Credentials
	grants   *GrantService
	authz    *AuthorizationService
	entity   *domain.Entity
	client   *domain.Client
}

type fixtureOption func(*fixtureConfig)

type fixtureConfig struct {
	grant   GrantConfig
	codeTTL time.Duration
}

func withGrantConfig(cfg GrantConfig) fixtureOption {
	return func(c *fixtureConfig) { c.grant = cfg }
}

func withCodeTTL(ttl time.Duration) fixtureOption {
	return func(c *fixtureConfig) { c.codeTTL = ttl }
}

func newFixture(t *testing.T, opts ...fixtureOption) *fixture {
	t.Helper()
	cfg := fixtureConfig{
		grant:   GrantConfig{CodeLength: 16, IssueRefreshTokens: true},
		codeTTL: 10 * time.Minute,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	logger := zap.NewNop()
	backend := kvstore.NewMemoryBackend(logger)
	f := &fixture{
		entities: memory.NewEntityRepository(),
		clients:  memory.NewClientRepository(),
		tokens:   memory.NewTokenRepository(),
		codes:    kvstore.NewCodeStore(backend, "", cfg.codeTTL),
		txns:     kvstore.NewTransactionStore(backend, "", 10*time.Minute),
	}
	f.creds = NewCredentials(f.entities, f.clients, f.tokens, logger)
	f.grants = NewGrantService(f.codes, f.tokens, f.creds, cfg.grant, logger)
	f.authz = NewAuthorizationService(f.clients, f.tokens, f.txns, f.grants, AuthorizationConfig{TransactionIDLength: 16}, logger)

	f.entity = f.addEntity(t, "e1")
	f.client = f.addClient(t, "c1", "")
	return f
}

func (f *fixture) addEntity(t *testing.T, username string) *domain.Entity {
	t.Helper()
	entity := domain.NewEntity(username, "example.org", testEntityHash, "salt-"+username)
	require.NoError(t, f.entities.Create(context.Background(), entity))
	return entity
}

func (f *fixture) addClient(t *testing.T, clientID, scope string, grantTypes ...string) *domain.Client {
	t.Helper()
	hash, err := password.HashSecret(testSecret)
	require.NoError(t, err)
	now := time.Now()
	client := &domain.Client{
		ID:          ulid.Make(),
		Name:        "client " + clientID,
		ClientID:    clientID,
		SecretHash:  hash,
		RedirectURI: testRedirectURI,
		GrantTypes:  grantTypes,
		Scope:       scope,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	require.NoError(t, f.clients.Create(context.Background(), client))
	return client
}
