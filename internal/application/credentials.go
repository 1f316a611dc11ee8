package application

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/manorfm/identity-server/internal/domain"
	"github.com/manorfm/identity-server/internal/infrastructure/password"
	"go.uber.org/zap"
)

// Credentials authenticates clients, resource owners and bearer tokens
type Credentials struct {
	entities domain.EntityRepository
	clients  domain.ClientRepository
	tokens   domain.TokenRepository
	logger   *zap.Logger
	now      func() time.Time

	dummyOnce sync.Once
	dummyHash string
}

var _ domain.CredentialVerifier = (*Credentials)(nil)

func NewCredentials(entities domain.EntityRepository, clients domain.ClientRepository, tokens domain.TokenRepository, logger *zap.Logger) *Credentials {
	return &Credentials{
		entities: entities,
		clients:  clients,
		tokens:   tokens,
		logger:   logger,
		now:      time.Now,
	}
}

// VerifyClient checks the client secret against its bcrypt hash. Unknown
// clients are compared against a throwaway hash so both paths cost the same.
func (c *Credentials) VerifyClient(ctx context.Context, clientID, clientSecret string) (*domain.Client, error) {
	client, err := c.clients.FindByClientID(ctx, clientID)
	if err != nil {
		if !errors.Is(err, domain.ErrClientNotFound) {
			return nil, fmt.Errorf("error finding client: %w", err)
		}
		_ = password.CheckSecret(clientSecret, c.dummy())
		c.logger.Debug("Unknown client", zap.String("client_id", clientID))
		return nil, domain.ErrInvalidClient
	}

	if err := password.CheckSecret(clientSecret, client.SecretHash); err != nil {
		c.logger.Debug("Client secret mismatch", zap.String("client_id", clientID))
		return nil, domain.ErrInvalidClient
	}
	return client, nil
}

// VerifyEntity compares the precomputed password hash with the stored one
func (c *Credentials) VerifyEntity(ctx context.Context, username, passwordHash string) (*domain.Entity, error) {
	entity, err := c.entities.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, domain.ErrEntityNotFound) {
			return nil, domain.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("error finding entity: %w", err)
	}

	if subtle.ConstantTimeCompare([]byte(entity.PasswordHash), []byte(passwordHash)) != 1 {
		c.logger.Debug("Entity password mismatch", zap.String("username", username))
		return nil, domain.ErrInvalidCredentials
	}
	return entity, nil
}

// ResolveBearer resolves an access token to the client and entity it was
// issued for. Every reason a token is not usable yields ErrUnauthorized.
func (c *Credentials) ResolveBearer(ctx context.Context, token string) (*domain.Principal, error) {
	if token == "" {
		return nil, domain.ErrUnauthorized
	}

	accessToken, err := c.tokens.FindByToken(ctx, token, domain.TokenTypeAccess)
	if err != nil {
		if errors.Is(err, domain.ErrTokenNotFound) {
			return nil, domain.ErrUnauthorized
		}
		return nil, fmt.Errorf("error finding token: %w", err)
	}
	if accessToken.Expired(c.now()) {
		return nil, domain.ErrUnauthorized
	}

	client, err := c.clients.FindByID(ctx, accessToken.ClientID)
	if err != nil {
		if errors.Is(err, domain.ErrClientNotFound) {
			return nil, domain.ErrUnauthorized
		}
		return nil, fmt.Errorf("error finding token client: %w", err)
	}

	principal := &domain.Principal{Client: client, Token: accessToken}
	if accessToken.EntityID != nil {
		entity, err := c.entities.FindByID(ctx, *accessToken.EntityID)
		if err != nil {
			if errors.Is(err, domain.ErrEntityNotFound) {
				return nil, domain.ErrUnauthorized
			}
			return nil, fmt.Errorf("error finding token entity: %w", err)
		}
		principal.Entity = entity
	}
	return principal, nil
}

func (c *Credentials) dummy() string {
	c.dummyOnce.Do(func() {
		hash, err := password.HashSecret("identity-server-unknown-client")
		if err != nil {
			c.logger.Error("Failed to build dummy client hash", zap.Error(err))
			return
		}
		c.dummyHash = hash
	})
	return c.dummyHash
}
