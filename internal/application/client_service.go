package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/manorfm/identity-server/internal/domain"
	"github.com/manorfm/identity-server/internal/infrastructure/password"
	"github.com/manorfm/identity-server/internal/infrastructure/random"
	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"
)

const (
	generatedClientIDLength     = 24
	generatedClientSecretLength = 48
)

var knownGrantTypes = map[string]struct{}{
	domain.GrantTypeAuthorizationCode: {},
	domain.GrantTypeImplicit:          {},
	domain.GrantTypePassword:          {},
	domain.GrantTypeClientCredentials: {},
	domain.GrantTypeRefreshToken:      {},
}

// ClientRegistration describes a client to register or update. Empty
// ClientID and ClientSecret are generated on registration.
type ClientRegistration struct {
	Name         string
	ClientID     string
	ClientSecret string
	RedirectURI  string
	GrantTypes   []string
	Scope        string
	Trusted      bool
}

// ClientService manages registered clients and the tokens issued to them
type ClientService struct {
	clients domain.ClientRepository
	tokens  domain.TokenRepository
	logger  *zap.Logger
}

func NewClientService(clients domain.ClientRepository, tokens domain.TokenRepository, logger *zap.Logger) *ClientService {
	return &ClientService{
		clients: clients,
		tokens:  tokens,
		logger:  logger,
	}
}

// Register creates a client and returns it with the plain secret, which is
// not recoverable afterwards.
func (s *ClientService) Register(ctx context.Context, reg ClientRegistration) (*domain.Client, string, error) {
	if err := validateGrantTypes(reg.GrantTypes); err != nil {
		return nil, "", err
	}

	var err error
	clientID := reg.ClientID
	if clientID == "" {
		if clientID, err = random.String(generatedClientIDLength); err != nil {
			return nil, "", fmt.Errorf("error generating client id: %w", err)
		}
	}
	secret := reg.ClientSecret
	if secret == "" {
		if secret, err = random.String(generatedClientSecretLength); err != nil {
			return nil, "", fmt.Errorf("error generating client secret: %w", err)
		}
	}
	hash, err := hashSecret(secret)
	if err != nil {
		return nil, "", err
	}

	now := time.Now()
	client := &domain.Client{
		ID:          ulid.Make(),
		Name:        reg.Name,
		ClientID:    clientID,
		SecretHash:  hash,
		RedirectURI: reg.RedirectURI,
		GrantTypes:  reg.GrantTypes,
		Scope:       domain.JoinScope(domain.ParseScope(reg.Scope)),
		Trusted:     reg.Trusted,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.clients.Create(ctx, client); err != nil {
		return nil, "", err
	}

	s.logger.Info("Client registered",
		zap.String("id", client.ID.String()),
		zap.String("client_id", client.ClientID))
	return client, secret, nil
}

// Update replaces the mutable fields of a client. A non empty secret rotates it.
func (s *ClientService) Update(ctx context.Context, id ulid.ULID, reg ClientRegistration) (*domain.Client, error) {
	if err := validateGrantTypes(reg.GrantTypes); err != nil {
		return nil, err
	}

	client, err := s.clients.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	client.Name = reg.Name
	client.RedirectURI = reg.RedirectURI
	client.GrantTypes = reg.GrantTypes
	client.Scope = domain.JoinScope(domain.ParseScope(reg.Scope))
	client.Trusted = reg.Trusted
	client.UpdatedAt = time.Now()
	if reg.ClientSecret != "" {
		if client.SecretHash, err = hashSecret(reg.ClientSecret); err != nil {
			return nil, err
		}
	}

	if err := s.clients.Update(ctx, client); err != nil {
		return nil, err
	}
	return client, nil
}

func (s *ClientService) Get(ctx context.Context, id ulid.ULID) (*domain.Client, error) {
	return s.clients.FindByID(ctx, id)
}

func (s *ClientService) List(ctx context.Context, limit, offset int) ([]*domain.Client, error) {
	return s.clients.List(ctx, limit, offset)
}

// Delete revokes every token issued to the client, then removes it
func (s *ClientService) Delete(ctx context.Context, id ulid.ULID) error {
	if _, err := s.clients.FindByID(ctx, id); err != nil {
		return err
	}
	if err := s.tokens.DeleteByClient(ctx, id); err != nil {
		return err
	}
	if err := s.clients.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info("Client deleted", zap.String("id", id.String()))
	return nil
}

// Tokens lists the tokens issued to a client
func (s *ClientService) Tokens(ctx context.Context, id ulid.ULID) ([]*domain.AccessToken, error) {
	if _, err := s.clients.FindByID(ctx, id); err != nil {
		return nil, err
	}
	return s.tokens.ListByClient(ctx, id)
}

// RevokeToken deletes a single access or refresh token
func (s *ClientService) RevokeToken(ctx context.Context, id ulid.ULID) error {
	if err := s.tokens.Delete(ctx, id); err != nil {
		if errors.Is(err, domain.ErrTokenNotFound) {
			return err
		}
		return fmt.Errorf("error revoking token: %w", err)
	}
	s.logger.Info("Token revoked", zap.String("token_id", id.String()))
	return nil
}

func validateGrantTypes(grantTypes []string) error {
	for _, gt := range grantTypes {
		if _, ok := knownGrantTypes[gt]; !ok {
			return domain.ErrInvalidField
		}
	}
	return nil
}

func hashSecret(secret string) (string, error) {
	hash, err := password.HashSecret(secret)
	if err != nil {
		if errors.Is(err, password.ErrTooLong) {
			return "", domain.ErrInvalidField
		}
		return "", fmt.Errorf("error hashing client secret: %w", err)
	}
	return hash, nil
}

// EnsureClient registers the bootstrap client unless its client id is
// already taken. An existing client is returned untouched.
func (s *ClientService) EnsureClient(ctx context.Context, reg ClientRegistration) (*domain.Client, error) {
	existing, err := s.clients.FindByClientID(ctx, reg.ClientID)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, domain.ErrClientNotFound) {
		return nil, fmt.Errorf("error finding bootstrap client: %w", err)
	}

	client, _, err := s.Register(ctx, reg)
	if err != nil {
		if errors.Is(err, domain.ErrClientAlreadyExists) {
			return s.clients.FindByClientID(ctx, reg.ClientID)
		}
		return nil, err
	}
	return client, nil
}
