package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/manorfm/identity-server/internal/domain"
	"github.com/manorfm/identity-server/internal/infrastructure/random"
	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"
)

// TokenLength is the number of symbols in every access and refresh token
const TokenLength = 256

// GrantConfig tunes code and token issuance
type GrantConfig struct {
	CodeLength         int
	AccessTokenTTL     time.Duration
	RefreshTokenTTL    time.Duration
	IssueRefreshTokens bool
}

// GrantService mints authorization codes and tokens
type GrantService struct {
	codes    domain.CodeStore
	tokens   domain.TokenRepository
	verifier domain.CredentialVerifier
	cfg      GrantConfig
	logger   *zap.Logger
	now      func() time.Time
}

var _ domain.GrantService = (*GrantService)(nil)

func NewGrantService(codes domain.CodeStore, tokens domain.TokenRepository, verifier domain.CredentialVerifier, cfg GrantConfig, logger *zap.Logger) *GrantService {
	if cfg.CodeLength < 16 {
		cfg.CodeLength = 16
	}
	return &GrantService{
		codes:    codes,
		tokens:   tokens,
		verifier: verifier,
		cfg:      cfg,
		logger:   logger,
		now:      time.Now,
	}
}

func (s *GrantService) GrantCode(ctx context.Context, client *domain.Client, redirectURI string, entity *domain.Entity, scope string) (string, error) {
	if !client.AllowsGrant(domain.GrantTypeAuthorizationCode) {
		return "", domain.ErrUnauthorizedClient
	}
	if redirectURI != client.RedirectURI {
		return "", domain.ErrInvalidRequest.WithDescription("redirect_uri does not match the registered value")
	}
	granted, err := ResolveScope(client, scope)
	if err != nil {
		return "", err
	}

	code, err := random.String(s.cfg.CodeLength)
	if err != nil {
		return "", fmt.Errorf("error generating authorization code: %w", err)
	}

	authCode := &domain.AuthorizationCode{
		Code:        code,
		ClientID:    client.ID,
		EntityID:    entity.ID,
		RedirectURI: redirectURI,
		Scope:       granted,
		CreatedAt:   s.now(),
	}
	if err := s.codes.Put(ctx, code, authCode); err != nil {
		s.logger.Error("Failed to store authorization code",
			zap.String("client_id", client.ClientID),
			zap.Error(err))
		return "", fmt.Errorf("error storing authorization code: %w", err)
	}

	s.logger.Debug("Authorization code issued",
		zap.String("client_id", client.ClientID),
		zap.String("entity_id", entity.ID.String()))
	return code, nil
}

// ExchangeCode checks the code against the client and redirect URI before
// consuming it, so a rejected attempt leaves the code usable.
func (s *GrantService) ExchangeCode(ctx context.Context, client *domain.Client, code, redirectURI string) (*domain.TokenBundle, error) {
	if !client.AllowsGrant(domain.GrantTypeAuthorizationCode) {
		return nil, domain.ErrUnauthorizedClient
	}
	if code == "" {
		return nil, domain.ErrInvalidRequest.WithDescription("code is required")
	}

	authCode, err := s.codes.Get(ctx, code)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrInvalidGrant.WithDescription("invalid or expired authorization code")
		}
		return nil, fmt.Errorf("error loading authorization code: %w", err)
	}
	if authCode.ClientID != client.ID {
		s.logger.Warn("Authorization code presented by another client",
			zap.String("client_id", client.ClientID))
		return nil, domain.ErrInvalidGrant.WithDescription("authorization code was issued to another client")
	}
	if authCode.RedirectURI != redirectURI {
		return nil, domain.ErrInvalidGrant.WithDescription("redirect_uri does not match the authorization request")
	}

	taken, err := s.codes.Take(ctx, code)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrInvalidGrant.WithDescription("authorization code already used")
		}
		return nil, fmt.Errorf("error consuming authorization code: %w", err)
	}

	entityID := taken.EntityID
	return s.issue(ctx, client, &entityID, taken.Scope, s.cfg.IssueRefreshTokens)
}

func (s *GrantService) ExchangePassword(ctx context.Context, client *domain.Client, username, passwordHash, scope string) (*domain.TokenBundle, error) {
	if !client.AllowsGrant(domain.GrantTypePassword) {
		return nil, domain.ErrUnauthorizedClient
	}
	if username == "" || passwordHash == "" {
		return nil, domain.ErrInvalidRequest.WithDescription("username and passwordHash are required")
	}
	granted, err := ResolveScope(client, scope)
	if err != nil {
		return nil, err
	}

	entity, err := s.verifier.VerifyEntity(ctx, username, passwordHash)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidCredentials) {
			return nil, domain.ErrInvalidGrant.WithDescription("invalid resource owner credentials")
		}
		return nil, err
	}

	return s.issue(ctx, client, &entity.ID, granted, s.cfg.IssueRefreshTokens)
}

func (s *GrantService) ExchangeClientCredentials(ctx context.Context, client *domain.Client, scope string) (*domain.TokenBundle, error) {
	if !client.AllowsGrant(domain.GrantTypeClientCredentials) {
		return nil, domain.ErrUnauthorizedClient
	}
	granted, err := ResolveScope(client, scope)
	if err != nil {
		return nil, err
	}
	return s.issue(ctx, client, nil, granted, false)
}

func (s *GrantService) ImplicitGrant(ctx context.Context, client *domain.Client, entity *domain.Entity, scope string) (*domain.TokenBundle, error) {
	if !client.AllowsGrant(domain.GrantTypeImplicit) {
		return nil, domain.ErrUnauthorizedClient
	}
	granted, err := ResolveScope(client, scope)
	if err != nil {
		return nil, err
	}
	return s.issue(ctx, client, &entity.ID, granted, false)
}

// ExchangeRefreshToken mints a fresh access token. The refresh token stays
// valid and is not linked to the tokens it produces.
func (s *GrantService) ExchangeRefreshToken(ctx context.Context, client *domain.Client, refreshToken, scope string) (*domain.TokenBundle, error) {
	if !client.AllowsGrant(domain.GrantTypeRefreshToken) {
		return nil, domain.ErrUnauthorizedClient
	}
	if refreshToken == "" {
		return nil, domain.ErrInvalidRequest.WithDescription("refresh_token is required")
	}

	stored, err := s.tokens.FindByToken(ctx, refreshToken, domain.TokenTypeRefresh)
	if err != nil {
		if errors.Is(err, domain.ErrTokenNotFound) {
			return nil, domain.ErrInvalidGrant.WithDescription("invalid refresh token")
		}
		return nil, fmt.Errorf("error finding refresh token: %w", err)
	}
	if stored.ClientID != client.ID {
		s.logger.Warn("Refresh token presented by another client",
			zap.String("client_id", client.ClientID))
		return nil, domain.ErrInvalidGrant.WithDescription("invalid refresh token")
	}
	if stored.Expired(s.now()) {
		return nil, domain.ErrInvalidGrant.WithDescription("refresh token expired")
	}

	granted := stored.Scope
	if scope != "" {
		if !domain.ScopeSubset(scope, stored.Scope) {
			return nil, domain.ErrInvalidScope.WithDescription("requested scope exceeds the original grant")
		}
		granted = domain.JoinScope(domain.ParseScope(scope))
	}

	return s.issue(ctx, client, stored.EntityID, granted, false)
}

// issue persists a new access token, and a refresh token when asked, in a
// single write. Nothing is returned unless the write succeeds.
func (s *GrantService) issue(ctx context.Context, client *domain.Client, entityID *ulid.ULID, scope string, withRefresh bool) (*domain.TokenBundle, error) {
	now := s.now()

	access, err := s.newToken(domain.TokenTypeAccess, client, entityID, scope, now, s.cfg.AccessTokenTTL)
	if err != nil {
		return nil, err
	}
	bundle := &domain.TokenBundle{AccessToken: access}
	records := []*domain.AccessToken{access}

	if withRefresh {
		refresh, err := s.newToken(domain.TokenTypeRefresh, client, entityID, scope, now, s.cfg.RefreshTokenTTL)
		if err != nil {
			return nil, err
		}
		bundle.RefreshToken = refresh
		records = append(records, refresh)
	}

	if err := s.tokens.Create(ctx, records...); err != nil {
		s.logger.Error("Failed to persist tokens",
			zap.String("client_id", client.ClientID),
			zap.Error(err))
		return nil, fmt.Errorf("error persisting tokens: %w", err)
	}

	s.logger.Info("Tokens issued",
		zap.String("client_id", client.ClientID),
		zap.String("token_id", access.ID.String()),
		zap.Bool("refresh", withRefresh),
		zap.Bool("entity_bound", entityID != nil))
	return bundle, nil
}

func (s *GrantService) newToken(tokenType domain.TokenType, client *domain.Client, entityID *ulid.ULID, scope string, now time.Time, ttl time.Duration) (*domain.AccessToken, error) {
	value, err := random.String(TokenLength)
	if err != nil {
		return nil, fmt.Errorf("error generating token: %w", err)
	}
	token := &domain.AccessToken{
		ID:        ulid.Make(),
		Token:     value,
		Type:      tokenType,
		ClientID:  client.ID,
		Scope:     scope,
		CreatedAt: now,
	}
	if entityID != nil {
		id := *entityID
		token.EntityID = &id
	}
	if ttl > 0 {
		expiresAt := now.Add(ttl)
		token.ExpiresAt = &expiresAt
	}
	return token, nil
}

// ResolveScope applies the client's registered scope to a request. An empty
// request gets the registered scope, anything else must be a subset of it.
func ResolveScope(client *domain.Client, requested string) (string, error) {
	if requested == "" {
		return domain.JoinScope(domain.ParseScope(client.Scope)), nil
	}
	if client.Scope != "" && !domain.ScopeSubset(requested, client.Scope) {
		return "", domain.ErrInvalidScope.WithDescription("requested scope exceeds the client's registered scope")
	}
	return domain.JoinScope(domain.ParseScope(requested)), nil
}
