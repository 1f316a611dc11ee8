package application

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/manorfm/identity-server/internal/domain"
	"github.com/manorfm/identity-server/internal/infrastructure/random"
	"go.uber.org/zap"
)

// AuthorizationConfig tunes the consent handshake
type AuthorizationConfig struct {
	TransactionIDLength int
}

// AuthorizationService drives the authorization endpoint from the incoming
// request through consent to a code or token redirect. Errors about the
// client or its redirect URI are returned to the caller. Once the redirect
// URI is verified, protocol errors travel back to the client by redirect.
type AuthorizationService struct {
	clients      domain.ClientRepository
	tokens       domain.TokenRepository
	transactions domain.TransactionStore
	grants       domain.GrantService
	cfg          AuthorizationConfig
	logger       *zap.Logger
	now          func() time.Time
}

var _ domain.AuthorizationService = (*AuthorizationService)(nil)

func NewAuthorizationService(
	clients domain.ClientRepository,
	tokens domain.TokenRepository,
	transactions domain.TransactionStore,
	grants domain.GrantService,
	cfg AuthorizationConfig,
	logger *zap.Logger,
) *AuthorizationService {
	if cfg.TransactionIDLength <= 0 {
		cfg.TransactionIDLength = 16
	}
	return &AuthorizationService{
		clients:      clients,
		tokens:       tokens,
		transactions: transactions,
		grants:       grants,
		cfg:          cfg,
		logger:       logger,
		now:          time.Now,
	}
}

func (s *AuthorizationService) Authorize(ctx context.Context, entity *domain.Entity, req domain.AuthorizationRequest) (*domain.AuthorizationOutcome, error) {
	if req.ClientID == "" || req.RedirectURI == "" {
		return nil, domain.ErrInvalidRequest.WithDescription("client_id and redirect_uri are required")
	}

	client, err := s.validateClient(ctx, req.ClientID, req.RedirectURI)
	if err != nil {
		return nil, err
	}
	s.logger.Debug("Authorization request validated",
		zap.String("state", string(domain.StateClientValidated)),
		zap.String("client_id", client.ClientID))

	var grantType string
	switch req.ResponseType {
	case domain.ResponseTypeCode:
		grantType = domain.GrantTypeAuthorizationCode
	case domain.ResponseTypeToken:
		grantType = domain.GrantTypeImplicit
	case "":
		return s.denied(req.RedirectURI, req.ResponseType, req.State,
			domain.ErrInvalidRequest.WithDescription("response_type is required"))
	default:
		return s.denied(req.RedirectURI, req.ResponseType, req.State, domain.ErrUnsupportedResponseType)
	}
	if !client.AllowsGrant(grantType) {
		return s.denied(req.RedirectURI, req.ResponseType, req.State, domain.ErrUnauthorizedClient)
	}

	scope, err := ResolveScope(client, req.Scope)
	if err != nil {
		var oauthErr *domain.OAuthError
		if errors.As(err, &oauthErr) {
			return s.denied(req.RedirectURI, req.ResponseType, req.State, oauthErr)
		}
		return nil, err
	}

	approved, err := s.priorConsent(ctx, entity, client)
	if err != nil {
		return nil, err
	}
	if approved {
		s.logger.Debug("Consent granted without prompt",
			zap.String("client_id", client.ClientID),
			zap.Bool("trusted", client.Trusted))
		return s.complete(ctx, client, entity, req.RedirectURI, req.ResponseType, scope, req.State)
	}

	id, err := random.String(s.cfg.TransactionIDLength)
	if err != nil {
		return nil, fmt.Errorf("error generating transaction id: %w", err)
	}
	txn := &domain.AuthorizationTransaction{
		ID:           id,
		ClientID:     client.ID,
		EntityID:     entity.ID,
		RedirectURI:  req.RedirectURI,
		ResponseType: req.ResponseType,
		Scope:        scope,
		State:        req.State,
		CreatedAt:    s.now(),
	}
	if err := s.transactions.Put(ctx, id, txn); err != nil {
		return nil, fmt.Errorf("error storing authorization transaction: %w", err)
	}

	return &domain.AuthorizationOutcome{
		State: domain.StateConsentPending,
		Consent: &domain.ConsentPrompt{
			TransactionID: id,
			Client:        client,
			Entity:        entity,
			Scope:         scope,
		},
	}, nil
}

func (s *AuthorizationService) Decide(ctx context.Context, entity *domain.Entity, req domain.DecisionRequest) (*domain.AuthorizationOutcome, error) {
	if req.TransactionID == "" {
		return nil, domain.ErrInvalidRequest.WithDescription("transaction_id is required")
	}

	txn, err := s.transactions.Get(ctx, req.TransactionID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrInvalidRequest.WithDescription("unknown or expired transaction")
		}
		return nil, fmt.Errorf("error loading authorization transaction: %w", err)
	}
	if txn.EntityID != entity.ID {
		s.logger.Warn("Decision submitted by another entity",
			zap.String("entity_id", entity.ID.String()))
		return nil, domain.ErrAccessDenied.WithDescription("transaction belongs to another resource owner")
	}
	if _, err := s.transactions.Take(ctx, req.TransactionID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrInvalidRequest.WithDescription("unknown or expired transaction")
		}
		return nil, fmt.Errorf("error consuming authorization transaction: %w", err)
	}

	client, err := s.clients.FindByID(ctx, txn.ClientID)
	if err != nil {
		if errors.Is(err, domain.ErrClientNotFound) {
			return nil, domain.ErrUnauthorizedClient.WithDescription("unknown client")
		}
		return nil, fmt.Errorf("error finding client: %w", err)
	}
	if client.RedirectURI != txn.RedirectURI {
		return nil, domain.ErrUnauthorizedClient.WithDescription("redirect_uri does not match the registered value")
	}
	s.logger.Debug("Decision received",
		zap.String("state", string(domain.StateDecisionMade)),
		zap.String("client_id", client.ClientID),
		zap.Bool("approved", req.Approved))

	if !req.Approved {
		return s.denied(txn.RedirectURI, txn.ResponseType, txn.State, domain.ErrAccessDenied)
	}

	scope := txn.Scope
	if req.Scope != "" {
		if !domain.ScopeSubset(req.Scope, txn.Scope) {
			return s.denied(txn.RedirectURI, txn.ResponseType, txn.State, domain.ErrInvalidScope)
		}
		scope = domain.JoinScope(domain.ParseScope(req.Scope))
	}

	return s.complete(ctx, client, entity, txn.RedirectURI, txn.ResponseType, scope, txn.State)
}

func (s *AuthorizationService) validateClient(ctx context.Context, clientID, redirectURI string) (*domain.Client, error) {
	client, err := s.clients.FindByClientID(ctx, clientID)
	if err != nil {
		if errors.Is(err, domain.ErrClientNotFound) {
			s.logger.Debug("Unknown client", zap.String("client_id", clientID))
			return nil, domain.ErrUnauthorizedClient.WithDescription("unknown client")
		}
		return nil, fmt.Errorf("error finding client: %w", err)
	}
	if client.RedirectURI != redirectURI {
		s.logger.Warn("Redirect URI mismatch",
			zap.String("client_id", clientID),
			zap.String("redirect_uri", redirectURI))
		return nil, domain.ErrUnauthorizedClient.WithDescription("redirect_uri does not match the registered value")
	}
	return client, nil
}

// priorConsent reports whether the entity has already approved the client,
// either because the client is trusted or because a live token exists.
func (s *AuthorizationService) priorConsent(ctx context.Context, entity *domain.Entity, client *domain.Client) (bool, error) {
	if client.Trusted {
		return true, nil
	}
	_, err := s.tokens.FindActiveForEntityAndClient(ctx, entity.ID, client.ID, s.now())
	if err == nil {
		return true, nil
	}
	if errors.Is(err, domain.ErrTokenNotFound) {
		return false, nil
	}
	return false, fmt.Errorf("error checking existing grants: %w", err)
}

func (s *AuthorizationService) complete(ctx context.Context, client *domain.Client, entity *domain.Entity, redirectURI, responseType, scope, state string) (*domain.AuthorizationOutcome, error) {
	if responseType == domain.ResponseTypeToken {
		bundle, err := s.grants.ImplicitGrant(ctx, client, entity, scope)
		if err != nil {
			return s.deniedOrFail(redirectURI, responseType, state, err)
		}
		params := url.Values{}
		params.Set("access_token", bundle.AccessToken.Token)
		params.Set("token_type", "Bearer")
		if expiresIn := bundle.AccessToken.ExpiresIn(s.now()); expiresIn > 0 {
			params.Set("expires_in", strconv.Itoa(expiresIn))
		}
		if bundle.AccessToken.Scope != "" {
			params.Set("scope", bundle.AccessToken.Scope)
		}
		if state != "" {
			params.Set("state", state)
		}
		location, err := withFragment(redirectURI, params)
		if err != nil {
			return nil, err
		}
		return &domain.AuthorizationOutcome{State: domain.StateTokenIssued, RedirectURL: location}, nil
	}

	code, err := s.grants.GrantCode(ctx, client, redirectURI, entity, scope)
	if err != nil {
		return s.deniedOrFail(redirectURI, responseType, state, err)
	}
	params := url.Values{}
	params.Set("code", code)
	if state != "" {
		params.Set("state", state)
	}
	location, err := withQuery(redirectURI, params)
	if err != nil {
		return nil, err
	}
	return &domain.AuthorizationOutcome{State: domain.StateCodeIssued, RedirectURL: location}, nil
}

func (s *AuthorizationService) deniedOrFail(redirectURI, responseType, state string, err error) (*domain.AuthorizationOutcome, error) {
	var oauthErr *domain.OAuthError
	if errors.As(err, &oauthErr) {
		return s.denied(redirectURI, responseType, state, oauthErr)
	}
	return nil, err
}

// denied builds the error redirect. The redirect URI has been verified
// against the client registration before this is reached; when it still
// cannot be parsed the error is returned so it is answered directly.
func (s *AuthorizationService) denied(redirectURI, responseType, state string, oauthErr *domain.OAuthError) (*domain.AuthorizationOutcome, error) {
	params := url.Values{}
	params.Set("error", oauthErr.Code)
	if oauthErr.Description != "" {
		params.Set("error_description", oauthErr.Description)
	}
	if state != "" {
		params.Set("state", state)
	}

	var location string
	var err error
	if responseType == domain.ResponseTypeToken {
		location, err = withFragment(redirectURI, params)
	} else {
		location, err = withQuery(redirectURI, params)
	}
	if err != nil {
		return nil, fmt.Errorf("error building %s redirect: %w", oauthErr.Code, err)
	}
	return &domain.AuthorizationOutcome{State: domain.StateDenied, RedirectURL: location}, nil
}

func withQuery(redirectURI string, params url.Values) (string, error) {
	u, err := url.Parse(redirectURI)
	if err != nil {
		return "", fmt.Errorf("error parsing redirect uri: %w", err)
	}
	query := u.Query()
	for key, values := range params {
		query[key] = values
	}
	u.RawQuery = query.Encode()
	return u.String(), nil
}

func withFragment(redirectURI string, params url.Values) (string, error) {
	u, err := url.Parse(redirectURI)
	if err != nil {
		return "", fmt.Errorf("error parsing redirect uri: %w", err)
	}
	u.Fragment = ""
	u.RawFragment = ""
	return u.String() + "#" + params.Encode(), nil
}
