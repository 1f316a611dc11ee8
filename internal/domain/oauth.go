package domain

import (
	"context"
)

// AuthorizationState is a step of the authorization endpoint handshake
type AuthorizationState string

const (
	StateStart           AuthorizationState = "start"
	StateClientValidated AuthorizationState = "client-validated"
	StateConsentPending  AuthorizationState = "consent-pending"
	StateDecisionMade    AuthorizationState = "decision-made"
	StateCodeIssued      AuthorizationState = "code-issued"
	StateTokenIssued     AuthorizationState = "token-issued"
	StateDenied          AuthorizationState = "denied"
)

// Response types accepted by the authorization endpoint
const (
	ResponseTypeCode  = "code"
	ResponseTypeToken = "token"
)

// AuthorizationRequest carries the query of an authorization request
type AuthorizationRequest struct {
	ClientID     string
	RedirectURI  string
	ResponseType string
	Scope        string
	State        string
}

// DecisionRequest carries the resource owner's answer to a consent prompt
type DecisionRequest struct {
	TransactionID string
	Approved      bool
	Scope         string
}

// ConsentPrompt describes what the resource owner is asked to approve
type ConsentPrompt struct {
	TransactionID string
	Client        *Client
	Entity        *Entity
	Scope         string
}

// AuthorizationOutcome is where the handshake stopped. RedirectURL is set
// for terminal states, Consent for StateConsentPending.
type AuthorizationOutcome struct {
	State       AuthorizationState
	RedirectURL string
	Consent     *ConsentPrompt
}

// GrantService mints codes and tokens for the supported grant types
type GrantService interface {
	// GrantCode issues an authorization code bound to client, entity and redirect URI
	GrantCode(ctx context.Context, client *Client, redirectURI string, entity *Entity, scope string) (string, error)

	// ExchangeCode exchanges an authorization code for tokens
	ExchangeCode(ctx context.Context, client *Client, code, redirectURI string) (*TokenBundle, error)

	// ExchangePassword exchanges resource owner credentials for tokens
	ExchangePassword(ctx context.Context, client *Client, username, passwordHash, scope string) (*TokenBundle, error)

	// ExchangeClientCredentials issues a token bound to the client only
	ExchangeClientCredentials(ctx context.Context, client *Client, scope string) (*TokenBundle, error)

	// ExchangeRefreshToken mints a new access token from a refresh token
	ExchangeRefreshToken(ctx context.Context, client *Client, refreshToken, scope string) (*TokenBundle, error)

	// ImplicitGrant issues an access token directly to the authorization endpoint
	ImplicitGrant(ctx context.Context, client *Client, entity *Entity, scope string) (*TokenBundle, error)
}

// AuthorizationService drives the authorization endpoint handshake
type AuthorizationService interface {
	// Authorize validates the request and either finishes it or asks for consent
	Authorize(ctx context.Context, entity *Entity, req AuthorizationRequest) (*AuthorizationOutcome, error)

	// Decide applies the resource owner's decision on a pending transaction
	Decide(ctx context.Context, entity *Entity, req DecisionRequest) (*AuthorizationOutcome, error)
}

// CredentialVerifier authenticates clients, resource owners and bearer tokens
type CredentialVerifier interface {
	// VerifyClient authenticates a client by id and secret
	VerifyClient(ctx context.Context, clientID, clientSecret string) (*Client, error)

	// VerifyEntity authenticates a resource owner by username and precomputed password hash
	VerifyEntity(ctx context.Context, username, passwordHash string) (*Entity, error)

	// ResolveBearer resolves an access token to its principal
	ResolveBearer(ctx context.Context, token string) (*Principal, error)
}

// SaltService returns the salt a client needs to hash a password
type SaltService interface {
	Salt(ctx context.Context, username string) (string, error)
}
