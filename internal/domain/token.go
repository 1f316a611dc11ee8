package domain

import (
	"context"
	"time"

	"github.com/oklog/ulid/v2"
)

// TokenType distinguishes access from refresh tokens
type TokenType string

const (
	TokenTypeAccess  TokenType = "access"
	TokenTypeRefresh TokenType = "refresh"
)

// AccessToken is a persisted access or refresh token. EntityID is nil for
// tokens obtained with the client credentials grant.
type AccessToken struct {
	ID        ulid.ULID  `json:"id"`
	Token     string     `json:"-"`
	Type      TokenType  `json:"type"`
	EntityID  *ulid.ULID `json:"entity_id,omitempty"`
	ClientID  ulid.ULID  `json:"client_id"`
	Scope     string     `json:"scope,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

// Expired reports whether the token has an expiry that lies before now
func (t *AccessToken) Expired(now time.Time) bool {
	return t.ExpiresAt != nil && !now.Before(*t.ExpiresAt)
}

// ExpiresIn returns the remaining lifetime in whole seconds, or 0 when the
// token does not expire.
func (t *AccessToken) ExpiresIn(now time.Time) int {
	if t.ExpiresAt == nil {
		return 0
	}
	remaining := int(t.ExpiresAt.Sub(now).Seconds())
	if remaining < 0 {
		return 0
	}
	return remaining
}

// TokenBundle is what a successful grant hands back
type TokenBundle struct {
	AccessToken  *AccessToken
	RefreshToken *AccessToken
}

// TokenRepository defines the interface for token persistence
type TokenRepository interface {
	// Create persists all tokens or none of them
	Create(ctx context.Context, tokens ...*AccessToken) error

	// FindByID finds a token by its record ID
	FindByID(ctx context.Context, id ulid.ULID) (*AccessToken, error)

	// FindByToken finds a token by its opaque string and type
	FindByToken(ctx context.Context, token string, tokenType TokenType) (*AccessToken, error)

	// FindActiveForEntityAndClient finds an access token granted by the entity
	// to the client that has not expired at now
	FindActiveForEntityAndClient(ctx context.Context, entityID, clientID ulid.ULID, now time.Time) (*AccessToken, error)

	// ListByClient lists the tokens issued to a client
	ListByClient(ctx context.Context, clientID ulid.ULID) ([]*AccessToken, error)

	// Delete revokes a single token
	Delete(ctx context.Context, id ulid.ULID) error

	// DeleteByClient revokes every token issued to a client
	DeleteByClient(ctx context.Context, clientID ulid.ULID) error
}
