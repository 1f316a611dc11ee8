package domain

import (
	"context"
	"time"

	"github.com/oklog/ulid/v2"
)

// Grant types a client may be restricted to
const (
	GrantTypeAuthorizationCode = "authorization_code"
	GrantTypeImplicit          = "implicit"
	GrantTypePassword          = "password"
	GrantTypeClientCredentials = "client_credentials"
	GrantTypeRefreshToken      = "refresh_token"
)

// Client is a registered OAuth2 application. ID is internal, ClientID is
// the public identifier used in redirects and Basic auth.
type Client struct {
	ID          ulid.ULID `json:"id"`
	Name        string    `json:"name"`
	ClientID    string    `json:"client_id"`
	SecretHash  string    `json:"-"`
	RedirectURI string    `json:"redirect_uri"`
	GrantTypes  []string  `json:"grant_types"`
	Scope       string    `json:"scope,omitempty"`
	Trusted     bool      `json:"trusted"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// AllowsGrant reports whether the client may use the grant type. A client
// without registered grant types may use all of them.
func (c *Client) AllowsGrant(grantType string) bool {
	if len(c.GrantTypes) == 0 {
		return true
	}
	for _, gt := range c.GrantTypes {
		if gt == grantType {
			return true
		}
	}
	return false
}

// ClientRepository defines the interface for client persistence
type ClientRepository interface {
	// Create creates a new client
	Create(ctx context.Context, client *Client) error

	// Update updates a client
	Update(ctx context.Context, client *Client) error

	// Delete deletes a client
	Delete(ctx context.Context, id ulid.ULID) error

	// FindByID finds a client by its internal ID
	FindByID(ctx context.Context, id ulid.ULID) (*Client, error)

	// FindByClientID finds a client by its public client id
	FindByClientID(ctx context.Context, clientID string) (*Client, error)

	// List lists clients, newest first
	List(ctx context.Context, limit, offset int) ([]*Client, error)
}
