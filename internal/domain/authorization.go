package domain

import (
	"context"
	"time"

	"github.com/oklog/ulid/v2"
)

// AuthorizationCode is an outstanding code waiting to be exchanged
type AuthorizationCode struct {
	Code        string    `json:"code"`
	ClientID    ulid.ULID `json:"client_id"`
	EntityID    ulid.ULID `json:"entity_id"`
	RedirectURI string    `json:"redirect_uri"`
	Scope       string    `json:"scope"`
	CreatedAt   time.Time `json:"created_at"`
}

// AuthorizationTransaction holds a validated authorization request while the
// resource owner decides.
type AuthorizationTransaction struct {
	ID           string    `json:"id"`
	ClientID     ulid.ULID `json:"client_id"`
	EntityID     ulid.ULID `json:"entity_id"`
	RedirectURI  string    `json:"redirect_uri"`
	ResponseType string    `json:"response_type"`
	Scope        string    `json:"scope"`
	State        string    `json:"state"`
	CreatedAt    time.Time `json:"created_at"`
}

// CodeStore holds authorization codes until they are exchanged or expire.
// Take must be atomic: of two concurrent Takes on one key, exactly one wins.
type CodeStore interface {
	Put(ctx context.Context, key string, code *AuthorizationCode) error
	Get(ctx context.Context, key string) (*AuthorizationCode, error)
	Take(ctx context.Context, key string) (*AuthorizationCode, error)
	Delete(ctx context.Context, key string) error
}

// TransactionStore holds pending authorization transactions
type TransactionStore interface {
	Put(ctx context.Context, key string, txn *AuthorizationTransaction) error
	Get(ctx context.Context, key string) (*AuthorizationTransaction, error)
	Take(ctx context.Context, key string) (*AuthorizationTransaction, error)
	Delete(ctx context.Context, key string) error
}

// Principal is the authenticated caller of a resource request
type Principal struct {
	Entity *Entity
	Client *Client
	Token  *AccessToken
}
