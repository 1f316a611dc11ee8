package domain

import (
	"context"
	"time"

	"github.com/oklog/ulid/v2"
)

// Entity is a resource owner
type Entity struct {
	ID           ulid.ULID `json:"id"`
	Username     string    `json:"username"`
	Domain       string    `json:"domain"`
	PasswordHash string    `json:"-"`
	PasswordSalt string    `json:"-"`
	Admin        bool      `json:"admin"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// NewEntity creates an entity with a fresh identifier
func NewEntity(username, domain, passwordHash, passwordSalt string) *Entity {
	now := time.Now()
	return &Entity{
		ID:           ulid.Make(),
		Username:     username,
		Domain:       domain,
		PasswordHash: passwordHash,
		PasswordSalt: passwordSalt,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// EntityName returns the federated name, username@domain
func (e *Entity) EntityName() string {
	return e.Username + "@" + e.Domain
}

// EntityRepository defines the interface for entity persistence
type EntityRepository interface {
	// Create creates a new entity
	Create(ctx context.Context, entity *Entity) error

	// FindByID finds an entity by ID
	FindByID(ctx context.Context, id ulid.ULID) (*Entity, error)

	// FindByUsername finds an entity by username
	FindByUsername(ctx context.Context, username string) (*Entity, error)
}
