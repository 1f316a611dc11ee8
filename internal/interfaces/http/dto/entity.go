package dto

import (
	"time"

	"github.com/manorfm/identity-server/internal/domain"
)

// EntityRequest registers a resource owner. The password hash is derived by
// the caller from the salt; plain passwords never reach the server.
type EntityRequest struct {
	Username     string `json:"username" validate:"required,max=255"`
	Domain       string `json:"domain" validate:"required,hostname_rfc1123,max=255"`
	PasswordHash string `json:"password_hash" validate:"required,max=512"`
	PasswordSalt string `json:"password_salt" validate:"required,max=255"`
	Admin        bool   `json:"admin"`
}

type EntityResponse struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Domain    string    `json:"domain"`
	Entity    string    `json:"entity"`
	Admin     bool      `json:"admin"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func NewEntityResponse(entity *domain.Entity) *EntityResponse {
	return &EntityResponse{
		ID:        entity.ID.String(),
		Username:  entity.Username,
		Domain:    entity.Domain,
		Entity:    entity.EntityName(),
		Admin:     entity.Admin,
		CreatedAt: entity.CreatedAt,
		UpdatedAt: entity.UpdatedAt,
	}
}
