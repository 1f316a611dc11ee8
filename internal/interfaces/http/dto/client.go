package dto

import (
	"time"

	"github.com/manorfm/identity-server/internal/domain"
)

// ClientRequest is the body accepted when creating or updating a client.
// Credentials are restricted to alphanumerics so that raw and
// form-url-encoded HTTP Basic credentials read the same; secrets stop at
// the 72 bytes bcrypt can hash.
type ClientRequest struct {
	Name         string   `json:"name" validate:"required,max=255"`
	ClientID     string   `json:"client_id" validate:"omitempty,max=255,alphanum"`
	ClientSecret string   `json:"client_secret" validate:"omitempty,max=72,alphanum"`
	RedirectURI  string   `json:"redirect_uri" validate:"required,url"`
	GrantTypes   []string `json:"grant_types" validate:"omitempty,dive,oneof=authorization_code implicit password client_credentials refresh_token"`
	Scope        string   `json:"scope"`
	Trusted      bool     `json:"trusted"`
}

type ClientResponse struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	ClientID    string    `json:"client_id"`
	RedirectURI string    `json:"redirect_uri"`
	GrantTypes  []string  `json:"grant_types"`
	Scope       string    `json:"scope,omitempty"`
	Trusted     bool      `json:"trusted"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ClientCreatedResponse carries the plain secret, shown only once
type ClientCreatedResponse struct {
	ClientResponse
	ClientSecret string `json:"client_secret,omitempty"`
}

func NewClientResponse(client *domain.Client) *ClientResponse {
	grantTypes := client.GrantTypes
	if grantTypes == nil {
		grantTypes = []string{}
	}
	return &ClientResponse{
		ID:          client.ID.String(),
		Name:        client.Name,
		ClientID:    client.ClientID,
		RedirectURI: client.RedirectURI,
		GrantTypes:  grantTypes,
		Scope:       client.Scope,
		Trusted:     client.Trusted,
		CreatedAt:   client.CreatedAt,
		UpdatedAt:   client.UpdatedAt,
	}
}

func NewClientResponses(clients []*domain.Client) []*ClientResponse {
	responses := make([]*ClientResponse, 0, len(clients))
	for _, c := range clients {
		responses = append(responses, NewClientResponse(c))
	}
	return responses
}

// TokenInfoResponse describes an issued token without revealing it
type TokenInfoResponse struct {
	ID        string     `json:"id"`
	Type      string     `json:"type"`
	EntityID  string     `json:"entity_id,omitempty"`
	ClientID  string     `json:"client_id"`
	Scope     string     `json:"scope,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

func NewTokenInfoResponse(token *domain.AccessToken) *TokenInfoResponse {
	resp := &TokenInfoResponse{
		ID:        token.ID.String(),
		Type:      string(token.Type),
		ClientID:  token.ClientID.String(),
		Scope:     token.Scope,
		CreatedAt: token.CreatedAt,
		ExpiresAt: token.ExpiresAt,
	}
	if token.EntityID != nil {
		resp.EntityID = token.EntityID.String()
	}
	return resp
}

func NewTokenInfoResponses(tokens []*domain.AccessToken) []*TokenInfoResponse {
	responses := make([]*TokenInfoResponse, 0, len(tokens))
	for _, t := range tokens {
		responses = append(responses, NewTokenInfoResponse(t))
	}
	return responses
}
