package dto

import (
	"time"

	"github.com/manorfm/identity-server/internal/domain"
)

// TokenResponse is the RFC 6749 section 5.1 success body
type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type"`
	RefreshToken string `json:"refresh_token,omitempty"`
	ExpiresIn    int    `json:"expires_in,omitempty"`
	Scope        string `json:"scope,omitempty"`
}

func NewTokenResponse(bundle *domain.TokenBundle, now time.Time) *TokenResponse {
	resp := &TokenResponse{
		AccessToken: bundle.AccessToken.Token,
		TokenType:   "Bearer",
		ExpiresIn:   bundle.AccessToken.ExpiresIn(now),
		Scope:       bundle.AccessToken.Scope,
	}
	if bundle.RefreshToken != nil {
		resp.RefreshToken = bundle.RefreshToken.Token
	}
	return resp
}

type ConsentClient struct {
	ClientID string `json:"client_id"`
	Name     string `json:"name"`
}

// ConsentResponse asks the resource owner to approve a pending transaction
type ConsentResponse struct {
	TransactionID string        `json:"transaction_id"`
	Client        ConsentClient `json:"client"`
	Scope         string        `json:"scope,omitempty"`
	Entity        string        `json:"entity"`
}

func NewConsentResponse(prompt *domain.ConsentPrompt) *ConsentResponse {
	return &ConsentResponse{
		TransactionID: prompt.TransactionID,
		Client: ConsentClient{
			ClientID: prompt.Client.ClientID,
			Name:     prompt.Client.Name,
		},
		Scope:  prompt.Scope,
		Entity: prompt.Entity.EntityName(),
	}
}

type SaltResponse struct {
	Salt string `json:"salt"`
}

type RandomNumberResponse struct {
	Number int64 `json:"number"`
}

// PrincipalResponse echoes who a bearer token was issued to
type PrincipalResponse struct {
	Entity   string `json:"entity,omitempty"`
	ClientID string `json:"client_id"`
	Scope    string `json:"scope,omitempty"`
}

func NewPrincipalResponse(principal *domain.Principal) *PrincipalResponse {
	resp := &PrincipalResponse{
		ClientID: principal.Client.ClientID,
		Scope:    principal.Token.Scope,
	}
	if principal.Entity != nil {
		resp.Entity = principal.Entity.EntityName()
	}
	return resp
}
