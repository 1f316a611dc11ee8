package handlers

import (
	"errors"
	"net/http"
	"net/url"
	"time"

	"github.com/manorfm/identity-server/internal/domain"
	"github.com/manorfm/identity-server/internal/interfaces/http/dto"
	httperrors "github.com/manorfm/identity-server/internal/interfaces/http/errors"
	"go.uber.org/zap"
)

// TokenHandler serves the token endpoint
type TokenHandler struct {
	grants   domain.GrantService
	verifier domain.CredentialVerifier
	logger   *zap.Logger
	now      func() time.Time
}

func NewTokenHandler(grants domain.GrantService, verifier domain.CredentialVerifier, logger *zap.Logger) *TokenHandler {
	return &TokenHandler{
		grants:   grants,
		verifier: verifier,
		logger:   logger,
		now:      time.Now,
	}
}

// TokenHandler authenticates the client and dispatches on grant_type
func (h *TokenHandler) TokenHandler(w http.ResponseWriter, r *http.Request) {
	params, err := readParams(w, r)
	if err != nil {
		h.logger.Debug("Malformed token request", zap.Error(err))
		httperrors.RespondWithOAuthError(w, domain.ErrInvalidRequest.WithDescription("malformed request body"))
		return
	}

	client, usedBasic, err := h.authenticateClient(r, params)
	if err != nil {
		if usedBasic && errors.Is(err, domain.ErrInvalidClient) {
			w.Header().Set("WWW-Authenticate", `Basic realm="identity"`)
		}
		h.respondError(w, err)
		return
	}

	var bundle *domain.TokenBundle
	ctx := r.Context()
	switch grantType := params.Get("grant_type"); grantType {
	case domain.GrantTypeAuthorizationCode:
		bundle, err = h.grants.ExchangeCode(ctx, client, params.Get("code"), params.Get("redirect_uri"))
	case domain.GrantTypePassword:
		passwordHash := params.Get("passwordHash")
		if passwordHash == "" {
			passwordHash = params.Get("password")
		}
		bundle, err = h.grants.ExchangePassword(ctx, client, params.Get("username"), passwordHash, params.Get("scope"))
	case domain.GrantTypeClientCredentials:
		bundle, err = h.grants.ExchangeClientCredentials(ctx, client, params.Get("scope"))
	case domain.GrantTypeRefreshToken:
		bundle, err = h.grants.ExchangeRefreshToken(ctx, client, params.Get("refresh_token"), params.Get("scope"))
	case "":
		err = domain.ErrInvalidRequest.WithDescription("grant_type is required")
	default:
		h.logger.Debug("Unsupported grant type", zap.String("grant_type", grantType))
		err = domain.ErrUnsupportedGrantType
	}
	if err != nil {
		h.respondError(w, err)
		return
	}

	h.logger.Info("Token issued",
		zap.String("client_id", client.ClientID),
		zap.String("grant_type", params.Get("grant_type")))

	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("Pragma", "no-cache")
	writeJSON(w, http.StatusOK, dto.NewTokenResponse(bundle, h.now()))
}

// authenticateClient reads client credentials from HTTP Basic or from the
// body, never both. Basic credentials are form-url-encoded per RFC 6749
// section 2.3.1.
func (h *TokenHandler) authenticateClient(r *http.Request, params url.Values) (*domain.Client, bool, error) {
	bodyID, bodySecret := params.Get("client_id"), params.Get("client_secret")

	clientID, clientSecret, usedBasic := r.BasicAuth()
	if usedBasic {
		if bodyID != "" || bodySecret != "" {
			return nil, true, domain.ErrInvalidRequest.WithDescription("client credentials supplied more than once")
		}
		var err error
		if clientID, err = url.QueryUnescape(clientID); err != nil {
			return nil, true, domain.ErrInvalidClient
		}
		if clientSecret, err = url.QueryUnescape(clientSecret); err != nil {
			return nil, true, domain.ErrInvalidClient
		}
	} else {
		clientID, clientSecret = bodyID, bodySecret
	}

	if clientID == "" {
		return nil, usedBasic, domain.ErrInvalidClient.WithDescription("client authentication required")
	}

	client, err := h.verifier.VerifyClient(r.Context(), clientID, clientSecret)
	if err != nil {
		return nil, usedBasic, err
	}
	return client, usedBasic, nil
}

func (h *TokenHandler) respondError(w http.ResponseWriter, err error) {
	var oauthErr *domain.OAuthError
	if !errors.As(err, &oauthErr) {
		h.logger.Error("Token request failed", zap.Error(err))
	}
	httperrors.RespondWithOAuthError(w, err)
}
