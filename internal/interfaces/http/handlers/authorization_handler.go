package handlers

import (
	"errors"
	"net/http"

	"github.com/manorfm/identity-server/internal/domain"
	"github.com/manorfm/identity-server/internal/interfaces/http/dto"
	httperrors "github.com/manorfm/identity-server/internal/interfaces/http/errors"
	"go.uber.org/zap"
)

type decisionForm struct {
	TransactionID string `validate:"required,alphanum"`
	Scope         string
}

// AuthorizationHandler serves the authorization and decision endpoints.
// Both expect the resource owner in the request context.
type AuthorizationHandler struct {
	service domain.AuthorizationService
	logger  *zap.Logger
}

func NewAuthorizationHandler(service domain.AuthorizationService, logger *zap.Logger) *AuthorizationHandler {
	return &AuthorizationHandler{
		service: service,
		logger:  logger,
	}
}

// AuthorizeHandler godoc
// @Summary Start an authorization request
// @Tags oauth
// @Param client_id query string true "Client ID"
// @Param redirect_uri query string true "Registered redirect URI"
// @Param response_type query string true "code or token"
// @Param scope query string false "Requested scope"
// @Param state query string false "Opaque client state"
// @Success 200 {object} dto.ConsentResponse
// @Success 302
// @Router /auth/authorize [get]
func (h *AuthorizationHandler) AuthorizeHandler(w http.ResponseWriter, r *http.Request) {
	entity, ok := domain.GetEntity(r.Context())
	if !ok {
		httperrors.RespondUnauthorized(w)
		return
	}

	q := r.URL.Query()
	outcome, err := h.service.Authorize(r.Context(), entity, domain.AuthorizationRequest{
		ClientID:     q.Get("client_id"),
		RedirectURI:  q.Get("redirect_uri"),
		ResponseType: q.Get("response_type"),
		Scope:        q.Get("scope"),
		State:        q.Get("state"),
	})
	if err != nil {
		h.respondError(w, err)
		return
	}
	h.respondOutcome(w, r, outcome)
}

// DecisionHandler godoc
// @Summary Approve or deny a pending authorization request
// @Tags oauth
// @Accept x-www-form-urlencoded
// @Param transaction_id formData string true "Transaction ID from the consent prompt"
// @Param scope formData string false "Narrowed scope"
// @Param cancel formData string false "Present to deny"
// @Success 302
// @Router /auth/decision [post]
func (h *AuthorizationHandler) DecisionHandler(w http.ResponseWriter, r *http.Request) {
	entity, ok := domain.GetEntity(r.Context())
	if !ok {
		httperrors.RespondUnauthorized(w)
		return
	}

	params, err := readParams(w, r)
	if err != nil {
		httperrors.RespondWithOAuthError(w, domain.ErrInvalidRequest.WithDescription("malformed request body"))
		return
	}
	form := decisionForm{
		TransactionID: params.Get("transaction_id"),
		Scope:         params.Get("scope"),
	}
	if err := validate.Struct(form); err != nil {
		httperrors.RespondWithOAuthError(w, domain.ErrInvalidRequest.WithDescription("transaction_id is missing or malformed"))
		return
	}
	approved := !params.Has("cancel") && params.Get("approve") != "false"

	outcome, err := h.service.Decide(r.Context(), entity, domain.DecisionRequest{
		TransactionID: form.TransactionID,
		Approved:      approved,
		Scope:         form.Scope,
	})
	if err != nil {
		h.respondError(w, err)
		return
	}
	h.respondOutcome(w, r, outcome)
}

func (h *AuthorizationHandler) respondOutcome(w http.ResponseWriter, r *http.Request, outcome *domain.AuthorizationOutcome) {
	if outcome.State == domain.StateConsentPending {
		w.Header().Set("Cache-Control", "no-store")
		writeJSON(w, http.StatusOK, dto.NewConsentResponse(outcome.Consent))
		return
	}

	h.logger.Debug("Authorization finished", zap.String("state", string(outcome.State)))
	w.Header().Set("Cache-Control", "no-store")
	http.Redirect(w, r, outcome.RedirectURL, http.StatusFound)
}

// respondError answers directly. Only errors the redirect URI cannot be
// trusted for reach this point.
func (h *AuthorizationHandler) respondError(w http.ResponseWriter, err error) {
	var oauthErr *domain.OAuthError
	if !errors.As(err, &oauthErr) {
		h.logger.Error("Authorization request failed", zap.Error(err))
	}
	httperrors.RespondWithOAuthError(w, err)
}
