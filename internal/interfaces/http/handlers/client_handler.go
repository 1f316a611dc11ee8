package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/manorfm/identity-server/internal/application"
	"github.com/manorfm/identity-server/internal/domain"
	"github.com/manorfm/identity-server/internal/interfaces/http/dto"
	httperrors "github.com/manorfm/identity-server/internal/interfaces/http/errors"
	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// ClientManager is the client administration the handler relies on
type ClientManager interface {
	Register(ctx context.Context, reg application.ClientRegistration) (*domain.Client, string, error)
	Update(ctx context.Context, id ulid.ULID, reg application.ClientRegistration) (*domain.Client, error)
	Get(ctx context.Context, id ulid.ULID) (*domain.Client, error)
	List(ctx context.Context, limit, offset int) ([]*domain.Client, error)
	Delete(ctx context.Context, id ulid.ULID) error
	Tokens(ctx context.Context, id ulid.ULID) ([]*domain.AccessToken, error)
	RevokeToken(ctx context.Context, id ulid.ULID) error
}

// ClientHandler handles client and token administration
type ClientHandler struct {
	service ClientManager
	logger  *zap.Logger
}

func NewClientHandler(service ClientManager, logger *zap.Logger) *ClientHandler {
	return &ClientHandler{
		service: service,
		logger:  logger,
	}
}

func registrationFrom(req dto.ClientRequest) application.ClientRegistration {
	return application.ClientRegistration{
		Name:         req.Name,
		ClientID:     req.ClientID,
		ClientSecret: req.ClientSecret,
		RedirectURI:  req.RedirectURI,
		GrantTypes:   req.GrantTypes,
		Scope:        req.Scope,
		Trusted:      req.Trusted,
	}
}

// CreateClientHandler godoc
// @Summary Register a client
// @Tags clients
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param client body dto.ClientRequest true "Client"
// @Success 201 {object} dto.ClientCreatedResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 409 {object} errors.ErrorResponse
// @Router /clients [post]
func (h *ClientHandler) CreateClientHandler(w http.ResponseWriter, r *http.Request) {
	var req dto.ClientRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	client, secret, err := h.service.Register(r.Context(), registrationFrom(req))
	if err != nil {
		h.logger.Error("Failed to register client", zap.Error(err))
		httperrors.RespondWithAppError(w, err)
		return
	}

	h.logger.Info("Client registered", zap.String("client_id", client.ClientID))
	writeJSON(w, http.StatusCreated, dto.ClientCreatedResponse{
		ClientResponse: *dto.NewClientResponse(client),
		ClientSecret:   secret,
	})
}

// ListClientsHandler godoc
// @Summary List clients
// @Tags clients
// @Produce json
// @Security BearerAuth
// @Param limit query int false "Page size"
// @Param offset query int false "Offset"
// @Success 200 {array} dto.ClientResponse
// @Router /clients [get]
func (h *ClientHandler) ListClientsHandler(w http.ResponseWriter, r *http.Request) {
	limit, offset, details := pagination(r)
	if len(details) > 0 {
		httperrors.RespondValidationError(w, details)
		return
	}

	clients, err := h.service.List(r.Context(), limit, offset)
	if err != nil {
		h.logger.Error("Failed to list clients", zap.Error(err))
		httperrors.RespondWithAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.NewClientResponses(clients))
}

// GetClientHandler godoc
// @Summary Get a client
// @Tags clients
// @Produce json
// @Security BearerAuth
// @Param id path string true "Client record ID"
// @Success 200 {object} dto.ClientResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /clients/{id} [get]
func (h *ClientHandler) GetClientHandler(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		httperrors.RespondWithAppError(w, err)
		return
	}

	client, err := h.service.Get(r.Context(), id)
	if err != nil {
		httperrors.RespondWithAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.NewClientResponse(client))
}

// UpdateClientHandler godoc
// @Summary Update a client
// @Tags clients
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Client record ID"
// @Param client body dto.ClientRequest true "Client"
// @Success 200 {object} dto.ClientResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /clients/{id} [put]
func (h *ClientHandler) UpdateClientHandler(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		httperrors.RespondWithAppError(w, err)
		return
	}

	var req dto.ClientRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	client, err := h.service.Update(r.Context(), id, registrationFrom(req))
	if err != nil {
		h.logger.Error("Failed to update client", zap.String("id", id.String()), zap.Error(err))
		httperrors.RespondWithAppError(w, err)
		return
	}

	h.logger.Info("Client updated", zap.String("client_id", client.ClientID))
	writeJSON(w, http.StatusOK, dto.NewClientResponse(client))
}

// DeleteClientHandler godoc
// @Summary Delete a client and revoke its tokens
// @Tags clients
// @Security BearerAuth
// @Param id path string true "Client record ID"
// @Success 204
// @Failure 404 {object} errors.ErrorResponse
// @Router /clients/{id} [delete]
func (h *ClientHandler) DeleteClientHandler(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		httperrors.RespondWithAppError(w, err)
		return
	}

	if err := h.service.Delete(r.Context(), id); err != nil {
		h.logger.Error("Failed to delete client", zap.String("id", id.String()), zap.Error(err))
		httperrors.RespondWithAppError(w, err)
		return
	}

	h.logger.Info("Client deleted", zap.String("id", id.String()))
	w.WriteHeader(http.StatusNoContent)
}

// ListTokensHandler godoc
// @Summary List the tokens issued to a client
// @Tags tokens
// @Produce json
// @Security BearerAuth
// @Param id path string true "Client record ID"
// @Success 200 {array} dto.TokenInfoResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /clients/{id}/tokens [get]
func (h *ClientHandler) ListTokensHandler(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		httperrors.RespondWithAppError(w, err)
		return
	}

	tokens, err := h.service.Tokens(r.Context(), id)
	if err != nil {
		httperrors.RespondWithAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.NewTokenInfoResponses(tokens))
}

// RevokeTokenHandler godoc
// @Summary Revoke a token
// @Tags tokens
// @Security BearerAuth
// @Param id path string true "Token record ID"
// @Success 204
// @Failure 404 {object} errors.ErrorResponse
// @Router /tokens/{id} [delete]
func (h *ClientHandler) RevokeTokenHandler(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		httperrors.RespondWithAppError(w, err)
		return
	}

	if err := h.service.RevokeToken(r.Context(), id); err != nil {
		httperrors.RespondWithAppError(w, err)
		return
	}

	h.logger.Info("Token revoked", zap.String("id", id.String()))
	w.WriteHeader(http.StatusNoContent)
}

func pagination(r *http.Request) (int, int, []httperrors.ErrorDetail) {
	var details []httperrors.ErrorDetail
	limit, offset := defaultPageSize, 0

	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > maxPageSize {
			details = append(details, httperrors.ErrorDetail{Field: "limit", Message: "must be between 1 and 100"})
		}
		limit = n
	}
	if v := r.URL.Query().Get("offset"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			details = append(details, httperrors.ErrorDetail{Field: "offset", Message: "must be a non-negative integer"})
		}
		offset = n
	}
	return limit, offset, details
}
