package handlers

import (
	"context"
	"net/http"

	"github.com/manorfm/identity-server/internal/application"
	"github.com/manorfm/identity-server/internal/domain"
	"github.com/manorfm/identity-server/internal/interfaces/http/dto"
	httperrors "github.com/manorfm/identity-server/internal/interfaces/http/errors"
	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"
)

// EntityManager is the entity administration the handler relies on
type EntityManager interface {
	Register(ctx context.Context, reg application.EntityRegistration) (*domain.Entity, error)
	Get(ctx context.Context, id ulid.ULID) (*domain.Entity, error)
}

type EntityHandler struct {
	service EntityManager
	logger  *zap.Logger
}

func NewEntityHandler(service EntityManager, logger *zap.Logger) *EntityHandler {
	return &EntityHandler{
		service: service,
		logger:  logger,
	}
}

// CreateEntityHandler godoc
// @Summary Register a resource owner
// @Tags entities
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param entity body dto.EntityRequest true "Entity"
// @Success 201 {object} dto.EntityResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 409 {object} errors.ErrorResponse
// @Router /entities [post]
func (h *EntityHandler) CreateEntityHandler(w http.ResponseWriter, r *http.Request) {
	var req dto.EntityRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	entity, err := h.service.Register(r.Context(), application.EntityRegistration{
		Username:     req.Username,
		Domain:       req.Domain,
		PasswordHash: req.PasswordHash,
		PasswordSalt: req.PasswordSalt,
		Admin:        req.Admin,
	})
	if err != nil {
		h.logger.Error("Failed to register entity", zap.String("username", req.Username), zap.Error(err))
		httperrors.RespondWithAppError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, dto.NewEntityResponse(entity))
}

// GetEntityHandler godoc
// @Summary Get a resource owner
// @Tags entities
// @Produce json
// @Security BearerAuth
// @Param id path string true "Entity ID"
// @Success 200 {object} dto.EntityResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /entities/{id} [get]
func (h *EntityHandler) GetEntityHandler(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		httperrors.RespondWithAppError(w, err)
		return
	}

	entity, err := h.service.Get(r.Context(), id)
	if err != nil {
		httperrors.RespondWithAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.NewEntityResponse(entity))
}
