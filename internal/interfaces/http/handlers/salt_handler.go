package handlers

import (
	"net/http"

	"github.com/manorfm/identity-server/internal/domain"
	"github.com/manorfm/identity-server/internal/interfaces/http/dto"
	httperrors "github.com/manorfm/identity-server/internal/interfaces/http/errors"
	"go.uber.org/zap"
)

type SaltHandler struct {
	service domain.SaltService
	logger  *zap.Logger
}

func NewSaltHandler(service domain.SaltService, logger *zap.Logger) *SaltHandler {
	return &SaltHandler{
		service: service,
		logger:  logger,
	}
}

// SaltHandler godoc
// @Summary Get the password salt of a resource owner
// @Tags auth
// @Produce json
// @Param username query string true "Username"
// @Success 200 {object} dto.SaltResponse
// @Failure 400 {object} errors.ErrorResponse
// @Router /auth/salt [get]
func (h *SaltHandler) SaltHandler(w http.ResponseWriter, r *http.Request) {
	salt, err := h.service.Salt(r.Context(), r.URL.Query().Get("username"))
	if err != nil {
		h.logger.Debug("Failed to get salt", zap.Error(err))
		httperrors.RespondWithAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.SaltResponse{Salt: salt})
}
