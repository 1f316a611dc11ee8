package handlers

import (
	"math/rand/v2"
	"net/http"

	"github.com/manorfm/identity-server/internal/domain"
	"github.com/manorfm/identity-server/internal/interfaces/http/dto"
	httperrors "github.com/manorfm/identity-server/internal/interfaces/http/errors"
	"go.uber.org/zap"
)

// ResourceHandler serves the sample bearer protected resources
type ResourceHandler struct {
	logger *zap.Logger
}

func NewResourceHandler(logger *zap.Logger) *ResourceHandler {
	return &ResourceHandler{logger: logger}
}

// RandomNumberHandler godoc
// @Summary Get a random number
// @Tags resources
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.RandomNumberResponse
// @Failure 401 {object} errors.ErrorResponse
// @Router /auth/random-number [get]
func (h *ResourceHandler) RandomNumberHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, dto.RandomNumberResponse{Number: rand.Int64N(1 << 53)})
}

// MeHandler godoc
// @Summary Describe the bearer token in use
// @Tags resources
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.PrincipalResponse
// @Failure 401 {object} errors.ErrorResponse
// @Router /auth/me [get]
func (h *ResourceHandler) MeHandler(w http.ResponseWriter, r *http.Request) {
	principal, ok := domain.GetPrincipal(r.Context())
	if !ok {
		httperrors.RespondUnauthorized(w)
		return
	}
	writeJSON(w, http.StatusOK, dto.NewPrincipalResponse(principal))
}
