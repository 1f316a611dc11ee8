package errors

import (
	"encoding/json"
	stderrors "errors"
	"net/http"

	"github.com/manorfm/identity-server/internal/domain"
)

// ErrorResponse represents the standard error response structure
type ErrorResponse struct {
	Code    string        `json:"code"`
	Message string        `json:"message"`
	Details []ErrorDetail `json:"details,omitempty"`
}

// ErrorDetail represents a validation error detail
type ErrorDetail struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Error codes
const (
	ErrCodeAuthorization  = "ERR_001"
	ErrCodeAuthentication = "ERR_002"
	ErrCodeValidation     = "ERR_003"
	ErrCodeInternal       = "ERR_004"
	ErrCodeNotFound       = "ERR_005"
	ErrCodeRateLimited    = "ERR_006"
)

// RespondWithError sends a standardized error response
func RespondWithError(w http.ResponseWriter, code string, message string, details []ErrorDetail, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(ErrorResponse{
		Code:    code,
		Message: message,
		Details: details,
	})
}

// RespondUnauthorized is the single answer for every failed bearer check
func RespondUnauthorized(w http.ResponseWriter) {
	RespondWithError(w, ErrCodeAuthentication, domain.ErrUnauthorized.GetMessage(), nil, http.StatusUnauthorized)
}

// RespondWithAppError renders a domain error. Anything that is not a
// domain.Error is reported as an opaque internal error.
func RespondWithAppError(w http.ResponseWriter, err error) {
	var appErr domain.Error
	if !stderrors.As(err, &appErr) {
		appErr = domain.ErrInternal
	}
	RespondWithError(w, appErr.GetCode(), appErr.GetMessage(), nil, statusFor(appErr))
}

// RespondValidationError renders field level validation failures
func RespondValidationError(w http.ResponseWriter, details []ErrorDetail) {
	RespondWithError(w, domain.ErrInvalidField.GetCode(), domain.ErrInvalidField.GetMessage(), details, http.StatusBadRequest)
}

func statusFor(err domain.Error) int {
	switch err.GetCode() {
	case domain.ErrEntityNotFound.GetCode(),
		domain.ErrClientNotFound.GetCode(),
		domain.ErrTokenNotFound.GetCode(),
		domain.ErrNotFound.GetCode():
		return http.StatusNotFound
	case domain.ErrUnauthorized.GetCode(),
		domain.ErrInvalidCredentials.GetCode():
		return http.StatusUnauthorized
	case domain.ErrForbidden.GetCode():
		return http.StatusForbidden
	case domain.ErrClientAlreadyExists.GetCode(),
		domain.ErrEntityAlreadyExists.GetCode():
		return http.StatusConflict
	case domain.ErrDatabaseQuery.GetCode(),
		domain.ErrInternal.GetCode():
		return http.StatusInternalServerError
	}
	return http.StatusBadRequest
}
