package errors

import (
	"encoding/json"
	stderrors "errors"
	"net/http"

	"github.com/manorfm/identity-server/internal/domain"
)

// OAuthErrorResponse is the RFC 6749 error body
type OAuthErrorResponse struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description,omitempty"`
}

// OAuthStatus returns the HTTP status used for an RFC 6749 error code
func OAuthStatus(code string) int {
	switch code {
	case domain.ErrInvalidClient.Code:
		return http.StatusUnauthorized
	case domain.ErrInvalidGrant.Code,
		domain.ErrUnauthorizedClient.Code,
		domain.ErrAccessDenied.Code:
		return http.StatusForbidden
	case domain.ErrServerError.Code:
		return http.StatusInternalServerError
	}
	return http.StatusBadRequest
}

// RespondWithOAuthError renders err as an RFC 6749 error. Errors that are
// not OAuth errors become server_error with no detail.
func RespondWithOAuthError(w http.ResponseWriter, err error) {
	var oauthErr *domain.OAuthError
	if !stderrors.As(err, &oauthErr) {
		oauthErr = &domain.OAuthError{Code: domain.ErrServerError.Code}
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("Pragma", "no-cache")
	w.WriteHeader(OAuthStatus(oauthErr.Code))
	json.NewEncoder(w).Encode(OAuthErrorResponse{
		Error:            oauthErr.Code,
		ErrorDescription: oauthErr.Description,
	})
}
