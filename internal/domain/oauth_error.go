package domain

// OAuthError is an error defined by RFC 6749. Two OAuthErrors match with
// errors.Is when their codes are equal, whatever the description.
type OAuthError struct {
	Code        string
	Description string
}

func (e *OAuthError) Error() string {
	if e.Description == "" {
		return e.Code
	}
	return e.Code + ": " + e.Description
}

// Is reports whether target is an OAuthError with the same code
func (e *OAuthError) Is(target error) bool {
	t, ok := target.(*OAuthError)
	return ok && t.Code == e.Code
}

// WithDescription returns a copy of the error carrying the given description
func (e *OAuthError) WithDescription(description string) *OAuthError {
	return &OAuthError{
		Code:        e.Code,
		Description: description,
	}
}

var (
	ErrInvalidRequest          = &OAuthError{Code: "invalid_request", Description: "The request is missing a required parameter or is otherwise malformed"}
	ErrInvalidClient           = &OAuthError{Code: "invalid_client", Description: "Client authentication failed"}
	ErrInvalidGrant            = &OAuthError{Code: "invalid_grant", Description: "The provided authorization grant is invalid"}
	ErrUnauthorizedClient      = &OAuthError{Code: "unauthorized_client", Description: "The client is not authorized to perform this request"}
	ErrUnsupportedGrantType    = &OAuthError{Code: "unsupported_grant_type", Description: "The authorization grant type is not supported"}
	ErrUnsupportedResponseType = &OAuthError{Code: "unsupported_response_type", Description: "The response type is not supported"}
	ErrInvalidScope            = &OAuthError{Code: "invalid_scope", Description: "The requested scope is invalid"}
	ErrAccessDenied            = &OAuthError{Code: "access_denied", Description: "The resource owner denied the request"}
	ErrServerError             = &OAuthError{Code: "server_error", Description: "The server encountered an unexpected condition"}
)
