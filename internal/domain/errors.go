package domain

// Error is implemented by every business error exposed through the API.
type Error interface {
	error
	GetCode() string
	GetMessage() string
}

// BusinessError is a coded application error
type BusinessError struct {
	Code    string
	Message string
}

// NewBusinessError creates a new business error
func NewBusinessError(code, message string) *BusinessError {
	return &BusinessError{
		Code:    code,
		Message: message,
	}
}

func (e *BusinessError) Error() string {
	return e.Message
}

// GetCode returns the error code
func (e *BusinessError) GetCode() string {
	return e.Code
}

// GetMessage returns the error message
func (e *BusinessError) GetMessage() string {
	return e.Message
}

var (
	// ErrEntityNotFound is returned when no entity matches the lookup
	ErrEntityNotFound = NewBusinessError("E0001", "Entity not found")

	// ErrInvalidCredentials is returned when a resource owner fails to authenticate
	ErrInvalidCredentials = NewBusinessError("E0002", "Invalid credentials")

	// ErrEntityAlreadyExists is returned when the username is taken
	ErrEntityAlreadyExists = NewBusinessError("E0003", "Entity already exists")

	// ErrClientNotFound is returned when no client matches the lookup
	ErrClientNotFound = NewBusinessError("C0001", "Client not found")

	// ErrClientAlreadyExists is returned when the public client id is taken
	ErrClientAlreadyExists = NewBusinessError("C0002", "Client already exists")

	// ErrTokenNotFound is returned when no token matches the lookup
	ErrTokenNotFound = NewBusinessError("T0001", "Token not found")

	// ErrNotFound is returned by the key/value stores for missing or expired keys
	ErrNotFound = NewBusinessError("S0001", "Not found")

	// ErrUnauthorized is returned when a bearer token cannot be resolved
	ErrUnauthorized = NewBusinessError("A0001", "Unauthorized")

	// ErrForbidden is returned when the principal lacks rights
	ErrForbidden = NewBusinessError("A0002", "Forbidden")

	// ErrInvalidField is returned when a request field fails validation
	ErrInvalidField = NewBusinessError("V0001", "Invalid field")

	// ErrInvalidID is returned when an identifier cannot be parsed
	ErrInvalidID = NewBusinessError("V0002", "Invalid identifier")

	// ErrDatabaseQuery is returned when a storage query fails
	ErrDatabaseQuery = NewBusinessError("I0001", "Database query failed")

	// ErrInternal is returned when there is an internal server error
	ErrInternal = NewBusinessError("I0002", "Internal server error")
)
