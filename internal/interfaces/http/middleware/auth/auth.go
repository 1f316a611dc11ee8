package auth

import (
	"errors"
	"net/http"
	"strings"

	"github.com/manorfm/identity-server/internal/domain"
	httperrors "github.com/manorfm/identity-server/internal/interfaces/http/errors"
	"go.uber.org/zap"
)

type AuthMiddleware struct {
	verifier domain.CredentialVerifier
	logger   *zap.Logger
}

func NewAuthMiddleware(verifier domain.CredentialVerifier, logger *zap.Logger) *AuthMiddleware {
	return &AuthMiddleware{verifier: verifier, logger: logger}
}

// Authenticator resolves the bearer token of the Authorization header and
// stores the principal in the request context. Tokens passed any other way
// are ignored.
func (m *AuthMiddleware) Authenticator(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := extractBearer(r)
		if token == "" {
			httperrors.RespondUnauthorized(w)
			return
		}

		principal, err := m.verifier.ResolveBearer(r.Context(), token)
		if err != nil {
			if errors.Is(err, domain.ErrUnauthorized) {
				httperrors.RespondUnauthorized(w)
				return
			}
			m.logger.Error("Failed to resolve bearer token", zap.Error(err))
			httperrors.RespondWithAppError(w, err)
			return
		}

		next.ServeHTTP(w, r.WithContext(domain.WithPrincipal(r.Context(), principal)))
	})
}

// RequireAdmin only lets through principals acting for an admin entity
func (m *AuthMiddleware) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		principal, ok := domain.GetPrincipal(r.Context())
		if !ok || principal.Entity == nil || !principal.Entity.Admin {
			httperrors.RespondWithAppError(w, domain.ErrForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// ResourceOwner authenticates the resource owner with HTTP Basic
// username:passwordHash and stores the entity in the request context.
func (m *AuthMiddleware) ResourceOwner(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		username, passwordHash, ok := r.BasicAuth()
		if !ok || username == "" {
			w.Header().Set("WWW-Authenticate", `Basic realm="identity"`)
			httperrors.RespondUnauthorized(w)
			return
		}

		entity, err := m.verifier.VerifyEntity(r.Context(), username, passwordHash)
		if err != nil {
			if errors.Is(err, domain.ErrInvalidCredentials) {
				m.logger.Debug("Resource owner authentication failed", zap.String("username", username))
				w.Header().Set("WWW-Authenticate", `Basic realm="identity"`)
				httperrors.RespondUnauthorized(w)
				return
			}
			m.logger.Error("Failed to verify resource owner", zap.Error(err))
			httperrors.RespondWithAppError(w, err)
			return
		}

		next.ServeHTTP(w, r.WithContext(domain.WithEntity(r.Context(), entity)))
	})
}

func extractBearer(r *http.Request) string {
	scheme, token, ok := strings.Cut(r.Header.Get("Authorization"), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}
