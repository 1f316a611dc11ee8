package domain

import "context"

// ContextKey is a type for context keys to avoid magic strings
type ContextKey string

const (
	// ContextKeyPrincipal is the key for the bearer principal in the context
	ContextKeyPrincipal ContextKey = "principal"
	// ContextKeyEntity is the key for the authenticated resource owner in the context
	ContextKeyEntity ContextKey = "entity"
	// ContextKeyRequestID is the key for the request ID in the context
	ContextKeyRequestID ContextKey = "request_id"
)

// WithPrincipal adds the bearer principal to the context
func WithPrincipal(ctx context.Context, principal *Principal) context.Context {
	return context.WithValue(ctx, ContextKeyPrincipal, principal)
}

// WithEntity adds the authenticated resource owner to the context
func WithEntity(ctx context.Context, entity *Entity) context.Context {
	return context.WithValue(ctx, ContextKeyEntity, entity)
}

// WithRequestID adds the request ID to the context
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, ContextKeyRequestID, requestID)
}

// GetPrincipal retrieves the bearer principal from the context
func GetPrincipal(ctx context.Context) (*Principal, bool) {
	principal, ok := ctx.Value(ContextKeyPrincipal).(*Principal)
	return principal, ok && principal != nil
}

// GetEntity retrieves the authenticated resource owner from the context
func GetEntity(ctx context.Context) (*Entity, bool) {
	entity, ok := ctx.Value(ContextKeyEntity).(*Entity)
	return entity, ok && entity != nil
}

// GetRequestID retrieves the request ID from the context
func GetRequestID(ctx context.Context) (string, bool) {
	requestID, ok := ctx.Value(ContextKeyRequestID).(string)
	return requestID, ok
}
