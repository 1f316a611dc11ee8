package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/manorfm/identity-server/internal/domain"
	"github.com/manorfm/identity-server/internal/infrastructure/database"
	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"
)

type TokenRepository struct {
	logger *zap.Logger
	db     *database.Postgres
}

func NewTokenRepository(db *database.Postgres, logger *zap.Logger) *TokenRepository {
	return &TokenRepository{db: db, logger: logger}
}

const tokenColumns = `id, token, type, entity_id, client_id, scope, created_at, expires_at`

// Create inserts every token inside one transaction so a grant never
// persists an access token without its refresh token.
func (r *TokenRepository) Create(ctx context.Context, tokens ...*domain.AccessToken) error {
	tx, err := r.db.BeginTx(ctx)
	if err != nil {
		r.logger.Error("failed to begin token transaction", zap.Error(err))
		return domain.ErrDatabaseQuery
	}
	defer tx.Rollback(ctx)

	for _, token := range tokens {
		var entityID *string
		if token.EntityID != nil {
			id := token.EntityID.String()
			entityID = &id
		}
		_, err := tx.Exec(ctx, `
			INSERT INTO access_tokens (`+tokenColumns+`)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		`, token.ID.String(), token.Token, string(token.Type), entityID, token.ClientID.String(),
			token.Scope, token.CreatedAt, token.ExpiresAt)
		if err != nil {
			r.logger.Error("failed to insert token", zap.String("token_id", token.ID.String()), zap.Error(err))
			return domain.ErrDatabaseQuery
		}
	}

	if err := tx.Commit(ctx); err != nil {
		r.logger.Error("failed to commit token transaction", zap.Error(err))
		return domain.ErrDatabaseQuery
	}
	return nil
}

func (r *TokenRepository) FindByID(ctx context.Context, id ulid.ULID) (*domain.AccessToken, error) {
	row := r.db.QueryRow(ctx, `SELECT `+tokenColumns+` FROM access_tokens WHERE id = $1`, id.String())
	return r.scan(row, "failed to find token by id")
}

func (r *TokenRepository) FindByToken(ctx context.Context, token string, tokenType domain.TokenType) (*domain.AccessToken, error) {
	row := r.db.QueryRow(ctx, `
		SELECT `+tokenColumns+` FROM access_tokens WHERE token = $1 AND type = $2
	`, token, string(tokenType))
	return r.scan(row, "failed to find token")
}

func (r *TokenRepository) FindActiveForEntityAndClient(ctx context.Context, entityID, clientID ulid.ULID, now time.Time) (*domain.AccessToken, error) {
	row := r.db.QueryRow(ctx, `
		SELECT `+tokenColumns+`
		FROM access_tokens
		WHERE entity_id = $1 AND client_id = $2 AND type = $3
		  AND (expires_at IS NULL OR expires_at > $4)
		ORDER BY created_at DESC
		LIMIT 1
	`, entityID.String(), clientID.String(), string(domain.TokenTypeAccess), now)
	return r.scan(row, "failed to find active token")
}

func (r *TokenRepository) ListByClient(ctx context.Context, clientID ulid.ULID) ([]*domain.AccessToken, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+tokenColumns+`
		FROM access_tokens
		WHERE client_id = $1
		ORDER BY created_at DESC
	`, clientID.String())
	if err != nil {
		r.logger.Error("failed to list tokens", zap.Error(err))
		return nil, domain.ErrDatabaseQuery
	}
	defer rows.Close()

	tokens := []*domain.AccessToken{}
	for rows.Next() {
		token, err := r.scan(rows, "failed to scan token")
		if err != nil {
			return nil, err
		}
		tokens = append(tokens, token)
	}
	if err := rows.Err(); err != nil {
		r.logger.Error("failed to iterate tokens", zap.Error(err))
		return nil, domain.ErrDatabaseQuery
	}
	return tokens, nil
}

func (r *TokenRepository) Delete(ctx context.Context, id ulid.ULID) error {
	tag, err := r.db.Exec(ctx, "DELETE FROM access_tokens WHERE id = $1", id.String())
	if err != nil {
		return domain.ErrDatabaseQuery
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrTokenNotFound
	}
	return nil
}

func (r *TokenRepository) DeleteByClient(ctx context.Context, clientID ulid.ULID) error {
	if _, err := r.db.Exec(ctx, "DELETE FROM access_tokens WHERE client_id = $1", clientID.String()); err != nil {
		return domain.ErrDatabaseQuery
	}
	return nil
}

func (r *TokenRepository) scan(row pgx.Row, msg string) (*domain.AccessToken, error) {
	token := &domain.AccessToken{}
	var tokenType string
	var entityID *string
	err := row.Scan(&token.ID, &token.Token, &tokenType, &entityID, &token.ClientID,
		&token.Scope, &token.CreatedAt, &token.ExpiresAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrTokenNotFound
		}
		r.logger.Error(msg, zap.Error(err))
		return nil, domain.ErrDatabaseQuery
	}
	token.Type = domain.TokenType(tokenType)
	if entityID != nil {
		id, err := ulid.Parse(*entityID)
		if err != nil {
			r.logger.Error("invalid entity id on token", zap.String("token_id", token.ID.String()), zap.Error(err))
			return nil, domain.ErrDatabaseQuery
		}
		token.EntityID = &id
	}
	return token, nil
}
