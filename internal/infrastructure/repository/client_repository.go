package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/manorfm/identity-server/internal/domain"
	"github.com/manorfm/identity-server/internal/infrastructure/database"
	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"
)

type ClientRepository struct {
	logger *zap.Logger
	db     *database.Postgres
}

func NewClientRepository(db *database.Postgres, logger *zap.Logger) *ClientRepository {
	return &ClientRepository{db: db, logger: logger}
}

const clientColumns = `id, name, client_id, secret_hash, redirect_uri, grant_types, scope, trusted, created_at, updated_at`

func (r *ClientRepository) Create(ctx context.Context, client *domain.Client) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO clients (`+clientColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`, client.ID.String(), client.Name, client.ClientID, client.SecretHash, client.RedirectURI,
		grantTypes(client.GrantTypes), client.Scope, client.Trusted, client.CreatedAt, client.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrClientAlreadyExists
		}
		return domain.ErrDatabaseQuery
	}
	return nil
}

func (r *ClientRepository) Update(ctx context.Context, client *domain.Client) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE clients
		SET name = $1, secret_hash = $2, redirect_uri = $3, grant_types = $4, scope = $5, trusted = $6, updated_at = $7
		WHERE id = $8
	`, client.Name, client.SecretHash, client.RedirectURI, grantTypes(client.GrantTypes), client.Scope,
		client.Trusted, client.UpdatedAt, client.ID.String())
	if err != nil {
		return domain.ErrDatabaseQuery
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrClientNotFound
	}
	return nil
}

// Delete removes the client. Its tokens go with it through the foreign key.
func (r *ClientRepository) Delete(ctx context.Context, id ulid.ULID) error {
	tag, err := r.db.Exec(ctx, "DELETE FROM clients WHERE id = $1", id.String())
	if err != nil {
		return domain.ErrDatabaseQuery
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrClientNotFound
	}
	return nil
}

func (r *ClientRepository) FindByID(ctx context.Context, id ulid.ULID) (*domain.Client, error) {
	row := r.db.QueryRow(ctx, `SELECT `+clientColumns+` FROM clients WHERE id = $1`, id.String())
	return r.scan(row, "failed to find client by id")
}

func (r *ClientRepository) FindByClientID(ctx context.Context, clientID string) (*domain.Client, error) {
	row := r.db.QueryRow(ctx, `SELECT `+clientColumns+` FROM clients WHERE client_id = $1`, clientID)
	return r.scan(row, "failed to find client by client id")
}

func (r *ClientRepository) List(ctx context.Context, limit, offset int) ([]*domain.Client, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+clientColumns+`
		FROM clients
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`, limit, offset)
	if err != nil {
		r.logger.Error("failed to list clients", zap.Error(err))
		return nil, domain.ErrDatabaseQuery
	}
	defer rows.Close()

	clients := []*domain.Client{}
	for rows.Next() {
		client, err := r.scan(rows, "failed to scan client")
		if err != nil {
			return nil, err
		}
		clients = append(clients, client)
	}
	if err := rows.Err(); err != nil {
		r.logger.Error("failed to iterate clients", zap.Error(err))
		return nil, domain.ErrDatabaseQuery
	}
	return clients, nil
}

func (r *ClientRepository) scan(row pgx.Row, msg string) (*domain.Client, error) {
	client := &domain.Client{}
	err := row.Scan(&client.ID, &client.Name, &client.ClientID, &client.SecretHash, &client.RedirectURI,
		&client.GrantTypes, &client.Scope, &client.Trusted, &client.CreatedAt, &client.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrClientNotFound
		}
		r.logger.Error(msg, zap.Error(err))
		return nil, domain.ErrDatabaseQuery
	}
	return client, nil
}

// grantTypes keeps a nil slice from being written as NULL
func grantTypes(types []string) []string {
	if types == nil {
		return []string{}
	}
	return types
}
