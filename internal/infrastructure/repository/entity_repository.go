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

type EntityRepository struct {
	logger *zap.Logger
	db     *database.Postgres
}

func NewEntityRepository(db *database.Postgres, logger *zap.Logger) *EntityRepository {
	return &EntityRepository{db: db, logger: logger}
}

const entityColumns = `id, username, domain, password_hash, password_salt, admin, created_at, updated_at`

func (r *EntityRepository) Create(ctx context.Context, entity *domain.Entity) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO entities (`+entityColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, entity.ID.String(), entity.Username, entity.Domain, entity.PasswordHash, entity.PasswordSalt,
		entity.Admin, entity.CreatedAt, entity.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrEntityAlreadyExists
		}
		return domain.ErrDatabaseQuery
	}
	return nil
}

func (r *EntityRepository) FindByID(ctx context.Context, id ulid.ULID) (*domain.Entity, error) {
	row := r.db.QueryRow(ctx, `SELECT `+entityColumns+` FROM entities WHERE id = $1`, id.String())
	return r.scan(row, "failed to find entity by id")
}

func (r *EntityRepository) FindByUsername(ctx context.Context, username string) (*domain.Entity, error) {
	row := r.db.QueryRow(ctx, `SELECT `+entityColumns+` FROM entities WHERE username = $1`, username)
	return r.scan(row, "failed to find entity by username")
}

func (r *EntityRepository) scan(row pgx.Row, msg string) (*domain.Entity, error) {
	entity := &domain.Entity{}
	err := row.Scan(&entity.ID, &entity.Username, &entity.Domain, &entity.PasswordHash, &entity.PasswordSalt,
		&entity.Admin, &entity.CreatedAt, &entity.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrEntityNotFound
		}
		r.logger.Error(msg, zap.Error(err))
		return nil, domain.ErrDatabaseQuery
	}
	return entity, nil
}
