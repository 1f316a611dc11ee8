package application

import (
	"context"
	"errors"
	"fmt"

	"github.com/manorfm/identity-server/internal/domain"
	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"
)

// EntityRegistration describes a resource owner to register. The password
// hash and salt are computed by the client; the server stores them as given.
type EntityRegistration struct {
	Username     string
	Domain       string
	PasswordHash string
	PasswordSalt string
	Admin        bool
}

// EntityService registers resource owners
type EntityService struct {
	entities domain.EntityRepository
	logger   *zap.Logger
}

func NewEntityService(entities domain.EntityRepository, logger *zap.Logger) *EntityService {
	return &EntityService{
		entities: entities,
		logger:   logger,
	}
}

// Register creates an entity. Usernames are unique.
func (s *EntityService) Register(ctx context.Context, reg EntityRegistration) (*domain.Entity, error) {
	if reg.Username == "" || reg.Domain == "" || reg.PasswordHash == "" {
		return nil, domain.ErrInvalidField
	}

	entity := domain.NewEntity(reg.Username, reg.Domain, reg.PasswordHash, reg.PasswordSalt)
	entity.Admin = reg.Admin
	if err := s.entities.Create(ctx, entity); err != nil {
		return nil, err
	}

	s.logger.Info("Entity registered",
		zap.String("id", entity.ID.String()),
		zap.String("entity", entity.EntityName()),
		zap.Bool("admin", entity.Admin))
	return entity, nil
}

func (s *EntityService) Get(ctx context.Context, id ulid.ULID) (*domain.Entity, error) {
	return s.entities.FindByID(ctx, id)
}

// EnsureAdmin registers the bootstrap administrator unless the username
// already exists. An existing entity is returned untouched.
func (s *EntityService) EnsureAdmin(ctx context.Context, reg EntityRegistration) (*domain.Entity, error) {
	existing, err := s.entities.FindByUsername(ctx, reg.Username)
	if err == nil {
		if !existing.Admin {
			s.logger.Warn("Bootstrap username belongs to a non admin entity",
				zap.String("username", reg.Username))
		}
		return existing, nil
	}
	if !errors.Is(err, domain.ErrEntityNotFound) {
		return nil, fmt.Errorf("error finding bootstrap admin: %w", err)
	}

	reg.Admin = true
	entity, err := s.Register(ctx, reg)
	if err != nil {
		// a concurrent instance may have seeded it first
		if errors.Is(err, domain.ErrEntityAlreadyExists) {
			return s.entities.FindByUsername(ctx, reg.Username)
		}
		return nil, err
	}
	return entity, nil
}
