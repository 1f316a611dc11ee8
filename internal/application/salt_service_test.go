package application

import (
	"context"
	"regexp"
	"testing"

	"github.com/manorfm/identity-server/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestSaltService_Salt(t *testing.T) {
	entity := domain.NewEntity("e1", "example.org", testEntityHash, "real-salt")

	entities := new(MockEntityRepository)
	entities.On("FindByUsername", mock.Anything, "e1").Return(entity, nil)
	entities.On("FindByUsername", mock.Anything, "ghost").Return(nil, domain.ErrEntityNotFound)
	entities.On("FindByUsername", mock.Anything, "phantom").Return(nil, domain.ErrEntityNotFound)
	entities.On("FindByUsername", mock.Anything, "broken").Return(nil, domain.ErrDatabaseQuery)

	service := NewSaltService(entities, "server-secret", zap.NewNop())
	ctx := context.Background()

	salt, err := service.Salt(ctx, "e1")
	require.NoError(t, err)
	assert.Equal(t, "real-salt", salt)

	fake, err := service.Salt(ctx, "ghost")
	require.NoError(t, err)
	assert.Regexp(t, regexp.MustCompile(`^[0-9a-f]{32}$`), fake)

	again, err := service.Salt(ctx, "ghost")
	require.NoError(t, err)
	assert.Equal(t, fake, again, "fake salts must be stable")

	different, err := service.Salt(ctx, "phantom")
	require.NoError(t, err)
	assert.NotEqual(t, fake, different)

	_, err = service.Salt(ctx, "broken")
	assert.ErrorIs(t, err, domain.ErrDatabaseQuery)

	_, err = service.Salt(ctx, "")
	assert.ErrorIs(t, err, domain.ErrInvalidField)
}

func TestSaltService_FakeSaltDependsOnSecret(t *testing.T) {
	entities := new(MockEntityRepository)
	entities.On("FindByUsername", mock.Anything, "ghost").Return(nil, domain.ErrEntityNotFound)

	a, err := NewSaltService(entities, "secret-a", zap.NewNop()).Salt(context.Background(), "ghost")
	require.NoError(t, err)
	b, err := NewSaltService(entities, "secret-b", zap.NewNop()).Salt(context.Background(), "ghost")
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
}
