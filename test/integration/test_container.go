//go:build integration

package integration

import (
	"context"
	"testing"
	"time"

	"github.com/manorfm/identity-server/internal/infrastructure/config"
	"github.com/manorfm/identity-server/internal/infrastructure/database"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"
)

const migrationsDir = "../../migrations"

// setupTestDatabase starts a PostgreSQL container, applies the migrations
// and returns a connected pool. Everything is released when the test ends.
func setupTestDatabase(t *testing.T) (*database.Postgres, *config.Config) {
	t.Helper()
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "postgres:15-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "test",
			"POSTGRES_PASSWORD": "test",
			"POSTGRES_DB":       "test",
		},
		WaitingFor: wait.ForAll(
			wait.ForLog("database system is ready to accept connections").WithOccurrence(2),
			wait.ForListeningPort("5432/tcp"),
		),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := container.Terminate(context.Background()); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	host, err := container.Host(ctx)
	require.NoError(t, err)

	port, err := container.MappedPort(ctx, "5432")
	require.NoError(t, err)

	cfg := config.NewConfig()
	cfg.DBHost = host
	cfg.DBPort = port.Int()
	cfg.DBUser = "test"
	cfg.DBPassword = "test"
	cfg.DBName = "test"

	var db *database.Postgres
	for i := 0; i < 10; i++ {
		db, err = database.NewPostgres(ctx, cfg, zap.NewNop())
		if err == nil {
			break
		}
		time.Sleep(1 * time.Second)
	}
	require.NoError(t, err)
	t.Cleanup(db.Close)

	require.NoError(t, db.RunMigrations(migrationsDir))

	return db, cfg
}
