package main

import (
	"errors"
	"flag"
	"log"
	"path/filepath"
	"strconv"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/manorfm/identity-server/internal/infrastructure/config"
	"github.com/manorfm/identity-server/internal/infrastructure/database"
	"go.uber.org/zap"
)

func main() {
	// Parse command line flags
	up := flag.Bool("up", false, "Run migrations up")
	down := flag.Bool("down", false, "Run migrations down")
	steps := flag.Int("steps", 0, "Number of steps to migrate (positive for up, negative for down)")
	force := flag.String("force", "", "Force migration to specific version")
	migrationDir := flag.String("dir", "migrations", "Migration directory path")
	flag.Parse()

	// Initialize logger
	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	// Load configuration
	cfg, err := config.LoadConfig(logger)
	if err != nil {
		logger.Fatal("Failed to load config", zap.Error(err))
	}

	migrationsPath, err := filepath.Abs(*migrationDir)
	if err != nil {
		logger.Fatal("Failed to resolve migration directory", zap.Error(err))
	}

	dbURL := database.URL(cfg)

	m, err := migrate.New("file://"+filepath.ToSlash(migrationsPath), dbURL)
	if err != nil {
		logger.Fatal("Failed to create migration instance", zap.Error(err))
	}
	defer m.Close()

	logger.Info("Migration files found",
		zap.String("path", migrationsPath),
		zap.String("host", cfg.DBHost),
		zap.String("database", cfg.DBName),
	)

	// Run migrations based on flags
	switch {
	case *force != "":
		version, err := strconv.ParseUint(*force, 10, 64)
		if err != nil {
			logger.Fatal("Invalid version number", zap.Error(err))
		}
		if version == 0 {
			if err := m.Drop(); err != nil {
				logger.Fatal("Failed to drop database schema", zap.Error(err))
			}
			logger.Info("Dropped all tables and reset migration state")
			return
		}
		if err := m.Force(int(version)); err != nil {
			logger.Fatal("Failed to force migration version", zap.Error(err))
		}
		logger.Info("Forced migration version", zap.Uint64("version", version))
	case *up:
		logger.Info("Running migrations up")
		if err := m.Up(); err != nil {
			if !errors.Is(err, migrate.ErrNoChange) {
				logger.Fatal("Failed to run migrations up", zap.Error(err))
			}
			logger.Info("No migrations to apply")
		}
		logger.Info("Migrations up completed successfully")
	case *down:
		if err := m.Down(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			logger.Fatal("Failed to run migrations down", zap.Error(err))
		}
		logger.Info("Migrations down completed successfully")
	case *steps != 0:
		if err := m.Steps(*steps); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			logger.Fatal("Failed to run migrations steps", zap.Error(err))
		}
		logger.Info("Migrations steps completed successfully", zap.Int("steps", *steps))
	default:
		version, dirty, err := m.Version()
		if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
			logger.Fatal("Failed to get migration version", zap.Error(err))
		}
		logger.Info("Current migration version",
			zap.Uint("version", version),
			zap.Bool("dirty", dirty),
		)
	}
}
