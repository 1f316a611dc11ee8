package database

import (
	"errors"
	"fmt"
	"net/url"
	"path/filepath"
	"strconv"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/manorfm/identity-server/internal/infrastructure/config"
)

// URL renders the postgres:// URL golang-migrate expects for cfg
func URL(cfg *config.Config) string {
	return buildURL(cfg.DBUser, cfg.DBPassword, cfg.DBHost, cfg.DBPort, cfg.DBName)
}

func buildURL(user, password, host string, port int, name string) string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(user, password),
		Host:     host + ":" + strconv.Itoa(port),
		Path:     "/" + name,
		RawQuery: "sslmode=disable",
	}
	return u.String()
}

// RunMigrations applies every pending migration found in dir
func (p *Postgres) RunMigrations(dir string) error {
	migrationsPath, err := filepath.Abs(dir)
	if err != nil {
		return fmt.Errorf("error resolving migrations path: %w", err)
	}

	conn := p.pool.Config().ConnConfig
	dbURL := buildURL(conn.User, conn.Password, conn.Host, int(conn.Port), conn.Database)

	m, err := migrate.New("file://"+filepath.ToSlash(migrationsPath), dbURL)
	if err != nil {
		return fmt.Errorf("error creating migrate instance: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("error running migrations: %w", err)
	}

	p.log.Info("Migrations completed successfully")
	return nil
}
