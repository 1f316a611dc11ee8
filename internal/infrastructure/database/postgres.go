package database

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/manorfm/identity-server/internal/infrastructure/config"
	"go.uber.org/zap"
)

// Postgres represents a PostgreSQL database connection
type Postgres struct {
	pool *pgxpool.Pool
	log  *zap.Logger
}

// ConnString renders the libpq style connection string for cfg
func ConnString(cfg *config.Config) string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		cfg.DBHost, cfg.DBPort, cfg.DBUser, cfg.DBPassword, cfg.DBName,
	)
}

// NewPostgres creates a new PostgreSQL connection
func NewPostgres(ctx context.Context, cfg *config.Config, log *zap.Logger) (*Postgres, error) {
	poolConfig, err := pgxpool.ParseConfig(ConnString(cfg))
	if err != nil {
		return nil, fmt.Errorf("error parsing database config: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("error creating connection pool: %w", err)
	}

	// Test the connection
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("error connecting to database: %w", err)
	}

	return &Postgres{
		pool: pool,
		log:  log,
	}, nil
}

// Close closes the database connection
func (p *Postgres) Close() {
	p.pool.Close()
}

// BeginTx starts a new transaction
func (p *Postgres) BeginTx(ctx context.Context) (pgx.Tx, error) {
	return p.pool.BeginTx(ctx, pgx.TxOptions{})
}

// Exec executes a query without returning any rows
func (p *Postgres) Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error) {
	tag, err := p.pool.Exec(ctx, sql, args...)
	if err != nil {
		p.log.Error("Exec error", zap.String("sql", sql), zap.Error(err))
	}
	return tag, err
}

// Query executes a query that returns rows
func (p *Postgres) Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error) {
	return p.pool.Query(ctx, sql, args...)
}

// QueryRow executes a query that is expected to return at most one row
func (p *Postgres) QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row {
	return p.pool.QueryRow(ctx, sql, args...)
}

// Ping checks if the database connection is alive
func (p *Postgres) Ping(ctx context.Context) error {
	return p.pool.Ping(ctx)
}
