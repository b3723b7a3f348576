package main

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"strings"
	"time"

	persistence "github.com/goliatone/go-persistence-bun"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/schema"

	"github.com/goliatone/go-transactions/core"
	txmigrations "github.com/goliatone/go-transactions/migrations"
	sqlstore "github.com/goliatone/go-transactions/store/sql"
)

type persistenceConfig struct {
	cfg core.Config
}

func (p persistenceConfig) GetDebug() bool {
	return false
}

func (p persistenceConfig) GetDriver() string {
	return p.cfg.Storage.Driver
}

func (p persistenceConfig) GetServer() string {
	return p.cfg.Storage.DSN
}

func (p persistenceConfig) GetPingTimeout() time.Duration {
	return 5 * time.Second
}

func (p persistenceConfig) GetOtelIdentifier() string {
	return p.cfg.ServiceName
}

func storageDialect(driver string) (schema.Dialect, string, error) {
	switch strings.ToLower(strings.TrimSpace(driver)) {
	case "sqlite3", "sqlite":
		return sqlitedialect.New(), txmigrations.DialectSQLite, nil
	case "postgres", "postgresql", "pg":
		return pgdialect.New(), txmigrations.DialectPostgres, nil
	default:
		return nil, "", fmt.Errorf("unsupported storage driver %q", driver)
	}
}

func sqlDriverName(driver string) string {
	switch strings.ToLower(strings.TrimSpace(driver)) {
	case "postgres", "postgresql", "pg":
		return "postgres"
	default:
		return "sqlite3"
	}
}

// openStorage opens the database, registers the migration tree for the
// configured dialect, and runs pending migrations.
func openStorage(ctx context.Context, cfg core.Config) (*persistence.Client, *sqlstore.RepositoryFactory, error) {
	dialect, migrationDialect, err := storageDialect(cfg.Storage.Driver)
	if err != nil {
		return nil, nil, err
	}

	sqlDB, err := sql.Open(sqlDriverName(cfg.Storage.Driver), cfg.Storage.DSN)
	if err != nil {
		return nil, nil, fmt.Errorf("open database: %w", err)
	}

	client, err := persistence.New(persistenceConfig{cfg: cfg}, sqlDB, dialect)
	if err != nil {
		_ = sqlDB.Close()
		return nil, nil, fmt.Errorf("persistence client: %w", err)
	}

	_, err = txmigrations.Register(ctx, func(_ context.Context, registered string, _ string, fsys fs.FS) error {
		if registered != migrationDialect {
			return nil
		}
		client.RegisterSQLMigrations(fsys)
		return nil
	}, txmigrations.WithValidationTargets(migrationDialect))
	if err != nil {
		_ = client.Close()
		return nil, nil, fmt.Errorf("register migrations: %w", err)
	}
	if err := client.Migrate(ctx); err != nil {
		_ = client.Close()
		return nil, nil, fmt.Errorf("migrate: %w", err)
	}

	factory, err := sqlstore.NewRepositoryFactoryFromPersistence(client)
	if err != nil {
		_ = client.Close()
		return nil, nil, fmt.Errorf("repository factory: %w", err)
	}
	return client, factory, nil
}
