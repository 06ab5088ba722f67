package warehouse

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	sfmigrate "github.com/golang-migrate/migrate/v4/database/snowflake"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Migrate provisions the warehouse objects the assistant depends on: the
// chunk table with its 768-dimension vector column and the document stage.
// Migrations are embedded at compile time and applied in order; the
// schema_migrations table is managed by golang-migrate, so re-running is a
// no-op.
func Migrate(db *sql.DB, databaseName string) error {
	if db == nil {
		return ErrNoConnection
	}

	source, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("creating migration source: %w", err)
	}

	driver, err := sfmigrate.WithInstance(db, &sfmigrate.Config{
		DatabaseName: databaseName,
	})
	if err != nil {
		return fmt.Errorf("creating migration driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", source, "snowflake", driver)
	if err != nil {
		return fmt.Errorf("creating migrate instance: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("applying migrations: %w", err)
	}

	return nil
}
