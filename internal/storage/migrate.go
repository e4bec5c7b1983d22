package storage

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed migrations/*.sql
var schemaFS embed.FS

// SchemaStatus is the position of a database file in the embedded
// migration history. Version 0 means no migration has run.
type SchemaStatus struct {
	Version uint
	Dirty   bool
}

// openMigrator returns a migrator on a dedicated connection to dbPath,
// separate from the repository pool. Closing it closes that connection.
func openMigrator(dbPath string) (*migrate.Migrate, error) {
	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open schema connection: %w", err)
	}
	driver, err := sqlite.WithInstance(conn, &sqlite.Config{})
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite migration driver: %w", err)
	}
	src, err := iofs.New(schemaFS, "migrations")
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("embedded schema source: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", src, "sqlite", driver)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("schema migrator: %w", err)
	}
	return m, nil
}

func statusOf(m *migrate.Migrate) (SchemaStatus, error) {
	version, dirty, err := m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return SchemaStatus{}, nil
	}
	if err != nil {
		return SchemaStatus{}, fmt.Errorf("read schema version: %w", err)
	}
	return SchemaStatus{Version: version, Dirty: dirty}, nil
}

// RunMigrations brings dbPath up to the latest schema. A database left
// dirty by an interrupted migration is reported, not forced.
func RunMigrations(dbPath string) (SchemaStatus, error) {
	m, err := openMigrator(dbPath)
	if err != nil {
		return SchemaStatus{}, err
	}
	defer m.Close()

	before, err := statusOf(m)
	if err != nil {
		return SchemaStatus{}, err
	}
	if before.Dirty {
		return before, fmt.Errorf("schema version %d is dirty, repair it before starting", before.Version)
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return before, fmt.Errorf("apply migrations: %w", err)
	}
	return statusOf(m)
}

// ReadSchemaStatus reports the schema version of dbPath without changing it.
func ReadSchemaStatus(dbPath string) (SchemaStatus, error) {
	m, err := openMigrator(dbPath)
	if err != nil {
		return SchemaStatus{}, err
	}
	defer m.Close()
	return statusOf(m)
}
