package migrator

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/hookscope/hookscope/config"
	"github.com/hookscope/hookscope/db/migrations"
)

// Migrator is a database migrator
type Migrator struct {
	db      *sql.DB
	dialect config.StoreType
	dbname  string
}

func New(db *sql.DB, dialect config.StoreType, dbname string) *Migrator {
	return &Migrator{
		db:      db,
		dialect: dialect,
		dbname:  dbname,
	}
}

func (m *Migrator) init() (*migrate.Migrate, error) {
	var driver database.Driver
	var err error
	switch m.dialect {
	case config.StoreTypePostgres:
		driver, err = postgres.WithInstance(m.db, &postgres.Config{DatabaseName: m.dbname})
	case config.StoreTypeSQLite:
		driver, err = sqlite3.WithInstance(m.db, &sqlite3.Config{DatabaseName: m.dbname})
	default:
		return nil, fmt.Errorf("unsupported dialect: %s", m.dialect)
	}
	if err != nil {
		return nil, err
	}

	d, err := iofs.New(migrations.SQLs, string(m.dialect))
	if err != nil {
		return nil, err
	}

	return migrate.NewWithInstance("iofs", d, string(m.dialect), driver)
}

// Reset drops every table
func (m *Migrator) Reset() error {
	mg, err := m.init()
	if err != nil {
		return err
	}
	return mg.Drop()
}

// Up applies pending migrations, it is a no-op when up to date.
func (m *Migrator) Up() error {
	mg, err := m.init()
	if err != nil {
		return err
	}
	if err := mg.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return err
	}
	return nil
}

func (m *Migrator) Down() error {
	mg, err := m.init()
	if err != nil {
		return err
	}
	return mg.Down()
}

// Status returns the current status
func (m *Migrator) Status() (version uint, dirty bool, err error) {
	mg, err := m.init()
	if err != nil {
		return 0, false, err
	}
	version, dirty, err = mg.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, nil
	}
	return version, dirty, err
}
