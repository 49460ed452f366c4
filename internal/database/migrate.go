package database

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"log"

	"github.com/golang-migrate/migrate/v4"
	migratedb "github.com/golang-migrate/migrate/v4/database"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed migrations/postgres/*.sql migrations/sqlite/*.sql
var migrationsFS embed.FS

// migrationDB returns the handle migrations run against and whether the
// caller owns it. Postgres gets its own single-connection handle, closed with
// the migrator, so the pool never loses a connection to it. SQLite reuses db
// so :memory: databases see the schema.
func migrationDB(db *sql.DB, dialect Dialect, source string) (*sql.DB, bool, error) {
	if dialect != Postgres {
		return db, false, nil
	}
	mdb, err := sql.Open(string(Postgres), source)
	if err != nil {
		return nil, false, fmt.Errorf("open migration connection: %w", err)
	}
	mdb.SetMaxOpenConns(1)
	return mdb, true, nil
}

func runMigrations(db *sql.DB, dialect Dialect, source string) error {
	sourceDriver, err := iofs.New(migrationsFS, "migrations/"+string(dialect))
	if err != nil {
		return fmt.Errorf("create migration source: %w", err)
	}

	mdb, owned, err := migrationDB(db, dialect, source)
	if err != nil {
		return err
	}

	var dbDriver migratedb.Driver
	switch dialect {
	case Postgres:
		dbDriver, err = postgres.WithInstance(mdb, &postgres.Config{})
	case SQLite:
		dbDriver, err = migratesqlite.WithInstance(mdb, &migratesqlite.Config{})
	default:
		err = fmt.Errorf("no migrations for dialect %q", dialect)
	}
	if err != nil {
		if owned {
			mdb.Close()
		}
		return fmt.Errorf("create migration db driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", sourceDriver, string(dialect), dbDriver)
	if err != nil {
		if owned {
			dbDriver.Close()
		}
		return fmt.Errorf("create migrator: %w", err)
	}
	if owned {
		defer func() {
			if srcErr, dbErr := m.Close(); srcErr != nil || dbErr != nil {
				log.Printf("Error closing migrator: source: %v, db: %v", srcErr, dbErr)
			}
		}()
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("apply migrations: %w", err)
	}

	return nil
}
