package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/jmoiron/sqlx"

	"expenses/internal/log"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

func init() {
	// modernc registers itself as "sqlite", which sqlx does not know.
	sqlx.BindDriver(DriverSQLite, sqlx.QUESTION)
}

// Options selects and locates the database.
type Options struct {
	Driver      string
	SQLitePath  string
	DatabaseURL string
}

// DSN returns the connection string for the selected driver.
func (o Options) DSN() string {
	if o.Driver == DriverPostgres {
		return o.DatabaseURL
	}
	return o.SQLitePath + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
}

// Store owns the database handle. All reads and writes go through Queries.
type Store struct {
	db     *sqlx.DB
	driver string
	*Queries
}

// Open connects to the database, verifies the connection and applies
// pending migrations. It logs through the logger carried by ctx.
func Open(ctx context.Context, opts Options) (*Store, error) {
	switch opts.Driver {
	case DriverSQLite:
		if opts.SQLitePath == "" {
			return nil, errors.New("sqlite path is required")
		}
		if err := os.MkdirAll(filepath.Dir(opts.SQLitePath), 0755); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
	case DriverPostgres:
		if opts.DatabaseURL == "" {
			return nil, errors.New("database url is required")
		}
	default:
		return nil, fmt.Errorf("unsupported driver %q", opts.Driver)
	}

	db, err := sqlx.Open(opts.Driver, opts.DSN())
	if err != nil {
		return nil, fmt.Errorf("open %s database: %w", opts.Driver, err)
	}
	if opts.Driver == DriverSQLite {
		// One writer at a time; avoids SQLITE_BUSY between pooled connections.
		db.SetMaxOpenConns(1)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(opts.Driver, opts.DSN()); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	log.FromContext(ctx).WithComponent(log.ComponentStorage).InfoContext(ctx, "Database ready", "driver", opts.Driver)

	return &Store{db: db, driver: opts.Driver, Queries: New(db)}, nil
}

func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Ping reports whether the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) Driver() string {
	return s.driver
}

// WithTx runs fn inside a transaction, committing when fn returns nil.
// fn must only use the Queries it is given.
func (s *Store) WithTx(ctx context.Context, fn func(q *Queries) error) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	if err := fn(New(tx)); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			log.FromContext(ctx).WithComponent(log.ComponentStorage).ErrorContext(ctx, "Rollback failed", log.FieldError, rbErr)
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}
