// Package store opens the configured database and hands out the
// repositories of every domain package bound to it.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"

	"librarydesk/internal/auth"
	"librarydesk/internal/book"
	"librarydesk/internal/config"
	"librarydesk/internal/loan"
	"librarydesk/internal/member"
	"librarydesk/internal/platform/database"
)

type Store struct {
	Driver  string
	Books   book.Repository
	Members member.Repository
	Loans   loan.Repository
	Users   auth.UserRepository

	pool *pgxpool.Pool
	lite *sqlx.DB
}

// Open connects to cfg.DBDSN with cfg.DBDriver.
func Open(ctx context.Context, cfg config.Config) (*Store, error) {
	switch cfg.DBDriver {
	case config.DriverPostgres:
		pool, err := database.OpenPostgres(ctx, cfg.DBDSN)
		if err != nil {
			return nil, err
		}
		return NewPostgres(pool, cfg.DBTimeout), nil
	case config.DriverSQLite:
		db, err := database.OpenSQLite(ctx, cfg.DBDSN)
		if err != nil {
			return nil, err
		}
		return NewSQLite(db, cfg.DBTimeout), nil
	default:
		return nil, fmt.Errorf("unsupported db driver %q", cfg.DBDriver)
	}
}

func NewPostgres(pool *pgxpool.Pool, timeout time.Duration) *Store {
	return &Store{
		Driver:  config.DriverPostgres,
		Books:   book.NewPostgresRepo(pool, timeout),
		Members: member.NewPostgresRepo(pool, timeout),
		Loans:   loan.NewPostgresRepo(pool, timeout),
		Users:   auth.NewPostgresRepo(pool, timeout),
		pool:    pool,
	}
}

func NewSQLite(db *sqlx.DB, timeout time.Duration) *Store {
	return &Store{
		Driver:  config.DriverSQLite,
		Books:   book.NewSQLiteRepo(db, timeout),
		Members: member.NewSQLiteRepo(db, timeout),
		Loans:   loan.NewSQLiteRepo(db, timeout),
		Users:   auth.NewSQLiteRepo(db, timeout),
		lite:    db,
	}
}

func (s *Store) Ping(ctx context.Context) error {
	if s.pool != nil {
		return s.pool.Ping(ctx)
	}
	return s.lite.PingContext(ctx)
}

// SQLDB returns a database/sql handle for goose. Closing it does not close
// the store.
func (s *Store) SQLDB() *sql.DB {
	if s.pool != nil {
		return stdlib.OpenDBFromPool(s.pool)
	}
	return s.lite.DB
}

func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
	if s.lite != nil {
		s.lite.Close()
	}
}
