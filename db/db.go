package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/hookscope/hookscope/config"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// DB is a sqlx handle that knows its dialect.
type DB struct {
	DB      *sqlx.DB
	Dialect config.StoreType
	log     *zap.SugaredLogger
}

func DriverName(dialect config.StoreType) (string, error) {
	switch dialect {
	case config.StoreTypePostgres:
		return "pgx", nil
	case config.StoreTypeSQLite:
		return "sqlite3", nil
	}
	return "", fmt.Errorf("unsupported dialect: %s", dialect)
}

func NewSqlDB(cfg config.DatabaseConfig, dialect config.StoreType) (*sql.DB, error) {
	driver, err := DriverName(dialect)
	if err != nil {
		return nil, err
	}
	db, err := sql.Open(driver, cfg.GetDSN(dialect))
	if err != nil {
		return nil, err
	}
	if dialect == config.StoreTypeSQLite {
		db.SetMaxOpenConns(1)
	}
	db.SetConnMaxLifetime(time.Hour)
	return db, nil
}

func NewDB(sqlDB *sql.DB, dialect config.StoreType, log *zap.SugaredLogger) (*DB, error) {
	driver, err := DriverName(dialect)
	if err != nil {
		return nil, err
	}
	return &DB{
		DB:      sqlx.NewDb(sqlDB, driver),
		Dialect: dialect,
		log:     log,
	}, nil
}

// Builder returns a statement builder with the dialect's placeholders.
func (db *DB) Builder() sq.StatementBuilderType {
	if db.Dialect == config.StoreTypePostgres {
		return sq.StatementBuilder.PlaceholderFormat(sq.Dollar)
	}
	return sq.StatementBuilder.PlaceholderFormat(sq.Question)
}

// Queryable is implemented by both *sqlx.DB and *sqlx.Tx.
type Queryable interface {
	sqlx.ExtContext
	GetContext(context.Context, interface{}, string, ...interface{}) error
	SelectContext(context.Context, interface{}, string, ...interface{}) error
}

type txContextKey struct{}

// Q returns the transaction bound to ctx, or the database.
func (db *DB) Q(ctx context.Context) Queryable {
	if tx, ok := ctx.Value(txContextKey{}).(*sqlx.Tx); ok {
		return tx
	}
	return db.DB
}

func (db *DB) TX(ctx context.Context, fn func(ctx context.Context) error) error {
	tx, err := db.DB.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}

	defer func() {
		if err := recover(); err != nil {
			db.log.Errorf("panic recovered: %v", err)
			if rbErr := tx.Rollback(); rbErr != nil {
				db.log.Errorf("failed to rollback the tx: %v", rbErr)
			}
			panic(err)
		}
	}()

	err = fn(context.WithValue(ctx, txContextKey{}, tx))
	if err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return errors.Wrap(err, rbErr.Error())
		}
		return err
	}

	return tx.Commit()
}

func (db *DB) Debugf(template string, args ...interface{}) {
	db.log.Debugf(template, args...)
}

func (db *DB) Ping() error {
	return db.DB.Ping()
}

func (db *DB) Stats() map[string]interface{} {
	stats := db.DB.Stats()
	return map[string]interface{}{
		"database.total_connections":  stats.OpenConnections,
		"database.active_connections": stats.InUse,
	}
}

func (db *DB) Close() error {
	return db.DB.Close()
}
