package database

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"fmt"
	"log/slog"
	"time"

	"studentquiz/config"
	"studentquiz/models"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

const pingTimeout = 5 * time.Second

// Gateway owns the connection pool. Work against the database goes through
// Scope.
type Gateway struct {
	db            *gorm.DB
	useMigrations bool
}

// Open connects to the database described by cfg and verifies it is reachable.
func Open(cfg *config.Config) (*Gateway, error) {
	db, err := gorm.Open(dialector(cfg), &gorm.Config{
		TranslateError: true,
		Logger:         newLogger(cfg.EchoSQL),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	if cfg.DBMaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(cfg.DBMaxOpenConns)
	}
	if cfg.DBMaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(cfg.DBMaxIdleConns)
	}
	sqlDB.SetConnMaxLifetime(cfg.DBConnMaxLifetime)

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()
	if err := sqlDB.PingContext(ctx); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	slog.Info("database connected", "kind", cfg.DBKind, "echo_sql", cfg.EchoSQL)
	return &Gateway{db: db, useMigrations: cfg.UseMigrations}, nil
}

func dialector(cfg *config.Config) gorm.Dialector {
	switch cfg.DBKind {
	case config.DBKindMySQL:
		return mysql.Open(cfg.DSN())
	case config.DBKindSQLite:
		return sqlite.Open(cfg.DSN())
	default:
		return postgres.Open(cfg.DSN())
	}
}

// DB exposes the pooled handle for callers that do not need a dedicated
// connection.
func (g *Gateway) DB() *gorm.DB {
	return g.db
}

// Scope runs fn on a connection taken from the pool for its sole use. The
// connection goes back to the pool when Scope returns, whether fn succeeds,
// fails, panics or ctx is cancelled.
func (g *Gateway) Scope(ctx context.Context, fn func(tx *gorm.DB) error) error {
	sqlDB, err := g.db.DB()
	if err != nil {
		return err
	}

	conn, err := acquire(ctx, sqlDB)
	if err != nil {
		return err
	}
	defer conn.Close()

	tx := g.db.Session(&gorm.Session{Context: ctx, NewDB: true})
	tx.Statement.ConnPool = conn
	return fn(tx)
}

// acquire checks out a connection and pings it first. A connection that
// fails the ping is discarded and replaced once.
func acquire(ctx context.Context, sqlDB *sql.DB) (*sql.Conn, error) {
	conn, err := sqlDB.Conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire connection: %w", err)
	}
	pingErr := conn.PingContext(ctx)
	if pingErr == nil {
		return conn, nil
	}

	// Returning ErrBadConn from Raw makes database/sql drop the connection
	// instead of pooling it again.
	_ = conn.Raw(func(any) error { return driver.ErrBadConn })
	conn.Close()
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	slog.Warn("discarded dead database connection", "error", pingErr)

	conn, err = sqlDB.Conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire connection: %w", err)
	}
	if err := conn.PingContext(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return conn, nil
}

// InitSchema creates missing tables from the model definitions. It does
// nothing when migrations are managed externally (USE_MIGRATIONS).
func (g *Gateway) InitSchema(ctx context.Context) error {
	if g.useMigrations {
		slog.Info("schema managed by migrations, skipping auto-migrate")
		return nil
	}

	if err := g.db.WithContext(ctx).AutoMigrate(models.All()...); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	slog.Info("database schema ready")
	return nil
}

func (g *Gateway) Ping(ctx context.Context) error {
	sqlDB, err := g.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (g *Gateway) Close() error {
	sqlDB, err := g.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
